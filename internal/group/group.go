// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package group links identification events across runs by RT and m/z
// proximity. Linking is a greedy quality-threshold clustering: the
// densest still-unassigned neighborhood is committed as a group until
// every event is assigned.
package group

import (
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// point is one identification event flattened into the linking arena.
type point struct {
	rt, mz float64
	run    int // dense run slot
	id     types.Identification
}

// member is one neighborhood entry: an arena index and its normalized
// distance to the seed.
type member struct {
	idx  int
	dist float64
}

// Link partitions the per-run identification lists into groups whose
// members lie within cfg tolerances of a common centroid, with at most
// one event per run in a group. Every input event ends up in exactly one
// group; events with no cross-run match form singleton groups.
//
// Any event missing RT or m/z fails the whole operation with
// types.ErrIncompatibleInput: silently skipping would corrupt group
// membership for everything else.
func Link(byRun [][]types.Identification, cfg types.GroupingConfig) ([]types.Group, error) {
	if cfg.RTDelta < 0 || cfg.MZDelta < 0 {
		return nil, fmt.Errorf("%w: tolerances must be non-negative (rt_delta=%g, mz_delta=%g)",
			types.ErrInvalidConfiguration, cfg.RTDelta, cfg.MZDelta)
	}

	var arena []point
	for slot, ids := range byRun {
		for _, id := range ids {
			if !id.HasRT || !id.HasMZ {
				return nil, fmt.Errorf("%w: identification in run %q lacks RT and/or m/z information",
					types.ErrIncompatibleInput, id.RunID)
			}
			arena = append(arena, point{rt: id.RT, mz: id.MZ, run: slot, id: id})
		}
	}

	alive := make([]bool, len(arena))
	for i := range alive {
		alive[i] = true
	}

	var groups []types.Group
	for remaining := len(arena); remaining > 0; {
		seed, members := bestCandidate(arena, alive, cfg)

		g := types.Group{RT: arena[seed].rt, MZ: arena[seed].mz}
		for _, m := range members {
			g.Members = append(g.Members, arena[m.idx].id)
			alive[m.idx] = false
			remaining--
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// FromContainers treats pre-grouped containers as groups directly,
// skipping the linking step. This is the degenerate entry point for
// input that already bundles one physical measurement per container.
func FromContainers(groups []types.Group) []types.Group {
	return groups
}

// bestCandidate scans all unassigned points and returns the one whose
// tolerance-bounded neighborhood covers the most distinct runs, together
// with that neighborhood. Ties break by ascending RT, then ascending
// m/z, then arena index, making the greedy commit order deterministic.
func bestCandidate(arena []point, alive []bool, cfg types.GroupingConfig) (int, []member) {
	best := -1
	var bestMembers []member
	for i := range arena {
		if !alive[i] {
			continue
		}
		members := neighborhood(arena, alive, i, cfg)
		if best < 0 || betterCandidate(arena, i, members, best, bestMembers) {
			best = i
			bestMembers = members
		}
	}
	return best, bestMembers
}

// betterCandidate reports whether candidate i beats the current best.
func betterCandidate(arena []point, i int, members []member, best int, bestMembers []member) bool {
	if len(members) != len(bestMembers) {
		return len(members) > len(bestMembers)
	}
	if arena[i].rt != arena[best].rt {
		return arena[i].rt < arena[best].rt
	}
	if arena[i].mz != arena[best].mz {
		return arena[i].mz < arena[best].mz
	}
	return i < best
}

// neighborhood collects the unassigned points within tolerance of the
// seed, keeping at most one point per run: the nearest by normalized
// distance, ties by lower arena index. The seed always belongs to its
// own neighborhood at distance zero.
func neighborhood(arena []point, alive []bool, seed int, cfg types.GroupingConfig) []member {
	perRun := make(map[int]member)
	for j := range arena {
		if !alive[j] {
			continue
		}
		d := normDist(arena[seed], arena[j], cfg)
		if d > 1 {
			continue
		}
		cur, ok := perRun[arena[j].run]
		if !ok || d < cur.dist || (d == cur.dist && j < cur.idx) {
			perRun[arena[j].run] = member{idx: j, dist: d}
		}
	}

	members := make([]member, 0, len(perRun))
	for _, m := range perRun {
		members = append(members, m)
	}
	sort.Slice(members, func(a, b int) bool {
		return arena[members[a].idx].run < arena[members[b].idx].run
	})
	return members
}

// normDist is the Euclidean distance between two points with each axis
// normalized by its tolerance, so any point within distance 1 of the
// seed is also within rt_delta and mz_delta of it per coordinate. Charge
// state is deliberately ignored. A zero tolerance demands exact
// coordinate equality on that axis.
func normDist(a, b point, cfg types.GroupingConfig) float64 {
	nr, ok := normTerm(math.Abs(a.rt-b.rt), cfg.RTDelta)
	if !ok {
		return math.Inf(1)
	}
	nm, ok := normTerm(math.Abs(a.mz-b.mz), cfg.MZDelta)
	if !ok {
		return math.Inf(1)
	}
	return math.Hypot(nr, nm)
}

func normTerm(d, delta float64) (float64, bool) {
	if delta == 0 {
		return 0, d == 0
	}
	return d / delta, true
}
