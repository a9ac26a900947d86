package format

import (
	"encoding/xml"
	"time"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// XML element structs shared by the three dialects.

type xmlRun struct {
	ID                  string `xml:"id,attr"`
	SearchEngine        string `xml:"search_engine,attr,omitempty"`
	SearchEngineVersion string `xml:"search_engine_version,attr,omitempty"`
	Date                string `xml:"date,attr,omitempty"`
}

// xmlIdent carries RT/MZ as pointers so a missing attribute stays
// distinguishable from a genuine zero coordinate.
type xmlIdent struct {
	RunRef            string   `xml:"run_ref,attr"`
	RT                *float64 `xml:"rt,attr,omitempty"`
	MZ                *float64 `xml:"mz,attr,omitempty"`
	ScoreType         string   `xml:"score_type,attr,omitempty"`
	HigherScoreBetter bool     `xml:"higher_score_better,attr"`
	Hits              []xmlHit `xml:"PeptideHit"`
}

type xmlHit struct {
	Sequence string  `xml:"sequence,attr"`
	Score    float64 `xml:"score,attr"`
	Rank     int     `xml:"rank,attr,omitempty"`
}

type idXMLDoc struct {
	XMLName xml.Name   `xml:"IdXML"`
	Version string     `xml:"version,attr,omitempty"`
	Runs    []xmlRun   `xml:"IdentificationRun"`
	Idents  []xmlIdent `xml:"PeptideIdentification"`
}

const idXMLVersion = "1.0"

func parseIdXML(data []byte) (*IdentificationDocument, error) {
	var doc idXMLDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	out := &IdentificationDocument{}
	for _, r := range doc.Runs {
		out.Runs = append(out.Runs, toRun(r))
	}
	for _, x := range doc.Idents {
		out.Identifications = append(out.Identifications, toIdentification(x))
	}
	return out, nil
}

func renderIdXML(doc *IdentificationDocument) ([]byte, error) {
	x := idXMLDoc{Version: idXMLVersion}
	for _, r := range doc.Runs {
		x.Runs = append(x.Runs, fromRun(r))
	}
	for _, id := range doc.Identifications {
		x.Idents = append(x.Idents, fromIdentification(id))
	}
	return render(x)
}

// --- element conversions ---

func toRun(x xmlRun) types.Run {
	r := types.Run{
		ID:                  x.ID,
		SearchEngine:        x.SearchEngine,
		SearchEngineVersion: x.SearchEngineVersion,
	}
	if t, err := time.Parse(time.RFC3339, x.Date); err == nil {
		r.Date = t
	}
	return r
}

func fromRun(r types.Run) xmlRun {
	x := xmlRun{
		ID:                  r.ID,
		SearchEngine:        r.SearchEngine,
		SearchEngineVersion: r.SearchEngineVersion,
	}
	if !r.Date.IsZero() {
		x.Date = r.Date.Format(time.RFC3339)
	}
	return x
}

func toIdentification(x xmlIdent) types.Identification {
	id := types.Identification{
		RunID:             x.RunRef,
		ScoreType:         x.ScoreType,
		HigherScoreBetter: x.HigherScoreBetter,
	}
	if x.RT != nil {
		id.RT, id.HasRT = *x.RT, true
	}
	if x.MZ != nil {
		id.MZ, id.HasMZ = *x.MZ, true
	}
	for _, h := range x.Hits {
		id.Hits = append(id.Hits, types.Hit{Sequence: h.Sequence, Score: h.Score, Rank: h.Rank})
	}
	return id
}

func fromIdentification(id types.Identification) xmlIdent {
	x := xmlIdent{
		RunRef:            id.RunID,
		ScoreType:         id.ScoreType,
		HigherScoreBetter: id.HigherScoreBetter,
	}
	if id.HasRT {
		rt := id.RT
		x.RT = &rt
	}
	if id.HasMZ {
		mz := id.MZ
		x.MZ = &mz
	}
	for _, h := range id.Hits {
		x.Hits = append(x.Hits, xmlHit{Sequence: h.Sequence, Score: h.Score, Rank: h.Rank})
	}
	return x
}
