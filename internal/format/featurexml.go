package format

import (
	"encoding/xml"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// featureXML bundles identifications per physical feature, so the
// grouping step is skipped and each feature becomes one group directly.

type featureXMLDoc struct {
	XMLName  xml.Name      `xml:"FeatureMap"`
	Version  string        `xml:"version,attr,omitempty"`
	Runs     []xmlRun      `xml:"IdentificationRun"`
	Features []containerEl `xml:"Feature"`
}

// containerEl is one pre-grouped measurement: a coordinate plus the
// identifications attached to it. Shared by featureXML and consensusXML.
type containerEl struct {
	RT     float64    `xml:"rt,attr"`
	MZ     float64    `xml:"mz,attr"`
	Idents []xmlIdent `xml:"PeptideIdentification"`
}

func parseFeatureXML(data []byte) (*GroupedDocument, error) {
	var doc featureXMLDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return toGrouped(doc.Runs, doc.Features), nil
}

func renderFeatureXML(doc *GroupedDocument) ([]byte, error) {
	runs, containers := fromGrouped(doc)
	return render(featureXMLDoc{Version: idXMLVersion, Runs: runs, Features: containers})
}

func toGrouped(runs []xmlRun, containers []containerEl) *GroupedDocument {
	out := &GroupedDocument{}
	for _, r := range runs {
		out.Runs = append(out.Runs, toRun(r))
	}
	for _, c := range containers {
		g := types.Group{RT: c.RT, MZ: c.MZ}
		for _, x := range c.Idents {
			g.Members = append(g.Members, toIdentification(x))
		}
		out.Groups = append(out.Groups, g)
	}
	return out
}

func fromGrouped(doc *GroupedDocument) ([]xmlRun, []containerEl) {
	var runs []xmlRun
	for _, r := range doc.Runs {
		runs = append(runs, fromRun(r))
	}
	var containers []containerEl
	for _, g := range doc.Groups {
		c := containerEl{RT: g.RT, MZ: g.MZ}
		for _, m := range g.Members {
			c.Idents = append(c.Idents, fromIdentification(m))
		}
		containers = append(containers, c)
	}
	return runs, containers
}
