package format

import "encoding/xml"

// consensusXML is the second pre-grouped dialect: elements already
// represent cross-run consensus features.

type consensusXMLDoc struct {
	XMLName  xml.Name      `xml:"ConsensusMap"`
	Version  string        `xml:"version,attr,omitempty"`
	Runs     []xmlRun      `xml:"IdentificationRun"`
	Elements []containerEl `xml:"ConsensusElement"`
}

func parseConsensusXML(data []byte) (*GroupedDocument, error) {
	var doc consensusXMLDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return toGrouped(doc.Runs, doc.Elements), nil
}

func renderConsensusXML(doc *GroupedDocument) ([]byte, error) {
	runs, containers := fromGrouped(doc)
	return render(consensusXMLDoc{Version: idXMLVersion, Runs: runs, Elements: containers})
}
