// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format loads and stores the identification container formats:
// idXML-style flat per-run lists, and the pre-grouped featureXML and
// consensusXML shapes. The pipeline consumes and emits these as records;
// byte-level details stay inside this package.
package format

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/consensus-engine/pkg/types"
)

// Type identifies a supported container format.
type Type string

const (
	TypeUnknown      Type = ""
	TypeIdXML        Type = "idXML"
	TypeFeatureXML   Type = "featureXML"
	TypeConsensusXML Type = "consensusXML"
)

// Document is one loaded container. Exactly one of Flat and Grouped is
// set: idXML carries flat per-run identification lists that still need
// grouping; featureXML and consensusXML arrive pre-grouped, one
// container per physical measurement.
type Document struct {
	Type    Type
	Flat    *IdentificationDocument
	Grouped *GroupedDocument
}

// IdentificationDocument is the flat input shape.
type IdentificationDocument struct {
	Runs            []types.Run
	Identifications []types.Identification
}

// GroupedDocument is the pre-grouped input shape.
type GroupedDocument struct {
	Runs   []types.Run
	Groups []types.Group
}

// Detect determines the container type from the file extension, falling
// back to sniffing the root element.
func Detect(path string) (Type, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".idxml":
		return TypeIdXML, nil
	case ".featurexml":
		return TypeFeatureXML, nil
	case ".consensusxml":
		return TypeConsensusXML, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, fmt.Errorf("detecting format of %s: %w", path, err)
	}
	defer f.Close()
	return sniff(f)
}

// sniff reads up to the root element and maps it to a Type.
func sniff(r io.Reader) (Type, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			return TypeUnknown, fmt.Errorf("unrecognized container format: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "IdXML":
			return TypeIdXML, nil
		case "FeatureMap":
			return TypeFeatureXML, nil
		case "ConsensusMap":
			return TypeConsensusXML, nil
		default:
			return TypeUnknown, fmt.Errorf("unrecognized root element %q", se.Name.Local)
		}
	}
}

// Load reads path and parses it according to its detected type.
func Load(path string) (*Document, error) {
	typ, err := Detect(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch typ {
	case TypeIdXML:
		flat, err := parseIdXML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return &Document{Type: typ, Flat: flat}, nil
	case TypeFeatureXML:
		grouped, err := parseFeatureXML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return &Document{Type: typ, Grouped: grouped}, nil
	case TypeConsensusXML:
		grouped, err := parseConsensusXML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return &Document{Type: typ, Grouped: grouped}, nil
	default:
		return nil, fmt.Errorf("unsupported container format for %s", path)
	}
}

// Store writes doc to path in the document's own container type.
func Store(path string, doc *Document) error {
	var data []byte
	var err error
	switch doc.Type {
	case TypeIdXML:
		data, err = renderIdXML(doc.Flat)
	case TypeFeatureXML:
		data, err = renderFeatureXML(doc.Grouped)
	case TypeConsensusXML:
		data, err = renderConsensusXML(doc.Grouped)
	default:
		return fmt.Errorf("unsupported container format %q", doc.Type)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

func render(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
