// Package canvasfile reads and writes diagram documents and their
// companion artifacts: the JSON document itself, an optional TOML
// sidecar with view state, and PNG export.
package canvasfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// FormatVersion is written into every document and checked on load.
const FormatVersion = 1

// fileDocument is the serialized shape of a diagram.
type fileDocument struct {
	Version     int                 `json:"version"`
	Name        string              `json:"name,omitempty"`
	Nodes       []*graph.Node       `json:"nodes"`
	Connections []*graph.Connection `json:"connections"`
}

// Encode serializes a document to JSON. Node and connection order is
// the document's draw/creation order, so output is stable.
func Encode(doc *graph.Document, name string, pretty bool) ([]byte, error) {
	fd := fileDocument{
		Version:     FormatVersion,
		Name:        name,
		Nodes:       doc.Nodes(),
		Connections: doc.Connections(),
	}
	if pretty {
		return json.MarshalIndent(fd, "", "  ")
	}
	return json.Marshal(fd)
}

// Decode parses a document from JSON. Connections whose endpoints do
// not resolve are dropped rather than failing the load, and invalid
// color overrides are cleared.
func Decode(data []byte) (*graph.Document, string, error) {
	var fd fileDocument
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, "", fmt.Errorf("parse document: %w", err)
	}
	if fd.Version > FormatVersion {
		return nil, "", fmt.Errorf("document version %d is newer than supported %d", fd.Version, FormatVersion)
	}

	doc := graph.NewDocument()
	for _, n := range fd.Nodes {
		if n == nil || n.ID == "" {
			continue
		}
		if !graph.ValidColor(n.Color) {
			n.Color = ""
		}
		if n.AutoSize {
			n.ApplyAutoSize()
		} else {
			if n.Width < 1 {
				n.Width = 1
			}
			if n.Height < 1 {
				n.Height = 1
			}
		}
		doc.AddNode(n)
	}
	for _, c := range fd.Connections {
		if c == nil || c.ID == "" {
			continue
		}
		if !graph.ValidColor(c.Style.Color) {
			c.Style.Color = ""
		}
		if !graph.ValidColor(c.Style.ArrowColor) {
			c.Style.ArrowColor = ""
		}
		doc.AddConnection(c)
	}
	return doc, fd.Name, nil
}

// WriteFile writes a document as pretty-printed JSON.
func WriteFile(path string, doc *graph.Document, name string) error {
	data, err := Encode(doc, name, true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a document from disk.
func ReadFile(path string) (*graph.Document, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}
