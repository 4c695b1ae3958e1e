package canvasfile

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

func sampleDoc() *graph.Document {
	doc := graph.NewDocument()
	a := graph.NewNode("start", 0, 0)
	b := graph.NewNode("end", 300, 100)
	b.Color = "#ff8800"
	doc.AddNode(a)
	doc.AddNode(b)
	c := graph.NewConnection(a.ID, b.ID)
	c.Conditions = []graph.Condition{{Type: graph.ConditionBool, Key: "done", Operator: "==", Value: "true"}}
	c.Style.LineType = graph.LineDashed
	doc.AddConnection(c)
	return doc
}

func TestDocumentFileRoundTrip(t *testing.T) {
	doc := sampleDoc()
	path := filepath.Join(t.TempDir(), "sample.json")

	if err := WriteFile(path, doc, "sample"); err != nil {
		t.Fatal(err)
	}
	loaded, name, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if name != "sample" {
		t.Errorf("name = %q, want sample", name)
	}
	if loaded.NodeCount() != 2 || loaded.ConnectionCount() != 1 {
		t.Fatalf("loaded %d nodes / %d connections", loaded.NodeCount(), loaded.ConnectionCount())
	}
	for _, n := range doc.Nodes() {
		got, ok := loaded.Node(n.ID)
		if !ok {
			t.Fatalf("node %s missing after round trip", n.ID)
		}
		if got.Position() != n.Position() || got.Name != n.Name || got.Color != n.Color {
			t.Errorf("node %s changed: %+v vs %+v", n.ID, got, n)
		}
	}
	c := loaded.Connections()[0]
	if len(c.Conditions) != 1 || c.Conditions[0].Key != "done" {
		t.Errorf("conditions lost: %+v", c.Conditions)
	}
	if c.Style.LineType != graph.LineDashed {
		t.Error("style override lost")
	}
}

func TestDecodeDropsDanglingConnections(t *testing.T) {
	data := []byte(`{
		"version": 1,
		"nodes": [{"id": "a", "name": "a", "x": 0, "y": 0, "width": 80, "height": 40}],
		"connections": [
			{"id": "ok", "source": "a", "target": "a", "conditions": []},
			{"id": "bad", "source": "a", "target": "ghost", "conditions": []}
		]
	}`)
	doc, _, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Connection("bad"); ok {
		t.Error("connection to a missing node survived the load")
	}
	if _, ok := doc.Connection("ok"); !ok {
		t.Error("valid connection was dropped")
	}
}

func TestDecodeClearsInvalidColors(t *testing.T) {
	data := []byte(`{
		"version": 1,
		"nodes": [{"id": "a", "name": "a", "x": 0, "y": 0, "width": 80, "height": 40, "color": "not-a-color"}],
		"connections": []
	}`)
	doc, _, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := doc.Node("a")
	if n.Color != "" {
		t.Errorf("invalid color kept: %q", n.Color)
	}
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	if _, _, err := Decode([]byte(`{"version": 99, "nodes": [], "connections": []}`)); err == nil {
		t.Error("expected an error for a newer format version")
	}
}

func TestRenderPNGProducesImage(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(sampleDoc(), &buf, DefaultPNGOptions()); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output does not start with a PNG signature")
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	docPath := filepath.Join(t.TempDir(), "d.json")

	s := DefaultSidecar()
	s.View.Zoom = 2.5
	s.View.PanX = -40
	s.View.PanY = 12
	if err := SaveSidecar(docPath, s); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSidecar(docPath)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Errorf("sidecar round trip: %+v vs %+v", got, s)
	}
}

func TestSidecarMissingFileIsDefault(t *testing.T) {
	got, err := LoadSidecar(filepath.Join(t.TempDir(), "nothing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if got.View.Zoom != 1 {
		t.Errorf("missing sidecar zoom = %v, want 1", got.View.Zoom)
	}
}
