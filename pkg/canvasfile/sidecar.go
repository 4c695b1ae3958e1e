package canvasfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Sidecar holds per-diagram view state kept next to the document in a
// TOML file, so reopening a diagram restores where the user left off.
// It is advisory: a missing or unreadable sidecar never blocks a load.
type Sidecar struct {
	View ViewState `toml:"view"`
}

// ViewState is the persisted viewport transform.
type ViewState struct {
	Zoom float64 `toml:"zoom"`
	PanX float64 `toml:"pan_x"`
	PanY float64 `toml:"pan_y"`
}

// DefaultSidecar returns a sidecar with the identity view.
func DefaultSidecar() Sidecar {
	return Sidecar{View: ViewState{Zoom: 1}}
}

// SidecarPath returns the sidecar location for a document path.
func SidecarPath(docPath string) string {
	return docPath + ".view.toml"
}

// LoadSidecar reads the sidecar for a document. A missing file yields
// the default view without error.
func LoadSidecar(docPath string) (Sidecar, error) {
	s := DefaultSidecar()
	_, err := toml.DecodeFile(SidecarPath(docPath), &s)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSidecar(), nil
	}
	if err != nil {
		return DefaultSidecar(), fmt.Errorf("read sidecar: %w", err)
	}
	if s.View.Zoom <= 0 {
		s.View.Zoom = 1
	}
	return s, nil
}

// SaveSidecar writes the sidecar next to the document.
func SaveSidecar(docPath string, s Sidecar) error {
	f, err := os.Create(SidecarPath(docPath))
	if err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("encode sidecar: %w", err)
	}
	return f.Close()
}
