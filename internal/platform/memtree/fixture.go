package memtree

import (
	"fmt"
	"io"
	"os"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/platform"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML document describing a recorded desktop.
type Fixture struct {
	Monitors   [][4]int  `yaml:"monitors,omitempty"`
	Foreground int64     `yaml:"foreground,omitempty"`
	Windows    []*Window `yaml:"windows"`
}

// Load decodes a fixture and builds a tree from it.
func Load(r io.Reader) (*Tree, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return FromFixture(fx)
}

// LoadFile reads a fixture from disk.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// FromFixture builds a tree from a decoded fixture.
func FromFixture(fx Fixture) (*Tree, error) {
	t := New()
	if len(fx.Monitors) > 0 {
		rects := make([]model.Rect, len(fx.Monitors))
		for i, m := range fx.Monitors {
			rects[i] = model.RectFromBounds(m)
		}
		t.SetMonitors(rects)
	}
	for _, w := range fx.Windows {
		if err := t.AddWindow(w); err != nil {
			return nil, err
		}
	}
	if fx.Foreground != 0 {
		t.SetForeground(fx.Foreground)
	}
	return t, nil
}

// Provider returns a platform.Provider whose ports are all backed by t.
func (t *Tree) Provider() (*platform.Provider, *Input) {
	in := NewInput(t)
	return &platform.Provider{
		Windows:   t,
		Input:     in,
		Monitors:  t,
		Elevation: t,
	}, in
}
