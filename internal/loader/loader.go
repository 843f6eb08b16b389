package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chipforge/internal/codec"
	"chipforge/internal/domain"
)

// LoadFile loads a design from a YAML or JSON file, choosing the codec by extension
func LoadFile(path string) (*domain.Design, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	design, err := Parse(f, c)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if design.ID == "" {
		design.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if design.Name == "" {
		design.Name = design.ID
	}
	return design, nil
}

// ParseYAML parses a design from YAML bytes
func ParseYAML(data []byte) (*domain.Design, error) {
	return Parse(bytes.NewReader(data), codec.NewYAMLCodec())
}

// Parse decodes a design and checks that every id it references exists.
// Pins that omit net_id pick it up from the nets that list them.
func Parse(r io.Reader, imp codec.Importer) (*domain.Design, error) {
	design, err := Decode(r, imp)
	if err != nil {
		return nil, err
	}

	if err := design.CheckReferences(); err != nil {
		return nil, err
	}
	return design, nil
}

// Decode is Parse without the reference check, for callers that want
// dangling references reported as connectivity findings instead.
func Decode(r io.Reader, imp codec.Importer) (*domain.Design, error) {
	design, err := imp.Parse(r)
	if err != nil {
		return nil, err
	}

	fillPinNets(design)
	return design, nil
}

func fillPinNets(d *domain.Design) {
	for _, net := range d.Nets {
		for _, ep := range net.Endpoints {
			comp := d.Component(ep.ComponentID)
			if comp == nil {
				continue
			}
			if pin := comp.Pin(ep.PinID); pin != nil && pin.NetID == "" {
				pin.NetID = net.ID
			}
		}
	}
}
