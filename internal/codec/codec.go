package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"chipforge/internal/domain"
)

// Importer interface for importing designs from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Design, error)
	Format() string
}

// Exporter interface for exporting designs to various formats
type Exporter interface {
	Export(design *domain.Design, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer format of %s: no file extension", path)
	}
	return ForFormat(ext)
}

// ForContentType picks a codec from an HTTP Content-Type, defaulting to JSON
func ForContentType(contentType string) Codec {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "yaml") || strings.Contains(ct, "yml") {
		return NewYAMLCodec()
	}
	return NewJSONCodec()
}

// normalize fills nil collections so decoded designs match NewDesign
func normalize(d *domain.Design) {
	if d.Components == nil {
		d.Components = make([]domain.Component, 0)
	}
	if d.Nets == nil {
		d.Nets = make([]domain.Net, 0)
	}
	if d.Buses == nil {
		d.Buses = make([]domain.Bus, 0)
	}
	if d.Constraints.Clocks == nil {
		d.Constraints.Clocks = make([]domain.Clock, 0)
	}
	if d.Constraints.Resets == nil {
		d.Constraints.Resets = make([]domain.Reset, 0)
	}
}
