package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"chipforge/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a design from JSON. Unknown keys are rejected so a misspelt
// field such as "netId" fails the import instead of leaving a pin unconnected.
func (c *JSONCodec) Parse(r io.Reader) (*domain.Design, error) {
	var design domain.Design
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&design); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	normalize(&design)
	return &design, nil
}

// Export exports a design to JSON
func (c *JSONCodec) Export(design *domain.Design, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(design); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
