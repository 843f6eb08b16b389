package codec

import (
	"fmt"
	"io"

	"chipforge/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a design from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Design, error) {
	var design domain.Design
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&design); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	normalize(&design)
	return &design, nil
}

// Export exports a design to YAML
func (c *YAMLCodec) Export(design *domain.Design, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(design); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
