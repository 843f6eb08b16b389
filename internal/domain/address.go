package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AddressRangeKeys are the component parameters holding a decoder's address-range size
var AddressRangeKeys = []string{"addressRange", "addrRange"}

// AddressRange returns the raw address-range parameter of a component and the key it was found under
func (c *Component) AddressRange() (any, string, bool) {
	for _, key := range AddressRangeKeys {
		if v, ok := c.Parameter(key); ok {
			return v, key, true
		}
	}
	return nil, "", false
}

// ParseAddressRange converts an address-range value into a byte count.
// Strings accept a bare integer, 0x hex, or a B, K, KB, M or MB suffix in any case.
// Numbers must be non-negative whole values.
func ParseAddressRange(v any) (uint64, error) {
	switch val := v.(type) {
	case string:
		return parseAddressString(val)
	case int:
		return nonNegative(int64(val))
	case int64:
		return nonNegative(val)
	case int32:
		return nonNegative(int64(val))
	case uint64:
		return val, nil
	case uint:
		return uint64(val), nil
	case float64:
		if val < 0 || val != math.Trunc(val) || val >= math.MaxUint64 {
			return 0, errors.Errorf("invalid address range %v", val)
		}
		return uint64(val), nil
	case nil:
		return 0, errors.New("address range is empty")
	default:
		return 0, errors.Errorf("unsupported address range type %T", v)
	}
}

func nonNegative(n int64) (uint64, error) {
	if n < 0 {
		return 0, errors.Errorf("negative address range %d", n)
	}
	return uint64(n), nil
}

var sizeSuffixes = []struct {
	suffix string
	scale  uint64
}{
	// longest first so "KB" is not read as "B"
	{"KB", 1 << 10},
	{"MB", 1 << 20},
	{"K", 1 << 10},
	{"M", 1 << 20},
	{"B", 1},
}

func parseAddressString(s string) (uint64, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	if in == "" {
		return 0, errors.New("address range is empty")
	}

	if strings.HasPrefix(in, "0X") {
		n, err := strconv.ParseUint(in[2:], 16, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid address range %q", s)
		}
		return n, nil
	}

	scale := uint64(1)
	for _, sfx := range sizeSuffixes {
		if strings.HasSuffix(in, sfx.suffix) {
			in = strings.TrimSpace(strings.TrimSuffix(in, sfx.suffix))
			scale = sfx.scale
			break
		}
	}

	n, err := strconv.ParseUint(in, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid address range %q", s)
	}
	if n > math.MaxUint64/scale {
		return 0, errors.Errorf("address range %q overflows", s)
	}
	return n * scale, nil
}
