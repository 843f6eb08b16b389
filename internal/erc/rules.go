package erc

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"chipforge/internal/domain"
)

// MinDecodeBytes is the smallest address region one HSEL line may decode (1KB)
const MinDecodeBytes = 1024

// fixedWidths are the protocol-mandated widths checked by the width rule, in order
var fixedWidths = []struct {
	role  Role
	width int
}{
	{RoleAddress, 32},
	{RoleTransfer, 2},
	{RoleResponse, 2},
	{RoleWrite, 1},
	{RoleSize, 3},
}

// legal AHB data bus widths
var dataWidths = []int{8, 16, 32, 64, 128, 256, 512, 1024}

// findings collects the diagnostics of one rule run
type findings struct {
	result domain.ERCResult
}

func newFindings() *findings {
	return &findings{result: domain.NewERCResult()}
}

func (f *findings) errorf(format string, args ...any) {
	f.result.Errors = append(f.result.Errors, fmt.Sprintf(format, args...))
}

func (f *findings) warnf(format string, args ...any) {
	f.result.Warnings = append(f.result.Warnings, fmt.Sprintf(format, args...))
}

// busRule checks one aspect of a single AHB bus
type busRule struct {
	name  string
	check func(sc *SignalContext, d *domain.Design, f *findings)
}

// designRule checks a design-wide property once per run
type designRule struct {
	name  string
	check func(d *domain.Design, f *findings)
}

// busRules run against every AHB bus, all of them, in this order
var busRules = []busRule{
	{"presence", checkPresence},
	{"width", checkWidths},
	{"data-consistency", checkDataBus},
	{"decode-granularity", checkDecodeGranularity},
	{"select-signals", checkSelectSignals},
	{"reset-shape", checkResetShape},
	{"clock", checkBusClock},
}

// designRules run once per design after every bus has been checked
var designRules = []designRule{
	{"clock-cardinality", checkClockCardinality},
	{"reset-configuration", checkResetConfiguration},
}

func checkPresence(sc *SignalContext, _ *domain.Design, f *findings) {
	for _, role := range RequiredRoles {
		if sc.Net(role) == nil {
			f.errorf("Missing required AHB signal: %s", role)
		}
	}
}

func checkWidths(sc *SignalContext, _ *domain.Design, f *findings) {
	for _, fw := range fixedWidths {
		net := sc.Net(fw.role)
		if net == nil {
			continue
		}
		if net.Width != fw.width {
			f.errorf("%s must be %d bits, got %d", fw.role, fw.width, net.Width)
		}
	}
}

func checkDataBus(sc *SignalContext, _ *domain.Design, f *findings) {
	for _, role := range []Role{RoleReadData, RoleWriteData} {
		net := sc.Net(role)
		if net != nil && !legalDataWidth(net.Width) {
			f.errorf("%s width must be one of 8, 16, 32, 64, 128, 256, 512 or 1024 bits, got %d", role, net.Width)
		}
	}

	if sc.ReadData == nil || sc.WriteData == nil {
		return
	}
	if sc.ReadData.Width != sc.WriteData.Width {
		f.errorf("HRDATA and HWDATA widths must match, got %d and %d", sc.ReadData.Width, sc.WriteData.Width)
	}
}

func legalDataWidth(w int) bool {
	for _, dw := range dataWidths {
		if w == dw {
			return true
		}
	}
	return false
}

func checkDecodeGranularity(sc *SignalContext, d *domain.Design, f *findings) {
	// a single subordinate has nothing to decode between
	if len(sc.Selects) < 2 {
		return
	}

	decoder := findDecoder(d)
	if decoder == nil {
		f.warnf("Cannot verify decode granularity: no address decoder component found")
		return
	}

	raw, _, ok := decoder.AddressRange()
	if !ok {
		f.warnf("Cannot verify decode granularity: decoder %s has no addressRange parameter", decoder.Name)
		return
	}

	size, err := domain.ParseAddressRange(raw)
	if err != nil {
		f.warnf("Cannot verify decode granularity: decoder %s has unparseable addressRange %q", decoder.Name, fmt.Sprint(raw))
		return
	}

	if size < MinDecodeBytes {
		f.errorf("Decode granularity of decoder %s is %v (%s), below the 1KB AHB minimum",
			decoder.Name, raw, humanize.IBytes(size))
	}
}

func checkSelectSignals(sc *SignalContext, d *domain.Design, f *findings) {
	if len(sc.Selects) > 0 {
		return
	}

	subordinates := 0
	for i := range d.Components {
		if isSubordinate(&d.Components[i]) {
			subordinates++
		}
	}
	if subordinates > 1 {
		f.errorf("Multiple slaves detected but missing HSEL signals")
	}
}

func checkResetShape(sc *SignalContext, d *domain.Design, f *findings) {
	if sc.Reset == nil {
		return
	}

	// defer to the design-wide check only for constraints it actually inspects
	for _, r := range d.Constraints.Resets {
		if strings.EqualFold(r.Name, sc.Reset.Name) && isAHBReset(r.Name) {
			return
		}
	}

	for _, ref := range d.Endpoints(sc.Reset.ID) {
		if ref.Pin == nil {
			continue
		}
		if !looksActiveLow(ref.Pin.Name) {
			f.warnf("Reset pin %s.%s appears to be active-high; AHB expects active-low HRESETn",
				ref.Component.Name, ref.Pin.Name)
		}
	}
}

// clock constraints name a domain, not a net, so only the net shape is checked
func checkBusClock(sc *SignalContext, _ *domain.Design, f *findings) {
	if sc.Clock == nil {
		return
	}
	if sc.Clock.Width != 1 {
		f.errorf("%s must be 1 bits, got %d", RoleClock, sc.Clock.Width)
	}
}

func checkClockCardinality(d *domain.Design, f *findings) {
	switch n := len(d.Constraints.Clocks); {
	case n == 0:
		f.warnf("No clocks defined in constraints; cannot verify AHB clocking")
	case n > 1:
		f.errorf("AHB requires a single clock domain, found %d clocks", n)
	}
}

func checkResetConfiguration(d *domain.Design, f *findings) {
	for _, r := range d.Constraints.Resets {
		if !isAHBReset(r.Name) {
			continue
		}
		if !strings.EqualFold(string(r.Active), string(domain.ActiveLow)) {
			f.errorf("HRESETn must be active-low (active: \"low\")")
		}
		if !r.SyncDeassert {
			f.warnf("Reset %s should be deasserted synchronously (syncDeassert: true)", r.Name)
		}
	}
}

func isAHBReset(name string) bool {
	return strings.EqualFold(name, string(RoleReset)) ||
		strings.Contains(strings.ToLower(name), "reset")
}
