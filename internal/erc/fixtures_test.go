package erc

import (
	"chipforge/internal/domain"
)

type signal struct {
	name  string
	width int
}

var ahbSignals = []signal{
	{"HCLK", 1},
	{"HRESETn", 1},
	{"HADDR", 32},
	{"HRDATA", 32},
	{"HWDATA", 32},
	{"HTRANS", 2},
	{"HREADY", 1},
	{"HRESP", 2},
	{"HWRITE", 1},
	{"HSIZE", 3},
}

func netID(name string) string {
	return "n_" + name
}

// validDesign builds a complete single-manager, single-subordinate AHB design
// that passes every rule without findings.
func validDesign() *domain.Design {
	d := domain.NewDesign("soc", "Minimal AHB SoC")

	cpu := domain.Component{ID: "cpu", Name: "cpu", Type: domain.ComponentManager}
	sram := domain.Component{ID: "sram", Name: "sram", Type: domain.ComponentSubordinate}
	bus := domain.Bus{ID: "ahb0", Name: "ahb0", Protocol: domain.ProtocolAHB}

	for _, s := range ahbSignals {
		cpu.Pins = append(cpu.Pins, domain.Pin{
			ID: s.name, Name: s.name, Direction: domain.DirectionOut, Width: s.width, BusRole: domain.BusRoleManager,
		})
		sram.Pins = append(sram.Pins, domain.Pin{
			ID: s.name, Name: s.name, Direction: domain.DirectionIn, Width: s.width, BusRole: domain.BusRoleSubordinate,
		})
		d.AddNet(domain.Net{ID: netID(s.name), Name: s.name, Width: s.width})
		bus.Nets = append(bus.Nets, domain.NetRef{NetID: netID(s.name), Role: s.name, Direction: domain.RefMaster})
	}

	sram.Pins = append(sram.Pins, domain.Pin{
		ID: "HSEL0", Name: "HSEL0", Direction: domain.DirectionIn, Width: 1, BusRole: domain.BusRoleSubordinate,
	})
	d.AddNet(domain.Net{ID: netID("HSEL0"), Name: "HSEL0", Width: 1})
	bus.Nets = append(bus.Nets, domain.NetRef{NetID: netID("HSEL0"), Role: "select", Direction: domain.RefSlave})

	d.AddComponent(cpu)
	d.AddComponent(sram)
	d.AddBus(bus)

	for _, s := range ahbSignals {
		d.Connect(netID(s.name), "cpu", s.name)
		d.Connect(netID(s.name), "sram", s.name)
	}
	d.Connect(netID("HSEL0"), "sram", "HSEL0")

	d.Constraints = domain.ConstraintSet{
		Clocks: []domain.Clock{{Name: "HCLK", FreqMHz: 100, StableBetweenClock: true}},
		Resets: []domain.Reset{{Name: "HRESETn", Active: domain.ActiveLow, SyncDeassert: true}},
	}
	return d
}

// addSubordinate adds another subordinate, selected by a new HSEL net when sel is non-empty
func addSubordinate(d *domain.Design, id, sel string) {
	comp := domain.Component{ID: id, Name: id, Type: domain.ComponentSubordinate}
	comp.Pins = append(comp.Pins, domain.Pin{ID: "HREADY", Name: "HREADY", Direction: domain.DirectionOut, Width: 1})
	if sel != "" {
		comp.Pins = append(comp.Pins, domain.Pin{ID: sel, Name: sel, Direction: domain.DirectionIn, Width: 1})
	}
	d.AddComponent(comp)
	d.Connect(netID("HREADY"), id, "HREADY")

	if sel != "" {
		d.AddNet(domain.Net{ID: netID(sel), Name: sel, Width: 1})
		d.Buses[0].Nets = append(d.Buses[0].Nets, domain.NetRef{NetID: netID(sel), Role: "select"})
		d.Connect(netID(sel), id, sel)
	}
}

// withDecoder returns a two-subordinate design whose decoder declares addressRange
func withDecoder(addressRange any) *domain.Design {
	d := validDesign()
	addSubordinate(d, "rom", "HSEL1")
	dec := domain.Component{ID: "dec", Name: "addr_decoder", Type: domain.ComponentDecoder}
	if addressRange != nil {
		dec.SetParameter("addressRange", addressRange)
	}
	d.AddComponent(dec)
	return d
}

// containsAll reports whether every entry of sub occurs in list at least as often
func containsAll(list, sub []string) bool {
	counts := make(map[string]int, len(list))
	for _, s := range list {
		counts[s]++
	}
	for _, s := range sub {
		if counts[s] == 0 {
			return false
		}
		counts[s]--
	}
	return true
}
