package domain

import (
	"maps"
	"slices"
	"strings"
)

// PinRef resolves an endpoint to its component and pin.
// Either pointer is nil when the endpoint dangles.
type PinRef struct {
	Endpoint
	Component *Component
	Pin       *Pin
}

// Component returns a component by ID, or nil if not found
func (d *Design) Component(id string) *Component {
	for i := range d.Components {
		if d.Components[i].ID == id {
			return &d.Components[i]
		}
	}
	return nil
}

// Net returns a net by ID, or nil if not found
func (d *Design) Net(id string) *Net {
	for i := range d.Nets {
		if d.Nets[i].ID == id {
			return &d.Nets[i]
		}
	}
	return nil
}

// Bus returns a bus by ID, or nil if not found
func (d *Design) Bus(id string) *Bus {
	for i := range d.Buses {
		if d.Buses[i].ID == id {
			return &d.Buses[i]
		}
	}
	return nil
}

// NetByName returns the first net whose name matches case-insensitively
func (d *Design) NetByName(name string) *Net {
	for i := range d.Nets {
		if strings.EqualFold(d.Nets[i].Name, name) {
			return &d.Nets[i]
		}
	}
	return nil
}

// AHBBuses returns the AHB buses in declaration order
func (d *Design) AHBBuses() []*Bus {
	var buses []*Bus
	for i := range d.Buses {
		if d.Buses[i].IsAHB() {
			buses = append(buses, &d.Buses[i])
		}
	}
	return buses
}

// Endpoints resolves every endpoint of a net, in endpoint order
func (d *Design) Endpoints(netID string) []PinRef {
	net := d.Net(netID)
	if net == nil {
		return nil
	}

	refs := make([]PinRef, 0, len(net.Endpoints))
	for _, ep := range net.Endpoints {
		ref := PinRef{Endpoint: ep}
		if comp := d.Component(ep.ComponentID); comp != nil {
			ref.Component = comp
			ref.Pin = comp.Pin(ep.PinID)
		}
		refs = append(refs, ref)
	}
	return refs
}

// AddComponent appends a component, ignoring ones without an ID
func (d *Design) AddComponent(c Component) {
	if c.ID == "" {
		return
	}
	d.Components = append(d.Components, c)
}

// AddNet appends a net, ignoring ones without an ID
func (d *Design) AddNet(n Net) {
	if n.ID == "" {
		return
	}
	d.Nets = append(d.Nets, n)
}

// AddBus appends a bus, ignoring ones without an ID
func (d *Design) AddBus(b Bus) {
	if b.ID == "" {
		return
	}
	d.Buses = append(d.Buses, b)
}

// Connect attaches a component pin to a net, keeping the pin's NetID in step.
// A pin already on another net is moved.
func (d *Design) Connect(netID, componentID, pinID string) bool {
	net := d.Net(netID)
	comp := d.Component(componentID)
	if net == nil || comp == nil {
		return false
	}
	pin := comp.Pin(pinID)
	if pin == nil {
		return false
	}

	if pin.NetID != "" && pin.NetID != netID {
		d.Disconnect(pin.NetID, componentID, pinID)
	}

	ep := Endpoint{ComponentID: componentID, PinID: pinID}
	for _, existing := range net.Endpoints {
		if existing == ep {
			pin.NetID = netID
			return true
		}
	}
	net.Endpoints = append(net.Endpoints, ep)
	pin.NetID = netID
	return true
}

// Disconnect detaches a component pin from a net
func (d *Design) Disconnect(netID, componentID, pinID string) {
	if net := d.Net(netID); net != nil {
		kept := net.Endpoints[:0]
		for _, ep := range net.Endpoints {
			if ep.ComponentID == componentID && ep.PinID == pinID {
				continue
			}
			kept = append(kept, ep)
		}
		net.Endpoints = kept
	}

	if comp := d.Component(componentID); comp != nil {
		if pin := comp.Pin(pinID); pin != nil && pin.NetID == netID {
			pin.NetID = ""
		}
	}
}

// RemoveNet deletes a net along with every bus reference and pin link to it
func (d *Design) RemoveNet(id string) {
	nets := d.Nets[:0]
	for _, n := range d.Nets {
		if n.ID != id {
			nets = append(nets, n)
		}
	}
	d.Nets = nets

	for i := range d.Buses {
		refs := d.Buses[i].Nets[:0]
		for _, ref := range d.Buses[i].Nets {
			if ref.NetID != id {
				refs = append(refs, ref)
			}
		}
		d.Buses[i].Nets = refs
	}

	for i := range d.Components {
		for j := range d.Components[i].Pins {
			if d.Components[i].Pins[j].NetID == id {
				d.Components[i].Pins[j].NetID = ""
			}
		}
	}
}

// SyncPinNets rebuilds every Pin.NetID from net endpoint membership.
// Pins on no net are cleared; a pin listed by several nets keeps the first.
func (d *Design) SyncPinNets() {
	for i := range d.Components {
		for j := range d.Components[i].Pins {
			d.Components[i].Pins[j].NetID = ""
		}
	}

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

// Clone returns a deep copy of the design graph
func (d *Design) Clone() *Design {
	out := *d

	out.Components = slices.Clone(d.Components)
	for i := range out.Components {
		c := &out.Components[i]
		c.Pins = slices.Clone(c.Pins)
		c.Parameters = maps.Clone(c.Parameters)
		if c.Compliance != nil {
			compliance := *c.Compliance
			c.Compliance = &compliance
		}
	}

	out.Nets = slices.Clone(d.Nets)
	for i := range out.Nets {
		out.Nets[i].Endpoints = slices.Clone(out.Nets[i].Endpoints)
	}

	out.Buses = slices.Clone(d.Buses)
	for i := range out.Buses {
		out.Buses[i].Nets = slices.Clone(out.Buses[i].Nets)
		out.Buses[i].Properties = maps.Clone(out.Buses[i].Properties)
	}

	out.Constraints = ConstraintSet{
		Clocks: slices.Clone(d.Constraints.Clocks),
		Resets: slices.Clone(d.Constraints.Resets),
	}
	return &out
}
