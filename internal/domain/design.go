package domain

import (
	"strings"
	"time"
)

// Direction is the electrical direction of a pin
type Direction string

const (
	DirectionIn    Direction = "in"
	DirectionOut   Direction = "out"
	DirectionInOut Direction = "inout"
)

// BusRole tags a pin with the part it plays on a bus
type BusRole string

const (
	BusRoleManager     BusRole = "manager"
	BusRoleSubordinate BusRole = "subordinate"
	BusRoleDecoder     BusRole = "decoder"
	BusRoleMux         BusRole = "mux"
)

// Protocol identifies the bus protocol a Bus instance speaks
type Protocol string

const (
	ProtocolAHB    Protocol = "AHB"
	ProtocolAXI    Protocol = "AXI"
	ProtocolAPB    Protocol = "APB"
	ProtocolCustom Protocol = "Custom"
)

// RefDirection is the master/slave side a bus net reference is seen from
type RefDirection string

const (
	RefMaster RefDirection = "master"
	RefSlave  RefDirection = "slave"
)

// ResetLevel is the asserted level of a reset
type ResetLevel string

const (
	ActiveLow  ResetLevel = "low"
	ActiveHigh ResetLevel = "high"
)

// Component type tags the ERC recognises without falling back to name heuristics
const (
	ComponentManager     = "manager"
	ComponentSubordinate = "subordinate"
	ComponentDecoder     = "decoder"
	ComponentMux         = "mux"
	ComponentGeneric     = "generic"
)

// Design is the root aggregate of a hardware design graph.
// Components, nets and buses are stored flat and reference each other by id.
type Design struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Components  []Component   `json:"components" yaml:"components"`
	Nets        []Net         `json:"nets" yaml:"nets"`
	Buses       []Bus         `json:"buses" yaml:"buses"`
	Constraints ConstraintSet `json:"constraints" yaml:"constraints"`
	CreatedAt   time.Time     `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty" yaml:"-"`
}

// Component is a functional block of the design
type Component struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Type       string         `json:"type" yaml:"type"`
	Pins       []Pin          `json:"pins" yaml:"pins"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Compliance *Compliance    `json:"compliance,omitempty" yaml:"compliance,omitempty"`
}

// Compliance records which protocol standard a component claims to follow
type Compliance struct {
	Standard string `json:"standard" yaml:"standard"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Pin is an electrical terminal on exactly one component.
// NetID is a derived lookup key; the owning Net's endpoint list is authoritative.
type Pin struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Direction Direction `json:"direction" yaml:"direction"`
	Width     int       `json:"width" yaml:"width"`
	NetID     string    `json:"net_id,omitempty" yaml:"net_id,omitempty"`
	BusRole   BusRole   `json:"bus_role,omitempty" yaml:"bus_role,omitempty"`
}

// Endpoint names one pin of one component
type Endpoint struct {
	ComponentID string `json:"component_id" yaml:"component_id"`
	PinID       string `json:"pin_id" yaml:"pin_id"`
}

// Net is a signal joining zero or more pins
type Net struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Width     int        `json:"width" yaml:"width"`
	Endpoints []Endpoint `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
}

// NetRef declares the role a net plays on a bus
type NetRef struct {
	NetID     string       `json:"net_id" yaml:"net_id"`
	Role      string       `json:"role" yaml:"role"`
	Direction RefDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// Bus is a named protocol instance over a subset of nets
type Bus struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name,omitempty" yaml:"name,omitempty"`
	Protocol   Protocol       `json:"protocol" yaml:"protocol"`
	Nets       []NetRef       `json:"nets" yaml:"nets"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// ConstraintSet holds design-wide clock and reset requirements
type ConstraintSet struct {
	Clocks []Clock `json:"clocks" yaml:"clocks"`
	Resets []Reset `json:"resets" yaml:"resets"`
}

// Clock is a declared clock domain
type Clock struct {
	Name               string  `json:"name" yaml:"name"`
	FreqMHz            float64 `json:"freq_mhz" yaml:"freq_mhz"`
	StableBetweenClock bool    `json:"stable_between_clock" yaml:"stable_between_clock"`
}

// Reset is a declared reset signal
type Reset struct {
	Name         string     `json:"name" yaml:"name"`
	Active       ResetLevel `json:"active" yaml:"active"`
	SyncDeassert bool       `json:"sync_deassert" yaml:"sync_deassert"`
}

// NewDesign creates an empty design with initialized collections
func NewDesign(id, name string) *Design {
	now := time.Now()
	return &Design{
		ID:         id,
		Name:       name,
		Components: make([]Component, 0),
		Nets:       make([]Net, 0),
		Buses:      make([]Bus, 0),
		Constraints: ConstraintSet{
			Clocks: make([]Clock, 0),
			Resets: make([]Reset, 0),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Parameter returns a component parameter
func (c *Component) Parameter(key string) (any, bool) {
	if c.Parameters == nil {
		return nil, false
	}
	val, ok := c.Parameters[key]
	return val, ok
}

// SetParameter sets a component parameter
func (c *Component) SetParameter(key string, value any) {
	if c.Parameters == nil {
		c.Parameters = make(map[string]any)
	}
	c.Parameters[key] = value
}

// Pin returns the pin with the given id, or nil
func (c *Component) Pin(id string) *Pin {
	for i := range c.Pins {
		if c.Pins[i].ID == id {
			return &c.Pins[i]
		}
	}
	return nil
}

// HasBusRole reports whether any pin of the component carries the role
func (c *Component) HasBusRole(role BusRole) bool {
	for _, p := range c.Pins {
		if p.BusRole == role {
			return true
		}
	}
	return false
}

// IsAHB reports whether the bus speaks AHB
func (b *Bus) IsAHB() bool {
	return strings.EqualFold(string(b.Protocol), string(ProtocolAHB))
}
