package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrDanglingReference is the cause of every reference error returned by CheckReferences
var ErrDanglingReference = errors.New("dangling reference")

// IssueKind classifies a connectivity finding
type IssueKind string

const (
	IssueUnknownComponent IssueKind = "unknown_component"
	IssueUnknownPin       IssueKind = "unknown_pin"
	IssueUnknownNet       IssueKind = "unknown_net"
	IssuePinNetMismatch   IssueKind = "pin_net_mismatch"
	IssueDuplicateID      IssueKind = "duplicate_id"
)

// Issue is one connectivity inconsistency in a design graph
type Issue struct {
	Kind    IssueKind
	Message string
}

// ConnectivityIssues lists dangling references and disagreements between
// Pin.NetID and net endpoint membership, in graph declaration order.
func (d *Design) ConnectivityIssues() []Issue {
	var issues []Issue
	add := func(kind IssueKind, format string, args ...any) {
		issues = append(issues, Issue{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	seenComp := make(map[string]bool, len(d.Components))
	for _, c := range d.Components {
		if seenComp[c.ID] {
			add(IssueDuplicateID, "Duplicate component id %q", c.ID)
		}
		seenComp[c.ID] = true
	}
	seenNet := make(map[string]bool, len(d.Nets))
	for _, n := range d.Nets {
		if seenNet[n.ID] {
			add(IssueDuplicateID, "Duplicate net id %q", n.ID)
		}
		seenNet[n.ID] = true
	}

	// authoritative membership: endpoint -> first net listing it
	member := make(map[Endpoint]string)
	for _, n := range d.Nets {
		for _, ep := range n.Endpoints {
			comp := d.Component(ep.ComponentID)
			if comp == nil {
				add(IssueUnknownComponent, "Net %s references unknown component %q", n.Name, ep.ComponentID)
				continue
			}
			if comp.Pin(ep.PinID) == nil {
				add(IssueUnknownPin, "Net %s references unknown pin %q on component %s", n.Name, ep.PinID, comp.Name)
				continue
			}
			if _, ok := member[ep]; !ok {
				member[ep] = n.ID
			}
		}
	}

	for _, c := range d.Components {
		for _, p := range c.Pins {
			ep := Endpoint{ComponentID: c.ID, PinID: p.ID}
			netID, listed := member[ep]
			switch {
			case p.NetID == "" && listed:
				add(IssuePinNetMismatch, "Pin %s.%s is on net %s but does not record it", c.Name, p.Name, netName(d, netID))
			case p.NetID == "":
			case d.Net(p.NetID) == nil:
				add(IssueUnknownNet, "Pin %s.%s references unknown net %q", c.Name, p.Name, p.NetID)
			case !listed || netID != p.NetID:
				add(IssuePinNetMismatch, "Pin %s.%s claims net %s but is not one of its endpoints", c.Name, p.Name, netName(d, p.NetID))
			}
		}
	}

	for _, b := range d.Buses {
		for _, ref := range b.Nets {
			if d.Net(ref.NetID) == nil {
				add(IssueUnknownNet, "Bus %s references unknown net %q", busLabel(b), ref.NetID)
			}
		}
	}

	return issues
}

// CheckReferences returns an error wrapping ErrDanglingReference when any
// endpoint, pin or bus reference names an entity the design does not own.
// Pin/net disagreements and duplicates are not reference errors.
func (d *Design) CheckReferences() error {
	for _, issue := range d.ConnectivityIssues() {
		switch issue.Kind {
		case IssueUnknownComponent, IssueUnknownPin, IssueUnknownNet:
			return errors.Wrap(ErrDanglingReference, issue.Message)
		}
	}
	return nil
}

func netName(d *Design, id string) string {
	if n := d.Net(id); n != nil && n.Name != "" {
		return n.Name
	}
	return id
}

func busLabel(b Bus) string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}
