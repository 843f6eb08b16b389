package domain

import (
	"fmt"
	"strings"
)

// SchematicView is the derived view of a design for the schematic canvas
type SchematicView struct {
	Nodes []ViewNode `json:"nodes"`
	Edges []ViewEdge `json:"edges"`
}

// ViewNode represents a component on the canvas
type ViewNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"` // component type tag
	Title string `json:"title"` // Tooltip content
}

// ViewEdge represents one net hop between two components
type ViewEdge struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"` // "HADDR[32]", "HCLK", ...
	NetID string `json:"net_id"`
	Width int    `json:"width"`
}

// DeriveView converts a design into a canvas-compatible view.
// A net touching n components becomes a chain of n-1 edges from its first endpoint.
func DeriveView(d *Design) *SchematicView {
	view := &SchematicView{
		Nodes: make([]ViewNode, 0, len(d.Components)),
		Edges: make([]ViewEdge, 0, len(d.Nets)),
	}

	for _, c := range d.Components {
		group := c.Type
		if group == "" {
			group = ComponentGeneric
		}
		view.Nodes = append(view.Nodes, ViewNode{
			ID:    c.ID,
			Label: c.Name,
			Group: group,
			Title: buildTooltip(c),
		})
	}

	for _, n := range d.Nets {
		comps := distinctComponents(n)
		for i := 1; i < len(comps); i++ {
			view.Edges = append(view.Edges, ViewEdge{
				ID:    fmt.Sprintf("%s:%d", n.ID, i),
				From:  comps[0],
				To:    comps[i],
				Label: netLabel(n),
				NetID: n.ID,
				Width: n.Width,
			})
		}
	}

	return view
}

func distinctComponents(n Net) []string {
	seen := make(map[string]bool, len(n.Endpoints))
	var out []string
	for _, ep := range n.Endpoints {
		if !seen[ep.ComponentID] {
			seen[ep.ComponentID] = true
			out = append(out, ep.ComponentID)
		}
	}
	return out
}

func buildTooltip(c Component) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n%d pins", c.Name, c.Type, len(c.Pins))
	if c.Compliance != nil && c.Compliance.Standard != "" {
		sb.WriteString("\n" + c.Compliance.Standard)
	}
	return sb.String()
}

func netLabel(n Net) string {
	if n.Width <= 1 {
		return n.Name
	}
	return fmt.Sprintf("%s[%d]", n.Name, n.Width)
}
