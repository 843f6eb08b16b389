package erc

import (
	"strings"

	"chipforge/internal/domain"
)

// Role is an AHB signal role, named by its canonical signal
type Role string

const (
	RoleClock     Role = "HCLK"
	RoleReset     Role = "HRESETn"
	RoleAddress   Role = "HADDR"
	RoleReadData  Role = "HRDATA"
	RoleWriteData Role = "HWDATA"
	RoleTransfer  Role = "HTRANS"
	RoleReady     Role = "HREADY"
	RoleResponse  Role = "HRESP"
	RoleWrite     Role = "HWRITE"
	RoleSize      Role = "HSIZE"
)

// RequiredRoles lists every role an AHB bus must resolve, in reporting order
var RequiredRoles = []Role{
	RoleClock,
	RoleReset,
	RoleAddress,
	RoleReadData,
	RoleWriteData,
	RoleTransfer,
	RoleReady,
	RoleResponse,
	RoleWrite,
	RoleSize,
}

const selectPrefix = "HSEL"

// roleAliases maps normalised NetRef role declarations to roles
var roleAliases = map[string]Role{
	"hclk": RoleClock, "clock": RoleClock, "clk": RoleClock,
	"hresetn": RoleReset, "reset": RoleReset, "rst": RoleReset,
	"haddr": RoleAddress, "address": RoleAddress, "addr": RoleAddress,
	"hrdata": RoleReadData, "read-data": RoleReadData, "rdata": RoleReadData,
	"hwdata": RoleWriteData, "write-data": RoleWriteData, "wdata": RoleWriteData,
	"htrans": RoleTransfer, "transfer": RoleTransfer, "transfer-type": RoleTransfer, "trans": RoleTransfer,
	"hready": RoleReady, "ready": RoleReady,
	"hresp": RoleResponse, "response": RoleResponse, "resp": RoleResponse,
	"hwrite": RoleWrite, "write": RoleWrite, "write-enable": RoleWrite,
	"hsize": RoleSize, "size": RoleSize,
}

// SignalContext is the per-bus mapping of AHB roles to nets.
// Each field holds at most one net; Selects keeps bus declaration order.
type SignalContext struct {
	Clock     *domain.Net
	Reset     *domain.Net
	Address   *domain.Net
	ReadData  *domain.Net
	WriteData *domain.Net
	Transfer  *domain.Net
	Ready     *domain.Net
	Response  *domain.Net
	Write     *domain.Net
	Size      *domain.Net
	Selects   []*domain.Net
}

// Net returns the net resolved for a role, or nil
func (sc *SignalContext) Net(role Role) *domain.Net {
	if slot := sc.slot(role); slot != nil {
		return *slot
	}
	return nil
}

func (sc *SignalContext) slot(role Role) **domain.Net {
	switch role {
	case RoleClock:
		return &sc.Clock
	case RoleReset:
		return &sc.Reset
	case RoleAddress:
		return &sc.Address
	case RoleReadData:
		return &sc.ReadData
	case RoleWriteData:
		return &sc.WriteData
	case RoleTransfer:
		return &sc.Transfer
	case RoleReady:
		return &sc.Ready
	case RoleResponse:
		return &sc.Response
	case RoleWrite:
		return &sc.Write
	case RoleSize:
		return &sc.Size
	}
	return nil
}

// Resolve builds the signal context of one bus. A net named exactly after an
// AHB signal (case-insensitive) takes that role; the role declared on the
// NetRef classifies vendor-named nets, and an HSEL* prefix marks selects.
// Unknown signals and unresolvable net ids are skipped.
func Resolve(bus *domain.Bus, design *domain.Design) SignalContext {
	var sc SignalContext
	if bus == nil || design == nil {
		return sc
	}

	for _, ref := range bus.Nets {
		net := design.Net(ref.NetID)
		if net == nil {
			continue
		}

		role, ok := namedRole(net.Name)
		if !ok {
			if isSelect(ref.Role, net.Name) {
				sc.Selects = append(sc.Selects, net)
				continue
			}
			role, ok = declaredRole(ref.Role)
		}
		if !ok {
			continue
		}

		// first declaration of a role wins
		if slot := sc.slot(role); slot != nil && *slot == nil {
			*slot = net
		}
	}

	return sc
}

func normaliseRole(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}

func declaredRole(role string) (Role, bool) {
	r, ok := roleAliases[normaliseRole(role)]
	return r, ok
}

func namedRole(name string) (Role, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, r := range RequiredRoles {
		if upper == strings.ToUpper(string(r)) {
			return r, true
		}
	}
	return "", false
}

func isSelect(role, netName string) bool {
	switch normaliseRole(role) {
	case "select", "sel", "hsel":
		return true
	}
	if _, declared := declaredRole(role); declared {
		return false
	}
	return hasPrefixFold(netName, selectPrefix)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
