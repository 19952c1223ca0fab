package identity

// Capability is a named portal action gated by a role allow-list.
type Capability string

const (
	CapView       Capability = "view"
	CapBookmark   Capability = "bookmark"
	CapChart      Capability = "chart"
	CapRequest    Capability = "request"
	CapDownload   Capability = "download"
	CapModerate   Capability = "moderate"
	CapAdminister Capability = "administer"
)

// capabilityFloor maps each capability to the minimum role that holds it.
// All allow-lists in the portal are trailing suffixes of the role order, so
// a floor is equivalent to the explicit set form and keeps every call site
// on one table.
var capabilityFloor = map[Capability]Role{
	CapView:       RolePublic,
	CapBookmark:   RoleRegistered,
	CapChart:      RoleRegistered,
	CapRequest:    RoleRegistered,
	CapDownload:   RoleAdmin,
	CapModerate:   RoleAdmin,
	CapAdminister: RoleAdmin,
}

// CanPerform reports whether role holds the capability. Unknown
// capabilities are denied.
func CanPerform(role Role, c Capability) bool {
	floor, ok := capabilityFloor[c]
	if !ok {
		return false
	}
	return role.AtLeast(floor)
}

// AllowedRoles returns the explicit allow-list for a capability, in rank
// order. Handlers that render capability sets to the frontend use this.
func AllowedRoles(c Capability) []Role {
	floor, ok := capabilityFloor[c]
	if !ok {
		return nil
	}
	out := make([]Role, 0, 4)
	for _, r := range []Role{RolePublic, RoleRegistered, RoleVerified, RoleAdmin} {
		if r.AtLeast(floor) {
			out = append(out, r)
		}
	}
	return out
}
