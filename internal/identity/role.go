package identity

import "strings"

// Role is the portal-wide privilege level. Public is the absence of a
// session and is never persisted; stored accounts carry one of
// REGISTERED, VERIFIED or ADMIN.
type Role string

const (
	RolePublic     Role = "public"
	RoleRegistered Role = "registered"
	RoleVerified   Role = "verified"
	RoleAdmin      Role = "admin"
)

// roleRanks is the single canonical ordering. Every threshold or
// allow-list check in the codebase resolves through this table.
var roleRanks = map[Role]int{
	RolePublic:     0,
	RoleRegistered: 1,
	RoleVerified:   2,
	RoleAdmin:      3,
}

// FromStored maps a persisted role string (REGISTERED|VERIFIED|ADMIN) to a
// Role. Unrecognized values degrade to the lowest authenticated privilege,
// never upward.
func FromStored(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleRegistered:
		return RoleRegistered
	case RoleVerified:
		return RoleVerified
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleRegistered
	}
}

// Rank returns the role's position in the privilege order. Unknown roles
// rank as public.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return 0
}

// AtLeast reports whether r carries at least min's privilege.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

func (r Role) String() string { return string(r) }
