package identity

// Status describes whether a session has been established. The vocabulary is
// shared with the portal frontend, whose session hook also reports "loading"
// while a session fetch is in flight; the server resolver itself only ever
// produces the other two values.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Session is the minimal view of an established session the resolver
// consumes. The signed token layer produces it; nothing else interprets the
// raw role string.
type Session struct {
	AccountID   uint
	RawRole     string
	DisplayName string
}

// Resolved is the single source of truth for "who is this and what may they
// do" that every downstream consumer shares.
type Resolved struct {
	Status      Status
	Role        Role
	AccountID   uint
	DisplayName string
}

// Guest is the identity of an absent or unestablished session.
var Guest = Resolved{
	Status:      StatusUnauthenticated,
	Role:        RolePublic,
	AccountID:   0,
	DisplayName: "Guest",
}

// Resolve projects a possibly-absent session onto a normalized identity.
// It is pure: absence degrades to Guest and no input can make it fail.
func Resolve(s *Session) Resolved {
	if s == nil {
		return Guest
	}
	name := s.DisplayName
	if name == "" {
		name = "Guest"
	}
	return Resolved{
		Status:      StatusAuthenticated,
		Role:        FromStored(s.RawRole),
		AccountID:   s.AccountID,
		DisplayName: name,
	}
}

// Can reports whether the resolved identity holds a capability.
func (r Resolved) Can(c Capability) bool {
	return CanPerform(r.Role, c)
}
