package identity

import "testing"

func TestFromStoredNormalizesCaseAndSpace(t *testing.T) {
	cases := map[string]Role{
		"REGISTERED": RoleRegistered,
		"registered": RoleRegistered,
		" Verified ": RoleVerified,
		"ADMIN":      RoleAdmin,
		"admin":      RoleAdmin,
	}
	for raw, want := range cases {
		if got := FromStored(raw); got != want {
			t.Errorf("FromStored(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestFromStoredNeverEscalates(t *testing.T) {
	for _, raw := range []string{"", "root", "ADMINISTRATOR", "public"} {
		got := FromStored(raw)
		if got == RoleAdmin || got == RoleVerified {
			t.Errorf("FromStored(%q) escalated to %q", raw, got)
		}
		if got != RoleRegistered {
			t.Errorf("FromStored(%q) = %q, want registered", raw, got)
		}
	}
}

func TestRoleOrdering(t *testing.T) {
	order := []Role{RolePublic, RoleRegistered, RoleVerified, RoleAdmin}
	for i, lower := range order {
		for j, higher := range order {
			got := higher.AtLeast(lower)
			want := j >= i
			if got != want {
				t.Errorf("%q.AtLeast(%q) = %v, want %v", higher, lower, got, want)
			}
		}
	}
}

func TestUnknownRoleRanksAsPublic(t *testing.T) {
	if Role("superuser").Rank() != 0 {
		t.Fatal("unknown role must rank as public")
	}
	if Role("superuser").AtLeast(RoleRegistered) {
		t.Fatal("unknown role must not reach registered rank")
	}
}
