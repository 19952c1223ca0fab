package identity

import "testing"

func TestResolveAbsentSessionIsGuest(t *testing.T) {
	resolved := Resolve(nil)
	if resolved != Guest {
		t.Fatalf("expected guest identity, got %+v", resolved)
	}
	if resolved.Status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated status, got %q", resolved.Status)
	}
	if resolved.Role != RolePublic {
		t.Fatalf("expected public role, got %q", resolved.Role)
	}
	if resolved.DisplayName != "Guest" {
		t.Fatalf("expected Guest display name, got %q", resolved.DisplayName)
	}
}

func TestResolveEstablishedSession(t *testing.T) {
	resolved := Resolve(&Session{AccountID: 42, RawRole: "VERIFIED", DisplayName: "Ada"})
	if resolved.Status != StatusAuthenticated {
		t.Fatalf("expected authenticated status, got %q", resolved.Status)
	}
	if resolved.Role != RoleVerified {
		t.Fatalf("expected verified role, got %q", resolved.Role)
	}
	if resolved.AccountID != 42 {
		t.Fatalf("expected account id 42, got %d", resolved.AccountID)
	}
	if resolved.DisplayName != "Ada" {
		t.Fatalf("expected display name Ada, got %q", resolved.DisplayName)
	}
}

func TestResolveBlankDisplayNameFallsBackToGuest(t *testing.T) {
	resolved := Resolve(&Session{AccountID: 7, RawRole: "REGISTERED"})
	if resolved.DisplayName != "Guest" {
		t.Fatalf("expected Guest fallback display name, got %q", resolved.DisplayName)
	}
	if resolved.Status != StatusAuthenticated {
		t.Fatalf("blank name must not affect status, got %q", resolved.Status)
	}
}

func TestResolveUnknownRoleDegradesToRegistered(t *testing.T) {
	for _, raw := range []string{"", "SUPERUSER", "moderator", "42"} {
		resolved := Resolve(&Session{AccountID: 1, RawRole: raw, DisplayName: "X"})
		if resolved.Role != RoleRegistered {
			t.Fatalf("raw role %q: expected degradation to registered, got %q", raw, resolved.Role)
		}
	}
}

func TestResolvedCanMatchesCapabilityTable(t *testing.T) {
	cases := []struct {
		name    string
		session *Session
		can     []Capability
		cannot  []Capability
	}{
		{
			name:    "guest",
			session: nil,
			can:     []Capability{CapView},
			cannot:  []Capability{CapBookmark, CapChart, CapRequest, CapDownload, CapModerate, CapAdminister},
		},
		{
			name:    "registered",
			session: &Session{AccountID: 1, RawRole: "REGISTERED", DisplayName: "R"},
			can:     []Capability{CapView, CapBookmark, CapChart, CapRequest},
			cannot:  []Capability{CapDownload, CapModerate, CapAdminister},
		},
		{
			name:    "verified",
			session: &Session{AccountID: 2, RawRole: "VERIFIED", DisplayName: "V"},
			can:     []Capability{CapView, CapBookmark, CapChart, CapRequest},
			cannot:  []Capability{CapDownload, CapModerate, CapAdminister},
		},
		{
			name:    "admin",
			session: &Session{AccountID: 3, RawRole: "ADMIN", DisplayName: "A"},
			can:     []Capability{CapView, CapBookmark, CapChart, CapRequest, CapDownload, CapModerate, CapAdminister},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolved := Resolve(tc.session)
			for _, c := range tc.can {
				if !resolved.Can(c) {
					t.Errorf("expected %s to hold %q", tc.name, c)
				}
			}
			for _, c := range tc.cannot {
				if resolved.Can(c) {
					t.Errorf("expected %s to lack %q", tc.name, c)
				}
			}
		})
	}
}

func TestCanPerformUnknownCapabilityDenied(t *testing.T) {
	if CanPerform(RoleAdmin, Capability("launch")) {
		t.Fatal("unknown capability must be denied even for admin")
	}
}

func TestAllowedRolesSuffixOfOrder(t *testing.T) {
	got := AllowedRoles(CapRequest)
	want := []Role{RoleRegistered, RoleVerified, RoleAdmin}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if AllowedRoles(Capability("launch")) != nil {
		t.Fatal("unknown capability must have no allowed roles")
	}
}
