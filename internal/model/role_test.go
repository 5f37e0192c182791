package model

import "testing"

func TestResolveRoleIsTotal(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"", RoleUnknown},
		{"   ", RoleUnknown},
		{"  ADMIN ", RoleAdmin},
		{"administrator", RoleAdmin},
		{"teacher", RoleInstructor},
		{"Professor", RoleInstructor},
		{"instructor", RoleInstructor},
		{"Student", RoleStudent},
		{"etudiant", RoleStudent},
		{"superuser", RoleUnknown},
		{"\tadmin\n", RoleAdmin},
	}
	for _, tc := range cases {
		if got := ResolveRole(tc.in); got != tc.want {
			t.Fatalf("ResolveRole(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRoleString(t *testing.T) {
	if RoleInstructor.String() != "instructor" {
		t.Fatalf("unexpected string for RoleInstructor: %s", RoleInstructor)
	}
	if Role(99).String() != "unknown" {
		t.Fatalf("out-of-range roles must stringify as unknown")
	}
}
