package domain

import "testing"

func TestPrincipal_IsAdmin(t *testing.T) {
	var nilPrincipal *Principal
	if nilPrincipal.IsAdmin() {
		t.Fatalf("nil principal must not be admin")
	}
	if (&Principal{Role: RoleUser}).IsAdmin() {
		t.Fatalf("USER must not be admin")
	}
	if !(&Principal{Role: RoleAdmin}).IsAdmin() {
		t.Fatalf("ADMIN must be admin")
	}
}
