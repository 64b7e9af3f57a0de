package accesscontrol

import (
	"reflect"
	"testing"

	permissiondomain "identity-service/internal/permission/domain"
	roledomain "identity-service/internal/role/domain"
)

func role(name string, perms ...string) roledomain.Role {
	r := roledomain.Role{Name: name, IsActive: true}
	for _, p := range perms {
		r.Permissions = append(r.Permissions, permissiondomain.Permission{Name: p, IsActive: true})
	}
	return r
}

func TestResolvePermissions_Flattens(t *testing.T) {
	roles := []roledomain.Role{
		role("admin", "manage:access_control"),
		role("reports", "read:reports", "export:reports"),
	}
	got := ResolvePermissions(roles)
	want := []string{"export:reports", "manage:access_control", "read:reports"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolvePermissions = %v, want %v", got, want)
	}
}

func TestResolvePermissions_DedupesAcrossRoles(t *testing.T) {
	roles := []roledomain.Role{
		role("r1", "p1", "p2"),
		role("r2", "p1"),
	}
	got := ResolvePermissions(roles)
	want := []string{"p1", "p2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolvePermissions = %v, want %v", got, want)
	}
}

func TestResolvePermissions_Empty(t *testing.T) {
	if got := ResolvePermissions(nil); len(got) != 0 {
		t.Errorf("nil roles: got %v, want empty", got)
	}
	if got := ResolvePermissions([]roledomain.Role{role("empty")}); len(got) != 0 {
		t.Errorf("role without permissions: got %v, want empty", got)
	}
}

func TestResolvePermissions_Pure(t *testing.T) {
	roles := []roledomain.Role{role("r1", "p1")}
	first := ResolvePermissions(roles)
	second := ResolvePermissions(roles)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolve not deterministic: %v vs %v", first, second)
	}
	first[0] = "mutated"
	if got := ResolvePermissions(roles); got[0] != "p1" {
		t.Error("mutating a result must not affect later resolutions")
	}
}

func TestPolicy_Required(t *testing.T) {
	p := DefaultPolicy()
	if got := p.Required("users.list"); len(got) != 1 || got[0] != PermissionManage {
		t.Errorf("users.list required = %v", got)
	}
	if got := p.Required("auth.login"); got != nil {
		t.Errorf("unknown operation should be unrestricted, got %v", got)
	}
}

func TestHasAll(t *testing.T) {
	granted := []string{"p1", "p2"}
	if !HasAll(granted, nil) {
		t.Error("no requirements should pass")
	}
	if !HasAll(granted, []string{"p1"}) {
		t.Error("subset should pass")
	}
	if !HasAll(granted, []string{"p1", "p2"}) {
		t.Error("exact set should pass")
	}
	if HasAll(granted, []string{"p1", "p3"}) {
		t.Error("missing permission should fail")
	}
	if HasAll(nil, []string{"p1"}) {
		t.Error("empty grant should fail")
	}
}
