package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/taskboard/pkg/auth"
)

func TestBuildListFilter(t *testing.T) {
	tests := []struct {
		name string
		user *auth.User
		want ListFilter
	}{
		{"admin unrestricted", admin, ListFilter{Scope: ScopeAll}},
		{"manager unrestricted", manager, ListFilter{Scope: ScopeAll}},
		{"user scoped to self", alice, ListFilter{Scope: ScopeOwner, OwnerID: "u1"}},
		{"user without id", &auth.User{Role: auth.RoleUser}, ListFilter{Scope: ScopeNone}},
		{"unknown role", &auth.User{ID: "x", Role: "auditor"}, ListFilter{Scope: ScopeNone}},
		{"empty role", &auth.User{ID: "x"}, ListFilter{Scope: ScopeNone}},
		{"nil user", nil, ListFilter{Scope: ScopeNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildListFilter(tt.user))
		})
	}
}

func TestListFilter_ZeroValueDeniesAll(t *testing.T) {
	var f ListFilter
	assert.True(t, f.DenyAll())
	assert.False(t, f.Unrestricted())
	assert.False(t, f.Matches(Attributes{OwnerID: ""}))
	assert.Empty(t, f.Key())

	ownerless := ListFilter{Scope: ScopeOwner}
	assert.True(t, ownerless.DenyAll())
	assert.False(t, ownerless.Matches(Attributes{OwnerID: ""}))
}

func TestListFilter_Matches(t *testing.T) {
	f := BuildListFilter(alice)
	assert.True(t, f.Matches(*aliceDraft))
	assert.False(t, f.Matches(*bobDraft))

	all := BuildListFilter(manager)
	assert.True(t, all.Matches(*aliceDraft))
	assert.True(t, all.Matches(*bobInProgress))
}

func TestListFilter_Key(t *testing.T) {
	assert.Equal(t, "all", BuildListFilter(admin).Key())
	assert.Equal(t, "all", BuildListFilter(manager).Key())
	assert.Equal(t, "owner:u1", BuildListFilter(alice).Key())
	assert.Equal(t, "", BuildListFilter(&auth.User{ID: "x", Role: "auditor"}).Key())
}

func TestListFilter_String(t *testing.T) {
	assert.Equal(t, "all", BuildListFilter(admin).String())
	assert.Equal(t, "owner=u1", BuildListFilter(alice).String())
	assert.Equal(t, "none", ListFilter{}.String())
}

// A row appears in a user's list exactly when Decide allows viewing it
func TestListFilter_AgreesWithDecide(t *testing.T) {
	users := []*auth.User{alice, bob, manager, admin, {ID: "z", Role: "auditor"}, {Role: auth.RoleUser}}
	rows := []Attributes{*aliceDraft, *aliceStarted, *bobDraft, *bobInProgress, {OwnerID: ""}}

	for _, user := range users {
		filter := BuildListFilter(user)
		for _, row := range rows {
			row := row
			assert.Equal(t, Decide(user, ActionView, &row).Allowed, filter.Matches(row),
				"user=%+v row=%+v", user, row)
		}
	}
}
