package todos

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/audit"
	"github.com/platinummonkey/taskboard/pkg/auth"
)

type failingAuditLogger struct{}

func (failingAuditLogger) Log(context.Context, *audit.Event) error {
	return errors.New("audit store unavailable")
}

func TestService_AuditTrail(t *testing.T) {
	store, db := newTestStore(t)
	owner := seedUser(t, db, "owner", auth.RoleUser)
	other := seedUser(t, db, "other", auth.RoleUser)

	logger, err := audit.NewDBLogger(db)
	require.NoError(t, err)
	svc := NewService(store, auth.ContextResolver{}, nil, nil)
	svc.SetAuditLogger(logger)

	todo, err := svc.Create(as(owner), CreateInput{Title: "audited"})
	require.NoError(t, err)
	_, err = svc.Update(as(owner), todo.ID, Patch{Status: statusPtr(StatusInProgress)})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(as(other), todo.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(as(other), "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(as(owner), todo.ID), ErrForbidden)

	ctx := context.Background()
	mutations, err := logger.Search(ctx, audit.SearchFilter{UserID: owner.ID, Status: audit.EventStatusSuccess})
	require.NoError(t, err)
	require.Len(t, mutations, 2)
	types := []audit.EventType{mutations[0].EventType, mutations[1].EventType}
	assert.ElementsMatch(t, []audit.EventType{audit.EventTypeTodoCreate, audit.EventTypeTodoUpdate}, types)

	denials, err := logger.Search(ctx, audit.SearchFilter{EventTypes: []audit.EventType{audit.EventTypeAccessDenied}})
	require.NoError(t, err)
	require.Len(t, denials, 3)

	reasons := map[string]string{}
	for _, e := range denials {
		assert.Equal(t, audit.EventStatusDenied, e.Status)
		assert.Equal(t, "delete", e.Message)
		reasons[e.UserID+"/"+e.ResourceID] = e.Reason
	}
	assert.Equal(t, "not_owner", reasons["other/"+todo.ID])
	assert.Equal(t, "not_found", reasons["other/missing"])
	assert.Equal(t, "not_draft", reasons["owner/"+todo.ID])
}

func TestService_AuditFailureDoesNotFailOperation(t *testing.T) {
	store, db := newTestStore(t)
	owner := seedUser(t, db, "owner", auth.RoleUser)

	svc := NewService(store, auth.ContextResolver{}, nil, nil)
	svc.SetAuditLogger(failingAuditLogger{})

	todo, err := svc.Create(as(owner), CreateInput{Title: "still created"})
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(as(owner), todo.ID))

	svc.SetAuditLogger(nil)
	_, err = svc.Create(as(owner), CreateInput{Title: "no audit"})
	assert.NoError(t, err)
}
