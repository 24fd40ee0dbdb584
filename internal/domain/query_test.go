package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_RecordResponseMovesToInProgress(t *testing.T) {
	q := &Query{Status: QueryStatusOpen}
	at := time.Now().UTC()

	require.NoError(t, q.RecordResponse(false, at))
	assert.Equal(t, QueryStatusInProgress, q.Status)
	require.NotNil(t, q.LastResponseAt)
	assert.Equal(t, at, *q.LastResponseAt)
	assert.Nil(t, q.ResolvedAt)
}

func TestQuery_RecordResponseMarkResolved(t *testing.T) {
	q := &Query{Status: QueryStatusInProgress}
	at := time.Now().UTC()

	require.NoError(t, q.RecordResponse(true, at))
	assert.Equal(t, QueryStatusResolved, q.Status)
	require.NotNil(t, q.ResolvedAt)
	assert.Equal(t, at, *q.ResolvedAt)
}

func TestQuery_ResponseReopensClosedQuery(t *testing.T) {
	q := &Query{Status: QueryStatusClosed}
	require.NoError(t, q.RecordResponse(false, time.Now()))
	assert.Equal(t, QueryStatusInProgress, q.Status)
}

func TestQuery_ResolvingReplyOnClosedQuery(t *testing.T) {
	q := &Query{Status: QueryStatusClosed}
	at := time.Now().UTC()

	require.NoError(t, q.RecordResponse(true, at))
	assert.Equal(t, QueryStatusResolved, q.Status)
	require.NotNil(t, q.ResolvedAt)
	assert.Equal(t, at, *q.LastResponseAt)
}

func TestQuery_InvalidTransition(t *testing.T) {
	q := &Query{Status: QueryStatusResolved}
	assert.ErrorIs(t, q.TransitionTo(QueryStatusOpen, time.Now()), ErrInvalidTransition)
	assert.Equal(t, QueryStatusResolved, q.Status)
}

func TestQueryResponse_PublicViewStripsAdminFields(t *testing.T) {
	notes := "internal"
	tpl := "refund"
	r := QueryResponse{Message: "hello", InternalNotes: &notes, Template: &tpl}

	pub := r.PublicView()
	assert.Nil(t, pub.InternalNotes)
	assert.Nil(t, pub.Template)
	assert.Equal(t, "hello", pub.Message)
	assert.NotNil(t, r.InternalNotes)
}
