package client

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/Congregate/apperr"
	"github.com/Congregate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandExecute(t *testing.T) {
	t.Run("keeps next on success", func(t *testing.T) {
		var state []string
		err := Command[string]{
			Previous: "a",
			Next:     "b",
			Apply:    func(v string) { state = append(state, v) },
			Commit:   func(context.Context) error { return nil },
		}.Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, state)
	})

	t.Run("restores previous on failure", func(t *testing.T) {
		boom := errors.New("boom")
		var state []string
		err := Command[string]{
			Previous: "a",
			Next:     "b",
			Apply:    func(v string) { state = append(state, v) },
			Commit:   func(context.Context) error { return boom },
		}.Execute(context.Background())

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"b", "a"}, state)
	})
}

func TestRSVPStoreRollsBackOnFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/events/10/rsvp", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save RSVP"})
	})
	toasts := NewToasts()
	store := NewRSVPStore(c, toasts)
	going := models.RsvpGoing
	store.Load([]models.EventView{{Event: models.Event{Event_ID: 10}, My_Status: &going}})

	err := store.SetRsvp(context.Background(), 10, models.RsvpMaybe)

	assert.ErrorIs(t, err, apperr.ErrTransient)
	assert.Equal(t, models.RsvpGoing, store.Status(10))
	active := toasts.Active()
	require.Len(t, active, 1)
	assert.Equal(t, ToastError, active[0].Kind)
	assert.Equal(t, "Network problem. Please try again.", active[0].Message)
}

func TestRSVPStoreSetsStatus(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusOK, map[string]string{"status": "going"})
	})
	toasts := NewToasts()
	store := NewRSVPStore(c, toasts)

	require.NoError(t, store.SetRsvp(context.Background(), 4, models.RsvpGoing))
	assert.Equal(t, models.RsvpGoing, store.Status(4))

	// same answer again is not sent
	require.NoError(t, store.SetRsvp(context.Background(), 4, models.RsvpGoing))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	err := store.SetRsvp(context.Background(), 4, "perhaps")
	assert.True(t, apperr.IsValidationError(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, toasts.Active())
}

func TestRSVPStoreRollbackToUnanswered(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Event not found"})
	})
	store := NewRSVPStore(c, nil)

	err := store.SetRsvp(context.Background(), 99, models.RsvpDeclined)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "", store.Status(99))
}

func TestReadStoreMarkRead(t *testing.T) {
	var calls int32
	var fail atomic.Bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if fail.Load() {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	toasts := NewToasts()
	store := NewReadStore(c, toasts)
	store.Load([]models.AnnouncementView{
		{Announcement: models.Announcement{Announcement_ID: 1}, Is_Read: true},
		{Announcement: models.Announcement{Announcement_ID: 2}},
	})

	require.NoError(t, store.MarkRead(context.Background(), 1))
	assert.Zero(t, atomic.LoadInt32(&calls))

	require.NoError(t, store.MarkRead(context.Background(), 2))
	assert.True(t, store.IsRead(2))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	fail.Store(true)
	err := store.MarkRead(context.Background(), 3)
	assert.ErrorIs(t, err, apperr.ErrAuthorizationDenied)
	assert.False(t, store.IsRead(3))
	require.Len(t, toasts.Active(), 1)
}
