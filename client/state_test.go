package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Congregate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerDropsStaleResponses(t *testing.T) {
	var seq Sequencer
	var applied []string

	first := seq.Next()
	second := seq.Next()

	assert.True(t, seq.Apply(second, func() { applied = append(applied, "second") }))
	assert.False(t, seq.Apply(first, func() { applied = append(applied, "first") }))
	assert.Equal(t, []string{"second"}, applied)

	third := seq.Next()
	seq.Invalidate()
	assert.False(t, seq.Apply(third, func() { applied = append(applied, "third") }))
	assert.Equal(t, []string{"second"}, applied)
}

func TestUserStateLifecycle(t *testing.T) {
	personID := 5
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CurrentUser{
			User:   models.UserProfile{User_Profile_ID: 1, Role: models.RoleMember},
			Person: &models.Person{Person_ID: personID, User_Profile_ID: intPtr(1)},
		})
	})
	state := NewUserState(c)

	_, loaded := state.Current()
	assert.False(t, loaded)

	require.NoError(t, state.Init(context.Background()))
	current, loaded := state.Current()
	require.True(t, loaded)
	assert.Equal(t, 1, current.User.User_Profile_ID)
	assert.False(t, state.NeedsProfile())

	state.Teardown()
	_, loaded = state.Current()
	assert.False(t, loaded)
}

func TestInbox(t *testing.T) {
	var marked atomic.Bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/1/notifications":
			writeJSON(w, http.StatusOK, []models.Notification{
				{Notification_ID: 1, Notification_Status: models.NotificationStatusUnread},
				{Notification_ID: 2, Notification_Status: models.NotificationStatusRead},
				{Notification_ID: 3, Notification_Status: models.NotificationStatusUnread},
			})
		case r.Method == http.MethodPatch && r.URL.Path == "/users/1/notifications/mark-all-read":
			if marked.CompareAndSwap(false, true) {
				w.WriteHeader(http.StatusOK)
				return
			}
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "unavailable"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	inbox := NewInbox(c)

	require.NoError(t, inbox.Init(context.Background(), 1))
	assert.Len(t, inbox.Notifications(), 3)
	assert.Equal(t, 2, inbox.UnreadCount())

	require.NoError(t, inbox.MarkAllRead(context.Background()))
	assert.Equal(t, 0, inbox.UnreadCount())

	require.NoError(t, inbox.Refresh(context.Background()))
	assert.Equal(t, 2, inbox.UnreadCount())
	assert.Error(t, inbox.MarkAllRead(context.Background()))
	assert.Equal(t, 2, inbox.UnreadCount())

	inbox.Teardown()
	assert.Empty(t, inbox.Notifications())
}

func TestToasts(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	toasts := NewToasts()
	toasts.now = func() time.Time { return now }

	first := toasts.Push(ToastInfo, "Saved")
	second := toasts.Push(ToastError, "Failed")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, toasts.Active(), 2)

	toasts.Dismiss(first.ID)
	active := toasts.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Failed", active[0].Message)

	now = now.Add(defaultToastTTL)
	assert.Empty(t, toasts.Active())
}

func TestLoadHomePartialFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dashboard":
			writeJSON(w, http.StatusOK, models.Dashboard{Directory_Count: 12})
		case "/announcements/unread-count":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
		case "/users/1/notifications":
			writeJSON(w, http.StatusOK, []models.Notification{{Notification_ID: 1, Notification_Status: models.NotificationStatusUnread}})
		}
	})
	inbox := NewInbox(c)
	inbox.userID = 1

	home, err := LoadHome(context.Background(), c, inbox)

	require.NoError(t, err)
	assert.Equal(t, int64(12), home.Dashboard.Directory_Count)
	assert.Equal(t, 1, home.UnreadNotifications)
	require.Len(t, home.Errors, 1)
	assert.Contains(t, home.Errors[0], "announcements: ")
}

func TestLoadHomeAllFailed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "down"})
	})

	home, err := LoadHome(context.Background(), c, nil)

	assert.Error(t, err)
	assert.Len(t, home.Errors, 2)
}

func intPtr(v int) *int { return &v }
