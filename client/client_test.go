package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Congregate/apperr"
	"github.com/Congregate/models"
	"github.com/Congregate/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *Session) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	session := &Session{}
	return New(server.URL, session), session
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target error
	}{
		{"not found", http.StatusNotFound, apperr.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, apperr.ErrAuthorizationDenied},
		{"forbidden", http.StatusForbidden, apperr.ErrAuthorizationDenied},
		{"conflict", http.StatusConflict, apperr.ErrConflict},
		{"server error", http.StatusInternalServerError, apperr.ErrTransient},
		{"rate limited", http.StatusTooManyRequests, apperr.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]string{"error": "nope", "details": "because"})
			})

			_, err := c.Me(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope: because", apiErr.Message)
		})
	}

	t.Run("bad request is a validation error", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		})

		_, err := c.Me(context.Background())
		assert.True(t, apperr.IsValidationError(err))
	})
}

func TestLoginStoresToken(t *testing.T) {
	var sawAuth atomic.Value
	c, session := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var body models.Login
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ruth@example.com", body.Email)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"token": "abc.def.ghi",
				"user":  map[string]interface{}{"userProfileId": 7, "role": "member"},
			})
		case "/users/me":
			sawAuth.Store(r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]interface{}{"userProfileId": 7}})
		}
	})

	user, err := c.Login(context.Background(), "ruth@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, 7, user.User_Profile_ID)
	assert.Equal(t, "abc.def.ghi", session.Token())
	assert.True(t, session.CanPerform(policy.ActionRsvp))
	assert.False(t, session.CanPerform(policy.ActionManageEvents))

	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc.def.ghi", sawAuth.Load())

	session.Teardown()
	assert.False(t, session.Authenticated())
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.Login(context.Background(), " ", "secret123")
	assert.True(t, apperr.IsValidationError(err))
	_, err = c.Login(context.Background(), "ruth@example.com", "")
	assert.True(t, apperr.IsValidationError(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDirectoryQueryEncoding(t *testing.T) {
	var query atomic.Value
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	_, err := c.Directory(context.Background(), DirectoryQuery{Search: "baker", Tag_IDs: []int{3, 5}, Match_All: true})
	require.NoError(t, err)
	raw, _ := query.Load().(string)
	assert.Contains(t, raw, "search=baker")
	assert.Contains(t, raw, "tagIds=3%2C5")
	assert.Contains(t, raw, "matchAll=true")
}
