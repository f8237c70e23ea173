package controllers

import (
	"net/http"
	"testing"

	"github.com/Congregate/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var userListColumnsForTest = []string{"user_profile_id", "email", "first_name", "last_name", "role", "deleted"}

func TestGetPendingUsers(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM "user_profile"`).WillReturnRows(sqlmock.NewRows(userListColumnsForTest).
		AddRow(4, "pending@example.com", "Pat", "Pending", models.RolePending, false))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockAdminUser())

	GetPendingUsers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var users []models.UserProfile
	DecodeJSON(t, w, &users)
	if assert.Len(t, users, 1) {
		assert.Equal(t, models.RolePending, users[0].Role)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRole(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		body           interface{}
		currentRole    string
		found          bool
		expectUpdate   bool
		expectNotify   bool
		expectedStatus int
	}{
		{
			name:           "approves a pending account",
			target:         "4",
			body:           models.RoleUpdate{Role: models.RoleMember},
			currentRole:    models.RolePending,
			found:          true,
			expectUpdate:   true,
			expectNotify:   true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "promotes a member",
			target:         "1",
			body:           models.RoleUpdate{Role: models.RoleLeader},
			currentRole:    models.RoleMember,
			found:          true,
			expectUpdate:   true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "same role is a no-op",
			target:         "1",
			body:           models.RoleUpdate{Role: models.RoleMember},
			currentRole:    models.RoleMember,
			found:          true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "own role",
			target:         "2",
			body:           models.RoleUpdate{Role: models.RoleMember},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "back to pending is rejected",
			target:         "1",
			body:           map[string]string{"role": models.RolePending},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown user",
			target:         "99",
			body:           models.RoleUpdate{Role: models.RoleMember},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			notified := false
			runAsync = func(func()) { notified = true }

			if tt.found || tt.expectedStatus == http.StatusNotFound {
				rows := sqlmock.NewRows(userListColumnsForTest)
				if tt.found {
					rows.AddRow(tt.target, "user@example.com", "Some", "One", tt.currentRole, false)
				}
				mock.ExpectQuery(`FROM "user_profile"`).WillReturnRows(rows)
			}
			if tt.expectUpdate {
				mock.ExpectExec(`UPDATE "user_profile"`).WillReturnResult(sqlmock.NewResult(0, 1))
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockAdminUser())
			SetParams(c, "user_profile_id", tt.target)
			SetJSONBody(t, c, "PUT", tt.body)

			UpdateUserRole(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectNotify, notified)
			if tt.expectNotify {
				var response struct {
					User models.UserProfile `json:"user"`
				}
				DecodeJSON(t, w, &response)
				assert.Equal(t, models.RoleMember, response.User.Role)
				if assert.NotNil(t, response.User.Approved_By) {
					assert.Equal(t, 2, *response.User.Approved_By)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetAdminStats(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.MatchExpectationsInOrder(false)
	for i := 1; i <= 7; i++ {
		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(i))
	}

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockAdminUser())

	GetAdminStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var stats adminStats
	DecodeJSON(t, w, &stats)
	total := stats.Pending_Users + stats.Approved_Users + stats.People + stats.Families +
		stats.Upcoming_Events + stats.Published_Announcements + stats.Open_Prayer_Requests
	assert.Equal(t, int64(28), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBroadcastToTagsWithoutPushService(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockAdminUser())
	SetJSONBody(t, c, "POST", models.BroadcastRequest{Tag_IDs: []int{7}, Title: "Choir", Body: "Practice moved"})

	BroadcastToTags(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
