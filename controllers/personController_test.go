package controllers

import (
	"net/http"
	"testing"

	"github.com/Congregate/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCompleteProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		existing       int
		expectInsert   bool
		expectedStatus int
	}{
		{
			name:           "creates the caller's person",
			body:           models.PersonCreate{First_Name: "Test", Last_Name: "User"},
			expectInsert:   true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "profile already completed",
			body:           models.PersonCreate{First_Name: "Test", Last_Name: "User"},
			existing:       1,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing last name",
			body:           map[string]string{"firstName": "Test"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			if tt.expectedStatus != http.StatusBadRequest {
				mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.existing))
			}
			if tt.expectInsert {
				mock.ExpectQuery(`INSERT INTO "person"`).WillReturnRows(sqlmock.NewRows([]string{"person_id"}).AddRow(10))
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, MockUser())
			SetJSONBody(t, c, "POST", tt.body)

			CompleteProfile(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectInsert {
				var person models.Person
				DecodeJSON(t, w, &person)
				assert.Equal(t, 10, person.Person_ID)
				if assert.NotNil(t, person.Email) {
					assert.Equal(t, "test@example.com", *person.Email)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCanEditPerson(t *testing.T) {
	familyHead := &models.Person{Person_ID: 10, Is_Head_Of_Family: true, Family_ID: intPtr(5), User_Profile_ID: intPtr(1)}
	plainMember := &models.Person{Person_ID: 11, Family_ID: intPtr(5), User_Profile_ID: intPtr(1)}

	tests := []struct {
		name   string
		user   models.UserProfile
		actor  *models.Person
		target models.Person
		want   bool
	}{
		{"self", MockUser(), nil, models.Person{Person_ID: 10, User_Profile_ID: intPtr(1)}, true},
		{"head edits same family", MockUser(), familyHead, models.Person{Person_ID: 12, Family_ID: intPtr(5)}, true},
		{"head edits other family", MockUser(), familyHead, models.Person{Person_ID: 12, Family_ID: intPtr(6)}, false},
		{"non-head in same family", MockUser(), plainMember, models.Person{Person_ID: 12, Family_ID: intPtr(5)}, false},
		{"target without family", MockUser(), familyHead, models.Person{Person_ID: 12}, false},
		{"admin edits anyone", MockAdminUser(), nil, models.Person{Person_ID: 12}, true},
		{"leader is not enough", MockLeaderUser(), nil, models.Person{Person_ID: 12}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canEditPerson(tt.user, tt.actor, tt.target))
		})
	}
}

func TestUpdatePersonForbidden(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM "person"`).WillReturnRows(sqlmock.NewRows(personColumns).
		AddRow(12, "Other", "Person", nil, false, false, 6, 9, 9, 9))
	mock.ExpectQuery(`FROM "person"`).WillReturnRows(sqlmock.NewRows(personColumns).
		AddRow(10, "Test", "User", "test@example.com", true, false, 5, 1, 1, 1))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockUser())
	SetParams(c, "person_id", "12")
	SetJSONBody(t, c, "PUT", map[string]string{"firstName": "Changed"})

	UpdatePerson(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignPersonTag(t *testing.T) {
	tests := []struct {
		name           string
		user           models.UserProfile
		personUserID   interface{}
		selfAssignable bool
		minRole        string
		active         bool
		expectedStatus int
	}{
		{"member self-assigns a self-assignable tag", MockUser(), 1, true, models.RoleAdmin, true, http.StatusOK},
		{"member assigns self-assignable tag to someone else", MockUser(), 9, true, models.RoleAdmin, true, http.StatusForbidden},
		{"member cannot take an admin tag", MockUser(), 1, false, models.RoleAdmin, true, http.StatusForbidden},
		{"leader meets the tag's minimum role", MockLeaderUser(), 9, false, models.RoleLeader, true, http.StatusOK},
		{"inactive tag needs an admin", MockLeaderUser(), 9, false, models.RoleLeader, false, http.StatusForbidden},
		{"admin assigns an inactive tag", MockAdminUser(), nil, false, models.RoleAdmin, false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			mock.ExpectQuery(`FROM "person"`).WillReturnRows(sqlmock.NewRows(personColumns).
				AddRow(10, "Test", "User", nil, false, false, nil, tt.personUserID, 1, 1))
			mock.ExpectQuery(`FROM "tag"`).WillReturnRows(sqlmock.NewRows(tagColumnsForTest).
				AddRow(7, "Choir", "#808080", tt.selfAssignable, tt.minRole, tt.active))
			if tt.expectedStatus == http.StatusOK {
				mock.ExpectExec(`INSERT INTO "person_tag"`).WillReturnResult(sqlmock.NewResult(1, 1))
			}

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, tt.user)
			SetParams(c, "person_id", "10", "tag_id", "7")

			AssignPersonTag(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeletePerson(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "person_tag"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "event_rsvp"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "announcement_read"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "prayer_request"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "person"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockAdminUser())
	SetParams(c, "person_id", "10")

	DeletePerson(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPersonNotFound(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM "person"`).WillReturnRows(sqlmock.NewRows(personColumns))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockUser())
	SetParams(c, "person_id", "99")

	GetPerson(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
