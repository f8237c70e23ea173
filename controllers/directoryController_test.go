package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Congregate/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var directoryEntryColumns = []string{
	"person_id", "first_name", "last_name", "email", "is_head_of_family",
	"is_spouse", "family_id", "user_profile_id", "family_name", "role",
}

func directoryRows() *sqlmock.Rows {
	return sqlmock.NewRows(directoryEntryColumns).
		AddRow(1, "Anna", "Baker", "anna@example.com", false, true, 5, 11, "Baker", models.RoleMember).
		AddRow(2, "Bob", "Baker", nil, true, false, 5, nil, "Baker", nil).
		AddRow(3, "Cara", "Adams", "cara@example.com", false, false, nil, 13, nil, models.RoleLeader).
		AddRow(4, "Dan", "Young", nil, true, false, 6, 14, "Young", models.RoleAdmin)
}

func TestGetDirectory(t *testing.T) {
	t.Run("groups by family with the no-family bucket last", func(t *testing.T) {
		_, mock, cleanup := SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM "person"`).WillReturnRows(directoryRows())

		c, w := SetupTestContext()
		SetAuthenticatedUser(c, MockUser())

		GetDirectory(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			View     string               `json:"view"`
			Families []models.FamilyGroup `json:"families"`
			Count    int                  `json:"count"`
		}
		DecodeJSON(t, w, &response)
		assert.Equal(t, models.DirectoryViewFamily, response.View)
		assert.Equal(t, 4, response.Count)
		if assert.Len(t, response.Families, 3) {
			assert.Equal(t, "Baker", response.Families[0].Family_Name)
			assert.Equal(t, "Bob", response.Families[0].Members[0].First_Name)
			assert.Equal(t, "Young", response.Families[1].Family_Name)
			assert.Nil(t, response.Families[2].Family_ID)
			assert.Equal(t, "Cara", response.Families[2].Members[0].First_Name)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("person view with search", func(t *testing.T) {
		_, mock, cleanup := SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM "person"`).WillReturnRows(directoryRows())

		c, w := SetupTestContext()
		SetAuthenticatedUser(c, MockUser())
		c.Request = httptest.NewRequest("GET", "/?view=person&search=baker", nil)

		GetDirectory(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			People []models.DirectoryEntry `json:"people"`
			Count  int                     `json:"count"`
		}
		DecodeJSON(t, w, &response)
		assert.Equal(t, 2, response.Count)
		if assert.Len(t, response.People, 2) {
			assert.Equal(t, "Anna", response.People[0].First_Name)
			assert.Equal(t, "Bob", response.People[1].First_Name)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin filters by role", func(t *testing.T) {
		_, mock, cleanup := SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM "person"`).WillReturnRows(directoryRows())

		c, w := SetupTestContext()
		SetAuthenticatedUser(c, MockAdminUser())
		c.Request = httptest.NewRequest("GET", "/?view=person&role=leader", nil)

		GetDirectory(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			People []models.DirectoryEntry `json:"people"`
		}
		DecodeJSON(t, w, &response)
		if assert.Len(t, response.People, 1) {
			assert.Equal(t, 3, response.People[0].Person_ID)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tag filter", func(t *testing.T) {
		_, mock, cleanup := SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM "person"`).WillReturnRows(directoryRows())
		mock.ExpectQuery(`FROM "person_tag"`).WillReturnRows(sqlmock.NewRows([]string{"person_id", "tag_id"}).AddRow(4, 9))

		c, w := SetupTestContext()
		SetAuthenticatedUser(c, MockUser())
		c.Request = httptest.NewRequest("GET", "/?view=person&tagIds=9", nil)

		GetDirectory(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			People []models.DirectoryEntry `json:"people"`
		}
		DecodeJSON(t, w, &response)
		if assert.Len(t, response.People, 1) {
			assert.Equal(t, "Dan", response.People[0].First_Name)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	rejections := []struct {
		name           string
		user           models.UserProfile
		query          string
		expectedStatus int
	}{
		{"member cannot filter by role", MockUser(), "/?role=leader", http.StatusForbidden},
		{"unknown role", MockAdminUser(), "/?role=owner", http.StatusBadRequest},
		{"unknown view", MockUser(), "/?view=table", http.StatusBadRequest},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, cleanup := SetupTestDB(t)
			defer cleanup()

			c, w := SetupTestContext()
			SetAuthenticatedUser(c, tt.user)
			c.Request = httptest.NewRequest("GET", tt.query, nil)

			GetDirectory(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
