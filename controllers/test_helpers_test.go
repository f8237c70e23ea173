package controllers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// SetupTestDB creates a mock database and sets it as the global DB for testing.
// Notification fan-out is disabled so background work never touches the mock.
func SetupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	originalDB := initializers.DB
	initializers.DB = goqu.New("postgres", db)

	originalAsync := runAsync
	runAsync = func(func()) {}

	cleanup := func() {
		db.Close()
		initializers.DB = originalDB
		runAsync = originalAsync
	}

	return db, mock, cleanup
}

// SetupTestContext creates a test Gin context with a response recorder
func SetupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, w
}

// SetAuthenticatedUser mirrors what CheckAuth stores on the context.
func SetAuthenticatedUser(c *gin.Context, user models.UserProfile) {
	c.Set("currentUser", user)
	c.Set("role", user.Role)
	c.Set("admin", user.Role == models.RoleAdmin)
}

func SetJSONBody(t *testing.T, c *gin.Context, method string, body interface{}) {
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
	}
	c.Request = httptest.NewRequest(method, "/", bytes.NewBuffer(raw))
	c.Request.Header.Set("Content-Type", "application/json")
}

func SetParams(c *gin.Context, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		c.Params = append(c.Params, gin.Param{Key: kv[i], Value: kv[i+1]})
	}
}

// ExpectViewer mocks the queries loadViewer runs. personID 0 means the
// caller has not completed a profile.
func ExpectViewer(mock sqlmock.Sqlmock, userID int, personID int, tagIDs ...int) {
	if personID == 0 {
		mock.ExpectQuery(`FROM "person"`).WillReturnRows(sqlmock.NewRows(personColumns))
		return
	}

	mock.ExpectQuery(`FROM "person"`).WillReturnRows(sqlmock.NewRows(personColumns).
		AddRow(personID, "Test", "User", "test@example.com", false, false, nil, userID, userID, userID))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(tagColumnsForTest)
	for _, id := range tagIDs {
		rows.AddRow(id, "Tag", "#808080", false, models.RoleAdmin, true)
	}
	mock.ExpectQuery(`INNER JOIN "person_tag"`).WillReturnRows(rows)
}

func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}
