package middlewares

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key"

func signToken(claims jwt.MapClaims, secret string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

// Helper function to generate a valid JWT token
func generateValidToken(userID int, expiresIn time.Duration) string {
	os.Setenv("SECRET", testSecret)
	return signToken(jwt.MapClaims{
		"id":  float64(userID),
		"exp": float64(time.Now().Add(expiresIn).Unix()),
	}, testSecret)
}

// Helper function to generate a token with invalid signature
func generateInvalidSignatureToken(userID int) string {
	return signToken(jwt.MapClaims{
		"id":  float64(userID),
		"exp": float64(time.Now().Add(24 * time.Hour).Unix()),
	}, "wrong-secret-key")
}

// Setup test database
func setupTestDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	oldDB := initializers.DB
	initializers.DB = goqu.New("postgres", db)

	cleanup := func() {
		db.Close()
		initializers.DB = oldDB
	}

	return mock, cleanup
}

// Setup test Gin context
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/test", nil)
	return c, w
}

var userColumns = []string{
	"user_profile_id", "email", "first_name", "last_name", "password", "role",
	"datetime_create", "datetime_update", "created_by", "updated_by", "deleted",
}

func TestCheckAuth(t *testing.T) {
	os.Setenv("SECRET", testSecret)

	tests := []struct {
		name           string
		authHeader     string
		mockUserLookup bool
		storedRole     string
		expectedStatus int
		expectAbort    bool
		expectAdmin    bool
	}{
		{
			name:           "missing authorization header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectAbort:    true,
		},
		{
			name:           "no Bearer prefix",
			authHeader:     "InvalidToken123",
			expectedStatus: http.StatusUnauthorized,
			expectAbort:    true,
		},
		{
			name:           "wrong prefix",
			authHeader:     "Basic " + generateValidToken(1, 24*time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectAbort:    true,
		},
		{
			name:           "invalid signature",
			authHeader:     "Bearer " + generateInvalidSignatureToken(1),
			expectedStatus: http.StatusUnauthorized,
			expectAbort:    true,
		},
		{
			name: "password reset token",
			authHeader: "Bearer " + signToken(jwt.MapClaims{
				"id":      float64(1),
				"purpose": "password_reset",
				"exp":     float64(time.Now().Add(5 * time.Minute).Unix()),
			}, testSecret),
			expectedStatus: http.StatusUnauthorized,
			expectAbort:    true,
		},
		{
			name:           "expired token",
			authHeader:     "Bearer " + generateValidToken(1, -1*time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectAbort:    true,
		},
		{
			name:           "user not found",
			authHeader:     "Bearer " + generateValidToken(999, 24*time.Hour),
			mockUserLookup: true,
			expectedStatus: http.StatusUnauthorized,
			expectAbort:    true,
		},
		{
			name:           "pending user",
			authHeader:     "Bearer " + generateValidToken(1, 24*time.Hour),
			mockUserLookup: true,
			storedRole:     models.RolePending,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "member",
			authHeader:     "Bearer " + generateValidToken(1, 24*time.Hour),
			mockUserLookup: true,
			storedRole:     models.RoleMember,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "admin",
			authHeader:     "Bearer " + generateValidToken(1, 24*time.Hour),
			mockUserLookup: true,
			storedRole:     models.RoleAdmin,
			expectedStatus: http.StatusOK,
			expectAdmin:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, cleanup := setupTestDB(t)
			defer cleanup()

			if tt.mockUserLookup {
				rows := sqlmock.NewRows(userColumns)
				if tt.storedRole != "" {
					now := time.Now()
					rows.AddRow(1, "test@example.com", "Test", "User", "hashed", tt.storedRole, now, now, 1, 1, false)
				}
				mock.ExpectQuery("SELECT").WillReturnRows(rows)
			}

			c, w := setupTestContext()
			if tt.authHeader != "" {
				c.Request.Header.Set("Authorization", tt.authHeader)
			}

			CheckAuth(c)

			if tt.expectAbort {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.expectedStatus, w.Code)
				_, exists := c.Get("currentUser")
				assert.False(t, exists)
				return
			}

			assert.False(t, c.IsAborted())
			user := c.MustGet("currentUser").(models.UserProfile)
			assert.Equal(t, 1, user.User_Profile_ID)
			assert.Equal(t, tt.storedRole, c.GetString("role"))
			assert.Equal(t, tt.expectAdmin, c.MustGet("admin").(bool))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
