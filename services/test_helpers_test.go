package services

import (
	"testing"

	"github.com/Congregate/initializers"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
)

// setupTestDB swaps initializers.DB for a sqlmock-backed goqu database.
func setupTestDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	originalDB := initializers.DB
	initializers.DB = goqu.New("postgres", db)

	cleanup := func() {
		db.Close()
		initializers.DB = originalDB
	}

	return mock, cleanup
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
