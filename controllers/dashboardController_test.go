package controllers

import (
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Congregate/models"
	"github.com/Congregate/services"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestFeedLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", services.DefaultFeedLimit},
		{"8", 8},
		{"0", services.DefaultFeedLimit},
		{"many", services.DefaultFeedLimit},
	}

	for _, tt := range tests {
		t.Run("FEED_LIMIT="+tt.raw, func(t *testing.T) {
			os.Setenv("FEED_LIMIT", tt.raw)
			defer os.Unsetenv("FEED_LIMIT")

			assert.Equal(t, tt.want, feedLimit())
		})
	}
}

func TestGetDashboardPartialFailure(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	ExpectViewer(mock, 1, 0)

	mock.MatchExpectationsInOrder(false)
	start := time.Now().Add(time.Hour)
	mock.ExpectQuery(`FROM "event"`).WillReturnRows(sqlmock.NewRows(eventColumns).
		AddRow(1, "Open house", start, start.Add(time.Hour), true, "{}", 2, 2))
	mock.ExpectQuery(`INNER JOIN "event_tag"`).WillReturnRows(sqlmock.NewRows(contentTagColumns))
	mock.ExpectQuery(`FROM "announcement"`).WillReturnError(errors.New("announcement table unavailable"))
	mock.ExpectQuery(`SELECT COUNT.*FROM "person"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT.*FROM "prayer_request"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockUser())

	GetDashboard(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var dashboard models.Dashboard
	DecodeJSON(t, w, &dashboard)
	assert.Len(t, dashboard.Upcoming_Events, 1)
	assert.Empty(t, dashboard.Recent_Announcements)
	assert.Equal(t, int64(12), dashboard.Directory_Count)
	assert.Equal(t, int64(3), dashboard.Open_Prayer_Count)
	assert.Empty(t, dashboard.For_You.Events)
	if assert.Len(t, dashboard.Errors, 1) {
		assert.Contains(t, dashboard.Errors[0], "announcements: ")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDashboardForYou(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	ExpectViewer(mock, 1, 10, 7)

	mock.MatchExpectationsInOrder(false)
	start := time.Now().Add(time.Hour)
	publishedAt := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`FROM "event"`).WillReturnRows(sqlmock.NewRows(eventColumns).
		AddRow(1, "Choir concert", start, start.Add(time.Hour), false, "{}", 2, 2).
		AddRow(2, "Open house", start, start.Add(time.Hour), true, "{}", 2, 2))
	mock.ExpectQuery(`INNER JOIN "event_tag"`).WillReturnRows(sqlmock.NewRows(contentTagColumns).
		AddRow(1, 7, "Tag", "#808080", false, models.RoleAdmin, true))
	mock.ExpectQuery(`FROM "event_rsvp"`).WillReturnRows(sqlmock.NewRows([]string{"event_id", "person_id", "status"}))
	mock.ExpectQuery(`FROM "announcement"`).WillReturnRows(sqlmock.NewRows(announcementColumns).
		AddRow(3, "Choir robes", publishedAt, nil, true, true, "{}", 3, 3))
	mock.ExpectQuery(`INNER JOIN "announcement_tag"`).WillReturnRows(sqlmock.NewRows(contentTagColumns).
		AddRow(3, 7, "Tag", "#808080", false, models.RoleAdmin, true))
	mock.ExpectQuery(`FROM "announcement_read"`).WillReturnRows(sqlmock.NewRows([]string{"announcement_id"}))
	mock.ExpectQuery(`SELECT COUNT.*FROM "prayer_request"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// directory count and the feed's person lookup both count person rows
	mock.ExpectQuery(`SELECT COUNT.*FROM "person"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT.*FROM "person"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`INNER JOIN "person_tag"`).WillReturnRows(sqlmock.NewRows(tagColumnsForTest).
		AddRow(7, "Tag", "#808080", false, models.RoleAdmin, true))

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockUser())

	GetDashboard(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var dashboard models.Dashboard
	DecodeJSON(t, w, &dashboard)
	assert.Empty(t, dashboard.Errors)
	assert.Len(t, dashboard.Upcoming_Events, 2)
	if assert.Len(t, dashboard.For_You.Events, 1) {
		assert.Equal(t, 1, dashboard.For_You.Events[0].Event_ID)
		assert.Equal(t, []string{"Tag"}, dashboard.For_You.Events[0].Matching_Tags)
	}
	if assert.Len(t, dashboard.For_You.Announcements, 1) {
		assert.Equal(t, 3, dashboard.For_You.Announcements[0].Announcement_ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForYouFeedWithoutTags(t *testing.T) {
	_, mock, cleanup := SetupTestDB(t)
	defer cleanup()

	ExpectViewer(mock, 1, 10)

	c, w := SetupTestContext()
	SetAuthenticatedUser(c, MockUser())

	GetForYouFeed(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var feed models.ForYouFeed
	DecodeJSON(t, w, &feed)
	assert.Empty(t, feed.Events)
	assert.Empty(t, feed.Announcements)
	assert.NoError(t, mock.ExpectationsWereMet())
}
