package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const dashboardSectionSize = 5

func feedLimit() int {
	if raw := os.Getenv("FEED_LIMIT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
		log.Printf("Ignoring invalid FEED_LIMIT %q", raw)
	}
	return services.DefaultFeedLimit
}

// loadedTagResolver answers content tag lookups from rows already loaded
// for the dashboard and falls back to the database for anything else.
type loadedTagResolver struct {
	services.TagResolver
	events        map[int][]models.Tag
	announcements map[int][]models.Tag
}

func (r loadedTagResolver) ContentTags(ctx context.Context, contentID int, contentType string) ([]models.Tag, error) {
	switch contentType {
	case models.ContentTypeEvent:
		if tags, ok := r.events[contentID]; ok {
			return tags, nil
		}
	case models.ContentTypeAnnouncement:
		if tags, ok := r.announcements[contentID]; ok {
			return tags, nil
		}
	}
	return r.TagResolver.ContentTags(ctx, contentID, contentType)
}

// GetDashboard loads every dashboard section concurrently. A failing
// section comes back empty with a message in errors; the others are still
// returned.
func GetDashboard(c *gin.Context) {
	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	dashboard := models.Dashboard{
		Upcoming_Events:      []models.Event{},
		Recent_Announcements: []models.Announcement{},
		For_You: models.ForYouFeed{
			Events:        []models.FeedEvent{},
			Announcements: []models.FeedAnnouncement{},
		},
	}

	var (
		mu            sync.Mutex
		events        []models.EventView
		announcements []models.AnnouncementView
	)
	fail := func(section string, err error) {
		log.Printf("Dashboard section %s failed for user %d: %v", section, viewer.User_Profile_ID, err)
		mu.Lock()
		dashboard.Errors = append(dashboard.Errors, section+": "+err.Error())
		mu.Unlock()
	}

	ctx := c.Request.Context()
	var g errgroup.Group

	g.Go(func() error {
		loaded, err := loadVisibleEvents(ctx, viewer, false, 0)
		if err != nil {
			fail("events", err)
			return nil
		}
		events = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := loadVisibleAnnouncements(ctx, viewer, false, 0)
		if err != nil {
			fail("announcements", err)
			return nil
		}
		announcements = loaded
		return nil
	})
	g.Go(func() error {
		n, err := initializers.DB.From("person").CountContext(ctx)
		if err != nil {
			fail("directory", err)
			return nil
		}
		dashboard.Directory_Count = n
		return nil
	})
	g.Go(func() error {
		n, err := initializers.DB.From("prayer_request").
			Where(goqu.C("status").Eq(models.PrayerStatusOpen)).
			CountContext(ctx)
		if err != nil {
			fail("prayerRequests", err)
			return nil
		}
		dashboard.Open_Prayer_Count = n
		return nil
	})
	_ = g.Wait()

	resolver := loadedTagResolver{
		TagResolver:   services.DBTagResolver{},
		events:        make(map[int][]models.Tag, len(events)),
		announcements: make(map[int][]models.Tag, len(announcements)),
	}

	feedEvents := make([]models.Event, 0, len(events))
	for _, e := range events {
		feedEvents = append(feedEvents, e.Event)
		resolver.events[e.Event_ID] = e.Tags
		if len(dashboard.Upcoming_Events) < dashboardSectionSize {
			dashboard.Upcoming_Events = append(dashboard.Upcoming_Events, e.Event)
		}
	}
	feedAnnouncements := make([]models.Announcement, 0, len(announcements))
	for _, a := range announcements {
		feedAnnouncements = append(feedAnnouncements, a.Announcement)
		resolver.announcements[a.Announcement_ID] = a.Tags
		if len(dashboard.Recent_Announcements) < dashboardSectionSize {
			dashboard.Recent_Announcements = append(dashboard.Recent_Announcements, a.Announcement)
		}
	}

	if viewer.Person_ID != nil {
		feed, err := services.BuildForYouFeed(ctx, resolver, *viewer.Person_ID, feedEvents, feedAnnouncements, feedLimit())
		if err != nil {
			fail("forYou", err)
		} else {
			dashboard.For_You = feed
		}
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetForYouFeed returns only the personalised section of the dashboard.
func GetForYouFeed(c *gin.Context) {
	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	empty := models.ForYouFeed{Events: []models.FeedEvent{}, Announcements: []models.FeedAnnouncement{}}
	if viewer.Person_ID == nil || len(viewer.Tag_IDs) == 0 {
		c.JSON(http.StatusOK, empty)
		return
	}

	var (
		events        []models.EventView
		announcements []models.AnnouncementView
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		events, err = loadVisibleEvents(ctx, viewer, false, 0)
		return err
	})
	g.Go(func() error {
		var err error
		announcements, err = loadVisibleAnnouncements(ctx, viewer, false, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, err)
		return
	}

	resolver := loadedTagResolver{
		TagResolver:   services.DBTagResolver{},
		events:        make(map[int][]models.Tag, len(events)),
		announcements: make(map[int][]models.Tag, len(announcements)),
	}
	feedEvents := make([]models.Event, 0, len(events))
	for _, e := range events {
		feedEvents = append(feedEvents, e.Event)
		resolver.events[e.Event_ID] = e.Tags
	}
	feedAnnouncements := make([]models.Announcement, 0, len(announcements))
	for _, a := range announcements {
		feedAnnouncements = append(feedAnnouncements, a.Announcement)
		resolver.announcements[a.Announcement_ID] = a.Tags
	}

	feed, err := services.BuildForYouFeed(c.Request.Context(), resolver, *viewer.Person_ID, feedEvents, feedAnnouncements, feedLimit())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}
