package services

import (
	"context"
	"log"
	"sort"

	"github.com/Congregate/models"
	"golang.org/x/sync/errgroup"
)

const DefaultFeedLimit = 5

type tagLookup struct {
	tags []models.Tag
	ok   bool
}

// BuildForYouFeed picks the upcoming events and published announcements
// that share at least one tag with the viewer. A viewer without tags gets
// an empty feed. Items whose tags cannot be resolved are logged and left
// out; the rest of the batch is still returned.
func BuildForYouFeed(
	ctx context.Context,
	resolver TagResolver,
	viewerPersonID int,
	events []models.Event,
	announcements []models.Announcement,
	limit int,
) (models.ForYouFeed, error) {
	feed := models.ForYouFeed{
		Events:        []models.FeedEvent{},
		Announcements: []models.FeedAnnouncement{},
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	viewerTags, err := resolver.PersonTags(ctx, viewerPersonID)
	if err != nil {
		return feed, err
	}
	if len(viewerTags) == 0 {
		return feed, nil
	}

	eventTags := make([]tagLookup, len(events))
	announcementTags := make([]tagLookup, len(announcements))

	var g errgroup.Group
	for i, event := range events {
		g.Go(func() error {
			tags, err := resolver.ContentTags(ctx, event.Event_ID, models.ContentTypeEvent)
			if err != nil {
				log.Printf("For You feed: skipping event %d, tag lookup failed: %v", event.Event_ID, err)
				FeedEnrichmentFailures.WithLabelValues(models.ContentTypeEvent).Inc()
				return nil
			}
			eventTags[i] = tagLookup{tags: tags, ok: true}
			return nil
		})
	}
	for i, announcement := range announcements {
		g.Go(func() error {
			tags, err := resolver.ContentTags(ctx, announcement.Announcement_ID, models.ContentTypeAnnouncement)
			if err != nil {
				log.Printf("For You feed: skipping announcement %d, tag lookup failed: %v", announcement.Announcement_ID, err)
				FeedEnrichmentFailures.WithLabelValues(models.ContentTypeAnnouncement).Inc()
				return nil
			}
			announcementTags[i] = tagLookup{tags: tags, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	matchedEvents := make(map[int]*models.FeedEvent)
	for i, event := range events {
		if !eventTags[i].ok {
			continue
		}
		names := matchingTagNames(viewerTags, eventTags[i].tags)
		if len(names) == 0 {
			continue
		}
		if existing, ok := matchedEvents[event.Event_ID]; ok {
			existing.Matching_Tags = mergeNames(existing.Matching_Tags, names)
			continue
		}
		matchedEvents[event.Event_ID] = &models.FeedEvent{Event: event, Matching_Tags: names}
	}

	matchedAnnouncements := make(map[int]*models.FeedAnnouncement)
	for i, announcement := range announcements {
		if !announcementTags[i].ok {
			continue
		}
		names := matchingTagNames(viewerTags, announcementTags[i].tags)
		if len(names) == 0 {
			continue
		}
		if existing, ok := matchedAnnouncements[announcement.Announcement_ID]; ok {
			existing.Matching_Tags = mergeNames(existing.Matching_Tags, names)
			continue
		}
		matchedAnnouncements[announcement.Announcement_ID] = &models.FeedAnnouncement{Announcement: announcement, Matching_Tags: names}
	}

	for _, e := range matchedEvents {
		feed.Events = append(feed.Events, *e)
	}
	sort.Slice(feed.Events, func(i, j int) bool {
		a, b := feed.Events[i], feed.Events[j]
		if !a.Start_At.Equal(b.Start_At) {
			return a.Start_At.Before(b.Start_At)
		}
		return a.Event_ID < b.Event_ID
	})

	for _, a := range matchedAnnouncements {
		feed.Announcements = append(feed.Announcements, *a)
	}
	sort.Slice(feed.Announcements, func(i, j int) bool {
		a, b := feed.Announcements[i], feed.Announcements[j]
		switch {
		case a.Published_At == nil && b.Published_At == nil:
			return a.Announcement_ID > b.Announcement_ID
		case a.Published_At == nil:
			return false
		case b.Published_At == nil:
			return true
		case !a.Published_At.Equal(*b.Published_At):
			return a.Published_At.After(*b.Published_At)
		}
		return a.Announcement_ID > b.Announcement_ID
	})

	if len(feed.Events) > limit {
		feed.Events = feed.Events[:limit]
	}
	if len(feed.Announcements) > limit {
		feed.Announcements = feed.Announcements[:limit]
	}

	return feed, nil
}

// matchingTagNames returns every viewer tag the item carries, in the
// viewer's tag order.
func matchingTagNames(viewerTags []models.Tag, itemTags []models.Tag) []string {
	itemSet := tagIDSet(itemTags)
	names := []string{}
	seen := make(map[int]struct{})
	for _, t := range viewerTags {
		if _, dup := seen[t.Tag_ID]; dup {
			continue
		}
		seen[t.Tag_ID] = struct{}{}
		if _, ok := itemSet[t.Tag_ID]; ok {
			names = append(names, t.Name)
		}
	}
	return names
}

func mergeNames(existing []string, more []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		have[n] = struct{}{}
	}
	for _, n := range more {
		if _, ok := have[n]; !ok {
			existing = append(existing, n)
			have[n] = struct{}{}
		}
	}
	return existing
}
