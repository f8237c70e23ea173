package models

type FeedEvent struct {
	Event
	Matching_Tags []string `json:"matchingTags"`
}

type FeedAnnouncement struct {
	Announcement
	Matching_Tags []string `json:"matchingTags"`
}

// ForYouFeed is the personalised dashboard section. It is a display slice,
// not a page: the full lists stay available from /events and /announcements.
type ForYouFeed struct {
	Events        []FeedEvent        `json:"events"`
	Announcements []FeedAnnouncement `json:"announcements"`
}

type Dashboard struct {
	Upcoming_Events      []Event        `json:"upcomingEvents"`
	Recent_Announcements []Announcement `json:"recentAnnouncements"`
	Directory_Count      int64          `json:"directoryCount"`
	Open_Prayer_Count    int64          `json:"openPrayerCount"`
	For_You              ForYouFeed     `json:"forYou"`
	Errors               []string       `json:"errors,omitempty"`
}
