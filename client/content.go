package client

import (
	"context"
	"sync"

	"github.com/Congregate/apperr"
	"github.com/Congregate/models"
)

// RSVPStore keeps the viewer's RSVP status per event and changes it
// optimistically.
type RSVPStore struct {
	client *Client
	toasts *Toasts

	mu       sync.RWMutex
	statuses map[int]string
}

func NewRSVPStore(client *Client, toasts *Toasts) *RSVPStore {
	return &RSVPStore{client: client, toasts: toasts, statuses: map[int]string{}}
}

// Load replaces the known statuses with the ones in events.
func (s *RSVPStore) Load(events []models.EventView) {
	statuses := make(map[int]string, len(events))
	for _, event := range events {
		if event.My_Status != nil {
			statuses[event.Event_ID] = *event.My_Status
		}
	}
	s.mu.Lock()
	s.statuses = statuses
	s.mu.Unlock()
}

// Status returns "" when the viewer has not answered.
func (s *RSVPStore) Status(eventID int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[eventID]
}

func (s *RSVPStore) set(eventID int, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == "" {
		delete(s.statuses, eventID)
		return
	}
	s.statuses[eventID] = status
}

// SetRsvp shows status at once and sends it. Choosing the current status
// again sends nothing. On failure the previous status comes back and an
// error toast is raised.
func (s *RSVPStore) SetRsvp(ctx context.Context, eventID int, status string) error {
	switch status {
	case models.RsvpGoing, models.RsvpMaybe, models.RsvpDeclined:
	default:
		return apperr.NewValidationError("status", "must be one of going, maybe, declined")
	}

	previous := s.Status(eventID)
	if previous == status {
		return nil
	}

	err := Command[string]{
		Previous: previous,
		Next:     status,
		Apply:    func(v string) { s.set(eventID, v) },
		Commit: func(ctx context.Context) error {
			return s.client.SetRsvp(ctx, eventID, status)
		},
	}.Execute(ctx)
	if err != nil && s.toasts != nil {
		s.toasts.PushError(err)
	}
	return err
}

// ReadStore tracks which announcements the viewer has read.
type ReadStore struct {
	client *Client
	toasts *Toasts

	mu   sync.RWMutex
	read map[int]bool
}

func NewReadStore(client *Client, toasts *Toasts) *ReadStore {
	return &ReadStore{client: client, toasts: toasts, read: map[int]bool{}}
}

func (s *ReadStore) Load(announcements []models.AnnouncementView) {
	read := make(map[int]bool, len(announcements))
	for _, announcement := range announcements {
		if announcement.Is_Read {
			read[announcement.Announcement_ID] = true
		}
	}
	s.mu.Lock()
	s.read = read
	s.mu.Unlock()
}

func (s *ReadStore) IsRead(announcementID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read[announcementID]
}

func (s *ReadStore) set(announcementID int, read bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if read {
		s.read[announcementID] = true
		return
	}
	delete(s.read, announcementID)
}

// MarkRead marks an announcement read locally, then on the server.
// Already-read announcements are left alone.
func (s *ReadStore) MarkRead(ctx context.Context, announcementID int) error {
	if s.IsRead(announcementID) {
		return nil
	}

	err := Command[bool]{
		Previous: false,
		Next:     true,
		Apply:    func(v bool) { s.set(announcementID, v) },
		Commit: func(ctx context.Context) error {
			return s.client.MarkRead(ctx, announcementID)
		},
	}.Execute(ctx)
	if err != nil && s.toasts != nil {
		s.toasts.PushError(err)
	}
	return err
}
