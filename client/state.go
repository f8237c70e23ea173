package client

import (
	"context"
	"sync"

	"github.com/Congregate/models"
	"github.com/Congregate/policy"
)

// Session holds the auth token and the account it belongs to. Init is
// called after login, Teardown on logout.
type Session struct {
	mu    sync.RWMutex
	token string
	user  models.UserProfile
}

func (s *Session) Init(token string, user models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = models.UserProfile{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// CanPerform applies the shared role policy to the signed-in account, so
// screens hide what the server would refuse.
func (s *Session) CanPerform(action policy.Action) bool {
	return policy.CanPerform(s.User().Role, action)
}

// UserState is the signed-in user's profile, directory record and family.
type UserState struct {
	client *Client
	seq    Sequencer

	mu      sync.RWMutex
	current models.CurrentUser
	loaded  bool
}

func NewUserState(client *Client) *UserState {
	return &UserState{client: client}
}

func (u *UserState) Init(ctx context.Context) error {
	return u.Refresh(ctx)
}

// Refresh reloads /users/me. A response that arrives after a newer refresh
// was started is dropped.
func (u *UserState) Refresh(ctx context.Context) error {
	ticket := u.seq.Next()
	me, err := u.client.Me(ctx)
	if err != nil {
		return err
	}
	u.seq.Apply(ticket, func() {
		u.mu.Lock()
		u.current = me
		u.loaded = true
		u.mu.Unlock()
	})
	return nil
}

func (u *UserState) Teardown() {
	u.seq.Invalidate()
	u.mu.Lock()
	defer u.mu.Unlock()
	u.current = models.CurrentUser{}
	u.loaded = false
}

func (u *UserState) Current() (models.CurrentUser, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.current, u.loaded
}

// NeedsProfile reports whether the account has no directory record yet.
func (u *UserState) NeedsProfile() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loaded && u.current.Person == nil
}

// Inbox is the push-notification inbox of the signed-in user.
type Inbox struct {
	client *Client
	userID int
	seq    Sequencer

	mu            sync.RWMutex
	notifications []models.Notification
}

func NewInbox(client *Client) *Inbox {
	return &Inbox{client: client}
}

func (i *Inbox) Init(ctx context.Context, userID int) error {
	i.mu.Lock()
	i.userID = userID
	i.mu.Unlock()
	return i.Refresh(ctx)
}

func (i *Inbox) Refresh(ctx context.Context) error {
	i.mu.RLock()
	userID := i.userID
	i.mu.RUnlock()

	ticket := i.seq.Next()
	notifications, err := i.client.Notifications(ctx, userID)
	if err != nil {
		return err
	}
	i.seq.Apply(ticket, func() {
		i.mu.Lock()
		i.notifications = notifications
		i.mu.Unlock()
	})
	return nil
}

func (i *Inbox) Teardown() {
	i.seq.Invalidate()
	i.mu.Lock()
	defer i.mu.Unlock()
	i.userID = 0
	i.notifications = nil
}

func (i *Inbox) Notifications() []models.Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]models.Notification, len(i.notifications))
	copy(out, i.notifications)
	return out
}

func (i *Inbox) UnreadCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n := 0
	for _, notification := range i.notifications {
		if notification.Notification_Status == models.NotificationStatusUnread {
			n++
		}
	}
	return n
}

// MarkAllRead flips every notification to read locally, then on the
// server, and restores the previous list if the server refuses.
func (i *Inbox) MarkAllRead(ctx context.Context) error {
	i.mu.RLock()
	userID := i.userID
	previous := make([]models.Notification, len(i.notifications))
	copy(previous, i.notifications)
	i.mu.RUnlock()

	next := make([]models.Notification, len(previous))
	for idx, notification := range previous {
		notification.Notification_Status = models.NotificationStatusRead
		next[idx] = notification
	}

	return Command[[]models.Notification]{
		Previous: previous,
		Next:     next,
		Apply: func(list []models.Notification) {
			i.mu.Lock()
			i.notifications = list
			i.mu.Unlock()
		},
		Commit: func(ctx context.Context) error {
			return i.client.MarkAllNotificationsRead(ctx, userID)
		},
	}.Execute(ctx)
}
