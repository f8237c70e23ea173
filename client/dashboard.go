package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/Congregate/models"
	"golang.org/x/sync/errgroup"
)

// Home is everything the home screen shows. A section that failed to load
// is left empty and named in Errors.
type Home struct {
	Dashboard           models.Dashboard
	UnreadAnnouncements int
	UnreadNotifications int
	Errors              []string
}

// LoadHome fetches the dashboard, the unread announcement count and the
// inbox in parallel. It fails only if every section failed.
func LoadHome(ctx context.Context, c *Client, inbox *Inbox) (Home, error) {
	var (
		home Home
		mu   sync.Mutex
		errs []error
	)
	record := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		home.Errors = append(home.Errors, fmt.Sprintf("%s: %v", section, err))
		errs = append(errs, err)
	}

	var g errgroup.Group
	g.Go(func() error {
		dashboard, err := c.Dashboard(ctx)
		if err != nil {
			record("dashboard", err)
			return nil
		}
		mu.Lock()
		home.Dashboard = dashboard
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		count, err := c.UnreadAnnouncementCount(ctx)
		if err != nil {
			record("announcements", err)
			return nil
		}
		mu.Lock()
		home.UnreadAnnouncements = count
		mu.Unlock()
		return nil
	})
	sections := 2
	if inbox != nil {
		sections++
		g.Go(func() error {
			if err := inbox.Refresh(ctx); err != nil {
				record("notifications", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if inbox != nil {
		home.UnreadNotifications = inbox.UnreadCount()
	}
	if len(errs) == sections {
		return home, errs[0]
	}
	return home, nil
}
