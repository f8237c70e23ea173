package services

import (
	"time"

	"github.com/Congregate/apperr"
	"github.com/Congregate/models"
)

// Viewer is the caller as seen by the visibility rules.
type Viewer struct {
	User_Profile_ID int
	Person_ID       *int
	Role            string
	Tag_IDs         []int
}

// IsVisible reports whether content with the given audience settings may be
// shown to viewer: public content, content whose roles_allowed names the
// viewer's role, content sharing an audience tag with the viewer, and
// anything for admins.
func IsVisible(viewer Viewer, isPublic bool, rolesAllowed []string, contentTagIDs []int) bool {
	if viewer.Role == models.RoleAdmin {
		return true
	}
	if isPublic {
		return true
	}
	for _, role := range rolesAllowed {
		if role == viewer.Role {
			return true
		}
	}
	if len(contentTagIDs) == 0 || len(viewer.Tag_IDs) == 0 {
		return false
	}
	held := make(map[int]struct{}, len(viewer.Tag_IDs))
	for _, id := range viewer.Tag_IDs {
		held[id] = struct{}{}
	}
	for _, id := range contentTagIDs {
		if _, ok := held[id]; ok {
			return true
		}
	}
	return false
}

// ValidateAudience rejects non-public content that names neither roles nor
// audience tags, since nobody but admins could ever see it.
func ValidateAudience(isPublic bool, rolesAllowed []string, tagIDs []int) error {
	if isPublic {
		return nil
	}
	if len(rolesAllowed) == 0 && len(tagIDs) == 0 {
		return apperr.NewValidationError("rolesAllowed", "non-public content needs rolesAllowed or audience tags")
	}
	for _, role := range rolesAllowed {
		if !models.IsValidRole(role) {
			return apperr.NewValidationError("rolesAllowed", "unknown role "+role)
		}
	}
	return nil
}

// IsAnnouncementLive reports whether an announcement is published and not
// yet expired at now.
func IsAnnouncementLive(a models.Announcement, now time.Time) bool {
	if !a.Is_Published {
		return false
	}
	if a.Published_At != nil && a.Published_At.After(now) {
		return false
	}
	if a.Expires_At != nil && !a.Expires_At.After(now) {
		return false
	}
	return true
}

func TagIDs(tags []models.Tag) []int {
	ids := make([]int, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.Tag_ID)
	}
	return ids
}
