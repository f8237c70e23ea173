package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Congregate/models"
)

const (
	GeneralGroupKey = "general"
	OtherGroupKey   = "other"
)

// GroupAnnouncements partitions announcements into display sections:
// untagged ones under General, then one section per viewer tag in the order
// the viewer holds them, then one per remaining active tag by name. An
// announcement is claimed by the first section it matches. Anything whose
// tags are all inactive and not held by the viewer lands in Other, so every
// input appears exactly once. Empty sections are omitted.
func GroupAnnouncements(
	announcements []models.AnnouncementView,
	viewerTags []models.Tag,
	activeTags []models.Tag,
) []models.AnnouncementGroup {
	groups := []models.AnnouncementGroup{}

	general := models.AnnouncementGroup{Key: GeneralGroupKey, Label: "General"}
	var remaining []models.AnnouncementView
	for _, a := range announcements {
		if len(a.Tags) == 0 {
			general.Announcements = append(general.Announcements, a)
			continue
		}
		remaining = append(remaining, a)
	}
	if len(general.Announcements) > 0 {
		groups = append(groups, general)
	}

	mine := make(map[int]struct{}, len(viewerTags))
	for _, tag := range viewerTags {
		if _, dup := mine[tag.Tag_ID]; dup {
			continue
		}
		mine[tag.Tag_ID] = struct{}{}

		var group *models.AnnouncementGroup
		group, remaining = claimByTag(remaining, tag, true)
		if group != nil {
			groups = append(groups, *group)
		}
	}

	others := make([]models.Tag, 0, len(activeTags))
	for _, tag := range activeTags {
		if _, held := mine[tag.Tag_ID]; held || !tag.Is_Active {
			continue
		}
		others = append(others, tag)
	}
	sort.SliceStable(others, func(i, j int) bool {
		return strings.ToLower(others[i].Name) < strings.ToLower(others[j].Name)
	})
	for _, tag := range others {
		var group *models.AnnouncementGroup
		group, remaining = claimByTag(remaining, tag, false)
		if group != nil {
			groups = append(groups, *group)
		}
	}

	if len(remaining) > 0 {
		groups = append(groups, models.AnnouncementGroup{
			Key:           OtherGroupKey,
			Label:         "Other",
			Announcements: remaining,
		})
	}

	return groups
}

func claimByTag(pool []models.AnnouncementView, tag models.Tag, isMine bool) (*models.AnnouncementGroup, []models.AnnouncementView) {
	var claimed, left []models.AnnouncementView
	for _, a := range pool {
		if hasTag(a.Tags, tag.Tag_ID) {
			claimed = append(claimed, a)
			continue
		}
		left = append(left, a)
	}
	if len(claimed) == 0 {
		return nil, pool
	}

	t := tag
	return &models.AnnouncementGroup{
		Key:           fmt.Sprintf("tag-%d", tag.Tag_ID),
		Label:         tag.Name,
		Tag:           &t,
		Is_Mine:       isMine,
		Announcements: claimed,
	}, left
}

func hasTag(tags []models.Tag, tagID int) bool {
	for _, t := range tags {
		if t.Tag_ID == tagID {
			return true
		}
	}
	return false
}
