package services

import (
	"testing"

	"github.com/Congregate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func view(id int, tags ...models.Tag) models.AnnouncementView {
	return models.AnnouncementView{
		Announcement: models.Announcement{Announcement_ID: id},
		Tags:         tags,
	}
}

func ids(group models.AnnouncementGroup) []int {
	out := []int{}
	for _, a := range group.Announcements {
		out = append(out, a.Announcement_ID)
	}
	return out
}

func TestGroupAnnouncements(t *testing.T) {
	womenTag := models.Tag{Tag_ID: 4, Name: "Women", Is_Active: true}
	oldTag := models.Tag{Tag_ID: 9, Name: "Old", Is_Active: false}

	input := []models.AnnouncementView{
		view(1),
		view(2, choirTag, youthTag),
		view(3, choirTag),
		view(4, menTag),
		view(5, womenTag, menTag),
		view(6, oldTag),
		view(7),
	}
	viewerTags := []models.Tag{youthTag, choirTag}
	activeTags := []models.Tag{choirTag, youthTag, menTag, womenTag}

	groups := GroupAnnouncements(input, viewerTags, activeTags)

	require.Len(t, groups, 5)

	assert.Equal(t, GeneralGroupKey, groups[0].Key)
	assert.Equal(t, []int{1, 7}, ids(groups[0]))

	// first viewer tag claims the announcement carrying both viewer tags
	assert.Equal(t, "Youth", groups[1].Label)
	assert.True(t, groups[1].Is_Mine)
	assert.Equal(t, []int{2}, ids(groups[1]))

	assert.Equal(t, "Choir", groups[2].Label)
	assert.Equal(t, []int{3}, ids(groups[2]))

	// remaining active tags by name: Men before Women
	assert.Equal(t, "Men", groups[3].Label)
	assert.False(t, groups[3].Is_Mine)
	assert.Equal(t, []int{4, 5}, ids(groups[3]))

	assert.Equal(t, OtherGroupKey, groups[4].Key)
	assert.Equal(t, []int{6}, ids(groups[4]))

	seen := map[int]int{}
	for _, g := range groups {
		for _, a := range g.Announcements {
			seen[a.Announcement_ID]++
		}
	}
	assert.Len(t, seen, len(input))
	for id, n := range seen {
		assert.Equal(t, 1, n, "announcement %d", id)
	}
}

func TestGroupAnnouncementsEmpty(t *testing.T) {
	groups := GroupAnnouncements(nil, []models.Tag{choirTag}, []models.Tag{choirTag})
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupAnnouncementsViewerWithoutTags(t *testing.T) {
	groups := GroupAnnouncements([]models.AnnouncementView{view(1, choirTag), view(2)}, nil, []models.Tag{choirTag})
	require.Len(t, groups, 2)
	assert.Equal(t, GeneralGroupKey, groups[0].Key)
	assert.Equal(t, "Choir", groups[1].Label)
	assert.False(t, groups[1].Is_Mine)
}
