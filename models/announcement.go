package models

import (
	"time"

	"github.com/lib/pq"
)

type Announcement struct {
	Announcement_ID int            `json:"announcementId" goqu:"skipinsert"`
	Title           string         `json:"title"`
	Body            *string        `json:"body"`
	Published_At    *time.Time     `json:"publishedAt"`
	Expires_At      *time.Time     `json:"expiresAt"`
	Is_Published    bool           `json:"isPublished"`
	Is_Public       bool           `json:"isPublic"`
	Roles_Allowed   pq.StringArray `json:"rolesAllowed"`
	Created_By      int            `json:"createdBy"`
	Datetime_Create time.Time      `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By      int            `json:"updatedBy"`
	Datetime_Update time.Time      `json:"datetimeUpdate" goqu:"skipinsert"`
}

type AnnouncementCreate struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Body          *string    `json:"body" binding:"omitempty,max=10000"`
	Expires_At    *time.Time `json:"expiresAt"`
	Publish       bool       `json:"publish"`
	Is_Public     bool       `json:"isPublic"`
	Roles_Allowed []string   `json:"rolesAllowed" binding:"omitempty,dive,oneof=pending member leader admin"`
	Tag_IDs       []int      `json:"tagIds"`
}

type AnnouncementUpdate struct {
	Title         *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Body          *string    `json:"body" binding:"omitempty,max=10000"`
	Expires_At    *time.Time `json:"expiresAt"`
	Is_Public     *bool      `json:"isPublic"`
	Roles_Allowed *[]string  `json:"rolesAllowed"`
}

// AnnouncementView is an announcement as returned to a viewer.
type AnnouncementView struct {
	Announcement
	Tags    []Tag `json:"tags"`
	Is_Read bool  `json:"isRead"`
}

type AnnouncementRead struct {
	Announcement_Read_ID int       `json:"announcementReadId" goqu:"skipinsert"`
	Announcement_ID      int       `json:"announcementId"`
	Person_ID            int       `json:"personId"`
	Read_At              time.Time `json:"readAt"`
}

// AnnouncementGroup is one display section of the grouped announcement list.
// Tag is nil for the General and Other sections.
type AnnouncementGroup struct {
	Key           string             `json:"key"`
	Label         string             `json:"label"`
	Tag           *Tag               `json:"tag"`
	Is_Mine       bool               `json:"isMine"`
	Announcements []AnnouncementView `json:"announcements"`
}
