package models

import "time"

const (
	ContentTypeEvent        = "event"
	ContentTypeAnnouncement = "announcement"
)

type Tag struct {
	Tag_ID          int       `json:"tagId" goqu:"skipinsert"`
	Name            string    `json:"name"`
	Namespace       *string   `json:"namespace"`
	Color           string    `json:"color"`
	Description     *string   `json:"description"`
	Self_Assignable bool      `json:"selfAssignable"`
	Assign_Min_Role string    `json:"assignMinRole"`
	Is_Active       bool      `json:"isActive"`
	Created_By      int       `json:"createdBy"`
	Datetime_Create time.Time `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By      int       `json:"updatedBy"`
	Datetime_Update time.Time `json:"datetimeUpdate" goqu:"skipinsert"`
}

type TagCreate struct {
	Name            string  `json:"name" binding:"required,max=50"`
	Namespace       *string `json:"namespace" binding:"omitempty,max=50"`
	Color           string  `json:"color" binding:"omitempty,max=20"`
	Description     *string `json:"description" binding:"omitempty,max=500"`
	Self_Assignable bool    `json:"selfAssignable"`
	Assign_Min_Role string  `json:"assignMinRole" binding:"omitempty,oneof=member leader admin"`
}

type TagUpdate struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=50"`
	Namespace       *string `json:"namespace" binding:"omitempty,max=50"`
	Color           *string `json:"color" binding:"omitempty,max=20"`
	Description     *string `json:"description" binding:"omitempty,max=500"`
	Self_Assignable *bool   `json:"selfAssignable"`
	Assign_Min_Role *string `json:"assignMinRole" binding:"omitempty,oneof=member leader admin"`
	Is_Active       *bool   `json:"isActive"`
}

// PersonTag is one row of the person <-> tag join table. Datetime_Create is
// the acquisition order used when grouping announcements.
type PersonTag struct {
	Person_Tag_ID   int       `json:"personTagId" goqu:"skipinsert"`
	Person_ID       int       `json:"personId"`
	Tag_ID          int       `json:"tagId"`
	Created_By      int       `json:"createdBy"`
	Datetime_Create time.Time `json:"datetimeCreate" goqu:"skipinsert"`
}

// ContentTagsUpdate replaces the audience tags of an event or announcement.
// An empty list clears them.
type ContentTagsUpdate struct {
	Tag_IDs []int `json:"tagIds"`
}
