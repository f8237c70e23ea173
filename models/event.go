package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	RsvpGoing    = "going"
	RsvpMaybe    = "maybe"
	RsvpDeclined = "declined"
)

type Event struct {
	Event_ID        int            `json:"eventId" goqu:"skipinsert"`
	Title           string         `json:"title"`
	Description     *string        `json:"description"`
	Start_At        time.Time      `json:"startAt"`
	End_At          time.Time      `json:"endAt"`
	Is_All_Day      bool           `json:"isAllDay"`
	Location        *string        `json:"location"`
	Image_Path      *string        `json:"imagePath"`
	Is_Public       bool           `json:"isPublic"`
	Roles_Allowed   pq.StringArray `json:"rolesAllowed"`
	Created_By      int            `json:"createdBy"`
	Datetime_Create time.Time      `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By      int            `json:"updatedBy"`
	Datetime_Update time.Time      `json:"datetimeUpdate" goqu:"skipinsert"`
}

type EventCreate struct {
	Title         string    `json:"title" binding:"required,max=200"`
	Description   *string   `json:"description" binding:"omitempty,max=5000"`
	Start_At      time.Time `json:"startAt" binding:"required"`
	End_At        time.Time `json:"endAt" binding:"required"`
	Is_All_Day    bool      `json:"isAllDay"`
	Location      *string   `json:"location" binding:"omitempty,max=300"`
	Image_Path    *string   `json:"imagePath"`
	Is_Public     bool      `json:"isPublic"`
	Roles_Allowed []string  `json:"rolesAllowed" binding:"omitempty,dive,oneof=pending member leader admin"`
	Tag_IDs       []int     `json:"tagIds"`
}

type EventUpdate struct {
	Title         *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description   *string    `json:"description" binding:"omitempty,max=5000"`
	Start_At      *time.Time `json:"startAt"`
	End_At        *time.Time `json:"endAt"`
	Is_All_Day    *bool      `json:"isAllDay"`
	Location      *string    `json:"location" binding:"omitempty,max=300"`
	Image_Path    *string    `json:"imagePath"`
	Is_Public     *bool      `json:"isPublic"`
	Roles_Allowed *[]string  `json:"rolesAllowed"`
}

// EventView is an event as returned to a viewer.
type EventView struct {
	Event
	Tags      []Tag   `json:"tags"`
	My_Status *string `json:"myStatus"`
}

type EventRsvp struct {
	Event_Rsvp_ID   int       `json:"eventRsvpId" goqu:"skipinsert"`
	Event_ID        int       `json:"eventId"`
	Person_ID       int       `json:"personId"`
	Status          string    `json:"status"`
	Datetime_Update time.Time `json:"datetimeUpdate"`
}

type RsvpRequest struct {
	Status string `json:"status" binding:"required,oneof=going maybe declined"`
}

type RsvpSummary struct {
	Event_ID  int     `json:"eventId"`
	Going     int     `json:"going"`
	Maybe     int     `json:"maybe"`
	Declined  int     `json:"declined"`
	My_Status *string `json:"myStatus"`
}
