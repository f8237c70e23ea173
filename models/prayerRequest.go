package models

import "time"

const (
	PrayerStatusOpen     = "open"
	PrayerStatusAnswered = "answered"
	PrayerStatusArchived = "archived"
)

type PrayerRequest struct {
	Prayer_Request_ID int       `json:"prayerRequestId" goqu:"skipinsert"`
	Person_ID         int       `json:"personId"`
	Subject           string    `json:"subject"`
	Details           *string   `json:"details"`
	Status            string    `json:"status"`
	Is_Anonymous      bool      `json:"isAnonymous"`
	Prayer_Count      int       `json:"prayerCount" goqu:"skipinsert"`
	Created_By        int       `json:"createdBy"`
	Datetime_Create   time.Time `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By        int       `json:"updatedBy"`
	Datetime_Update   time.Time `json:"datetimeUpdate" goqu:"skipinsert"`
}

type PrayerRequestCreate struct {
	Subject      string  `json:"subject" binding:"required,max=200"`
	Details      *string `json:"details" binding:"omitempty,max=5000"`
	Is_Anonymous bool    `json:"isAnonymous"`
}

type PrayerRequestUpdate struct {
	Subject      *string `json:"subject" binding:"omitempty,min=1,max=200"`
	Details      *string `json:"details" binding:"omitempty,max=5000"`
	Status       *string `json:"status" binding:"omitempty,oneof=open answered archived"`
	Is_Anonymous *bool   `json:"isAnonymous"`
}

// PrayerRequestView is a prayer request as listed to a viewer. Owner fields
// are blanked for anonymous requests the viewer does not own.
type PrayerRequestView struct {
	Prayer_Request_ID int       `json:"prayerRequestId"`
	Person_ID         *int      `json:"personId"`
	Owner_First_Name  *string   `json:"ownerFirstName"`
	Owner_Last_Name   *string   `json:"ownerLastName"`
	Subject           string    `json:"subject"`
	Details           *string   `json:"details"`
	Status            string    `json:"status"`
	Is_Anonymous      bool      `json:"isAnonymous"`
	Prayer_Count      int       `json:"prayerCount"`
	Prayed_Today      bool      `json:"prayedToday"`
	Datetime_Create   time.Time `json:"datetimeCreate"`
}
