package models

import "time"

const (
	NotificationTypeAnnouncementPublished = "ANNOUNCEMENT_PUBLISHED"
	NotificationTypeEventUpdated          = "EVENT_UPDATED"
	NotificationTypeFamilyMemberJoined    = "FAMILY_MEMBER_JOINED"
	NotificationTypeAccountApproved       = "ACCOUNT_APPROVED"
)

const (
	NotificationStatusRead   = "READ"
	NotificationStatusUnread = "UNREAD"
)

// Notification is one row of a user's push inbox.
type Notification struct {
	Notification_ID        int       `json:"notificationId" goqu:"skipinsert"`
	User_Profile_ID        int       `json:"userProfileId"`
	Notification_Type      string    `json:"notificationType"`
	Notification_Message   string    `json:"notificationMessage"`
	Notification_Status    string    `json:"notificationStatus"`
	Target_Announcement_ID *int      `json:"targetAnnouncementId"`
	Target_Event_ID        *int      `json:"targetEventId"`
	Target_Family_ID       *int      `json:"targetFamilyId"`
	Datetime_Create        time.Time `json:"datetimeCreate" goqu:"skipinsert"`
	Datetime_Update        time.Time `json:"datetimeUpdate" goqu:"skipinsert"`
	Created_By             int       `json:"createdBy"`
	Updated_By             int       `json:"updatedBy"`
}

type BroadcastRequest struct {
	Tag_IDs   []int             `json:"tagIds" binding:"required,min=1"`
	Match_All bool              `json:"matchAll"`
	Title     string            `json:"title" binding:"required,max=100"`
	Body      string            `json:"body" binding:"required,max=500"`
	Data      map[string]string `json:"data,omitempty"`
}
