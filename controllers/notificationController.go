package controllers

import (
	"net/http"
	"time"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

var notificationColumns = []interface{}{
	"notification_id",
	"user_profile_id",
	"notification_type",
	"notification_message",
	"notification_status",
	"target_announcement_id",
	"target_event_id",
	"target_family_id",
	"datetime_create",
	"datetime_update",
	"created_by",
	"updated_by",
}

// inboxOwner resolves :user_profile_id and checks the caller may act on
// that inbox.
func inboxOwner(c *gin.Context, verb string) (int, bool) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)
	isAdmin := c.MustGet("admin").(bool)

	userID, ok := parseIDParam(c, "user_profile_id")
	if !ok {
		return 0, false
	}

	if userID != currentUser.User_Profile_ID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to " + verb + " this user's notifications"})
		return 0, false
	}
	return userID, true
}

func GetUserNotifications(c *gin.Context) {
	userID, ok := inboxOwner(c, "view")
	if !ok {
		return
	}

	notifications := []models.Notification{}
	err := initializers.DB.From("notification").
		Select(notificationColumns...).
		Where(goqu.C("user_profile_id").Eq(userID)).
		Order(goqu.C("datetime_create").Desc(), goqu.C("notification_id").Desc()).
		ScanStructsContext(c.Request.Context(), &notifications)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func GetUnreadNotificationCount(c *gin.Context) {
	userID, ok := inboxOwner(c, "view")
	if !ok {
		return
	}

	count, err := initializers.DB.From("notification").
		Where(
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("notification_status").Eq(models.NotificationStatusUnread),
		).
		CountContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func ToggleUserNotificationStatus(c *gin.Context) {
	userID, ok := inboxOwner(c, "modify")
	if !ok {
		return
	}

	notificationID, ok := parseIDParam(c, "notification_id")
	if !ok {
		return
	}

	var currentStatus string
	found, err := initializers.DB.From("notification").
		Select("notification_status").
		Where(
			goqu.C("notification_id").Eq(notificationID),
			goqu.C("user_profile_id").Eq(userID),
		).
		ScanValContext(c.Request.Context(), &currentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	newStatus := models.NotificationStatusRead
	if currentStatus == models.NotificationStatusRead {
		newStatus = models.NotificationStatusUnread
	}

	_, err = initializers.DB.Update("notification").
		Set(goqu.Record{
			"notification_status": newStatus,
			"datetime_update":     time.Now(),
		}).
		Where(goqu.C("notification_id").Eq(notificationID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as " + newStatus, "status": newStatus})
}

func DeleteUserNotification(c *gin.Context) {
	userID, ok := inboxOwner(c, "delete")
	if !ok {
		return
	}

	notificationID, ok := parseIDParam(c, "notification_id")
	if !ok {
		return
	}

	result, err := initializers.DB.Delete("notification").
		Where(
			goqu.C("notification_id").Eq(notificationID),
			goqu.C("user_profile_id").Eq(userID),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification", "details": err.Error()})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}

func MarkAllNotificationsAsRead(c *gin.Context) {
	userID, ok := inboxOwner(c, "modify")
	if !ok {
		return
	}

	result, err := initializers.DB.Update("notification").
		Set(goqu.Record{
			"notification_status": models.NotificationStatusRead,
			"datetime_update":     time.Now(),
		}).
		Where(
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("notification_status").Eq(models.NotificationStatusUnread),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications as read", "details": err.Error()})
		return
	}

	rowsAffected, _ := result.RowsAffected()

	c.JSON(http.StatusOK, gin.H{
		"message":      "All notifications marked as read",
		"updatedCount": rowsAffected,
	})
}
