package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var userListColumns = []interface{}{
	"user_profile_id",
	"email",
	"first_name",
	"last_name",
	"role",
	"approved_by",
	"approved_at",
	"created_by",
	"datetime_create",
	"updated_by",
	"datetime_update",
	"deleted",
}

// GetPendingUsers lists accounts waiting for approval, oldest first.
func GetPendingUsers(c *gin.Context) {
	users := []models.UserProfile{}
	err := initializers.DB.From("user_profile").
		Select(userListColumns...).
		Where(
			goqu.C("role").Eq(models.RolePending),
			goqu.C("deleted").IsFalse(),
		).
		Order(goqu.C("datetime_create").Asc(), goqu.C("user_profile_id").Asc()).
		ScanStructsContext(c.Request.Context(), &users)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateUserRole approves or re-ranks an account. Roles only move between
// approved values, so an approved account never returns to pending.
func UpdateUserRole(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	userID, ok := parseIDParam(c, "user_profile_id")
	if !ok {
		return
	}

	var req models.RoleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if userID == currentUser.User_Profile_ID {
		respondError(c, apperr.NewValidationError("userProfileId", "you cannot change your own role"))
		return
	}

	var user models.UserProfile
	found, err := initializers.DB.From("user_profile").
		Select(userListColumns...).
		Where(
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("deleted").IsFalse(),
		).
		ScanStructContext(c.Request.Context(), &user)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.Role == req.Role {
		c.JSON(http.StatusOK, gin.H{"message": "Role unchanged", "user": user})
		return
	}

	now := time.Now()
	record := goqu.Record{
		"role":            req.Role,
		"updated_by":      currentUser.User_Profile_ID,
		"datetime_update": now,
	}
	approving := user.Role == models.RolePending
	if approving {
		record["approved_by"] = currentUser.User_Profile_ID
		record["approved_at"] = now
		user.Approved_By = &currentUser.User_Profile_ID
		user.Approved_At = &now
	}

	_, err = initializers.DB.Update("user_profile").
		Set(record).
		Where(goqu.C("user_profile_id").Eq(userID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	user.Role = req.Role

	if approving {
		approved := user
		runAsync(func() {
			services.NotifyUserOfApproval(context.Background(), approved, req.Role, currentUser.User_Profile_ID)
		})
	}

	log.Printf("User %d set role of user %d to %s", currentUser.User_Profile_ID, userID, req.Role)

	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully", "user": user})
}

type adminStats struct {
	Pending_Users           int64 `json:"pendingUsers"`
	Approved_Users          int64 `json:"approvedUsers"`
	People                  int64 `json:"people"`
	Families                int64 `json:"families"`
	Upcoming_Events         int64 `json:"upcomingEvents"`
	Published_Announcements int64 `json:"publishedAnnouncements"`
	Open_Prayer_Requests    int64 `json:"openPrayerRequests"`
}

// GetAdminStats counts the main tables concurrently.
func GetAdminStats(c *gin.Context) {
	var stats adminStats
	now := time.Now()

	counts := []struct {
		target *int64
		query  *goqu.SelectDataset
	}{
		{&stats.Pending_Users, initializers.DB.From("user_profile").Where(goqu.C("role").Eq(models.RolePending), goqu.C("deleted").IsFalse())},
		{&stats.Approved_Users, initializers.DB.From("user_profile").Where(goqu.C("role").Neq(models.RolePending), goqu.C("deleted").IsFalse())},
		{&stats.People, initializers.DB.From("person")},
		{&stats.Families, initializers.DB.From("family")},
		{&stats.Upcoming_Events, initializers.DB.From("event").Where(goqu.C("end_at").Gte(now))},
		{&stats.Published_Announcements, initializers.DB.From("announcement").Where(liveAnnouncementFilter(now))},
		{&stats.Open_Prayer_Requests, initializers.DB.From("prayer_request").Where(goqu.C("status").Eq(models.PrayerStatusOpen))},
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	for _, count := range counts {
		g.Go(func() error {
			n, err := count.query.CountContext(ctx)
			if err != nil {
				return err
			}
			*count.target = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// BroadcastToTags pushes a message to the accounts of people holding the
// given tags (any of them, or all with matchAll).
func BroadcastToTags(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pushService := services.GetPushNotificationService()
	if pushService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notification service not available"})
		return
	}

	people, err := services.FindPeopleByTagIds(c.Request.Context(), req.Tag_IDs, req.Match_All)
	if err != nil {
		respondError(c, err)
		return
	}

	userIDs, err := services.UserIDsForPeople(c.Request.Context(), people)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(userIDs) > 0 {
		payload := services.NotificationPayload{
			Title: req.Title,
			Body:  req.Body,
			Data:  req.Data,
		}
		if err := pushService.SendNotificationToUsers(c.Request.Context(), userIDs, payload); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send push notifications", "details": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Broadcast sent",
		"recipients": len(userIDs),
	})
}
