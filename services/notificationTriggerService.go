package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/doug-martin/goqu/v9"
)

// shouldSendDebounced reports whether a notification of this type for this
// user and entity is outside the debounce window, claiming the window when
// it is. Old rows are cleaned up lazily.
func shouldSendDebounced(ctx context.Context, notifType string, targetUserID int, entityID int, windowMinutes int) bool {
	_, cleanupErr := initializers.DB.Delete("notification_debounce").
		Where(goqu.L("last_triggered_at < NOW() - INTERVAL '24 hours'")).
		Executor().ExecContext(ctx)
	if cleanupErr != nil {
		log.Printf("Error cleaning up old debounce records: %v", cleanupErr)
	}

	query := `
		INSERT INTO notification_debounce (notification_type, target_user_id, entity_id, last_triggered_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (notification_type, target_user_id, entity_id)
		DO UPDATE SET last_triggered_at = NOW()
		WHERE notification_debounce.last_triggered_at < NOW() - ($4 || ' minutes')::INTERVAL
		RETURNING debounce_id
	`

	var debounceID int
	err := initializers.DB.QueryRowContext(ctx, query, notifType, targetUserID, entityID, windowMinutes).Scan(&debounceID)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		log.Printf("Error in debounce check: %v", err)
		return true
	}
	return true
}

// AudienceUserIDs resolves the accounts that should hear about content with
// the given audience settings: everyone approved for public content, the
// listed roles, and the accounts of people holding any audience tag.
func AudienceUserIDs(ctx context.Context, isPublic bool, rolesAllowed []string, tagIDs []int) ([]int, error) {
	set := make(map[int]struct{})

	if isPublic || len(rolesAllowed) > 0 {
		query := initializers.DB.From("user_profile").
			Select("user_profile_id").
			Where(goqu.C("deleted").IsFalse())
		if isPublic {
			query = query.Where(goqu.C("role").Neq(models.RolePending))
		} else {
			query = query.Where(goqu.C("role").In(rolesAllowed))
		}

		var ids []int
		if err := query.ScanValsContext(ctx, &ids); err != nil {
			return nil, ClassifyDBError(err)
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}

	if len(tagIDs) > 0 {
		people, err := FindPeopleByTagIds(ctx, tagIDs, false)
		if err != nil {
			return nil, err
		}
		ids, err := UserIDsForPeople(ctx, people)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}

	userIDs := make([]int, 0, len(set))
	for id := range set {
		userIDs = append(userIDs, id)
	}
	sort.Ints(userIDs)
	return userIDs, nil
}

// UserIDsForPeople maps person ids to the accounts linked to them. People
// without an account are skipped.
func UserIDsForPeople(ctx context.Context, personIDs []int) ([]int, error) {
	if len(personIDs) == 0 {
		return []int{}, nil
	}
	ids := []int{}
	err := initializers.DB.From("person").
		Select("user_profile_id").
		Where(
			goqu.C("person_id").In(personIDs),
			goqu.C("user_profile_id").IsNotNull(),
		).
		Order(goqu.C("user_profile_id").Asc()).
		ScanValsContext(ctx, &ids)
	if err != nil {
		return nil, ClassifyDBError(err)
	}
	return ids, nil
}

func insertInboxRows(ctx context.Context, rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	records := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		records = append(records, r)
	}
	_, err := initializers.DB.Insert("notification").Rows(records...).Executor().ExecContext(ctx)
	return err
}

func excludeUser(userIDs []int, userID int) []int {
	out := make([]int, 0, len(userIDs))
	for _, id := range userIDs {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

// NotifyAudienceOfAnnouncement writes inbox rows and pushes to everyone in
// the announcement's audience except its author.
func NotifyAudienceOfAnnouncement(ctx context.Context, announcement models.Announcement, tagIDs []int, actorID int) {
	userIDs, err := AudienceUserIDs(ctx, announcement.Is_Public, announcement.Roles_Allowed, tagIDs)
	if err != nil {
		log.Printf("Failed to resolve audience for announcement %d: %v", announcement.Announcement_ID, err)
		return
	}
	userIDs = excludeUser(userIDs, actorID)
	if len(userIDs) == 0 {
		return
	}

	announcementID := announcement.Announcement_ID
	rows := make([]models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, models.Notification{
			User_Profile_ID:        userID,
			Notification_Type:      models.NotificationTypeAnnouncementPublished,
			Notification_Message:   announcement.Title,
			Notification_Status:    models.NotificationStatusUnread,
			Target_Announcement_ID: &announcementID,
			Created_By:             actorID,
			Updated_By:             actorID,
		})
	}
	if err := insertInboxRows(ctx, rows); err != nil {
		log.Printf("Failed to create ANNOUNCEMENT_PUBLISHED notifications: %v", err)
	}

	push := GetPushNotificationService()
	if push == nil {
		log.Println("Push notification service not available")
		return
	}
	payload := NotificationPayload{
		Title: "New announcement",
		Body:  announcement.Title,
		Data: map[string]string{
			"type":           "announcement_published",
			"announcementId": strconv.Itoa(announcementID),
		},
	}
	if err := push.SendNotificationToUsers(ctx, userIDs, payload); err != nil {
		log.Printf("Failed to send ANNOUNCEMENT_PUBLISHED push notifications: %v", err)
	}
}

// NotifyAttendeesOfEventChange tells people who RSVP'd going or maybe that
// an event changed. Debounced per attendee for 15 minutes so a burst of
// edits produces one notification.
func NotifyAttendeesOfEventChange(ctx context.Context, event models.Event, actorID int) {
	var userIDs []int
	err := initializers.DB.From("event_rsvp").
		Select("person.user_profile_id").
		InnerJoin(goqu.T("person"), goqu.On(goqu.Ex{"person.person_id": goqu.I("event_rsvp.person_id")})).
		Where(
			goqu.I("event_rsvp.event_id").Eq(event.Event_ID),
			goqu.I("event_rsvp.status").In(models.RsvpGoing, models.RsvpMaybe),
			goqu.I("person.user_profile_id").IsNotNull(),
		).
		ScanValsContext(ctx, &userIDs)
	if err != nil {
		log.Printf("Failed to load attendees for event %d: %v", event.Event_ID, err)
		return
	}

	var recipients []int
	for _, userID := range excludeUser(userIDs, actorID) {
		if shouldSendDebounced(ctx, models.NotificationTypeEventUpdated, userID, event.Event_ID, 15) {
			recipients = append(recipients, userID)
		}
	}
	if len(recipients) == 0 {
		return
	}

	eventID := event.Event_ID
	message := fmt.Sprintf("%s was updated", event.Title)
	rows := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		rows = append(rows, models.Notification{
			User_Profile_ID:      userID,
			Notification_Type:    models.NotificationTypeEventUpdated,
			Notification_Message: message,
			Notification_Status:  models.NotificationStatusUnread,
			Target_Event_ID:      &eventID,
			Created_By:           actorID,
			Updated_By:           actorID,
		})
	}
	if err := insertInboxRows(ctx, rows); err != nil {
		log.Printf("Failed to create EVENT_UPDATED notifications: %v", err)
	}

	if push := GetPushNotificationService(); push != nil {
		payload := NotificationPayload{
			Title: event.Title,
			Body:  message,
			Data:  map[string]string{"type": "event_updated", "eventId": strconv.Itoa(eventID)},
		}
		if err := push.SendNotificationToUsers(ctx, recipients, payload); err != nil {
			log.Printf("Failed to send EVENT_UPDATED push notifications: %v", err)
		}
	}
}

type familyHead struct {
	User_Profile_ID int    `db:"user_profile_id"`
	Email           string `db:"email"`
	First_Name      string `db:"first_name"`
}

// NotifyFamilyOfNewMember tells the heads of a family with accounts that
// someone joined with the family token.
func NotifyFamilyOfNewMember(ctx context.Context, family models.Family, member models.Person, actorID int) {
	var heads []familyHead
	err := initializers.DB.From("person").
		Select("user_profile.user_profile_id", "user_profile.email", "user_profile.first_name").
		InnerJoin(goqu.T("user_profile"), goqu.On(goqu.Ex{"user_profile.user_profile_id": goqu.I("person.user_profile_id")})).
		Where(
			goqu.I("person.family_id").Eq(family.Family_ID),
			goqu.I("person.is_head_of_family").IsTrue(),
			goqu.I("person.person_id").Neq(member.Person_ID),
		).
		ScanStructsContext(ctx, &heads)
	if err != nil {
		log.Printf("Failed to load heads of family %d: %v", family.Family_ID, err)
		return
	}
	if len(heads) == 0 {
		return
	}

	familyID := family.Family_ID
	memberName := member.First_Name + " " + member.Last_Name
	message := fmt.Sprintf("%s joined %s", memberName, family.Family_Name)

	rows := make([]models.Notification, 0, len(heads))
	userIDs := make([]int, 0, len(heads))
	for _, head := range heads {
		userIDs = append(userIDs, head.User_Profile_ID)
		rows = append(rows, models.Notification{
			User_Profile_ID:      head.User_Profile_ID,
			Notification_Type:    models.NotificationTypeFamilyMemberJoined,
			Notification_Message: message,
			Notification_Status:  models.NotificationStatusUnread,
			Target_Family_ID:     &familyID,
			Created_By:           actorID,
			Updated_By:           actorID,
		})
	}
	if err := insertInboxRows(ctx, rows); err != nil {
		log.Printf("Failed to create FAMILY_MEMBER_JOINED notifications: %v", err)
	}

	if push := GetPushNotificationService(); push != nil {
		payload := NotificationPayload{
			Title: family.Family_Name,
			Body:  message,
			Data:  map[string]string{"type": "family_member_joined", "familyId": strconv.Itoa(familyID)},
		}
		if err := push.SendNotificationToUsers(ctx, userIDs, payload); err != nil {
			log.Printf("Failed to send FAMILY_MEMBER_JOINED push notifications: %v", err)
		}
	}

	if mailer := GetEmailService(); mailer != nil {
		for _, head := range heads {
			if err := mailer.SendFamilyMemberJoinedEmail(head.Email, head.First_Name, memberName, family.Family_Name); err != nil {
				log.Printf("Failed to email head of family %d: %v", head.User_Profile_ID, err)
			}
		}
	}
}

// NotifyUserOfApproval tells a newly approved account holder they can use
// the app.
func NotifyUserOfApproval(ctx context.Context, user models.UserProfile, role string, actorID int) {
	message := fmt.Sprintf("Your account was approved as %s", role)

	err := insertInboxRows(ctx, []models.Notification{{
		User_Profile_ID:      user.User_Profile_ID,
		Notification_Type:    models.NotificationTypeAccountApproved,
		Notification_Message: message,
		Notification_Status:  models.NotificationStatusUnread,
		Created_By:           actorID,
		Updated_By:           actorID,
	}})
	if err != nil {
		log.Printf("Failed to create ACCOUNT_APPROVED notification for user %d: %v", user.User_Profile_ID, err)
	}

	if push := GetPushNotificationService(); push != nil {
		payload := NotificationPayload{
			Title: "Welcome",
			Body:  message,
			Data:  map[string]string{"type": "account_approved", "role": role},
		}
		if err := push.SendNotificationToUser(ctx, user.User_Profile_ID, payload); err != nil {
			log.Printf("Failed to send ACCOUNT_APPROVED push notification: %v", err)
		}
	}

	if mailer := GetEmailService(); mailer != nil {
		if err := mailer.SendAccountApprovedEmail(user.Email, user.First_Name, role); err != nil {
			log.Printf("Failed to email approval to user %d: %v", user.User_Profile_ID, err)
		}
	}
}
