package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/policy"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
)

type prayerRequestRow struct {
	models.PrayerRequest
	Owner_First_Name *string `db:"owner_first_name"`
	Owner_Last_Name  *string `db:"owner_last_name"`
	Owner_User_ID    *int    `db:"owner_user_id"`
}

var prayerRequestColumns = []interface{}{
	"prayer_request.prayer_request_id",
	"prayer_request.person_id",
	"prayer_request.subject",
	"prayer_request.details",
	"prayer_request.status",
	"prayer_request.is_anonymous",
	"prayer_request.prayer_count",
	"prayer_request.created_by",
	"prayer_request.datetime_create",
	"prayer_request.updated_by",
	"prayer_request.datetime_update",
	goqu.I("person.first_name").As("owner_first_name"),
	goqu.I("person.last_name").As("owner_last_name"),
	goqu.I("person.user_profile_id").As("owner_user_id"),
}

func prayedOnToday() string {
	return time.Now().Format("2006-01-02")
}

// toPrayerRequestView hides the owner of an anonymous request from everyone
// but the owner and moderators.
func toPrayerRequestView(row prayerRequestRow, viewerUserID int, canModerate bool, prayedToday bool) models.PrayerRequestView {
	view := models.PrayerRequestView{
		Prayer_Request_ID: row.Prayer_Request_ID,
		Subject:           row.Subject,
		Details:           row.Details,
		Status:            row.Status,
		Is_Anonymous:      row.Is_Anonymous,
		Prayer_Count:      row.Prayer_Count,
		Prayed_Today:      prayedToday,
		Datetime_Create:   row.Datetime_Create,
	}

	isOwner := row.Owner_User_ID != nil && *row.Owner_User_ID == viewerUserID
	if row.Is_Anonymous && !isOwner && !canModerate {
		return view
	}

	personID := row.Person_ID
	view.Person_ID = &personID
	view.Owner_First_Name = row.Owner_First_Name
	view.Owner_Last_Name = row.Owner_Last_Name
	return view
}

func loadPrayerRequestRow(ctx context.Context, prayerRequestID int) (prayerRequestRow, error) {
	var row prayerRequestRow
	found, err := initializers.DB.From("prayer_request").
		Select(prayerRequestColumns...).
		LeftJoin(goqu.T("person"), goqu.On(goqu.Ex{"person.person_id": goqu.I("prayer_request.person_id")})).
		Where(goqu.I("prayer_request.prayer_request_id").Eq(prayerRequestID)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return row, services.ClassifyDBError(err)
	}
	if !found {
		return row, apperr.ErrNotFound
	}
	return row, nil
}

// GetPrayerRequests lists prayer requests, open ones by default.
// ?status=answered|archived|all widens or changes the filter.
func GetPrayerRequests(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	status := c.DefaultQuery("status", models.PrayerStatusOpen)
	query := initializers.DB.From("prayer_request").
		Select(prayerRequestColumns...).
		LeftJoin(goqu.T("person"), goqu.On(goqu.Ex{"person.person_id": goqu.I("prayer_request.person_id")}))

	switch status {
	case "all":
	case models.PrayerStatusOpen, models.PrayerStatusAnswered, models.PrayerStatusArchived:
		query = query.Where(goqu.I("prayer_request.status").Eq(status))
	default:
		respondError(c, apperr.NewValidationError("status", "must be open, answered, archived or all"))
		return
	}

	var rows []prayerRequestRow
	err := query.
		Order(goqu.I("prayer_request.datetime_create").Desc(), goqu.I("prayer_request.prayer_request_id").Desc()).
		ScanStructsContext(c.Request.Context(), &rows)
	if err != nil {
		respondError(c, err)
		return
	}

	prayed := map[int]struct{}{}
	if len(rows) > 0 {
		ids := make([]int, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.Prayer_Request_ID)
		}

		var prayedIDs []int
		err = initializers.DB.From("prayer_request_prayed").
			Select("prayer_request_id").
			Where(
				goqu.C("user_profile_id").Eq(currentUser.User_Profile_ID),
				goqu.C("prayed_on").Eq(prayedOnToday()),
				goqu.C("prayer_request_id").In(ids),
			).
			ScanValsContext(c.Request.Context(), &prayedIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		for _, id := range prayedIDs {
			prayed[id] = struct{}{}
		}
	}

	canModerate := policy.CanPerform(currentUser.Role, policy.ActionModeratePrayers)
	views := make([]models.PrayerRequestView, 0, len(rows))
	for _, r := range rows {
		_, prayedToday := prayed[r.Prayer_Request_ID]
		views = append(views, toPrayerRequestView(r, currentUser.User_Profile_ID, canModerate, prayedToday))
	}

	c.JSON(http.StatusOK, views)
}

func CreatePrayerRequest(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.PrayerRequestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, err := loadPersonForUser(c.Request.Context(), currentUser.User_Profile_ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if person == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Complete your profile first"})
		return
	}

	prayerRequest := models.PrayerRequest{
		Person_ID:    person.Person_ID,
		Subject:      req.Subject,
		Details:      req.Details,
		Status:       models.PrayerStatusOpen,
		Is_Anonymous: req.Is_Anonymous,
		Created_By:   currentUser.User_Profile_ID,
		Updated_By:   currentUser.User_Profile_ID,
	}

	var prayerRequestID int
	_, err = initializers.DB.Insert("prayer_request").
		Rows(prayerRequest).
		Returning("prayer_request_id").
		Executor().
		ScanValContext(c.Request.Context(), &prayerRequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	prayerRequest.Prayer_Request_ID = prayerRequestID

	c.JSON(http.StatusCreated, prayerRequest)
}

// authorizePrayerRequestChange allows the owner and moderators. It writes
// the response on failure.
func authorizePrayerRequestChange(c *gin.Context) (int, bool) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	prayerRequestID, ok := parseIDParam(c, "prayer_request_id")
	if !ok {
		return 0, false
	}

	row, err := loadPrayerRequestRow(c.Request.Context(), prayerRequestID)
	if err != nil {
		respondError(c, err)
		return 0, false
	}

	isOwner := row.Owner_User_ID != nil && *row.Owner_User_ID == currentUser.User_Profile_ID
	if !isOwner && !policy.CanPerform(currentUser.Role, policy.ActionModeratePrayers) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to change this prayer request"})
		return 0, false
	}
	return prayerRequestID, true
}

func UpdatePrayerRequest(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.PrayerRequestUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prayerRequestID, ok := authorizePrayerRequestChange(c)
	if !ok {
		return
	}

	record := goqu.Record{}
	if req.Subject != nil {
		record["subject"] = *req.Subject
	}
	if req.Details != nil {
		record["details"] = *req.Details
	}
	if req.Status != nil {
		record["status"] = *req.Status
	}
	if req.Is_Anonymous != nil {
		record["is_anonymous"] = *req.Is_Anonymous
	}

	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	record["updated_by"] = currentUser.User_Profile_ID
	record["datetime_update"] = time.Now()

	_, err := initializers.DB.Update("prayer_request").
		Set(record).
		Where(goqu.C("prayer_request_id").Eq(prayerRequestID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Prayer request updated successfully"})
}

func DeletePrayerRequest(c *gin.Context) {
	prayerRequestID, ok := authorizePrayerRequestChange(c)
	if !ok {
		return
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		if _, err := tx.Delete("prayer_request_prayed").
			Where(goqu.C("prayer_request_id").Eq(prayerRequestID)).
			Executor().ExecContext(c.Request.Context()); err != nil {
			return err
		}
		_, err := tx.Delete("prayer_request").
			Where(goqu.C("prayer_request_id").Eq(prayerRequestID)).
			Executor().ExecContext(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Prayer request deleted successfully"})
}

// PrayForRequest records that the caller prayed today. Only the first mark
// of the day increments the count.
func PrayForRequest(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	prayerRequestID, ok := parseIDParam(c, "prayer_request_id")
	if !ok {
		return
	}

	recorded := false
	var prayerCount int
	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		result, err := tx.Insert("prayer_request_prayed").
			Rows(goqu.Record{
				"prayer_request_id": prayerRequestID,
				"user_profile_id":   currentUser.User_Profile_ID,
				"prayed_on":         prayedOnToday(),
			}).
			OnConflict(goqu.DoNothing()).
			Executor().ExecContext(c.Request.Context())
		if err != nil {
			return err
		}

		if rows, _ := result.RowsAffected(); rows > 0 {
			recorded = true
			found, err := tx.Update("prayer_request").
				Set(goqu.Record{"prayer_count": goqu.L("prayer_count + 1")}).
				Where(goqu.C("prayer_request_id").Eq(prayerRequestID)).
				Returning("prayer_count").
				Executor().ScanValContext(c.Request.Context(), &prayerCount)
			if err != nil {
				return err
			}
			if !found {
				return apperr.ErrNotFound
			}
			return nil
		}

		found, err := tx.From("prayer_request").
			Select("prayer_count").
			Where(goqu.C("prayer_request_id").Eq(prayerRequestID)).
			ScanValContext(c.Request.Context(), &prayerCount)
		if err != nil {
			return err
		}
		if !found {
			return apperr.ErrNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prayerRequestId": prayerRequestID,
		"prayerCount":     prayerCount,
		"prayedToday":     true,
		"recorded":        recorded,
	})
}
