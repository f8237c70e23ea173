package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// loadVisibleEvents returns the events the viewer may see, soonest first,
// with their audience tags and the viewer's RSVP. limit <= 0 means no limit.
func loadVisibleEvents(ctx context.Context, viewer services.Viewer, includePast bool, limit int) ([]models.EventView, error) {
	query := initializers.DB.From("event").Select("*")
	if !includePast {
		query = query.Where(goqu.C("end_at").Gte(time.Now()))
	}

	var events []models.Event
	err := query.
		Order(goqu.C("start_at").Asc(), goqu.C("event_id").Asc()).
		ScanStructsContext(ctx, &events)
	if err != nil {
		return nil, services.ClassifyDBError(err)
	}

	ids := make([]int, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.Event_ID)
	}

	tagsByEvent, err := services.GetContentTagsBatch(ctx, ids, models.ContentTypeEvent)
	if err != nil {
		return nil, err
	}

	views := []models.EventView{}
	for _, e := range events {
		tags := tagsByEvent[e.Event_ID]
		if !services.IsVisible(viewer, e.Is_Public, e.Roles_Allowed, services.TagIDs(tags)) {
			continue
		}
		views = append(views, models.EventView{Event: e, Tags: tags})
		if limit > 0 && len(views) == limit {
			break
		}
	}

	if viewer.Person_ID == nil || len(views) == 0 {
		return views, nil
	}

	visibleIDs := make([]int, 0, len(views))
	for _, v := range views {
		visibleIDs = append(visibleIDs, v.Event_ID)
	}
	statuses, err := loadRsvpStatuses(ctx, *viewer.Person_ID, visibleIDs)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if status, ok := statuses[views[i].Event_ID]; ok {
			s := status
			views[i].My_Status = &s
		}
	}

	return views, nil
}

func loadRsvpStatuses(ctx context.Context, personID int, eventIDs []int) (map[int]string, error) {
	var rows []models.EventRsvp
	err := initializers.DB.From("event_rsvp").
		Select("event_id", "person_id", "status").
		Where(
			goqu.C("person_id").Eq(personID),
			goqu.C("event_id").In(eventIDs),
		).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, services.ClassifyDBError(err)
	}

	statuses := make(map[int]string, len(rows))
	for _, r := range rows {
		statuses[r.Event_ID] = r.Status
	}
	return statuses, nil
}

func loadEvent(ctx context.Context, eventID int) (models.Event, error) {
	var event models.Event
	found, err := initializers.DB.From("event").
		Select("*").
		Where(goqu.C("event_id").Eq(eventID)).
		ScanStructContext(ctx, &event)
	if err != nil {
		return event, services.ClassifyDBError(err)
	}
	if !found {
		return event, apperr.ErrNotFound
	}
	return event, nil
}

// loadVisibleEvent answers 404 for events the viewer may not see.
func loadVisibleEvent(ctx context.Context, viewer services.Viewer, eventID int) (models.EventView, error) {
	event, err := loadEvent(ctx, eventID)
	if err != nil {
		return models.EventView{}, err
	}

	tags, err := services.GetContentTags(ctx, eventID, models.ContentTypeEvent)
	if err != nil {
		return models.EventView{}, err
	}

	if !services.IsVisible(viewer, event.Is_Public, event.Roles_Allowed, services.TagIDs(tags)) {
		return models.EventView{}, apperr.ErrNotFound
	}
	return models.EventView{Event: event, Tags: tags}, nil
}

// GetEvents lists upcoming events visible to the caller. ?includePast=true
// adds finished ones.
func GetEvents(c *gin.Context) {
	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	events, err := loadVisibleEvents(c.Request.Context(), viewer, c.Query("includePast") == "true", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func GetEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := loadVisibleEvent(c.Request.Context(), viewer, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	if viewer.Person_ID != nil {
		statuses, err := loadRsvpStatuses(c.Request.Context(), *viewer.Person_ID, []int{eventID})
		if err != nil {
			respondError(c, err)
			return
		}
		if status, ok := statuses[eventID]; ok {
			view.My_Status = &status
		}
	}

	c.JSON(http.StatusOK, view)
}

// GetEventTags returns the audience tags of an event the caller can see.
func GetEventTags(c *gin.Context) {
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := loadVisibleEvent(c.Request.Context(), viewer, eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view.Tags)
}

func validateEventTimes(start time.Time, end time.Time) error {
	if end.Before(start) {
		return apperr.NewValidationError("endAt", "must not be before startAt")
	}
	return nil
}

func CreateEvent(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.EventCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateEventTimes(req.Start_At, req.End_At); err != nil {
		respondError(c, err)
		return
	}
	if err := services.ValidateAudience(req.Is_Public, req.Roles_Allowed, req.Tag_IDs); err != nil {
		respondError(c, err)
		return
	}

	event := models.Event{
		Title:         req.Title,
		Description:   req.Description,
		Start_At:      req.Start_At,
		End_At:        req.End_At,
		Is_All_Day:    req.Is_All_Day,
		Location:      req.Location,
		Image_Path:    req.Image_Path,
		Is_Public:     req.Is_Public,
		Roles_Allowed: pq.StringArray(append([]string{}, req.Roles_Allowed...)),
		Created_By:    currentUser.User_Profile_ID,
		Updated_By:    currentUser.User_Profile_ID,
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		var eventID int
		if _, err := tx.Insert("event").
			Rows(event).
			Returning("event_id").
			Executor().
			ScanValContext(c.Request.Context(), &eventID); err != nil {
			return err
		}
		event.Event_ID = eventID
		return services.InsertContentTags(c.Request.Context(), tx, eventID, models.ContentTypeEvent, req.Tag_IDs)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func UpdateEvent(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	var req models.EventUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := loadEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	record := goqu.Record{}
	if req.Title != nil {
		event.Title = *req.Title
		record["title"] = *req.Title
	}
	if req.Description != nil {
		record["description"] = *req.Description
	}
	if req.Start_At != nil {
		event.Start_At = *req.Start_At
		record["start_at"] = *req.Start_At
	}
	if req.End_At != nil {
		event.End_At = *req.End_At
		record["end_at"] = *req.End_At
	}
	if req.Is_All_Day != nil {
		record["is_all_day"] = *req.Is_All_Day
	}
	if req.Location != nil {
		record["location"] = *req.Location
	}
	if req.Image_Path != nil {
		record["image_path"] = *req.Image_Path
	}
	if req.Is_Public != nil {
		event.Is_Public = *req.Is_Public
		record["is_public"] = *req.Is_Public
	}
	if req.Roles_Allowed != nil {
		event.Roles_Allowed = pq.StringArray(append([]string{}, (*req.Roles_Allowed)...))
		record["roles_allowed"] = event.Roles_Allowed
	}

	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := validateEventTimes(event.Start_At, event.End_At); err != nil {
		respondError(c, err)
		return
	}

	if req.Is_Public != nil || req.Roles_Allowed != nil {
		tags, err := services.GetContentTags(c.Request.Context(), eventID, models.ContentTypeEvent)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := services.ValidateAudience(event.Is_Public, event.Roles_Allowed, services.TagIDs(tags)); err != nil {
			respondError(c, err)
			return
		}
	}

	record["updated_by"] = currentUser.User_Profile_ID
	record["datetime_update"] = time.Now()

	_, err = initializers.DB.Update("event").
		Set(record).
		Where(goqu.C("event_id").Eq(eventID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	runAsync(func() {
		services.NotifyAttendeesOfEventChange(context.Background(), event, currentUser.User_Profile_ID)
	})

	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully"})
}

func DeleteEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		for _, table := range []string{"event_tag", "event_rsvp"} {
			if _, err := tx.Delete(table).
				Where(goqu.C("event_id").Eq(eventID)).
				Executor().ExecContext(c.Request.Context()); err != nil {
				return err
			}
		}
		result, err := tx.Delete("event").
			Where(goqu.C("event_id").Eq(eventID)).
			Executor().ExecContext(c.Request.Context())
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

// SetEventTags replaces the audience tags of an event.
func SetEventTags(c *gin.Context) {
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	var req models.ContentTagsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := loadEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := services.ValidateAudience(event.Is_Public, event.Roles_Allowed, req.Tag_IDs); err != nil {
		respondError(c, err)
		return
	}

	if err := services.ReplaceContentTags(c.Request.Context(), eventID, models.ContentTypeEvent, req.Tag_IDs); err != nil {
		respondError(c, err)
		return
	}

	tags, err := services.GetContentTags(c.Request.Context(), eventID, models.ContentTypeEvent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

// RsvpEvent records the caller's response. Repeating the same status is a
// no-op; a different status replaces the previous one.
func RsvpEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	var req models.RsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}
	personID, ok := requirePerson(c, viewer)
	if !ok {
		return
	}

	if _, err := loadVisibleEvent(c.Request.Context(), viewer, eventID); err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	_, err = initializers.DB.Insert("event_rsvp").
		Rows(models.EventRsvp{
			Event_ID:        eventID,
			Person_ID:       personID,
			Status:          req.Status,
			Datetime_Update: now,
		}).
		OnConflict(goqu.DoUpdate("event_id, person_id", goqu.Record{
			"status":          req.Status,
			"datetime_update": now,
		})).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"eventId": eventID, "status": req.Status})
}

type rsvpCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// GetEventRsvps returns counts per status and the caller's own status.
func GetEventRsvps(c *gin.Context) {
	eventID, ok := parseIDParam(c, "event_id")
	if !ok {
		return
	}

	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := loadVisibleEvent(c.Request.Context(), viewer, eventID); err != nil {
		respondError(c, err)
		return
	}

	var counts []rsvpCount
	err = initializers.DB.From("event_rsvp").
		Select("status", goqu.COUNT("*").As("count")).
		Where(goqu.C("event_id").Eq(eventID)).
		GroupBy("status").
		ScanStructsContext(c.Request.Context(), &counts)
	if err != nil {
		respondError(c, err)
		return
	}

	summary := models.RsvpSummary{Event_ID: eventID}
	for _, row := range counts {
		switch row.Status {
		case models.RsvpGoing:
			summary.Going = row.Count
		case models.RsvpMaybe:
			summary.Maybe = row.Count
		case models.RsvpDeclined:
			summary.Declined = row.Count
		}
	}

	if viewer.Person_ID != nil {
		statuses, err := loadRsvpStatuses(c.Request.Context(), *viewer.Person_ID, []int{eventID})
		if err != nil {
			respondError(c, err)
			return
		}
		if status, ok := statuses[eventID]; ok {
			summary.My_Status = &status
		}
	}

	c.JSON(http.StatusOK, summary)
}
