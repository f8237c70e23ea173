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

// liveAnnouncementFilter keeps published, started and unexpired rows.
func liveAnnouncementFilter(now time.Time) goqu.Expression {
	return goqu.And(
		goqu.C("is_published").IsTrue(),
		goqu.Or(goqu.C("published_at").IsNull(), goqu.C("published_at").Lte(now)),
		goqu.Or(goqu.C("expires_at").IsNull(), goqu.C("expires_at").Gt(now)),
	)
}

// loadVisibleAnnouncements returns announcements the viewer may see, newest
// first, with their tags and the viewer's read flag. Drafts and expired
// rows are included only when includeDrafts is set.
func loadVisibleAnnouncements(ctx context.Context, viewer services.Viewer, includeDrafts bool, limit int) ([]models.AnnouncementView, error) {
	query := initializers.DB.From("announcement").Select("*")
	if !includeDrafts {
		query = query.Where(liveAnnouncementFilter(time.Now()))
	}

	var announcements []models.Announcement
	err := query.
		Order(goqu.C("published_at").Desc().NullsLast(), goqu.C("announcement_id").Desc()).
		ScanStructsContext(ctx, &announcements)
	if err != nil {
		return nil, services.ClassifyDBError(err)
	}

	ids := make([]int, 0, len(announcements))
	for _, a := range announcements {
		ids = append(ids, a.Announcement_ID)
	}

	tagsByAnnouncement, err := services.GetContentTagsBatch(ctx, ids, models.ContentTypeAnnouncement)
	if err != nil {
		return nil, err
	}

	views := []models.AnnouncementView{}
	for _, a := range announcements {
		tags := tagsByAnnouncement[a.Announcement_ID]
		if !services.IsVisible(viewer, a.Is_Public, a.Roles_Allowed, services.TagIDs(tags)) {
			continue
		}
		views = append(views, models.AnnouncementView{Announcement: a, Tags: tags})
		if limit > 0 && len(views) == limit {
			break
		}
	}

	if viewer.Person_ID == nil || len(views) == 0 {
		return views, nil
	}

	visibleIDs := make([]int, 0, len(views))
	for _, v := range views {
		visibleIDs = append(visibleIDs, v.Announcement_ID)
	}
	read, err := loadReadAnnouncements(ctx, *viewer.Person_ID, visibleIDs)
	if err != nil {
		return nil, err
	}
	for i := range views {
		_, views[i].Is_Read = read[views[i].Announcement_ID]
	}

	return views, nil
}

func loadReadAnnouncements(ctx context.Context, personID int, announcementIDs []int) (map[int]struct{}, error) {
	var ids []int
	err := initializers.DB.From("announcement_read").
		Select("announcement_id").
		Where(
			goqu.C("person_id").Eq(personID),
			goqu.C("announcement_id").In(announcementIDs),
		).
		ScanValsContext(ctx, &ids)
	if err != nil {
		return nil, services.ClassifyDBError(err)
	}

	read := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		read[id] = struct{}{}
	}
	return read, nil
}

func loadAnnouncement(ctx context.Context, announcementID int) (models.Announcement, error) {
	var announcement models.Announcement
	found, err := initializers.DB.From("announcement").
		Select("*").
		Where(goqu.C("announcement_id").Eq(announcementID)).
		ScanStructContext(ctx, &announcement)
	if err != nil {
		return announcement, services.ClassifyDBError(err)
	}
	if !found {
		return announcement, apperr.ErrNotFound
	}
	return announcement, nil
}

// loadVisibleAnnouncement answers 404 for announcements the viewer may not
// see, including drafts for viewers below leader.
func loadVisibleAnnouncement(c *gin.Context, viewer services.Viewer, announcementID int) (models.AnnouncementView, error) {
	ctx := c.Request.Context()

	announcement, err := loadAnnouncement(ctx, announcementID)
	if err != nil {
		return models.AnnouncementView{}, err
	}
	if !services.IsAnnouncementLive(announcement, time.Now()) && !canViewUnpublished(c) {
		return models.AnnouncementView{}, apperr.ErrNotFound
	}

	tags, err := services.GetContentTags(ctx, announcementID, models.ContentTypeAnnouncement)
	if err != nil {
		return models.AnnouncementView{}, err
	}
	if !services.IsVisible(viewer, announcement.Is_Public, announcement.Roles_Allowed, services.TagIDs(tags)) {
		return models.AnnouncementView{}, apperr.ErrNotFound
	}

	return models.AnnouncementView{Announcement: announcement, Tags: tags}, nil
}

// GetAnnouncements lists visible announcements. Leaders may pass
// ?includeDrafts=true.
func GetAnnouncements(c *gin.Context) {
	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	includeDrafts := c.Query("includeDrafts") == "true" && canViewUnpublished(c)

	announcements, err := loadVisibleAnnouncements(c.Request.Context(), viewer, includeDrafts, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, announcements)
}

// GetGroupedAnnouncements returns the live announcements sectioned into
// General, the caller's tags, other active tags and Other.
func GetGroupedAnnouncements(c *gin.Context) {
	viewer, viewerTags, err := loadViewerWithTags(c)
	if err != nil {
		respondError(c, err)
		return
	}

	announcements, err := loadVisibleAnnouncements(c.Request.Context(), viewer, false, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	activeTags := []models.Tag{}
	err = initializers.DB.From("tag").
		Select("*").
		Where(goqu.C("is_active").IsTrue()).
		Order(goqu.C("name").Asc()).
		ScanStructsContext(c.Request.Context(), &activeTags)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.GroupAnnouncements(announcements, viewerTags, activeTags))
}

func GetAnnouncement(c *gin.Context) {
	announcementID, ok := parseIDParam(c, "announcement_id")
	if !ok {
		return
	}

	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := loadVisibleAnnouncement(c, viewer, announcementID)
	if err != nil {
		respondError(c, err)
		return
	}

	if viewer.Person_ID != nil {
		read, err := loadReadAnnouncements(c.Request.Context(), *viewer.Person_ID, []int{announcementID})
		if err != nil {
			respondError(c, err)
			return
		}
		_, view.Is_Read = read[announcementID]
	}

	c.JSON(http.StatusOK, view)
}

func GetAnnouncementTags(c *gin.Context) {
	announcementID, ok := parseIDParam(c, "announcement_id")
	if !ok {
		return
	}

	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := loadVisibleAnnouncement(c, viewer, announcementID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view.Tags)
}

func CreateAnnouncement(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.AnnouncementCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.ValidateAudience(req.Is_Public, req.Roles_Allowed, req.Tag_IDs); err != nil {
		respondError(c, err)
		return
	}

	announcement := models.Announcement{
		Title:         req.Title,
		Body:          req.Body,
		Expires_At:    req.Expires_At,
		Is_Public:     req.Is_Public,
		Roles_Allowed: pq.StringArray(append([]string{}, req.Roles_Allowed...)),
		Created_By:    currentUser.User_Profile_ID,
		Updated_By:    currentUser.User_Profile_ID,
	}
	if req.Publish {
		now := time.Now()
		announcement.Is_Published = true
		announcement.Published_At = &now
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		var announcementID int
		if _, err := tx.Insert("announcement").
			Rows(announcement).
			Returning("announcement_id").
			Executor().
			ScanValContext(c.Request.Context(), &announcementID); err != nil {
			return err
		}
		announcement.Announcement_ID = announcementID
		return services.InsertContentTags(c.Request.Context(), tx, announcementID, models.ContentTypeAnnouncement, req.Tag_IDs)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if announcement.Is_Published {
		published := announcement
		tagIDs := append([]int{}, req.Tag_IDs...)
		runAsync(func() {
			services.NotifyAudienceOfAnnouncement(context.Background(), published, tagIDs, currentUser.User_Profile_ID)
		})
	}

	c.JSON(http.StatusCreated, announcement)
}

func UpdateAnnouncement(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	announcementID, ok := parseIDParam(c, "announcement_id")
	if !ok {
		return
	}

	var req models.AnnouncementUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement, err := loadAnnouncement(c.Request.Context(), announcementID)
	if err != nil {
		respondError(c, err)
		return
	}

	record := goqu.Record{}
	if req.Title != nil {
		record["title"] = *req.Title
	}
	if req.Body != nil {
		record["body"] = *req.Body
	}
	if req.Expires_At != nil {
		record["expires_at"] = *req.Expires_At
	}
	if req.Is_Public != nil {
		announcement.Is_Public = *req.Is_Public
		record["is_public"] = *req.Is_Public
	}
	if req.Roles_Allowed != nil {
		announcement.Roles_Allowed = pq.StringArray(append([]string{}, (*req.Roles_Allowed)...))
		record["roles_allowed"] = announcement.Roles_Allowed
	}

	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if req.Is_Public != nil || req.Roles_Allowed != nil {
		tags, err := services.GetContentTags(c.Request.Context(), announcementID, models.ContentTypeAnnouncement)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := services.ValidateAudience(announcement.Is_Public, announcement.Roles_Allowed, services.TagIDs(tags)); err != nil {
			respondError(c, err)
			return
		}
	}

	record["updated_by"] = currentUser.User_Profile_ID
	record["datetime_update"] = time.Now()

	_, err = initializers.DB.Update("announcement").
		Set(record).
		Where(goqu.C("announcement_id").Eq(announcementID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Announcement updated successfully"})
}

// PublishAnnouncement makes a draft live and notifies its audience.
// Publishing an already published announcement changes nothing.
func PublishAnnouncement(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	announcementID, ok := parseIDParam(c, "announcement_id")
	if !ok {
		return
	}

	announcement, err := loadAnnouncement(c.Request.Context(), announcementID)
	if err != nil {
		respondError(c, err)
		return
	}
	if announcement.Is_Published {
		c.JSON(http.StatusOK, announcement)
		return
	}

	now := time.Now()
	_, err = initializers.DB.Update("announcement").
		Set(goqu.Record{
			"is_published":    true,
			"published_at":    now,
			"updated_by":      currentUser.User_Profile_ID,
			"datetime_update": now,
		}).
		Where(goqu.C("announcement_id").Eq(announcementID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	announcement.Is_Published = true
	announcement.Published_At = &now

	tags, err := services.GetContentTags(c.Request.Context(), announcementID, models.ContentTypeAnnouncement)
	if err != nil {
		respondError(c, err)
		return
	}
	tagIDs := services.TagIDs(tags)
	published := announcement
	runAsync(func() {
		services.NotifyAudienceOfAnnouncement(context.Background(), published, tagIDs, currentUser.User_Profile_ID)
	})

	c.JSON(http.StatusOK, announcement)
}

func DeleteAnnouncement(c *gin.Context) {
	announcementID, ok := parseIDParam(c, "announcement_id")
	if !ok {
		return
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		for _, table := range []string{"announcement_tag", "announcement_read"} {
			if _, err := tx.Delete(table).
				Where(goqu.C("announcement_id").Eq(announcementID)).
				Executor().ExecContext(c.Request.Context()); err != nil {
				return err
			}
		}
		result, err := tx.Delete("announcement").
			Where(goqu.C("announcement_id").Eq(announcementID)).
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

	c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted successfully"})
}

func SetAnnouncementTags(c *gin.Context) {
	announcementID, ok := parseIDParam(c, "announcement_id")
	if !ok {
		return
	}

	var req models.ContentTagsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement, err := loadAnnouncement(c.Request.Context(), announcementID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := services.ValidateAudience(announcement.Is_Public, announcement.Roles_Allowed, req.Tag_IDs); err != nil {
		respondError(c, err)
		return
	}

	if err := services.ReplaceContentTags(c.Request.Context(), announcementID, models.ContentTypeAnnouncement, req.Tag_IDs); err != nil {
		respondError(c, err)
		return
	}

	tags, err := services.GetContentTags(c.Request.Context(), announcementID, models.ContentTypeAnnouncement)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

// MarkAnnouncementRead records that the caller read an announcement.
// Marking twice keeps the first read time.
func MarkAnnouncementRead(c *gin.Context) {
	announcementID, ok := parseIDParam(c, "announcement_id")
	if !ok {
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

	if _, err := loadVisibleAnnouncement(c, viewer, announcementID); err != nil {
		respondError(c, err)
		return
	}

	_, err = initializers.DB.Insert("announcement_read").
		Rows(models.AnnouncementRead{
			Announcement_ID: announcementID,
			Person_ID:       personID,
			Read_At:         time.Now(),
		}).
		OnConflict(goqu.DoNothing()).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"announcementId": announcementID, "isRead": true})
}

// GetUnreadAnnouncementCount counts live announcements visible to the
// caller that they have not read.
func GetUnreadAnnouncementCount(c *gin.Context) {
	viewer, err := loadViewer(c)
	if err != nil {
		respondError(c, err)
		return
	}

	announcements, err := loadVisibleAnnouncements(c.Request.Context(), viewer, false, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	unread := 0
	for _, a := range announcements {
		if !a.Is_Read {
			unread++
		}
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": unread})
}
