package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/policy"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

const defaultTagColor = "#808080"

func loadTag(ctx context.Context, tagID int) (models.Tag, error) {
	var tag models.Tag
	found, err := initializers.DB.From("tag").
		Select("*").
		Where(goqu.C("tag_id").Eq(tagID)).
		ScanStructContext(ctx, &tag)
	if err != nil {
		return tag, services.ClassifyDBError(err)
	}
	if !found {
		return tag, apperr.ErrNotFound
	}
	return tag, nil
}

// GetTags lists active tags. Admins may pass ?all=true to include
// deactivated ones.
func GetTags(c *gin.Context) {
	query := initializers.DB.From("tag").Select("*")

	includeInactive := c.Query("all") == "true" && policy.CanPerform(c.GetString("role"), policy.ActionManageTags)
	if !includeInactive {
		query = query.Where(goqu.C("is_active").IsTrue())
	}

	tags := []models.Tag{}
	err := query.
		Order(goqu.C("namespace").Asc().NullsFirst(), goqu.L("lower(?)", goqu.C("name")).Asc(), goqu.C("tag_id").Asc()).
		ScanStructsContext(c.Request.Context(), &tags)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

func CreateTag(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.TagCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(c, apperr.NewValidationError("name", "must not be blank"))
		return
	}

	tag := models.Tag{
		Name:            name,
		Namespace:       req.Namespace,
		Color:           req.Color,
		Description:     req.Description,
		Self_Assignable: req.Self_Assignable,
		Assign_Min_Role: req.Assign_Min_Role,
		Is_Active:       true,
		Created_By:      currentUser.User_Profile_ID,
		Updated_By:      currentUser.User_Profile_ID,
	}
	if tag.Color == "" {
		tag.Color = defaultTagColor
	}
	if tag.Assign_Min_Role == "" {
		tag.Assign_Min_Role = models.RoleAdmin
	}

	var tagID int
	_, err := initializers.DB.Insert("tag").
		Rows(tag).
		Returning("tag_id").
		Executor().
		ScanValContext(c.Request.Context(), &tagID)
	if err != nil {
		respondError(c, err)
		return
	}
	tag.Tag_ID = tagID

	c.JSON(http.StatusCreated, tag)
}

func UpdateTag(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	tagID, ok := parseIDParam(c, "tag_id")
	if !ok {
		return
	}

	var req models.TagUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record := goqu.Record{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(c, apperr.NewValidationError("name", "must not be blank"))
			return
		}
		record["name"] = name
	}
	if req.Namespace != nil {
		record["namespace"] = *req.Namespace
	}
	if req.Color != nil {
		record["color"] = *req.Color
	}
	if req.Description != nil {
		record["description"] = *req.Description
	}
	if req.Self_Assignable != nil {
		record["self_assignable"] = *req.Self_Assignable
	}
	if req.Assign_Min_Role != nil {
		record["assign_min_role"] = *req.Assign_Min_Role
	}
	if req.Is_Active != nil {
		record["is_active"] = *req.Is_Active
	}

	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	record["updated_by"] = currentUser.User_Profile_ID
	record["datetime_update"] = time.Now()

	result, err := initializers.DB.Update("tag").
		Set(record).
		Where(goqu.C("tag_id").Eq(tagID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag updated successfully"})
}

// DeleteTag deactivates a tag. With ?hard=true the tag and every join row
// referencing it are removed.
func DeleteTag(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	tagID, ok := parseIDParam(c, "tag_id")
	if !ok {
		return
	}

	if c.Query("hard") != "true" {
		result, err := initializers.DB.Update("tag").
			Set(goqu.Record{
				"is_active":       false,
				"updated_by":      currentUser.User_Profile_ID,
				"datetime_update": time.Now(),
			}).
			Where(goqu.C("tag_id").Eq(tagID)).
			Executor().ExecContext(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Tag deactivated successfully"})
		return
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		for _, table := range []string{"person_tag", "event_tag", "announcement_tag"} {
			if _, err := tx.Delete(table).
				Where(goqu.C("tag_id").Eq(tagID)).
				Executor().ExecContext(c.Request.Context()); err != nil {
				return err
			}
		}
		result, err := tx.Delete("tag").
			Where(goqu.C("tag_id").Eq(tagID)).
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

	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully"})
}

// GetPeopleByTags answers ?tagIds=1,2&matchAll=true with the matching
// person ids.
func GetPeopleByTags(c *gin.Context) {
	tagIDs, err := parseIntList(c.Query("tagIds"))
	if err != nil {
		respondError(c, err)
		return
	}

	personIDs, err := services.FindPeopleByTagIds(c.Request.Context(), tagIDs, c.Query("matchAll") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"personIds": personIDs})
}
