package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/policy"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

var directoryColumns = []interface{}{
	"person.person_id",
	"person.first_name",
	"person.last_name",
	"person.email",
	"person.phone",
	"person.date_of_birth",
	"person.is_head_of_family",
	"person.is_spouse",
	"person.family_id",
	"person.user_profile_id",
	"person.photo_url",
	"person.created_by",
	"person.datetime_create",
	"person.updated_by",
	"person.datetime_update",
	"family.family_name",
	"user_profile.role",
}

func loadDirectoryEntries(ctx context.Context) ([]models.DirectoryEntry, error) {
	entries := []models.DirectoryEntry{}
	err := initializers.DB.From("person").
		Select(directoryColumns...).
		LeftJoin(goqu.T("family"), goqu.On(goqu.Ex{"family.family_id": goqu.I("person.family_id")})).
		LeftJoin(goqu.T("user_profile"), goqu.On(goqu.Ex{"user_profile.user_profile_id": goqu.I("person.user_profile_id")})).
		Order(goqu.I("person.last_name").Asc(), goqu.I("person.first_name").Asc(), goqu.I("person.person_id").Asc()).
		ScanStructsContext(ctx, &entries)
	if err != nil {
		return nil, services.ClassifyDBError(err)
	}
	return entries, nil
}

// GetDirectory lists people, filtered by ?search, ?tagIds, ?matchAll and
// ?role, as a flat list (?view=person) or grouped by family (default).
func GetDirectory(c *gin.Context) {
	filter := models.DirectoryFilter{
		Search_Text: c.Query("search"),
		Match_All:   c.Query("matchAll") == "true",
		Role:        strings.TrimSpace(c.Query("role")),
	}

	tagIDs, err := parseIntList(c.Query("tagIds"))
	if err != nil {
		respondError(c, err)
		return
	}
	filter.Tag_IDs = tagIDs

	if filter.Role != "" {
		if !models.IsValidRole(filter.Role) {
			respondError(c, apperr.NewValidationError("role", "unknown role "+filter.Role))
			return
		}
		if !policy.CanPerform(c.GetString("role"), policy.ActionFilterDirectoryByRole) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to filter by role"})
			return
		}
	}

	view := c.DefaultQuery("view", models.DirectoryViewFamily)
	if view != models.DirectoryViewFamily && view != models.DirectoryViewPerson {
		respondError(c, apperr.NewValidationError("view", "must be family or person"))
		return
	}

	entries, err := loadDirectoryEntries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	filtered, err := services.FilterDirectory(c.Request.Context(), entries, filter, services.FindPeopleByTagIds)
	if err != nil {
		respondError(c, err)
		return
	}

	if view == models.DirectoryViewPerson {
		c.JSON(http.StatusOK, gin.H{"view": view, "people": services.SortByPerson(filtered), "count": len(filtered)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"view": view, "families": services.GroupByFamily(filtered), "count": len(filtered)})
}
