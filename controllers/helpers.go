package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/policy"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// runAsync runs notification fan-out off the request path. Tests replace it.
var runAsync = func(fn func()) { go fn() }

// respondError maps a classified service error onto an HTTP status.
func respondError(c *gin.Context, err error) {
	err = services.ClassifyDBError(err)

	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": ve.Error(), "field": ve.Field})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "details": err.Error()})
	case errors.Is(err, apperr.ErrAuthorizationDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action", "details": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "details": err.Error()})
	case errors.Is(err, apperr.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporary failure, please try again", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
	}
}

func parseIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + strings.ReplaceAll(name, "_", " ")})
		return 0, false
	}
	return id, true
}

// parseIntList reads "1,2,3" style query values, ignoring blanks.
func parseIntList(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, apperr.NewValidationError("tagIds", "not a number: "+part)
		}
		out = append(out, n)
	}
	return out, nil
}

// loadPersonForUser returns the caller's directory record, or nil if the
// profile has not been completed yet.
func loadPersonForUser(ctx context.Context, userID int) (*models.Person, error) {
	var person models.Person
	found, err := initializers.DB.From("person").
		Select("*").
		Where(goqu.C("user_profile_id").Eq(userID)).
		ScanStructContext(ctx, &person)
	if err != nil {
		return nil, services.ClassifyDBError(err)
	}
	if !found {
		return nil, nil
	}
	return &person, nil
}

// loadViewer builds the visibility context for the caller. Viewers without
// a person record hold no tags.
func loadViewer(c *gin.Context) (services.Viewer, error) {
	viewer, _, err := loadViewerWithTags(c)
	return viewer, err
}

// loadViewerWithTags also returns the caller's tags in acquisition order.
func loadViewerWithTags(c *gin.Context) (services.Viewer, []models.Tag, error) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)
	viewer := services.Viewer{
		User_Profile_ID: currentUser.User_Profile_ID,
		Role:            currentUser.Role,
	}

	person, err := loadPersonForUser(c.Request.Context(), currentUser.User_Profile_ID)
	if err != nil {
		return viewer, nil, err
	}
	if person == nil {
		return viewer, []models.Tag{}, nil
	}
	viewer.Person_ID = &person.Person_ID

	tags, err := services.GetPersonTags(c.Request.Context(), person.Person_ID)
	if err != nil {
		return viewer, nil, err
	}
	viewer.Tag_IDs = services.TagIDs(tags)
	return viewer, tags, nil
}

func requirePerson(c *gin.Context, viewer services.Viewer) (int, bool) {
	if viewer.Person_ID == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Complete your profile first"})
		return 0, false
	}
	return *viewer.Person_ID, true
}

func canViewUnpublished(c *gin.Context) bool {
	return policy.CanPerform(c.GetString("role"), policy.ActionViewUnpublished)
}
