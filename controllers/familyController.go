package controllers

import (
	"context"
	"log"
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
	"github.com/google/uuid"
)

func generateFamilyJoinToken() string {
	return uuid.NewString()
}

func loadFamily(ctx context.Context, familyID int) (models.Family, error) {
	var family models.Family
	found, err := initializers.DB.From("family").
		Select("*").
		Where(goqu.C("family_id").Eq(familyID)).
		ScanStructContext(ctx, &family)
	if err != nil {
		return family, services.ClassifyDBError(err)
	}
	if !found {
		return family, apperr.ErrNotFound
	}
	return family, nil
}

func isFamilyMember(actor *models.Person, familyID int) bool {
	return actor != nil && actor.Family_ID != nil && *actor.Family_ID == familyID
}

func canManageFamily(user models.UserProfile, actor *models.Person, familyID int) bool {
	if policy.CanPerform(user.Role, policy.ActionManageAnyFamily) {
		return true
	}
	return isFamilyMember(actor, familyID) && policy.CanPerform(user.Role, policy.ActionManageOwnFamily)
}

// callerPersonWithoutFamily loads the caller's person and rejects callers
// who have no profile yet or already belong to a family.
func callerPersonWithoutFamily(c *gin.Context) (*models.Person, bool) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	person, err := loadPersonForUser(c.Request.Context(), currentUser.User_Profile_ID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if person == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Complete your profile first"})
		return nil, false
	}
	if person.Family_ID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You already belong to a family"})
		return nil, false
	}
	return person, true
}

// CreateFamilyForSelf creates a family with a fresh join token and makes
// the caller its head, in one transaction.
func CreateFamilyForSelf(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.FamilyCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Family_Name)
	if name == "" {
		respondError(c, apperr.NewValidationError("familyName", "must not be blank"))
		return
	}

	person, ok := callerPersonWithoutFamily(c)
	if !ok {
		return
	}

	family := models.Family{
		Family_Name:       name,
		Address:           req.Address,
		Home_Phone:        req.Home_Phone,
		Family_Join_Token: generateFamilyJoinToken(),
		Created_By:        currentUser.User_Profile_ID,
		Updated_By:        currentUser.User_Profile_ID,
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		var familyID int
		if _, err := tx.Insert("family").
			Rows(family).
			Returning("family_id").
			Executor().
			ScanValContext(c.Request.Context(), &familyID); err != nil {
			return err
		}
		family.Family_ID = familyID

		_, err := tx.Update("person").
			Set(goqu.Record{
				"family_id":         familyID,
				"is_head_of_family": true,
				"updated_by":        currentUser.User_Profile_ID,
				"datetime_update":   time.Now(),
			}).
			Where(goqu.C("person_id").Eq(person.Person_ID)).
			Executor().ExecContext(c.Request.Context())
		return err
	})
	if err != nil {
		log.Printf("Failed to create family for user %d: %v", currentUser.User_Profile_ID, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, family)
}

// JoinFamilyWithToken attaches the caller's person to the family holding
// the token and tells its heads.
func JoinFamilyWithToken(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.FamilyJoin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		respondError(c, apperr.NewValidationError("token", "must not be blank"))
		return
	}

	person, ok := callerPersonWithoutFamily(c)
	if !ok {
		return
	}

	var family models.Family
	found, err := initializers.DB.From("family").
		Select("*").
		Where(goqu.C("family_join_token").Eq(token)).
		ScanStructContext(c.Request.Context(), &family)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid family token"})
		return
	}

	result, err := initializers.DB.Update("person").
		Set(goqu.Record{
			"family_id":         family.Family_ID,
			"is_head_of_family": false,
			"updated_by":        currentUser.User_Profile_ID,
			"datetime_update":   time.Now(),
		}).
		Where(
			goqu.C("person_id").Eq(person.Person_ID),
			goqu.C("family_id").IsNull(),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You already belong to a family"})
		return
	}

	member := *person
	member.Family_ID = &family.Family_ID
	runAsync(func() {
		services.NotifyFamilyOfNewMember(context.Background(), family, member, currentUser.User_Profile_ID)
	})

	c.JSON(http.StatusOK, family)
}

// GetFamily returns a family. The join token is only shown to its members
// and to those who may manage any family.
func GetFamily(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	familyID, ok := parseIDParam(c, "family_id")
	if !ok {
		return
	}

	family, err := loadFamily(c.Request.Context(), familyID)
	if err != nil {
		respondError(c, err)
		return
	}

	actor, err := loadPersonForUser(c.Request.Context(), currentUser.User_Profile_ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canManageFamily(currentUser, actor, familyID) {
		family.Family_Join_Token = ""
	}

	c.JSON(http.StatusOK, family)
}

func GetFamilyMembers(c *gin.Context) {
	familyID, ok := parseIDParam(c, "family_id")
	if !ok {
		return
	}

	if _, err := loadFamily(c.Request.Context(), familyID); err != nil {
		respondError(c, err)
		return
	}

	members := []models.Person{}
	err := initializers.DB.From("person").
		Select("*").
		Where(goqu.C("family_id").Eq(familyID)).
		Order(
			goqu.C("is_head_of_family").Desc(),
			goqu.C("is_spouse").Desc(),
			goqu.C("first_name").Asc(),
			goqu.C("person_id").Asc(),
		).
		ScanStructsContext(c.Request.Context(), &members)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// authorizeFamilyChange resolves :family_id and checks the caller may edit
// it. It writes the response on failure.
func authorizeFamilyChange(c *gin.Context) (int, bool) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	familyID, ok := parseIDParam(c, "family_id")
	if !ok {
		return 0, false
	}

	actor, err := loadPersonForUser(c.Request.Context(), currentUser.User_Profile_ID)
	if err != nil {
		respondError(c, err)
		return 0, false
	}

	if !canManageFamily(currentUser, actor, familyID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit this family"})
		return 0, false
	}
	return familyID, true
}

func UpdateFamily(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.FamilyUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	familyID, ok := authorizeFamilyChange(c)
	if !ok {
		return
	}

	record := goqu.Record{}
	if req.Family_Name != nil {
		record["family_name"] = strings.TrimSpace(*req.Family_Name)
	}
	if req.Address != nil {
		record["address"] = *req.Address
	}
	if req.City != nil {
		record["city"] = *req.City
	}
	if req.State != nil {
		record["state"] = *req.State
	}
	if req.Postal_Code != nil {
		record["postal_code"] = *req.Postal_Code
	}
	if req.Home_Phone != nil {
		record["home_phone"] = *req.Home_Phone
	}
	if req.Photo_Path != nil {
		record["photo_path"] = *req.Photo_Path
	}

	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	record["updated_by"] = currentUser.User_Profile_ID
	record["datetime_update"] = time.Now()

	result, err := initializers.DB.Update("family").
		Set(record).
		Where(goqu.C("family_id").Eq(familyID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Family not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Family updated successfully"})
}

// RotateFamilyToken invalidates the current join token.
func RotateFamilyToken(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	familyID, ok := authorizeFamilyChange(c)
	if !ok {
		return
	}

	token := generateFamilyJoinToken()
	result, err := initializers.DB.Update("family").
		Set(goqu.Record{
			"family_join_token": token,
			"updated_by":        currentUser.User_Profile_ID,
			"datetime_update":   time.Now(),
		}).
		Where(goqu.C("family_id").Eq(familyID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Family not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"familyJoinToken": token})
}

// DeleteFamily detaches every member and removes the family.
func DeleteFamily(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	familyID, ok := parseIDParam(c, "family_id")
	if !ok {
		return
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		if _, err := tx.Update("person").
			Set(goqu.Record{
				"family_id":         nil,
				"is_head_of_family": false,
				"is_spouse":         false,
				"updated_by":        currentUser.User_Profile_ID,
				"datetime_update":   time.Now(),
			}).
			Where(goqu.C("family_id").Eq(familyID)).
			Executor().ExecContext(c.Request.Context()); err != nil {
			return err
		}

		result, err := tx.Delete("family").
			Where(goqu.C("family_id").Eq(familyID)).
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

	c.JSON(http.StatusOK, gin.H{"message": "Family deleted successfully"})
}
