package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Congregate/apperr"
	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/policy"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func loadPerson(ctx context.Context, personID int) (models.Person, error) {
	var person models.Person
	found, err := initializers.DB.From("person").
		Select("*").
		Where(goqu.C("person_id").Eq(personID)).
		ScanStructContext(ctx, &person)
	if err != nil {
		return person, services.ClassifyDBError(err)
	}
	if !found {
		return person, apperr.ErrNotFound
	}
	return person, nil
}

// canEditPerson allows the person themself, the head of their family, and
// anyone allowed to manage every person.
func canEditPerson(user models.UserProfile, actor *models.Person, target models.Person) bool {
	if policy.CanPerform(user.Role, policy.ActionManageAnyPerson) {
		return true
	}
	if target.User_Profile_ID != nil && *target.User_Profile_ID == user.User_Profile_ID {
		return true
	}
	if actor == nil || !actor.Is_Head_Of_Family || actor.Family_ID == nil || target.Family_ID == nil {
		return false
	}
	return *actor.Family_ID == *target.Family_ID && policy.CanPerform(user.Role, policy.ActionManageOwnFamily)
}

// CompleteProfile creates the caller's own directory record.
func CompleteProfile(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.PersonCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := initializers.DB.From("person").
		Where(goqu.C("user_profile_id").Eq(currentUser.User_Profile_ID)).
		CountContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Profile already completed"})
		return
	}

	email := req.Email
	if email == nil {
		email = &currentUser.Email
	}
	userID := currentUser.User_Profile_ID

	person := models.Person{
		First_Name:      req.First_Name,
		Last_Name:       req.Last_Name,
		Email:           email,
		Phone:           req.Phone,
		Date_Of_Birth:   req.Date_Of_Birth,
		Photo_URL:       req.Photo_URL,
		User_Profile_ID: &userID,
		Created_By:      userID,
		Updated_By:      userID,
	}

	var personID int
	_, err = initializers.DB.Insert("person").
		Rows(person).
		Returning("person_id").
		Executor().
		ScanValContext(c.Request.Context(), &personID)
	if err != nil {
		log.Printf("Failed to create person for user %d: %v", userID, err)
		respondError(c, err)
		return
	}
	person.Person_ID = personID

	c.JSON(http.StatusCreated, person)
}

func GetPerson(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	person, err := loadPerson(c.Request.Context(), personID)
	if err != nil {
		respondError(c, err)
		return
	}

	tags, err := services.GetPersonTags(c.Request.Context(), personID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"person": person, "tags": tags})
}

func UpdatePerson(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	var req models.PersonUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := loadPerson(c.Request.Context(), personID)
	if err != nil {
		respondError(c, err)
		return
	}

	actor, err := loadPersonForUser(c.Request.Context(), currentUser.User_Profile_ID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !canEditPerson(currentUser, actor, target) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit this person"})
		return
	}

	record := goqu.Record{}
	if req.First_Name != nil {
		record["first_name"] = *req.First_Name
	}
	if req.Last_Name != nil {
		record["last_name"] = *req.Last_Name
	}
	if req.Email != nil {
		record["email"] = *req.Email
	}
	if req.Phone != nil {
		record["phone"] = *req.Phone
	}
	if req.Date_Of_Birth != nil {
		record["date_of_birth"] = *req.Date_Of_Birth
	}
	if req.Photo_URL != nil {
		record["photo_url"] = *req.Photo_URL
	}
	if req.Is_Head_Of_Family != nil {
		record["is_head_of_family"] = *req.Is_Head_Of_Family
	}
	if req.Is_Spouse != nil {
		record["is_spouse"] = *req.Is_Spouse
	}

	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}
	record["updated_by"] = currentUser.User_Profile_ID
	record["datetime_update"] = time.Now()

	_, err = initializers.DB.Update("person").
		Set(record).
		Where(goqu.C("person_id").Eq(personID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Person updated successfully"})
}

// DeletePerson removes a person and everything keyed by them.
func DeletePerson(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	err := initializers.DB.WithTx(func(tx *goqu.TxDatabase) error {
		for _, table := range []string{"person_tag", "event_rsvp", "announcement_read", "prayer_request"} {
			if _, err := tx.Delete(table).
				Where(goqu.C("person_id").Eq(personID)).
				Executor().ExecContext(c.Request.Context()); err != nil {
				return err
			}
		}

		result, err := tx.Delete("person").
			Where(goqu.C("person_id").Eq(personID)).
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

	c.JSON(http.StatusOK, gin.H{"message": "Person deleted successfully"})
}

func GetPersonTagList(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	tags, err := services.GetPersonTags(c.Request.Context(), personID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

// authorizeTagChange loads the tag and person and applies the tag's
// assignment rule. It writes the response on failure.
func authorizeTagChange(c *gin.Context) (personID int, tagID int, ok bool) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	if personID, ok = parseIDParam(c, "person_id"); !ok {
		return
	}
	if tagID, ok = parseIDParam(c, "tag_id"); !ok {
		return
	}
	ok = false

	person, err := loadPerson(c.Request.Context(), personID)
	if err != nil {
		respondError(c, err)
		return
	}

	tag, err := loadTag(c.Request.Context(), tagID)
	if err != nil {
		respondError(c, err)
		return
	}

	toSelf := person.User_Profile_ID != nil && *person.User_Profile_ID == currentUser.User_Profile_ID
	if !policy.CanAssignTag(currentUser.Role, tag, toSelf) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to change this tag"})
		return
	}

	return personID, tagID, true
}

func AssignPersonTag(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	personID, tagID, ok := authorizeTagChange(c)
	if !ok {
		return
	}

	_, err := initializers.DB.Insert("person_tag").
		Rows(models.PersonTag{
			Person_ID:  personID,
			Tag_ID:     tagID,
			Created_By: currentUser.User_Profile_ID,
		}).
		OnConflict(goqu.DoNothing()).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag assigned successfully"})
}

func RemovePersonTag(c *gin.Context) {
	personID, tagID, ok := authorizeTagChange(c)
	if !ok {
		return
	}

	_, err := initializers.DB.Delete("person_tag").
		Where(
			goqu.C("person_id").Eq(personID),
			goqu.C("tag_id").Eq(tagID),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag removed successfully"})
}
