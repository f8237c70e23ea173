package controllers

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/doug-martin/goqu/v9"
	"golang.org/x/crypto/bcrypt"
)

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// UserSignup creates a pending account. An admin has to approve it before
// any content is visible.
func UserSignup(c *gin.Context) {
	var user models.UserProfileSignup

	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))

	userCount, err := initializers.DB.From("user_profile").
		Where(goqu.C("email").Eq(email)).
		CountContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if userCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists."})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	newUser := models.UserProfile{
		Email:      email,
		Password:   string(passwordHash),
		First_Name: strings.TrimSpace(user.First_Name),
		Last_Name:  strings.TrimSpace(user.Last_Name),
		Role:       models.RolePending,
		Created_By: 1,
		Updated_By: 1,
	}

	var userID int
	_, err = initializers.DB.Insert("user_profile").
		Rows(newUser).
		Returning("user_profile_id").
		Executor().
		ScanValContext(c.Request.Context(), &userID)
	if err != nil {
		log.Printf("Failed to create user %s: %v", email, err)
		respondError(c, err)
		return
	}
	newUser.User_Profile_ID = userID

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. An administrator will approve it shortly.",
		"user":    newUser,
	})
}

func UserLogin(c *gin.Context) {
	var user models.Login

	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dbUser models.UserProfile
	found, err := initializers.DB.From("user_profile").
		Select("*").
		Where(
			goqu.C("email").Eq(strings.ToLower(strings.TrimSpace(user.Email))),
			goqu.C("deleted").IsFalse(),
		).
		ScanStructContext(c.Request.Context(), &dbUser)
	if err != nil {
		respondError(c, err)
		return
	}

	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(dbUser.Password), []byte(user.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	generateToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   dbUser.User_Profile_ID,
		"exp":  time.Now().Add(time.Hour * 24).Unix(),
		"role": dbUser.Role,
	})

	token, err := generateToken.SignedString([]byte(os.Getenv("SECRET")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User logged in successfully.",
		"token":   token,
		"user":    dbUser,
	})
}

// GetUserProfile returns the account with its directory record and family.
func GetUserProfile(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	me := models.CurrentUser{
		User:  currentUser,
		Admin: c.MustGet("admin").(bool),
	}

	person, err := loadPersonForUser(c.Request.Context(), currentUser.User_Profile_ID)
	if err != nil {
		respondError(c, err)
		return
	}
	me.Person = person

	if person != nil && person.Family_ID != nil {
		var family models.Family
		found, err := initializers.DB.From("family").
			Select("*").
			Where(goqu.C("family_id").Eq(*person.Family_ID)).
			ScanStructContext(c.Request.Context(), &family)
		if err != nil {
			respondError(c, err)
			return
		}
		if found {
			me.Family = &family
		}
	}

	c.JSON(http.StatusOK, me)
}

func ChangeUserPassword(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.UserProfileChangePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(currentUser.Password), []byte(req.Old_Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.New_Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	_, err = initializers.DB.Update("user_profile").
		Set(goqu.Record{
			"password":        string(passwordHash),
			"updated_by":      currentUser.User_Profile_ID,
			"datetime_update": time.Now(),
		}).
		Where(goqu.C("user_profile_id").Eq(currentUser.User_Profile_ID)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// StorePushToken upserts the device token for the caller.
func StorePushToken(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := models.PushToken{
		User_Profile_ID: currentUser.User_Profile_ID,
		Push_Token:      req.Push_Token,
		Platform:        req.Platform,
		Updated_At:      time.Now(),
	}

	_, err := initializers.DB.Insert("user_push_tokens").
		Rows(token).
		OnConflict(goqu.DoUpdate("push_token", goqu.Record{
			"user_profile_id": currentUser.User_Profile_ID,
			"platform":        req.Platform,
			"updated_at":      token.Updated_At,
		})).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		log.Printf("Failed to store push token for user %d: %v", currentUser.User_Profile_ID, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push token stored successfully"})
}
