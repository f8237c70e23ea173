package controllers

import (
	"time"

	"github.com/Congregate/models"
	"golang.org/x/crypto/bcrypt"
)

// MockUser creates an approved member for testing
func MockUser() models.UserProfile {
	return models.UserProfile{
		User_Profile_ID: 1,
		First_Name:      "Test",
		Last_Name:       "User",
		Email:           "test@example.com",
		Role:            models.RoleMember,
		Created_By:      1,
		Updated_By:      1,
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
	}
}

// MockUserWithPassword is MockUser with the password "password123"
func MockUserWithPassword() models.UserProfile {
	user := MockUser()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user.Password = string(hashedPassword)
	return user
}

func MockPendingUser() models.UserProfile {
	user := MockUser()
	user.User_Profile_ID = 4
	user.Email = "pending@example.com"
	user.Role = models.RolePending
	return user
}

func MockLeaderUser() models.UserProfile {
	user := MockUser()
	user.User_Profile_ID = 3
	user.First_Name = "Leader"
	user.Email = "leader@example.com"
	user.Role = models.RoleLeader
	return user
}

// MockAdminUser creates a sample admin user for testing
func MockAdminUser() models.UserProfile {
	user := MockUser()
	user.User_Profile_ID = 2
	user.First_Name = "Admin"
	user.Email = "admin@example.com"
	user.Role = models.RoleAdmin
	return user
}

var personColumns = []string{
	"person_id", "first_name", "last_name", "email", "is_head_of_family",
	"is_spouse", "family_id", "user_profile_id", "created_by", "updated_by",
}

var tagColumnsForTest = []string{"tag_id", "name", "color", "self_assignable", "assign_min_role", "is_active"}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }
