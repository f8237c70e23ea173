package controllers

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/Congregate/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenPurpose = "password_reset"
	resetTokenTTL     = 5 * time.Minute
)

const forgotPasswordMessage = "If this email exists in our system, a verification code has been sent."

// ForgotPassword sends a 6-digit code to the account's email. The response
// is the same whether or not the email is known.
func ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email address is required", "details": err.Error()})
		return
	}

	var user models.UserProfile
	found, err := initializers.DB.From("user_profile").
		Select("*").
		Where(
			goqu.C("email").Eq(strings.ToLower(strings.TrimSpace(req.Email))),
			goqu.C("deleted").IsFalse(),
		).
		ScanStructContext(c.Request.Context(), &user)

	if err != nil || !found {
		c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
		return
	}

	emailService := services.GetEmailService()
	if emailService == nil {
		log.Println("Email service not initialized")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email service unavailable"})
		return
	}

	code, err := generate6DigitCode()
	if err != nil {
		log.Printf("Failed to generate verification code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate verification code"})
		return
	}

	resetToken := models.PasswordResetToken{
		User_Profile_ID: user.User_Profile_ID,
		Code:            code,
		Expires_At:      time.Now().Add(models.PasswordResetCodeTTL),
	}

	insert := initializers.DB.Insert("password_reset_tokens").Rows(resetToken).Executor()
	if _, err := insert.ExecContext(c.Request.Context()); err != nil {
		log.Printf("Failed to store password reset token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password reset request"})
		return
	}

	if err := emailService.SendPasswordResetEmail(user.Email, code, user.First_Name); err != nil {
		log.Printf("Failed to send password reset email: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
		return
	}

	log.Printf("Password reset code sent to user %d", user.User_Profile_ID)

	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

// VerifyResetCode checks the code and hands back a short-lived token for
// the final reset step.
func VerifyResetCode(c *gin.Context) {
	var req models.VerifyResetCodeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and 6-digit code are required", "details": err.Error()})
		return
	}

	var user models.UserProfile
	found, err := initializers.DB.From("user_profile").
		Select("*").
		Where(
			goqu.C("email").Eq(strings.ToLower(strings.TrimSpace(req.Email))),
			goqu.C("deleted").IsFalse(),
		).
		ScanStructContext(c.Request.Context(), &user)

	if err != nil || !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or verification code"})
		return
	}

	var resetToken models.PasswordResetToken
	found, err = initializers.DB.From("password_reset_tokens").
		Select("*").
		Where(goqu.And(
			goqu.C("user_profile_id").Eq(user.User_Profile_ID),
			goqu.C("used").IsFalse(),
			goqu.C("expires_at").Gt(time.Now()),
		)).
		Order(goqu.C("created_at").Desc()).
		ScanStructContext(c.Request.Context(), &resetToken)

	if err != nil || !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired verification code"})
		return
	}

	if resetToken.Attempts >= models.PasswordResetMaxAttempts {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Maximum verification attempts exceeded. Please request a new code.",
		})
		return
	}

	attempts := resetToken.Attempts + 1
	record := goqu.Record{"attempts": attempts}
	matched := subtle.ConstantTimeCompare([]byte(resetToken.Code), []byte(req.Code)) == 1
	if !matched && attempts >= models.PasswordResetMaxAttempts {
		record["used"] = true
	}

	updateAttempts := initializers.DB.Update("password_reset_tokens").
		Set(record).
		Where(goqu.C("password_reset_tokens_id").Eq(resetToken.Password_Reset_Tokens_ID)).
		Executor()

	if _, err := updateAttempts.ExecContext(c.Request.Context()); err != nil {
		log.Printf("Failed to update attempt count: %v", err)
		if !matched {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
			return
		}
	}

	if !matched {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired verification code"})
		return
	}

	tempToken, err := createResetToken(user.User_Profile_ID, time.Now())
	if err != nil {
		log.Printf("Failed to generate reset token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Verification code is valid",
		"token":   tempToken,
		"userId":  user.User_Profile_ID,
	})
}

// ResetPassword sets a new password using the token from VerifyResetCode
// and burns every outstanding code for the account.
func ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and new password are required", "details": err.Error()})
		return
	}

	userID, valid := validateResetToken(req.Token)
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	result, err := initializers.DB.Update("user_profile").
		Set(goqu.Record{
			"password":        string(passwordHash),
			"updated_by":      userID,
			"datetime_update": time.Now(),
		}).
		Where(
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("deleted").IsFalse(),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		log.Printf("Failed to update password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	markUsed := initializers.DB.Update("password_reset_tokens").
		Set(goqu.Record{"used": true}).
		Where(goqu.C("user_profile_id").Eq(userID)).
		Executor()

	if _, err := markUsed.ExecContext(c.Request.Context()); err != nil {
		log.Printf("Failed to mark reset tokens as used: %v", err)
	}

	log.Printf("Password successfully reset for user %d", userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully. You can now login with your new password.",
	})
}

func generate6DigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// createResetToken signs a token that only ResetPassword accepts. The
// purpose claim keeps it from being used as a session token.
func createResetToken(userID int, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":      userID,
		"purpose": resetTokenPurpose,
		"exp":     now.Add(resetTokenTTL).Unix(),
	})
	return token.SignedString([]byte(os.Getenv("SECRET")))
}

func validateResetToken(tokenString string) (int, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(os.Getenv("SECRET")), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != resetTokenPurpose {
		return 0, false
	}

	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return int(id), true
}
