package services

import (
	"fmt"
	"html"
	"log"
	"os"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Mailer is what handlers and triggers need from the email service.
type Mailer interface {
	SendPasswordResetEmail(toEmail string, code string, firstName string) error
	SendAccountApprovedEmail(toEmail string, firstName string, role string) error
	SendFamilyMemberJoinedEmail(toEmail string, firstName string, memberName string, familyName string) error
}

type EmailService struct {
	client *resend.Client
	from   string
}

var emailService *EmailService

// InitEmailService initializes the Resend client. Without RESEND_API_KEY the
// service stays nil and callers skip email.
func InitEmailService() {
	apiKey := os.Getenv("RESEND_API_KEY")

	if apiKey == "" {
		log.Println("WARNING: RESEND_API_KEY not set. Email service will not be available.")
		return
	}

	emailService = &EmailService{
		client: resend.NewClient(apiKey),
		from:   os.Getenv("RESEND_FROM_EMAIL"),
	}

	log.Println("Email service initialized successfully with Resend")
}

func GetEmailService() *EmailService {
	return emailService
}

const emailLayout = `<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; padding: 20px 0; border-bottom: 2px solid #5b7db1; }
        .header h1 { color: #5b7db1; margin: 0; }
        .content { padding: 30px 0; }
        .highlight { background-color: #f5f5f5; border: 2px solid #5b7db1; border-radius: 8px; padding: 20px; text-align: center; margin: 20px 0; font-size: 20px; font-weight: bold; }
        .footer { text-align: center; padding: 20px 0; border-top: 1px solid #ddd; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header"><h1>congregate</h1></div>
    <div class="content">
        <h2>%s</h2>
        %s
        <p>Blessings,<br>Your church family</p>
    </div>
    <div class="footer"><p>This is an automated message, please do not reply directly to this email.</p></div>
</body>
</html>
`

func renderEmail(heading string, paragraphs []string, highlight string) (string, string) {
	var htmlBody, textBody strings.Builder
	textBody.WriteString(heading + "\n\n")
	for _, p := range paragraphs {
		htmlBody.WriteString("<p>" + html.EscapeString(p) + "</p>\n")
		textBody.WriteString(p + "\n\n")
	}
	if highlight != "" {
		htmlBody.WriteString(`<div class="highlight">` + html.EscapeString(highlight) + "</div>\n")
		textBody.WriteString(highlight + "\n\n")
	}
	textBody.WriteString("Blessings,\nYour church family\n")

	return fmt.Sprintf(emailLayout, html.EscapeString(heading), htmlBody.String()), textBody.String()
}

func (s *EmailService) send(template string, toEmail string, subject string, htmlBody string, textBody string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("email service not initialized")
	}

	sent, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		EmailDeliveryFailures.WithLabelValues(template).Inc()
		log.Printf("Failed to send %s email to %s: %v", template, toEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Sent %s email to %s. Email ID: %s", template, toEmail, sent.Id)
	return nil
}

func (s *EmailService) SendPasswordResetEmail(toEmail string, code string, firstName string) error {
	htmlBody, textBody := renderEmail("Password Reset Request", []string{
		fmt.Sprintf("Hi %s,", firstName),
		"We received a request to reset your password. Use the verification code below to finish. It expires in 15 minutes.",
		"If you didn't request a password reset, ignore this email and your password will stay the same.",
	}, code)

	return s.send("password_reset", toEmail, "Reset your password", htmlBody, textBody)
}

func (s *EmailService) SendAccountApprovedEmail(toEmail string, firstName string, role string) error {
	htmlBody, textBody := renderEmail("Your account is approved", []string{
		fmt.Sprintf("Hi %s,", firstName),
		fmt.Sprintf("An administrator approved your account as %s. You can now see the directory, events and announcements.", role),
	}, "")

	return s.send("account_approved", toEmail, "Welcome, your account is approved", htmlBody, textBody)
}

func (s *EmailService) SendFamilyMemberJoinedEmail(toEmail string, firstName string, memberName string, familyName string) error {
	htmlBody, textBody := renderEmail("A new family member joined", []string{
		fmt.Sprintf("Hi %s,", firstName),
		fmt.Sprintf("%s joined %s using your family invite.", memberName, familyName),
		"If you don't recognise this person, rotate the family invite token from the family screen.",
	}, "")

	return s.send("family_member_joined", toEmail, fmt.Sprintf("%s joined %s", memberName, familyName), htmlBody, textBody)
}
