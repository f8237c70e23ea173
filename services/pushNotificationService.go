package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Congregate/initializers"
	"github.com/Congregate/models"
	"github.com/doug-martin/goqu/v9"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

// PushSender is what the notification triggers need from the push service.
type PushSender interface {
	SendNotificationToUsers(ctx context.Context, userIDs []int, payload NotificationPayload) error
}

type PushNotificationService struct {
	fcmClient  *messaging.Client
	httpClient *http.Client
}

type NotificationPayload struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Badge    string            `json:"badge,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

var pushService *PushNotificationService

func InitPushNotificationService() {
	pushService = &PushNotificationService{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	var opts []option.ClientOption
	if path := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		log.Printf("Push: Firebase app init failed, only Expo tokens will be served: %v", err)
		return
	}

	pushService.fcmClient, err = app.Messaging(context.Background())
	if err != nil {
		log.Printf("Push: Firebase messaging client init failed: %v", err)
		return
	}

	log.Println("Push notification service initialized with FCM")
}

func GetPushNotificationService() *PushNotificationService {
	return pushService
}

func (s *PushNotificationService) SendNotificationToUser(ctx context.Context, userID int, payload NotificationPayload) error {
	var tokens []models.PushToken
	err := initializers.DB.From("user_push_tokens").
		Where(goqu.C("user_profile_id").Eq(userID)).
		ScanStructsContext(ctx, &tokens)
	if err != nil {
		return fmt.Errorf("failed to load push tokens for user %d: %w", userID, ClassifyDBError(err))
	}

	if len(tokens) == 0 {
		return nil
	}

	for _, token := range tokens {
		if err := s.sendToToken(ctx, token, payload); err != nil {
			PushDeliveryFailures.Inc()
			log.Printf("Push: delivery to token %s failed: %v", token.Push_Token, err)
		}
	}

	return nil
}

func (s *PushNotificationService) SendNotificationToUsers(ctx context.Context, userIDs []int, payload NotificationPayload) error {
	failed := 0
	for _, userID := range userIDs {
		if err := s.SendNotificationToUser(ctx, userID, payload); err != nil {
			failed++
			log.Printf("Push: notification to user %d failed: %v", userID, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to send notifications to %d of %d users", failed, len(userIDs))
	}
	return nil
}

func (s *PushNotificationService) sendToToken(ctx context.Context, pushToken models.PushToken, payload NotificationPayload) error {
	if strings.HasPrefix(pushToken.Push_Token, "ExponentPushToken[") {
		return s.sendExpoNotification(ctx, pushToken, payload)
	}

	if s.fcmClient == nil {
		return fmt.Errorf("FCM client not initialized")
	}

	message := buildFCMMessage(pushToken, payload)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	id, err := s.fcmClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	log.Printf("Push: FCM message %s sent to user %d", id, pushToken.User_Profile_ID)
	return nil
}

func buildFCMMessage(pushToken models.PushToken, payload NotificationPayload) *messaging.Message {
	message := &messaging.Message{
		Token: pushToken.Push_Token,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	switch pushToken.Platform {
	case "ios":
		message.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: payload.Title, Body: payload.Body},
					Sound: payload.Sound,
				},
			},
		}
		if badge, err := strconv.Atoi(payload.Badge); err == nil {
			message.APNS.Payload.Aps.Badge = &badge
		}
		if payload.Priority == "high" {
			message.APNS.Headers = map[string]string{"apns-priority": "10"}
		}
	case "android":
		message.Android = &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				Title: payload.Title,
				Body:  payload.Body,
				Sound: payload.Sound,
			},
		}
		if payload.Priority == "high" {
			message.Android.Priority = "high"
		}
	}

	return message
}

// sendExpoNotification covers devices running the Expo client, whose
// tokens FCM does not accept.
func (s *PushNotificationService) sendExpoNotification(ctx context.Context, pushToken models.PushToken, payload NotificationPayload) error {
	expoMessage := map[string]interface{}{
		"to":    pushToken.Push_Token,
		"title": payload.Title,
		"body":  payload.Body,
		"data":  payload.Data,
	}
	if payload.Sound != "" {
		expoMessage["sound"] = payload.Sound
	}
	if payload.Priority == "high" {
		expoMessage["priority"] = "high"
	}

	body, err := json.Marshal(expoMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal Expo message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, expoPushURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Expo notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expo push API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
