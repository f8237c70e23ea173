// Package client is a typed client for the Congregate API. Besides the
// request methods it holds the app-state objects a front end needs:
// session, user state, inbox, toasts and the optimistic content stores.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Congregate/apperr"
	"github.com/Congregate/models"
)

// APIError is a non-2xx answer from the API. It unwraps to the matching
// service error so callers can use errors.Is with apperr.ErrNotFound and
// friends.
type APIError struct {
	StatusCode int
	Message    string
	err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

func classifyStatus(status int, message string) error {
	switch {
	case status == http.StatusNotFound:
		return apperr.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.ErrAuthorizationDenied
	case status == http.StatusConflict:
		return apperr.ErrConflict
	case status == http.StatusBadRequest:
		return apperr.NewValidationError("", message)
	case status == http.StatusTooManyRequests || status >= 500:
		return apperr.ErrTransient
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New returns a client for the API at baseURL. Requests carry the session
// token when one is set.
func New(baseURL string, session *Session) *Client {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", apperr.ErrTransient, err)
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", apperr.ErrTransient, err)
	}

	if resp.StatusCode >= 400 {
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		message := string(respBody)
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			message = payload.Error
			if payload.Details != "" {
				message += ": " + payload.Details
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message, err: classifyStatus(resp.StatusCode, message)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type loginResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, email, password string) (models.UserProfile, error) {
	if strings.TrimSpace(email) == "" {
		return models.UserProfile{}, apperr.NewValidationError("email", "is required")
	}
	if password == "" {
		return models.UserProfile{}, apperr.NewValidationError("password", "is required")
	}

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", models.Login{Email: email, Password: password}, &resp)
	if err != nil {
		return models.UserProfile{}, err
	}

	if c.session != nil {
		c.session.Init(resp.Token, resp.User)
	}
	return resp.User, nil
}

func (c *Client) Me(ctx context.Context) (models.CurrentUser, error) {
	var me models.CurrentUser
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &me)
	return me, err
}

func (c *Client) Dashboard(ctx context.Context) (models.Dashboard, error) {
	var dashboard models.Dashboard
	err := c.do(ctx, http.MethodGet, "/dashboard", nil, &dashboard)
	return dashboard, err
}

func (c *Client) ForYou(ctx context.Context) (models.ForYouFeed, error) {
	var feed models.ForYouFeed
	err := c.do(ctx, http.MethodGet, "/dashboard/for-you", nil, &feed)
	return feed, err
}

// DirectoryQuery mirrors the query parameters of GET /directory.
type DirectoryQuery struct {
	Search    string
	Tag_IDs   []int
	Match_All bool
	Role      string
	View      string
}

func (q DirectoryQuery) encode() string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if len(q.Tag_IDs) > 0 {
		ids := make([]string, 0, len(q.Tag_IDs))
		for _, id := range q.Tag_IDs {
			ids = append(ids, strconv.Itoa(id))
		}
		values.Set("tagIds", strings.Join(ids, ","))
	}
	if q.Match_All {
		values.Set("matchAll", "true")
	}
	if q.Role != "" {
		values.Set("role", q.Role)
	}
	if q.View != "" {
		values.Set("view", q.View)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// Directory is the family-grouped or flat directory, depending on View.
type Directory struct {
	View     string                  `json:"view"`
	People   []models.DirectoryEntry `json:"people"`
	Families []models.FamilyGroup    `json:"families"`
	Count    int                     `json:"count"`
}

func (c *Client) Directory(ctx context.Context, query DirectoryQuery) (Directory, error) {
	var directory Directory
	err := c.do(ctx, http.MethodGet, "/directory"+query.encode(), nil, &directory)
	return directory, err
}

func (c *Client) Events(ctx context.Context) ([]models.EventView, error) {
	events := []models.EventView{}
	err := c.do(ctx, http.MethodGet, "/events", nil, &events)
	return events, err
}

func (c *Client) Announcements(ctx context.Context) ([]models.AnnouncementView, error) {
	announcements := []models.AnnouncementView{}
	err := c.do(ctx, http.MethodGet, "/announcements", nil, &announcements)
	return announcements, err
}

func (c *Client) GroupedAnnouncements(ctx context.Context) ([]models.AnnouncementGroup, error) {
	groups := []models.AnnouncementGroup{}
	err := c.do(ctx, http.MethodGet, "/announcements/grouped", nil, &groups)
	return groups, err
}

func (c *Client) UnreadAnnouncementCount(ctx context.Context) (int, error) {
	var resp struct {
		UnreadCount int `json:"unreadCount"`
	}
	err := c.do(ctx, http.MethodGet, "/announcements/unread-count", nil, &resp)
	return resp.UnreadCount, err
}

func (c *Client) SetRsvp(ctx context.Context, eventID int, status string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/events/%d/rsvp", eventID), models.RsvpRequest{Status: status}, nil)
}

func (c *Client) MarkRead(ctx context.Context, announcementID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/announcements/%d/read", announcementID), nil, nil)
}

func (c *Client) Notifications(ctx context.Context, userID int) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/notifications", userID), nil, &notifications)
	return notifications, err
}

func (c *Client) ToggleNotification(ctx context.Context, userID, notificationID int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/notifications/%d", userID, notificationID), nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/notifications/mark-all-read", userID), nil, nil)
}

// CreateFamily calls create_family_for_self and returns the new family.
func (c *Client) CreateFamily(ctx context.Context, req models.FamilyCreate) (models.Family, error) {
	if strings.TrimSpace(req.Family_Name) == "" {
		return models.Family{}, apperr.NewValidationError("familyName", "is required")
	}
	if len(req.Family_Name) > 100 {
		return models.Family{}, apperr.NewValidationError("familyName", "must be at most 100 characters")
	}

	var family models.Family
	err := c.do(ctx, http.MethodPost, "/families", req, &family)
	return family, err
}

// JoinFamily calls join_family_with_token and returns the joined family.
func (c *Client) JoinFamily(ctx context.Context, token string) (models.Family, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Family{}, apperr.NewValidationError("token", "is required")
	}

	var family models.Family
	err := c.do(ctx, http.MethodPost, "/families/join", models.FamilyJoin{Token: token}, &family)
	return family, err
}
