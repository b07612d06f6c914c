package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"attune/internal/models"
)

// CheckinRequest is the payload for creating a check-in record
type CheckinRequest struct {
	ChildEmail      string   `json:"childEmail"`
	ChildName       string   `json:"childName,omitempty"`
	Goal            string   `json:"goal,omitempty"`
	Activity        string   `json:"activity,omitempty"`
	CompletionScore int      `json:"completionScore"`
	MoodScore       int      `json:"moodScore"`
	SleepHours      *float64 `json:"sleepHours,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	CheckinDate     string   `json:"checkinDate,omitempty"`
}

// ListOptions narrows ListCheckins results. Zero values mean "no filter".
type ListOptions struct {
	Goal  string
	Since string
	Until string
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the Attune server, attaching the bearer token from its
// token store when one is available.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *TokenStore
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, store *TokenStore) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
	}
}

// StartOTP requests a one-time code for the given email
func (c *Client) StartOTP(ctx context.Context, email, redirectTo string) error {
	payload := map[string]string{"email": email}
	if redirectTo != "" {
		payload["redirectTo"] = redirectTo
	}
	return c.do(ctx, http.MethodPost, "/otp/start", payload, nil)
}

// VerifyOTP exchanges an email and code for a session, which is persisted to
// the token store for subsequent calls.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	var result struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	}

	payload := map[string]string{"email": email, "token": code}
	if err := c.do(ctx, http.MethodPost, "/otp/verify", payload, &result); err != nil {
		return err
	}
	return c.store.SetSession(result.AccessToken, result.ExpiresIn)
}

// SignOut clears the persisted session
func (c *Client) SignOut() error {
	return c.store.Clear()
}

// ListCheckins fetches the check-in history for a child, oldest first
func (c *Client) ListCheckins(ctx context.Context, childEmail string, opts ListOptions) ([]models.CheckinRecord, error) {
	query := url.Values{}
	query.Set("childEmail", childEmail)
	if opts.Goal != "" {
		query.Set("goal", opts.Goal)
	}
	if opts.Since != "" {
		query.Set("since", opts.Since)
	}
	if opts.Until != "" {
		query.Set("until", opts.Until)
	}

	var result struct {
		Rows []models.CheckinRecord `json:"rows"`
	}
	if err := c.do(ctx, http.MethodGet, "/checkins?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// CreateCheckin saves a new check-in record and returns its ID
func (c *Client) CreateCheckin(ctx context.Context, checkin CheckinRequest) (int64, error) {
	var result struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/checkins", checkin, &result); err != nil {
		return 0, err
	}
	return result.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, result interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		message := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
