package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *TokenStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := newTestStore(t)
	return NewClient(server.URL, store), store
}

func TestVerifyOTPStoresSession(t *testing.T) {
	c, store := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/otp/verify" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req["email"] != "parent@example.com" || req["token"] != "123456" {
			t.Errorf("Unexpected payload: %v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accessToken": "minted-token",
			"expiresIn":   3600,
		})
	})

	if err := c.VerifyOTP(context.Background(), "parent@example.com", "123456"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if got := store.Token(); got != "minted-token" {
		t.Errorf("Expected session persisted, got token %q", got)
	}
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	c, store := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"rows": []interface{}{}})
	})

	if err := store.SetSession("abc123", 3600); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	if _, err := c.ListCheckins(context.Background(), "kid@example.com", ListOptions{}); err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Errorf("Expected bearer token attached, got %q", gotAuth)
	}
}

func TestClientOmitsExpiredToken(t *testing.T) {
	var gotAuth string
	c, store := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"rows": []interface{}{}})
	})

	if err := store.SetSession("abc123", -1); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	if _, err := c.ListCheckins(context.Background(), "kid@example.com", ListOptions{}); err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Expected no Authorization header for expired session, got %q", gotAuth)
	}
}

func TestListCheckinsQueryParameters(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("childEmail") != "kid@example.com" || q.Get("goal") != "reading" ||
			q.Get("since") != "2025-06-01" || q.Get("until") != "2025-06-30" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rows": []map[string]interface{}{
				{"id": 1, "childEmail": "kid@example.com", "completionScore": 4, "moodScore": 5},
			},
		})
	})

	rows, err := c.ListCheckins(context.Background(), "kid@example.com", ListOptions{
		Goal:  "reading",
		Since: "2025-06-01",
		Until: "2025-06-30",
	})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != 1 || rows[0].MoodScore != 5 {
		t.Errorf("Unexpected rows: %+v", rows)
	}
}

func TestCreateCheckin(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkins" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "id": 42})
	})

	id, err := c.CreateCheckin(context.Background(), CheckinRequest{
		ChildEmail:      "kid@example.com",
		CompletionScore: 4,
		MoodScore:       5,
	})
	if err != nil {
		t.Fatalf("CreateCheckin failed: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected ID 42, got %d", id)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "childEmail is required"})
	})

	_, err := c.ListCheckins(context.Background(), "", ListOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "childEmail is required" {
		t.Errorf("Unexpected APIError: %+v", apiErr)
	}
}

func TestSignOutClearsSession(t *testing.T) {
	store := newTestStore(t)
	c := NewClient("http://localhost:8080", store)

	if err := store.SetSession("abc123", 3600); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	if err := c.SignOut(); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if got := store.Token(); got != "" {
		t.Errorf("Expected cleared session, got token %q", got)
	}
}
