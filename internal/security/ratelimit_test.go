package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("parent@example.com") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow("parent@example.com") {
		t.Error("Fourth request should be denied")
	}
}

func TestRateLimiterSeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("first@example.com") {
		t.Error("First key should be allowed")
	}
	if !rl.Allow("second@example.com") {
		t.Error("Second key should not be affected by first key's bucket")
	}
	if rl.Allow("first@example.com") {
		t.Error("First key should be exhausted")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)

	if !rl.Allow("parent@example.com") {
		t.Fatal("First request should be allowed")
	}
	if rl.Allow("parent@example.com") {
		t.Fatal("Second request should be denied")
	}

	time.Sleep(60 * time.Millisecond)

	if !rl.Allow("parent@example.com") {
		t.Error("Request after window should be allowed")
	}
}

func TestRateLimiterRetryAfter(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	// Unknown key still yields a usable Retry-After value
	if got := rl.RetryAfter("unknown@example.com"); got < time.Second {
		t.Errorf("Expected at least 1s for unknown key, got %v", got)
	}

	rl.Allow("parent@example.com")
	got := rl.RetryAfter("parent@example.com")
	if got < time.Second || got > time.Minute {
		t.Errorf("Expected retry between 1s and the window, got %v", got)
	}
}

func TestGenerateOTPCode(t *testing.T) {
	code, err := GenerateOTPCode()
	if err != nil {
		t.Fatalf("Failed to generate code: %v", err)
	}

	if len(code) != OTPCodeLength {
		t.Errorf("Expected %d digits, got %d", OTPCodeLength, len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("Expected digits only, got %q", code)
			break
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.10:54321",
			want:       "192.168.1.10:54321",
		},
		{
			name:       "x-forwarded-for takes precedence",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/checkins", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %s, want %s", got, tt.want)
			}
		})
	}
}
