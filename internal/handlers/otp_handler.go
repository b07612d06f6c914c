package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"attune/internal/service"
	"attune/internal/validation"
)

// OTPHandler handles passwordless sign-in HTTP requests
type OTPHandler struct {
	otpService      *service.OTPService
	defaultRedirect string
}

// NewOTPHandler creates a new OTP handler
func NewOTPHandler(otpService *service.OTPService, defaultRedirect string) *OTPHandler {
	return &OTPHandler{
		otpService:      otpService,
		defaultRedirect: defaultRedirect,
	}
}

type startRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirectTo"`
}

// Start handles POST /otp/start: triggers delivery of a one-time passcode.
// The response never carries the code.
func (h *OTPHandler) Start(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", "", nil)
		return
	}

	if req.Email == "" {
		respondError(w, http.StatusBadRequest, `Missing or invalid "email"`, "", nil)
		return
	}

	redirectTo := req.RedirectTo
	if redirectTo == "" {
		redirectTo = h.defaultRedirect
	}

	if err := h.otpService.Start(r.Context(), req.Email, redirectTo); err != nil {
		var rateLimited *service.RateLimitedError
		var validationErr validation.ValidationError

		switch {
		case errors.As(err, &rateLimited):
			w.Header().Set("Retry-After", strconv.Itoa(int(rateLimited.RetryAfter.Seconds())))
			respondError(w, http.StatusTooManyRequests, rateLimited.Error(), "", nil)
		case errors.As(err, &validationErr):
			respondError(w, http.StatusBadRequest, validationErr.Message, "", nil)
		default:
			// Surface the cause rather than a generic 500, matching how
			// send failures are reported to callers.
			respondError(w, http.StatusBadRequest, err.Error(), "otp start failed", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type verifyRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Verify handles POST /otp/verify: exchanges an email and code for an
// access token.
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", "", nil)
		return
	}

	if req.Email == "" || req.Token == "" {
		respondError(w, http.StatusBadRequest, "Missing email or token", "", nil)
		return
	}

	session, err := h.otpService.Verify(r.Context(), req.Email, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			respondError(w, http.StatusUnauthorized, err.Error(), "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error", "otp verify failed", err)
		return
	}

	expiresIn := session.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": session.AccessToken,
		"expiresIn":   expiresIn,
	})
}

// Callback handles GET /otp/callback: the magic-link landing. It verifies
// the emailed code and redirects to the requested page with the session in
// the URL fragment, where it stays out of server logs and referrers.
func (h *OTPHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()
	email := query.Get("email")
	token := query.Get("token")
	redirectTo := query.Get("redirect_to")
	if redirectTo == "" {
		redirectTo = h.defaultRedirect
	}

	if email == "" || token == "" {
		respondError(w, http.StatusBadRequest, "Missing email or token", "", nil)
		return
	}

	session, err := h.otpService.Verify(r.Context(), email, token)
	if err != nil {
		if redirectTo != "" {
			http.Redirect(w, r, redirectTo+"#error=invalid_or_expired_code", http.StatusSeeOther)
			return
		}
		if errors.Is(err, service.ErrInvalidCode) {
			respondError(w, http.StatusUnauthorized, err.Error(), "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error", "otp callback failed", err)
		return
	}

	if redirectTo == "" {
		respondError(w, http.StatusBadRequest, "No redirect target for magic link", "", nil)
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", session.AccessToken)
	fragment.Set("token_type", "bearer")
	fragment.Set("expires_in", strconv.Itoa(session.ExpiresIn))

	http.Redirect(w, r, fmt.Sprintf("%s#%s", redirectTo, fragment.Encode()), http.StatusSeeOther)
}
