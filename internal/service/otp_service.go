package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"attune/internal/repository"
	"attune/internal/security"
	"attune/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCode  = errors.New("invalid or expired code")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// RateLimitedError is returned when an email has requested codes too
// quickly. RetryAfter tells the caller when the next request may succeed.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many code requests, retry in %s", e.RetryAfter.Round(time.Second))
}

// Mailer delivers one-time passcodes. Satisfied by *EmailService; tests
// substitute a recording fake.
type Mailer interface {
	SendOTPEmail(ctx context.Context, toEmail, code, magicLink string) error
}

// Session is the result of a successful code verification
type Session struct {
	UserID      string
	AccessToken string
	ExpiresIn   int // seconds
}

// OTPService implements passwordless sign-in: it issues short-lived email
// codes, exchanges them for signed access tokens, and resolves those tokens
// back to user identities.
type OTPService struct {
	userRepo      *repository.UserRepository
	challengeRepo *repository.ChallengeRepository
	mailer        Mailer
	limiter       *security.RateLimiter
	jwtSecret     []byte
	otpTTL        time.Duration
	tokenTTL      time.Duration
	appBaseURL    string
}

// NewOTPService creates a new OTP service
func NewOTPService(
	userRepo *repository.UserRepository,
	challengeRepo *repository.ChallengeRepository,
	mailer Mailer,
	jwtSecret []byte,
	otpTTL, tokenTTL, resendInterval time.Duration,
	appBaseURL string,
) *OTPService {
	return &OTPService{
		userRepo:      userRepo,
		challengeRepo: challengeRepo,
		mailer:        mailer,
		limiter:       security.NewRateLimiter(1, resendInterval),
		jwtSecret:     jwtSecret,
		otpTTL:        otpTTL,
		tokenTTL:      tokenTTL,
		appBaseURL:    appBaseURL,
	}
}

// Start issues a one-time passcode to the given email address. The account
// is created implicitly if it does not exist yet; there is no separate
// signup flow. Issuing a new code invalidates any earlier unconsumed one.
func (s *OTPService) Start(ctx context.Context, email, redirectTo string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	if !s.limiter.Allow(email) {
		return &RateLimitedError{RetryAfter: s.limiter.RetryAfter(email)}
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		if _, err := s.userRepo.CreateUser(email); err != nil {
			return fmt.Errorf("failed to provision user: %w", err)
		}
	}

	code, err := security.GenerateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	expiresAt := time.Now().Add(s.otpTTL)
	if _, err := s.challengeRepo.CreateChallenge(email, string(codeHash), expiresAt); err != nil {
		return err
	}

	if err := s.mailer.SendOTPEmail(ctx, email, code, s.magicLink(email, code, redirectTo)); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}

	return nil
}

// magicLink builds a one-click sign-in URL pointing at the verify-redirect
// endpoint. Empty when no redirect target is configured, in which case the
// email carries the code only.
func (s *OTPService) magicLink(email, code, redirectTo string) string {
	if redirectTo == "" || s.appBaseURL == "" {
		return ""
	}
	params := url.Values{}
	params.Set("email", email)
	params.Set("token", code)
	params.Set("redirect_to", redirectTo)
	return s.appBaseURL + "/otp/callback?" + params.Encode()
}

// Verify exchanges an email and code for a signed access token. Codes are
// single-use: a second verify with the same code fails even if the first
// one has not expired.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*Session, error) {
	challenge, err := s.challengeRepo.GetActiveChallenge(email)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.IsExpired() {
		return nil, ErrInvalidCode
	}

	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
		return nil, ErrInvalidCode
	}

	// Consume before minting: a concurrent verify with the same code loses
	// the update race and fails.
	consumed, err := s.challengeRepo.ConsumeChallenge(challenge.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrInvalidCode
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		// The user row is created at issuance, so this indicates a fault,
		// but provision rather than strand a verified caller.
		user, err = s.userRepo.CreateUser(email)
		if err != nil {
			return nil, fmt.Errorf("failed to provision user: %w", err)
		}
	}

	token, err := s.mintToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mint token: %w", err)
	}
	if token == "" {
		return nil, errors.New("minted an empty access token")
	}

	return &Session{
		UserID:      user.ID,
		AccessToken: token,
		ExpiresIn:   int(s.tokenTTL.Seconds()),
	}, nil
}

// mintToken creates a signed HS256 access token for a user
func (s *OTPService) mintToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ResolveToken validates an access token and returns the user ID it was
// minted for. The token is verified on every call; nothing is cached
// between requests.
func (s *OTPService) ResolveToken(token string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	claims := &jwt.RegisteredClaims{}

	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// CleanupExpiredChallenges removes challenges past their expiry
func (s *OTPService) CleanupExpiredChallenges() error {
	return s.challengeRepo.DeleteExpiredChallenges()
}
