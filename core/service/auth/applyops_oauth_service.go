package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"applyops_server/adapter/out/persistence"
	"applyops_server/core/domain"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/logger"
)

// ErrReauthRequired indicates the stored Google token is permanently
// invalid and the user must go through consent again.
var ErrReauthRequired = apperr.New(apperr.CodeOAuthFailed, "google connection expired, please reconnect", 401)

// tokenExpiryBuffer refreshes tokens slightly before they actually expire.
const tokenExpiryBuffer = 5 * time.Minute

const stateTTL = 10 * time.Minute

// OAuthService implements in.OAuthService for Google.
type OAuthService struct {
	oauthRepo    out.OAuthRepository
	userRepo     out.UserRepository
	googleConfig *oauth2.Config
	jwtSecret    []byte
	jwtExpiry    time.Duration
	log          *logger.Logger
}

func NewOAuthService(
	oauthRepo out.OAuthRepository,
	userRepo out.UserRepository,
	clientID, clientSecret, redirectURL string,
	jwtSecret string,
	jwtExpiry time.Duration,
) in.OAuthService {
	var cfg *oauth2.Config
	if clientID != "" && clientSecret != "" {
		cfg = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/gmail.readonly",
				"https://www.googleapis.com/auth/calendar.events",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return &OAuthService{
		oauthRepo:    oauthRepo,
		userRepo:     userRepo,
		googleConfig: cfg,
		jwtSecret:    []byte(jwtSecret),
		jwtExpiry:    jwtExpiry,
		log:          logger.Default().WithField("component", "oauth"),
	}
}

func (s *OAuthService) GetAuthURL(ctx context.Context, userID *uuid.UUID) (string, error) {
	if s.googleConfig == nil {
		return "", apperr.ConfigError("google oauth not configured")
	}
	state, err := s.signState(userID)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return s.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (s *OAuthService) HandleCallback(ctx context.Context, code, state string) (*in.AuthResponse, error) {
	if s.googleConfig == nil {
		return nil, apperr.ConfigError("google oauth not configured")
	}

	linkUserID, err := s.verifyState(state)
	if err != nil {
		return nil, apperr.InvalidToken("invalid oauth state")
	}

	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.OAuthFailed("google", err)
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, apperr.OAuthFailed("google", err)
	}

	user, err := s.resolveUser(ctx, linkUserID, info)
	if err != nil {
		return nil, err
	}

	conn := &domain.OAuthConnection{
		UserID:       user.ID,
		Provider:     domain.ProviderGoogle,
		Email:        info.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		IsConnected:  true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.oauthRepo.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("store connection: %w", err)
	}
	s.log.WithField("user_id", user.ID.String()).Info("google connection established")

	sessionToken, err := IssueToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &in.AuthResponse{Token: sessionToken, User: user}, nil
}

// resolveUser links the Google identity to an account: the explicitly
// requested user when state carried one, else an existing account by
// google id or email, else a fresh account.
func (s *OAuthService) resolveUser(ctx context.Context, linkUserID *uuid.UUID, info *googleUserInfo) (*domain.User, error) {
	now := time.Now()

	if linkUserID != nil {
		user, err := s.userRepo.GetByID(ctx, *linkUserID)
		if err != nil {
			return nil, fmt.Errorf("get linking user: %w", err)
		}
		user.GoogleID = &info.ID
		if user.AvatarURL == nil && info.Picture != "" {
			user.AvatarURL = &info.Picture
		}
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		return user, nil
	}

	if user, err := s.userRepo.GetByGoogleID(ctx, info.ID); err == nil {
		return user, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("get user by google id: %w", err)
	}

	if user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(info.Email)); err == nil {
		user.GoogleID = &info.ID
		if user.AvatarURL == nil && info.Picture != "" {
			user.AvatarURL = &info.Picture
		}
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		return user, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(info.Email),
		GoogleID:  &info.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if info.Name != "" {
		user.Name = &info.Name
	}
	if info.Picture != "" {
		user.AvatarURL = &info.Picture
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetOAuth2Token returns a usable token, refreshing it when it expires
// within the buffer window. A permanently revoked refresh token marks
// the connection disconnected and surfaces ErrReauthRequired.
func (s *OAuthService) GetOAuth2Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	conn, err := s.oauthRepo.GetByUser(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrReauthRequired
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if !conn.IsConnected {
		return nil, ErrReauthRequired
	}

	if time.Until(conn.ExpiresAt) >= tokenExpiryBuffer {
		return &oauth2.Token{
			AccessToken:  conn.AccessToken,
			RefreshToken: conn.RefreshToken,
			Expiry:       conn.ExpiresAt,
			TokenType:    "Bearer",
		}, nil
	}

	source := s.googleConfig.TokenSource(ctx, &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.ExpiresAt,
	})
	fresh, err := source.Token()
	if err != nil {
		if isPermanentTokenError(err) {
			s.log.WithField("user_id", userID.String()).WithError(err).Warn("google token revoked, disconnecting")
			if dcErr := s.oauthRepo.Disconnect(ctx, userID, domain.ProviderGoogle); dcErr != nil {
				s.log.WithError(dcErr).Error("failed to mark connection disconnected")
			}
			return nil, ErrReauthRequired
		}
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	conn.AccessToken = fresh.AccessToken
	if fresh.RefreshToken != "" {
		conn.RefreshToken = fresh.RefreshToken
	}
	conn.ExpiresAt = fresh.Expiry
	conn.UpdatedAt = time.Now()
	if err := s.oauthRepo.UpdateTokens(ctx, conn); err != nil {
		return nil, fmt.Errorf("store refreshed token: %w", err)
	}

	return fresh, nil
}

func (s *OAuthService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	if err := s.oauthRepo.Disconnect(ctx, userID, domain.ProviderGoogle); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return apperr.NotFound("google connection")
		}
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (s *OAuthService) Status(ctx context.Context, userID uuid.UUID) (*in.OAuthStatus, error) {
	conn, err := s.oauthRepo.GetByUser(ctx, userID, domain.ProviderGoogle)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return &in.OAuthStatus{Connected: false}, nil
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if !conn.IsConnected {
		return &in.OAuthStatus{Connected: false}, nil
	}
	expires := conn.ExpiresAt
	return &in.OAuthStatus{Connected: true, Email: conn.Email, ExpiresAt: &expires}, nil
}

// isPermanentTokenError checks for Google errors that mean the refresh
// token itself is dead.
func isPermanentTokenError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "invalid_client") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "Token has been expired or revoked") ||
		strings.Contains(errStr, "Token has been revoked")
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *OAuthService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := s.googleConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.New("userinfo response missing email")
	}
	return &info, nil
}

// signState embeds the optional linking user into a short-lived JWT so
// the callback cannot be replayed or pointed at another account.
func (s *OAuthService) signState(userID *uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"purpose": "oauth_state",
		"nonce":   uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(stateTTL).Unix(),
	}
	if userID != nil {
		claims["link_user"] = userID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *OAuthService) verifyState(state string) (*uuid.UUID, error) {
	parsed, err := jwt.Parse(state, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid state: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != "oauth_state" {
		return nil, errors.New("invalid state claims")
	}
	if raw, ok := claims["link_user"].(string); ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid link user: %w", err)
		}
		return &id, nil
	}
	return nil, nil
}
