package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/safespace-app/safespace-api/config"
	"github.com/safespace-app/safespace-api/internal/domain/entity"
	repo "github.com/safespace-app/safespace-api/internal/domain/repository"
	"github.com/safespace-app/safespace-api/pkg/helpers"
	"github.com/safespace-app/safespace-api/pkg/mailer"
	tpl "github.com/safespace-app/safespace-api/pkg/mailer/templates"
)

// emailRe matches the local@domain.tld shape used for the emergency
// contact field.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// AuthService is the session client: sign-up, sign-in, OAuth, sign-out,
// password reset/update, and the profile operations the dashboard needs.
// Redis, Pub, GCS, and OAuth may be nil in tests; each dependent feature
// degrades rather than panics.
type AuthService struct {
	Identities repo.IdentityRepository
	Users      repo.UserRepository
	JWT        *helpers.JWTManager
	Redis      *redis.Client
	Logger     *logrus.Logger
	Cfg        *config.Config
	Pub        *helpers.RabbitPublisher
	OAuth      *oauth2.Config
	GCS        *storage.Client
	GCSBucket  string
}

func sessionKey(userID string) string { return "user:session:" + userID }
func resetTokenKey(t string) string   { return "pwd:reset:token:" + t }

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type SignUpInput struct {
	Email                 string
	Password              string
	FullName              string
	UserType              string
	Phone                 string
	EmergencyContactEmail string
}

// SignUp creates an identity record and a corresponding profile row.
// The emergency contact is validated before any write; its failure is
// field-scoped. When the profile insert fails after the identity was
// created, a best-effort compensating delete of the identity runs and
// ErrProfilePersist is surfaced either way.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*entity.User, error) {
	if strings.TrimSpace(in.EmergencyContactEmail) == "" {
		return nil, &FieldError{Field: "emergency_contact_email", Message: "Emergency contact email is required"}
	}
	if !ValidEmail(in.EmergencyContactEmail) {
		return nil, &FieldError{Field: "emergency_contact_email", Message: "Please enter a valid email address"}
	}
	if !ValidEmail(in.Email) {
		return nil, &FieldError{Field: "email", Message: "Please enter a valid email address"}
	}

	if existing, _ := s.Identities.GetByEmail(in.Email); existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	identity := &entity.Identity{Email: in.Email, PasswordHash: hash}
	if err := s.Identities.Create(identity); err != nil {
		return nil, err
	}

	u := &entity.User{
		ID:                    identity.ID,
		Email:                 in.Email,
		FullName:              optional(in.FullName),
		UserType:              optional(in.UserType),
		Phone:                 optional(in.Phone),
		EmergencyContactEmail: optional(in.EmergencyContactEmail),
	}
	if err := s.Users.Create(u); err != nil {
		// Partial failure: identity exists, profile missing. Remove the
		// orphan so the email can sign up again; report the failure
		// regardless of the cleanup outcome.
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("identity_id", identity.ID).Error("profile insert failed after identity creation")
		}
		if derr := s.Identities.Delete(identity.ID); derr != nil && s.Logger != nil {
			s.Logger.WithError(derr).WithField("identity_id", identity.ID).Error("orphaned identity cleanup failed")
		}
		return nil, ErrProfilePersist
	}

	return u, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Authenticate validates email/password without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.Identity, error) {
	id, err := s.Identities.GetByEmail(email)
	if err != nil || id == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(id.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return id, nil
}

// IssueTokens generates the access/refresh pair and records a session
// hash in Redis. The session hash is the process-local cache the
// dashboard reads; it is refreshed by explicit re-fetch after mutations.
func (s *AuthService) IssueTokens(ctx context.Context, userID string) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    userID,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		if u, uerr := s.Users.GetByID(userID); uerr == nil && u != nil {
			fields["email"] = u.Email
			fields["name"] = u.DisplayName()
		}
		key := sessionKey(userID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// SignIn establishes a session. Bad credentials yield ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	id, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, id.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	resp := &LoginResponse{UserID: id.ID, Email: id.Email}
	if u, uerr := s.Users.GetByID(id.ID); uerr == nil && u != nil {
		resp.Name = u.DisplayName()
	}
	return resp, pair, nil
}

// Refresh redeems a refresh token for a fresh cookie pair. The token's
// session id must still match the stored session hash; a superseded or
// signed-out session cannot be refreshed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, herr := s.Redis.HGetAll(ctx, sessionKey(claims.UserID)).Result()
		if herr != nil || len(data) == 0 {
			return TokenPair{}, "", ErrSessionRequired
		}
		if sid := data["sid"]; sid != "" && sid != claims.SessionID {
			return TokenPair{}, "", ErrSessionRequired
		}
	}
	pair, err := s.IssueTokens(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, claims.UserID, nil
}

// SignOut destroys the session. Idempotent: a missing session is not an
// error.
func (s *AuthService) SignOut(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Debug("session delete failed")
	}
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ResetPassword triggers an out-of-band reset email. It reports success
// for unknown accounts too; existence is never disclosed.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	id, _ := s.Identities.GetByEmail(email)
	if id == nil || s.Redis == nil {
		return nil
	}

	tok, err := genToken(32)
	if err != nil {
		// Still report success to the caller; log the real failure.
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("reset token generation failed")
		}
		return nil
	}
	s.Redis.Set(ctx, resetTokenKey(tok), id.ID, 30*time.Minute)

	if s.Pub != nil && s.Cfg != nil && s.Cfg.MailSendEnabled {
		link := s.Cfg.ResetPasswordURL + "?token=" + tok
		name := "there"
		if u, uerr := s.Users.GetByID(id.ID); uerr == nil && u != nil {
			name = u.DisplayName()
		}
		data := tpl.NewAlertEmailData("", name,
			tpl.WithResetURL(link),
			tpl.WithExpiresIn(30*time.Minute),
		)
		job := mailer.EmailJob{To: id.Email, Template: tpl.PasswordReset, Data: tpl.ToMap(data)}
		if perr := s.Pub.PublishJSON(ctx, job); perr != nil && s.Logger != nil {
			s.Logger.WithError(perr).Warn("failed to enqueue reset email")
		}
	}
	return nil
}

// ConfirmPasswordReset exchanges a reset token for a new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if s.Redis == nil {
		return ErrInvalidCredentials
	}
	uid, err := s.Redis.Get(ctx, resetTokenKey(token)).Result()
	if err != nil || uid == "" {
		return ErrInvalidCredentials
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Identities.UpdatePassword(uid, hash); err != nil {
		return err
	}
	s.Redis.Del(ctx, resetTokenKey(token))
	return nil
}

// UpdatePassword requires an active session.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if userID == "" {
		return ErrSessionRequired
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Identities.UpdatePassword(userID, hash)
}

// OAuthURL returns the third-party consent URL. The browser navigates
// there; the callback handler finishes the flow.
func (s *AuthService) OAuthURL(state string) string {
	if s.OAuth == nil {
		return ""
	}
	return s.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

type oauthUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// OAuthCallback exchanges the consent code, upserts identity and profile,
// and establishes a session.
func (s *AuthService) OAuthCallback(ctx context.Context, code string) (*LoginResponse, TokenPair, error) {
	if s.OAuth == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	tok, err := s.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	info, err := fetchOAuthUserInfo(ctx, s.OAuth.Client(ctx, tok))
	if err != nil || info.Email == "" {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	identity, _ := s.Identities.GetByEmail(info.Email)
	if identity == nil {
		// Provider-verified account; local password is random and unused.
		random, rerr := genToken(24)
		if rerr != nil {
			return nil, TokenPair{}, rerr
		}
		hash, herr := helpers.HashPassword(random)
		if herr != nil {
			return nil, TokenPair{}, herr
		}
		identity = &entity.Identity{Email: info.Email, PasswordHash: hash}
		if cerr := s.Identities.Create(identity); cerr != nil {
			return nil, TokenPair{}, cerr
		}
		u := &entity.User{
			ID:        identity.ID,
			Email:     info.Email,
			FullName:  optional(info.Name),
			AvatarURL: optional(info.Picture),
		}
		if cerr := s.Users.Create(u); cerr != nil {
			if s.Logger != nil {
				s.Logger.WithError(cerr).WithField("identity_id", identity.ID).Error("profile insert failed after oauth identity creation")
			}
			if derr := s.Identities.Delete(identity.ID); derr != nil && s.Logger != nil {
				s.Logger.WithError(derr).Error("orphaned identity cleanup failed")
			}
			return nil, TokenPair{}, ErrProfilePersist
		}
	}

	pair, err := s.IssueTokens(ctx, identity.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	resp := &LoginResponse{UserID: identity.ID, Email: identity.Email, Name: info.Name}
	return resp, pair, nil
}

func fetchOAuthUserInfo(ctx context.Context, client *http.Client) (*oauthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	info := &oauthUserInfo{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetProfile fetches the profile for the current session.
func (s *AuthService) GetProfile(userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	FullName string
	Phone    string
	UserType string
}

// UpdateProfile writes profile fields, refreshes updated_at, and
// refreshes the cached session hash so the shell re-fetch sees the new
// name.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Users.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if v := optional(in.FullName); v != nil {
		u.FullName = v
	}
	if v := optional(in.Phone); v != nil {
		u.Phone = v
	}
	if v := optional(in.UserType); v != nil {
		u.UserType = v
	}
	if err := s.Users.Update(u); err != nil {
		return nil, err
	}

	s.refreshSessionProfile(ctx, u)
	return u, nil
}

// CompleteName is the profile-completion save: it writes full_name only.
func (s *AuthService) CompleteName(ctx context.Context, userID, fullName string) (*entity.User, error) {
	if strings.TrimSpace(fullName) == "" {
		return nil, &FieldError{Field: "full_name", Message: "Name is required"}
	}
	return s.UpdateProfile(ctx, userID, UpdateProfileInput{FullName: fullName})
}

// UploadAvatar stores an avatar in GCS and updates the profile reference.
func (s *AuthService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", ErrUserNotFound
	}
	u, err := s.Users.GetByID(userID)
	if err != nil || u == nil {
		return "", ErrUserNotFound
	}
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+strings.ToLower(filepath.Ext(filename))))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = &url
	if err := s.Users.Update(u); err != nil {
		return "", err
	}
	s.refreshSessionProfile(ctx, u)
	return url, nil
}

func (s *AuthService) refreshSessionProfile(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"name":       u.DisplayName(),
		"updated_at": nowRFC3339(),
	})
	if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
		s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
	}
}
