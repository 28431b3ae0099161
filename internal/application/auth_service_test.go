package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safespace-app/safespace-api/internal/domain/entity"
	"github.com/safespace-app/safespace-api/pkg/helpers"
)

type fakeIdentityRepo struct {
	byEmail map[string]*entity.Identity
	nextID  int
	deleted []string
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{byEmail: map[string]*entity.Identity{}}
}

func (r *fakeIdentityRepo) Create(id *entity.Identity) error {
	r.nextID++
	id.ID = "id-" + string(rune('0'+r.nextID))
	r.byEmail[id.Email] = id
	return nil
}

func (r *fakeIdentityRepo) GetByEmail(email string) (*entity.Identity, error) {
	if id, ok := r.byEmail[email]; ok {
		return id, nil
	}
	return nil, errors.New("not found")
}

func (r *fakeIdentityRepo) UpdatePassword(id string, hash string) error {
	for _, v := range r.byEmail {
		if v.ID == id {
			v.PasswordHash = hash
			return nil
		}
	}
	return errors.New("not found")
}

func (r *fakeIdentityRepo) Delete(id string) error {
	for email, v := range r.byEmail {
		if v.ID == id {
			delete(r.byEmail, email)
			r.deleted = append(r.deleted, id)
			return nil
		}
	}
	return errors.New("not found")
}

type fakeUserRepo struct {
	byID       map[string]*entity.User
	failCreate bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(u *entity.User) error {
	if r.failCreate {
		return errors.New("insert failed")
	}
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (r *fakeUserRepo) GetByEmail(email string) (*entity.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *fakeUserRepo) Update(u *entity.User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return errors.New("not found")
	}
	r.byID[u.ID] = u
	return nil
}

func newTestAuthService(ids *fakeIdentityRepo, users *fakeUserRepo) *AuthService {
	return &AuthService{Identities: ids, Users: users}
}

func validSignup() SignUpInput {
	return SignUpInput{
		Email:                 "jamie@example.com",
		Password:              "supersecret",
		FullName:              "Jamie",
		EmergencyContactEmail: "mom@example.com",
	}
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		ok    bool
	}{
		{"jamie@example.com", true},
		{"a@b.co", true},
		{"with+tag@example.org", true},
		{"", false},
		{"no-at-sign.com", false},
		{"missing@domaindot", false},
		{"spaces in@example.com", false},
		{"@example.com", false},
		{"jamie@", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidEmail(tc.email), tc.email)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestAuthService(newFakeIdentityRepo(), newFakeUserRepo())

	in := validSignup()
	in.EmergencyContactEmail = ""
	_, err := svc.SignUp(context.Background(), in)
	fe, ok := AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "emergency_contact_email", fe.Field)

	in = validSignup()
	in.EmergencyContactEmail = "not-an-email"
	_, err = svc.SignUp(context.Background(), in)
	fe, ok = AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "emergency_contact_email", fe.Field)
	assert.Equal(t, "Please enter a valid email address", fe.Message)
}

func TestSignUpCreatesIdentityAndProfile(t *testing.T) {
	ids := newFakeIdentityRepo()
	users := newFakeUserRepo()
	svc := newTestAuthService(ids, users)

	u, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)
	require.NotNil(t, u)

	id, err := ids.GetByEmail("jamie@example.com")
	require.NoError(t, err)
	assert.Equal(t, id.ID, u.ID, "profile id matches identity id")
	assert.True(t, helpers.CompareHashAndPassword(id.PasswordHash, "supersecret"))

	stored, err := users.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jamie", stored.DisplayName())
	require.NotNil(t, stored.EmergencyContactEmail)
	assert.Equal(t, "mom@example.com", *stored.EmergencyContactEmail)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	ids := newFakeIdentityRepo()
	users := newFakeUserRepo()
	svc := newTestAuthService(ids, users)

	_, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), validSignup())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpProfileFailureCleansUpIdentity(t *testing.T) {
	ids := newFakeIdentityRepo()
	users := newFakeUserRepo()
	users.failCreate = true
	svc := newTestAuthService(ids, users)

	_, err := svc.SignUp(context.Background(), validSignup())
	assert.ErrorIs(t, err, ErrProfilePersist)

	// The orphaned identity was removed so the email can retry.
	assert.Len(t, ids.deleted, 1)
	_, gerr := ids.GetByEmail("jamie@example.com")
	assert.Error(t, gerr)
}

func TestAuthenticate(t *testing.T) {
	ids := newFakeIdentityRepo()
	users := newFakeUserRepo()
	svc := newTestAuthService(ids, users)

	_, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	id, err := svc.Authenticate(context.Background(), "jamie@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", id.Email)

	_, err = svc.Authenticate(context.Background(), "jamie@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRoundTrip(t *testing.T) {
	svc := newTestAuthService(newFakeIdentityRepo(), newFakeUserRepo())
	svc.JWT = helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)

	pair, err := svc.IssueTokens(context.Background(), "user-1")
	require.NoError(t, err)

	next, uid, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEmpty(t, next.RefreshToken)

	// An access token is not redeemable as a refresh token.
	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPasswordNeverDisclosesAccounts(t *testing.T) {
	svc := newTestAuthService(newFakeIdentityRepo(), newFakeUserRepo())
	// Unknown address still reports success.
	assert.NoError(t, svc.ResetPassword(context.Background(), "nobody@example.com"))
}

func TestSignOutIsIdempotent(t *testing.T) {
	svc := newTestAuthService(newFakeIdentityRepo(), newFakeUserRepo())
	// No Redis and no session; must not panic or error.
	svc.SignOut(context.Background(), "user-1")
	svc.SignOut(context.Background(), "")
}

func TestUpdatePasswordRequiresSession(t *testing.T) {
	svc := newTestAuthService(newFakeIdentityRepo(), newFakeUserRepo())
	err := svc.UpdatePassword(context.Background(), "", "newpassword")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestUpdateProfileRefreshesFields(t *testing.T) {
	ids := newFakeIdentityRepo()
	users := newFakeUserRepo()
	svc := newTestAuthService(ids, users)

	u, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{
		FullName: "Jamie Q",
		Phone:    "+15551234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jamie Q", updated.DisplayName())
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+15551234567", *updated.Phone)
}

func TestCompleteNameRejectsBlank(t *testing.T) {
	ids := newFakeIdentityRepo()
	users := newFakeUserRepo()
	svc := newTestAuthService(ids, users)

	u, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	_, err = svc.CompleteName(context.Background(), u.ID, "   ")
	fe, ok := AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "full_name", fe.Field)
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc := newTestAuthService(newFakeIdentityRepo(), newFakeUserRepo())
	_, err := svc.GetProfile("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
