package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/trainboard/internal/domain"
	"github.com/oksasatya/trainboard/pkg/helpers"
	"github.com/oksasatya/trainboard/pkg/mailer"
)

func newAuth(t *testing.T) (*AuthService, *memUsers, *recPublisher) {
	t.Helper()
	users := newMemUsers()
	pub := &recPublisher{}
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	return NewAuthService(users, jwt, helpers.NewDiscardLogger(), pub), users, pub
}

func TestSignUp_HashesPasswordAndIssuesTokens(t *testing.T) {
	svc, users, pub := newAuth(t)
	ctx := context.Background()

	tokens, err := svc.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "pw1", Name: "A"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	u, err := users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", u.Password)
	assert.True(t, helpers.CompareHashAndPassword(u.Password, "pw1"))

	id, err := svc.JWT.ParseAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, helpers.Identity{ID: u.ID, Email: "a@b.com", Name: "A"}, id)

	require.Len(t, pub.jobs, 1)
	job, ok := pub.jobs[0].(mailer.EmailJob)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", job.To)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "pw1", Name: "A"})
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, SignUpInput{Email: "A@B.com ", Password: "other", Name: "B"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestSignUp_MissingFields(t *testing.T) {
	svc, _, _ := newAuth(t)
	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "a@b.com", Name: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSignUp_PublisherFailureDoesNotFailSignup(t *testing.T) {
	svc, _, pub := newAuth(t)
	pub.err = errors.New("broker down")

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "a@b.com", Password: "pw1", Name: "A"})
	assert.NoError(t, err)
}

func TestSignIn(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "pw1", Name: "A"})
	require.NoError(t, err)

	tokens, err := svc.SignIn(ctx, "a@b.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.RefreshToken)

	_, err = svc.SignIn(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.SignIn(ctx, "nobody@b.com", "pw1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRefresh(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	tokens, err := svc.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "pw1", Name: "A"})
	require.NoError(t, err)

	out, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	id, err := svc.JWT.ParseAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", id.Email)
}

func TestRefresh_RejectsBadTokens(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	tokens, err := svc.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "pw1", Name: "A"})
	require.NoError(t, err)

	// an access token is signed with the other secret
	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Refresh(ctx, tokens.RefreshToken+"x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	expired, _, err := svc.JWT.Issue(helpers.Identity{ID: 1}, svc.JWT.RefreshSecret, -time.Minute)
	require.NoError(t, err)
	out, err := svc.Refresh(ctx, expired)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, out.AccessToken)
}

func TestRefresh_UserGone(t *testing.T) {
	svc, _, _ := newAuth(t)
	tok, _, err := svc.JWT.Issue(helpers.Identity{ID: 42, Email: "ghost@b.com"}, svc.JWT.RefreshSecret, time.Hour)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
