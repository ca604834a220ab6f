package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/models"
)

func newTestIssuer(t *testing.T, ttl time.Duration) (*TokenIssuer, string) {
	t.Helper()
	privatePEM, publicPEM, err := GenerateSigningKey()
	require.NoError(t, err)

	issuer, err := NewTokenIssuer(privatePEM, "", ttl)
	require.NoError(t, err)
	return issuer, publicPEM
}

func TestNewTokenVerifier(t *testing.T) {
	t.Run("empty public key", func(t *testing.T) {
		v, err := NewTokenVerifier("", "")
		require.Error(t, err)
		require.Nil(t, v)
		require.Equal(t, "JWT public key not provided", err.Error())
	})

	t.Run("invalid PEM", func(t *testing.T) {
		v, err := NewTokenVerifier("invalid pem", "")
		require.Error(t, err)
		require.Nil(t, v)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, publicPEM := newTestIssuer(t, time.Hour)
	verifier, err := NewTokenVerifier(publicPEM, DefaultIssuer)
	require.NoError(t, err)

	orgID := uuid.New()
	user := &models.User{UserID: uuid.New(), OrgID: &orgID, Role: models.RoleProjectManager}

	token, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, orgID.String(), claims.OrgID)
	require.Equal(t, models.RoleProjectManager, claims.Role)
	require.NotEmpty(t, claims.ID)

	subject, err := claims.SubjectID()
	require.NoError(t, err)
	require.Equal(t, user.UserID, subject)
}

func TestVerifyRejects(t *testing.T) {
	issuer, publicPEM := newTestIssuer(t, time.Hour)
	verifier, err := NewTokenVerifier(publicPEM, DefaultIssuer)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		expired, _ := newTestIssuer(t, -time.Minute)
		token, _, err := expired.Issue(&models.User{UserID: uuid.New(), Role: models.RoleSuperAdmin})
		require.NoError(t, err)

		_, err = expired.Verifier().Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other key", func(t *testing.T) {
		other, _ := newTestIssuer(t, time.Hour)
		token, _, err := other.Issue(&models.User{UserID: uuid.New(), Role: models.RoleSuperAdmin})
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		v := issuer.Verifier()
		v.issuer = "someone-else"
		token, _, err := issuer.Issue(&models.User{UserID: uuid.New(), Role: models.RoleSuperAdmin})
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		v := &TokenVerifier{publicKey: &key.PublicKey, issuer: DefaultIssuer}

		token, err := jwt.NewWithClaims(jwt.SigningMethodES256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), Issuer: DefaultIssuer},
		}).SignedString(key)
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("hmac token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    DefaultIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

type stubResolver struct {
	actor *Actor
	err   error
}

func (s stubResolver) ResolveActor(_ context.Context, userID uuid.UUID) (*Actor, error) {
	if s.err != nil {
		return nil, s.err
	}
	a := *s.actor
	a.UserID = userID
	return &a, nil
}

func TestBearerAuth(t *testing.T) {
	issuer, _ := newTestIssuer(t, time.Hour)
	orgID := uuid.New()
	user := &models.User{UserID: uuid.New(), OrgID: &orgID, Role: models.RoleAdmin}
	token, _, err := issuer.Issue(user)
	require.NoError(t, err)

	resolver := stubResolver{actor: &Actor{Role: models.RoleAdmin, OrgID: &orgID, Active: true}}

	var seen *Actor
	handler := BearerAuth(issuer.Verifier(), resolver)(func(c echo.Context) error {
		seen = ActorFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		kind   apperr.Kind
		ok     bool
	}{
		{name: "valid token", header: "Bearer " + token, ok: true},
		{name: "lower case scheme", header: "bearer " + token, ok: true},
		{name: "missing header", header: "", kind: apperr.KindUnauthenticated},
		{name: "basic scheme", header: "Basic abc", kind: apperr.KindUnauthenticated},
		{name: "garbage token", header: "Bearer abc.def.ghi", kind: apperr.KindUnauthenticated},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			err := handler(e.NewContext(req, rec))
			if tt.ok {
				require.NoError(t, err)
				require.NotNil(t, seen)
				require.Equal(t, user.UserID, seen.UserID)
				return
			}
			require.Error(t, err)
			require.Equal(t, tt.kind, apperr.KindOf(err))
			require.Nil(t, seen)
		})
	}

	t.Run("resolver error propagates", func(t *testing.T) {
		h := BearerAuth(issuer.Verifier(), stubResolver{err: apperr.New(apperr.KindUnauthenticated, "user not found")})(
			func(c echo.Context) error { return nil })
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		err := h(e.NewContext(req, httptest.NewRecorder()))
		require.ErrorIs(t, err, apperr.Unauthenticated)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "correct horse"))
	require.False(t, CheckPassword(hash, "wrong horse"))

	_, err = HashPassword("short", 4)
	require.ErrorIs(t, err, ErrPasswordTooShort)
}
