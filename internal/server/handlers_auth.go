package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	user, err := s.svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to issue token")
	}

	zerolog.Ctx(ctx).Info().Str("user_id", user.UserID.String()).Msg("Issued access token")

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        newUserResponse(user),
	})
}

func (s *Server) me(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.ActorFromContext(ctx)

	user, err := s.svc.GetUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}
