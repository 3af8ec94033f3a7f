package account

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/folioworks/folio/handler"
	"github.com/folioworks/folio/pkg/auth"
	"github.com/folioworks/folio/pkg/logger"
	"github.com/folioworks/folio/pkg/requestid"
)

type handlers struct {
	cfg   Config
	svc   *auth.Service
	oauth *auth.OAuthFlow
	log   *slog.Logger
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ProviderRequest struct {
	Provider string `path:"provider"`
}

// SocialLinks maps a network name to the creator's handle or URL on it.
type SocialLinks map[string]string

func (h *handlers) login(ctx handler.Context, req LoginRequest) handler.Response {
	res, err := h.svc.LoginWithCredential(ctx, req.Email, req.Password)
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.WithCookies(handler.JSON(res), h.sessionCookies(res.Tokens)...)
}

func (h *handlers) signup(ctx handler.Context, req SignupRequest) handler.Response {
	v := handler.NewValidationError()
	email := auth.NormalizeEmail(req.Email)
	switch {
	case email == "":
		v.Add("email", "is required")
	case !auth.ValidEmail(email):
		v.Add("email", "must be a valid email address")
	}
	if req.Password == "" {
		v.Add("password", "is required")
	}
	if err := v.Err(); err != nil {
		return handler.JSONError(err)
	}

	identity, err := h.svc.RegisterWithCredential(ctx, email, req.Password, req.Fullname)
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.JSON(identity, handler.WithJSONStatus(http.StatusCreated))
}

func (h *handlers) oauthLogin(ctx handler.Context, req ProviderRequest) handler.Response {
	url, err := h.oauth.Begin(ctx, req.Provider)
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.Redirect(url)
}

type callbackResponse struct {
	Success bool              `json:"success"`
	Data    *auth.LoginResult `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (h *handlers) oauthCallback(ctx handler.Context, req ProviderRequest) handler.Response {
	q := ctx.Request().URL.Query()
	res, err := h.oauth.Complete(ctx, req.Provider, q.Get("code"), q.Get("state"))
	if err != nil {
		status, msg := http.StatusUnauthorized, msgAuthFailed
		switch {
		case errors.Is(err, auth.ErrUnknownProvider):
			status, msg = http.StatusBadRequest, msgInvalidProvider
		case !isOAuthRejection(err):
			h.logError(ctx, "oauth callback failed", err, logger.Provider(req.Provider))
		}
		return handler.JSONBody(callbackResponse{Error: msg}, handler.WithJSONStatus(status))
	}
	return handler.WithCookies(
		handler.JSONBody(callbackResponse{Success: true, Data: res}),
		h.sessionCookies(res.Tokens)...,
	)
}

// isOAuthRejection reports failures caused by the provider or the user agent
// rather than by our own infrastructure.
func isOAuthRejection(err error) bool {
	return errors.Is(err, auth.ErrInvalidState) ||
		errors.Is(err, auth.ErrInvalidCode) ||
		errors.Is(err, auth.ErrNormalization) ||
		errors.Is(err, auth.ErrBadRequest) ||
		errors.Is(err, auth.ErrUnauthorized) ||
		errors.Is(err, auth.ErrConflict)
}

type errorMessage struct {
	Error string `json:"error"`
}

func (h *handlers) refresh(ctx handler.Context, req RefreshRequest) handler.Response {
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if c, err := ctx.Request().Cookie(RefreshTokenCookie); err == nil {
			token = c.Value
		}
	}
	invalid := handler.JSONBody(errorMessage{Error: msgInvalidRefreshToken}, handler.WithJSONStatus(http.StatusUnauthorized))
	if token == "" {
		return invalid
	}

	tokens, err := h.svc.RefreshToken(ctx, token)
	if err != nil {
		return h.fail(ctx, err)
	}
	if tokens == nil {
		return invalid
	}
	return handler.WithCookies(handler.JSON(tokens), h.sessionCookies(*tokens)...)
}

func (h *handlers) validate(ctx handler.Context, _ struct{}) handler.Response {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return handler.JSONError(handler.ErrUnauthorized.WithMessage(auth.MsgNoToken))
	}
	return handler.JSON(identity)
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *handlers) logout(ctx handler.Context, _ struct{}) handler.Response {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return handler.JSONError(handler.ErrUnauthorized.WithMessage(auth.MsgNoToken))
	}
	if err := h.svc.Logout(ctx, identity.ID); err != nil {
		return h.fail(ctx, err)
	}
	return handler.WithCookies(handler.JSONBody(successResponse{Success: true}), h.clearCookies()...)
}

func (h *handlers) updateSocialLinks(ctx handler.Context, links SocialLinks) handler.Response {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return handler.JSONError(handler.ErrUnauthorized.WithMessage(auth.MsgNoToken))
	}
	updated, err := h.svc.UpdateSocialLinks(ctx, identity.ID, links)
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.JSON(updated)
}

// fail renders err through toHTTPError. Unmapped errors are logged since
// their cause is hidden from the client.
func (h *handlers) fail(ctx handler.Context, err error) handler.Response {
	mapped := toHTTPError(err)
	var httpErr handler.HTTPError
	if !errors.As(mapped, &httpErr) {
		h.logError(ctx, "request failed", err)
	}
	return handler.JSONError(mapped)
}

func (h *handlers) logError(ctx handler.Context, msg string, err error, attrs ...slog.Attr) {
	r := ctx.Request()
	attrs = append(attrs,
		logger.RequestID(requestid.FromContext(ctx)),
		logger.Error(err),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	h.log.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
