// Package rest exposes the authentication gateway over HTTP.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/unabstore/shop/internal/auth"
	"github.com/unabstore/shop/pkg/web"
)

type Handler struct {
	gateway auth.Gateway
	logger  *slog.Logger
}

func NewHandler(gateway auth.Gateway, logger *slog.Logger) *Handler {
	return &Handler{gateway: gateway, logger: logger.With("component", "auth")}
}

// RegisterRoutes registers the auth routes under /api/v1/auth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/signout", h.SignOut)
			r.Get("/me", h.Me)
		})
	})
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var dto auth.SignUpDto
	if err := web.DecodeJSON(r, &dto); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.gateway.SignUp(r.Context(), dto)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			h.logger.WarnContext(r.Context(), "Sign up validation failed", "fields", verr.Describe())
			web.RespondValidation(w, h.logger, auth.SignUpMessage(err), verr.Fields)
		case errors.Is(err, auth.ErrAccountExists):
			web.RespondError(w, h.logger, http.StatusConflict, auth.SignUpMessage(err))
		case errors.Is(err, auth.ErrInvalidCredentials):
			web.RespondError(w, h.logger, http.StatusBadRequest, auth.SignUpMessage(err))
		default:
			h.logger.ErrorContext(r.Context(), "Sign up failed", "error", err)
			web.RespondError(w, h.logger, http.StatusBadGateway, auth.SignUpMessage(err))
		}
		return
	}
	h.logger.InfoContext(r.Context(), "Account registered", "user_id", session.Identity.ID)
	web.RespondJSON(w, h.logger, http.StatusCreated, session)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var dto auth.SignInDto
	if err := web.DecodeJSON(r, &dto); err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.gateway.SignIn(r.Context(), dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			web.RespondError(w, h.logger, http.StatusUnauthorized, auth.SignInMessage(err))
			return
		}
		h.logger.ErrorContext(r.Context(), "Sign in failed", "error", err)
		web.RespondError(w, h.logger, http.StatusBadGateway, auth.SignInMessage(err))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, session)
}

type signOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignOut ends the session of the bearer token. The body may carry the refresh token.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req signOutRequest
	if r.ContentLength > 0 {
		if err := web.DecodeJSON(r, &req); err != nil {
			web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	id, _ := auth.IdentityFromContext(r.Context())
	session := auth.Session{
		Identity:     id,
		AccessToken:  auth.AccessToken(r),
		RefreshToken: req.RefreshToken,
	}
	if err := h.gateway.SignOut(r.Context(), session); err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			web.RespondError(w, h.logger, http.StatusUnauthorized, auth.MsgUnauthenticated)
			return
		}
		h.logger.ErrorContext(r.Context(), "Sign out failed", "error", err)
		web.RespondError(w, h.logger, http.StatusBadGateway, "Error al cerrar sesión")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		web.RespondError(w, h.logger, http.StatusUnauthorized, auth.MsgUnauthenticated)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, id)
}
