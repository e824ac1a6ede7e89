package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/mediashare/internal/handlers/render"
	"github.com/nkiryanov/mediashare/internal/handlers/userctx"
	"github.com/nkiryanov/mediashare/internal/logger"
	"github.com/nkiryanov/mediashare/internal/models"
	"github.com/nkiryanov/mediashare/internal/service/user"
)

type sessionResponse struct {
	User                  models.User `json:"user"`
	AccessToken           string      `json:"accessToken"`
	AccessTokenExpiresAt  time.Time   `json:"accessTokenExpiresAt"`
	RefreshToken          string      `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time   `json:"refreshTokenExpiresAt"`
}

func newSessionResponse(s models.Session) sessionResponse {
	return sessionResponse{
		User:                  s.User,
		AccessToken:           s.Pair.Access.Value,
		AccessTokenExpiresAt:  s.Pair.Access.ExpiresAt,
		RefreshToken:          s.Pair.Refresh.Value,
		RefreshTokenExpiresAt: s.Pair.Refresh.ExpiresAt,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username   string `json:"username" validate:"required,username,max=50"`
		Email      string `json:"email" validate:"required,email"`
		FirstName  string `json:"firstname" validate:"required,max=100"`
		LastName   string `json:"lastname" validate:"required,max=100"`
		Password   string `json:"password" validate:"required,min=8"`
		Avatar     string `json:"avatar" validate:"omitempty,url"`
		CoverImage string `json:"coverImage" validate:"omitempty,url"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, err := as.Register(r.Context(), user.CreateUserParams{
			Username:   req.Username,
			Email:      req.Email,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Password:   req.Password,
			Avatar:     req.Avatar,
			CoverImage: req.CoverImage,
		})
		if err != nil {
			renderError(w, l, "register failed", err)
			return
		}

		render.JSONWithStatus(w, u, http.StatusCreated)
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, err := as.Login(r.Context(), req.Login, req.Password)
		if err != nil {
			renderError(w, l, "login failed", err)
			return
		}

		as.SetTokenPairToResponse(w, session.Pair)
		render.JSON(w, newSessionResponse(session))
	})
}

func handleRefreshToken(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Body is optional: browser clients send the token as cookie
		var req request
		r.Body = http.MaxBytesReader(w, r.Body, 4096)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			render.DecodeError(w, err)
			return
		}

		refresh, err := as.GetRefreshString(r, req.RefreshToken)
		if err != nil {
			renderError(w, l, "refresh failed", err)
			return
		}

		session, err := as.Rotate(r.Context(), refresh)
		if err != nil {
			if isClientError(err) {
				as.ClearTokens(w)
			}
			renderError(w, l, "refresh failed", err)
			return
		}

		as.SetTokenPairToResponse(w, session.Pair)
		render.JSON(w, newSessionResponse(session))
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		if err := as.Logout(r.Context(), u.ID); err != nil {
			renderError(w, l, "logout failed", err)
			return
		}

		as.ClearTokens(w)
		render.JSON(w, messageResponse{Message: "User logged out"})
	})
}

func handleChangePassword(us userService, as authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := us.ChangePassword(r.Context(), u.ID, req.OldPassword, req.NewPassword); err != nil {
			renderError(w, l, "change password failed", err)
			return
		}

		// Session is gone with the old password
		as.ClearTokens(w)
		render.JSON(w, messageResponse{Message: "Password changed"})
	})
}

func handleCurrentUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())
		render.JSON(w, u)
	})
}

func handleUpdateProfile(us userService, l logger.Logger) http.Handler {
	type request struct {
		FirstName  string `json:"firstname" validate:"max=100"`
		LastName   string `json:"lastname" validate:"max=100"`
		Avatar     string `json:"avatar" validate:"omitempty,url"`
		CoverImage string `json:"coverImage" validate:"omitempty,url"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := us.UpdateAccount(r.Context(), u.ID, user.UpdateAccountParams{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Avatar:     req.Avatar,
			CoverImage: req.CoverImage,
		})
		if err != nil {
			renderError(w, l, "update profile failed", err)
			return
		}

		render.JSON(w, updated.Sanitized())
	})
}
