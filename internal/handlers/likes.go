package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/handlers/render"
	"github.com/nkiryanov/mediashare/internal/handlers/userctx"
	"github.com/nkiryanov/mediashare/internal/logger"
	"github.com/nkiryanov/mediashare/internal/models"
)

type toggleResponse struct {
	State    models.ToggleState `json:"state"`
	Active   bool               `json:"active"`
	Relation *models.Relation   `json:"relation,omitempty"`
}

func newToggleResponse(res models.ToggleResult) toggleResponse {
	return toggleResponse{
		State:    res.State,
		Active:   res.State == models.ToggleCreated,
		Relation: res.Relation,
	}
}

type countResponse struct {
	Kind     models.TargetKind `json:"targetKind"`
	TargetID uuid.UUID         `json:"targetId"`
	Count    int64             `json:"count"`
	IsLiked  bool              `json:"isLiked"`
}

func handleToggleLike(rs relationService, kind models.TargetKind, param string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		targetID, err := pathUUID(r, param)
		if err != nil {
			render.AppError(w, err)
			return
		}

		res, err := rs.ToggleLike(r.Context(), u.ID, kind, targetID)
		if err != nil {
			renderError(w, l, "toggle like failed", err)
			return
		}

		render.JSON(w, newToggleResponse(res))
	})
}

func handleLikedVideos(rs relationService, l logger.Logger) http.Handler {
	type response struct {
		Videos []uuid.UUID `json:"videos"`
		Count  int         `json:"count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		likes, err := rs.ListBySubject(r.Context(), u.ID, models.TargetVideo)
		if err != nil {
			renderError(w, l, "list liked videos failed", err)
			return
		}

		videos := make([]uuid.UUID, 0, len(likes))
		for _, like := range likes {
			videos = append(videos, like.TargetID)
		}

		render.JSON(w, response{Videos: videos, Count: len(videos)})
	})
}

func handleLikesCount(rs relationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind := models.TargetKind(r.PathValue("kind"))
		if !kind.IsLikeable() {
			render.AppError(w, apperrors.NewValidationError("kind", "Must be one of: video, comment, tweet"))
			return
		}

		targetID, err := pathUUID(r, "id")
		if err != nil {
			render.AppError(w, err)
			return
		}

		u, _ := userctx.FromContext(r.Context())

		key := models.RelationKey{Kind: kind, TargetID: targetID}
		count, err := rs.CountByTarget(r.Context(), key)
		if err != nil {
			renderError(w, l, "count likes failed", err)
			return
		}

		liked, err := rs.IsActive(r.Context(), u.ID, key)
		if err != nil {
			renderError(w, l, "count likes failed", err)
			return
		}

		render.JSON(w, countResponse{Kind: kind, TargetID: targetID, Count: count, IsLiked: liked})
	})
}
