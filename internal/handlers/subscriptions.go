package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/handlers/render"
	"github.com/nkiryanov/mediashare/internal/handlers/userctx"
	"github.com/nkiryanov/mediashare/internal/logger"
	"github.com/nkiryanov/mediashare/internal/models"
)

func handleToggleSubscription(rs relationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		channelID, err := pathUUID(r, "channelId")
		if err != nil {
			render.AppError(w, err)
			return
		}

		res, err := rs.ToggleSubscription(r.Context(), u.ID, channelID)
		if err != nil {
			renderError(w, l, "toggle subscription failed", err)
			return
		}

		render.JSON(w, newToggleResponse(res))
	})
}

func handleSubscribedChannels(rs relationService, l logger.Logger) http.Handler {
	type response struct {
		SubscriberID uuid.UUID   `json:"subscriberId"`
		Channels     []uuid.UUID `json:"channels"`
		Count        int         `json:"count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subscriberID, err := pathUUID(r, "subscriberId")
		if err != nil {
			render.AppError(w, err)
			return
		}

		subs, err := rs.ListBySubject(r.Context(), subscriberID, models.TargetChannel)
		if err != nil {
			renderError(w, l, "list subscribed channels failed", err)
			return
		}

		channels := make([]uuid.UUID, 0, len(subs))
		for _, sub := range subs {
			channels = append(channels, sub.TargetID)
		}

		render.JSON(w, response{SubscriberID: subscriberID, Channels: channels, Count: len(channels)})
	})
}

func handleChannelSubscribers(rs relationService, l logger.Logger) http.Handler {
	type response struct {
		ChannelID    uuid.UUID   `json:"channelId"`
		Subscribers  []uuid.UUID `json:"subscribers"`
		Count        int64       `json:"count"`
		IsSubscribed bool        `json:"isSubscribed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		channelID, err := pathUUID(r, "channelId")
		if err != nil {
			render.AppError(w, err)
			return
		}

		key := models.RelationKey{Kind: models.TargetChannel, TargetID: channelID}
		subs, err := rs.ListSubjects(r.Context(), key)
		if err != nil {
			renderError(w, l, "list channel subscribers failed", err)
			return
		}

		subscribed, err := rs.IsActive(r.Context(), u.ID, key)
		if err != nil {
			renderError(w, l, "list channel subscribers failed", err)
			return
		}

		subscribers := make([]uuid.UUID, 0, len(subs))
		for _, sub := range subs {
			subscribers = append(subscribers, sub.SubjectID)
		}

		render.JSON(w, response{
			ChannelID:    channelID,
			Subscribers:  subscribers,
			Count:        int64(len(subscribers)),
			IsSubscribed: subscribed,
		})
	})
}
