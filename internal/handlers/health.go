package handlers

import (
	"net/http"

	"github.com/nkiryanov/mediashare/internal/handlers/render"
	"github.com/nkiryanov/mediashare/internal/logger"
)

func handleHealthcheck(checks []healthChecker, l logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, hc := range checks {
			if err := hc.Ping(r.Context()); err != nil {
				l.Error("healthcheck failed", "error", err)
				render.JSONWithStatus(w, response{Status: "unavailable"}, http.StatusServiceUnavailable)
				return
			}
		}

		render.JSON(w, response{Status: "ok"})
	})
}
