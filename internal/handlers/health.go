package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /healthz"

		ctx, cancel := storeContext(c)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logFor(c).Error().Err(err).Str("route", route).Msg("store ping failed")
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
