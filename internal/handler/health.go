package handler

import (
	"context"
	"net/http"
	"time"

	"catalogo/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

type healthResponse struct {
	OK          bool             `json:"ok"`
	DB          string           `json:"db"`
	Redis       string           `json:"redis"`
	DeadLetters map[string]int64 `json:"dead_letters,omitempty"`
}

// Health reports database and redis reachability. Without redis the queue is
// reported as disabled and the check still passes; a redis that is configured
// but unreachable answers 503.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		res := healthResponse{DB: "connected", Redis: "disabled"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			res.DB = "error"
		}

		if rdb != nil {
			res.Redis = "connected"
			if err := rdb.Ping(ctx).Err(); err != nil {
				res.Redis = "error"
			} else if counts, err := worker.DeadLetterCounts(ctx, rdb); err != nil {
				log.Warn().Err(err).Msg("health: dead letter count failed")
			} else {
				res.DeadLetters = counts
			}
		}

		res.OK = res.DB == "connected" && res.Redis != "error"
		status := http.StatusOK
		if !res.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, res)
	}
}
