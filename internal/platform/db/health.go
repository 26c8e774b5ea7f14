package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const healthTimeout = 5 * time.Second

// PoolStats is the subset of pgxpool statistics exposed on /health/store.
type PoolStats struct {
	TotalConns      int32  `json:"totalConns"`
	IdleConns       int32  `json:"idleConns"`
	AcquiredConns   int32  `json:"acquiredConns"`
	MaxConns        int32  `json:"maxConns"`
	AcquireCount    int64  `json:"acquireCount"`
	AcquireDuration string `json:"acquireDuration"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// StoreHealth is the body of /health/store.
type StoreHealth struct {
	Status string     `json:"status"`
	Driver string     `json:"driver"`
	Keys   *int64     `json:"keys,omitempty"`
	Error  string     `json:"error,omitempty"`
	Pool   *PoolStats `json:"pool,omitempty"`
}

// checkStore pings the database and counts the rows of the key-value table,
// which also proves the migrations have been applied.
func checkStore(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	if err := pool.Ping(ctx); err != nil {
		return 0, err
	}
	var keys int64
	err := pool.QueryRow(ctx, `SELECT count(*) FROM kv_store`).Scan(&keys)
	return keys, err
}

// HealthHandler reports the health of the key-value backend. A nil pool means
// the in-memory backend is in use, which is always healthy. Failures are
// logged in full; the response only says the store is unreachable.
func HealthHandler(driver string, pool *pgxpool.Pool, logger zerolog.Logger) echo.HandlerFunc {
	if pool == nil {
		return storeHealthHandler(driver, nil, nil, logger)
	}
	return storeHealthHandler(driver,
		func(ctx context.Context) (int64, error) { return checkStore(ctx, pool) },
		func() *PoolStats { return GetPoolStats(pool) },
		logger,
	)
}

func storeHealthHandler(driver string, check func(context.Context) (int64, error), stats func() *PoolStats, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if check == nil {
			return c.JSON(http.StatusOK, StoreHealth{Status: "healthy", Driver: driver})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		keys, err := check(ctx)
		body := StoreHealth{Status: "healthy", Driver: driver, Pool: stats()}
		if err != nil {
			logger.Error().Err(err).Str("driver", driver).Msg("store health check failed")
			body.Status = "unhealthy"
			body.Error = "store unavailable"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		body.Keys = &keys
		return c.JSON(http.StatusOK, body)
	}
}
