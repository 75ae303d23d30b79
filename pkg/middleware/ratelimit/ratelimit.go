package ratelimit

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// New builds a per-IP limiter from a formatted rate such as "10-M".
func New(formatted string) (echo.MiddlewareFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}

	instance := limiter.New(memory.NewStore(), rate)
	return echo.WrapMiddleware(stdlib.NewMiddleware(instance).Handler), nil
}
