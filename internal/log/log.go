package log

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	zerolog.TimestampFieldName = "ts"
	zerolog.TimeFieldFormat = time.RFC3339
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Setup redirects all subsequent entries to w. main calls it once before the
// first request is served; tests never need to.
func Setup(w io.Writer) {
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// write enriches the entry from the request context when one is present.
// A nil ctx is fine: background work (sweeper, startup) logs without one.
func write(level zerolog.Level, channel string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	ev := logger.WithLevel(level)
	if channel != "" {
		ev.Str("channel", channel)
	}
	if c != nil {
		ev.Str("ip", c.IP()).Str("method", c.Method()).Str("path", c.Path()).Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev.Str("req_id", rid)
		}
	}
	if err != nil {
		ev.Err(err)
	}
	if len(fields) > 0 {
		ev.Fields(fields)
	}
	ev.Msg(action)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.InfoLevel, "", c, action, nil, fields)
}

// Audit marks state-changing business actions (reserve, commit, release).
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.InfoLevel, "audit", c, action, nil, fields)
}

// Security marks rejected or suspicious requests.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.WarnLevel, "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zerolog.ErrorLevel, "", c, action, err, fields)
}
