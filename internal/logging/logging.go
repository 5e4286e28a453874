// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"teahouse.bot/internal/config"
)

// New returns a logger for env writing to out (stdout when nil) and sets the
// global level to match. local gets the console writer at trace level.
func New(env string, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stdout
	}
	zerolog.TimestampFieldName = "timestamp"

	level := zerolog.InfoLevel
	switch env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
	case config.EnvLocal:
		level = zerolog.TraceLevel
		cw := zerolog.NewConsoleWriter()
		cw.TimeFormat = time.DateTime
		cw.Out = out
		out = cw
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", env)
	}

	zerolog.SetGlobalLevel(level)
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger(), nil
}
