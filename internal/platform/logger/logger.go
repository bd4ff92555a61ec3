// Package logger arma el *zap.Logger de la app y lo deja como global
// (zap.ReplaceGlobals) para los paths best-effort que no reciben logger
// inyectado.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Format string

const (
	FormatText Format = "text" // console encoder, para dev
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

type Options struct {
	Level  string // debug|info|warn|error (default info)
	Format Format
	App    string
}

func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
	}

	var encoder zapcore.Encoder
	switch opts.Format {
	case FormatJSON:
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	default:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	log := zap.New(core, zap.AddCaller())
	if strings.TrimSpace(opts.App) != "" {
		log = log.With(zap.String("app", strings.TrimSpace(opts.App)))
	}

	zap.ReplaceGlobals(log)
	return log, nil
}

// NewFromEnv crea el logger desde env:
// - LOG_LEVEL=debug|info|warn|error (default info)
// - LOG_FORMAT=text|json (default text)
// - APP_NAME (opcional)
// Si el nivel viene roto cae a un logger de producción en vez de fallar.
func NewFromEnv() *zap.Logger {
	log, err := New(Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    os.Getenv("APP_NAME"),
	})
	if err != nil {
		log, _ = zap.NewProduction()
		zap.ReplaceGlobals(log)
	}
	return log
}
