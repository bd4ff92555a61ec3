// Package config centraliza la configuración por variables de entorno.
package config

import "github.com/caarlos0/env/v11"

type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// Si viene vacío, el router cae a los repos in-memory (dev).
	DBDSN       string `env:"DB_DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	AppName   string `env:"APP_NAME" envDefault:"pet-adoption-market"`

	// Base URL del servicio de auth externo. Vacío = modo dev
	// (headers X-Debug-*).
	AuthBaseURL string `env:"AUTH_BASE_URL"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
