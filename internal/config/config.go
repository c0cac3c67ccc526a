// Package config loads relay settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var DefaultBannedWords = []string{"badword1", "badword2"}

type Config struct {
	ChatAddr       string  `env:"CHAT_ADDR,default=:9000" validate:"required"`
	HTTPAddr       string  `env:"HTTP_ADDR,default=:8080"`
	AuditLogPath   string  `env:"AUDIT_LOG_PATH,default=server_log.txt" validate:"required"`
	BannedWords    *string `env:"BANNED_WORDS"`
	ModerationMask string  `env:"MODERATION_MASK,default=****" validate:"required"`
	FileStore      string  `env:"FILE_STORE,default=memory" validate:"oneof=memory badger"`
	BadgerPath     string  `env:"BADGER_PATH"`
	MaxLineBytes   int     `env:"MAX_LINE_BYTES,default=16777216" validate:"gt=0"`
	LogLevel       string  `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	LogFormat      string  `env:"LOG_FORMAT,default=json" validate:"oneof=json text"`
}

// Load reads envFile when it exists, then the process environment, and
// validates the result. Variables already set in the environment win over
// the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Words returns the initial banned-word list. An unset BANNED_WORDS yields
// the defaults; an empty one yields no words.
func (c Config) Words() []string {
	if c.BannedWords == nil {
		return DefaultBannedWords
	}
	var words []string
	for _, w := range strings.Split(*c.BannedWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
