package main

import "time"

type Config struct {
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
	HealthPort                int           `env:"HEALTH_PORT,default=8081"`
	LogLevel                  string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	StorageDriver             string        `env:"STORAGE_DRIVER,default=badger"`
	PostgresDSN               string        `env:"POSTGRES_DSN"`
	LimitMessages             *int          `env:"LIMIT_MESSAGES"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,default=42"`
	ModerationMaxLength       int           `env:"MODERATION_MAX_LENGTH,default=2000"`
	EditWindow                time.Duration `env:"EDIT_WINDOW,default=20m"`
	ReminderInterval          time.Duration `env:"REMINDER_INTERVAL,default=60s"`
	ReminderLookahead         time.Duration `env:"REMINDER_LOOKAHEAD,default=30m"`
	HeartbeatInterval         time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,default=1s"`
	SendTimeout               time.Duration `env:"SEND_TIMEOUT,default=5s"`
	ShutdownTimeout           time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	PushEndpoint              string        `env:"PUSH_ENDPOINT"`
	PushServerKey             string        `env:"PUSH_SERVER_KEY"`
	PushTimeout               time.Duration `env:"PUSH_TIMEOUT,default=10s"`
}
