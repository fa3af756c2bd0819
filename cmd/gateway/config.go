package main

import "time"

type Config struct {
	BufferSize                int           `env:"BUFFER_SIZE,required=true"`
	SendBufferSize            int           `env:"SEND_BUFFER_SIZE,default=16"`
	NumberOfWorkers           int           `env:"NUMBER_OF_WORKERS,required=true"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	LimitMessages             *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,required=true"`
	HealthInterval            time.Duration `env:"HEALTH_INTERVAL,default=30s"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	SearchIndexPath           string        `env:"SEARCH_INDEX_PATH,required=true"`
	JWTSecret                 string        `env:"JWT_SECRET,required=true"`
	TokenDuration             time.Duration `env:"TOKEN_DURATION,default=24h"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
