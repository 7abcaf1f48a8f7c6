package store

import (
	"context"
	"strings"

	"github.com/mattermost/mattermost-interactions/utils"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// Config selects and configures a backend. It is meant to be embedded in an
// envconfig-processed struct.
type Config struct {
	Backend            string `envconfig:"STORE_BACKEND" default:"memory"`
	FilePath           string `envconfig:"STORE_FILE_PATH" default:"data/store.json"`
	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB"`
	RedisPrefix        string `envconfig:"REDIS_PREFIX"`
	S3Bucket           string `envconfig:"STORE_S3_BUCKET"`
	S3Prefix           string `envconfig:"STORE_S3_PREFIX"`
	AWSRegion          string `envconfig:"AWS_REGION"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

// New creates the configured backend. An empty backend is a MemoryStore.
func New(ctx context.Context, conf Config, log utils.Logger) (Store, error) {
	switch strings.ToLower(conf.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(conf.FilePath, log)
	case BackendRedis:
		return NewRedisStore(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB, conf.RedisPrefix)
	case BackendS3:
		return NewS3Store(conf.AWSRegion, conf.AWSAccessKeyID, conf.AWSSecretAccessKey, conf.S3Bucket, conf.S3Prefix)
	default:
		return nil, utils.NewInvalidError("unknown store backend %q", conf.Backend)
	}
}
