package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-image/pkg/simpleimage"
	"github.com/tendant/simple-image/pkg/simpleimage/imagor"
	"github.com/tendant/simple-image/pkg/simpleimage/objectkey"
	"github.com/tendant/simple-image/pkg/simpleimage/repo/memory"
	repopg "github.com/tendant/simple-image/pkg/simpleimage/repo/postgres"
	memorystorage "github.com/tendant/simple-image/pkg/simpleimage/storage/memory"
	miniostorage "github.com/tendant/simple-image/pkg/simpleimage/storage/minio"
	s3storage "github.com/tendant/simple-image/pkg/simpleimage/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// defaults. WithEnv resets every unset variable to its default, so pass it
// before programmatic overrides.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		DBSchema:       "content",
		StorageType:    "memory",
		KeyStrategy:    "owner",
		MaxUploadBytes: simpleimage.DefaultMaxUploadBytes,
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// ServerConfig represents server configuration for the simple-image service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080" env-description:"HTTP listen port"`
	Environment string `env:"ENVIRONMENT" env-default:"development" env-description:"development, production or testing"`

	ImagorURL    string `env:"IMAGOR_URL" env-description:"Public base URL of the imagor server"`
	ImagorSecret string `env:"IMAGOR_SECRET" env-description:"Shared HMAC secret; empty produces unsafe URLs"`

	DatabaseURL string `env:"DATABASE_URL" env-description:"postgres:// connection string; empty or 'memory' keeps records in memory"`
	DBSchema    string `env:"CONTENT_DB_SCHEMA" env-default:"content" env-description:"Postgres schema placed on the search_path"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" env-default:"false" env-description:"Create the images table on startup"`

	StorageType string `env:"STORAGE_TYPE" env-default:"memory" env-description:"Blob storage: memory, s3 or minio"`
	S3          S3Config
	MinIO       MinIOConfig
	KeyStrategy string `env:"OBJECT_KEY_STRATEGY" env-default:"owner" env-description:"Object key layout: owner or sharded"`

	MaxUploadBytes    int64  `env:"MAX_UPLOAD_BYTES" env-default:"5242880" env-description:"Largest accepted upload in bytes"`
	JWTSecret         string `env:"JWT_SECRET" env-description:"HS256 key for user tokens; empty disables authenticated endpoints"`
	AdminAPIKeySHA256 string `env:"ADMIN_API_KEY_SHA256" env-description:"SHA-256 of the admin API key; empty disables admin endpoints"`
}

// S3Config holds the S3 storage settings
type S3Config struct {
	Bucket          string `env:"S3_BUCKET" env-description:"S3 bucket holding image originals"`
	Region          string `env:"S3_REGION" env-default:"us-east-1" env-description:"S3 region"`
	Endpoint        string `env:"S3_ENDPOINT" env-description:"Custom endpoint for S3-compatible services"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID" env-description:"Access key; empty uses the default AWS credential chain"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" env-description:"Secret key"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false" env-description:"Use path-style addressing"`
	SSEAlgorithm    string `env:"S3_SSE_ALGORITHM" env-description:"AES256 or aws:kms; empty disables server-side encryption"`
	SSEKMSKeyID     string `env:"S3_SSE_KMS_KEY_ID" env-description:"KMS key for aws:kms"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false" env-description:"Create the bucket when missing"`
}

// MinIOConfig holds the MinIO storage settings
type MinIOConfig struct {
	Endpoint        string `env:"MINIO_ENDPOINT" env-description:"MinIO host:port"`
	Bucket          string `env:"MINIO_BUCKET" env-description:"MinIO bucket holding image originals"`
	AccessKeyID     string `env:"MINIO_ACCESS_KEY" env-description:"MinIO access key"`
	SecretAccessKey string `env:"MINIO_SECRET_KEY" env-description:"MinIO secret key"`
	UseSSL          bool   `env:"MINIO_USE_SSL" env-default:"false" env-description:"Connect with TLS"`
	CreateBucket    bool   `env:"MINIO_CREATE_BUCKET" env-default:"false" env-description:"Create the bucket when missing"`
}

// IsProduction reports whether the service runs in production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseType returns "postgres" when a connection string is set and "memory" otherwise
func (c *ServerConfig) DatabaseType() string {
	if c.DatabaseURL == "" || c.DatabaseURL == "memory" {
		return "memory"
	}
	return "postgres"
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Environment {
	case "development", "production", "testing":
	default:
		return fmt.Errorf("environment must be development, production or testing, got: %s", c.Environment)
	}

	if c.ImagorURL != "" {
		u, err := url.Parse(c.ImagorURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("imagor_url must be an absolute http(s) URL, got: %s", c.ImagorURL)
		}
	}
	if c.IsProduction() && c.ImagorSecret == "" {
		return errors.New("imagor_secret is required in production")
	}

	if c.DatabaseType() == "postgres" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("unsupported database_url format (use 'memory' or 'postgresql://...')")
	}

	switch c.StorageType {
	case "memory":
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3_bucket is required when storage_type is s3")
		}
	case "minio":
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return errors.New("minio_endpoint and minio_bucket are required when storage_type is minio")
		}
	default:
		return fmt.Errorf("storage_type must be memory, s3 or minio, got: %s", c.StorageType)
	}

	switch c.KeyStrategy {
	case "owner", "sharded":
	default:
		return fmt.Errorf("object_key_strategy must be owner or sharded, got: %s", c.KeyStrategy)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}

	return nil
}

// BuildSigner creates the imagor URL signer
func (c *ServerConfig) BuildSigner() *imagor.Signer {
	return imagor.New(
		imagor.WithImageHost(c.ImagorURL),
		imagor.WithSecret(c.ImagorSecret),
	)
}

// BuildKeyGenerator returns the object key layout for new uploads
func (c *ServerConfig) BuildKeyGenerator() objectkey.Generator {
	if c.KeyStrategy == "sharded" {
		return objectkey.NewShardedGenerator()
	}
	return objectkey.NewOwnerScopedGenerator()
}

// BuildJWTAuth returns the token verifier, or nil when no JWT secret is set
func (c *ServerConfig) BuildJWTAuth() *jwtauth.JWTAuth {
	if c.JWTSecret == "" {
		return nil
	}
	return jwtauth.New("HS256", []byte(c.JWTSecret), nil)
}

// BuildService creates a Service from the configuration. The returned close
// function releases the database pool.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (simpleimage.Service, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildStorageBackend()
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("failed to build storage backend %s: %w", c.StorageType, err)
	}

	svc, err := simpleimage.New(
		simpleimage.WithRepository(repo),
		simpleimage.WithBlobStore(c.StorageType, store),
		simpleimage.WithSigner(c.BuildSigner()),
		simpleimage.WithKeyGenerator(c.BuildKeyGenerator()),
		simpleimage.WithMaxUploadBytes(c.MaxUploadBytes),
		simpleimage.WithLogger(logger),
	)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	return svc, closeRepo, nil
}

func (c *ServerConfig) buildRepository(ctx context.Context) (simpleimage.Repository, func(), error) {
	if c.DatabaseType() == "memory" {
		return memory.New(), func() {}, nil
	}

	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}

	if c.AutoMigrate {
		if err := repopg.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	return repopg.NewWithPool(pool), pool.Close, nil
}

func (c *ServerConfig) buildStorageBackend() (simpleimage.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			EnableSSE:              c.S3.SSEAlgorithm != "",
			SSEAlgorithm:           c.S3.SSEAlgorithm,
			SSEKMSKeyID:            c.S3.SSEKMSKeyID,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})

	case "minio":
		return miniostorage.New(miniostorage.Config{
			Endpoint:               c.MinIO.Endpoint,
			Bucket:                 c.MinIO.Bucket,
			AccessKeyID:            c.MinIO.AccessKeyID,
			SecretAccessKey:        c.MinIO.SecretAccessKey,
			UseSSL:                 c.MinIO.UseSSL,
			CreateBucketIfNotExist: c.MinIO.CreateBucket,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageType)
	}
}
