package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithImagor sets the imagor base URL and signing secret
func WithImagor(imageHost, secret string) Option {
	return func(c *ServerConfig) error {
		c.ImagorURL = imageHost
		c.ImagorSecret = secret
		return nil
	}
}

// WithDatabase sets the postgres connection string. Use "memory" for the in-memory repository.
func WithDatabase(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithMemoryStorage keeps originals in process memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.StorageType = "memory"
		return nil
	}
}

// WithS3Storage stores originals in S3
func WithS3Storage(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		if s3.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		if s3.Region == "" {
			s3.Region = "us-east-1"
		}
		c.StorageType = "s3"
		c.S3 = s3
		return nil
	}
}

// WithMinIOStorage stores originals in MinIO
func WithMinIOStorage(minio MinIOConfig) Option {
	return func(c *ServerConfig) error {
		if minio.Endpoint == "" || minio.Bucket == "" {
			return fmt.Errorf("minio endpoint and bucket cannot be empty")
		}
		c.StorageType = "minio"
		c.MinIO = minio
		return nil
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(c *ServerConfig) error {
		if n <= 0 {
			return fmt.Errorf("max upload bytes must be positive, got: %d", n)
		}
		c.MaxUploadBytes = n
		return nil
	}
}

func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithAdminAPIKeySHA256 sets the hex SHA-256 of the admin API key
func WithAdminAPIKeySHA256(sum string) Option {
	return func(c *ServerConfig) error {
		c.AdminAPIKeySHA256 = sum
		return nil
	}
}

// WithObjectKeyStrategy selects the object key layout ("owner" or "sharded")
func WithObjectKeyStrategy(strategy string) Option {
	return func(c *ServerConfig) error {
		c.KeyStrategy = strategy
		return nil
	}
}
