package config

import (
	"context"
	"testing"

	"github.com/tendant/simple-image/pkg/simpleimage/objectkey"
)

func TestLoadWithOptions(t *testing.T) {
	cfg, err := Load(
		WithPort("7000"),
		WithEnvironment("production"),
		WithImagor("https://img.example.com", "s3cr3t"),
		WithS3Storage(S3Config{Bucket: "images"}),
		WithMaxUploadBytes(2048),
		WithJWTSecret("jwt"),
		WithAdminAPIKeySHA256("abc"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "7000" {
		t.Errorf("expected port 7000, got %q", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	if cfg.StorageType != "s3" || cfg.S3.Region != "us-east-1" {
		t.Errorf("unexpected s3 config: %+v", cfg.S3)
	}
	if cfg.BuildJWTAuth() == nil {
		t.Error("expected JWT auth when secret is set")
	}
}

func TestOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty port", WithPort("")},
		{"empty environment", WithEnvironment("")},
		{"s3 without bucket", WithS3Storage(S3Config{})},
		{"minio without endpoint", WithMinIOStorage(MinIOConfig{Bucket: "images"})},
		{"zero upload limit", WithMaxUploadBytes(0)},
		{"unknown environment", WithEnvironment("staging")},
		{"unknown key strategy", WithObjectKeyStrategy("flat")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.opt); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestBuildKeyGenerator(t *testing.T) {
	cfg, err := Load(WithObjectKeyStrategy("sharded"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cfg.BuildKeyGenerator().(*objectkey.ShardedGenerator); !ok {
		t.Errorf("expected sharded generator, got %T", cfg.BuildKeyGenerator())
	}

	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cfg.BuildKeyGenerator().(*objectkey.OwnerScopedGenerator); !ok {
		t.Errorf("expected owner scoped generator by default, got %T", cfg.BuildKeyGenerator())
	}
}

func TestBuildServiceMemory(t *testing.T) {
	cfg, err := Load(WithImagor("https://img.example.com", "s3cr3t"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BuildJWTAuth() != nil {
		t.Error("expected no JWT auth without a secret")
	}

	svc, closeFn, err := cfg.BuildService(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if _, err := svc.GetBackend("memory"); err != nil {
		t.Errorf("expected memory backend: %v", err)
	}
	url, err := svc.ImageURL("avatars/u/a.jpg", "avatar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url == "" {
		t.Error("expected a signed URL")
	}
}

func TestBuildServiceMinIO(t *testing.T) {
	cfg, err := Load(WithMinIOStorage(MinIOConfig{Endpoint: "localhost:9000", Bucket: "images"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc, closeFn, err := cfg.BuildService(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if _, err := svc.GetBackend("minio"); err != nil {
		t.Errorf("expected minio backend: %v", err)
	}
}
