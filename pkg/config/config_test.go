package config

import (
	"strings"
	"testing"
	"time"
)

func setCloudinaryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MEDIA_STORE_BACKEND", "cloudinary")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setCloudinaryEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gallery.Folder != "gallery_uploads" {
		t.Fatalf("unexpected folder %q", cfg.Gallery.Folder)
	}
	if cfg.Gallery.DefaultPageSize != 30 || cfg.Gallery.MaxPageSize != 100 {
		t.Fatalf("unexpected page sizes %d/%d", cfg.Gallery.DefaultPageSize, cfg.Gallery.MaxPageSize)
	}
	if cfg.Gallery.MaxPayloadBytes != 25*1024*1024 {
		t.Fatalf("unexpected max payload %d", cfg.Gallery.MaxPayloadBytes)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port %s", cfg.Server.Port)
	}
	if cfg.Gallery.ListCacheTTL != 30*time.Second {
		t.Fatalf("unexpected cache ttl %s", cfg.Gallery.ListCacheTTL)
	}
}

func TestLoadRequiresCloudinaryCredentials(t *testing.T) {
	t.Setenv("MEDIA_STORE_BACKEND", "cloudinary")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "")
	t.Setenv("CLOUDINARY_API_SECRET", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "CLOUDINARY_API_KEY") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestLoadRejectsInvalidNumbers(t *testing.T) {
	setCloudinaryEnv(t)
	t.Setenv("GALLERY_MAX_PAYLOAD_MB", "lots")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "GALLERY_MAX_PAYLOAD_MB") {
		t.Fatalf("expected error naming the variable, got %v", err)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	setCloudinaryEnv(t)
	t.Setenv("GALLERY_LIST_CACHE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected duration error")
	}
}

func TestValidateIndexedBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		index   string
		wantErr bool
	}{
		{name: "s3 with dynamodb", backend: MediaBackendS3, index: IndexBackendDynamoDB},
		{name: "local with postgres", backend: MediaBackendLocal, index: IndexBackendPostgres},
		{name: "minio with unknown index", backend: MediaBackendMinIO, index: "sqlite", wantErr: true},
		{name: "unknown backend", backend: "ftp", index: IndexBackendPostgres, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Gallery:    GalleryConfig{Folder: "gallery_uploads", DefaultPageSize: 30, MaxPageSize: 100},
				MediaStore: MediaStoreConfig{Backend: tt.backend, Index: tt.index},
				Dynamo:     DynamoConfig{TableName: "gallery_photos"},
			}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidatePageSizes(t *testing.T) {
	cfg := &Config{
		Gallery:    GalleryConfig{Folder: "g", DefaultPageSize: 200, MaxPageSize: 100},
		MediaStore: MediaStoreConfig{Backend: MediaBackendCloudinary},
		Cloudinary: CloudinaryConfig{CloudName: "a", APIKey: "b", APISecret: "c"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default > max to be rejected")
	}
}

func TestParseDimensions(t *testing.T) {
	got := parseDimensions(" Env=prod , Service=gallery, broken, =x")
	if len(got) != 2 || got["Env"] != "prod" || got["Service"] != "gallery" {
		t.Fatalf("unexpected dimensions %v", got)
	}
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Database: "gallery", SSLMode: "disable"}
	if db.URL() != "postgres://u:p@db:5432/gallery?sslmode=disable" {
		t.Fatalf("unexpected url %s", db.URL())
	}
}
