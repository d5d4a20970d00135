package config

import (
	"reflect"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("api port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("token ttl = %v, want 168h", cfg.Auth.TokenTTL)
	}
	if cfg.Upload.MaxBytes != 10*1024*1024 {
		t.Errorf("upload max bytes = %d, want 10MiB", cfg.Upload.MaxBytes)
	}
	if got, want := cfg.Upload.AllowedExtensionList(), []string{".pdf", ".doc", ".docx"}; !reflect.DeepEqual(got, want) {
		t.Errorf("allowed extensions = %v, want %v", got, want)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio123")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is unset")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("UPLOAD_ALLOWED_EXTENSIONS", "PDF, .Docx")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.Port != 9090 {
		t.Errorf("api port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("token ttl = %v, want 30m", cfg.Auth.TokenTTL)
	}
	if got, want := cfg.Upload.AllowedExtensionList(), []string{".pdf", ".docx"}; !reflect.DeepEqual(got, want) {
		t.Errorf("allowed extensions = %v, want %v", got, want)
	}
}

func TestAllowedExtensionList_Normalization(t *testing.T) {
	u := UploadConfig{AllowedExtensions: " .PDF ,doc,, .docx "}
	got := u.AllowedExtensionList()
	want := []string{".pdf", ".doc", ".docx"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
