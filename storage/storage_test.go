package storage_test

import (
	"context"
	"testing"

	"github.com/Lighty-Launcher/LightyUpdater/storage"
)

func TestLocalBackend(t *testing.T) {
	local := storage.NewLocal("http://cdn.example.test/")

	if local.IsRemote() {
		t.Fatal("local backend must report IsRemote() == false")
	}

	key := storage.Key("vanilla", "mods/x.jar")
	if got, want := key, "vanilla/mods/x.jar"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}

	if got, want := local.URLFor(key), "http://cdn.example.test/vanilla/mods/x.jar"; got != want {
		t.Fatalf("URLFor = %q, want %q", got, want)
	}

	url, err := local.Upload(context.Background(), "/any/local/path.jar", key)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != local.URLFor(key) {
		t.Fatalf("Upload returned %q, want the generated URL %q", url, local.URLFor(key))
	}

	if err := local.Delete(context.Background(), key); err != nil {
		t.Fatalf("Delete must be a no-op success, got %v", err)
	}
}

func TestS3BackendInitValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.S3Config
		wantErr bool
	}{
		{
			name:    "missing bucket",
			cfg:     storage.S3Config{Region: "us-east-1", AccessKey: "ak", SecretKey: "sk"},
			wantErr: true,
		},
		{
			name:    "missing credentials",
			cfg:     storage.S3Config{Region: "us-east-1", Bucket: "b"},
			wantErr: true,
		},
		{
			name:    "valid config",
			cfg:     storage.S3Config{Region: "us-east-1", Bucket: "b", AccessKey: "ak", SecretKey: "sk", PublicURL: "https://cdn.example.test"},
			wantErr: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			backend, err := storage.NewS3(test.cfg)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected a storage-config error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewS3: %v", err)
			}
			if !backend.IsRemote() {
				t.Fatal("S3 backend must report IsRemote() == true")
			}
		})
	}
}

func TestS3URLForWithPrefix(t *testing.T) {
	backend, err := storage.NewS3(storage.S3Config{
		Region:    "us-east-1",
		Bucket:    "b",
		AccessKey: "ak",
		SecretKey: "sk",
		PublicURL: "https://cdn.example.test/",
		Prefix:    "/launcher/",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	key := storage.Key("vanilla", "mods/x.jar")
	got := backend.URLFor(key)
	want := "https://cdn.example.test/launcher/vanilla/mods/x.jar"
	if got != want {
		t.Fatalf("URLFor = %q, want %q", got, want)
	}
}
