package cli

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"bytes", 512, "512 B"},
		{"kibibytes", 2048, "2.0 KiB"},
		{"mebibytes", 3 << 20, "3.0 MiB"},
		{"zero", 0, "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatBytes(tt.n); got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestDecodeConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 24, 18))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg, err := decodeConfig(path)
	if err != nil {
		t.Fatalf("decodeConfig: %v", err)
	}
	if cfg.Width != 24 || cfg.Height != 18 {
		t.Errorf("config = %dx%d, want 24x18", cfg.Width, cfg.Height)
	}
}

func TestDecodeConfigGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := decodeConfig(path); err == nil {
		t.Error("garbage file should not decode")
	}
}
