package scan

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	path := filepath.Join(dir, "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return path
}

func TestLoadAsset_PNG(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 320, 240)

	a, err := LoadAsset(path)
	if err != nil {
		t.Fatalf("LoadAsset failed: %v", err)
	}
	if a.Filename != "scan.png" {
		t.Errorf("Filename = %q, want scan.png", a.Filename)
	}
	if len(a.Data) == 0 {
		t.Error("upload bytes are empty")
	}
	if a.Preview == nil {
		t.Fatal("preview was not generated")
	}
	pb := a.Preview.Bounds()
	if pb.Dx() > previewMax || pb.Dy() > previewMax {
		t.Errorf("preview %dx%d exceeds %d", pb.Dx(), pb.Dy(), previewMax)
	}
	// Aspect ratio preserved: 320x240 scales to 64x48.
	if pb.Dx() != 64 || pb.Dy() != 48 {
		t.Errorf("preview %dx%d, want 64x48", pb.Dx(), pb.Dy())
	}
}

func TestLoadAsset_SmallImageKeptAsIs(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 32, 32)

	a, err := LoadAsset(path)
	if err != nil {
		t.Fatalf("LoadAsset failed: %v", err)
	}
	pb := a.Preview.Bounds()
	if pb.Dx() != 32 || pb.Dy() != 32 {
		t.Errorf("small image should not be rescaled, got %dx%d", pb.Dx(), pb.Dy())
	}
}

func TestLoadAsset_MissingFile(t *testing.T) {
	if _, err := LoadAsset(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadAsset_NotAnImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.png")
	if err := os.WriteFile(path, []byte("just text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAsset(path); err == nil {
		t.Error("expected decode error, got nil")
	}
}

func TestAssetRelease(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 64, 64)
	a, err := LoadAsset(path)
	if err != nil {
		t.Fatalf("LoadAsset failed: %v", err)
	}

	a.Release()
	if !a.Released() {
		t.Error("asset should report released")
	}
	if a.Data != nil || a.Preview != nil {
		t.Error("release must drop the upload bytes and preview")
	}

	var none *Asset
	none.Release() // must not panic
	if none.Released() {
		t.Error("nil asset is not released")
	}
}
