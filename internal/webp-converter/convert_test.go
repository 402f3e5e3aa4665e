package webp_converter

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"

	"github.com/trunov/stickerbot/internal/entities"
)

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTranscode_PNGLandscapeToSquareSticker(t *testing.T) {
	dir := t.TempDir()
	// A PNG saved under a .jpg name, as the pipeline does.
	src := filepath.Join(dir, "received-image-1.jpg")
	dst := filepath.Join(dir, "sticker-1.webp")
	writePNG(t, src, gradient(800, 600))

	if err := (Converter{}).Transcode(context.Background(), src, dst, entities.DefaultStickerOptions()); err != nil {
		t.Fatalf("transcode: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read derivative: %v", err)
	}
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("derivative is not webp: %v", err)
	}
	if cfg.Width != 512 || cfg.Height != 512 {
		t.Errorf("expected 512x512, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestConvert_JPEGPortrait(t *testing.T) {
	var src bytes.Buffer
	if err := jpeg.Encode(&src, gradient(300, 900), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := (Converter{}).Convert(&src, &out, entities.DefaultStickerOptions()); err != nil {
		t.Fatalf("convert: %v", err)
	}
	cfg, err := webp.DecodeConfig(&out)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 512 || cfg.Height != 512 {
		t.Errorf("expected 512x512, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestTranscode_Deterministic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, gradient(512, 512))

	run := func(name string) []byte {
		dst := filepath.Join(dir, name)
		if err := (Converter{}).Transcode(context.Background(), src, dst, entities.DefaultStickerOptions()); err != nil {
			t.Fatalf("transcode: %v", err)
		}
		b, err := os.ReadFile(dst)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}

	if !bytes.Equal(run("a.webp"), run("b.webp")) {
		t.Error("expected bit-identical derivatives")
	}
}

func TestTranscode_CorruptLeavesNoDerivative(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.jpg")
	dst := filepath.Join(dir, "bad.webp")
	if err := os.WriteFile(src, []byte("\x89PNG\r\n\x1a\ntruncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := (Converter{}).Transcode(context.Background(), src, dst, entities.DefaultStickerOptions()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dst); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no derivative, stat err = %v", err)
	}
}

func TestTranscode_Options(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, gradient(10, 10))

	opts := entities.DefaultStickerOptions()
	opts.Format = "gif"
	err := (Converter{}).Transcode(context.Background(), src, filepath.Join(dir, "o"), opts)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	opts = entities.DefaultStickerOptions()
	opts.Fit = "contain"
	err = (Converter{}).Transcode(context.Background(), src, filepath.Join(dir, "o"), opts)
	if !errors.Is(err, ErrUnsupportedFit) {
		t.Errorf("expected ErrUnsupportedFit, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (Converter{}).Transcode(ctx, src, filepath.Join(dir, "o"), entities.DefaultStickerOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
