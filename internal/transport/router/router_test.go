package router

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chai2010/webp"
	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/config"
	"github.com/trunov/stickerbot/internal/transport/handler"
	webp_converter "github.com/trunov/stickerbot/internal/webp-converter"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := handler.New(webp_converter.Converter{}, config.NewConfig(), zap.NewNop())
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func pngUpload(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, url, field string, payload []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "upload.bin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestCreateSticker(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name string
		url  string
		size int
	}{
		{"default size", srv.URL + "/api/stickers", 512},
		{"custom size", srv.URL + "/api/stickers?size=64&anchor=center", 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, tt.url, "image", pngUpload(t, 300, 200))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "image/webp" {
				t.Errorf("unexpected content type %q", ct)
			}
			cfg, err := webp.DecodeConfig(resp.Body)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if cfg.Width != tt.size || cfg.Height != tt.size {
				t.Errorf("expected %dx%d, got %dx%d", tt.size, tt.size, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestCreateSticker_Rejects(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name  string
		url   string
		field string
		body  []byte
		code  int
	}{
		{"wrong field", srv.URL + "/api/stickers", "file", []byte("x"), http.StatusBadRequest},
		{"bad size", srv.URL + "/api/stickers?size=4", "image", nil, http.StatusBadRequest},
		{"bad anchor", srv.URL + "/api/stickers?anchor=left", "image", nil, http.StatusBadRequest},
		{"not an image", srv.URL + "/api/stickers", "image", []byte("plain text, not pixels"), http.StatusBadRequest},
		{"corrupt png", srv.URL + "/api/stickers", "image", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRbroken"), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == nil {
				body = pngUpload(t, 20, 20)
			}
			resp := upload(t, tt.url, tt.field, body)
			if resp.StatusCode != tt.code {
				t.Errorf("expected %d, got %d", tt.code, resp.StatusCode)
			}
		})
	}
}
