package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/config"
	"github.com/trunov/stickerbot/internal/entities"
)

type Converter interface {
	Convert(r io.Reader, w io.Writer, opts entities.TranscodeOptions) error
}

type Handler struct {
	conv      Converter
	cfg       *config.Config
	validator *validator.Validate
	log       *zap.Logger
}

func New(conv Converter, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		conv:      conv,
		cfg:       cfg,
		validator: validator.New(),
		log:       log.With(zap.String("component", "http")),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSticker converts the uploaded "image" form file and answers with the
// WebP sticker.
func (h *Handler) CreateSticker(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxRequestBodyMB<<20)

	maxMultipartMem := h.cfg.Upload.MaxMultipartMemoryMB
	if err := r.ParseMultipartForm(maxMultipartMem << 20); err != nil {
		writeMultipartError(w, err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		if strings.Contains(err.Error(), "no such file") {
			writeJSONError(w, `missing image file: form field key should be "image"`, http.StatusBadRequest)
		} else {
			writeJSONError(w, "an error occurred while uploading the file: "+err.Error(), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	params := ConvertParams{
		Size:   parseIntDefault(r.URL.Query().Get("size"), entities.StickerSize),
		Anchor: r.URL.Query().Get("anchor"),
	}
	if params.Anchor == "" {
		params.Anchor = string(entities.AnchorEntropy)
	}

	if err := h.validator.Struct(params); err != nil {
		writeJSON(w, http.StatusBadRequest, validationErrorsToMap(err))
		return
	}

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := validateMimeType(mime.String()); err != nil {
		writeJSONError(w, fmt.Sprintf("unsupported file type: %s", mime.String()), http.StatusBadRequest)
		return
	}

	opts := entities.DefaultStickerOptions()
	opts.Width = params.Size
	opts.Height = params.Size
	opts.Anchor = entities.Anchor(params.Anchor)

	var out bytes.Buffer
	if err := h.conv.Convert(file, &out, opts); err != nil {
		h.log.Warn("conversion failed", zap.String("mime_type", mime.String()), zap.Error(err))
		writeJSONError(w, "could not convert image: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}
