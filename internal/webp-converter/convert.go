package webp_converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/trunov/stickerbot/internal/entities"
	"github.com/trunov/stickerbot/internal/processor"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrUnsupportedFit    = errors.New("unsupported fit mode")
)

// Converter turns source images into sticker derivatives.
type Converter struct{}

// Convert decodes r, crops/resizes according to opts and writes the encoded
// result to w.
func (Converter) Convert(r io.Reader, w io.Writer, opts entities.TranscodeOptions) error {
	if err := validate(opts); err != nil {
		return err
	}

	imgp := &processor.ImageProcessor{}
	if err := imgp.Load(r); err != nil {
		return fmt.Errorf("error decoding image: %w", err)
	}

	imgp.Apply(&processor.CoverCrop{Width: opts.Width, Height: opts.Height, Anchor: opts.Anchor})

	if err := imgp.EncodeWEBP(w, opts.Quality, opts.Lossless); err != nil {
		return fmt.Errorf("error encoding to webp: %w", err)
	}
	return nil
}

// Transcode reads src and writes the derivative to dst. On failure nothing is
// left at dst.
func (c Converter) Transcode(ctx context.Context, src, dst string, opts entities.TranscodeOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	var buf bytes.Buffer
	if err := c.Convert(in, &buf, opts); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("write derivative: %w", err)
	}
	return nil
}

func validate(opts entities.TranscodeOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", opts.Width, opts.Height)
	}
	if opts.Format != entities.FormatWebP {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	if opts.Fit != "" && opts.Fit != entities.FitCover {
		return fmt.Errorf("%w: %q", ErrUnsupportedFit, opts.Fit)
	}
	switch opts.Anchor {
	case "", entities.AnchorEntropy, entities.AnchorCenter:
	default:
		return fmt.Errorf("unsupported crop anchor: %q", opts.Anchor)
	}
	return nil
}
