package processor

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/trunov/stickerbot/internal/entities"
)

// ImageModifier defines an image modifier
type ImageModifier interface {
	Modify(img image.Image) image.Image
}

// CoverCrop fills Width x Height exactly, cropping whatever does not fit.
type CoverCrop struct {
	Width  int
	Height int
	Anchor entities.Anchor
}

// Modify to implement ImageModifier interface
func (c *CoverCrop) Modify(img image.Image) image.Image {
	if img.Bounds().Empty() || c.Width <= 0 || c.Height <= 0 {
		return img
	}

	if c.Anchor == entities.AnchorCenter {
		return imaging.Fill(img, c.Width, c.Height, imaging.Center, imaging.Lanczos)
	}

	rect := EntropyRect(img, c.Width, c.Height)
	cropped := imaging.Crop(img, rect)
	return imaging.Resize(cropped, c.Width, c.Height, imaging.Lanczos)
}

// LoadImage reads image from reader and applies requested modifiers to that image
func LoadImage(r io.Reader, modifiers ...ImageModifier) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	for _, modifier := range modifiers {
		img = modifier.Modify(img)
	}

	return img, nil
}

// Load images, apply actions on them and then encode
type ImageProcessor struct {
	img    image.Image
	format string
}

// Load decodes any registered format (jpeg, png, gif, webp).
func (i *ImageProcessor) Load(r io.Reader) error {
	img, format, err := image.Decode(r)
	if err != nil {
		return err
	}
	i.img = img
	i.format = format
	return nil
}

func (i *ImageProcessor) Format() string { return i.format }

func (i *ImageProcessor) Apply(modifiers ...ImageModifier) {
	for _, modifier := range modifiers {
		i.img = modifier.Modify(i.img)
	}
}

func (i *ImageProcessor) EncodeWEBP(w io.Writer, quality float32, lossless bool) error {
	return webp.Encode(w, i.img, &webp.Options{
		Lossless: lossless,
		Quality:  quality,
	})
}

func (i *ImageProcessor) GetWEBP(quality float32, lossless bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := i.EncodeWEBP(buf, quality, lossless)
	return buf.Bytes(), err
}

func (i *ImageProcessor) GetBounds() (int, int) {
	return i.img.Bounds().Size().X, i.img.Bounds().Size().Y
}
