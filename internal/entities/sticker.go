package entities

type Fit string

const (
	FitCover Fit = "cover"
)

type Anchor string

const (
	AnchorEntropy Anchor = "entropy"
	AnchorCenter  Anchor = "center"
)

const (
	FormatWebP = "webp"

	StickerSize = 512
)

// TranscodeOptions describes the derivative the transcoder must produce.
type TranscodeOptions struct {
	Width    int     `json:"width" validate:"gte=1,lte=4096"`
	Height   int     `json:"height" validate:"gte=1,lte=4096"`
	Fit      Fit     `json:"fit"`
	Anchor   Anchor  `json:"anchor"`
	Format   string  `json:"format"`
	Quality  float32 `json:"quality" validate:"gte=0,lte=100"`
	Lossless bool    `json:"lossless"`
}

// DefaultStickerOptions is a 512x512 lossless WebP, cover fit anchored on the
// most detailed region.
func DefaultStickerOptions() TranscodeOptions {
	return TranscodeOptions{
		Width:    StickerSize,
		Height:   StickerSize,
		Fit:      FitCover,
		Anchor:   AnchorEntropy,
		Format:   FormatWebP,
		Quality:  100,
		Lossless: true,
	}
}
