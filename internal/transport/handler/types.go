package handler

type ConvertParams struct {
	Size   int    `validate:"gte=16,lte=1024"`    // from query ?size=, square edge in pixels
	Anchor string `validate:"oneof=entropy center"` // from query ?anchor=
}
