package entities

// ArtifactPair is the raw source image and its sticker derivative.
// Both paths share ID and live in the scratch directory.
type ArtifactPair struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Sticker string `json:"sticker"`
}

func (p ArtifactPair) Paths() []string {
	return []string{p.Source, p.Sticker}
}
