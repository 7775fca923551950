// Package media turns uploaded pictures into resized JPEG variants and
// stores them on local disk or S3.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"io"
	"net/http"
	"slices"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const MaxUploadSize = 10 << 20

var ErrUnsupportedType = errors.New("unsupported image type")

var AllowedMIMEs = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Variant struct {
	Name  string
	Width int
}

var Variants = []Variant{
	{Name: "thumb", Width: 300},
	{Name: "medium", Width: 800},
	{Name: "large", Width: 1600},
}

const jpegQuality = 82

// Processor decodes an upload and renders every variant as JPEG.
type Processor struct {
	Variants []Variant
	Quality  int
}

func NewProcessor() *Processor {
	return &Processor{Variants: Variants, Quality: jpegQuality}
}

// Sniff checks the leading bytes of the upload against AllowedMIMEs. The
// returned reader replays the sniffed bytes.
func Sniff(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	mime := http.DetectContentType(head)
	if !slices.Contains(AllowedMIMEs, mime) {
		return nil, mime, fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
	return io.MultiReader(bytes.NewReader(head), r), mime, nil
}

// Process returns the encoded JPEG bytes keyed by variant name. Images
// narrower than a variant are not upscaled.
func (p *Processor) Process(r io.Reader) (map[string][]byte, error) {
	src, _, err := Sniff(r)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	out := make(map[string][]byte, len(p.Variants))
	for _, v := range p.Variants {
		b, err := p.encode(resize(img, v.Width))
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", v.Name, err)
		}
		out[v.Name] = b
	}
	return out, nil
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resize(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}
