// Package imaging turns uploaded coin photos into compact JPEG data URIs.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/coinlens/coinlens/internal/ailink/encode"
)

const (
	// DefaultMaxEdge bounds the longest side of a prepared photo, in pixels.
	DefaultMaxEdge = 1024
	// DefaultMaxPixels bounds width*height of an upload before it is decoded.
	DefaultMaxPixels = 40_000_000
	// JPEGQuality is used when re-encoding.
	JPEGQuality = 85
)

var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	ErrEmpty       = errors.New("image is empty")
	ErrUnsupported = errors.New("unsupported image type")
	ErrTooLarge    = errors.New("image dimensions too large")
	ErrDecode      = errors.New("image could not be decoded")
)

// Result is a prepared photo.
type Result struct {
	DataURI string
	// SourceMIME is the sniffed type of the upload.
	SourceMIME string
	Width      int
	Height     int
	Bytes      int
}

// Detect sniffs the media type of data.
func Detect(data []byte) string {
	return mimetype.Detect(data).String()
}

// Supported reports whether a media type can be prepared.
func Supported(mime string) bool {
	return supported[mime]
}

// Constraint names the violated upload rule for a Prepare error.
func Constraint(err error) string {
	switch {
	case errors.Is(err, ErrEmpty):
		return "non_empty"
	case errors.Is(err, ErrUnsupported):
		return "mime_type"
	case errors.Is(err, ErrTooLarge):
		return "max_pixels"
	default:
		return "decode"
	}
}

// Prepare decodes data, shrinks it so the longest edge is at most maxEdge
// and re-encodes it as JPEG. Uploads whose header declares more than
// maxPixels pixels are rejected before any pixel data is decoded.
func Prepare(data []byte, maxEdge, maxPixels int) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	mime := Detect(data)
	if !Supported(mime) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s header: %v", ErrDecode, mime, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, mime, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newW, newH := fit(width, height, maxEdge)

	// JPEG has no alpha; flatten onto white.
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Result{
		DataURI:    encode.EncodeDataURL("image/jpeg", buf.Bytes()),
		SourceMIME: mime,
		Width:      newW,
		Height:     newH,
		Bytes:      buf.Len(),
	}, nil
}

func fit(width, height, maxEdge int) (int, int) {
	scale := float64(maxEdge) / float64(max(width, height))
	if scale > 1 {
		scale = 1
	}
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}
