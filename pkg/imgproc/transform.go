// Package imgproc holds the per-pixel color transforms applied to uploads.
package imgproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Policy selects how every pixel is recolored.
type Policy string

const (
	// PolicyThreshold binarizes: pixels darker than mid-gray become white,
	// all others black.
	PolicyThreshold Policy = "threshold"
	// PolicyInvert replaces every color channel c with 255-c.
	PolicyInvert Policy = "invert"
)

// brightnessCutoff is 3*128; a pixel whose r+g+b is below it has a mean
// brightness under 128.
const brightnessCutoff = 384

var ErrDecode = errors.New("invalid image data")

// ParsePolicy validates a policy name. An empty name selects PolicyThreshold.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyThreshold:
		return PolicyThreshold, nil
	case PolicyInvert:
		return PolicyInvert, nil
	default:
		return "", fmt.Errorf("unsupported invert policy %q (supported: %s, %s)", name, PolicyThreshold, PolicyInvert)
	}
}

// Decode reads a PNG, JPEG or GIF image. Any failure wraps ErrDecode.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Transform returns a new image of identical bounds with every pixel
// recolored by policy. Alpha is copied unchanged.
func Transform(img image.Image, policy Policy) *image.NRGBA {
	switch policy {
	case PolicyInvert:
		return imaging.AdjustFunc(img, invertPixel)
	default:
		return imaging.AdjustFunc(img, thresholdPixel)
	}
}

func thresholdPixel(c color.NRGBA) color.NRGBA {
	if int(c.R)+int(c.G)+int(c.B) < brightnessCutoff {
		return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
	}
	return color.NRGBA{R: 0, G: 0, B: 0, A: c.A}
}

func invertPixel(c color.NRGBA) color.NRGBA {
	return color.NRGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
}

// EncodePNG encodes img losslessly. Fully opaque images are written as RGB,
// anything carrying transparency as RGBA.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Process decodes data, applies policy and returns the PNG encoded result.
func Process(data []byte, policy Policy) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodePNG(Transform(img, policy))
}
