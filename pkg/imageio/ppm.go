package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
)

// ErrMalformedPPM is returned when PPM input cannot be parsed
var ErrMalformedPPM = errors.New("malformed PPM")

// MaxPPMPixels bounds the image size ReadPPM will allocate for
const MaxPPMPixels = 1 << 26

// WritePPM writes img as a plain-text P3 image: the header lines "P3",
// "<width> <height>" and "255", then one "r g b" line per pixel, top row first
func WritePPM(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	bounds := img.Bounds()

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", bounds.Dx(), bounds.Dy()); err != nil {
		return err
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// ReadPPM parses a plain-text P3 image. Tokens may be separated by any
// whitespace and '#' starts a comment that runs to the end of the line.
// Samples are rescaled from the declared maximum to 0-255.
func ReadPPM(r io.Reader) (*image.RGBA, error) {
	tok := &tokenizer{r: bufio.NewReader(r)}

	magic, err := tok.next()
	if err != nil {
		return nil, fmt.Errorf("%w: reading magic number: %w", ErrMalformedPPM, err)
	}
	if magic != "P3" {
		return nil, fmt.Errorf("%w: unsupported magic number %q", ErrMalformedPPM, magic)
	}

	width, err := tok.nextInt("width")
	if err != nil {
		return nil, err
	}
	height, err := tok.nextInt("height")
	if err != nil {
		return nil, err
	}
	maxValue, err := tok.nextInt("max value")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d must be positive", ErrMalformedPPM, width, height)
	}
	if width > MaxPPMPixels/height {
		return nil, fmt.Errorf("%w: image size %dx%d exceeds %d pixels", ErrMalformedPPM, width, height, MaxPPMPixels)
	}
	if maxValue <= 0 || maxValue > 255 {
		return nil, fmt.Errorf("%w: max value %d must be in 1..255", ErrMalformedPPM, maxValue)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var rgb [3]uint8
			for c := range rgb {
				v, err := tok.nextInt("sample")
				if err != nil {
					return nil, fmt.Errorf("pixel (%d,%d): %w", x, y, err)
				}
				if v < 0 || v > maxValue {
					return nil, fmt.Errorf("%w: pixel (%d,%d) sample %d outside 0..%d", ErrMalformedPPM, x, y, v, maxValue)
				}
				rgb[c] = uint8(v * 255 / maxValue)
			}
			img.SetRGBA(x, y, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}

	return img, nil
}

// tokenizer splits PPM text into whitespace-separated tokens, skipping comments
type tokenizer struct {
	r      *bufio.Reader
	offset int
}

func (t *tokenizer) next() (string, error) {
	var token []byte
	inComment := false
	for {
		b, err := t.r.ReadByte()
		if err == io.EOF {
			if len(token) > 0 {
				return string(token), nil
			}
			return "", io.ErrUnexpectedEOF
		}
		if err != nil {
			return "", err
		}
		t.offset++

		switch {
		case inComment:
			if b == '\n' || b == '\r' {
				inComment = false
			}
		case b == '#':
			if len(token) > 0 {
				t.offset--
				return string(token), t.r.UnreadByte()
			}
			inComment = true
		case b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f':
			if len(token) > 0 {
				return string(token), nil
			}
		default:
			token = append(token, b)
		}
	}
}

func (t *tokenizer) nextInt(what string) (int, error) {
	token, err := t.next()
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s: %w", ErrMalformedPPM, what, err)
	}
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q at byte %d is not an integer", ErrMalformedPPM, what, token, t.offset)
	}
	return v, nil
}
