package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Carmen-Shannon/moonlit/common"
	"github.com/google/uuid"
	"github.com/x448/float16"
)

// Radiance HDR errors.
var (
	ErrNotRadianceHDR = errors.New("not a Radiance HDR file")
	errHDRFormat      = errors.New("unsupported HDR pixel format")
	errHDRResolution  = errors.New("invalid HDR resolution line")
	errHDRScanline    = errors.New("corrupt HDR scanline")
)

const hdrMaxScanlineWidth = 0x7fff

// HDRImage is a decoded equirectangular radiance map, rows top to bottom, linear RGB.
type HDRImage struct {
	ID     uuid.UUID
	Name   string
	Width  int
	Height int
	// Pixels holds Width*Height RGB triples.
	Pixels []float32
}

// At returns the radiance of pixel (x, y).
func (h *HDRImage) At(x, y int) [3]float32 {
	i := (y*h.Width + x) * 3
	return [3]float32{h.Pixels[i], h.Pixels[i+1], h.Pixels[i+2]}
}

// Staging converts the image into RGBA16Float texels with alpha 1.
func (h *HDRImage) Staging() common.TextureStagingData {
	one := float16.Fromfloat32(1).Bits()
	pix := make([]byte, h.Width*h.Height*8)
	for i := range h.Width * h.Height {
		o := i * 8
		binary.LittleEndian.PutUint16(pix[o:], float16.Fromfloat32(h.Pixels[i*3]).Bits())
		binary.LittleEndian.PutUint16(pix[o+2:], float16.Fromfloat32(h.Pixels[i*3+1]).Bits())
		binary.LittleEndian.PutUint16(pix[o+4:], float16.Fromfloat32(h.Pixels[i*3+2]).Bits())
		binary.LittleEndian.PutUint16(pix[o+6:], one)
	}
	return common.TextureStagingData{
		Pixels: pix,
		Width:  uint32(h.Width),
		Height: uint32(h.Height),
		Format: common.PixelFormatRGBA16Float,
	}
}

// DecodeHDR decodes a Radiance RGBE image with flat or adaptive run-length scanlines.
//
// Parameters:
//   - r: the encoded image
//   - name: the label kept on the image
//
// Returns:
//   - *HDRImage: the decoded radiance
//   - error: ErrNotRadianceHDR, or a format error wrapping the failing stage
func DecodeHDR(r io.Reader, name string) (*HDRImage, error) {
	br := bufio.NewReader(r)

	magic, err := br.ReadString('\n')
	if err != nil || !(strings.HasPrefix(magic, "#?RADIANCE") || strings.HasPrefix(magic, "#?RGBE")) {
		return nil, ErrNotRadianceHDR
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read HDR header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("%w: %s", errHDRFormat, format)
		}
	}

	res, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read HDR resolution: %w", err)
	}
	var yDir, xDir string
	var width, height int
	if _, err := fmt.Sscanf(strings.TrimSpace(res), "%s %d %s %d", &yDir, &height, &xDir, &width); err != nil {
		return nil, fmt.Errorf("%w: %q", errHDRResolution, res)
	}
	if width <= 0 || height <= 0 || (yDir != "-Y" && yDir != "+Y") || xDir != "+X" {
		return nil, fmt.Errorf("%w: %q", errHDRResolution, res)
	}

	img := &HDRImage{
		ID:     uuid.New(),
		Name:   name,
		Width:  width,
		Height: height,
		Pixels: make([]float32, width*height*3),
	}
	scan := make([]byte, width*4)
	for y := range height {
		if err := readHDRScanline(br, scan, width); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		row := y
		if yDir == "+Y" {
			row = height - 1 - y
		}
		for x := range width {
			rgbeToFloat(scan[x*4:x*4+4], img.Pixels[(row*width+x)*3:])
		}
	}
	return img, nil
}

// readHDRScanline fills scan with width RGBE quads.
func readHDRScanline(br *bufio.Reader, scan []byte, width int) error {
	if _, err := io.ReadFull(br, scan[:4]); err != nil {
		return err
	}
	rle := width >= 8 && width <= hdrMaxScanlineWidth &&
		scan[0] == 2 && scan[1] == 2 && scan[2]&0x80 == 0
	if !rle {
		_, err := io.ReadFull(br, scan[4:])
		return err
	}
	if int(scan[2])<<8|int(scan[3]) != width {
		return errHDRScanline
	}

	// Adaptive RLE stores each channel separately.
	channel := make([]byte, width)
	for c := range 4 {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count - 128)
				if x+n > width {
					return errHDRScanline
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				for i := range n {
					channel[x+i] = v
				}
				x += n
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return errHDRScanline
			}
			if _, err := io.ReadFull(br, channel[x:x+n]); err != nil {
				return err
			}
			x += n
		}
		for x := range width {
			scan[x*4+c] = channel[x]
		}
	}
	return nil
}

func rgbeToFloat(rgbe []byte, out []float32) {
	if rgbe[3] == 0 {
		out[0], out[1], out[2] = 0, 0, 0
		return
	}
	scale := float32(math.Ldexp(1, int(rgbe[3])-(128+8)))
	out[0] = float32(rgbe[0]) * scale
	out[1] = float32(rgbe[1]) * scale
	out[2] = float32(rgbe[2]) * scale
}
