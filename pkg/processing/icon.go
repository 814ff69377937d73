package processing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// IconSizes are the square resolutions GenerateIcon can embed.
var IconSizes = []int{16, 32, 64, 128, 256}

type iconDir struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type iconDirEntry struct {
	Width      uint8
	Height     uint8
	Colors     uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

// GenerateIcon writes a multi-resolution ICO file holding one PNG per entry
// of IconSizes not larger than maxResolution (0 means 256). Pure white is
// made transparent.
func (p *Processor) GenerateIcon(w io.Writer, img image.Image, maxResolution int) error {
	if maxResolution <= 0 {
		maxResolution = 256
	}

	largest := IconSizes[len(IconSizes)-1]
	base := imaging.Resize(img, largest, largest, p.filter)
	whiteToTransparent(base)

	var payloads [][]byte
	var sizes []int
	for _, size := range IconSizes {
		if size > maxResolution {
			break
		}
		frame := base
		if size != largest {
			frame = imaging.Resize(base, size, size, p.filter)
			whiteToTransparent(frame)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, frame); err != nil {
			return fmt.Errorf("%w: icon %dx%d: %w", ErrUnableToProcess, size, size, err)
		}
		payloads = append(payloads, buf.Bytes())
		sizes = append(sizes, size)
	}
	if len(payloads) == 0 {
		return fmt.Errorf("%w: no icon size fits within %dpx", ErrUnableToProcess, maxResolution)
	}

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, iconDir{Type: 1, Count: uint16(len(payloads))}); err != nil {
		return fmt.Errorf("%w: icon header: %w", ErrUnableToProcess, err)
	}

	offset := 6 + 16*len(payloads)
	for i, data := range payloads {
		entry := iconDirEntry{
			Width:      iconExtent(sizes[i]),
			Height:     iconExtent(sizes[i]),
			Planes:     1,
			BitCount:   32,
			BytesInRes: uint32(len(data)),
			Offset:     uint32(offset),
		}
		if err := binary.Write(&out, binary.LittleEndian, entry); err != nil {
			return fmt.Errorf("%w: icon entry %d: %w", ErrUnableToProcess, i, err)
		}
		offset += len(data)
	}
	for _, data := range payloads {
		out.Write(data)
	}

	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrUnableToProcess, err)
	}
	return nil
}

// iconExtent encodes a side length; 256 is stored as 0.
func iconExtent(size int) uint8 {
	if size >= 256 {
		return 0
	}
	return uint8(size)
}

func whiteToTransparent(img *image.NRGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] == 0xff && img.Pix[i+1] == 0xff && img.Pix[i+2] == 0xff {
			img.Pix[i+3] = 0
		}
	}
}
