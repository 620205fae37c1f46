// Package texture decodes and encodes TGA images and samples them as
// diffuse and normal maps.
package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the size of the fixed TGA header in bytes.
const HeaderSize = 18

// TGA data type codes.
const (
	TypeTrueColor    = 2
	TypeGrayscale    = 3
	TypeRLETrueColor = 10
	TypeRLEGrayscale = 11
)

// Image descriptor origin bits.
const (
	OriginRight = 0x10 // columns stored right to left
	OriginTop   = 0x20 // rows stored top to bottom
)

// maxPacket is the largest pixel count a single RLE packet can carry.
const maxPacket = 128

// A FormatError reports that the input is not a valid or supported TGA image.
type FormatError string

func (e FormatError) Error() string { return "tga: invalid format: " + string(e) }

// Header is the fixed 18-byte TGA header.
type Header struct {
	IDLength       uint8
	ColorMapType   uint8
	DataType       uint8
	ColorMapOrigin uint16
	ColorMapLength uint16
	ColorMapDepth  uint8
	XOrigin        uint16
	YOrigin        uint16
	Width          uint16
	Height         uint16
	BitsPerPixel   uint8
	Descriptor     uint8
}

// BytesPerPixel returns the pixel size in bytes.
func (h Header) BytesPerPixel() int {
	return int(h.BitsPerPixel >> 3)
}

func parseHeader(b []byte) Header {
	le := binary.LittleEndian
	return Header{
		IDLength:       b[0],
		ColorMapType:   b[1],
		DataType:       b[2],
		ColorMapOrigin: le.Uint16(b[3:]),
		ColorMapLength: le.Uint16(b[5:]),
		ColorMapDepth:  b[7],
		XOrigin:        le.Uint16(b[8:]),
		YOrigin:        le.Uint16(b[10:]),
		Width:          le.Uint16(b[12:]),
		Height:         le.Uint16(b[14:]),
		BitsPerPixel:   b[16],
		Descriptor:     b[17],
	}
}

func (h Header) marshal() []byte {
	b := make([]byte, HeaderSize)
	le := binary.LittleEndian
	b[0] = h.IDLength
	b[1] = h.ColorMapType
	b[2] = h.DataType
	le.PutUint16(b[3:], h.ColorMapOrigin)
	le.PutUint16(b[5:], h.ColorMapLength)
	b[7] = h.ColorMapDepth
	le.PutUint16(b[8:], h.XOrigin)
	le.PutUint16(b[10:], h.YOrigin)
	le.PutUint16(b[12:], h.Width)
	le.PutUint16(b[14:], h.Height)
	b[16] = h.BitsPerPixel
	b[17] = h.Descriptor
	return b
}

func validBpp(bpp int) bool {
	return bpp == 1 || bpp == 3 || bpp == 4
}

// Decode reads a TGA image from r.
func Decode(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tga: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a TGA image held in memory. Supported payloads are raw
// and run-length encoded truecolor or grayscale at 8, 24 or 32 bits per pixel.
// On error no image is returned.
func DecodeBytes(data []byte) (*Image, error) {
	if len(data) < HeaderSize {
		return nil, FormatError("short header")
	}
	h := parseHeader(data)

	bpp := h.BytesPerPixel()
	if h.Width == 0 || h.Height == 0 || !validBpp(bpp) {
		return nil, FormatError(fmt.Sprintf("bad bpp (%d) or size (%dx%d)", h.BitsPerPixel, h.Width, h.Height))
	}

	offset := HeaderSize + int(h.IDLength) + int(h.ColorMapLength)*((int(h.ColorMapDepth)+7)/8)
	if offset > len(data) {
		return nil, FormatError("truncated color map")
	}
	payload := data[offset:]
	size := int(h.Width) * int(h.Height) * bpp

	var pix []byte
	switch h.DataType {
	case TypeTrueColor, TypeGrayscale:
		if len(payload) < size {
			return nil, FormatError("truncated pixel data")
		}
		pix = make([]byte, size)
		copy(pix, payload)
	case TypeRLETrueColor, TypeRLEGrayscale:
		var err error
		if pix, err = decodeRLE(payload, size, bpp); err != nil {
			return nil, err
		}
	default:
		return nil, FormatError(fmt.Sprintf("unsupported data type %d", h.DataType))
	}

	return &Image{Header: h, Pix: pix}, nil
}

// decodeRLE expands packets until size bytes are produced. A packet header
// with the high bit set repeats the following pixel N+1 times; otherwise the
// next N+1 pixels are copied literally.
func decodeRLE(src []byte, size, bpp int) ([]byte, error) {
	pix := make([]byte, size)
	out, in := 0, 0

	for out < size {
		if in >= len(src) {
			return nil, FormatError("truncated rle data")
		}
		packet := src[in]
		in++
		n := int(packet&0x7f) + 1
		if out+n*bpp > size {
			return nil, FormatError("rle packet overflows image")
		}

		if packet&0x80 != 0 {
			if in+bpp > len(src) {
				return nil, FormatError("truncated rle data")
			}
			px := src[in : in+bpp]
			in += bpp
			for range n {
				out += copy(pix[out:], px)
			}
			continue
		}

		nbytes := n * bpp
		if in+nbytes > len(src) {
			return nil, FormatError("truncated rle data")
		}
		out += copy(pix[out:], src[in:in+nbytes])
		in += nbytes
	}

	return pix, nil
}

// Encode writes img as an uncompressed TGA.
func Encode(w io.Writer, img *Image) error {
	return encode(w, img, false)
}

// EncodeRLE writes img as a run-length encoded TGA.
func EncodeRLE(w io.Writer, img *Image) error {
	return encode(w, img, true)
}

func encode(w io.Writer, img *Image, rle bool) error {
	h := img.Header
	bpp := h.BytesPerPixel()
	if h.Width == 0 || h.Height == 0 || !validBpp(bpp) {
		return FormatError("cannot encode image with bad bpp or size")
	}
	if len(img.Pix) != int(h.Width)*int(h.Height)*bpp {
		return FormatError("pixel buffer does not match header")
	}

	// Image ID and color map are never written.
	h.IDLength, h.ColorMapType, h.ColorMapOrigin, h.ColorMapLength, h.ColorMapDepth = 0, 0, 0, 0, 0
	gray := bpp == 1
	switch {
	case rle && gray:
		h.DataType = TypeRLEGrayscale
	case rle:
		h.DataType = TypeRLETrueColor
	case gray:
		h.DataType = TypeGrayscale
	default:
		h.DataType = TypeTrueColor
	}

	var buf bytes.Buffer
	buf.Write(h.marshal())
	if rle {
		encodeRLE(&buf, img.Pix, bpp)
	} else {
		buf.Write(img.Pix)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write tga: %w", err)
	}
	return nil
}

func encodeRLE(buf *bytes.Buffer, pix []byte, bpp int) {
	count := len(pix) / bpp
	at := func(i int) []byte { return pix[i*bpp : (i+1)*bpp] }
	runAt := func(i int) int {
		n := 1
		for i+n < count && n < maxPacket && bytes.Equal(at(i), at(i+n)) {
			n++
		}
		return n
	}

	for i := 0; i < count; {
		if n := runAt(i); n > 1 {
			buf.WriteByte(0x80 | byte(n-1))
			buf.Write(at(i))
			i += n
			continue
		}

		start := i
		for i < count && i-start < maxPacket && (i == start || runAt(i) == 1) {
			i++
		}
		buf.WriteByte(byte(i - start - 1))
		buf.Write(pix[start*bpp : i*bpp])
	}
}
