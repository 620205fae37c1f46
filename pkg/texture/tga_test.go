package texture

import (
	"bytes"
	"errors"
	"testing"
)

func header(width, height, bpp, dataType int, descriptor uint8) []byte {
	h := Header{
		DataType:     uint8(dataType),
		Width:        uint16(width),
		Height:       uint16(height),
		BitsPerPixel: uint8(bpp * 8),
		Descriptor:   descriptor,
	}
	return h.marshal()
}

func TestCheckerRoundTrip(t *testing.T) {
	checker, err := NewChecker(16, 8, 3)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}

	for _, tc := range []struct {
		name   string
		encode func(*bytes.Buffer, *Image) error
		want   uint8
	}{
		{"raw", func(b *bytes.Buffer, img *Image) error { return Encode(b, img) }, TypeTrueColor},
		{"rle", func(b *bytes.Buffer, img *Image) error { return EncodeRLE(b, img) }, TypeRLETrueColor},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.encode(&buf, checker); err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Header.DataType != tc.want {
				t.Errorf("data type = %d, want %d", got.Header.DataType, tc.want)
			}
			if got.Width() != 16 || got.Height() != 8 || got.Header.BytesPerPixel() != 3 {
				t.Errorf("header = %+v", got.Header)
			}
			if !bytes.Equal(got.Pix, checker.Pix) {
				t.Error("decoded pixels differ from the encoded checkerboard")
			}
		})
	}
}

func TestRLEEncodeCompresses(t *testing.T) {
	img, _ := New(200, 1, 3, 0)
	var raw, rle bytes.Buffer
	if err := Encode(&raw, img); err != nil {
		t.Fatal(err)
	}
	if err := EncodeRLE(&rle, img); err != nil {
		t.Fatal(err)
	}
	// 200 identical pixels need two run packets.
	if rle.Len() != HeaderSize+2*4 {
		t.Errorf("rle size = %d, want %d", rle.Len(), HeaderSize+8)
	}
	got, err := DecodeBytes(rle.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Error("rle round trip mismatch")
	}
}

func TestDecodeRLEPackets(t *testing.T) {
	red := []byte{0, 0, 255}
	green := []byte{0, 255, 0}

	data := header(6, 1, 3, TypeRLETrueColor, 0)
	data = append(data, 0x00) // raw packet, one pixel
	data = append(data, red...)
	data = append(data, 0x84) // run packet, five pixels
	data = append(data, green...)

	img, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	want := append([]byte{}, red...)
	for range 5 {
		want = append(want, green...)
	}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("pixels = %v, want %v", img.Pix, want)
	}
}

func TestDecodeSkipsIDAndColorMap(t *testing.T) {
	h := Header{
		IDLength:       3,
		DataType:       TypeGrayscale,
		ColorMapLength: 2,
		ColorMapDepth:  24,
		Width:          2,
		Height:         1,
		BitsPerPixel:   8,
	}
	data := h.marshal()
	data = append(data, 'a', 'b', 'c')
	data = append(data, 1, 2, 3, 4, 5, 6)
	data = append(data, 10, 20)

	img, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if !bytes.Equal(img.Pix, []byte{10, 20}) {
		t.Errorf("pixels = %v, want [10 20]", img.Pix)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0, 0, 2}},
		{"16 bpp", header(2, 2, 2, TypeTrueColor, 0)},
		{"zero width", header(0, 2, 3, TypeTrueColor, 0)},
		{"zero height", header(2, 0, 3, TypeTrueColor, 0)},
		{"color mapped", append(header(1, 1, 1, 1, 0), 0)},
		{"unknown type", append(header(1, 1, 1, 9, 0), 0)},
		{"truncated raw", append(header(2, 2, 3, TypeTrueColor, 0), 1, 2, 3)},
		{"truncated rle", append(header(2, 1, 3, TypeRLETrueColor, 0), 0x81, 1)},
		{"rle overflow", append(header(2, 1, 1, TypeRLEGrayscale, 0), 0x82, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeBytes(tt.data)
			if img != nil {
				t.Error("expected no image on error")
			}
			var fe FormatError
			if !errors.As(err, &fe) {
				t.Errorf("err = %v, want FormatError", err)
			}
		})
	}
}

func TestEncodeRejectsMismatchedBuffer(t *testing.T) {
	img := &Image{Header: Header{Width: 2, Height: 2, BitsPerPixel: 24}, Pix: make([]byte, 5)}
	var fe FormatError
	if err := Encode(&bytes.Buffer{}, img); !errors.As(err, &fe) {
		t.Errorf("err = %v, want FormatError", err)
	}
}
