package encoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/raster"

	"github.com/klauspost/compress/zstd"
)

// rawMagic starts every raw frame, followed by the little endian width and height and then every packed pixel as a
// little endian uint32. The whole stream is zstd compressed.
var rawMagic = [4]byte{'M', 'B', 'R', 'W'}

// maxRawPixels bounds the frame size a header may claim
const maxRawPixels = 1 << 28

var (
	ErrNotRaw       = errors.New("not a raw frame")
	ErrRawOversized = errors.New("raw frame too large")
)

// rawEncoder keeps the full packed value of every pixel, bits past 24 included, so frames can be compared exactly
type rawEncoder struct{}

func (rawEncoder) Extension() string { return "zst" }

func (rawEncoder) Encode(buffer *raster.Buffer, path string) error {
	var encoded bytes.Buffer
	if err := EncodeRaw(&encoded, buffer); err != nil {
		return fmt.Errorf("raw encode %s: %w", path, err)
	}
	return writeEncoded(path, &encoded)
}

func EncodeRaw(w io.Writer, buffer *raster.Buffer) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}

	header := make([]byte, 12)
	copy(header, rawMagic[:])
	binary.LittleEndian.PutUint32(header[4:], uint32(buffer.Width))
	binary.LittleEndian.PutUint32(header[8:], uint32(buffer.Height))
	if _, err = enc.Write(header); err != nil {
		enc.Close()
		return fmt.Errorf("zstd encode: %w", err)
	}

	row := make([]byte, 4*buffer.Width)
	for r := 0; r < buffer.Height; r++ {
		for c, p := range buffer.Pix[r*buffer.Width : (r+1)*buffer.Width] {
			binary.LittleEndian.PutUint32(row[4*c:], p)
		}
		if _, err = enc.Write(row); err != nil {
			enc.Close()
			return fmt.Errorf("zstd encode: %w", err)
		}
	}

	if err = enc.Close(); err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}
	return nil
}

func DecodeRaw(r io.Reader) (*raster.Buffer, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	defer dec.Close()

	header := make([]byte, 12)
	if _, err = io.ReadFull(dec, header); err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	if !bytes.Equal(header[:4], rawMagic[:]) {
		return nil, ErrNotRaw
	}

	w := uint64(binary.LittleEndian.Uint32(header[4:]))
	h := uint64(binary.LittleEndian.Uint32(header[8:]))
	if w*h > maxRawPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrRawOversized, w, h)
	}
	width, height := int(w), int(h)
	payload := make([]byte, 4*width*height)
	if _, err = io.ReadFull(dec, payload); err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}

	buffer := raster.Allocate(width, height)
	for i := range buffer.Pix {
		buffer.Pix[i] = binary.LittleEndian.Uint32(payload[4*i:])
	}
	return buffer, nil
}

// ReadRawFile decodes a raw frame written by the zst encoder
func ReadRawFile(path string) (*raster.Buffer, error) {
	contents, err := misc.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeRaw(bytes.NewReader(contents))
}
