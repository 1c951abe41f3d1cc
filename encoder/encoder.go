package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"sort"
	"strings"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/raster"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var ErrUnknownFormat = errors.New("unknown image format")

// Encoder is the sink a rendered frame is handed to
type Encoder interface {
	Encode(buffer *raster.Buffer, path string) error
	Extension() string
}

type Option func(*options)

type options struct {
	jpegQuality int
}

// WithJpegQuality sets the jpeg quality, clamped to [1, 100]
func WithJpegQuality(quality int) Option {
	return func(o *options) {
		if quality < 1 {
			quality = 1
		}
		if quality > 100 {
			quality = 100
		}
		o.jpegQuality = quality
	}
}

var formats = map[string]func(o options) Encoder{
	"jpg":  func(o options) Encoder { return jpegEncoder{quality: o.jpegQuality} },
	"png":  func(o options) Encoder { return pngEncoder{} },
	"bmp":  func(o options) Encoder { return bmpEncoder{} },
	"tiff": func(o options) Encoder { return tiffEncoder{} },
	"qoi":  func(o options) Encoder { return qoiEncoder{} },
	"zst":  func(o options) Encoder { return rawEncoder{} },
}

// New returns the encoder for format. "jpeg" and "tif" are accepted as aliases.
func New(format string, opts ...Option) (Encoder, error) {
	o := options{jpegQuality: jpeg.DefaultQuality}
	for _, opt := range opts {
		opt(&o)
	}

	constructor, ok := formats[normalize(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
	return constructor(o), nil
}

func Supported(format string) bool {
	_, ok := formats[normalize(format)]
	return ok
}

// Formats lists the supported format names in sorted order
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(format string) string {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	}
	return format
}

func writeEncoded(path string, encoded *bytes.Buffer) error {
	bytesWritten, err := misc.WriteFile(path, encoded.Bytes())
	if err != nil {
		return err
	}
	if bytesWritten != encoded.Len() {
		return fmt.Errorf("short write to %s: %d of %d bytes", path, bytesWritten, encoded.Len())
	}
	return nil
}

type jpegEncoder struct {
	quality int
}

func (e jpegEncoder) Extension() string { return "jpg" }

func (e jpegEncoder) Encode(buffer *raster.Buffer, path string) error {
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, buffer.Image(), &jpeg.Options{Quality: e.quality}); err != nil {
		return fmt.Errorf("jpeg encode %s: %w", path, err)
	}
	return writeEncoded(path, &encoded)
}

type pngEncoder struct{}

func (pngEncoder) Extension() string { return "png" }

func (pngEncoder) Encode(buffer *raster.Buffer, path string) error {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, buffer.Image()); err != nil {
		return fmt.Errorf("png encode %s: %w", path, err)
	}
	return writeEncoded(path, &encoded)
}

type bmpEncoder struct{}

func (bmpEncoder) Extension() string { return "bmp" }

func (bmpEncoder) Encode(buffer *raster.Buffer, path string) error {
	var encoded bytes.Buffer
	if err := bmp.Encode(&encoded, buffer.Image()); err != nil {
		return fmt.Errorf("bmp encode %s: %w", path, err)
	}
	return writeEncoded(path, &encoded)
}

type tiffEncoder struct{}

func (tiffEncoder) Extension() string { return "tiff" }

func (tiffEncoder) Encode(buffer *raster.Buffer, path string) error {
	var encoded bytes.Buffer
	if err := tiff.Encode(&encoded, buffer.Image(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("tiff encode %s: %w", path, err)
	}
	return writeEncoded(path, &encoded)
}

type qoiEncoder struct{}

func (qoiEncoder) Extension() string { return "qoi" }

func (qoiEncoder) Encode(buffer *raster.Buffer, path string) error {
	var encoded bytes.Buffer
	if err := qoi.Encode(&encoded, buffer.Image()); err != nil {
		return fmt.Errorf("qoi encode %s: %w", path, err)
	}
	return writeEncoded(path, &encoded)
}
