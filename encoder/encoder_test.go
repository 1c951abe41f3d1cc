package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"MandelbrotMovie/raster"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func makeTestBuffer(w, h int) *raster.Buffer {
	b := raster.Allocate(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Pix[y*w+x] = uint32((x*17)^(y*31))<<16 | uint32(x*43+y*13)<<8 | uint32((x*7)^(y*11))
		}
	}
	return b
}

func TestNewKnowsFormats(t *testing.T) {
	tests := map[string]string{
		"jpg":  "jpg",
		"JPEG": "jpg",
		".png": "png",
		"bmp":  "bmp",
		"tif":  "tiff",
		"tiff": "tiff",
		"qoi":  "qoi",
		"zst":  "zst",
	}
	for format, extension := range tests {
		enc, err := New(format)
		if err != nil {
			t.Errorf("New(%q): %v", format, err)
			continue
		}
		if enc.Extension() != extension {
			t.Errorf("New(%q).Extension() = %q, want %q", format, enc.Extension(), extension)
		}
		if !Supported(format) {
			t.Errorf("Supported(%q) = false", format)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("New(\"gif\") error = %v, want ErrUnknownFormat", err)
	}
	if Supported("webp") {
		t.Error("Supported(\"webp\") = true")
	}
}

func TestFormatsSorted(t *testing.T) {
	got := Formats()
	want := []string{"bmp", "jpg", "png", "qoi", "tiff", "zst"}
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Formats() = %v, want %v", got, want)
		}
	}
}

func TestLosslessFormatsKeepPixels(t *testing.T) {
	src := makeTestBuffer(24, 16)
	decoders := map[string]func(*bytes.Reader) (image.Image, error){
		"png":  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		"bmp":  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		"tiff": func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
		"qoi":  func(r *bytes.Reader) (image.Image, error) { return qoi.Decode(r) },
	}

	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			enc, err := New(format)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			path := filepath.Join(t.TempDir(), "frame000."+enc.Extension())
			if err = enc.Encode(src, path); err != nil {
				t.Fatalf("Encode: %v", err)
			}

			contents, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			img, err := decode(bytes.NewReader(contents))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Bounds() != image.Rect(0, 0, src.Width, src.Height) {
				t.Fatalf("bounds = %v", img.Bounds())
			}
			for y := 0; y < src.Height; y++ {
				for x := 0; x < src.Width; x++ {
					want := raster.ToRGBA(src.At(x, y))
					got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
					if got != want {
						t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestJpegEncode(t *testing.T) {
	enc, err := New("jpg", WithJpegQuality(250))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if q := enc.(jpegEncoder).quality; q != 100 {
		t.Errorf("quality = %d, want clamped to 100", q)
	}

	path := filepath.Join(t.TempDir(), "mandel000.jpg")
	if err = enc.Encode(makeTestBuffer(32, 20), path); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	config, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if config.Width != 32 || config.Height != 20 {
		t.Errorf("decoded size %dx%d, want 32x20", config.Width, config.Height)
	}
}

func TestEncodeToMissingDirectoryFails(t *testing.T) {
	enc, _ := New("png")
	path := filepath.Join(t.TempDir(), "missing", "frame000.png")
	if err := enc.Encode(makeTestBuffer(2, 2), path); err == nil {
		t.Error("expected an error writing into a missing directory")
	}
}
