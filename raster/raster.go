package raster

import (
	"fmt"
	"image"
	"image/color"

	"MandelbrotMovie/task"
)

type Buffer struct {
	Height int
	Pix    []uint32
	Width  int
}

func Allocate(width int, height int) *Buffer {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("raster: negative dimensions %dx%d", width, height))
	}
	return &Buffer{
		Height: height,
		Pix:    make([]uint32, width*height),
		Width:  width,
	}
}

// Release drops the pixel memory. The buffer must not be used afterwards.
func (b *Buffer) Release() {
	b.Pix = nil
}

func (b *Buffer) Released() bool {
	return b.Pix == nil
}

func (b *Buffer) At(column int, row int) uint32 {
	return b.Pix[row*b.Width+column]
}

func (b *Buffer) Fill(c uint32) {
	for i := range b.Pix {
		b.Pix[i] = c
	}
}

// Split
// Carves the buffer into one Rows per range. The ranges must be ordered, disjoint and inside the buffer.
func (b *Buffer) Split(ranges []task.RowRange) ([]Rows, error) {
	rows := make([]Rows, len(ranges))
	next := 0
	for i, r := range ranges {
		if r.Start < next || r.End < r.Start || r.End > b.Height {
			return nil, fmt.Errorf("raster: range %s overlaps or leaves the %dx%d buffer", r.String(), b.Width, b.Height)
		}
		lo, hi := r.Start*b.Width, r.End*b.Width
		rows[i] = Rows{
			Range: r,
			Width: b.Width,
			pix:   b.Pix[lo:hi:hi],
		}
		next = r.End
	}
	return rows, nil
}

func (b *Buffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for row := 0; row < b.Height; row++ {
		for column := 0; column < b.Width; column++ {
			img.SetRGBA(column, row, ToRGBA(b.Pix[row*b.Width+column]))
		}
	}
	return img
}

// Rows is the writable window one render goroutine owns
type Rows struct {
	pix []uint32

	Range task.RowRange
	Width int
}

// Set panics outside the owned rows
func (r Rows) Set(column int, row int, c uint32) {
	if !r.Range.Contains(row) || column < 0 || column >= r.Width {
		panic(fmt.Sprintf("raster: pixel (%d, %d) is outside %s", column, row, r.Range.String()))
	}
	r.pix[(row-r.Range.Start)*r.Width+column] = c
}

// ToRGBA unpacks the low 24 bits of a packed color, red in bits 16-23 and blue in bits 0-7
func ToRGBA(c uint32) color.RGBA {
	return color.RGBA{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: 255,
	}
}
