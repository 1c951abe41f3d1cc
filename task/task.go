package task

import (
	"fmt"
)

// RowRange is the half-open interval [Start, End) of image rows handed to one render goroutine
type RowRange struct {
	Start int
	End   int
}

func (r RowRange) Len() int {
	return r.End - r.Start
}

func (r RowRange) Contains(row int) bool {
	return row >= r.Start && row < r.End
}

func (r RowRange) String() string {
	return fmt.Sprintf("{RowRange Start: %d End: %d}", r.Start, r.End)
}

// Partition
// Splits the rows [0, height) into exactly threadCount contiguous ranges in increasing order. Every range gets
// height/threadCount rows and the first height%threadCount ranges get one extra row, so range sizes never differ by
// more than one. Callers clamp threadCount before calling; a non-positive count panics.
func Partition(height int, threadCount int) []RowRange {
	if threadCount < 1 {
		panic(fmt.Sprintf("task: partition needs a positive thread count, got %d", threadCount))
	}
	if height < 0 {
		height = 0
	}

	base := height / threadCount
	extra := height % threadCount

	ranges := make([]RowRange, threadCount)
	row := 0
	for t := 0; t < threadCount; t++ {
		rows := base
		if t < extra {
			rows++
		}
		ranges[t] = RowRange{Start: row, End: row + rows}
		row += rows
	}
	return ranges
}

// Stripe
// Returns the frame indices owned by the worker process with the given ordinal: ordinal, ordinal+processCount, ...
// up to totalFrames. Round-robin striping spreads cheap and expensive frames evenly over the processes.
func Stripe(ordinal int, processCount int, totalFrames int) []int {
	if processCount < 1 || ordinal < 0 || ordinal >= processCount {
		return nil
	}
	frames := make([]int, 0, totalFrames/processCount+1)
	for frame := ordinal; frame < totalFrames; frame += processCount {
		frames = append(frames, frame)
	}
	return frames
}
