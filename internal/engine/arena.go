package engine

import (
	"fmt"
	"sync/atomic"

	mandel "github.com/marben/mandelview"
)

type slotState int32

const (
	slotFree slotState = iota
	slotOut
	slotReturned
)

func (s slotState) String() string {
	switch s {
	case slotFree:
		return "free"
	case slotOut:
		return "checked out"
	case slotReturned:
		return "returned"
	default:
		return fmt.Sprintf("slotState(%d)", int32(s))
	}
}

type rowSlot struct {
	state atomic.Int32
	buf   []int
}

// rowArena owns one destination slot per row. A slot moves free -> out ->
// returned exactly once; any other transition is an ownership violation.
type rowArena struct {
	width int
	slots []rowSlot
}

func newRowArena(rows, width int) *rowArena {
	return &rowArena{width: width, slots: make([]rowSlot, rows)}
}

// checkout hands row y to the calling worker. The buffer is allocated here so
// that allocation happens on the worker goroutine.
func (a *rowArena) checkout(y int) ([]int, error) {
	s := &a.slots[y]
	if !s.state.CompareAndSwap(int32(slotFree), int32(slotOut)) {
		return nil, fmt.Errorf("checkout row %d: slot is %s: %w", y, slotState(s.state.Load()), mandel.ErrRowOwnership)
	}
	s.buf = make([]int, a.width)
	return s.buf, nil
}

// giveBack returns row y to the arena.
func (a *rowArena) giveBack(y int) error {
	s := &a.slots[y]
	if !s.state.CompareAndSwap(int32(slotOut), int32(slotReturned)) {
		return fmt.Errorf("return row %d: slot is %s: %w", y, slotState(s.state.Load()), mandel.ErrRowOwnership)
	}
	return nil
}

// collect reclaims every row. It must only be called after all workers have
// joined. Any slot not in the returned state aborts the collection.
func (a *rowArena) collect() ([][]int, error) {
	rows := make([][]int, len(a.slots))
	for y := range a.slots {
		s := &a.slots[y]
		if st := slotState(s.state.Load()); st != slotReturned {
			return nil, fmt.Errorf("collect row %d: slot is %s: %w", y, st, mandel.ErrRowOwnership)
		}
		if len(s.buf) != a.width {
			return nil, fmt.Errorf("collect row %d: %d entries, want %d: %w", y, len(s.buf), a.width, mandel.ErrRowOwnership)
		}
		rows[y] = s.buf
		s.buf = nil
	}
	return rows, nil
}
