package drop

import (
	"time"

	"github.com/google/uuid"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

// DefaultTransientDelay is how long an incorrect piece stays on the board.
const DefaultTransientDelay = 500 * time.Millisecond

// Block is a placed measuring block.
type Block struct {
	ID          string          `json:"id"`
	Position    grid.Coordinate `json:"position"`
	Orientation Orientation     `json:"orientation"`
	Size        float64         `json:"size"`
	Correct     bool            `json:"correct"`
}

// Placement reports what a drop did to the board.
type Placement struct {
	Verdict Verdict `json:"verdict"`
	// Block is set when a block was added.
	Block *Block `json:"block,omitempty"`
	// Ignored drops change nothing, not even the error count.
	Ignored bool `json:"ignored,omitempty"`
	// Expires is non-zero for a transient block.
	Expires time.Duration `json:"expires,omitempty"`
	Error   bool          `json:"error,omitempty"`
}

// Board holds the blocks placed for one solution and counts errors.
//
// With TransientIncorrect unset an accepted drop that misses the solution
// is treated like a location rejection. With it set the block is shown
// briefly and the caller must call Expire after Placement.Expires.
type Board struct {
	Solution           Solution
	TransientIncorrect bool
	TransientDelay     time.Duration

	blocks []Block
	errors int
}

// NewBoard returns an empty board for s.
func NewBoard(s Solution) *Board {
	return &Board{Solution: s, TransientDelay: DefaultTransientDelay}
}

// Drop applies a verdict for item.
func (b *Board) Drop(item Item, v Verdict) Placement {
	if !v.Accepted {
		b.errors++
		return Placement{Verdict: v, Error: true}
	}
	if b.occupied(v.Snapped, item.Orientation) {
		return Placement{Verdict: v, Ignored: true}
	}

	if !v.Correct {
		b.errors++
		if !b.TransientIncorrect {
			v.Accepted = false
			v.Reason = ReasonLocation
			return Placement{Verdict: v, Error: true}
		}
		block := b.add(item, v)
		delay := b.TransientDelay
		if delay <= 0 {
			delay = DefaultTransientDelay
		}
		return Placement{Verdict: v, Block: &block, Expires: delay, Error: true}
	}

	if b.CorrectCount() >= b.Solution.Distance {
		return Placement{Verdict: v, Ignored: true}
	}
	block := b.add(item, v)
	return Placement{Verdict: v, Block: &block}
}

func (b *Board) add(item Item, v Verdict) Block {
	block := Block{
		ID:          uuid.NewString(),
		Position:    v.Snapped,
		Orientation: item.Orientation,
		Size:        item.Size,
		Correct:     v.Correct,
	}
	b.blocks = append(b.blocks, block)
	return block
}

func (b *Board) occupied(at grid.Coordinate, o Orientation) bool {
	for _, blk := range b.blocks {
		if blk.Orientation == o && blk.Position.Equal(at) {
			return true
		}
	}
	return false
}

// Expire removes a transient block. It reports false when the block is
// gone already or was correct.
func (b *Board) Expire(id string) bool {
	for i, blk := range b.blocks {
		if blk.ID == id && !blk.Correct {
			b.blocks = append(b.blocks[:i], b.blocks[i+1:]...)
			return true
		}
	}
	return false
}

// CountError records a mistake made outside a drop.
func (b *Board) CountError() {
	b.errors++
}

// Blocks returns a copy of the placed blocks.
func (b *Board) Blocks() []Block {
	out := make([]Block, len(b.blocks))
	copy(out, b.blocks)
	return out
}

// CorrectCount returns the number of correct blocks.
func (b *Board) CorrectCount() int {
	n := 0
	for _, blk := range b.blocks {
		if blk.Correct {
			n++
		}
	}
	return n
}

// Complete reports whether the solution is fully covered.
func (b *Board) Complete() bool {
	return b.CorrectCount() >= b.Solution.Distance
}

// Errors returns the error count.
func (b *Board) Errors() int {
	return b.errors
}

// Restore replaces the board contents, used when resuming a level.
func (b *Board) Restore(blocks []Block, errors int) {
	b.blocks = append([]Block(nil), blocks...)
	b.errors = errors
}

// Reset clears blocks but keeps the error count, which runs across
// sub-levels.
func (b *Board) Reset(s Solution) {
	b.Solution = s
	b.blocks = nil
}
