package vm

// ---------------------------------------------------------------------------
// Tape: growable byte memory with a cursor
// ---------------------------------------------------------------------------

// Tape is a sequence of byte cells, all initially zero, and a cursor.
// The cursor always indexes an existing cell. The tape only grows.
type Tape struct {
	cells []byte
	pos   int
}

// NewTape creates a tape with size zeroed cells. Sizes below one are
// raised to one so the cursor always has a cell to point at.
func NewTape(size int) *Tape {
	if size < 1 {
		size = 1
	}
	return &Tape{cells: make([]byte, size)}
}

// MoveRight advances the cursor by n cells, growing the tape with zero
// cells when the cursor passes its end.
func (t *Tape) MoveRight(n int) {
	t.pos += n
	if t.pos >= len(t.cells) {
		t.grow(t.pos + 1)
	}
}

// MoveLeft moves the cursor back by n cells. Moving before the first cell
// fails with ErrNegativeAddress and leaves the cursor unchanged.
func (t *Tape) MoveLeft(n int) error {
	if n > t.pos {
		return ErrNegativeAddress
	}
	t.pos -= n
	return nil
}

// Increment adds n to the current cell, modulo 256.
func (t *Tape) Increment(n int) {
	t.cells[t.pos] += byte(n)
}

// Decrement subtracts n from the current cell, modulo 256.
func (t *Tape) Decrement(n int) {
	t.cells[t.pos] -= byte(n)
}

// Read returns the current cell.
func (t *Tape) Read() byte {
	return t.cells[t.pos]
}

// Write sets the current cell.
func (t *Tape) Write(b byte) {
	t.cells[t.pos] = b
}

// Cursor returns the current cell index.
func (t *Tape) Cursor() int {
	return t.pos
}

// Len returns the number of cells.
func (t *Tape) Len() int {
	return len(t.cells)
}

// Cells returns a copy of the tape contents.
func (t *Tape) Cells() []byte {
	out := make([]byte, len(t.cells))
	copy(out, t.cells)
	return out
}

// grow extends the tape to size cells. Existing cells keep their values
// and new cells are zero.
func (t *Tape) grow(size int) {
	t.cells = append(t.cells, make([]byte, size-len(t.cells))...)
}
