package vm

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewTape(t *testing.T) {
	tape := NewTape(3)
	if tape.Len() != 3 || tape.Cursor() != 0 {
		t.Fatalf("Len %d, Cursor %d", tape.Len(), tape.Cursor())
	}
	if !bytes.Equal(tape.Cells(), []byte{0, 0, 0}) {
		t.Errorf("cells = %v", tape.Cells())
	}
	for _, size := range []int{0, -5} {
		if got := NewTape(size).Len(); got != 1 {
			t.Errorf("NewTape(%d).Len() = %d, want 1", size, got)
		}
	}
}

func TestTapeWraparound(t *testing.T) {
	tape := NewTape(1)

	tape.Write(255)
	tape.Increment(1)
	if got := tape.Read(); got != 0 {
		t.Errorf("255+1 = %d, want 0", got)
	}

	tape.Decrement(1)
	if got := tape.Read(); got != 255 {
		t.Errorf("0-1 = %d, want 255", got)
	}

	tape.Write(0)
	tape.Increment(300)
	if got := tape.Read(); got != 44 {
		t.Errorf("0+300 = %d, want 44", got)
	}

	tape.Decrement(556)
	if got := tape.Read(); got != 0 {
		t.Errorf("44-556 = %d, want 0", got)
	}
}

func TestTapeMoveLeftUnderflow(t *testing.T) {
	tape := NewTape(4)
	tape.MoveRight(2)

	for _, n := range []int{3, 100} {
		if err := tape.MoveLeft(n); !errors.Is(err, ErrNegativeAddress) {
			t.Errorf("MoveLeft(%d) = %v, want ErrNegativeAddress", n, err)
		}
		if tape.Cursor() != 2 {
			t.Errorf("cursor moved to %d on failure", tape.Cursor())
		}
	}

	if err := tape.MoveLeft(2); err != nil {
		t.Fatalf("MoveLeft(2): %v", err)
	}
	if tape.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", tape.Cursor())
	}
	if err := tape.MoveLeft(1); !errors.Is(err, ErrNegativeAddress) {
		t.Errorf("MoveLeft at cell 0 = %v", err)
	}
}

func TestTapeGrowth(t *testing.T) {
	tape := NewTape(2)
	tape.Write(7)
	tape.MoveRight(1)
	tape.Write(9)

	tape.MoveRight(5)
	if tape.Cursor() != 6 || tape.Len() != 7 {
		t.Fatalf("Cursor %d, Len %d, want 6 and 7", tape.Cursor(), tape.Len())
	}
	if !bytes.Equal(tape.Cells(), []byte{7, 9, 0, 0, 0, 0, 0}) {
		t.Errorf("cells = %v", tape.Cells())
	}

	// Moving within the tape does not grow it.
	if err := tape.MoveLeft(6); err != nil {
		t.Fatal(err)
	}
	tape.MoveRight(3)
	if tape.Len() != 7 {
		t.Errorf("Len = %d after moving inside the tape", tape.Len())
	}
}

func TestTapeCellsIsCopy(t *testing.T) {
	tape := NewTape(2)
	cells := tape.Cells()
	cells[0] = 99
	if tape.Read() != 0 {
		t.Error("mutating Cells() changed the tape")
	}
}
