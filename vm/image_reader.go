package vm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/brainiac/compiler"
	"github.com/chazu/brainiac/compiler/hash"
)

var (
	ErrInvalidMagic    = errors.New("invalid magic number: expected BFIM")
	ErrVersionMismatch = errors.New("image version mismatch")
	ErrUnexpectedEOF   = errors.New("unexpected end of image data")
	ErrCorruptImage    = errors.New("corrupt image data")
)

// ---------------------------------------------------------------------------
// ImageReader
// ---------------------------------------------------------------------------

// ReadImage deserializes an image from r and verifies its content hash.
func ReadImage(r io.Reader) (*Image, error) {
	var header [ImageHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}
	if !bytes.Equal(header[:4], ImageMagic[:]) {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(header[4:]); v != ImageVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, v, ImageVersion)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrUnexpectedEOF
	}

	var payload imagePayload
	if err := cbor.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	sum := hash.Bytes(payload.Code, payload.MemorySize)
	if !bytes.Equal(sum[:], payload.Hash) {
		return nil, fmt.Errorf("%w: content hash mismatch", ErrCorruptImage)
	}
	if payload.MemorySize < 1 || payload.MemorySize > MaxImageMemory {
		return nil, fmt.Errorf("%w: memory size %d", ErrCorruptImage, payload.MemorySize)
	}

	prog, err := compiler.UnmarshalProgram(payload.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	return &Image{MemorySize: payload.MemorySize, Program: prog}, nil
}

// LoadImage reads an image file from path.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := ReadImage(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return img, nil
}
