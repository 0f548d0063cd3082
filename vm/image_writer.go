package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/brainiac/compiler"
	"github.com/chazu/brainiac/compiler/hash"
)

// ---------------------------------------------------------------------------
// Image Format Constants
// ---------------------------------------------------------------------------

// ImageMagic is the magic number identifying a program image file.
var ImageMagic = [4]byte{'B', 'F', 'I', 'M'}

// Image format version
// v1: initial format
const ImageVersion uint32 = 1

// ImageHeaderSize is magic(4) + version(4).
const ImageHeaderSize = 8

// ImageExt is the file extension used for program images.
const ImageExt = ".bfimg"

// MaxImageMemory bounds the memory size an image may request.
const MaxImageMemory = math.MaxInt32

// Image is an optimized program together with the memory size it should
// start with.
type Image struct {
	MemorySize int
	Program    []compiler.Instruction
}

// imagePayload is the CBOR body following the header.
type imagePayload struct {
	MemorySize int    `cbor:"1,keyasint"`
	Code       []byte `cbor:"2,keyasint"`
	Hash       []byte `cbor:"3,keyasint"`
}

// ---------------------------------------------------------------------------
// ImageWriter
// ---------------------------------------------------------------------------

// WriteImage serializes img to w.
func WriteImage(w io.Writer, img *Image) error {
	code, err := compiler.MarshalProgram(img.Program)
	if err != nil {
		return fmt.Errorf("encode program: %w", err)
	}
	sum := hash.Bytes(code, img.MemorySize)

	payload, err := cbor.Marshal(imagePayload{
		MemorySize: img.MemorySize,
		Code:       code,
		Hash:       sum[:],
	})
	if err != nil {
		return fmt.Errorf("encode image: %w", err)
	}

	var header [ImageHeaderSize]byte
	copy(header[:4], ImageMagic[:])
	binary.LittleEndian.PutUint32(header[4:], ImageVersion)

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// SaveImage writes img to path.
func SaveImage(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := WriteImage(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return f.Close()
}
