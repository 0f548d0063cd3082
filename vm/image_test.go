package vm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/chazu/brainiac/compiler"
	"github.com/chazu/brainiac/compiler/hash"
)

func TestImageRoundTrip(t *testing.T) {
	img := &Image{MemorySize: 123, Program: compile(t, helloWorld)}

	var buf bytes.Buffer
	if err := WriteImage(&buf, img); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("BFIM")) {
		t.Errorf("image does not start with magic: % x", buf.Bytes()[:4])
	}

	got, err := ReadImage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(img, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	var out bytes.Buffer
	if err := Run(got.MemorySize, got.Program, strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "Hello World!\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog"+ImageExt)
	img := &Image{MemorySize: 8, Program: compile(t, ",[.,]")}
	if err := SaveImage(path, img); err != nil {
		t.Fatal(err)
	}
	got, err := LoadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(img, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.bfimg")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func encodeImage(t *testing.T, img *Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteImage(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadImageErrors(t *testing.T) {
	valid := encodeImage(t, &Image{MemorySize: 16, Program: compile(t, "+++[>+<-]")})

	tampered := bytes.Clone(valid)
	tampered[len(tampered)-1] ^= 0xff

	badVersion := bytes.Clone(valid)
	badVersion[4] = 9

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrUnexpectedEOF},
		{"short header", valid[:5], ErrUnexpectedEOF},
		{"header only", valid[:ImageHeaderSize], ErrUnexpectedEOF},
		{"bad magic", append([]byte("MAGI"), valid[4:]...), ErrInvalidMagic},
		{"version mismatch", badVersion, ErrVersionMismatch},
		{"tampered payload", tampered, ErrCorruptImage},
		{"garbage payload", append(bytes.Clone(valid[:ImageHeaderSize]), 0xff, 0xff), ErrCorruptImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadImage(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// Sizes are checked even when the content hash is consistent.
func TestReadImageRejectsHugeMemory(t *testing.T) {
	code, err := compiler.MarshalProgram(compile(t, "+."))
	if err != nil {
		t.Fatal(err)
	}
	limit := MaxImageMemory
	for _, size := range []int{limit + 1, math.MaxInt} {
		sum := hash.Bytes(code, size)
		payload, err := cbor.Marshal(imagePayload{MemorySize: size, Code: code, Hash: sum[:]})
		if err != nil {
			t.Fatal(err)
		}
		var header [ImageHeaderSize]byte
		copy(header[:4], ImageMagic[:])
		binary.LittleEndian.PutUint32(header[4:], ImageVersion)

		_, err = ReadImage(bytes.NewReader(append(header[:], payload...)))
		if !errors.Is(err, ErrCorruptImage) {
			t.Errorf("memory size %d: err = %v, want ErrCorruptImage", size, err)
		}
	}

	img := encodeImage(t, &Image{MemorySize: MaxImageMemory, Program: compile(t, "+.")})
	got, err := ReadImage(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("largest allowed size rejected: %v", err)
	}
	if got.MemorySize != MaxImageMemory {
		t.Errorf("MemorySize = %d", got.MemorySize)
	}
}
