// Package hash computes content hashes of programs.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/chazu/brainiac/compiler"
)

// formatTag separates hashes of different serialization formats. Bump it
// whenever the wire encoding or the generated runtime changes meaning.
const formatTag = "brainiac/program/v1"

// Program computes the SHA-256 content hash of a program run with the
// given initial memory size.
//
// The hash is computed over the canonical CBOR encoding of the program,
// so two programs with identical instructions hash the same no matter how
// they were produced. The memory size is included because it is baked
// into generated executables.
func Program(prog []compiler.Instruction, memory int) ([32]byte, error) {
	data, err := compiler.MarshalProgram(prog)
	if err != nil {
		return [32]byte{}, err
	}
	return Bytes(data, memory), nil
}

// Bytes hashes an already encoded program.
func Bytes(encoded []byte, memory int) [32]byte {
	h := sha256.New()
	h.Write([]byte(formatTag))

	var mem [8]byte
	binary.BigEndian.PutUint64(mem[:], uint64(memory))
	h.Write(mem[:])
	h.Write(encoded)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Salted derives a new hash from sum and extra, for keys that depend on
// more than the program, such as the toolchain that built it.
func Salted(sum [32]byte, extra string) [32]byte {
	h := sha256.New()
	h.Write(sum[:])
	h.Write([]byte(extra))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Hex returns the lowercase hex form of a hash.
func Hex(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}
