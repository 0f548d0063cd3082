// Package vm implements the tape machine that runs programs directly.
//
// This package contains:
//   - Tape: the growable byte memory and its cursor
//   - Interpreter: a tree-walking executor over optimized instructions
//   - Program images: CBOR encoded programs that skip parsing
package vm
