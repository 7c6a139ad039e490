// Package bitfield packs integers and the song-specific variable length codes
// into a stream of 6-bit symbols, and reads them back.
package bitfield

import "errors"

// Alphabet is the ordered set of symbols. The symbol at index v encodes the
// 6-bit value v.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"

var (
	// ErrInvalidSymbol is returned when a character outside the alphabet is read.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrOverrun is returned when a read goes past the end of the sub-range.
	ErrOverrun = errors.New("read past end of bit field")
	// ErrOutOfRange is returned for a long tail code too wide to read, or a
	// value too small to write.
	ErrOutOfRange = errors.New("value out of range")
)

var symbolValues [256]int8

func init() {
	for i := range symbolValues {
		symbolValues[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		symbolValues[Alphabet[i]] = int8(i)
	}
	// Some very old links used '.' where '-' is now.
	symbolValues['.'] = 62
}

// Symbol returns the character encoding the low 6 bits of v.
func Symbol(v int) byte {
	return Alphabet[v&0x3f]
}

// Value returns the 6-bit value of the character c, or -1 if c is not a symbol.
func Value(c byte) int {
	return int(symbolValues[c])
}
