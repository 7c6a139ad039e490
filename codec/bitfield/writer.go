package bitfield

import "fmt"

// Writer accumulates a bit stream. Fields are written most significant bit first.
// Like Reader, it keeps the first error and ignores later long tail codes it
// cannot represent.
type Writer struct {
	bits []byte
	err  error
}

// Err returns the first value the writer could not encode.
func (w *Writer) Err() error {
	return w.err
}

// Write appends the low bitCount bits of value.
func (w *Writer) Write(bitCount int, value int) {
	for bitCount > 0 {
		bitCount--
		w.bits = append(w.bits, byte((value>>bitCount)&1))
	}
}

// WriteLongTail writes value with a code biased towards small numbers. Each 1 in
// the unary prefix doubles the size of the range that follows, the prefix is
// terminated by a 0 and the remainder is written in the final bit width.
func (w *Writer) WriteLongTail(minValue, minBits, value int) {
	if value < minValue {
		if w.err == nil {
			w.err = fmt.Errorf("long tail value %d below minimum %d: %w", value, minValue, ErrOutOfRange)
		}
		return
	}
	value -= minValue
	numBits := minBits
	for value >= 1<<numBits {
		w.bits = append(w.bits, 1)
		value -= 1 << numBits
		numBits++
	}
	w.bits = append(w.bits, 0)
	w.Write(numBits, value)
}

// WritePartDuration writes the length of a rest or pin in parts.
func (w *Writer) WritePartDuration(value int) {
	w.WriteLongTail(1, 3, value)
}

// WritePinCount writes the number of pins after the first in a note shape,
// which is at least one.
func (w *Writer) WritePinCount(value int) {
	w.WriteLongTail(1, 0, value)
}

// WritePitchInterval writes a signed pitch step as a sign bit followed by the
// magnitude.
func (w *Writer) WritePitchInterval(value int) {
	if value < 0 {
		w.Write(1, 1)
		w.WriteLongTail(1, 3, -value)
	} else {
		w.Write(1, 0)
		w.WriteLongTail(1, 3, value)
	}
}

// Concat appends all bits of other, and its error if w has none.
func (w *Writer) Concat(other *Writer) {
	w.bits = append(w.bits, other.bits...)
	if w.err == nil {
		w.err = other.err
	}
}

// Clear discards all written bits and the error.
func (w *Writer) Clear() {
	w.bits = w.bits[:0]
	w.err = nil
}

// BitCount returns the number of bits written so far.
func (w *Writer) BitCount() int {
	return len(w.bits)
}

// LengthBase64 returns the number of symbols EncodeBase64 will produce.
func (w *Writer) LengthBase64() int {
	return (len(w.bits) + 5) / 6
}

// EncodeBase64 appends the bit stream to buffer as symbols, zero padding the
// final symbol.
func (w *Writer) EncodeBase64(buffer []byte) []byte {
	for i := 0; i < len(w.bits); i += 6 {
		value := 0
		for j := i; j < i+6; j++ {
			value <<= 1
			if j < len(w.bits) {
				value |= int(w.bits[j])
			}
		}
		buffer = append(buffer, Symbol(value))
	}
	return buffer
}
