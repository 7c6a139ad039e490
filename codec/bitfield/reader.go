package bitfield

import "fmt"

// Reader reads fields from the symbols in a sub-range of an outer string.
// Errors are sticky: after the first failure every read returns 0 and Err
// reports the cause.
type Reader struct {
	bits []byte
	pos  int
	err  error
}

// NewReader unpacks the symbols of source in [start, end).
func NewReader(source string, start, end int) (*Reader, error) {
	if start < 0 || end > len(source) || start > end {
		return nil, fmt.Errorf("bit field range [%d, %d) outside %d symbols: %w", start, end, len(source), ErrOverrun)
	}
	r := &Reader{bits: make([]byte, 0, (end-start)*6)}
	for i := start; i < end; i++ {
		value := Value(source[i])
		if value < 0 {
			return nil, fmt.Errorf("symbol %q at %d: %w", source[i], i, ErrInvalidSymbol)
		}
		for bit := 5; bit >= 0; bit-- {
			r.bits = append(r.bits, byte((value>>bit)&1))
		}
	}
	return r, nil
}

// Err returns the first error encountered by the reader.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return len(r.bits) - r.pos
}

// Read returns the next bitCount bits as an unsigned integer.
func (r *Reader) Read(bitCount int) int {
	if r.err != nil {
		return 0
	}
	if r.pos+bitCount > len(r.bits) {
		r.err = fmt.Errorf("reading %d bits at bit %d of %d: %w", bitCount, r.pos, len(r.bits), ErrOverrun)
		return 0
	}
	result := 0
	for ; bitCount > 0; bitCount-- {
		result = result<<1 | int(r.bits[r.pos])
		r.pos++
	}
	return result
}

// maxLongTailBits bounds the remainder width of a long tail code so the
// value stays positive.
const maxLongTailBits = 30

// ReadLongTail is the inverse of Writer.WriteLongTail.
func (r *Reader) ReadLongTail(minValue, minBits int) int {
	result := minValue
	numBits := minBits
	for r.Read(1) == 1 {
		result += 1 << numBits
		numBits++
		if numBits > maxLongTailBits {
			r.err = fmt.Errorf("long tail code wider than %d bits at bit %d: %w", maxLongTailBits, r.pos, ErrOutOfRange)
			return 0
		}
	}
	return result + r.Read(numBits)
}

// ReadPartDuration is the inverse of Writer.WritePartDuration.
func (r *Reader) ReadPartDuration() int {
	return r.ReadLongTail(1, 3)
}

// ReadLegacyPartDuration reads durations written by the oldest links, which
// used a shorter minimum width.
func (r *Reader) ReadLegacyPartDuration() int {
	return r.ReadLongTail(1, 2)
}

// ReadPinCount is the inverse of Writer.WritePinCount.
func (r *Reader) ReadPinCount() int {
	return r.ReadLongTail(1, 0)
}

// ReadPitchInterval is the inverse of Writer.WritePitchInterval.
func (r *Reader) ReadPitchInterval() int {
	if r.Read(1) == 1 {
		return -r.ReadLongTail(1, 3)
	}
	return r.ReadLongTail(1, 3)
}
