package bitfield

import (
	"errors"
	"testing"
)

func TestSymbolTable(t *testing.T) {
	for v := 0; v < 64; v++ {
		if got := Value(Symbol(v)); got != v {
			t.Fatalf("expected %d, got %d for symbol %q", v, got, Symbol(v))
		}
	}
	for _, c := range []byte{'!', ' ', '#', '|', '{'} {
		if Value(c) != -1 {
			t.Errorf("expected %q to be invalid", c)
		}
	}
	if Value('.') != 62 {
		t.Errorf("expected legacy '.' to decode as 62, got %d", Value('.'))
	}
}

func roundTrip(t *testing.T, w *Writer) *Reader {
	t.Helper()
	encoded := string(w.EncodeBase64(nil))
	if len(encoded) != w.LengthBase64() {
		t.Fatalf("expected %d symbols, got %d", w.LengthBase64(), len(encoded))
	}
	if want := (w.BitCount() + 5) / 6; len(encoded) != want {
		t.Fatalf("expected ceil(%d/6) = %d symbols, got %d", w.BitCount(), want, len(encoded))
	}
	r, err := NewReader(encoded, 0, len(encoded))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestWriteRead(t *testing.T) {
	var w Writer
	w.Write(3, 5)
	w.Write(8, 200)
	w.Write(1, 1)
	w.Write(0, 7)
	w.Write(6, 63)
	r := roundTrip(t, &w)
	for _, want := range []struct{ bits, value int }{{3, 5}, {8, 200}, {1, 1}, {0, 0}, {6, 63}} {
		if got := r.Read(want.bits); got != want.value {
			t.Fatalf("expected %d, got %d", want.value, got)
		}
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
}

func TestLongTailCodes(t *testing.T) {
	var w Writer
	for v := 1; v < 600; v++ {
		w.WritePartDuration(v)
	}
	for v := 1; v < 300; v++ {
		w.WritePinCount(v)
	}
	for v := -200; v <= 200; v++ {
		if v != 0 {
			w.WritePitchInterval(v)
		}
	}
	for v := 5; v < 100; v++ {
		w.WriteLongTail(5, 2, v)
	}
	r := roundTrip(t, &w)
	for v := 1; v < 600; v++ {
		if got := r.ReadPartDuration(); got != v {
			t.Fatalf("part duration: expected %d, got %d", v, got)
		}
	}
	for v := 1; v < 300; v++ {
		if got := r.ReadPinCount(); got != v {
			t.Fatalf("pin count: expected %d, got %d", v, got)
		}
	}
	for v := -200; v <= 200; v++ {
		if v == 0 {
			continue
		}
		if got := r.ReadPitchInterval(); got != v {
			t.Fatalf("pitch interval: expected %d, got %d", v, got)
		}
	}
	for v := 5; v < 100; v++ {
		if got := r.ReadLongTail(5, 2); got != v {
			t.Fatalf("long tail: expected %d, got %d", v, got)
		}
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
}

func TestLongTailBitShape(t *testing.T) {
	var w Writer
	// 1 fits in the first 3 bit range: 0 prefix then 000.
	w.WritePartDuration(1)
	// 9 overflows once: prefix 10 then 4 bits of 9-1-8 = 0.
	w.WritePartDuration(9)
	if got := string(w.bits); got != string([]byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 0}) {
		t.Fatalf("unexpected bit shape %v", w.bits)
	}
}

func TestLegacyPartDuration(t *testing.T) {
	var w Writer
	for v := 1; v < 50; v++ {
		w.WriteLongTail(1, 2, v)
	}
	r := roundTrip(t, &w)
	for v := 1; v < 50; v++ {
		if got := r.ReadLegacyPartDuration(); got != v {
			t.Fatalf("expected %d, got %d", v, got)
		}
	}
}

func TestZeroPadding(t *testing.T) {
	var w Writer
	w.Write(1, 1)
	encoded := string(w.EncodeBase64(nil))
	if encoded != "w" {
		t.Fatalf("expected %q, got %q", "w", encoded)
	}
	w.Clear()
	if w.LengthBase64() != 0 {
		t.Fatalf("expected empty writer after Clear")
	}
}

func TestConcat(t *testing.T) {
	var a, b Writer
	a.Write(4, 9)
	b.Write(5, 17)
	a.Concat(&b)
	r := roundTrip(t, &a)
	if r.Read(4) != 9 || r.Read(5) != 17 {
		t.Fatalf("concatenated fields did not read back")
	}
}

func TestReaderSubRange(t *testing.T) {
	r, err := NewReader("xx_0yy", 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Read(6); got != 63 {
		t.Fatalf("expected 63, got %d", got)
	}
	if got := r.Read(6); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if r.Read(1) != 0 || !errors.Is(r.Err(), ErrOverrun) {
		t.Fatalf("expected overrun error, got %v", r.Err())
	}
	// Errors are sticky.
	if r.Read(1) != 0 || !errors.Is(r.Err(), ErrOverrun) {
		t.Fatalf("expected sticky overrun error, got %v", r.Err())
	}
}

func TestReaderInvalidSymbol(t *testing.T) {
	if _, err := NewReader("ab!d", 0, 4); !errors.Is(err, ErrInvalidSymbol) {
		t.Fatalf("expected invalid symbol error, got %v", err)
	}
	if _, err := NewReader("abc", 0, 5); !errors.Is(err, ErrOverrun) {
		t.Fatalf("expected overrun error for bad range, got %v", err)
	}
}

func TestLongTailOverrunTerminates(t *testing.T) {
	r, err := NewReader("_", 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.ReadPinCount()
	if !errors.Is(r.Err(), ErrOverrun) {
		t.Fatalf("expected overrun error, got %v", r.Err())
	}
}

func TestPinCountBitShape(t *testing.T) {
	var w Writer
	// One pin after the first is the shortest code.
	w.WritePinCount(1)
	if got := string(w.bits); got != string([]byte{0}) {
		t.Fatalf("unexpected bit shape %v", w.bits)
	}
	w.Clear()
	w.WritePinCount(2)
	if got := string(w.bits); got != string([]byte{1, 0, 0}) {
		t.Fatalf("unexpected bit shape %v", w.bits)
	}

	r, err := NewReader("0", 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.ReadPinCount(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestLongTailWidthIsBounded(t *testing.T) {
	r, err := NewReader("__________0000000000", 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.ReadLongTail(0, 0); got != 0 || !errors.Is(r.Err(), ErrOutOfRange) {
		t.Fatalf("expected out of range error, got %d and %v", got, r.Err())
	}
}

func TestWriterValueBelowMinimum(t *testing.T) {
	var w, other Writer
	other.WritePartDuration(0)
	if other.BitCount() != 0 || !errors.Is(other.Err(), ErrOutOfRange) {
		t.Fatalf("expected out of range error and no bits, got %v with %d bits", other.Err(), other.BitCount())
	}
	w.Write(2, 1)
	w.Concat(&other)
	if !errors.Is(w.Err(), ErrOutOfRange) {
		t.Fatalf("expected the error to carry over, got %v", w.Err())
	}
	w.Clear()
	if w.Err() != nil {
		t.Fatalf("expected Clear to drop the error, got %v", w.Err())
	}
}
