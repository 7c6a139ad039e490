package codec

import (
	"strings"
	"testing"

	"github.com/QEStudios/boxcodec/codec/bitfield"
	"github.com/QEStudios/boxcodec/song"
	"github.com/pkg/errors"
)

// Old editors wrote note lengths in rhythm steps with a 2 bit minimum width
// and note sizes in 2 bits.
func writeSteps(w *bitfield.Writer, steps int) {
	w.WriteLongTail(1, 2, steps)
}

func writeRestSteps(w *bitfield.Writer, steps int) {
	w.Write(2, 0)
	writeSteps(w, steps)
}

func symbols(w *bitfield.Writer) string {
	return string(w.EncodeBase64(nil))
}

// sizedSection prefixes a bit field with its length in symbols, written as a
// digit count and the digits.
func sizedSection(w *bitfield.Writer) string {
	n := w.LengthBase64()
	var digits []byte
	for ; n > 0; n >>= 6 {
		digits = append([]byte{bitfield.Symbol(n & 0x3f)}, digits...)
	}
	return string(bitfield.Symbol(len(digits))) + string(digits) + symbols(w)
}

// The default rhythm has 4 steps per beat and a bar of 8 beats.
const stepsPerBar = 32

func TestBeepBox2Patterns(t *testing.T) {
	// Bars of channel 0: pattern 1, then pattern 2.
	bars := &bitfield.Writer{}
	bars.Write(3, 0)
	bars.Write(3, 1)

	p := &bitfield.Writer{}
	// A quarter note on the most recent pitch, fading to size 2.
	p.Write(2, 1)
	p.Write(1, 0)
	p.WritePinCount(1)
	p.Write(2, 3)
	p.Write(1, 0)
	writeSteps(p, 4)
	p.Write(2, 1)
	p.Write(1, 1)
	p.Write(3, 0)
	// A note on the second recent pitch that bends up one pitch.
	p.Write(2, 1)
	p.Write(1, 0)
	p.WritePinCount(2)
	p.Write(2, 3)
	p.Write(1, 1)
	writeSteps(p, 2)
	p.Write(2, 3)
	p.Write(1, 0)
	writeSteps(p, 2)
	p.Write(2, 0)
	p.Write(1, 1)
	p.Write(3, 1)
	p.Write(1, 0)
	p.WritePitchInterval(1)
	writeRestSteps(p, stepsPerBar-8)
	for i := 1; i < 8; i++ {
		writeRestSteps(p, stepsPerBar)
	}

	n := p.LengthBase64()
	data := "2b02" + symbols(bars) +
		"p00" + string(bitfield.Symbol(n>>6)) + string(bitfield.Symbol(n&0x3f)) + symbols(p)
	s := mustDecode(t, data)

	ch := s.Channels[0]
	if ch.Bars[0] != 1 || ch.Bars[1] != 2 {
		t.Fatalf("expected bars 1 and 2, got %v", ch.Bars[:2])
	}
	want := []*song.Note{
		{
			Pitches: []int{36},
			Pins:    []song.NotePin{{Time: 0, Size: 6}, {Time: 24, Size: 2}},
			Start:   0,
			End:     24,
		},
		{
			Pitches: []int{43},
			Pins:    []song.NotePin{{Time: 0, Size: 6}, {Interval: 1, Time: 12, Size: 6}, {Interval: 1, Time: 24, Size: 0}},
			Start:   24,
			End:     48,
		},
	}
	diff(t, want, ch.Patterns[0].Notes)
	for i := 1; i < len(ch.Patterns); i++ {
		if len(ch.Patterns[i].Notes) != 0 {
			t.Fatalf("expected pattern %d to be empty, got %d notes", i+1, len(ch.Patterns[i].Notes))
		}
	}
}

func TestBeepBox5Patterns(t *testing.T) {
	// Every channel's bars in one field, 3 bits each, counted from 1.
	bars := &bitfield.Writer{}
	for ci := 0; ci < 4; ci++ {
		for bar := 0; bar < 16; bar++ {
			if ci == 3 && bar == 1 {
				bars.Write(3, 1)
			} else {
				bars.Write(3, 0)
			}
		}
	}

	p := &bitfield.Writer{}
	for ci := 0; ci < 3; ci++ {
		for i := 0; i < 8; i++ {
			p.Write(1, 0)
		}
	}
	// A short drum hit one step above the last drum pitch.
	p.Write(1, 1)
	p.Write(2, 1)
	p.Write(1, 0)
	p.WritePinCount(1)
	p.Write(2, 3)
	p.Write(1, 0)
	writeSteps(p, 2)
	p.Write(2, 0)
	p.Write(1, 0)
	p.WritePitchInterval(1)
	writeRestSteps(p, stepsPerBar-2)
	for i := 1; i < 8; i++ {
		p.Write(1, 0)
	}

	s := mustDecode(t, "5b"+symbols(bars)+"p"+sizedSection(p))
	drums := s.Channels[3]
	if drums.Bars[0] != 1 || drums.Bars[1] != 2 || s.Channels[0].Bars[1] != 1 {
		t.Fatalf("expected drum bars 1 and 2, got %v", drums.Bars[:2])
	}
	want := []*song.Note{{
		Pitches: []int{5},
		Pins:    []song.NotePin{{Time: 0, Size: 6}, {Time: 12, Size: 0}},
		Start:   0,
		End:     12,
	}}
	diff(t, want, drums.Patterns[0].Notes)
}

func TestJummBox4ModChannel(t *testing.T) {
	bars := &bitfield.Writer{}
	bars.Write(16*4, 0)
	bars.Write(4, 1)
	bars.Write(15*4, 0)

	p := &bitfield.Writer{}
	for i := 0; i < 8; i++ {
		p.Write(1, 0)
	}
	// Slot 4 modulates the song reverb and slot 5 the tempo. The rest are
	// unused.
	for slot := 0; slot < 4; slot++ {
		p.Write(2, modStatusNone)
	}
	p.Write(2, modStatusSong)
	p.Write(6, song.ModSongReverb)
	p.Write(2, modStatusSong)
	p.Write(6, song.ModTempo)
	// A tempo note on the lowest mod pitch, which plays slot 5.
	p.Write(1, 1)
	p.Write(2, 1)
	p.Write(1, 0)
	p.WritePinCount(1)
	p.Write(modNoteSizeBits, 100)
	p.Write(1, 0)
	p.WritePartDuration(24)
	p.Write(modNoteSizeBits, 100)
	p.Write(1, 1)
	p.Write(3, 0)
	p.Write(2, 0)
	p.Write(1, 0)
	p.WritePartDuration(song.PartsPerBeat*8 + 1 - 24)
	for i := 1; i < 8; i++ {
		p.Write(1, 0)
	}

	s := mustDecode(t, "j4n101b"+symbols(bars)+"p"+sizedSection(p))
	if len(s.Channels) != 2 || s.Channels[1].Type != song.ModChannel {
		t.Fatalf("expected a pitch and a mod channel, got %d channels", len(s.Channels))
	}
	mod := s.Channels[1]
	ins := mod.Instruments[0]
	if ins.ModSettings[5] != song.ModTempo || ins.ModChannels[5] != -1 {
		t.Fatalf("expected slot 5 on the song tempo, got setting %d channel %d", ins.ModSettings[5], ins.ModChannels[5])
	}

	// Old tempo values were relative to a higher minimum tempo, and the song
	// reverb turns into a note of its own ahead of the pattern.
	size := 100 + song.LegacyTempoMin - song.TempoMin
	want := []*song.Note{
		song.NewNote(song.ModCount-1-4, 0, reverbNoteParts, 0),
		{
			Pitches: []int{0},
			Pins:    []song.NotePin{{Time: 0, Size: size}, {Time: 24, Size: size}},
			Start:   0,
			End:     24,
		},
	}
	diff(t, want, mod.Patterns[0].Notes)
}

func TestWideShapeIndexFails(t *testing.T) {
	p := &bitfield.Writer{}
	p.Write(1, 1)
	p.Write(1, 1)
	for i := 0; i < 64; i++ {
		p.Write(1, 1)
	}
	p.Write(1, 0)
	p.Write(64, 0)

	_, err := newTestDecoder().Decode("5p" + sizedSection(p))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestHugePitchIntervalFails(t *testing.T) {
	p := &bitfield.Writer{}
	p.Write(1, 1)
	p.Write(2, 1)
	p.Write(1, 0)
	p.WritePinCount(1)
	p.Write(2, 3)
	p.Write(1, 0)
	writeSteps(p, 2)
	p.Write(2, 0)
	p.Write(1, 0)
	p.WritePitchInterval(5000)
	p.Write(64, 0)

	_, err := newTestDecoder().Decode("5p" + sizedSection(p))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestModPatternInstrumentIsClamped(t *testing.T) {
	s := song.New()
	s.PatternInstruments = true
	mod := s.Channels[4]
	s.SetInstrumentCount(mod, 3)
	mod.Patterns[0].Instruments = []int{3}

	got := mustDecode(t, mustEncode(t, s))
	if want := []int{2}; !equalInts(got.Channels[4].Patterns[0].Instruments, want) {
		t.Fatalf("expected instruments %v, got %v", want, got.Channels[4].Patterns[0].Instruments)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPatternLengthDigits(t *testing.T) {
	for _, digits := range []string{"0", "5"} {
		_, err := newTestDecoder().Decode("s4p" + digits + strings.Repeat("0", 8))
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s digits: expected ErrOutOfRange, got %v", digits, err)
		}
	}
}
