package codec

import (
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/QEStudios/boxcodec/codec/bitfield"
	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func newTestDecoder() *Decoder {
	return NewDecoder(log.New(io.Discard, "", 0), samples.NewRegistry(nil))
}

func mustEncode(t *testing.T, s *song.Song) string {
	t.Helper()
	data, err := Encode(s)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	return data
}

func mustDecode(t *testing.T, data string) *song.Song {
	t.Helper()
	s, err := newTestDecoder().Decode(data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	return s
}

func diff(t *testing.T, want, got any) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("expected:\n%s\ngot:\n%s", spew.Sdump(want), spew.Sdump(got))
	}
}

func TestDefaultSongRoundTrip(t *testing.T) {
	s := song.New()
	data := mustEncode(t, s)
	if !strings.HasPrefix(data, "s"+string(bitfield.Symbol(Current.Number))) {
		t.Fatalf("expected the current version prefix, got %q", data[:2])
	}
	got := mustDecode(t, data)
	if got.BarCount != 16 || got.BeatsPerBar != 8 || got.Tempo != 150 {
		t.Fatalf("expected 16 bars of 8 beats at 150 bpm, got %d bars of %d beats at %d bpm", got.BarCount, got.BeatsPerBar, got.Tempo)
	}
	pitch, noise, mod := got.ChannelCounts()
	if pitch != 3 || noise != 1 || mod != 1 {
		t.Fatalf("expected 3/1/1 channels, got %d/%d/%d", pitch, noise, mod)
	}
	for i, ch := range got.Channels {
		if ch.Type == song.PitchChannel && ch.Octave != max(3-i, 0) {
			t.Errorf("channel %d: expected octave %d, got %d", i, max(3-i, 0), ch.Octave)
		}
	}
	diff(t, s, got)
	if again := mustEncode(t, got); again != data {
		t.Fatalf("expected re-encode to be stable:\n%s\n%s", data, again)
	}
}

func TestEffectsBlockHoldsOnlyEnabledEffects(t *testing.T) {
	s := song.New()
	s.SetChannelLayout(1, 0, 0)
	ins := s.Channels[0].Instruments[0]
	ins.Effects = song.Effects(0).With(song.EffectPanning).With(song.EffectReverb)
	ins.Pan = 70
	ins.PanDelay = 4
	ins.Reverb = 12

	e := &encoder{}
	e.effects(ins)
	block := string([]byte{bitfield.Symbol(70 >> 6), bitfield.Symbol(70), bitfield.Symbol(4), bitfield.Symbol(12)})
	if string(e.buf) != block {
		t.Fatalf("expected block %q, got %q", block, e.buf)
	}

	data := mustEncode(t, s)
	field := string(tagEffects) + "005" + block + string(tagFadeInOut)
	if !strings.Contains(data, field) {
		t.Fatalf("expected %q in %q", field, data)
	}
}

// patternSong returns a song with one pitch channel and one pattern
// holding notes.
func patternSong(notes ...*song.Note) *song.Song {
	s := song.New()
	s.SetChannelLayout(1, 0, 0)
	s.SetPatternsPerChannel(1)
	s.Channels[0].Bars[0] = 1
	s.Channels[0].Patterns[0].Notes = notes
	return s
}

func TestBendToRecentPitchIsReused(t *testing.T) {
	note := &song.Note{
		Pitches: []int{36, 40, 43},
		Pins:    []song.NotePin{{Interval: 0, Time: 0, Size: 3}, {Interval: 7, Time: 12, Size: 3}},
		Start:   0,
		End:     12,
	}
	s := patternSong(note)

	want := &bitfield.Writer{}
	want.Write(1, 1)
	want.Write(2, 1)
	want.Write(1, 1) // chord
	want.Write(3, 1)
	want.WritePinCount(1)
	want.Write(3, 3)
	want.Write(1, 1) // bend
	want.WritePartDuration(12)
	want.Write(3, 3)
	want.Write(1, 1) // 36 is the channel's first recent pitch
	want.Write(4, 0)
	want.Write(1, 0)
	want.WritePitchInterval(4)
	want.Write(1, 1)
	want.Write(4, 2)
	want.Write(1, 1) // the bend target 43 was just played
	want.Write(4, 0)
	want.Write(1, 0)
	want.Write(2, 0)
	want.WritePartDuration(s.BarParts() - 12)

	got, err := encodePatterns(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.EncodeBase64(nil)) != string(want.EncodeBase64(nil)) || got.BitCount() != want.BitCount() {
		t.Fatalf("expected %q (%d bits), got %q (%d bits)", want.EncodeBase64(nil), want.BitCount(), got.EncodeBase64(nil), got.BitCount())
	}

	decoded := mustDecode(t, mustEncode(t, s))
	diff(t, []*song.Note{note}, decoded.Channels[0].Patterns[0].Notes)
}

func TestRepeatedShapeIsReused(t *testing.T) {
	flat := func(start int) *song.Note {
		return song.NewNote(36, start, start+12, 3)
	}
	s := patternSong(flat(0), flat(12))

	want := &bitfield.Writer{}
	want.Write(1, 1)
	want.Write(2, 1)
	want.Write(1, 0)
	want.WritePinCount(1)
	want.Write(3, 3)
	want.Write(1, 0)
	want.WritePartDuration(12)
	want.Write(3, 3)
	want.Write(1, 1)
	want.Write(4, 0)
	want.Write(1, 0)
	want.Write(1, 1) // most recent shape
	want.WriteLongTail(0, 0, 0)
	want.Write(1, 1)
	want.Write(4, 0)
	want.Write(2, 0)
	want.WritePartDuration(s.BarParts() - 24)

	got, err := encodePatterns(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.EncodeBase64(nil)) != string(want.EncodeBase64(nil)) || got.BitCount() != want.BitCount() {
		t.Fatalf("expected %q (%d bits), got %q (%d bits)", want.EncodeBase64(nil), want.BitCount(), got.EncodeBase64(nil), got.BitCount())
	}
	decoded := mustDecode(t, mustEncode(t, s))
	diff(t, []*song.Note{flat(0), flat(12)}, decoded.Channels[0].Patterns[0].Notes)
}

// fullSong exercises every instrument type and effect the encoder writes.
func fullSong() *song.Song {
	s := song.New()
	s.Title = "Tëst & song/1"
	s.Scale = song.CustomScale
	s.ScaleCustom = [song.PitchesPerOctave]bool{true, true, false, true, false, true, false, true, false, false, true, false}
	s.Key = 5
	s.Octave = -1
	s.Tempo = 200
	s.BeatsPerBar = 6
	s.Rhythm = song.RhythmSixths
	s.LoopStart = 2
	s.LoopLength = 3
	s.Limiter = song.Limiter{
		CompressionRatio:     0.5,
		CompressionThreshold: 0.75,
		LimitRatio:           4,
		LimitThreshold:       1.5,
		LimitDecay:           6,
		LimitRise:            5000,
		MasterGain:           1.2,
	}
	s.EqFilter.AddPoint(song.HighPass, 10, 7)
	s.EqSubFilters[2] = &song.FilterSettings{}
	s.EqSubFilters[2].AddPoint(song.Peak, 20, 3)
	s.CustomSamples = []string{"https://example.com/a.wav"}
	s.PatternInstruments = true

	lead := s.Channels[0]
	lead.Name = "lead"
	types := []song.InstrumentType{
		song.InstrumentChip, song.InstrumentFM6Op, song.InstrumentPWM, song.InstrumentSupersaw,
		song.InstrumentHarmonics, song.InstrumentPickedString, song.InstrumentSpectrum,
		song.InstrumentCustomChipWave, song.InstrumentFM,
	}
	s.SetInstrumentCount(lead, len(types))
	for i, typ := range types {
		lead.Instruments[i].Reset(typ, false, false)
	}

	chip := lead.Instruments[0]
	chip.Volume = -10
	chip.Preset = 123
	chip.ChipWave = 5
	chip.IsUsingAdvancedLoopControls = true
	chip.ChipWaveLoopMode = 2
	chip.ChipWavePlayBackwards = true
	chip.ChipWaveLoopStart = 5
	chip.ChipWaveLoopEnd = 40
	chip.ChipWaveStartOffset = 3
	chip.EqFilterType = true
	chip.EqFilterSimpleCut = 5
	chip.EqFilterSimplePeak = 2
	chip.FadeIn = 3
	chip.FadeOut = 7
	chip.ClicklessTransition = true
	chip.Effects = 1<<song.EffectTypeCount - 1
	chip.NoteFilter.AddPoint(song.LowPass, 20, 5)
	chip.NoteSubFilters[0] = &song.FilterSettings{}
	chip.NoteSubFilters[0].AddPoint(song.LowPass, 12, 6)
	chip.Transition = song.TransitionSlide
	chip.Chord = song.ChordArpeggio
	chip.ArpeggioSpeed = 20
	chip.FastTwoNoteArp = true
	chip.PitchShift = 5
	chip.Detune = 250
	chip.SetVibrato(song.CustomVibrato)
	chip.VibratoDepth = 0.4
	chip.VibratoSpeed = 14
	chip.VibratoDelay = 3
	chip.VibratoType = 1
	chip.Distortion = 4
	chip.Aliases = true
	chip.BitcrusherFreq = 3
	chip.BitcrusherQuantization = 2
	chip.Pan = 70
	chip.PanDelay = 4
	chip.Chorus = 2
	chip.EchoSustain = 3
	chip.EchoDelay = 5
	chip.Reverb = 12
	chip.RingModulation = 5
	chip.RingModulationHz = 30
	chip.RingModWaveformIndex = 2
	chip.RingModPulseWidth = 7
	chip.RingModHzOffset = -40
	chip.Granular = 50
	chip.GrainSize = 200
	chip.GrainAmounts = 3
	chip.GrainRange = 400
	chip.SetUnison(song.CustomUnison)
	chip.UnisonVoices = 3
	chip.UnisonSpread = 0.25
	chip.UnisonOffset = -0.5
	chip.UnisonExpression = 1.4
	chip.UnisonSign = 0.5
	chip.EnvelopeSpeed = 30

	lfo := song.NewEnvelope(song.TargetNoteVolume, 0, song.EnvelopeLFO, false)
	lfo.Waveform = 5
	lfo.Steps = 4
	lfo.Speed = song.EnvelopeSpeeds[30]
	lfo.LowerBound = 0.5
	lfo.UpperBound = 1.5
	lfo.Inverse = true
	random := song.NewEnvelope(song.TargetIndex("noteFilterFreq"), 2, song.EnvelopeRandom, false)
	random.Steps = 5
	random.Seed = 9
	random.Waveform = 2
	random.Discrete = true
	random.Speed = song.EnvelopeSpeeds[22]
	pitch := song.NewEnvelope(song.TargetIndex("pitchShift"), 0, song.EnvelopePitch, false)
	pitch.PitchStart = 20
	pitch.PitchEnd = 80
	chip.AddEnvelope(lfo)
	chip.AddEnvelope(random)
	chip.AddEnvelope(pitch)

	six := lead.Instruments[1]
	six.Algorithm6Op = 0
	six.CustomAlgorithm = song.Algorithm{Name: "Custom", CarrierCount: 2, ModulatedBy: [][]int{{3, 4}, {5}, nil, {6}, nil, nil}}
	six.Feedback6Op = 0
	six.CustomFeedback = song.Feedback{Name: "Custom", Indices: [][]int{{1}, nil, nil, nil, nil, {6}}}
	six.FeedbackAmplitude = 7
	six.Operators[4].Frequency = 10
	six.Operators[4].Amplitude = 9
	six.Operators[5].Waveform = song.OperatorWavePulseWidth
	six.Operators[5].PulseWidth = 3

	pwm := lead.Instruments[2]
	pwm.PulseWidth = 30
	pwm.DecimalOffset = 12

	saw := lead.Instruments[3]
	saw.SupersawDynamism = 3
	saw.SupersawSpread = 7
	saw.SupersawShape = 2
	saw.PulseWidth = 20

	lead.Instruments[4].Harmonics[3] = 7
	picked := lead.Instruments[5]
	picked.StringSustain = 9
	picked.StringSustainType = 1
	lead.Instruments[6].Spectrum[0] = 7
	custom := lead.Instruments[7]
	custom.CustomChipWave[0] = -24
	custom.CustomChipWave[1] = 24
	fm := lead.Instruments[8]
	fm.Algorithm = 5
	fm.FeedbackType = 7
	fm.Operators[2].Frequency = 12

	lead.Patterns[0].Notes = []*song.Note{
		{
			Pitches: []int{36, 40, 43},
			Pins:    []song.NotePin{{Interval: 0, Time: 0, Size: 3}, {Interval: 7, Time: 12, Size: 3}},
			Start:   0,
			End:     12,
		},
		song.NewNote(50, 24, 48, 6),
	}
	continued := song.NewNote(43, 0, 6, 2)
	continued.ContinuesLastPattern = true
	lead.Patterns[1].Notes = []*song.Note{continued}
	lead.Patterns[1].Instruments = []int{2}
	lead.Bars[4] = 2

	drums := s.Channels[3]
	drums.Instruments[0].Reset(song.InstrumentDrumset, true, false)
	drums.Instruments[0].DrumsetEnvelopes[3] = song.LegacyEnvelopeNamed("decay 1")
	drums.Instruments[0].DrumsetSpectra[11][29] = 1
	drums.Patterns[0].Notes = []*song.Note{song.NewNote(7, 0, 24, 3)}

	mod := s.Channels[4].Instruments[0]
	mod.ModChannels[0] = 0
	mod.ModInstruments[0] = 2
	mod.ModSettings[0] = song.ModDetune
	mod.ModChannels[1] = -1
	mod.ModSettings[1] = song.ModTempo
	s.Channels[4].Patterns[0].Notes = []*song.Note{song.NewNote(song.ModCount-1, 0, 24, 100)}
	return s
}

func TestFullSongRoundTrip(t *testing.T) {
	s := fullSong()
	data := mustEncode(t, s)
	got := mustDecode(t, data)
	diff(t, s, got)
	if again := mustEncode(t, got); again != data {
		t.Fatalf("expected re-encode to be stable:\n%s\n%s", data, again)
	}
}

func TestTitleKeepsMarksLiteral(t *testing.T) {
	s := song.New()
	s.Title = "Don't (stop)! *now*"
	data := mustEncode(t, s)
	if want := "Don't%20(stop)!%20*now*"; !strings.Contains(data, want) {
		t.Fatalf("expected the link to contain %q, got %s", want, data)
	}
	if got := mustDecode(t, data).Title; got != s.Title {
		t.Fatalf("expected title %q, got %q", s.Title, got)
	}
}

func TestEncodeRejectsUnknownInstrumentType(t *testing.T) {
	s := song.New()
	s.Channels[0].Instruments[0].Type = song.InstrumentTypeCount
	_, err := Encode(s)
	if !errors.Is(err, ErrUnknownInstrumentType) {
		t.Fatalf("expected ErrUnknownInstrumentType, got %v", err)
	}
}

func TestEncodeRejectsBrokenNotes(t *testing.T) {
	bad := song.NewNote(36, 0, 12, 3)
	bad.Pins[1].Time = 6
	if _, err := Encode(patternSong(bad)); err == nil {
		t.Fatalf("expected an error for a note whose pins stop short")
	}
}
