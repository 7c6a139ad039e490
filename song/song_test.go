package song

import (
	"strings"
	"testing"
)

func TestDefaultSong(t *testing.T) {
	s := New()
	if s.BarCount != 16 || s.BeatsPerBar != 8 || s.Tempo != 150 {
		t.Fatalf("expected 16 bars of 8 beats at 150 bpm, got %d bars of %d beats at %d bpm", s.BarCount, s.BeatsPerBar, s.Tempo)
	}
	pitch, noise, mod := s.ChannelCounts()
	if pitch != 3 || noise != 1 || mod != 1 {
		t.Fatalf("expected 3/1/1 channels, got %d/%d/%d", pitch, noise, mod)
	}
	for i, ch := range s.Channels {
		if len(ch.Bars) != s.BarCount {
			t.Errorf("channel %d: expected %d bars, got %d", i, s.BarCount, len(ch.Bars))
		}
		if len(ch.Patterns) != s.PatternsPerChannel {
			t.Errorf("channel %d: expected %d patterns, got %d", i, s.PatternsPerChannel, len(ch.Patterns))
		}
		if ch.Type == PitchChannel && ch.Octave != max(3-i, 0) {
			t.Errorf("channel %d: expected octave %d, got %d", i, max(3-i, 0), ch.Octave)
		}
		for bar, p := range ch.Bars {
			want := 0
			if bar < 4 {
				want = 1
			}
			if p != want {
				t.Errorf("channel %d bar %d: expected pattern %d, got %d", i, bar, want, p)
			}
		}
	}
	if got := s.Channels[4].Instruments[0].Type; got != InstrumentMod {
		t.Fatalf("expected mod instrument on the mod channel, got %v", got)
	}
}

func TestInstrumentReset(t *testing.T) {
	cases := []struct {
		typ     InstrumentType
		chord   ChordType
		effects Effects
	}{
		{InstrumentChip, ChordArpeggio, Effects(0).With(EffectPanning).With(EffectChord)},
		{InstrumentFM, ChordCustomInterval, Effects(0).With(EffectPanning).With(EffectChord)},
		{InstrumentHarmonics, ChordSimultaneous, Effects(0).With(EffectPanning)},
		{InstrumentPickedString, ChordStrum, Effects(0).With(EffectPanning).With(EffectChord)},
		{InstrumentMod, ChordSimultaneous, 0},
	}
	for _, c := range cases {
		ins := NewInstrument(c.typ, false, c.typ == InstrumentMod)
		if ins.Chord != c.chord {
			t.Errorf("%v: expected chord %d, got %d", c.typ, c.chord, ins.Chord)
		}
		if ins.Effects != c.effects {
			t.Errorf("%v: expected effects %b, got %b", c.typ, c.effects, ins.Effects)
		}
		for i, ch := range ins.ModChannels {
			if ch != -2 {
				t.Errorf("%v: expected mod slot %d to target nothing, got %d", c.typ, i, ch)
			}
		}
	}

	ins := NewInstrument(InstrumentCustomChipWave, false, false)
	if ins.CustomChipWave[0] != 24 || ins.CustomChipWave[63] != 24-63*48/64 {
		t.Fatalf("unexpected custom chip wave ramp %v", ins.CustomChipWave)
	}

	// A reset must not leave anything from the previous type behind.
	ins.Reset(InstrumentChip, false, false)
	if ins.CustomChipWave != [ChipWaveLength]int{} {
		t.Fatalf("expected custom wave to be cleared")
	}
	if ins.EqSubFilter(0) != &ins.EqFilter {
		t.Fatalf("expected sub-filter 0 to alias the primary filter")
	}
}

func TestDrumsetDefaults(t *testing.T) {
	ins := NewInstrument(InstrumentDrumset, true, false)
	for i, env := range ins.DrumsetEnvelopes {
		if env.Preset().Name != "twang 2" {
			t.Fatalf("drum %d: expected twang 2, got %s", i, env.Preset().Name)
		}
	}
}

func TestFilterSettingHelpers(t *testing.T) {
	for v := 0; v < FilterFreqRange; v++ {
		if got := FreqSettingFromHz(HzFromFreqSetting(float64(v))); got != v {
			t.Fatalf("freq setting %d: expected round trip, got %d", v, got)
		}
	}
	for v := 0; v < FilterGainRange; v++ {
		if got := GainSettingFromLinearGain(LinearGainFromGainSetting(float64(v))); got != v {
			t.Fatalf("gain setting %d: expected round trip, got %d", v, got)
		}
	}
	if HzFromFreqSetting(FilterFreqReference) != FilterFreqReferenceHz {
		t.Fatalf("expected the reference setting to be %v Hz", FilterFreqReferenceHz)
	}
}

func TestConvertLegacyFilter(t *testing.T) {
	var flat FilterSettings
	flat.ConvertLegacySettings(10, 0, LegacyEnvelopeNamed("none"))
	if len(flat.ControlPoints) != 0 {
		t.Fatalf("expected a flat filter to have no points, got %v", flat.ControlPoints)
	}

	for cutoff := 0; cutoff < 11; cutoff++ {
		for resonance := 0; resonance < 8; resonance++ {
			for _, env := range []string{"none", "decay 1", "punch", "swell 2"} {
				var f FilterSettings
				f.ConvertLegacySettings(cutoff, resonance, LegacyEnvelopeNamed(env))
				if cutoff == 10 && resonance <= 1 && env == "none" {
					continue
				}
				if len(f.ControlPoints) != 1 {
					t.Fatalf("cutoff %d resonance %d %s: expected 1 point, got %d", cutoff, resonance, env, len(f.ControlPoints))
				}
				p := f.ControlPoints[0]
				if p.Type != LowPass || p.Freq < 0 || p.Freq >= FilterFreqRange || p.Gain < 0 || p.Gain >= FilterGainRange {
					t.Fatalf("cutoff %d resonance %d %s: point out of range %+v", cutoff, resonance, env, p)
				}
			}
		}
	}
}

func TestConvertLegacySettings(t *testing.T) {
	ins := NewInstrument(InstrumentChip, false, false)
	var legacy LegacySettings
	legacy.SetFilterCutoff(8)
	legacy.SetFilterResonance(0)
	legacy.SetFilterEnvelope(LegacyEnvelopeNamed("decay 1"))
	ins.ConvertLegacySettings(&legacy, true, false)

	if len(ins.NoteFilter.ControlPoints) != 1 {
		t.Fatalf("expected 1 note filter point, got %d", len(ins.NoteFilter.ControlPoints))
	}
	if !ins.Effects.Has(EffectNoteFilter) {
		t.Fatalf("expected the note filter effect to be enabled")
	}
	if !ins.NoteFilterType || ins.NoteFilterSimpleCut != 8 || ins.NoteFilterSimplePeak != 0 {
		t.Fatalf("expected simple note filter 8/0, got %v %d/%d", ins.NoteFilterType, ins.NoteFilterSimpleCut, ins.NoteFilterSimplePeak)
	}
	if len(ins.EqFilter.ControlPoints) != 0 {
		t.Fatalf("expected the EQ to be cleared, got %v", ins.EqFilter.ControlPoints)
	}
	if len(ins.Envelopes) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(ins.Envelopes))
	}
	env := ins.Envelopes[0]
	if env.Target != TargetNoteFilterAllFreqs || env.Envelope != EnvelopeDecay || env.Speed != 10 {
		t.Fatalf("expected a speed 10 decay on the note filter, got %+v", env)
	}

	// Without a filter envelope the cutoff lands on the EQ.
	ins = NewInstrument(InstrumentChip, false, false)
	ins.ConvertLegacySettings(&LegacySettings{}, true, false)
	if ins.Effects.Has(EffectNoteFilter) || len(ins.Envelopes) != 0 {
		t.Fatalf("expected no note filter and no envelopes, got %b %v", ins.Effects, ins.Envelopes)
	}
	if !ins.EqFilterType || ins.EqFilterSimpleCut != 6 || len(ins.EqFilter.ControlPoints) != 1 {
		t.Fatalf("expected simple EQ at cutoff 6, got %v %d %v", ins.EqFilterType, ins.EqFilterSimpleCut, ins.EqFilter.ControlPoints)
	}
}

func TestConvertLegacyFM(t *testing.T) {
	ins := NewInstrument(InstrumentFM, false, false)
	ins.ConvertLegacySettings(&LegacySettings{}, false, false)
	// The single carrier follows note size and nothing else does, so no
	// envelope is needed for it.
	if len(ins.Envelopes) != 0 {
		t.Fatalf("expected no envelopes, got %+v", ins.Envelopes)
	}

	ins = NewInstrument(InstrumentPWM, false, false)
	ins.ConvertLegacySettings(&LegacySettings{}, false, false)
	if len(ins.Envelopes) != 1 || ins.Envelopes[0].Target != TargetPulseWidth || ins.Envelopes[0].Envelope != EnvelopeTwang {
		t.Fatalf("expected a twang on the pulse width, got %+v", ins.Envelopes)
	}
}

func TestLegacyEnvelopeTables(t *testing.T) {
	if len(LegacyEnvelopes) != 40 {
		t.Fatalf("expected 40 legacy envelopes, got %d", len(LegacyEnvelopes))
	}
	for i, e := range PregoldEnvelopes {
		if int(e) >= len(LegacyEnvelopes) {
			t.Fatalf("pregold envelope %d maps outside the table: %d", i, e)
		}
	}
	if PregoldEnvelopes[18].Preset().Name != "decay 1" {
		t.Fatalf("expected old decay 1 to map to decay 1, got %s", PregoldEnvelopes[18].Preset().Name)
	}
	for _, p := range LegacyEnvelopes {
		if EnvelopeSpeeds[EnvelopeSpeedIndex(p.Speed)] != p.Speed {
			t.Fatalf("%s: speed %v is not in the speed table", p.Name, p.Speed)
		}
	}
	tremolo := FromLegacy(TargetNoteVolume, 0, LegacyEnvelopeNamed("tremolo5"), false)
	if tremolo.Envelope != EnvelopeLFO || tremolo.LowerBound != 0.5 {
		t.Fatalf("expected an LFO with lower bound 0.5, got %+v", tremolo)
	}
}

func TestFadeSettings(t *testing.T) {
	for v := 0; v < FadeInRange; v++ {
		if got := FadeInSetting(FadeInSeconds(v)); got != v {
			t.Fatalf("fade in %d: expected round trip, got %d", v, got)
		}
	}
	for i, ticks := range FadeOutTicks {
		if got := FadeOutSetting(ticks); got != i {
			t.Fatalf("fade out %d ticks: expected %d, got %d", ticks, i, got)
		}
	}
	if got := FadeOutSetting(-1000); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := FadeOutSetting(1000); got != len(FadeOutTicks)-1 {
		t.Fatalf("expected %d, got %d", len(FadeOutTicks)-1, got)
	}
}

func TestNeededBits(t *testing.T) {
	for _, c := range []struct{ in, want int }{{0, 0}, {1, 1}, {2, 2}, {7, 3}, {8, 4}, {12, 4}} {
		if got := NeededBits(c.in); got != c.want {
			t.Errorf("NeededBits(%d): expected %d, got %d", c.in, c.want, got)
		}
	}
}

func TestResizing(t *testing.T) {
	s := New()
	s.SetPatternsPerChannel(0 + 1)
	s.SetBarCount(2)
	for i, ch := range s.Channels {
		if len(ch.Patterns) != 1 || len(ch.Bars) != 2 {
			t.Fatalf("channel %d: expected 1 pattern and 2 bars, got %d and %d", i, len(ch.Patterns), len(ch.Bars))
		}
		if ch.Bars[0] != 1 || ch.Bars[1] != 1 {
			t.Fatalf("channel %d: expected bars to keep pattern 1, got %v", i, ch.Bars)
		}
	}
	s.SetInstrumentCount(s.Channels[0], 3)
	if len(s.Channels[0].Instruments) != 3 || s.Channels[0].Instruments[2].Type != InstrumentChip {
		t.Fatalf("expected 3 chip instruments")
	}
}

func TestSummary(t *testing.T) {
	s := New()
	s.Channels[0].Patterns[0].Notes = []*Note{NewNote(24, 0, 12, 3)}
	out := s.String()
	for _, want := range []string{"- Title: Untitled", "3 pitch, 1 noise, 1 mod", "#1 (1 note)", "#1 (0 notes)", "Mod 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q:\n%s", want, out)
		}
	}
}
