package jsonsong

import (
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func newTestDecoder() (*Decoder, *samples.Registry) {
	waves := samples.NewRegistry(nil)
	return NewDecoder(log.New(io.Discard, "", 0), waves), waves
}

func diff(t *testing.T, want, got any) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("expected:\n%s\ngot:\n%s", spew.Sdump(want), spew.Sdump(got))
	}
}

func roundTrip(t *testing.T, s *song.Song) (*song.Song, *Decoder) {
	t.Helper()
	d, waves := newTestDecoder()
	opts := DefaultOptions()
	opts.Waves = waves
	data, err := Marshal(s, opts)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	got, err := d.Decode(data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	return got, d
}

func TestDefaultSongRoundTrip(t *testing.T) {
	s := song.New()
	got, d := roundTrip(t, s)
	if len(d.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", d.Warnings())
	}
	diff(t, s, got)
}

func TestSongWithNotesRoundTrip(t *testing.T) {
	s := song.New()
	s.Title = "Notes"
	s.Key = 5
	s.Tempo = 120
	s.PatternInstruments = true

	lead := s.Channels[0]
	s.SetInstrumentCount(lead, 2)
	ins := lead.Instruments[0]
	ins.Effects = ins.Effects.With(song.EffectVibrato).With(song.EffectReverb)
	ins.SetVibrato(1)
	ins.Reverb = 12
	ins.EqFilter.AddPoint(song.LowPass, 20, song.FilterGainCenter)

	bend := song.NewNote(24, 0, 12, song.NoteSizeMax)
	bend.Pins = append(bend.Pins[:1],
		song.NotePin{Interval: 2, Time: 6, Size: 3},
		song.NotePin{Interval: 2, Time: 12, Size: 0})
	chord := song.NewNote(26, 12, 24, 4)
	chord.Pitches = []int{26, 30}
	lead.Patterns[0].Notes = []*song.Note{bend, chord}
	lead.Patterns[1].Instruments = []int{1}

	s.Channels[1].Instruments[0].Reset(song.InstrumentHarmonics, false, false)
	s.Channels[3].Patterns[0].Notes = []*song.Note{song.NewNote(3, 0, 48, 2)}
	// Mod notes keep their raw size.
	s.Channels[4].Patterns[0].Notes = []*song.Note{song.NewNote(song.ModCount-1, 0, 24, 300)}

	got, d := roundTrip(t, s)
	if len(d.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", d.Warnings())
	}
	diff(t, s, got)
}

func TestNoteFilterRoundTrip(t *testing.T) {
	s := song.New()
	ins := s.Channels[0].Instruments[0]
	ins.Effects = ins.Effects.With(song.EffectNoteFilter)
	ins.NoteFilter.AddPoint(song.HighPass, 10, song.FilterGainCenter+2)
	ins.NoteFilterType = true
	ins.NoteFilterSimpleCut = 4
	ins.NoteFilterSimplePeak = 2
	sub := &song.FilterSettings{}
	sub.AddPoint(song.LowPass, 30, song.FilterGainCenter)
	ins.NoteSubFilters[0] = sub

	got, d := roundTrip(t, s)
	if len(d.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", d.Warnings())
	}
	diff(t, ins, got.Channels[0].Instruments[0])
}

func TestSequenceLayout(t *testing.T) {
	s := song.New()
	s.LoopStart = 1
	s.LoopLength = 2
	bars := s.Channels[0].Bars
	bars[0], bars[1], bars[2], bars[3] = 1, 2, 3, 4

	cases := []struct {
		opts  Options
		intro int
		want  []int
	}{
		{Options{EnableIntro: false, LoopCount: 2, EnableOutro: false}, 0, []int{2, 3, 2, 3}},
		{Options{EnableIntro: true, LoopCount: 0, EnableOutro: false}, 1, []int{1, 2, 3}},
	}
	for _, c := range cases {
		doc, err := Encode(s, c.opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc["introBars"] != c.intro {
			t.Errorf("expected %d intro bars, got %v", c.intro, doc["introBars"])
		}
		channel := doc["channels"].([]any)[0].(map[string]any)
		diff(t, c.want, channel["sequence"])
	}

	doc, err := Encode(s, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	channel := doc["channels"].([]any)[0].(map[string]any)
	if seq := channel["sequence"].([]int); len(seq) != s.BarCount {
		t.Fatalf("expected %d bars, got %d", s.BarCount, len(seq))
	}
}

const beepboxDocument = `{
	"format": "BeepBox",
	"scale": "romani :)",
	"key": "Db",
	"beatsPerMinute": 120,
	"ticksPerBeat": 4,
	"channels": [{
		"type": "pitch",
		"instruments": [{
			"type": "chip",
			"volume": 40,
			"wave": "10% pulse",
			"transition": "soft fade",
			"effects": "reverb",
			"chord": "harmony"
		}],
		"patterns": [{"instrument": 1, "notes": [
			{"pitches": [36], "points": [
				{"tick": 0, "pitchBend": 0, "volume": 100},
				{"tick": 2, "pitchBend": 0, "volume": 50}
			]}
		]}],
		"sequence": [1, 1]
	}]
}`

func TestBeepBoxDocument(t *testing.T) {
	d, waves := newTestDecoder()
	s, err := d.Decode([]byte(beepboxDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %v", d.Warnings())
	}
	if name := song.Scales[s.Scale].Name; name != "Double Harmonic :)" {
		t.Errorf("expected the renamed scale, got %q", name)
	}
	if s.Key != 1 {
		t.Errorf("expected key 1, got %d", s.Key)
	}
	if len(s.Channels) != 1 || s.Channels[0].Bars[1] != 1 {
		t.Fatalf("expected one channel playing pattern 1 twice, got %v", spew.Sdump(s.Channels))
	}

	ins := s.Channels[0].Instruments[0]
	// 40% is three steps below full volume.
	if ins.Volume != -11 {
		t.Errorf("expected volume -11, got %d", ins.Volume)
	}
	if want := waves.WaveIndex("modbox 10% pulse"); ins.ChipWave != want {
		t.Errorf("expected wave %d, got %d", want, ins.ChipWave)
	}
	if ins.Transition != song.TransitionNormal || ins.FadeIn != song.FadeInSetting(0.06) || ins.FadeOut != song.FadeOutSetting(96) {
		t.Errorf("expected a soft fade, got transition %d fade %d/%d", ins.Transition, ins.FadeIn, ins.FadeOut)
	}
	if !ins.Effects.Has(song.EffectReverb) || ins.Effects.Has(song.EffectChord) {
		t.Errorf("expected reverb without chord, got effects %b", ins.Effects)
	}
	if ins.Chord != song.ChordSimultaneous {
		t.Errorf("expected simultaneous chord, got %d", ins.Chord)
	}

	notes := s.Channels[0].Patterns[0].Notes
	if len(notes) != 1 {
		t.Fatalf("expected one note, got %d", len(notes))
	}
	want := []song.NotePin{{Time: 0, Size: song.NoteSizeMax}, {Time: 2 * song.PartsPerBeat / 4, Size: 3}}
	diff(t, want, notes[0].Pins)
}

func TestOldWaveNames(t *testing.T) {
	for _, tc := range []struct {
		name, want string
	}{
		{"pulse wide", "1/4 pulse"},
		{"plateau", "rounded"},
		{"trumpett", "trumpet"},
		{"sandbox shril lute", "sandbox shrill lute"},
		{"shril bass", "sandbox shrill bass"},
	} {
		d, waves := newTestDecoder()
		doc := fmt.Sprintf(`{"channels": [{"type": "pitch", "instruments": [{"type": "chip", "wave": %q}]}]}`, tc.name)
		s, err := d.Decode([]byte(doc))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got := waves.WaveName(s.Channels[0].Instruments[0].ChipWave); got != tc.want {
			t.Fatalf("%s: expected wave %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestJummBoxDocument(t *testing.T) {
	d, _ := newTestDecoder()
	s, err := d.Decode([]byte(`{"masterGain": 1.5, "key": 15, "channels": [
		{"type": "pitch", "instruments": [{"type": "chip", "volume": -20}]},
		{"type": "noise", "instruments": [{"type": "noise", "wave": "white"}]}
	]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Key != 3 {
		t.Errorf("expected key 3, got %d", s.Key)
	}
	if s.Limiter.MasterGain != 1.5 {
		t.Errorf("expected master gain 1.5, got %v", s.Limiter.MasterGain)
	}
	if got := s.Channels[0].Instruments[0].Volume; got != -20 {
		t.Errorf("expected volume -20, got %d", got)
	}
	if s.Channels[1].Type != song.NoiseChannel {
		t.Fatalf("expected a noise channel, got %v", s.Channels[1].Type)
	}
}

func TestLegacyFilterSettings(t *testing.T) {
	d, _ := newTestDecoder()
	s, err := d.Decode([]byte(`{"channels": [{"instruments": [
		{"type": "chip", "filterCutoffHz": 8000, "filterEnvelope": "punch"}
	]}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := song.NewInstrument(song.InstrumentChip, false, false)
	var legacy song.LegacySettings
	legacy.SetFilterCutoff(legacyCutoffMax)
	legacy.SetFilterEnvelope(song.LegacyEnvelopeNamed("punch"))
	want.ConvertLegacySettings(&legacy, true, false)
	diff(t, want, s.Channels[0].Instruments[0])
}

func TestLegacyFilterSlidersByVersion(t *testing.T) {
	for _, tc := range []struct {
		header string
		simple bool
	}{
		{`"format": "JummBox", "version": 4`, true},
		{`"format": "JummBox", "version": 5`, false},
		{`"format": "BeepBox", "version": 8`, true},
		{`"format": "BeepBox", "version": 9`, false},
		{`"format": "ModBox", "version": 2`, true},
		{`"format": "UltraBox", "version": 1`, false},
	} {
		d, _ := newTestDecoder()
		doc := fmt.Sprintf(`{%s, "channels": [{"instruments": [{"type": "chip", "filterCutoffHz": 8000}]}]}`, tc.header)
		s, err := d.Decode([]byte(doc))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.header, err)
		}
		want := song.NewInstrument(song.InstrumentChip, false, false)
		var legacy song.LegacySettings
		legacy.SetFilterCutoff(legacyCutoffMax)
		want.ConvertLegacySettings(&legacy, tc.simple, false)
		diff(t, want, s.Channels[0].Instruments[0])
	}
}

func TestModernEnvelopesAndLegacyPresets(t *testing.T) {
	d, _ := newTestDecoder()
	s, err := d.Decode([]byte(`{"channels": [{"instruments": [{"type": "chip", "envelopes": [
		{"target": "noteVolume", "envelope": "twang 2"},
		{"target": "noteVolume", "envelope": "bogus"},
		{"target": "nowhere", "envelope": "punch"}
	]}]}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	envs := s.Channels[0].Instruments[0].Envelopes
	want := []song.EnvelopeSettings{song.FromLegacy(song.TargetNoteVolume, 0, song.LegacyEnvelopeNamed("twang 2"), false)}
	diff(t, want, envs)
	if len(d.Warnings()) != 2 {
		t.Fatalf("expected two warnings, got %v", d.Warnings())
	}
}

func TestSchemaProblemsAreWarnings(t *testing.T) {
	d, _ := newTestDecoder()
	s, err := d.Decode([]byte(`{"name": 5, "channels": "none"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	schema := 0
	for _, w := range d.Warnings() {
		if strings.HasPrefix(w, "schema: ") {
			schema++
		}
	}
	if schema != 2 {
		t.Fatalf("expected two schema warnings, got %v", d.Warnings())
	}
	if s.Title != "Untitled" || len(s.Channels) != 1 || s.Channels[0].Type != song.PitchChannel {
		t.Fatalf("expected a default titled song with one pitch channel, got %q with %d channels", s.Title, len(s.Channels))
	}
}

func TestNonObjectInputFails(t *testing.T) {
	d, _ := newTestDecoder()
	if _, err := d.Decode([]byte(`[1, 2]`)); !errors.Is(err, ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
	if _, err := d.Decode([]byte(`{"name": `)); err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
}

func TestBadSampleWarns(t *testing.T) {
	d, waves := newTestDecoder()
	s, err := d.Decode([]byte(`{"customSamples": ["ftp://example.com/a.wav", "https://example.com/b.wav"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, w := range d.Warnings() {
		found = found || strings.HasPrefix(w, "skipping sample")
	}
	if !found {
		t.Fatalf("expected a sample warning, got %v", d.Warnings())
	}
	if waves.WaveCount() != len(samples.BuiltinWaves)+1 {
		t.Fatalf("expected %d waves, got %d", len(samples.BuiltinWaves)+1, waves.WaveCount())
	}
	if want := []string{"https://example.com/b.wav"}; !reflect.DeepEqual(s.CustomSamples, want) {
		t.Fatalf("expected %v on the song, got %v", want, s.CustomSamples)
	}
}

func TestUnknownInstrumentTypeFailsEncode(t *testing.T) {
	s := song.New()
	s.Channels[0].Instruments[0].Type = song.InstrumentTypeCount
	if _, err := Encode(s, DefaultOptions()); !errors.Is(err, ErrUnknownInstrumentType) {
		t.Fatalf("expected ErrUnknownInstrumentType, got %v", err)
	}
}
