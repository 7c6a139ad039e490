package song

import "math"

// EnvelopeShape is the curve an envelope follows over the life of a note.
type EnvelopeShape int

const (
	EnvelopeNone EnvelopeShape = iota
	EnvelopeNoteSize
	EnvelopePitch
	EnvelopeRandom
	EnvelopePunch
	EnvelopeFlare
	EnvelopeTwang
	EnvelopeSwell
	EnvelopeLFO
	EnvelopeDecay
	EnvelopeWibble
	EnvelopeLinear
	EnvelopeRise
	EnvelopeBlip
	EnvelopeFall
)

var EnvelopeShapes = []string{
	"none", "note size", "pitch", "random", "punch", "flare", "twang", "swell",
	"lfo", "decay", "wibble", "linear", "rise", "blip", "fall",
}

// HasSpeed reports whether envelopes of this shape store a speed.
func (s EnvelopeShape) HasSpeed() bool {
	switch s {
	case EnvelopeNone, EnvelopeNoteSize, EnvelopePunch, EnvelopePitch:
		return false
	}
	return true
}

// EnvelopeSpeeds are the selectable per envelope speeds.
var EnvelopeSpeeds = [64]float64{
	0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07,
	0.08, 0.09, 0.1, 0.125, 0.2, 0.25, 0.333, 0.4,
	0.5, 0.6, 0.6667, 0.75, 0.8, 0.9, 1, 1.25,
	1.3333, 1.5, 1.6667, 1.75, 2, 2.25, 2.5, 2.75,
	3, 3.5, 4, 4.5, 5, 5.5, 6, 6.5,
	7, 7.5, 8, 9, 10, 11, 12, 13,
	14, 15, 16, 17, 18, 19, 20, 24,
	32, 40, 64, 96, 128, 192, 256, 512,
}

// EnvelopeSpeedDefaultValue is the speed of envelopes that don't store one.
const EnvelopeSpeedDefaultValue = 1.0

// EnvelopeSpeedIndex returns the index of the table speed closest to speed.
func EnvelopeSpeedIndex(speed float64) int {
	best := 0
	for i, s := range EnvelopeSpeeds {
		if math.Abs(s-speed) < math.Abs(EnvelopeSpeeds[best]-speed) {
			best = i
		}
	}
	return best
}

// EnvelopeTarget is an instrument parameter an envelope can drive.
type EnvelopeTarget struct {
	Name     string
	MaxCount int
}

var EnvelopeTargets = []EnvelopeTarget{
	{"none", 1},
	{"noteVolume", 1},
	{"pulseWidth", 1},
	{"stringSustain", 1},
	{"unison", 1},
	{"operatorFrequency", SixOperatorCount},
	{"operatorAmplitude", SixOperatorCount},
	{"feedbackAmplitude", 1},
	{"pitchShift", 1},
	{"detune", 1},
	{"vibratoDepth", 1},
	{"noteFilterAllFreqs", 1},
	{"noteFilterFreq", FilterMaxPoints},
	{"decimalOffset", 1},
	{"supersawDynamism", 1},
	{"supersawSpread", 1},
	{"supersawShape", 1},
	{"panning", 1},
	{"distortion", 1},
	{"bitcrusherQuantization", 1},
	{"bitcrusherFrequency", 1},
	{"chorus", 1},
	{"echoSustain", 1},
	{"reverb", 1},
	{"arpeggioSpeed", 1},
	{"ringModulation", 1},
	{"ringModulationHz", 1},
	{"envelopeSpeed", 1},
	{"individualEnvelopeSpeed", MaxEnvelopeCount},
	{"individualEnvelopeLowerBound", MaxEnvelopeCount},
	{"individualEnvelopeUpperBound", MaxEnvelopeCount},
}

// TargetIndex returns the index of the named envelope target, or -1.
func TargetIndex(name string) int {
	for i, t := range EnvelopeTargets {
		if t.Name == name {
			return i
		}
	}
	return -1
}

var (
	TargetNone               = TargetIndex("none")
	TargetNoteVolume         = TargetIndex("noteVolume")
	TargetPulseWidth         = TargetIndex("pulseWidth")
	TargetOperatorAmplitude  = TargetIndex("operatorAmplitude")
	TargetFeedbackAmplitude  = TargetIndex("feedbackAmplitude")
	TargetNoteFilterAllFreqs = TargetIndex("noteFilterAllFreqs")
)

// EnvelopeSettings is one envelope of an instrument.
type EnvelopeSettings struct {
	Target   int
	Index    int
	Envelope EnvelopeShape

	PitchStart int // pitch envelopes only
	PitchEnd   int

	Inverse    bool
	Discrete   bool
	Speed      float64
	LowerBound float64
	UpperBound float64

	Steps    int // stepped LFO and random envelopes
	Seed     int // random envelopes
	Waveform int // LFO waveform, or random envelope type
}

// NewEnvelope returns an envelope with every shape specific field at its default.
func NewEnvelope(target, index int, shape EnvelopeShape, isNoise bool) EnvelopeSettings {
	e := EnvelopeSettings{
		Target:     target,
		Index:      index,
		Envelope:   shape,
		PitchEnd:   MaxPitch,
		Speed:      EnvelopeSpeedDefaultValue,
		UpperBound: 1,
		Steps:      2,
		Seed:       2,
	}
	if isNoise {
		e.PitchEnd = PitchEnvelopeDefaultDrum
	}
	return e
}

// LegacyEnvelope indexes LegacyEnvelopes, the envelope presets used before
// envelopes were stored as shape plus speed.
type LegacyEnvelope int

// LegacyEnvelopePreset is an old envelope preset expressed as a modern
// envelope.
type LegacyEnvelopePreset struct {
	Name       string
	Shape      EnvelopeShape
	Speed      float64
	LowerBound float64
}

// Decays reports whether the preset moves a filter cutoff downwards over time.
func (p LegacyEnvelopePreset) Decays() bool {
	switch p.Shape {
	case EnvelopeFlare, EnvelopeTwang, EnvelopeDecay, EnvelopeNoteSize:
		return true
	}
	return false
}

var LegacyEnvelopes = []LegacyEnvelopePreset{
	{"none", EnvelopeNone, EnvelopeSpeedDefaultValue, 0},
	{"note size", EnvelopeNoteSize, EnvelopeSpeedDefaultValue, 0},
	{"punch", EnvelopePunch, EnvelopeSpeedDefaultValue, 0},
	{"flare 0", EnvelopeFlare, 128, 0},
	{"flare 1", EnvelopeFlare, 32, 0},
	{"flare 2", EnvelopeFlare, 8, 0},
	{"flare 3", EnvelopeFlare, 2, 0},
	{"twang 0", EnvelopeTwang, 128, 0},
	{"twang 1", EnvelopeTwang, 32, 0},
	{"twang 2", EnvelopeTwang, 8, 0},
	{"twang 3", EnvelopeTwang, 2, 0},
	{"swell 0", EnvelopeSwell, 128, 0},
	{"swell 1", EnvelopeSwell, 32, 0},
	{"swell 2", EnvelopeSwell, 8, 0},
	{"swell 3", EnvelopeSwell, 2, 0},
	{"tremolo0", EnvelopeLFO, 8, 0},
	{"tremolo1", EnvelopeLFO, 4, 0},
	{"tremolo2", EnvelopeLFO, 2, 0},
	{"tremolo3", EnvelopeLFO, 1, 0},
	{"tremolo4", EnvelopeLFO, 4, 0.5},
	{"tremolo5", EnvelopeLFO, 2, 0.5},
	{"tremolo6", EnvelopeLFO, 1, 0.5},
	{"decay 0", EnvelopeDecay, 20, 0},
	{"decay 1", EnvelopeDecay, 10, 0},
	{"decay 2", EnvelopeDecay, 7, 0},
	{"decay 3", EnvelopeDecay, 4, 0},
	{"wibble-0", EnvelopeWibble, 128, 0},
	{"wibble-1", EnvelopeWibble, 96, 0},
	{"wibble-2", EnvelopeWibble, 24, 0},
	{"wibble-3", EnvelopeWibble, 12, 0},
	{"rise-0", EnvelopeRise, 128, 0},
	{"rise-1", EnvelopeRise, 32, 0},
	{"linear-1", EnvelopeLinear, 32, 0},
	{"linear-2", EnvelopeLinear, 8, 0},
	{"linear-3", EnvelopeLinear, 2, 0},
	{"rise-2", EnvelopeRise, 8, 0},
	{"rise-3", EnvelopeRise, 2, 0},
	{"blip 1", EnvelopeBlip, 6, 0},
	{"blip 2", EnvelopeBlip, 16, 0},
	{"blip 3", EnvelopeBlip, 32, 0},
}

// PregoldEnvelopes maps the 29 envelope indices of the oldest links onto
// LegacyEnvelopes.
var PregoldEnvelopes = [29]LegacyEnvelope{
	0, 1, 2, 4, 5, 6, 8, 9, 10, 12, 13, 14, 16, 17, 18, 19, 20, 21, 23, 24, 25, 27, 28, 29, 32, 33, 34, 31, 11,
}

// LegacyEnvelopeNamed returns the preset with the given name, or none.
func LegacyEnvelopeNamed(name string) LegacyEnvelope {
	for i, p := range LegacyEnvelopes {
		if p.Name == name {
			return LegacyEnvelope(i)
		}
	}
	return 0
}

// Preset returns the preset, clamping out of range indices.
func (l LegacyEnvelope) Preset() LegacyEnvelopePreset {
	return LegacyEnvelopes[clamp(0, len(LegacyEnvelopes)-1, int(l))]
}

// DrumsetEnvelopeDefault is "twang 2".
var DrumsetEnvelopeDefault = LegacyEnvelopeNamed("twang 2")

// FromLegacy converts a legacy preset into an envelope driving target.
func FromLegacy(target, index int, legacy LegacyEnvelope, isNoise bool) EnvelopeSettings {
	p := legacy.Preset()
	e := NewEnvelope(target, index, p.Shape, isNoise)
	e.Speed = p.Speed
	e.LowerBound = p.LowerBound
	return e
}

// Modulator is a setting a mod channel can automate.
type Modulator struct {
	Name      string
	ForSong   bool
	MaxRawVol int
	Effect    int // effect that must be enabled on the target, or -1
}

var Modulators = []Modulator{
	{"none", false, 6, -1},
	{"song volume", true, 100, -1},
	{"tempo", true, TempoMax - TempoMin, -1},
	{"song reverb", true, 2 * ReverbRange, -1},
	{"next bar", true, 1, -1},
	{"song detune", true, DetuneMax - DetuneMin, -1},
	{"pan", false, PanMax, int(EffectPanning)},
	{"reverb", false, ReverbRange - 1, int(EffectReverb)},
	{"distortion", false, DistortionRange - 1, int(EffectDistortion)},
	{"fm slider 1", false, 15, -1},
	{"fm slider 2", false, 15, -1},
	{"fm slider 3", false, 15, -1},
	{"fm slider 4", false, 15, -1},
	{"fm feedback", false, 15, -1},
	{"pulse width", false, PulseWidthRange, -1},
	{"detune", false, DetuneMax - DetuneMin, int(EffectDetune)},
	{"vibrato depth", false, 50, int(EffectVibrato)},
	{"vibrato speed", false, VibratoSpeedMax, int(EffectVibrato)},
	{"vibrato delay", false, VibratoDelayMax, int(EffectVibrato)},
	{"arp speed", false, ArpSpeedMax, int(EffectChord)},
	{"pan delay", false, PanDelayMax, int(EffectPanning)},
	{"reset arp", false, 1, int(EffectChord)},
	{"eq filter", false, 10, -1},
	{"note filter", false, 10, int(EffectNoteFilter)},
	{"bit crush", false, BitcrusherQuantizationRange - 1, int(EffectBitcrusher)},
	{"freq crush", false, BitcrusherFreqRange - 1, int(EffectBitcrusher)},
	{"echo", false, EchoSustainRange - 1, int(EffectEcho)},
	{"chorus", false, ChorusRange - 1, int(EffectChorus)},
	{"eq filt cut", false, FilterFreqRange - 1, -1},
	{"eq filt peak", false, FilterGainRange - 1, -1},
	{"note filt cut", false, FilterFreqRange - 1, int(EffectNoteFilter)},
	{"note filt peak", false, FilterGainRange - 1, int(EffectNoteFilter)},
	{"pitch shift", false, PitchShiftRange - 1, int(EffectPitchShift)},
	{"sustain", false, StringSustainRange - 1, -1},
	{"mix volume", false, VolumeRange, -1},
	{"fm slider 5", false, 15, -1},
	{"fm slider 6", false, 15, -1},
	{"decimal offset", false, DecimalOffsetMax, -1},
	{"envelope speed", false, EnvelopeSpeedMax, -1},
	{"dynamism", false, SupersawDynamismMax, -1},
	{"spread", false, SupersawSpreadMax, -1},
	{"saw shape", false, SupersawShapeMax, -1},
	{"individual envelope speed", false, len(EnvelopeSpeeds) - 1, -1},
	{"song eq", true, 10, -1},
	{"reset envelope", false, 1, -1},
	{"ring modulation", false, RingModRange - 1, int(EffectRingModulation)},
	{"ring mod hertz", false, RingModHzRange - 1, int(EffectRingModulation)},
	{"granular", false, GranularRange, int(EffectGranular)},
	{"grain size", false, (GrainSizeMax - GrainSizeMin) / GrainSizeStep, int(EffectGranular)},
	{"individual envelope lower bound", false, int(EnvelopeBoundMax * 10), -1},
	{"individual envelope upper bound", false, int(EnvelopeBoundMax * 10), -1},
}

// ModulatorIndex returns the index of the named modulator, or -1.
func ModulatorIndex(name string) int {
	for i, m := range Modulators {
		if m.Name == name {
			return i
		}
	}
	return -1
}

var (
	ModNone       = ModulatorIndex("none")
	ModTempo      = ModulatorIndex("tempo")
	ModSongReverb = ModulatorIndex("song reverb")
	ModDetune     = ModulatorIndex("detune")
	ModEqFilter   = ModulatorIndex("eq filter")
	ModNoteFilter = ModulatorIndex("note filter")
	ModSongEq     = ModulatorIndex("song eq")
)

// UsesFilterType reports whether the modulator is qualified by a filter
// morph or control point.
func (m Modulator) UsesFilterType() bool {
	switch m.Name {
	case "eq filter", "note filter", "song eq":
		return true
	}
	return false
}

// UsesEnvelopeNumber reports whether the modulator targets a single envelope.
func (m Modulator) UsesEnvelopeNumber() bool {
	switch m.Name {
	case "individual envelope speed", "reset envelope",
		"individual envelope lower bound", "individual envelope upper bound":
		return true
	}
	return false
}

// ModFilterTypeFor returns the filter type qualifier addressing one axis of a
// filter control point. Zero addresses the morph between sub-filters.
func ModFilterTypeFor(point int, peak bool) int {
	t := 1 + point*2
	if peak {
		t++
	}
	return t
}
