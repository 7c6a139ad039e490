package song

// Pitch and timing.
const (
	PitchesPerOctave = 12
	PitchOctaves     = 8
	MaxPitch         = PitchOctaves * PitchesPerOctave
	DrumCount        = 12
	PartsPerBeat     = 24
	TicksPerPart     = 2
	ModCount         = 6
	NoteSizeMax      = 6
	ModNoteSizeMax   = 511
)

// Song level ranges. Max values are inclusive.
const (
	BeatsPerBarMin        = 1
	BeatsPerBarMax        = 64
	BarCountMin           = 1
	BarCountMax           = 1024
	PatternsPerChannelMin = 1
	PatternsPerChannelMax = 1024
	TempoMin              = 1
	TempoMax              = 500
	LegacyTempoMin        = 30 // lowest tempo of the 'j' lineage, used to correct its tempo modulators
	OctaveMin             = -2
	OctaveMax             = 2
	ChannelOctaveMax      = PitchOctaves - 1
	ReverbMax             = 31 // song reverb of the old lineages

	PitchChannelCountMin = 1
	PitchChannelCountMax = 40
	NoiseChannelCountMin = 0
	NoiseChannelCountMax = 16
	ModChannelCountMin   = 0
	ModChannelCountMax   = 12

	InstrumentCountMin        = 1
	LayeredInstrumentCountMax = 4
	PatternInstrumentCountMax = 10
)

// Filter ranges.
const (
	FilterMorphCount      = 10
	FilterMaxPoints       = 8
	FilterFreqRange       = 34
	FilterFreqReferenceHz = 8000.0
	FilterFreqReference   = 28
	FilterFreqStep        = 0.25
	FilterGainRange       = 15
	FilterGainCenter      = 7
	FilterGainStep        = 0.5
	FilterSimpleCutRange  = 11
	FilterSimplePeakRange = 8
)

// Instrument parameter ranges. A Range is the count of settings, so the
// largest setting is Range-1.
const (
	VolumeRange                 = 50
	PanCenter                   = 50
	PanMax                      = 100
	PanDelayMax                 = 20
	PanDelayDefault             = 10
	DetuneMin                   = 0
	DetuneMax                   = 400
	DetuneCenter                = 200
	PitchShiftRange             = 25
	PitchShiftCenter            = 12
	ChorusRange                 = 8
	ReverbRange                 = 32
	EchoSustainRange            = 8
	EchoDelayRange              = 24
	DistortionRange             = 8
	BitcrusherFreqRange         = 14
	BitcrusherQuantizationRange = 8
	ArpSpeedMax                 = 50
	ArpSpeedDefault             = 12
	EnvelopeSpeedMax            = 50
	EnvelopeSpeedDefault        = 12
	FadeInRange                 = 10
	FadeOutNeutral              = 4
	PulseWidthRange             = 50
	DecimalOffsetMax            = 99
	SupersawDynamismMax         = 6
	SupersawSpreadMax           = 12
	SupersawShapeMax            = 6
	StringSustainRange          = 15
	StringSustainDefault        = 10
	StringSustainTypeCount      = 2
	VibratoDepthMax             = 2.0
	VibratoSpeedMax             = 30
	VibratoSpeedDefault         = 10
	VibratoDelayMax             = 50
	VibratoTypeCount            = 2
	MonoChordToneMax            = 8

	RingModRange          = 8
	RingModHzRange        = 64
	RingModHzDefault      = 10
	RingModHzOffsetMin    = -200
	RingModHzOffsetMax    = 200
	RingModPulseWidthMax  = 50
	GranularRange         = 100
	GrainSizeMin          = 40
	GrainSizeMax          = 2000
	GrainSizeStep         = 40
	GrainAmountsMax       = 10
	GrainRangeMax         = 1600
	ChipWaveLoopModeCount = 4
	ChipWaveLoopPointMax  = 1<<30 - 1

	OperatorCount        = 4
	SixOperatorCount     = 6
	OperatorAmplitudeMax = 15
	OperatorPulseWidths  = 11

	HarmonicsControlPoints    = 28
	HarmonicsControlPointBits = 3
	HarmonicsMax              = 1<<HarmonicsControlPointBits - 1
	SpectrumControlPoints     = 30
	SpectrumControlPointBits  = 3
	SpectrumMax               = 1<<SpectrumControlPointBits - 1
	ChipWaveLength            = 64
	CustomChipWaveMax         = 24

	UnisonVoicesMax     = 9
	UnisonSpreadMax     = 96.0
	UnisonOffsetMax     = 96.0
	UnisonExpressionMax = 4.0
	UnisonSignMax       = 4.0

	MaxEnvelopeCount         = 12
	EnvelopeBoundMax         = 4.0
	RandomEnvelopeStepsMax   = 24
	RandomEnvelopeSeedMax    = 63
	RandomEnvelopeTypeCount  = 4
	LFOEnvelopeStepsMax      = 24
	PitchEnvelopeDefaultDrum = DrumCount - 1
)

// Limiter defaults.
const (
	CompressionRatioDefault     = 1.0
	CompressionThresholdDefault = 1.0
	LimitRatioDefault           = 1.0
	LimitThresholdDefault       = 1.0
	LimitDecayDefault           = 4
	LimitDecayMax               = 30
	LimitRiseDefault            = 4000.0
	LimitRiseMin                = 2000.0
	LimitRiseMax                = 10000.0
	MasterGainDefault           = 1.0
	MasterGainMax               = 5.0
)

// FadeOutTicks maps a fade out setting to a release length in ticks.
// Negative lengths cut the note short.
var FadeOutTicks = [...]int{-24, -12, -6, -3, -1, 6, 12, 24, 48, 72, 96}

// Scale is a named set of the semitones in an octave.
type Scale struct {
	Name  string
	Flags [PitchesPerOctave]bool
}

func scaleOf(name, pattern string) Scale {
	s := Scale{Name: name}
	for i := range s.Flags {
		s.Flags[i] = pattern[i] == '1'
	}
	return s
}

// Scales lists every scale. The last entry is the user defined scale.
var Scales = []Scale{
	scaleOf("Free", "111111111111"),
	scaleOf("Major", "101011010101"),
	scaleOf("Minor", "101101011010"),
	scaleOf("Mixolydian", "101011010110"),
	scaleOf("Lydian", "101010110101"),
	scaleOf("Dorian", "101101010110"),
	scaleOf("Phrygian", "110101011010"),
	scaleOf("Locrian", "110101101010"),
	scaleOf("Lydian Dominant", "101010110110"),
	scaleOf("Phrygian Dominant", "110011011010"),
	scaleOf("Harmonic Major", "101011011001"),
	scaleOf("Harmonic Minor", "101101011001"),
	scaleOf("Melodic Minor", "101101010101"),
	scaleOf("Blues", "100101110010"),
	scaleOf("Altered", "110110101010"),
	scaleOf("Major Pentatonic", "101010010100"),
	scaleOf("Minor Pentatonic", "100101010010"),
	scaleOf("Whole Tone", "101010101010"),
	scaleOf("Octatonic", "101101101101"),
	scaleOf("Hexatonic", "100110011001"),
	scaleOf("Double Harmonic :)", "110011011001"),
	scaleOf("Double Harmonic :(", "101100111001"),
	scaleOf("Strange", "101001010101"),
	scaleOf("Custom", "111111111111"),
}

// CustomScale is the index of the user defined scale.
var CustomScale = len(Scales) - 1

// Keys names the twelve tonics, starting at C.
var Keys = []string{"C", "C♯", "D", "D♯", "E", "F", "F♯", "G", "G♯", "A", "A♯", "B"}

// Rhythm is a subdivision of the beat used to snap notes while editing.
type Rhythm struct {
	Name         string
	StepsPerBeat int
}

var Rhythms = []Rhythm{
	{"÷3 (triplets)", 3},
	{"÷4 (standard)", 4},
	{"÷6", 6},
	{"÷8", 8},
	{"freehand", 24},
}

const (
	RhythmTriplets = 0
	RhythmDefault  = 1
	RhythmSixths   = 2
)

type ChordType int

const (
	ChordSimultaneous ChordType = iota
	ChordStrum
	ChordArpeggio
	ChordCustomInterval
	ChordMonophonic
)

var Chords = []string{"simultaneous", "strum", "arpeggio", "custom interval", "monophonic"}

type TransitionType int

const (
	TransitionNormal TransitionType = iota
	TransitionInterrupt
	TransitionContinue
	TransitionSlide
	TransitionSlideInPattern
)

var Transitions = []string{"normal", "interrupt", "continue", "slide", "slide in pattern"}

// Vibrato is a vibrato preset. The custom vibrato follows the last preset.
type Vibrato struct {
	Name  string
	Depth float64
	Speed int
	Delay float64
	Type  int
}

var Vibratos = []Vibrato{
	{"none", 0, VibratoSpeedDefault, 0, 0},
	{"light", 0.15, VibratoSpeedDefault, 0, 0},
	{"delayed", 0.3, VibratoSpeedDefault, 37, 0},
	{"heavy", 0.45, VibratoSpeedDefault, 0, 0},
	{"shaky", 0.1, VibratoSpeedDefault, 0, 1},
}

// CustomVibrato is the vibrato setting whose parameters are stored explicitly.
var CustomVibrato = len(Vibratos)

var VibratoTypes = []string{"normal", "shaky"}

// Unison is a unison preset. The custom unison follows the last preset.
type Unison struct {
	Name       string
	Voices     int
	Spread     float64
	Offset     float64
	Expression float64
	Sign       float64
}

var Unisons = []Unison{
	{"none", 1, 0, 0, 1.4, 1},
	{"shimmer", 2, 0.018, 0, 0.8, 1},
	{"hum", 2, 0.045, 0, 1.3, 1},
	{"honky tonk", 2, 0.09, 0, 1.3, 1},
	{"dissonant", 2, 0.25, 0, 0.9, 1},
	{"fifth", 2, 3.5, 3.5, 0.9, 1},
	{"octave", 2, 6, 6, 0.8, 1},
	{"bowed", 2, 0.02, 0, 1, -1},
	{"piano", 2, 0.01, 0, 1, 0.7},
	{"warbled", 2, 0.25, 0.05, 0.9, -0.8},
	{"hecking gosh", 2, 6.25, -6, 0.8, -0.7},
	{"spinner", 2, 0.02, 0, 1, 1},
}

// CustomUnison is the unison setting whose parameters are stored explicitly.
var CustomUnison = len(Unisons)

var NoiseWaves = []string{
	"retro", "white", "clang", "buzz", "hollow", "shine", "deep", "cutter",
	"metallic", "static", "1-bit white", "1-bit metallic", "crackling",
	"pink noise", "brownian noise",
}

var OperatorFrequencies = []string{
	"0.12×", "0.25×", "0.5×", "0.75×", "1×", "~1×", "1.25×", "1.5×", "1.75×",
	"2×", "~2×", "2.25×", "2.5×", "2.75×", "3×", "3.25×", "3.5×", "3.75×",
	"4×", "~4×", "5×", "6×", "7×", "8×", "9×", "10×", "11×", "12×", "13×",
	"14×", "15×", "16×", "17×", "18×", "19×", "20×", "~20×", "25×", "50×",
	"75×", "100×", "128×", "250×",
}

// OperatorFrequencyDefault is the "1×" ratio.
const OperatorFrequencyDefault = 4

var OperatorWaves = []string{"sine", "triangle", "pulse width", "sawtooth", "ramp", "trapezoid", "quasi-sine"}

// OperatorWavePulseWidth is the operator wave that carries a pulse width.
const OperatorWavePulseWidth = 2

var OperatorPulseWidthNames = []string{"1%", "5%", "12.5%", "25%", "33%", "50%", "66%", "75%", "87.5%", "95%", "99%"}

const OperatorPulseWidthDefault = 5

var StringSustainTypes = []string{"bright", "acoustic"}

var LFOWaveforms = []string{"sine", "square", "triangle", "sawtooth", "trapezoid", "stepped saw", "stepped tri"}

// IsSteppedLFO reports whether an LFO waveform takes a step count.
func IsSteppedLFO(waveform int) bool {
	return waveform == 5 || waveform == 6
}

var RandomEnvelopeTypes = []string{"time", "pitch", "note", "time smooth"}

var ChipWaveLoopModes = []string{"loop", "ping-pong", "play once", "play loop once"}

// LegacyTempos are the tempos selectable by the earliest links.
var (
	LegacyTemposV3 = []int{95, 120, 151, 190}
	LegacyTemposV6 = []int{88, 95, 103, 111, 120, 130, 140, 151, 163, 176, 190, 206, 222, 240, 259}
	LegacyBeats    = []int{6, 7, 8, 9, 10}
)
