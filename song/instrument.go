package song

import "math"

type InstrumentType int

const (
	InstrumentChip InstrumentType = iota
	InstrumentFM
	InstrumentNoise
	InstrumentSpectrum
	InstrumentDrumset
	InstrumentHarmonics
	InstrumentPWM
	InstrumentPickedString
	InstrumentSupersaw
	InstrumentCustomChipWave
	InstrumentMod
	InstrumentFM6Op
	InstrumentTypeCount
)

var InstrumentTypeNames = []string{
	"chip", "FM", "noise", "spectrum", "drumset", "harmonics", "PWM",
	"Picked String", "supersaw", "custom chip", "mod", "FM6op",
}

func (t InstrumentType) String() string {
	if t < 0 || t >= InstrumentTypeCount {
		return "unknown"
	}
	return InstrumentTypeNames[t]
}

// IsFM reports whether the type is one of the operator based types.
func (t InstrumentType) IsFM() bool {
	return t == InstrumentFM || t == InstrumentFM6Op
}

// OperatorCount returns how many operators an FM type uses.
func (t InstrumentType) OperatorCount() int {
	if t == InstrumentFM6Op {
		return SixOperatorCount
	}
	return OperatorCount
}

type EffectType int

const (
	EffectReverb EffectType = iota
	EffectChorus
	EffectPanning
	EffectDistortion
	EffectBitcrusher
	EffectNoteFilter
	EffectEcho
	EffectPitchShift
	EffectDetune
	EffectVibrato
	EffectTransition
	EffectChord
	EffectRingModulation
	EffectGranular
	EffectTypeCount
)

var EffectNames = []string{
	"reverb", "chorus", "panning", "distortion", "bitcrusher", "note filter",
	"echo", "pitch shift", "detune", "vibrato", "transition type", "chord type",
	"ring modulation", "granular",
}

// Effects is a bitmask of enabled EffectTypes.
type Effects uint32

func (e Effects) Has(t EffectType) bool { return e&(1<<t) != 0 }

func (e Effects) With(t EffectType) Effects { return e | 1<<t }

func (e Effects) Without(t EffectType) Effects { return e &^ (1 << t) }

// Instrument holds every parameter of one instrument. Only the parameters
// relevant to Type and to the enabled Effects are stored in the compact form.
type Instrument struct {
	Type    InstrumentType
	Preset  int
	Volume  int // -VolumeRange/2 .. VolumeRange/2
	Effects Effects

	ChipWave                    int
	ChipNoise                   int
	IsUsingAdvancedLoopControls bool
	ChipWaveLoopStart           int
	ChipWaveLoopEnd             int
	ChipWaveLoopMode            int
	ChipWavePlayBackwards       bool
	ChipWaveStartOffset         int
	CustomChipWave              [ChipWaveLength]int

	EqFilter           FilterSettings
	EqFilterType       bool // true selects the simple cut/peak sliders
	EqFilterSimpleCut  int
	EqFilterSimplePeak int
	EqSubFilters       [FilterMorphCount - 1]*FilterSettings

	NoteFilter           FilterSettings
	NoteFilterType       bool
	NoteFilterSimpleCut  int
	NoteFilterSimplePeak int
	NoteSubFilters       [FilterMorphCount - 1]*FilterSettings

	Envelopes     []EnvelopeSettings
	EnvelopeSpeed int

	FadeIn              int
	FadeOut             int
	ClicklessTransition bool
	Transition          TransitionType

	Chord          ChordType
	ArpeggioSpeed  int
	FastTwoNoteArp bool
	MonoChordTone  int

	PitchShift int
	Detune     int

	Vibrato      int
	VibratoDepth float64
	VibratoSpeed int
	VibratoDelay float64
	VibratoType  int

	Unison           int
	UnisonVoices     int
	UnisonSpread     float64
	UnisonOffset     float64
	UnisonExpression float64
	UnisonSign       float64

	Distortion             int
	Aliases                bool
	BitcrusherFreq         int
	BitcrusherQuantization int
	Pan                    int
	PanDelay               int
	Chorus                 int
	EchoSustain            int
	EchoDelay              int
	Reverb                 int

	RingModulation       int
	RingModulationHz     int
	RingModWaveformIndex int
	RingModPulseWidth    int
	RingModHzOffset      int

	Granular     int
	GrainSize    int
	GrainAmounts int
	GrainRange   int

	PulseWidth       int
	DecimalOffset    int
	SupersawDynamism int
	SupersawSpread   int
	SupersawShape    int

	StringSustain     int
	StringSustainType int

	Algorithm         int
	FeedbackType      int
	FeedbackAmplitude int
	Algorithm6Op      int
	Feedback6Op       int
	CustomAlgorithm   Algorithm
	CustomFeedback    Feedback
	Operators         [SixOperatorCount]Operator

	Harmonics        [HarmonicsControlPoints]int
	Spectrum         [SpectrumControlPoints]int
	DrumsetEnvelopes [DrumCount]LegacyEnvelope
	DrumsetSpectra   [DrumCount][SpectrumControlPoints]int

	// Mod instruments only. A ModChannel of -1 targets the song, -2 nothing.
	ModChannels        [ModCount]int
	ModInstruments     [ModCount]int
	ModSettings        [ModCount]int
	ModFilterTypes     [ModCount]int
	ModEnvelopeNumbers [ModCount]int
}

// NewInstrument returns an instrument reset to the defaults of t.
func NewInstrument(t InstrumentType, isNoise, isMod bool) *Instrument {
	ins := &Instrument{}
	ins.Reset(t, isNoise, isMod)
	return ins
}

// Reset discards every setting and applies the defaults of t.
func (ins *Instrument) Reset(t InstrumentType, isNoise, isMod bool) {
	if isMod {
		t = InstrumentMod
	}
	*ins = Instrument{
		Type:                   t,
		Preset:                 int(t),
		Effects:                Effects(0).With(EffectPanning),
		Chorus:                 ChorusRange - 1,
		EchoSustain:            (EchoSustainRange - 1) / 2,
		EchoDelay:              (EchoDelayRange - 1) / 2,
		EqFilterSimpleCut:      FilterSimpleCutRange - 1,
		NoteFilterSimpleCut:    FilterSimpleCutRange - 1,
		Distortion:             (DistortionRange - 1) * 3 / 4,
		BitcrusherFreq:         (BitcrusherFreqRange - 1) / 2,
		BitcrusherQuantization: (BitcrusherQuantizationRange - 1) / 2,
		Pan:                    PanCenter,
		PanDelay:               PanDelayDefault,
		PitchShift:             PitchShiftCenter,
		Detune:                 DetuneCenter,
		StringSustain:          StringSustainDefault,
		ArpeggioSpeed:          ArpSpeedDefault,
		EnvelopeSpeed:          EnvelopeSpeedDefault,
		FadeOut:                FadeOutNeutral,
		RingModulation:         RingModRange / 2,
		RingModulationHz:       RingModHzDefault,
		RingModPulseWidth:      RingModPulseWidthMax / 2,
		Granular:               4,
		GrainSize:              120,
		GrainAmounts:           8,
		GrainRange:             40,
		Algorithm6Op:           SixOpDefault,
		Feedback6Op:            SixOpDefault,
		CustomAlgorithm:        AlgorithmFromPreset(SixOpDefault),
		CustomFeedback:         FeedbackFromPreset(SixOpDefault),
	}
	ins.SetVibrato(0)
	ins.SetUnison(0)
	for i := range ins.ModChannels {
		ins.ModChannels[i] = -2
	}

	switch t {
	case InstrumentChip:
		ins.ChipWave = 2
		ins.Chord = ChordArpeggio
	case InstrumentCustomChipWave:
		ins.ChipWave = 2
		ins.Chord = ChordArpeggio
		for i := range ins.CustomChipWave {
			ins.CustomChipWave[i] = CustomChipWaveMax - i*48/ChipWaveLength
		}
	case InstrumentFM, InstrumentFM6Op:
		ins.Chord = ChordCustomInterval
		for i := range ins.Operators {
			ins.Operators[i].reset(i)
		}
	case InstrumentNoise:
		ins.ChipNoise = 1
		ins.Chord = ChordArpeggio
	case InstrumentSpectrum:
		ins.Chord = ChordSimultaneous
		ins.Spectrum = DefaultSpectrum(isNoise)
	case InstrumentDrumset:
		ins.Chord = ChordSimultaneous
		for i := range ins.DrumsetEnvelopes {
			ins.DrumsetEnvelopes[i] = DrumsetEnvelopeDefault
			ins.DrumsetSpectra[i] = DefaultSpectrum(true)
		}
	case InstrumentHarmonics:
		ins.Chord = ChordSimultaneous
		ins.Harmonics = DefaultHarmonics()
	case InstrumentPWM:
		ins.Chord = ChordArpeggio
		ins.PulseWidth = PulseWidthRange
	case InstrumentPickedString:
		ins.Chord = ChordStrum
		ins.Harmonics = DefaultHarmonics()
	case InstrumentSupersaw:
		ins.Chord = ChordArpeggio
		ins.SupersawDynamism = SupersawDynamismMax
		ins.SupersawSpread = (SupersawSpreadMax + 1) / 2
		ins.PulseWidth = PulseWidthRange - 1
	case InstrumentMod:
		ins.Effects = 0
		ins.Chord = ChordSimultaneous
	}
	if ins.Chord != ChordSimultaneous {
		ins.Effects = ins.Effects.With(EffectChord)
	}
}

// SetVibrato selects a vibrato preset and copies its parameters.
func (ins *Instrument) SetVibrato(index int) {
	ins.Vibrato = index
	if index < len(Vibratos) {
		v := Vibratos[index]
		ins.VibratoDepth = v.Depth
		ins.VibratoSpeed = v.Speed
		ins.VibratoDelay = v.Delay
		ins.VibratoType = v.Type
	}
}

// SetUnison selects a unison preset and copies its parameters.
func (ins *Instrument) SetUnison(index int) {
	ins.Unison = index
	if index < len(Unisons) {
		u := Unisons[index]
		ins.UnisonVoices = u.Voices
		ins.UnisonSpread = u.Spread
		ins.UnisonOffset = u.Offset
		ins.UnisonExpression = u.Expression
		ins.UnisonSign = u.Sign
	}
}

// EqSubFilter returns the song EQ curve for a morph index. Index 0 is the
// primary filter.
func (ins *Instrument) EqSubFilter(i int) *FilterSettings {
	if i == 0 {
		return &ins.EqFilter
	}
	return ins.EqSubFilters[i-1]
}

// NoteSubFilter returns the note filter curve for a morph index.
func (ins *Instrument) NoteSubFilter(i int) *FilterSettings {
	if i == 0 {
		return &ins.NoteFilter
	}
	return ins.NoteSubFilters[i-1]
}

// AddEnvelope appends an envelope unless the instrument already has the maximum.
func (ins *Instrument) AddEnvelope(e EnvelopeSettings) {
	if len(ins.Envelopes) >= MaxEnvelopeCount {
		return
	}
	ins.Envelopes = append(ins.Envelopes, e)
}

// DefaultHarmonics returns the harmonics of a new instrument.
func DefaultHarmonics() [HarmonicsControlPoints]int {
	var h [HarmonicsControlPoints]int
	h[0] = HarmonicsMax
	h[3] = HarmonicsMax
	h[6] = HarmonicsMax
	return h
}

// DefaultSpectrum returns the spectrum of a new instrument.
func DefaultSpectrum(isNoise bool) [SpectrumControlPoints]int {
	var s [SpectrumControlPoints]int
	for i := range s {
		if isNoise {
			s[i] = int(math.Round(SpectrumMax / math.Sqrt(1+float64(i)/3)))
			continue
		}
		switch {
		case i == 0, i == 7, i == 11, i == 14, i == 16, i == 18, i == 21, i == 23, i >= 25:
			s[i] = max(0, int(math.Round(SpectrumMax*(1-float64(i)/30))))
		}
	}
	return s
}
