package codec

import "github.com/QEStudios/boxcodec/song"

// legacyArena holds one legacy settings accumulator per instrument, indexed
// by channel then instrument. Old links spread filter and envelope settings
// over several tags, so the pieces are collected here and converted together.
type legacyArena [][]*song.LegacySettings

// at returns the accumulator of an instrument, creating it on first use.
func (a *legacyArena) at(channel, instrument int) *song.LegacySettings {
	for len(*a) <= channel {
		*a = append(*a, nil)
	}
	row := (*a)[channel]
	for len(row) <= instrument {
		row = append(row, &song.LegacySettings{})
	}
	(*a)[channel] = row
	return row[instrument]
}

// legacyToCutoff and legacyToEnvelope translate the single filter slider of
// the earliest links into a cutoff and a filter envelope.
var (
	legacyToCutoff   = []int{10, 6, 3, 0, 8, 5, 2}
	legacyToEnvelope = []string{"none", "none", "none", "none", "decay 1", "decay 2", "decay 3"}
)

// oldestFilters maps the four filter choices of the first version onto
// legacyToCutoff.
var oldestFilters = []int{1, 3, 4, 5}

// legacyEffects maps the old combined vibrato/tremolo slider to a vibrato
// preset and a filter envelope.
var (
	legacyEffectVibratos  = []int{0, 3, 2, 0}
	legacyEffectEnvelopes = []string{"none", "none", "none", "tremolo2"}
)

// legacyTransition is an entry of the old transition list, which mixed the
// note transition with the fade in and release of the instrument.
type legacyTransition struct {
	transition    song.TransitionType
	fadeInSeconds float64
	fadeOutTicks  int
	// Notes at the start of a pattern continued the previous pattern's
	// notes.
	tiesOver bool
}

var legacyTransitions = []legacyTransition{
	{song.TransitionInterrupt, 0, -1, true}, // seamless
	{song.TransitionNormal, 0, -3, false},   // hard
	{song.TransitionNormal, 0.025, -3, false},
	{song.TransitionSlideInPattern, 0.025, -3, true},
	{song.TransitionNormal, 0.04, 6, false}, // cross fade
	{song.TransitionNormal, 0, 48, false},
	{song.TransitionNormal, 0.0125, 72, false},
	{song.TransitionNormal, 0.06, 96, false},
	{song.TransitionSlideInPattern, 0.025, -3, true},
}

// apply sets the fades and transition of ins.
func (t legacyTransition) apply(ins *song.Instrument) {
	ins.FadeIn = song.FadeInSetting(t.fadeInSeconds)
	ins.FadeOut = song.FadeOutSetting(t.fadeOutTicks)
	ins.Transition = t.transition
	if t.transition != song.TransitionNormal {
		ins.Effects = ins.Effects.With(song.EffectTransition)
	}
}

// legacyEffectMask covers the effects old links stored as a bit field
// without parameters.
const legacyEffectMask = song.Effects(1<<song.EffectReverb | 1<<song.EffectChorus | 1<<song.EffectPanning | 1<<song.EffectDistortion | 1<<song.EffectBitcrusher)

// legacyEnvelope maps an old envelope index onto LegacyEnvelopes.
func legacyEnvelope(v int, pregold bool) song.LegacyEnvelope {
	if pregold {
		return song.PregoldEnvelopes[clampInt(0, len(song.PregoldEnvelopes)-1, v)]
	}
	return song.LegacyEnvelope(clampInt(0, len(song.LegacyEnvelopes)-1, v))
}

// reset replaces an instrument's accumulator with an empty one.
func (a *legacyArena) reset(channel, instrument int) {
	*a.at(channel, instrument) = song.LegacySettings{}
}
