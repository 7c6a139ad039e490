package jsonsong

import (
	"math"
	"strings"

	"github.com/QEStudios/boxcodec/song"
)

// lineage is the family of editors a document came from. Families disagree
// on a few units, volume most of all.
type lineage struct {
	format string
	// percentVolume is set for BeepBox and ModBox documents, which store
	// instrument volume as a 0..100 percentage.
	percentVolume bool
	// simpleFilter is set for documents older than the advanced filters.
	// Legacy filter settings from them also set the simple filter sliders.
	simpleFilter bool
}

func detectLineage(doc object) lineage {
	format, _ := doc.str("format")
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == "auto" {
		switch {
		case doc.has("riff"):
			format = "modbox"
		case doc.has("masterGain"):
			format = "jummbox"
		default:
			format = "beepbox"
		}
	}
	// A missing version counts as the oldest.
	version := doc.intIn("version", 0, math.MaxInt32, 0)
	simple := format == "modbox" ||
		format == "beepbox" && version < 9 ||
		format == "jummbox" && version < 5
	return lineage{
		format:        format,
		percentVolume: format == "beepbox" || format == "modbox",
		simpleFilter:  simple,
	}
}

// Scale names changed over time; old documents still use these.
var oldScaleNames = map[string]string{
	"romani :)":       "double harmonic :)",
	"romani :(":       "double harmonic :(",
	"dbl harmonic :)": "double harmonic :)",
	"dbl harmonic :(": "double harmonic :(",
	"enigma":          "strange",
	"expert":          "free",
	"normal :)":       "major",
	"normal :(":       "minor",
	"easy :)":         "major pentatonic",
	"easy :(":         "minor pentatonic",
}

var oldChordNames = map[string]string{
	"harmony": "simultaneous",
}

// Before effects were a list, documents named one of these combinations.
var (
	legacyEffectNames = []string{"none", "reverb", "chorus", "chorus & reverb"}
	legacyEffectMasks = []song.Effects{
		0,
		song.Effects(0).With(song.EffectReverb),
		song.Effects(0).With(song.EffectChorus),
		song.Effects(0).With(song.EffectChorus).With(song.EffectReverb),
	}
)

// legacyTransitions are transitions that also implied a fade.
var legacyTransitions = []struct {
	name          string
	transition    song.TransitionType
	fadeInSeconds float64
	fadeOutTicks  int
}{
	{"binary", song.TransitionInterrupt, 0, -1},
	{"seamless", song.TransitionInterrupt, 0, -1},
	{"sudden", song.TransitionNormal, 0, -3},
	{"hard", song.TransitionNormal, 0, -3},
	{"smooth", song.TransitionNormal, 0.025, -3},
	{"soft", song.TransitionNormal, 0.025, -3},
	{"cross fade", song.TransitionNormal, 0.04, 6},
	{"hard fade", song.TransitionNormal, 0, 48},
	{"medium fade", song.TransitionNormal, 0.0125, 72},
	{"soft fade", song.TransitionNormal, 0.06, 96},
}

var wavePrefixes = []string{"modbox ", "sandbox "}

// legacyWaveNames are chip wave names from before the waves were renamed.
var legacyWaveNames = map[string]string{
	"pulse wide":   "1/4 pulse",
	"pulse narrow": "1/8 pulse",
	"plateau":      "rounded",
}

// collapseRepeats drops every letter that repeats the one before it. Some
// documents spell wave names with a doubled letter missing or added, and
// those spellings compare equal once collapsed.
func collapseRepeats(name string) string {
	var b strings.Builder
	var prev rune = -1
	for _, r := range name {
		if r != prev {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

// legacyEnvelope reads an envelope preset name from o[key].
func legacyEnvelope(o object, key string) (song.LegacyEnvelope, bool) {
	name, ok := o.str(key)
	if !ok {
		return 0, false
	}
	for i, p := range song.LegacyEnvelopes {
		if p.Name == name {
			return song.LegacyEnvelope(i), true
		}
	}
	return 0, false
}

const (
	legacyCutoffMax    = 10
	legacyResonanceMax = 7
)

// legacySettings converts the filter and envelope sliders of documents
// written before instruments carried an EQ and envelope list.
func (st *decodeState) legacySettings(o object, ins *song.Instrument, isNoise bool) {
	if o.has("eqFilter") || o.has("envelopes") {
		return
	}
	var legacy song.LegacySettings
	found := false
	if hz, ok := o.float("filterCutoffHz"); ok && hz > 0 {
		legacy.SetFilterCutoff(clamp(0, legacyCutoffMax, int(math.Round(10+2*math.Log2(hz/8000)))))
		found = true
	}
	if r, ok := o.float("filterResonance"); ok {
		legacy.SetFilterResonance(clamp(0, legacyResonanceMax, int(math.Round(r*legacyResonanceMax/100))))
		found = true
	}
	if env, ok := legacyEnvelope(o, "filterEnvelope"); ok {
		legacy.SetFilterEnvelope(env)
		found = true
	}
	if env, ok := legacyEnvelope(o, "pulseEnvelope"); ok {
		legacy.SetPulseEnvelope(env)
		found = true
	}
	if env, ok := legacyEnvelope(o, "feedbackEnvelope"); ok {
		legacy.SetFeedbackEnvelope(env)
		found = true
	}
	for _, v := range o.array("operators") {
		op, _ := asObject(v)
		env, ok := legacyEnvelope(op, "envelope")
		if !ok {
			env = song.LegacyEnvelopeNamed("none")
		} else {
			found = true
		}
		legacy.OperatorEnvelopes = append(legacy.OperatorEnvelopes, env)
	}
	if !found {
		return
	}
	ins.ConvertLegacySettings(&legacy, st.lin.simpleFilter, isNoise)
}
