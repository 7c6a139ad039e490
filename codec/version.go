package codec

import (
	"fmt"

	"github.com/QEStudios/boxcodec/codec/bitfield"
)

// Lineage identifies the family of editors that produced a link. Each
// lineage numbers its versions independently.
type Lineage int

const (
	BeepBox Lineage = iota
	JummBox
	GoldBox
	UltraBox
	SlarmoosBox
)

type lineageInfo struct {
	name   string
	prefix byte // 0 when the lineage has no variant character
	oldest int
	latest int
}

var lineages = []lineageInfo{
	BeepBox:     {"BeepBox", 0, 2, 9},
	JummBox:     {"JummBox", 'j', 1, 6},
	GoldBox:     {"GoldBox", 'g', 1, 4},
	UltraBox:    {"UltraBox", 'u', 1, 5},
	SlarmoosBox: {"Slarmoo's Box", 's', 1, 4},
}

func (l Lineage) String() string {
	if l < 0 || int(l) >= len(lineages) {
		return "unknown"
	}
	return lineages[l].name
}

// Oldest is the first version of the lineage that can still be read.
func (l Lineage) Oldest() int { return lineages[l].oldest }

// Latest is the newest version of the lineage.
func (l Lineage) Latest() int { return lineages[l].latest }

// Prefix is the variant character written before the version symbol.
func (l Lineage) Prefix() byte { return lineages[l].prefix }

// Version is the (lineage, version) pair at the start of a link.
type Version struct {
	Lineage Lineage
	Number  int
}

// Current is the version written by the encoder.
var Current = Version{SlarmoosBox, 4}

func (v Version) String() string {
	return fmt.Sprintf("%s version %d", v.Lineage, v.Number)
}

// Before reports whether v is a version of l older than n.
func (v Version) Before(l Lineage, n int) bool {
	return v.Lineage == l && v.Number < n
}

// AtLeast reports whether v is version n of l or newer.
func (v Version) AtLeast(l Lineage, n int) bool {
	return v.Lineage == l && v.Number >= n
}

// Supported reports whether the version lies in the lineage's readable range.
func (v Version) Supported() bool {
	return v.Lineage >= 0 && int(v.Lineage) < len(lineages) &&
		v.Number >= v.Lineage.Oldest() && v.Number <= v.Lineage.Latest()
}

// DetectVersion reads the optional variant character and the version symbol
// starting at pos. It returns the version, the position after it and whether
// the version can be decoded. Links without a variant character are BeepBox
// links.
func DetectVersion(data string, pos int) (Version, int, bool) {
	v := Version{Lineage: BeepBox, Number: -1}
	if pos < len(data) {
		for l := range lineages {
			if p := lineages[l].prefix; p != 0 && data[pos] == p {
				v.Lineage = Lineage(l)
				pos++
				break
			}
		}
	}
	if pos >= len(data) {
		return v, pos, false
	}
	v.Number = bitfield.Value(data[pos])
	pos++
	return v, pos, v.Supported()
}

// compat holds every version dependent decision of the decoder. Field
// parsers consult these flags and never compare version numbers themselves.
type compat struct {
	Version

	bb, jb, gb, ub, sb bool

	bbBefore3, bbBefore4, bbBefore5, bbBefore6, bbBefore7, bbBefore8, bbBefore9 bool
	jbBefore2, jbBefore3, jbBefore4, jbBefore5, jbBefore6                       bool
	gbBefore2, gbBefore3, gbBefore4                                             bool
	ubBefore2, ubBefore3, ubBefore4, ubBefore5                                  bool
	sbBefore2, sbBefore3, sbBefore4                                             bool

	// Instruments keep separate filter and envelope sliders that are
	// collected and converted.
	legacySettings bool
	// Converted filters are exposed through the simple cut/peak sliders.
	forceSimpleFilter bool
	// Old mod channel encoding: narrow instrument indices, legacy filter
	// modulators and song reverb.
	jumfive bool
	// Tempo modulator values are relative to the old minimum tempo.
	tempoModCorrection bool
	// Old rhythms imply a slower or two note arpeggio.
	arpFromRhythm bool
	// Note lengths are in rhythm steps instead of parts.
	legacyPartDuration bool
	// Chords of up to 9 pitches and a 16 pitch recent window.
	largerChords bool
	// Note sizes are stored in two bits and doubled.
	twoBitNoteSize bool
	// Every channel has an octave symbol.
	octaveAllChannels bool
	// Key index counts downwards.
	keyReversed bool
	// Key and octave share one symbol.
	combinedKey bool
	// Key is followed by an octave symbol.
	keyOctave bool
	// Channel counts include mod channels.
	modChannelCount bool
	// Channel count tag stores a total plus a type per channel.
	typedChannels bool
	// Instrument types were numbered before picked strings existed.
	typeShiftTwo bool
	// Instrument types were numbered before supersaw existed.
	typeShiftOne bool
	// Chip waves from before aliasing was an option.
	antiAliasing bool
	// Effects of an instrument are only the chord type.
	effectsFromChord bool
	// The eq filter starts with a simple/advanced symbol.
	filterTypeCheck bool
	// Filters are followed by a bit field of morph sub-filters.
	subFilters bool
	// The 'c' tag holds the song eq instead of vibrato.
	songEq bool
	// The effects bit field takes three symbols.
	threeSymbolEffects bool
	// Chip waves beyond index 62 use an escape counter.
	extendedChipWave bool
	chipLoopControls bool
	ringModulation   bool
	granular         bool
	monoChordTone    bool
	// Pan is followed by pan delay.
	panDelay bool
	// The 'L' pan tag carries a pan delay.
	legacyPanDelay bool
	// Arpeggio speed is stored in the chord effect.
	arpSpeed bool
	// Distortion is followed by an aliasing flag.
	aliasesInDistortion bool
	// Vibrato may store custom parameters.
	customVibrato bool
	// Unison may store custom parameters.
	customUnison bool
	// Envelopes carry an instrument wide speed and discrete flag.
	envelopeSpeed bool
	// Envelopes are stored as shape and parameters instead of presets.
	modernEnvelopes bool
	// Envelope preset indices predate the GoldBox preset list.
	pregoldEnvelopes bool
	// Supersaw and pulse width carry a decimal offset.
	decimalOffset bool
	// The 'X' tag holds a decimal offset instead of aliasing.
	legacyDecimalOffset bool
	// FM frequency indices from before the frequency list was extended.
	fmFreqGold3 bool
	fmFreqUltra bool
	// Fade in/out is followed by a clickless transition symbol.
	clicklessSymbol bool
	// Tie-over flag of old instruments becomes continuesLastPattern.
	legacyTieOver bool
	// Limiter settings exist.
	limiter bool
	// Drumset envelopes are stored as pregold preset indices.
	pregoldDrumset bool
	// Operator waves may be followed by an operator pulse width.
	operatorPulseWidth bool
}

func newCompat(v Version) compat {
	c := compat{Version: v}
	c.bb = v.Lineage == BeepBox
	c.jb = v.Lineage == JummBox
	c.gb = v.Lineage == GoldBox
	c.ub = v.Lineage == UltraBox
	c.sb = v.Lineage == SlarmoosBox

	c.bbBefore3 = v.Before(BeepBox, 3)
	c.bbBefore4 = v.Before(BeepBox, 4)
	c.bbBefore5 = v.Before(BeepBox, 5)
	c.bbBefore6 = v.Before(BeepBox, 6)
	c.bbBefore7 = v.Before(BeepBox, 7)
	c.bbBefore8 = v.Before(BeepBox, 8)
	c.bbBefore9 = v.Before(BeepBox, 9)
	c.jbBefore2 = v.Before(JummBox, 2)
	c.jbBefore3 = v.Before(JummBox, 3)
	c.jbBefore4 = v.Before(JummBox, 4)
	c.jbBefore5 = v.Before(JummBox, 5)
	c.jbBefore6 = v.Before(JummBox, 6)
	c.gbBefore2 = v.Before(GoldBox, 2)
	c.gbBefore3 = v.Before(GoldBox, 3)
	c.gbBefore4 = v.Before(GoldBox, 4)
	c.ubBefore2 = v.Before(UltraBox, 2)
	c.ubBefore3 = v.Before(UltraBox, 3)
	c.ubBefore4 = v.Before(UltraBox, 4)
	c.ubBefore5 = v.Before(UltraBox, 5)
	c.sbBefore2 = v.Before(SlarmoosBox, 2)
	c.sbBefore3 = v.Before(SlarmoosBox, 3)
	c.sbBefore4 = v.Before(SlarmoosBox, 4)

	c.legacySettings = c.bbBefore9 || c.jbBefore5 || c.gbBefore4
	c.forceSimpleFilter = c.bbBefore9 || c.jbBefore5
	c.jumfive = c.jbBefore5 || c.gbBefore4
	c.tempoModCorrection = c.jb
	c.arpFromRhythm = c.bb || c.jbBefore3
	c.legacyPartDuration = c.bbBefore7
	c.largerChords = !(c.bb || c.jbBefore4)
	c.twoBitNoteSize = c.bb
	c.octaveAllChannels = c.bbBefore9 || c.jbBefore5 || c.gbBefore4
	c.keyReversed = c.bbBefore7
	c.combinedKey = c.gb || c.ubBefore3
	c.keyOctave = (c.ub && !c.ubBefore3) || c.sb
	c.modChannelCount = !c.bb && !c.jbBefore2
	c.typedChannels = c.sb
	c.typeShiftTwo = c.jbBefore5 || c.gbBefore4
	c.typeShiftOne = !c.typeShiftTwo && (c.jbBefore6 || c.gb || c.ubBefore5)
	c.antiAliasing = c.jbBefore5 || c.gbBefore4
	c.effectsFromChord = c.bbBefore7
	c.filterTypeCheck = c.ub || c.sb
	c.subFilters = c.ub || c.sb
	c.songEq = (c.ub && !c.ubBefore5) || c.sb
	c.threeSymbolEffects = c.sb
	c.extendedChipWave = c.ub || c.sb
	c.chipLoopControls = (c.ub && !c.ubBefore3) || c.sb
	c.ringModulation = (c.ub && !c.ubBefore4) || c.sb
	c.granular = c.sb
	c.monoChordTone = c.sb && !c.sbBefore3
	c.panDelay = !c.bb
	c.legacyPanDelay = (c.jb && !c.jbBefore3) || c.gb
	c.arpSpeed = !c.bb
	c.aliasesInDistortion = !c.bb && !c.jumfive
	c.customVibrato = !c.bb
	c.customUnison = c.ub || c.sb
	c.envelopeSpeed = (c.jb && !c.jbBefore6) || (c.gb && !c.gbBefore4) || c.ub || c.sb
	c.modernEnvelopes = c.sb
	c.pregoldEnvelopes = c.bb || c.jb || c.gbBefore2
	c.pregoldDrumset = c.bb || c.jb || c.gbBefore2
	c.decimalOffset = (c.ub && !c.ubBefore4) || c.sb
	c.legacyDecimalOffset = c.ub && c.ubBefore4
	c.fmFreqGold3 = c.gbBefore3
	c.fmFreqUltra = c.bb || c.jb
	c.clicklessSymbol = !c.bb
	c.legacyTieOver = c.jb && c.Number == 4
	c.limiter = (c.jb && !c.jbBefore5) || c.gb || c.ub || c.sb
	c.operatorPulseWidth = c.ub || c.sb
	return c
}
