package codec

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/QEStudios/boxcodec/codec/bitfield"
	"github.com/QEStudios/boxcodec/codec/jsonsong"
	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// WaveRegistry is the part of the chip wave table the decoder needs: it
// replaces the custom samples with the song's sample section and bounds
// chip wave indices.
type WaveRegistry interface {
	Sync(entries []string) []error
	WaveCount() int
	WaveIndex(name string) int
	WaveName(i int) string
}

// Decoder reads songs in the compact form of any supported version, or in
// the JSON form.
type Decoder struct {
	logger   *log.Logger
	waves    WaveRegistry
	warnings []Warning
}

// NewDecoder creates a decoder. A nil logger logs to log.Default() and a nil
// registry uses samples.Default().
func NewDecoder(logger *log.Logger, waves WaveRegistry) *Decoder {
	if logger == nil {
		logger = log.Default()
	}
	if waves == nil {
		waves = samples.Default()
	}
	return &Decoder{logger: logger, waves: waves}
}

// Warnings returns the non-fatal problems found by the last Decode.
func (d *Decoder) Warnings() []Warning {
	return d.warnings
}

// Decode reads a song. Empty input and versions that cannot be read yield the
// default song. Structural problems such as unknown tags or a truncated
// stream are returned as errors with no song.
func (d *Decoder) Decode(data string) (*song.Song, error) {
	d.warnings = nil
	data = strings.TrimSpace(data)
	data = strings.TrimPrefix(data, "#")
	if data == "" {
		return song.New(), nil
	}
	if data[0] == '{' {
		return d.decodeJSON(data)
	}

	v, pos, ok := DetectVersion(data, 0)
	if !ok {
		d.logger.Printf("%s is not supported, using the default song", v)
		return song.New(), nil
	}
	d.logger.Printf("%s detected", v)

	body := data
	var entries []string
	if i := strings.IndexByte(data, sampleSeparator); i >= 0 {
		body = data[:i]
		entries = d.sampleEntries(data[i+1:], i+1)
	}

	st := &decodeState{
		log:        d.logger,
		waves:      d.waves,
		src:        body,
		pos:        pos,
		c:          newCompat(v),
		song:       song.New(),
		instrument: -1,
		tieOver:    map[[2]int]bool{},
		songReverb: songReverbSlot{slot: -1},
	}
	st.song.CustomSamples = entries
	if st.c.bb || st.c.jbBefore2 {
		st.song.SetChannelLayout(3, 1, 0)
	}

	for st.err == nil && st.pos < len(st.src) {
		st.tagPos = st.pos
		tag := st.src[st.pos]
		st.pos++
		st.tag = tag
		st.dispatch(tag)
	}
	if st.err == nil {
		st.finalize()
	}
	d.warnings = append(d.warnings, st.warnings...)
	for _, w := range d.warnings {
		d.logger.Println(w)
	}
	if st.err != nil {
		d.logger.Printf("decode stopped:\n%s", spew.Sdump(st.cursor()))
		return nil, st.err
	}
	return st.song, nil
}

// sampleEntries percent-decodes the sample section and hands it to the
// registry. Entries without a wave slot of their own are dropped with a
// warning.
func (d *Decoder) sampleEntries(section string, pos int) []string {
	var entries []string
	for _, raw := range strings.Split(section, string(sampleSeparator)) {
		if raw == "" {
			pos++
			continue
		}
		entry, err := unescapeComponent(raw)
		if err != nil {
			d.warnings = append(d.warnings, Warning{Pos: pos, Message: err.Error()})
			entry = raw
		}
		entries = append(entries, entry)
		pos += len(raw) + 1
	}
	kept, errs := samples.Usable(entries)
	for _, err := range errs {
		d.warnings = append(d.warnings, Warning{Pos: pos, Message: "skipping sample: " + err.Error()})
	}
	d.waves.Sync(kept)
	return kept
}

func (d *Decoder) decodeJSON(data string) (*song.Song, error) {
	jd := jsonsong.NewDecoder(d.logger, d.waves)
	s, err := jd.Decode([]byte(data))
	for _, w := range jd.Warnings() {
		d.warnings = append(d.warnings, Warning{Message: w})
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

type songReverbSlot struct {
	channel, instrument, slot int
}

// decodeState is the cursor of one Decode call.
type decodeState struct {
	log   *log.Logger
	waves WaveRegistry
	src   string
	pos   int
	c     compat
	song  *song.Song

	tag    byte
	tagPos int

	// The instrument that instrument tags apply to. Instruments are not
	// numbered in the stream; each 'T' moves to the next one.
	channel, instrument int

	legacy  legacyArena
	tieOver map[[2]int]bool

	slowerArp          bool
	fastTwoNoteArp     bool
	legacyGlobalReverb int
	songReverb         songReverbSlot

	warnings []Warning
	err      error
}

// cursor is what gets dumped when decoding fails.
type cursor struct {
	Version    Version
	Tag        string
	TagPos     int
	Pos        int
	Channel    int
	Instrument int
	Channels   []song.ChannelType
}

func (st *decodeState) cursor() cursor {
	c := cursor{
		Version:    st.c.Version,
		Tag:        string(st.tag),
		TagPos:     st.tagPos,
		Pos:        st.pos,
		Channel:    st.channel,
		Instrument: st.instrument,
	}
	for _, ch := range st.song.Channels {
		c.Channels = append(c.Channels, ch.Type)
	}
	return c
}

// fail records the first structural error. Later reads return zero values.
func (st *decodeState) fail(err error) {
	if st.err == nil {
		st.err = err
	}
}

func (st *decodeState) failf(format string, args ...any) {
	st.fail(errors.Errorf("tag %q at %d: "+format, append([]any{st.tag, st.tagPos}, args...)...))
}

func (st *decodeState) warnf(format string, args ...any) {
	st.warnings = append(st.warnings, Warning{Pos: st.tagPos, Message: fmt.Sprintf(format, args...)})
}

func (st *decodeState) streamError(err error) error {
	if errors.Is(err, bitfield.ErrOverrun) {
		return errors.Wrapf(ErrTruncated, "tag %q at %d", st.tag, st.tagPos)
	}
	return errors.Wrapf(err, "tag %q at %d", st.tag, st.tagPos)
}

// read consumes one symbol.
func (st *decodeState) read() int {
	if st.err != nil {
		return 0
	}
	if st.pos >= len(st.src) {
		st.fail(errors.Wrapf(ErrTruncated, "tag %q at %d", st.tag, st.tagPos))
		return 0
	}
	v := bitfield.Value(st.src[st.pos])
	if v < 0 {
		st.fail(errors.Wrapf(ErrInvalidSymbol, "%q at %d", st.src[st.pos], st.pos))
		return 0
	}
	st.pos++
	return v
}

func (st *decodeState) read2() int {
	return st.readN(2)
}

// readN consumes n symbols as one number, most significant first.
func (st *decodeState) readN(n int) int {
	v := 0
	for i := 0; i < n; i++ {
		v = v<<6 | st.read()
	}
	return v
}

func (st *decodeState) flag() bool {
	return st.read() == 1
}

// peek returns the next raw byte without consuming it, or 0 at the end.
func (st *decodeState) peek() byte {
	if st.err != nil || st.pos >= len(st.src) {
		return 0
	}
	return st.src[st.pos]
}

// text reads a length prefixed, percent encoded string.
func (st *decodeState) text() string {
	n := st.read2()
	if st.err != nil {
		return ""
	}
	if st.pos+n > len(st.src) {
		st.fail(errors.Wrapf(ErrTruncated, "tag %q at %d", st.tag, st.tagPos))
		return ""
	}
	raw := st.src[st.pos : st.pos+n]
	st.pos += n
	s, err := unescapeComponent(raw)
	if err != nil {
		st.warnf("keeping undecodable text %q", raw)
		return raw
	}
	return s
}

func (st *decodeState) channelAt(ci int) (*song.Channel, bool) {
	if st.err != nil {
		return nil, false
	}
	if ci < 0 || ci >= len(st.song.Channels) {
		st.failf("channel %d of %d", ci, len(st.song.Channels))
		return nil, false
	}
	return st.song.Channels[ci], true
}

// current returns the instrument selected by the last 'T'.
func (st *decodeState) current() (*song.Channel, *song.Instrument, bool) {
	if st.err != nil {
		return nil, nil, false
	}
	if st.instrument < 0 || st.channel >= len(st.song.Channels) ||
		st.instrument >= len(st.song.Channels[st.channel].Instruments) {
		st.failf("instrument field before any instrument")
		return nil, nil, false
	}
	ch := st.song.Channels[st.channel]
	return ch, ch.Instruments[st.instrument], true
}

// eachTarget calls fn for every instrument an old per-instrument field
// applies to. The oldest links name one channel, later ones store a value
// for every channel at once, and from then on the field belongs to the
// current instrument.
func (st *decodeState) eachTarget(fn func(ch *song.Channel, ci, ii int, ins *song.Instrument)) {
	switch {
	case st.c.bbBefore3:
		ci := st.read()
		if ch, ok := st.channelAt(ci); ok {
			fn(ch, ci, 0, ch.Instruments[0])
		}
	case st.c.bbBefore6:
		for ci, ch := range st.song.Channels {
			for ii, ins := range ch.Instruments {
				if st.err != nil {
					return
				}
				fn(ch, ci, ii, ins)
			}
		}
	default:
		if ch, ins, ok := st.current(); ok {
			fn(ch, st.channel, st.instrument, ins)
		}
	}
}

// convertLegacy rebuilds an instrument's filters and envelopes from its
// accumulated legacy settings.
func (st *decodeState) convertLegacy(ch *song.Channel, ci, ii int, ins *song.Instrument) {
	if ins.Type == song.InstrumentMod {
		return
	}
	ins.ConvertLegacySettings(st.legacy.at(ci, ii), st.c.forceSimpleFilter, ch.Type == song.NoiseChannel)
}

type strategy struct {
	when  func(c *compat) bool
	parse func(st *decodeState)
}

func always(*compat) bool { return true }

// dispatch runs the first strategy of the tag whose condition holds.
func (st *decodeState) dispatch(tag byte) {
	for _, s := range strategies[tag] {
		if s.when(&st.c) {
			s.parse(st)
			return
		}
	}
	st.fail(errors.WithStack(&TagError{Tag: tag, Pos: st.tagPos}))
}

// strategies lists, per tag, the layouts it had over time, most specific
// first.
var strategies = map[byte][]strategy{
	tagSongTitle:       {{always, (*decodeState).songTitle}},
	tagChannelCount:    {{always, (*decodeState).channelCount}},
	tagScale:           {{always, (*decodeState).scale}},
	tagKey:             {{always, (*decodeState).key}},
	tagLoopStart:       {{always, (*decodeState).loopStart}},
	tagLoopEnd:         {{always, (*decodeState).loopEnd}},
	tagTempo:           {{always, (*decodeState).tempo}},
	tagReverb:          {{always, (*decodeState).reverb}},
	tagBeatCount:       {{always, (*decodeState).beatCount}},
	tagBarCount:        {{always, (*decodeState).barCount}},
	tagPatternCount:    {{always, (*decodeState).patternCount}},
	tagRhythm:          {{always, (*decodeState).rhythm}},
	tagLimiter:         {{func(c *compat) bool { return c.limiter }, (*decodeState).limiter}},
	tagChannelNames:    {{always, (*decodeState).channelNames}},
	tagInstrumentCount: {{always, (*decodeState).instrumentCount}},
	tagChannelOctave:   {{always, (*decodeState).channelOctave}},
	tagBars:            {{always, (*decodeState).bars}},
	tagPatterns:        {{always, (*decodeState).patterns}},
	tagSongEq: {
		{func(c *compat) bool { return c.songEq }, (*decodeState).songEq},
		{func(c *compat) bool { return c.bbBefore7 }, (*decodeState).legacyEffect},
		{func(c *compat) bool { return c.bbBefore9 }, (*decodeState).legacyVibrato},
	},

	tagStartInstrument: {{always, (*decodeState).startInstrument}},
	tagVolume:          {{always, (*decodeState).volume}},
	tagPreset:          {{always, (*decodeState).preset}},
	tagWave:            {{always, (*decodeState).wave}},
	tagEqFilter: {
		{func(c *compat) bool { return c.bbBefore7 }, (*decodeState).legacyFilterChoice},
		{func(c *compat) bool { return c.legacySettings }, (*decodeState).legacyFilterCutoff},
		{always, (*decodeState).eqFilter},
	},
	tagFilterResonance: {{always, (*decodeState).legacyFilterResonance}},
	tagDrumsetEnvelopes: {{always, (*decodeState).drumsetEnvelopes}},
	tagFadeInOut: {
		{func(c *compat) bool { return c.bbBefore9 }, (*decodeState).legacyTransition},
		{func(c *compat) bool { return c.legacySettings }, (*decodeState).legacyTransitionTieOver},
		{always, (*decodeState).fadeInOut},
	},
	tagEffects: {
		{func(c *compat) bool { return c.bbBefore9 }, (*decodeState).legacyEffectPreset},
		{func(c *compat) bool { return c.legacySettings }, (*decodeState).legacyEffects},
		{always, (*decodeState).effects},
	},
	tagChord:            {{always, (*decodeState).chord}},
	tagDetune:           {{always, (*decodeState).detune}},
	tagPan:              {{always, (*decodeState).pan}},
	tagArpeggioSpeed:    {{always, (*decodeState).arpeggioSpeed}},
	tagAliases:          {{func(c *compat) bool { return c.legacyDecimalOffset }, (*decodeState).legacyDecimalOffsetTag}, {always, (*decodeState).aliases}},
	tagFeedbackEnvelope: {{always, (*decodeState).feedbackEnvelope}},
	tagPulseWidth: {
		{func(c *compat) bool { return c.legacySettings }, (*decodeState).legacyPulseWidth},
		{always, (*decodeState).pulseWidth},
	},
	tagStringSustain:       {{always, (*decodeState).stringSustain}},
	tagHarmonics:           {{always, (*decodeState).harmonics}},
	tagSpectrum:            {{always, (*decodeState).spectrum}},
	tagAlgorithm:           {{always, (*decodeState).algorithm}},
	tagFeedbackType:        {{always, (*decodeState).feedbackType}},
	tagFeedbackAmplitude:   {{always, (*decodeState).feedbackAmplitude}},
	tagOperatorFrequencies: {{always, (*decodeState).operatorFrequencies}},
	tagOperatorAmplitudes:  {{always, (*decodeState).operatorAmplitudes}},
	tagOperatorWaves:       {{always, (*decodeState).operatorWaves}},
	tagCustomChipWave:      {{always, (*decodeState).customChipWave}},
	tagSupersaw:            {{always, (*decodeState).supersaw}},
	tagLoopControls:        {{func(c *compat) bool { return c.chipLoopControls }, (*decodeState).loopControls}},
	tagUnison:              {{always, (*decodeState).unison}},
	tagEnvelopes: {
		{func(c *compat) bool { return c.legacySettings }, (*decodeState).operatorEnvelopes},
		{func(c *compat) bool { return c.modernEnvelopes }, (*decodeState).envelopes},
		{always, (*decodeState).presetEnvelopes},
	},
}

// unescapeComponent reverses escapeComponent.
func unescapeComponent(s string) (string, error) {
	return url.PathUnescape(s)
}

func clampInt(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
