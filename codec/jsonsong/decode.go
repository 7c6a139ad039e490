package jsonsong

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
	"github.com/pkg/errors"
)

var ErrNotObject = errors.New("jsonsong: document is not a JSON object")

// WaveRegistry is the chip wave table the decoder resolves wave names
// against and registers the document's custom samples with.
type WaveRegistry interface {
	Sync(entries []string) []error
	WaveCount() int
	WaveIndex(name string) int
	WaveName(i int) string
}

// Decoder reads JSON documents. Missing or malformed fields keep their
// defaults and are reported through Warnings.
type Decoder struct {
	logger   *log.Logger
	waves    WaveRegistry
	warnings []string
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

// Warnings returns the problems found by the last Decode.
func (d *Decoder) Warnings() []string {
	return d.warnings
}

func (d *Decoder) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, msg)
	d.logger.Printf("warning: %s", msg)
}

// Decode reads a document. Only input that is not a JSON object fails.
func (d *Decoder) Decode(data []byte) (*song.Song, error) {
	d.warnings = nil
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "jsonsong: malformed document")
	}
	doc, ok := asObject(raw)
	if !ok {
		return nil, ErrNotObject
	}
	for _, problem := range validate(raw) {
		d.warnf("schema: %s", problem)
	}

	lin := detectLineage(doc)
	d.logger.Printf("JSON document in %s format", lin.format)
	st := &decodeState{d: d, doc: doc, lin: lin}
	return st.song(), nil
}

type decodeState struct {
	d            *Decoder
	doc          object
	lin          lineage
	s            *song.Song
	ticksPerBeat float64
}

func (st *decodeState) song() *song.Song {
	doc := st.doc
	s := &song.Song{}
	s.InitToDefault(false)
	st.s = s

	if name, ok := doc.str("name"); ok {
		s.Title = name
	}
	st.scale()
	if k, ok := parseKey(doc["key"]); ok {
		s.Key = k
	} else if doc.has("key") {
		st.d.warnf("unknown key %v", doc["key"])
	}
	s.Octave = doc.intIn("keyOctave", song.OctaveMin, song.OctaveMax, s.Octave)
	s.BeatsPerBar = doc.intIn("beatsPerBar", song.BeatsPerBarMin, song.BeatsPerBarMax, s.BeatsPerBar)
	s.Tempo = doc.intIn("beatsPerMinute", song.TempoMin, song.TempoMax, s.Tempo)
	s.Reverb = doc.intIn("reverb", 0, song.ReverbMax, s.Reverb)

	st.ticksPerBeat = float64(song.Rhythms[s.Rhythm].StepsPerBeat)
	if tpb, ok := doc.float("ticksPerBeat"); ok && tpb > 0 {
		st.ticksPerBeat = tpb
		if i := rhythmFor(int(math.Round(tpb))); i >= 0 {
			s.Rhythm = i
		}
	}

	l := &s.Limiter
	l.CompressionRatio = doc.floatIn("compressionRatio", 0, ratioMax, l.CompressionRatio)
	l.CompressionThreshold = doc.floatIn("compressionThreshold", 0, 1, l.CompressionThreshold)
	l.LimitRatio = doc.floatIn("limitRatio", 0, ratioMax, l.LimitRatio)
	l.LimitThreshold = doc.floatIn("limitThreshold", 0, 2, l.LimitThreshold)
	l.LimitDecay = doc.intIn("limitDecay", 1, song.LimitDecayMax, l.LimitDecay)
	l.LimitRise = doc.floatIn("limitRise", song.LimitRiseMin, song.LimitRiseMax, l.LimitRise)
	l.MasterGain = doc.floatIn("masterGain", 0, song.MasterGainMax, l.MasterGain)

	st.filter(&s.EqFilter, doc.array("songEq"))
	st.subFilters(doc, "songEq", &s.EqSubFilters)

	s.LayeredInstruments = doc.boolOr("layeredInstruments", false)
	s.PatternInstruments = doc.boolOr("patternInstruments", false)

	if doc.has("customSamples") {
		var entries []string
		for _, v := range doc.array("customSamples") {
			if entry, ok := v.(string); ok {
				entries = append(entries, entry)
			}
		}
		kept, errs := samples.Usable(entries)
		for _, err := range errs {
			st.d.warnf("skipping sample: %v", err)
		}
		s.CustomSamples = kept
		st.d.waves.Sync(kept)
	}

	st.channels()

	s.LoopStart = doc.intIn("introBars", 0, s.BarCount-1, 0)
	s.LoopLength = doc.intIn("loopBars", 1, s.BarCount-s.LoopStart, min(s.LoopLength, s.BarCount-s.LoopStart))
	return s
}

// Compression and limit ratios beyond this are indistinguishable.
const ratioMax = 10.0

func rhythmFor(stepsPerBeat int) int {
	for i, r := range song.Rhythms {
		if r.StepsPerBeat == stepsPerBeat {
			return i
		}
	}
	return -1
}

func (st *decodeState) scale() {
	s := st.s
	switch v := st.doc["scale"].(type) {
	case string:
		name := strings.ToLower(strings.TrimSpace(v))
		if renamed, ok := oldScaleNames[name]; ok {
			name = renamed
		}
		i := -1
		for j, sc := range song.Scales {
			if strings.EqualFold(sc.Name, name) {
				i = j
				break
			}
		}
		if i < 0 {
			st.d.warnf("unknown scale %q", v)
			break
		}
		s.Scale = i
	case float64:
		s.Scale = clamp(0, len(song.Scales)-1, int(math.Round(v)))
	}

	for i, v := range st.doc.array("customScale") {
		if i >= song.PitchesPerOctave {
			break
		}
		if b, ok := v.(bool); ok {
			s.ScaleCustom[i] = b
		}
	}
}

// parseKey accepts a key name such as "C♯", "Db" or "F#", or a semitone
// number counted from C.
func parseKey(v any) (int, bool) {
	switch k := v.(type) {
	case float64:
		n := int(math.Round(k)) % song.PitchesPerOctave
		return (n + song.PitchesPerOctave) % song.PitchesPerOctave, true
	case string:
		k = strings.TrimSpace(k)
		if i := nameIndex(song.Keys, k); i >= 0 {
			return i, true
		}
		if k == "" {
			return 0, false
		}
		letters := map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}
		n, ok := letters[strings.ToUpper(k[:1])[0]]
		if !ok {
			return 0, false
		}
		for _, r := range k[1:] {
			switch r {
			case '♯', '#':
				n++
			case '♭', 'b':
				n--
			default:
				return 0, false
			}
		}
		return (n + song.PitchesPerOctave) % song.PitchesPerOctave, true
	}
	return 0, false
}

func (st *decodeState) channels() {
	s := st.s
	type pending struct {
		obj object
		t   song.ChannelType
	}
	var chans []pending
	counts := map[song.ChannelType]int{}
	limits := map[song.ChannelType]int{
		song.PitchChannel: song.PitchChannelCountMax,
		song.NoiseChannel: song.NoiseChannelCountMax,
		song.ModChannel:   song.ModChannelCountMax,
	}
	bars, patterns := song.BarCountMin, song.PatternsPerChannelMin
	for i, v := range st.doc.array("channels") {
		o, ok := asObject(v)
		if !ok {
			st.d.warnf("channel %d is not an object", i)
			continue
		}
		t := song.PitchChannel
		if name, ok := o.str("type"); ok {
			switch idx := nameIndex(song.ChannelTypeNames, name); {
			case idx >= 0:
				t = song.ChannelType(idx)
			case strings.EqualFold(name, "noise"):
				t = song.NoiseChannel
			default:
				st.d.warnf("channel %d has unknown type %q", i, name)
			}
		}
		if counts[t] >= limits[t] {
			st.d.warnf("too many %s channels, dropping channel %d", t, i)
			continue
		}
		counts[t]++
		chans = append(chans, pending{o, t})
		bars = max(bars, len(o.array("sequence")))
		patterns = max(patterns, len(o.array("patterns")))
	}
	if counts[song.PitchChannel] == 0 {
		st.d.warnf("no pitch channel, adding one")
		chans = append([]pending{{object{}, song.PitchChannel}}, chans...)
	}

	s.BarCount = clamp(song.BarCountMin, song.BarCountMax, bars)
	s.PatternsPerChannel = clamp(song.PatternsPerChannelMin, song.PatternsPerChannelMax, patterns)
	types := make([]song.ChannelType, len(chans))
	for i, c := range chans {
		types[i] = c.t
	}
	s.SetChannelTypes(types)
	for i, c := range chans {
		st.channel(s.Channels[i], c.obj)
	}
}

func (st *decodeState) channel(ch *song.Channel, o object) {
	s := st.s
	if name, ok := o.str("name"); ok {
		ch.Name = name
	}
	if ch.Type == song.PitchChannel {
		ch.Octave = o.intIn("octaveScrollBar", 0, song.ChannelOctaveMax, ch.Octave)
	}

	instruments := o.array("instruments")
	n := clamp(song.InstrumentCountMin, s.MaxInstrumentsPerChannel(), len(instruments))
	if len(instruments) > n {
		st.d.warnf("dropping %d instruments past the limit of %d", len(instruments)-n, n)
	}
	s.SetInstrumentCount(ch, n)
	for i := 0; i < n && i < len(instruments); i++ {
		st.instrument(ch, ch.Instruments[i], instruments[i])
	}

	for i, v := range o.array("patterns") {
		if i >= len(ch.Patterns) {
			break
		}
		if p, ok := asObject(v); ok {
			st.pattern(ch, ch.Patterns[i], p)
		}
	}
	for i, b := range o.ints("sequence") {
		if i >= len(ch.Bars) {
			break
		}
		ch.Bars[i] = clamp(0, s.PatternsPerChannel, b)
	}
}

func (st *decodeState) pattern(ch *song.Channel, p *song.Pattern, o object) {
	s := st.s
	var ids []int
	switch {
	case o.has("instruments"):
		ids = o.ints("instruments")
	case o.has("instrument"):
		ids = []int{o.intIn("instrument", 1, len(ch.Instruments), 1)}
	}
	p.Instruments = nil
	seen := map[int]bool{}
	for _, id := range ids {
		id--
		if id < 0 || id >= len(ch.Instruments) || seen[id] || len(p.Instruments) >= s.MaxInstrumentsPerPattern(ch) {
			continue
		}
		seen[id] = true
		p.Instruments = append(p.Instruments, id)
	}
	if len(p.Instruments) == 0 {
		p.Instruments = []int{0}
	}

	maxPitch := song.MaxPitch
	switch ch.Type {
	case song.NoiseChannel:
		maxPitch = song.DrumCount - 1
	case song.ModChannel:
		maxPitch = song.ModCount - 1
	}
	barParts := s.BarParts()
	lastEnd := 0
	for i, v := range o.array("notes") {
		no, ok := asObject(v)
		if !ok {
			continue
		}
		n := st.note(ch, no, maxPitch)
		switch {
		case n == nil:
			st.d.warnf("skipping malformed note %d", i)
		case n.Start < lastEnd || n.End > barParts:
			st.d.warnf("skipping note %d outside the free part of the bar", i)
		default:
			p.Notes = append(p.Notes, n)
			lastEnd = n.End
		}
	}
}

func (st *decodeState) note(ch *song.Channel, o object, maxPitch int) *song.Note {
	var pitches []int
	for _, pitch := range o.ints("pitches") {
		pitch = clamp(0, maxPitch, pitch)
		dup := false
		for _, q := range pitches {
			dup = dup || q == pitch
		}
		if !dup {
			pitches = append(pitches, pitch)
		}
	}
	if len(pitches) == 0 {
		return nil
	}

	n := &song.Note{Pitches: pitches, ContinuesLastPattern: o.boolOr("continuesLastPattern", false)}
	prev := -1
	for _, v := range o.array("points") {
		po, ok := asObject(v)
		if !ok {
			continue
		}
		part := int(math.Round(po.floatOr("tick", 0) * song.PartsPerBeat / st.ticksPerBeat))
		if part <= prev {
			continue
		}
		if prev < 0 {
			n.Start = part
		}
		prev = part
		volume := po.floatOr("volume", 100)
		var size int
		if ch.Type == song.ModChannel {
			size = clamp(0, song.ModNoteSizeMax, int(math.Round(volume)))
		} else {
			size = clamp(0, song.NoteSizeMax, int(math.Round(volume*song.NoteSizeMax/100)))
		}
		n.Pins = append(n.Pins, song.NotePin{
			Interval: po.intIn("pitchBend", -song.MaxPitch, song.MaxPitch, 0),
			Time:     part - n.Start,
			Size:     size,
		})
	}
	if len(n.Pins) < 2 || n.Start < 0 {
		return nil
	}
	n.End = prev
	return n
}

func (st *decodeState) filter(f *song.FilterSettings, points []any) {
	f.Reset()
	for _, v := range points {
		p, ok := asObject(v)
		if !ok {
			continue
		}
		if len(f.ControlPoints) >= song.FilterMaxPoints {
			st.d.warnf("filter has more than %d points", song.FilterMaxPoints)
			break
		}
		t := song.LowPass
		if name, ok := p.str("type"); ok {
			if i := nameIndex(song.FilterTypes, name); i >= 0 {
				t = song.FilterType(i)
			}
		}
		freq := song.FilterFreqRange - 1
		if hz, ok := p.float("cutoffHz"); ok && hz > 0 {
			freq = song.FreqSettingFromHz(hz)
		}
		gain := song.FilterGainCenter
		if g, ok := p.float("linearGain"); ok && g > 0 {
			gain = song.GainSettingFromLinearGain(g)
		}
		f.AddPoint(t, freq, gain)
	}
}

func (st *decodeState) subFilters(o object, key string, subs *[song.FilterMorphCount - 1]*song.FilterSettings) {
	for i := range subs {
		k := fmt.Sprintf("%s%d", key, i+1)
		subs[i] = nil
		if !o.has(k) {
			continue
		}
		f := &song.FilterSettings{}
		st.filter(f, o.array(k))
		subs[i] = f
	}
}
