package codec

import (
	"math"
	"net/url"
	"strings"

	"github.com/QEStudios/boxcodec/codec/bitfield"
	"github.com/QEStudios/boxcodec/song"
	"github.com/pkg/errors"
)

// Encode writes s in the compact form of the current version. Only the
// current version is ever written.
func Encode(s *song.Song) (string, error) {
	e := &encoder{song: s, buf: make([]byte, 0, 1024)}
	if err := e.encode(); err != nil {
		return "", err
	}
	return string(e.buf), nil
}

type encoder struct {
	song *song.Song
	buf  []byte
}

func (e *encoder) tag(t byte) {
	e.buf = append(e.buf, t)
}

// sym writes v as one symbol.
func (e *encoder) sym(v int) {
	e.buf = append(e.buf, bitfield.Symbol(v))
}

// sym2 writes v as two symbols, most significant first.
func (e *encoder) sym2(v int) {
	e.buf = append(e.buf, bitfield.Symbol(v>>6), bitfield.Symbol(v))
}

// symN writes v as n symbols, most significant first.
func (e *encoder) symN(n, v int) {
	for i := n - 1; i >= 0; i-- {
		e.buf = append(e.buf, bitfield.Symbol(v>>(6*i)))
	}
}

func (e *encoder) flag(b bool) {
	if b {
		e.sym(1)
	} else {
		e.sym(0)
	}
}

// text writes a length prefixed, percent encoded string.
func (e *encoder) text(s string) {
	escaped := escapeComponent(s)
	e.sym2(len(escaped))
	e.buf = append(e.buf, escaped...)
}

func (e *encoder) bits(w *bitfield.Writer) {
	e.buf = w.EncodeBase64(e.buf)
}

// componentMarks are the characters links keep literal although query
// escaping encodes them.
var componentMarks = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// escapeComponent percent encodes everything but unreserved characters and
// the marks !'()*.
func escapeComponent(s string) string {
	return componentMarks.Replace(url.QueryEscape(s))
}

func (e *encoder) encode() error {
	s := e.song
	if len(s.Channels) == 0 {
		return errors.New("song has no channels")
	}

	e.buf = append(e.buf, Current.Lineage.Prefix())
	e.sym(Current.Number)

	e.tag(tagSongTitle)
	e.text(s.Title)

	e.tag(tagChannelCount)
	e.sym2(len(s.Channels))
	for _, ch := range s.Channels {
		e.sym(int(ch.Type))
	}

	e.tag(tagScale)
	e.sym(s.Scale)
	if s.Scale == song.CustomScale {
		for i := 1; i < song.PitchesPerOctave; i++ {
			e.flag(s.ScaleCustom[i])
		}
	}

	e.tag(tagKey)
	e.sym(s.Key)
	e.sym(s.Octave - song.OctaveMin)

	e.tag(tagLoopStart)
	e.sym2(s.LoopStart)
	e.tag(tagLoopEnd)
	e.sym2(s.LoopLength - 1)
	e.tag(tagTempo)
	e.sym2(s.Tempo)
	e.tag(tagBeatCount)
	e.sym(s.BeatsPerBar - 1)
	e.tag(tagBarCount)
	e.sym2(s.BarCount - 1)
	e.tag(tagPatternCount)
	e.sym2(s.PatternsPerChannel - 1)
	e.tag(tagRhythm)
	e.sym(s.Rhythm)

	e.tag(tagLimiter)
	e.limiter(s.Limiter)

	e.tag(tagSongEq)
	e.filter(&s.EqFilter)
	e.subFilters(&s.EqSubFilters)

	e.tag(tagChannelNames)
	for _, ch := range s.Channels {
		e.text(ch.Name)
	}

	e.tag(tagInstrumentCount)
	flags := 0
	if s.LayeredInstruments {
		flags |= 1 << 1
	}
	if s.PatternInstruments {
		flags |= 1
	}
	e.sym(flags)
	if flags != 0 {
		for _, ch := range s.Channels {
			e.sym(len(ch.Instruments) - song.InstrumentCountMin)
		}
	}

	e.tag(tagChannelOctave)
	for _, ch := range s.Channels {
		if ch.Type == song.PitchChannel {
			e.sym(ch.Octave)
		}
	}

	for _, ch := range s.Channels {
		for _, ins := range ch.Instruments {
			if err := e.instrument(ch, ins); err != nil {
				return err
			}
		}
	}

	e.tag(tagBars)
	e.bits(encodeBars(s))

	e.tag(tagPatterns)
	patterns, err := encodePatterns(s)
	if err != nil {
		return err
	}
	length := patterns.LengthBase64()
	var digits []int
	for ; length > 0; length >>= 6 {
		digits = append([]int{length & 0x3f}, digits...)
	}
	e.sym(len(digits))
	for _, d := range digits {
		e.sym(d)
	}
	e.bits(patterns)

	for _, entry := range s.CustomSamples {
		e.buf = append(e.buf, sampleSeparator)
		e.buf = append(e.buf, escapeComponent(entry)...)
	}
	return nil
}

// Limiter ratios below 1 are stored in tenths, larger ratios in whole steps
// above 10.
func encodeRatio(r float64) int {
	if r < 1 {
		return int(math.Round(r * 10))
	}
	return int(math.Round(r-1)) + 10
}

func decodeRatio(v int) float64 {
	if v < 10 {
		return float64(v) / 10
	}
	return float64(v - 10 + 1)
}

const (
	limiterThresholdScale = 20.0
	limiterRiseStep       = 250.0
	masterGainScale       = 50.0
)

func (e *encoder) limiter(l song.Limiter) {
	if l.IsDefault() {
		e.sym(bitfield.Value(defaultLimiterSymbol))
		return
	}
	e.sym(encodeRatio(l.CompressionRatio))
	e.sym(int(math.Round(l.CompressionThreshold * limiterThresholdScale)))
	e.sym(encodeRatio(l.LimitRatio))
	e.sym(int(math.Round(l.LimitThreshold * limiterThresholdScale)))
	e.sym(l.LimitDecay)
	e.sym(int(math.Round((l.LimitRise - song.LimitRiseMin) / limiterRiseStep)))
	e.sym2(int(math.Round(l.MasterGain * masterGainScale)))
}

func (e *encoder) filter(f *song.FilterSettings) {
	points := f.ControlPoints
	if len(points) > song.FilterMaxPoints {
		points = points[:song.FilterMaxPoints]
	}
	e.sym(len(points))
	for _, p := range points {
		e.sym(int(p.Type))
		e.sym(p.Freq)
		e.sym(p.Gain)
	}
}

// subFilters writes a bit field of the morph sub-filters in use, bit j for
// sub-filter j+1, followed by each of them.
func (e *encoder) subFilters(subs *[song.FilterMorphCount - 1]*song.FilterSettings) {
	used := 0
	for j, f := range subs {
		if f != nil {
			used |= 1 << j
		}
	}
	e.sym2(used)
	for _, f := range subs {
		if f != nil {
			e.filter(f)
		}
	}
}

// instrumentFilter writes a filter that may be in simple cut/peak mode.
func (e *encoder) instrumentFilter(simple bool, cut, peak int, f *song.FilterSettings, subs *[song.FilterMorphCount - 1]*song.FilterSettings) {
	if simple {
		e.sym(1)
		e.sym(cut)
		e.sym(peak)
		return
	}
	e.sym(0)
	e.filter(f)
	e.subFilters(subs)
}
