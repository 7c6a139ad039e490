// Package song is the in-memory song model shared by the compact and JSON
// codecs: channels, instruments, patterns and notes, the tables of format
// constants and the defaults of a new song.
package song

type ChannelType int

const (
	PitchChannel ChannelType = iota
	NoiseChannel
	ModChannel
)

var ChannelTypeNames = []string{"pitch", "drum", "mod"}

func (t ChannelType) String() string {
	if t < 0 || int(t) >= len(ChannelTypeNames) {
		return "unknown"
	}
	return ChannelTypeNames[t]
}

// Limiter holds the master compressor and limiter settings.
type Limiter struct {
	CompressionRatio     float64
	CompressionThreshold float64
	LimitRatio           float64
	LimitThreshold       float64
	LimitDecay           int
	LimitRise            float64
	MasterGain           float64
}

// DefaultLimiter returns a limiter that leaves the signal untouched.
func DefaultLimiter() Limiter {
	return Limiter{
		CompressionRatio:     CompressionRatioDefault,
		CompressionThreshold: CompressionThresholdDefault,
		LimitRatio:           LimitRatioDefault,
		LimitThreshold:       LimitThresholdDefault,
		LimitDecay:           LimitDecayDefault,
		LimitRise:            LimitRiseDefault,
		MasterGain:           MasterGainDefault,
	}
}

// IsDefault reports whether every field has its default value.
func (l Limiter) IsDefault() bool {
	return l == DefaultLimiter()
}

// Song is a whole composition.
type Song struct {
	Title       string
	Scale       int
	ScaleCustom [PitchesPerOctave]bool
	Key         int
	Octave      int
	Tempo       int
	// Reverb is the song wide reverb of old links. Current songs store
	// reverb per instrument.
	Reverb             int
	BeatsPerBar        int
	BarCount           int
	PatternsPerChannel int
	Rhythm             int
	LayeredInstruments bool
	PatternInstruments bool
	LoopStart          int
	LoopLength         int

	EqFilter     FilterSettings
	EqSubFilters [FilterMorphCount - 1]*FilterSettings
	Limiter      Limiter

	// CustomSamples holds the raw sample section entries, one per custom
	// chip wave appended after the built-in waves.
	CustomSamples []string

	Channels []*Channel
}

// Channel is one row of the song.
type Channel struct {
	Type        ChannelType
	Name        string
	Octave      int
	Instruments []*Instrument
	Patterns    []*Pattern
	// Bars holds a 1-based pattern index per bar, 0 for an empty bar.
	Bars []int
}

// Pattern is a bar's worth of notes for one channel.
type Pattern struct {
	Instruments []int
	Notes       []*Note
}

// Note spans [Start, End) in parts. Mod channel notes use their single pitch
// to select a modulator slot, counted down from ModCount-1.
type Note struct {
	Pitches              []int
	Pins                 []NotePin
	Start                int
	End                  int
	ContinuesLastPattern bool
}

// NotePin is a point on the note's size and pitch bend curve. Time is
// relative to the note start and Interval to its first pitch.
type NotePin struct {
	Interval int
	Time     int
	Size     int
}

// NewNote returns a flat note of the given size.
func NewNote(pitch, start, end, size int) *Note {
	return &Note{
		Pitches: []int{pitch},
		Pins:    []NotePin{{Interval: 0, Time: 0, Size: size}, {Interval: 0, Time: end - start, Size: size}},
		Start:   start,
		End:     end,
	}
}

// NewPattern returns an empty pattern played by the first instrument.
func NewPattern() *Pattern {
	return &Pattern{Instruments: []int{0}}
}

// New returns the default song.
func New() *Song {
	s := &Song{}
	s.InitToDefault(true)
	return s
}

// InitToDefault resets every song setting. Channels are rebuilt only when
// resetChannels is set.
func (s *Song) InitToDefault(resetChannels bool) {
	s.Title = "Untitled"
	s.Scale = 0
	s.ScaleCustom = [PitchesPerOctave]bool{true, false, true, true, false, false, false, true, true, false, true, true}
	s.Key = 0
	s.Octave = 0
	s.Tempo = 150
	s.Reverb = 0
	s.BeatsPerBar = 8
	s.BarCount = 16
	s.PatternsPerChannel = 8
	s.Rhythm = RhythmDefault
	s.LayeredInstruments = false
	s.PatternInstruments = false
	s.LoopStart = 0
	s.LoopLength = 4
	s.EqFilter = FilterSettings{}
	s.EqSubFilters = [FilterMorphCount - 1]*FilterSettings{}
	s.Limiter = DefaultLimiter()
	s.CustomSamples = nil

	if resetChannels {
		s.SetChannelLayout(3, 1, 1)
		for _, ch := range s.Channels {
			for bar := 0; bar < 4 && bar < len(ch.Bars); bar++ {
				ch.Bars[bar] = 1
			}
		}
	}
}

// SetChannelLayout replaces the channels with default pitch, then noise,
// then mod channels.
func (s *Song) SetChannelLayout(pitch, noise, mod int) {
	types := make([]ChannelType, 0, pitch+noise+mod)
	for i := 0; i < pitch; i++ {
		types = append(types, PitchChannel)
	}
	for i := 0; i < noise; i++ {
		types = append(types, NoiseChannel)
	}
	for i := 0; i < mod; i++ {
		types = append(types, ModChannel)
	}
	s.SetChannelTypes(types)
}

// SetChannelTypes replaces the channels with default channels of the given types.
func (s *Song) SetChannelTypes(types []ChannelType) {
	s.Channels = make([]*Channel, len(types))
	for i, t := range types {
		s.Channels[i] = s.newChannel(t, i)
	}
}

func (s *Song) newChannel(t ChannelType, index int) *Channel {
	ch := &Channel{Type: t, Bars: make([]int, s.BarCount)}
	if t == PitchChannel {
		ch.Octave = max(3-index, 0)
	}
	ch.Instruments = []*Instrument{s.NewInstrumentFor(t)}
	ch.Patterns = make([]*Pattern, s.PatternsPerChannel)
	for i := range ch.Patterns {
		ch.Patterns[i] = NewPattern()
	}
	return ch
}

// NewInstrumentFor returns the default instrument of a channel type.
func (s *Song) NewInstrumentFor(t ChannelType) *Instrument {
	switch t {
	case NoiseChannel:
		return NewInstrument(InstrumentNoise, true, false)
	case ModChannel:
		return NewInstrument(InstrumentMod, false, true)
	}
	return NewInstrument(InstrumentChip, false, false)
}

// SetBarCount resizes every channel's bar list, keeping existing bars.
func (s *Song) SetBarCount(n int) {
	s.BarCount = n
	for _, ch := range s.Channels {
		bars := make([]int, n)
		copy(bars, ch.Bars)
		ch.Bars = bars
	}
}

// SetPatternsPerChannel resizes every channel's pattern list, keeping
// existing patterns and dropping bars that point past the end.
func (s *Song) SetPatternsPerChannel(n int) {
	s.PatternsPerChannel = n
	for _, ch := range s.Channels {
		patterns := make([]*Pattern, n)
		copy(patterns, ch.Patterns)
		for i := range patterns {
			if patterns[i] == nil {
				patterns[i] = NewPattern()
			}
		}
		ch.Patterns = patterns
		for i, b := range ch.Bars {
			if b > n {
				ch.Bars[i] = 0
			}
		}
	}
}

// SetInstrumentCount resizes a channel's instrument list, keeping existing
// instruments.
func (s *Song) SetInstrumentCount(ch *Channel, n int) {
	for len(ch.Instruments) < n {
		ch.Instruments = append(ch.Instruments, s.NewInstrumentFor(ch.Type))
	}
	ch.Instruments = ch.Instruments[:n]
}

// ChannelCounts returns the number of pitch, noise and mod channels.
func (s *Song) ChannelCounts() (pitch, noise, mod int) {
	for _, ch := range s.Channels {
		switch ch.Type {
		case PitchChannel:
			pitch++
		case NoiseChannel:
			noise++
		case ModChannel:
			mod++
		}
	}
	return pitch, noise, mod
}

// MaxInstrumentsPerChannel is the instrument limit of the current modes.
func (s *Song) MaxInstrumentsPerChannel() int {
	n := InstrumentCountMin
	if s.LayeredInstruments {
		n = max(n, LayeredInstrumentCountMax)
	}
	if s.PatternInstruments {
		n = max(n, PatternInstrumentCountMax)
	}
	return n
}

// MaxInstrumentsPerPattern is the number of instruments one pattern of ch may play.
func (s *Song) MaxInstrumentsPerPattern(ch *Channel) int {
	if s.LayeredInstruments {
		return min(LayeredInstrumentCountMax, len(ch.Instruments))
	}
	return 1
}

// BarParts is the length of a bar in parts.
func (s *Song) BarParts() int {
	return s.BeatsPerBar * PartsPerBeat
}

// ScaleFlags returns the semitones of the selected scale.
func (s *Song) ScaleFlags() [PitchesPerOctave]bool {
	if s.Scale == CustomScale {
		return s.ScaleCustom
	}
	return Scales[s.Scale].Flags
}

// SubFilter returns the song EQ curve for a morph index. Index 0 is the
// primary filter.
func (s *Song) SubFilter(i int) *FilterSettings {
	if i == 0 {
		return &s.EqFilter
	}
	return s.EqSubFilters[i-1]
}

// NeededBits returns how many bits hold values up to maxValue.
func NeededBits(maxValue int) int {
	n := 0
	for maxValue > 0 {
		maxValue >>= 1
		n++
	}
	return n
}
