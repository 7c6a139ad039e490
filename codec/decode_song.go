package codec

import (
	"math"

	"github.com/QEStudios/boxcodec/song"
)

func (st *decodeState) songTitle() {
	st.song.Title = st.text()
}

func (st *decodeState) channelCount() {
	s := st.song
	if st.c.typedChannels {
		n := st.read2()
		if n < song.PitchChannelCountMin || n > song.PitchChannelCountMax+song.NoiseChannelCountMax+song.ModChannelCountMax {
			st.failf("%d channels", n)
			return
		}
		types := make([]song.ChannelType, n)
		for i := range types {
			types[i] = song.ChannelType(clampInt(0, int(song.ModChannel), st.read()))
		}
		if st.err == nil {
			s.SetChannelTypes(types)
		}
		return
	}
	pitch := clampInt(song.PitchChannelCountMin, song.PitchChannelCountMax, st.read())
	noise := clampInt(song.NoiseChannelCountMin, song.NoiseChannelCountMax, st.read())
	mod := 0
	if st.c.modChannelCount {
		mod = clampInt(song.ModChannelCountMin, song.ModChannelCountMax, st.read())
	}
	if st.err == nil {
		s.SetChannelLayout(pitch, noise, mod)
	}
}

func (st *decodeState) scale() {
	s := st.song
	s.Scale = clampInt(0, len(song.Scales)-1, st.read())
	if s.Scale == song.CustomScale {
		for i := 1; i < song.PitchesPerOctave; i++ {
			s.ScaleCustom[i] = st.flag()
		}
	}
}

func (st *decodeState) key() {
	s := st.song
	switch {
	case st.c.keyReversed:
		s.Key = clampInt(0, song.PitchesPerOctave-1, song.PitchesPerOctave-1-st.read())
	case st.c.combinedKey:
		v := st.read()
		s.Key = v % song.PitchesPerOctave
		s.Octave = clampInt(song.OctaveMin, song.OctaveMax, v/song.PitchesPerOctave)
	case st.c.keyOctave:
		s.Key = clampInt(0, song.PitchesPerOctave-1, st.read())
		s.Octave = clampInt(song.OctaveMin, song.OctaveMax, st.read()+song.OctaveMin)
	default:
		s.Key = clampInt(0, song.PitchesPerOctave-1, st.read())
	}
}

func (st *decodeState) loopStart() {
	if st.c.bbBefore5 {
		st.song.LoopStart = st.read()
	} else {
		st.song.LoopStart = st.read2()
	}
}

func (st *decodeState) loopEnd() {
	if st.c.bbBefore5 {
		st.song.LoopLength = st.read()
	} else {
		st.song.LoopLength = st.read2() + 1
	}
}

func (st *decodeState) tempo() {
	s := st.song
	switch {
	case st.c.bbBefore4:
		s.Tempo = song.LegacyTemposV3[clampInt(0, len(song.LegacyTemposV3)-1, st.read())]
	case st.c.bbBefore7:
		s.Tempo = song.LegacyTemposV6[clampInt(0, len(song.LegacyTemposV6)-1, st.read())]
	default:
		s.Tempo = st.read2()
	}
	s.Tempo = clampInt(song.TempoMin, song.TempoMax, s.Tempo)
}

// reverb reads the song wide reverb of old links. It is moved onto the
// instruments once they are known.
func (st *decodeState) reverb() {
	v := st.read()
	if st.c.bb {
		v = int(math.Round(float64(v) * (song.ReverbRange - 1) / 3))
	}
	st.legacyGlobalReverb = clampInt(0, song.ReverbMax, v)
	st.song.Reverb = st.legacyGlobalReverb
}

func (st *decodeState) beatCount() {
	s := st.song
	if st.c.bbBefore3 {
		s.BeatsPerBar = song.LegacyBeats[clampInt(0, len(song.LegacyBeats)-1, st.read())]
	} else {
		s.BeatsPerBar = st.read() + 1
	}
	s.BeatsPerBar = clampInt(song.BeatsPerBarMin, song.BeatsPerBarMax, s.BeatsPerBar)
}

func (st *decodeState) barCount() {
	n := clampInt(song.BarCountMin, song.BarCountMax, st.read2()+1)
	if st.err == nil {
		st.song.SetBarCount(n)
	}
}

func (st *decodeState) patternCount() {
	var n int
	if st.c.bbBefore8 {
		n = st.read() + 1
	} else {
		n = st.read2() + 1
	}
	n = clampInt(song.PatternsPerChannelMin, song.PatternsPerChannelMax, n)
	if st.err == nil {
		st.song.SetPatternsPerChannel(n)
	}
}

// Arpeggio speed of instruments from links whose rhythm set the arpeggio.
const legacySlowArpSpeed = 9

func (st *decodeState) rhythm() {
	s := st.song
	s.Rhythm = clampInt(0, len(song.Rhythms)-1, st.read())
	if st.c.arpFromRhythm {
		st.slowerArp = s.Rhythm == song.RhythmTriplets || s.Rhythm == song.RhythmSixths
		st.fastTwoNoteArp = s.Rhythm >= song.RhythmSixths
	}
}

func (st *decodeState) limiter() {
	if st.peek() == defaultLimiterSymbol {
		st.pos++
		st.song.Limiter = song.DefaultLimiter()
		return
	}
	l := &st.song.Limiter
	l.CompressionRatio = decodeRatio(st.read())
	l.CompressionThreshold = clampFloat(0, 1, float64(st.read())/limiterThresholdScale)
	l.LimitRatio = decodeRatio(st.read())
	l.LimitThreshold = clampFloat(0, 2, float64(st.read())/limiterThresholdScale)
	l.LimitDecay = clampInt(1, song.LimitDecayMax, st.read())
	l.LimitRise = clampFloat(song.LimitRiseMin, song.LimitRiseMax, float64(st.read())*limiterRiseStep+song.LimitRiseMin)
	l.MasterGain = clampFloat(0, song.MasterGainMax, float64(st.read2())/masterGainScale)
}

func (st *decodeState) songEq() {
	st.filter(&st.song.EqFilter)
	if st.c.subFilters {
		st.subFilters(&st.song.EqSubFilters)
	}
}

// legacyEffect reads the combined vibrato and tremolo slider of the first
// versions.
func (st *decodeState) legacyEffect() {
	st.eachTarget(func(ch *song.Channel, ci, ii int, ins *song.Instrument) {
		effect := clampInt(0, len(legacyEffectVibratos)-1, st.read())
		ins.SetVibrato(legacyEffectVibratos[effect])
		if ins.Vibrato != 0 {
			ins.Effects = ins.Effects.With(song.EffectVibrato)
		}
		legacy := st.legacy.at(ci, ii)
		if legacy.FilterEnvelope == nil || legacy.FilterEnvelope.Preset().Shape == song.EnvelopeNone {
			legacy.SetFilterEnvelope(song.LegacyEnvelopeNamed(legacyEffectEnvelopes[effect]))
		}
		st.convertLegacy(ch, ci, ii, ins)
	})
}

func (st *decodeState) legacyVibrato() {
	_, ins, ok := st.current()
	v := clampInt(0, len(song.Vibratos)-1, st.read())
	if !ok {
		return
	}
	ins.SetVibrato(v)
	if v != 0 {
		ins.Effects = ins.Effects.With(song.EffectVibrato)
	}
}

func (st *decodeState) channelNames() {
	for _, ch := range st.song.Channels {
		ch.Name = st.text()
	}
}

func (st *decodeState) instrumentCount() {
	s := st.song
	if st.c.legacySettings {
		n := clampInt(song.InstrumentCountMin, song.PatternInstrumentCountMax, st.read()+song.InstrumentCountMin)
		if st.err != nil {
			return
		}
		s.LayeredInstruments = false
		s.PatternInstruments = n > 1
		for _, ch := range s.Channels {
			s.SetInstrumentCount(ch, n)
		}
		return
	}

	flags := st.read()
	s.LayeredInstruments = flags&(1<<1) != 0
	s.PatternInstruments = flags&1 != 0
	for _, ch := range s.Channels {
		n := song.InstrumentCountMin
		if flags != 0 {
			n = clampInt(song.InstrumentCountMin, s.MaxInstrumentsPerChannel(), st.read()+song.InstrumentCountMin)
		}
		if st.err != nil {
			return
		}
		s.SetInstrumentCount(ch, n)
	}
}

func (st *decodeState) channelOctave() {
	s := st.song
	switch {
	case st.c.bbBefore3:
		ch, ok := st.channelAt(st.read())
		octave := clampInt(0, song.ChannelOctaveMax, st.read())
		if ok && ch.Type == song.PitchChannel {
			ch.Octave = octave
		}
	case st.c.octaveAllChannels:
		for _, ch := range s.Channels {
			octave := clampInt(0, song.ChannelOctaveMax, st.read())
			if ch.Type == song.PitchChannel {
				ch.Octave = octave
			} else {
				ch.Octave = 0
			}
		}
	default:
		for _, ch := range s.Channels {
			if ch.Type == song.PitchChannel {
				ch.Octave = clampInt(0, song.ChannelOctaveMax, st.read())
			}
		}
	}
}

// filter reads a filter curve. Points past the maximum are read and dropped.
func (st *decodeState) filter(f *song.FilterSettings) {
	f.Reset()
	n := st.read()
	for i := 0; i < n && st.err == nil; i++ {
		t := song.FilterType(clampInt(0, len(song.FilterTypes)-1, st.read()))
		freq := clampInt(0, song.FilterFreqRange-1, st.read())
		gain := clampInt(0, song.FilterGainRange-1, st.read())
		if i < song.FilterMaxPoints {
			f.AddPoint(t, freq, gain)
		}
	}
}

func (st *decodeState) subFilters(subs *[song.FilterMorphCount - 1]*song.FilterSettings) {
	used := st.read2()
	for j := range subs {
		subs[j] = nil
		if used&(1<<j) != 0 {
			f := &song.FilterSettings{}
			st.filter(f)
			subs[j] = f
		}
	}
}
