// Package jsonsong converts songs to and from the JSON document form: a
// readable mirror of the song model keyed by name instead of tag codes.
package jsonsong

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
	"github.com/pkg/errors"
)

// Format and version written into every document.
const (
	FormatName    = "SlarmoosBox"
	FormatVersion = 4
)

var ErrUnknownInstrumentType = errors.New("jsonsong: unknown instrument type")

// WaveNamer resolves chip wave indices to names.
type WaveNamer interface {
	WaveName(i int) string
}

// Options selects how the bar sequence is laid out. The default options
// write every bar once.
type Options struct {
	EnableIntro bool
	LoopCount   int
	EnableOutro bool
	// Waves names chip waves. Nil uses samples.Default().
	Waves WaveNamer
}

func DefaultOptions() Options {
	return Options{EnableIntro: true, LoopCount: 1, EnableOutro: true}
}

// Marshal encodes s as indented JSON.
func Marshal(s *song.Song, opts Options) ([]byte, error) {
	doc, err := Encode(s, opts)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "\t")
}

// Encode builds the JSON document of s.
func Encode(s *song.Song, opts Options) (map[string]any, error) {
	if opts.Waves == nil {
		opts.Waves = samples.Default()
	}
	e := &encoder{s: s, opts: opts}

	doc := map[string]any{
		"name":               s.Title,
		"format":             FormatName,
		"version":            FormatVersion,
		"scale":              song.Scales[clamp(0, len(song.Scales)-1, s.Scale)].Name,
		"customScale":        s.ScaleCustom[:],
		"key":                song.Keys[clamp(0, len(song.Keys)-1, s.Key)],
		"keyOctave":          s.Octave,
		"introBars":          e.introBars(),
		"loopBars":           s.LoopLength,
		"beatsPerBar":        s.BeatsPerBar,
		"ticksPerBeat":       song.Rhythms[clamp(0, len(song.Rhythms)-1, s.Rhythm)].StepsPerBeat,
		"beatsPerMinute":     s.Tempo,
		"reverb":             s.Reverb,
		"layeredInstruments": s.LayeredInstruments,
		"patternInstruments": s.PatternInstruments,

		"compressionRatio":     s.Limiter.CompressionRatio,
		"compressionThreshold": s.Limiter.CompressionThreshold,
		"limitRatio":           s.Limiter.LimitRatio,
		"limitThreshold":       s.Limiter.LimitThreshold,
		"limitDecay":           s.Limiter.LimitDecay,
		"limitRise":            s.Limiter.LimitRise,
		"masterGain":           s.Limiter.MasterGain,

		"songEq": filterJSON(&s.EqFilter),
	}
	subFiltersJSON(doc, "songEq", s.EqSubFilters)
	if len(s.CustomSamples) > 0 {
		doc["customSamples"] = append([]string(nil), s.CustomSamples...)
	}

	channels := make([]any, 0, len(s.Channels))
	for ci, ch := range s.Channels {
		c, err := e.channel(ch)
		if err != nil {
			return nil, errors.Wrapf(err, "channel %d", ci)
		}
		channels = append(channels, c)
	}
	doc["channels"] = channels
	return doc, nil
}

type encoder struct {
	s    *song.Song
	opts Options
}

func (e *encoder) introBars() int {
	if !e.opts.EnableIntro {
		return 0
	}
	return e.s.LoopStart
}

// sequence lays out the bars as intro, the loop LoopCount times, and outro.
func (e *encoder) sequence(bars []int) []int {
	s := e.s
	loopEnd := min(s.LoopStart+s.LoopLength, len(bars))
	loopStart := min(s.LoopStart, loopEnd)
	var seq []int
	if e.opts.EnableIntro {
		seq = append(seq, bars[:loopStart]...)
	}
	for i := 0; i < max(1, e.opts.LoopCount); i++ {
		seq = append(seq, bars[loopStart:loopEnd]...)
	}
	if e.opts.EnableOutro {
		seq = append(seq, bars[loopEnd:]...)
	}
	if seq == nil {
		seq = []int{}
	}
	return seq
}

func (e *encoder) channel(ch *song.Channel) (map[string]any, error) {
	c := map[string]any{
		"type": ch.Type.String(),
		"name": ch.Name,
	}
	if ch.Type == song.PitchChannel {
		c["octaveScrollBar"] = ch.Octave
	}

	instruments := make([]any, 0, len(ch.Instruments))
	for ii, ins := range ch.Instruments {
		obj, err := e.instrument(ch, ins)
		if err != nil {
			return nil, errors.Wrapf(err, "instrument %d", ii)
		}
		instruments = append(instruments, obj)
	}
	c["instruments"] = instruments

	patterns := make([]any, 0, len(ch.Patterns))
	for _, p := range ch.Patterns {
		patterns = append(patterns, e.pattern(ch, p))
	}
	c["patterns"] = patterns
	c["sequence"] = e.sequence(ch.Bars)
	return c, nil
}

func (e *encoder) pattern(ch *song.Channel, p *song.Pattern) map[string]any {
	obj := map[string]any{}
	if e.s.PatternInstruments {
		ids := make([]int, len(p.Instruments))
		for i, id := range p.Instruments {
			ids[i] = id + 1
		}
		obj["instruments"] = ids
	}
	ticksPerBeat := float64(song.Rhythms[clamp(0, len(song.Rhythms)-1, e.s.Rhythm)].StepsPerBeat)
	notes := make([]any, 0, len(p.Notes))
	for _, n := range p.Notes {
		points := make([]any, 0, len(n.Pins))
		for _, pin := range n.Pins {
			points = append(points, map[string]any{
				"tick":      float64(n.Start+pin.Time) * ticksPerBeat / song.PartsPerBeat,
				"pitchBend": pin.Interval,
				"volume":    volumeJSON(ch, pin.Size),
			})
		}
		note := map[string]any{
			"pitches": append([]int(nil), n.Pitches...),
			"points":  points,
		}
		if n.ContinuesLastPattern {
			note["continuesLastPattern"] = true
		}
		notes = append(notes, note)
	}
	obj["notes"] = notes
	return obj
}

// volumeJSON writes note sizes as a percentage. Mod notes carry the raw
// modulator value instead.
func volumeJSON(ch *song.Channel, size int) int {
	if ch.Type == song.ModChannel {
		return size
	}
	return int(math.Round(float64(size) * 100 / song.NoteSizeMax))
}

func (e *encoder) instrument(ch *song.Channel, ins *song.Instrument) (map[string]any, error) {
	if ins.Type < 0 || ins.Type >= song.InstrumentTypeCount {
		return nil, errors.Wrapf(ErrUnknownInstrumentType, "type %d", int(ins.Type))
	}
	obj := map[string]any{
		"type":   ins.Type.String(),
		"preset": ins.Preset,
		"volume": ins.Volume,
	}
	if ins.Type == song.InstrumentMod {
		modJSON(obj, ins)
		return obj, nil
	}

	obj["eqFilter"] = filterJSON(&ins.EqFilter)
	obj["eqFilterType"] = ins.EqFilterType
	obj["eqSimpleCut"] = ins.EqFilterSimpleCut
	obj["eqSimplePeak"] = ins.EqFilterSimplePeak
	subFiltersJSON(obj, "eqSubFilters", ins.EqSubFilters)

	effectsJSON(obj, ins)

	obj["fadeInSeconds"] = song.FadeInSeconds(ins.FadeIn)
	obj["fadeOutTicks"] = song.FadeOutTicks[clamp(0, len(song.FadeOutTicks)-1, ins.FadeOut)]
	obj["clicklessTransition"] = ins.ClicklessTransition

	switch ins.Type {
	case song.InstrumentChip:
		obj["wave"] = e.opts.Waves.WaveName(ins.ChipWave)
		loopControlsJSON(obj, ins)
		unisonJSON(obj, ins)
	case song.InstrumentCustomChipWave:
		obj["wave"] = e.opts.Waves.WaveName(ins.ChipWave)
		obj["customChipWave"] = ins.CustomChipWave[:]
		unisonJSON(obj, ins)
	case song.InstrumentFM, song.InstrumentFM6Op:
		fmJSON(obj, ins)
	case song.InstrumentNoise:
		obj["wave"] = song.NoiseWaves[clamp(0, len(song.NoiseWaves)-1, ins.ChipNoise)]
	case song.InstrumentSpectrum:
		obj["spectrum"] = percents(ins.Spectrum[:], song.SpectrumMax)
		unisonJSON(obj, ins)
	case song.InstrumentDrumset:
		drums := make([]any, song.DrumCount)
		for i := range drums {
			drums[i] = map[string]any{
				"filterEnvelope": ins.DrumsetEnvelopes[i].Preset().Name,
				"spectrum":       percents(ins.DrumsetSpectra[i][:], song.SpectrumMax),
			}
		}
		obj["drums"] = drums
	case song.InstrumentHarmonics:
		obj["harmonics"] = percents(ins.Harmonics[:], song.HarmonicsMax)
		unisonJSON(obj, ins)
	case song.InstrumentPWM:
		obj["pulseWidth"] = ins.PulseWidth
		obj["decimalOffset"] = ins.DecimalOffset
		unisonJSON(obj, ins)
	case song.InstrumentPickedString:
		obj["harmonics"] = percents(ins.Harmonics[:], song.HarmonicsMax)
		obj["stringSustain"] = ins.StringSustain
		obj["stringSustainType"] = song.StringSustainTypes[clamp(0, len(song.StringSustainTypes)-1, ins.StringSustainType)]
		unisonJSON(obj, ins)
	case song.InstrumentSupersaw:
		obj["supersawDynamism"] = ins.SupersawDynamism
		obj["supersawSpread"] = ins.SupersawSpread
		obj["supersawShape"] = ins.SupersawShape
		obj["pulseWidth"] = ins.PulseWidth
		obj["decimalOffset"] = ins.DecimalOffset
	}

	obj["envelopeSpeed"] = ins.EnvelopeSpeed
	envelopes := make([]any, 0, len(ins.Envelopes))
	for _, env := range ins.Envelopes {
		envelopes = append(envelopes, envelopeJSON(env))
	}
	obj["envelopes"] = envelopes
	return obj, nil
}

func filterJSON(f *song.FilterSettings) []any {
	points := make([]any, 0, len(f.ControlPoints))
	for _, p := range f.ControlPoints {
		points = append(points, map[string]any{
			"type":       song.FilterTypes[clamp(0, len(song.FilterTypes)-1, int(p.Type))],
			"cutoffHz":   math.Round(song.HzFromFreqSetting(float64(p.Freq))*100) / 100,
			"linearGain": math.Round(song.LinearGainFromGainSetting(float64(p.Gain))*10000) / 10000,
		})
	}
	return points
}

// subFiltersJSON writes the morph targets as key1..key9, skipping unused ones.
func subFiltersJSON(obj map[string]any, key string, subs [song.FilterMorphCount - 1]*song.FilterSettings) {
	for i, f := range subs {
		if f != nil {
			obj[key+strconv.Itoa(i+1)] = filterJSON(f)
		}
	}
}

func effectsJSON(obj map[string]any, ins *song.Instrument) {
	fx := ins.Effects
	var names []string
	for t := song.EffectType(0); t < song.EffectTypeCount; t++ {
		if fx.Has(t) {
			names = append(names, song.EffectNames[t])
		}
	}
	if names == nil {
		names = []string{}
	}
	obj["effects"] = names

	if fx.Has(song.EffectNoteFilter) {
		obj["noteFilter"] = filterJSON(&ins.NoteFilter)
		obj["noteFilterType"] = ins.NoteFilterType
		obj["noteSimpleCut"] = ins.NoteFilterSimpleCut
		obj["noteSimplePeak"] = ins.NoteFilterSimplePeak
		subFiltersJSON(obj, "noteSubFilters", ins.NoteSubFilters)
	}
	if fx.Has(song.EffectTransition) {
		obj["transition"] = song.Transitions[clamp(0, len(song.Transitions)-1, int(ins.Transition))]
	}
	if fx.Has(song.EffectChord) {
		obj["chord"] = song.Chords[clamp(0, len(song.Chords)-1, int(ins.Chord))]
		obj["arpeggioSpeed"] = ins.ArpeggioSpeed
		obj["fastTwoNoteArp"] = ins.FastTwoNoteArp
		obj["monoChordTone"] = ins.MonoChordTone
	}
	if fx.Has(song.EffectPitchShift) {
		obj["pitchShiftSemitones"] = ins.PitchShift - song.PitchShiftCenter
	}
	if fx.Has(song.EffectDetune) {
		obj["detuneCents"] = ins.Detune - song.DetuneCenter
	}
	if fx.Has(song.EffectVibrato) {
		if ins.Vibrato == song.CustomVibrato {
			obj["vibrato"] = "custom"
		} else {
			obj["vibrato"] = song.Vibratos[clamp(0, len(song.Vibratos)-1, ins.Vibrato)].Name
		}
		obj["vibratoDepth"] = ins.VibratoDepth
		obj["vibratoSpeed"] = ins.VibratoSpeed
		obj["vibratoDelay"] = ins.VibratoDelay
		obj["vibratoType"] = ins.VibratoType
	}
	if fx.Has(song.EffectDistortion) {
		obj["distortion"] = ins.Distortion
		obj["aliases"] = ins.Aliases
	}
	if fx.Has(song.EffectBitcrusher) {
		obj["bitcrusherOctave"] = ins.BitcrusherFreq
		obj["bitcrusherQuantization"] = ins.BitcrusherQuantization
	}
	if fx.Has(song.EffectPanning) {
		obj["pan"] = ins.Pan
		obj["panDelay"] = ins.PanDelay
	}
	if fx.Has(song.EffectChorus) {
		obj["chorus"] = ins.Chorus
	}
	if fx.Has(song.EffectEcho) {
		obj["echoSustain"] = ins.EchoSustain
		obj["echoDelay"] = ins.EchoDelay
	}
	if fx.Has(song.EffectReverb) {
		obj["reverb"] = ins.Reverb
	}
	if fx.Has(song.EffectRingModulation) {
		obj["ringMod"] = ins.RingModulation
		obj["ringModHz"] = ins.RingModulationHz
		obj["ringModWaveformIndex"] = ins.RingModWaveformIndex
		obj["ringModPulseWidth"] = ins.RingModPulseWidth
		obj["ringModHzOffset"] = ins.RingModHzOffset
	}
	if fx.Has(song.EffectGranular) {
		obj["granular"] = ins.Granular
		obj["grainSize"] = ins.GrainSize
		obj["grainAmounts"] = ins.GrainAmounts
		obj["grainRange"] = ins.GrainRange
	}
}

func unisonJSON(obj map[string]any, ins *song.Instrument) {
	if ins.Unison == song.CustomUnison {
		obj["unison"] = "custom"
	} else {
		obj["unison"] = song.Unisons[clamp(0, len(song.Unisons)-1, ins.Unison)].Name
	}
	obj["unisonVoices"] = ins.UnisonVoices
	obj["unisonSpread"] = ins.UnisonSpread
	obj["unisonOffset"] = ins.UnisonOffset
	obj["unisonExpression"] = ins.UnisonExpression
	obj["unisonSign"] = ins.UnisonSign
}

func loopControlsJSON(obj map[string]any, ins *song.Instrument) {
	obj["isUsingAdvancedLoopControls"] = ins.IsUsingAdvancedLoopControls
	obj["chipWaveLoopStart"] = ins.ChipWaveLoopStart
	obj["chipWaveLoopEnd"] = ins.ChipWaveLoopEnd
	obj["chipWaveLoopMode"] = song.ChipWaveLoopModes[clamp(0, len(song.ChipWaveLoopModes)-1, ins.ChipWaveLoopMode)]
	obj["chipWavePlayBackwards"] = ins.ChipWavePlayBackwards
	obj["chipWaveStartOffset"] = ins.ChipWaveStartOffset
}

func fmJSON(obj map[string]any, ins *song.Instrument) {
	if ins.Type == song.InstrumentFM6Op {
		obj["algorithm"] = song.SixOpAlgorithms[clamp(0, len(song.SixOpAlgorithms)-1, ins.Algorithm6Op)].Name
		obj["feedbackType"] = song.SixOpFeedbacks[clamp(0, len(song.SixOpFeedbacks)-1, ins.Feedback6Op)].Name
		if ins.Algorithm6Op == 0 {
			obj["customAlgorithm"] = map[string]any{
				"carrierCount": ins.CustomAlgorithm.CarrierCount,
				"mods":         rowsJSON(ins.CustomAlgorithm.ModulatedBy),
			}
		}
		if ins.Feedback6Op == 0 {
			obj["customFeedback"] = map[string]any{
				"mods": rowsJSON(ins.CustomFeedback.Indices),
			}
		}
	} else {
		obj["algorithm"] = song.Algorithms[clamp(0, len(song.Algorithms)-1, ins.Algorithm)].Name
		obj["feedbackType"] = song.Feedbacks[clamp(0, len(song.Feedbacks)-1, ins.FeedbackType)].Name
	}
	obj["feedbackAmplitude"] = ins.FeedbackAmplitude

	ops := make([]any, ins.Type.OperatorCount())
	for i := range ops {
		op := ins.Operators[i]
		ops[i] = map[string]any{
			"frequency":  song.OperatorFrequencies[clamp(0, len(song.OperatorFrequencies)-1, op.Frequency)],
			"amplitude":  op.Amplitude,
			"waveform":   song.OperatorWaves[clamp(0, len(song.OperatorWaves)-1, op.Waveform)],
			"pulseWidth": op.PulseWidth,
		}
	}
	obj["operators"] = ops
}

func rowsJSON(rows [][]int) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		r := append([]int(nil), row...)
		if r == nil {
			r = []int{}
		}
		out[i] = r
	}
	return out
}

func envelopeJSON(env song.EnvelopeSettings) map[string]any {
	obj := map[string]any{
		"target":     targetName(env.Target),
		"index":      env.Index,
		"envelope":   song.EnvelopeShapes[clamp(0, len(song.EnvelopeShapes)-1, int(env.Envelope))],
		"inverse":    env.Inverse,
		"discrete":   env.Discrete,
		"lowerBound": env.LowerBound,
		"upperBound": env.UpperBound,
	}
	if env.Envelope.HasSpeed() {
		obj["envelopeSpeed"] = env.Speed
	}
	switch env.Envelope {
	case song.EnvelopePitch:
		obj["pitchEnvelopeStart"] = env.PitchStart
		obj["pitchEnvelopeEnd"] = env.PitchEnd
	case song.EnvelopeRandom:
		obj["steps"] = env.Steps
		obj["seed"] = env.Seed
		obj["waveform"] = song.RandomEnvelopeTypes[clamp(0, len(song.RandomEnvelopeTypes)-1, env.Waveform)]
	case song.EnvelopeLFO:
		obj["waveform"] = song.LFOWaveforms[clamp(0, len(song.LFOWaveforms)-1, env.Waveform)]
		obj["steps"] = env.Steps
	}
	return obj
}

func targetName(t int) string {
	if t < 0 || t >= len(song.EnvelopeTargets) {
		return song.EnvelopeTargets[song.TargetNone].Name
	}
	return song.EnvelopeTargets[t].Name
}

func modJSON(obj map[string]any, ins *song.Instrument) {
	settings := make([]string, song.ModCount)
	for i, m := range ins.ModSettings {
		settings[i] = song.Modulators[clamp(0, len(song.Modulators)-1, m)].Name
	}
	obj["modChannels"] = ins.ModChannels[:]
	obj["modInstruments"] = ins.ModInstruments[:]
	obj["modSettings"] = settings
	obj["modFilterTypes"] = ins.ModFilterTypes[:]
	obj["modEnvelopeNumbers"] = ins.ModEnvelopeNumbers[:]
}

// percents writes control points as percentages of max.
func percents(points []int, maxValue int) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = int(math.Round(float64(p) * 100 / float64(maxValue)))
	}
	return out
}

func clamp(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
