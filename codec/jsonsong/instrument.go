package jsonsong

import (
	"math"
	"strings"

	"github.com/QEStudios/boxcodec/song"
)

func (st *decodeState) instrument(ch *song.Channel, ins *song.Instrument, v any) {
	o, ok := asObject(v)
	if !ok {
		st.d.warnf("instrument is not an object")
		return
	}
	isNoise := ch.Type == song.NoiseChannel
	isMod := ch.Type == song.ModChannel

	t := ins.Type
	if name, ok := o.str("type"); ok {
		if i := nameIndex(song.InstrumentTypeNames, name); i >= 0 {
			t = song.InstrumentType(i)
		} else {
			st.d.warnf("unknown instrument type %q", name)
		}
	}
	if isMod {
		t = song.InstrumentMod
	} else if t == song.InstrumentMod {
		t = st.s.NewInstrumentFor(ch.Type).Type
	}
	ins.Reset(t, isNoise, isMod)
	ins.Preset = o.intIn("preset", 0, presetMax, int(ins.Type))

	if st.lin.percentVolume {
		if v, ok := o.float("volume"); ok {
			ins.Volume = int(math.Round(-float64(clamp(0, 8, int(math.Round(5-v/20)))) * 25 / 7))
		}
	} else {
		ins.Volume = o.intIn("volume", -song.VolumeRange/2, song.VolumeRange/2, ins.Volume)
	}
	if ins.Type == song.InstrumentMod {
		st.mod(o, ins)
		return
	}

	ins.EqFilterType = o.boolOr("eqFilterType", false)
	ins.EqFilterSimpleCut = o.intIn("eqSimpleCut", 0, song.FilterSimpleCutRange-1, ins.EqFilterSimpleCut)
	ins.EqFilterSimplePeak = o.intIn("eqSimplePeak", 0, song.FilterSimplePeakRange-1, ins.EqFilterSimplePeak)
	st.filter(&ins.EqFilter, o.array("eqFilter"))
	st.subFilters(o, "eqSubFilters", &ins.EqSubFilters)

	st.effects(o, ins)
	if secs, ok := o.float("fadeInSeconds"); ok {
		ins.FadeIn = song.FadeInSetting(secs)
	}
	if ticks, ok := o.float("fadeOutTicks"); ok {
		ins.FadeOut = song.FadeOutSetting(int(math.Round(ticks)))
	}
	ins.ClicklessTransition = o.boolOr("clicklessTransition", ins.ClicklessTransition)

	switch ins.Type {
	case song.InstrumentChip:
		st.chipWave(o, ins)
		st.loopControls(o, ins)
		st.unison(o, ins)
	case song.InstrumentCustomChipWave:
		st.chipWave(o, ins)
		for i, v := range o.ints("customChipWave") {
			if i < song.ChipWaveLength {
				ins.CustomChipWave[i] = clamp(-song.CustomChipWaveMax, song.CustomChipWaveMax, v)
			}
		}
		st.unison(o, ins)
	case song.InstrumentFM, song.InstrumentFM6Op:
		st.fm(o, ins)
	case song.InstrumentNoise:
		if name, ok := o.str("wave"); ok {
			if i := nameIndex(song.NoiseWaves, name); i >= 0 {
				ins.ChipNoise = i
			} else {
				st.d.warnf("unknown noise wave %q", name)
			}
		}
	case song.InstrumentSpectrum:
		fromPercents(ins.Spectrum[:], o.array("spectrum"), song.SpectrumMax)
		st.unison(o, ins)
	case song.InstrumentDrumset:
		for i, v := range o.array("drums") {
			drum, ok := asObject(v)
			if !ok || i >= song.DrumCount {
				continue
			}
			if env, ok := legacyEnvelope(drum, "filterEnvelope"); ok {
				ins.DrumsetEnvelopes[i] = env
			}
			fromPercents(ins.DrumsetSpectra[i][:], drum.array("spectrum"), song.SpectrumMax)
		}
	case song.InstrumentHarmonics:
		fromPercents(ins.Harmonics[:], o.array("harmonics"), song.HarmonicsMax)
		st.unison(o, ins)
	case song.InstrumentPWM:
		st.pulseWidth(o, ins)
		st.unison(o, ins)
	case song.InstrumentPickedString:
		fromPercents(ins.Harmonics[:], o.array("harmonics"), song.HarmonicsMax)
		ins.StringSustain = o.intIn("stringSustain", 0, song.StringSustainRange-1, ins.StringSustain)
		if name, ok := o.str("stringSustainType"); ok {
			if i := nameIndex(song.StringSustainTypes, name); i >= 0 {
				ins.StringSustainType = i
			}
		}
		st.unison(o, ins)
	case song.InstrumentSupersaw:
		ins.SupersawDynamism = o.intIn("supersawDynamism", 0, song.SupersawDynamismMax, ins.SupersawDynamism)
		ins.SupersawSpread = o.intIn("supersawSpread", 0, song.SupersawSpreadMax, ins.SupersawSpread)
		ins.SupersawShape = o.intIn("supersawShape", 0, song.SupersawShapeMax, ins.SupersawShape)
		st.pulseWidth(o, ins)
	}

	ins.EnvelopeSpeed = o.intIn("envelopeSpeed", 0, song.EnvelopeSpeedMax, ins.EnvelopeSpeed)
	st.envelopes(o, ins, isNoise)
	st.legacySettings(o, ins, isNoise)
}

// Presets are stored in two symbols of the compact form.
const presetMax = 1<<12 - 1

func (st *decodeState) effects(o object, ins *song.Instrument) {
	listed := false
	switch v := o["effects"].(type) {
	case []any:
		listed = true
		fx := song.Effects(0)
		for _, e := range v {
			name, _ := e.(string)
			i := nameIndex(song.EffectNames, name)
			if i < 0 {
				st.d.warnf("unknown effect %q", name)
				continue
			}
			fx = fx.With(song.EffectType(i))
		}
		ins.Effects = fx
	default:
		// Older documents named a fixed effect combination and implied the
		// rest from which settings were present.
		if name, ok := v.(string); ok {
			if i := nameIndex(legacyEffectNames, name); i >= 0 {
				ins.Effects |= legacyEffectMasks[i]
				if ins.Effects.Has(song.EffectReverb) && !o.has("reverb") {
					ins.Reverb = st.s.Reverb
				}
			}
		}
		if o.has("vibrato") {
			ins.Effects = ins.Effects.With(song.EffectVibrato)
		}
	}

	if name, ok := o.str("transition"); ok {
		st.transition(name, ins)
	}
	if name, ok := o.str("chord"); ok {
		if renamed, ok := oldChordNames[name]; ok {
			name = renamed
		}
		if i := nameIndex(song.Chords, name); i >= 0 {
			ins.Chord = song.ChordType(i)
		} else {
			st.d.warnf("unknown chord %q", name)
		}
	}
	if o.has("noteFilter") {
		st.filter(&ins.NoteFilter, o.array("noteFilter"))
	}
	st.subFilters(o, "noteSubFilters", &ins.NoteSubFilters)
	ins.NoteFilterType = o.boolOr("noteFilterType", ins.NoteFilterType)
	ins.NoteFilterSimpleCut = o.intIn("noteSimpleCut", 0, song.FilterSimpleCutRange-1, ins.NoteFilterSimpleCut)
	ins.NoteFilterSimplePeak = o.intIn("noteSimplePeak", 0, song.FilterSimplePeakRange-1, ins.NoteFilterSimplePeak)

	if !listed {
		ins.Effects = inferred(ins.Effects, song.EffectTransition, ins.Transition != song.TransitionNormal)
		ins.Effects = inferred(ins.Effects, song.EffectChord, ins.Chord != song.ChordSimultaneous)
	}
	ins.ArpeggioSpeed = o.intIn("arpeggioSpeed", 0, song.ArpSpeedMax, ins.ArpeggioSpeed)
	ins.FastTwoNoteArp = o.boolOr("fastTwoNoteArp", ins.FastTwoNoteArp)
	ins.MonoChordTone = o.intIn("monoChordTone", 0, song.MonoChordToneMax, ins.MonoChordTone)

	ins.PitchShift = song.PitchShiftCenter + o.intIn("pitchShiftSemitones",
		-song.PitchShiftCenter, song.PitchShiftRange-1-song.PitchShiftCenter, ins.PitchShift-song.PitchShiftCenter)
	ins.Detune = song.DetuneCenter + o.intIn("detuneCents",
		song.DetuneMin-song.DetuneCenter, song.DetuneMax-song.DetuneCenter, ins.Detune-song.DetuneCenter)

	if name, ok := o.str("vibrato"); ok {
		switch i := nameIndex(vibratoNames(), name); {
		case name == "custom":
			ins.SetVibrato(song.CustomVibrato)
			ins.VibratoDepth = o.floatIn("vibratoDepth", 0, song.VibratoDepthMax, ins.VibratoDepth)
			ins.VibratoSpeed = o.intIn("vibratoSpeed", 0, song.VibratoSpeedMax, ins.VibratoSpeed)
			ins.VibratoDelay = o.floatIn("vibratoDelay", 0, song.VibratoDelayMax, ins.VibratoDelay)
			ins.VibratoType = o.intIn("vibratoType", 0, song.VibratoTypeCount-1, ins.VibratoType)
		case i >= 0:
			ins.SetVibrato(i)
		default:
			st.d.warnf("unknown vibrato %q", name)
		}
	}

	ins.Distortion = o.intIn("distortion", 0, song.DistortionRange-1, ins.Distortion)
	ins.Aliases = o.boolOr("aliases", ins.Aliases)
	ins.BitcrusherFreq = o.intIn("bitcrusherOctave", 0, song.BitcrusherFreqRange-1, ins.BitcrusherFreq)
	ins.BitcrusherQuantization = o.intIn("bitcrusherQuantization", 0, song.BitcrusherQuantizationRange-1, ins.BitcrusherQuantization)
	ins.Pan = o.intIn("pan", 0, song.PanMax, ins.Pan)
	ins.PanDelay = o.intIn("panDelay", 0, song.PanDelayMax, ins.PanDelay)
	ins.Chorus = o.intIn("chorus", 0, song.ChorusRange-1, ins.Chorus)
	ins.EchoSustain = o.intIn("echoSustain", 0, song.EchoSustainRange-1, ins.EchoSustain)
	ins.EchoDelay = o.intIn("echoDelay", 0, song.EchoDelayRange-1, ins.EchoDelay)
	ins.Reverb = o.intIn("reverb", 0, song.ReverbRange-1, ins.Reverb)

	ins.RingModulation = o.intIn("ringMod", 0, song.RingModRange-1, ins.RingModulation)
	ins.RingModulationHz = o.intIn("ringModHz", 0, song.RingModHzRange-1, ins.RingModulationHz)
	ins.RingModWaveformIndex = o.intIn("ringModWaveformIndex", 0, len(song.OperatorWaves)-1, ins.RingModWaveformIndex)
	ins.RingModPulseWidth = o.intIn("ringModPulseWidth", 0, song.RingModPulseWidthMax, ins.RingModPulseWidth)
	ins.RingModHzOffset = o.intIn("ringModHzOffset", song.RingModHzOffsetMin, song.RingModHzOffsetMax, ins.RingModHzOffset)

	ins.Granular = o.intIn("granular", 0, song.GranularRange, ins.Granular)
	if size, ok := o.float("grainSize"); ok {
		steps := int(math.Round(size / song.GrainSizeStep))
		ins.GrainSize = clamp(song.GrainSizeMin, song.GrainSizeMax, steps*song.GrainSizeStep)
	}
	ins.GrainAmounts = o.intIn("grainAmounts", 1, song.GrainAmountsMax, ins.GrainAmounts)
	ins.GrainRange = o.intIn("grainRange", 0, song.GrainRangeMax, ins.GrainRange)
}

func inferred(fx song.Effects, t song.EffectType, on bool) song.Effects {
	if on {
		return fx.With(t)
	}
	return fx.Without(t)
}

func vibratoNames() []string {
	names := make([]string, len(song.Vibratos))
	for i, v := range song.Vibratos {
		names[i] = v.Name
	}
	return names
}

// transition reads a transition name. Old transition names also chose the
// fade in and fade out, which now live in their own settings.
func (st *decodeState) transition(name string, ins *song.Instrument) {
	if i := nameIndex(song.Transitions, name); i >= 0 {
		ins.Transition = song.TransitionType(i)
		return
	}
	for _, lt := range legacyTransitions {
		if lt.name != name {
			continue
		}
		ins.Transition = lt.transition
		ins.FadeIn = song.FadeInSetting(lt.fadeInSeconds)
		ins.FadeOut = song.FadeOutSetting(lt.fadeOutTicks)
		if lt.transition != song.TransitionNormal {
			ins.Effects = ins.Effects.With(song.EffectTransition)
		}
		return
	}
	st.d.warnf("unknown transition %q", name)
}

func (st *decodeState) chipWave(o object, ins *song.Instrument) {
	name, ok := o.str("wave")
	if !ok {
		return
	}
	if i := st.waveIndex(name); i >= 0 {
		ins.ChipWave = i
		return
	}
	st.d.warnf("unknown chip wave %q", name)
}

// waveIndex looks a wave up by name. Old names, the fork prefixes older
// documents left out and misspelt doubled letters are tried in turn.
func (st *decodeState) waveIndex(name string) int {
	waves := st.d.waves
	if i := waves.WaveIndex(name); i >= 0 {
		return i
	}
	if renamed, ok := legacyWaveNames[name]; ok {
		return waves.WaveIndex(renamed)
	}
	for _, prefix := range wavePrefixes {
		if i := waves.WaveIndex(prefix + name); i >= 0 {
			return i
		}
	}
	want := collapseRepeats(name)
	for i := 0; i < waves.WaveCount(); i++ {
		wave := waves.WaveName(i)
		if collapseRepeats(wave) == want {
			return i
		}
		for _, prefix := range wavePrefixes {
			if strings.HasPrefix(wave, prefix) && collapseRepeats(wave[len(prefix):]) == want {
				return i
			}
		}
	}
	return -1
}

func (st *decodeState) loopControls(o object, ins *song.Instrument) {
	ins.IsUsingAdvancedLoopControls = o.boolOr("isUsingAdvancedLoopControls", false)
	ins.ChipWaveLoopStart = o.intIn("chipWaveLoopStart", 0, song.ChipWaveLoopPointMax, ins.ChipWaveLoopStart)
	ins.ChipWaveLoopEnd = o.intIn("chipWaveLoopEnd", 0, song.ChipWaveLoopPointMax, ins.ChipWaveLoopEnd)
	if name, ok := o.str("chipWaveLoopMode"); ok {
		if i := nameIndex(song.ChipWaveLoopModes, name); i >= 0 {
			ins.ChipWaveLoopMode = i
		}
	}
	ins.ChipWavePlayBackwards = o.boolOr("chipWavePlayBackwards", false)
	ins.ChipWaveStartOffset = o.intIn("chipWaveStartOffset", 0, song.ChipWaveLoopPointMax, ins.ChipWaveStartOffset)
}

func (st *decodeState) unison(o object, ins *song.Instrument) {
	name, ok := o.str("unison")
	if !ok {
		return
	}
	if name == "custom" {
		ins.SetUnison(song.CustomUnison)
		ins.UnisonVoices = o.intIn("unisonVoices", 1, song.UnisonVoicesMax, ins.UnisonVoices)
		ins.UnisonSpread = o.floatIn("unisonSpread", -song.UnisonSpreadMax, song.UnisonSpreadMax, ins.UnisonSpread)
		ins.UnisonOffset = o.floatIn("unisonOffset", -song.UnisonOffsetMax, song.UnisonOffsetMax, ins.UnisonOffset)
		ins.UnisonExpression = o.floatIn("unisonExpression", 0, song.UnisonExpressionMax, ins.UnisonExpression)
		ins.UnisonSign = o.floatIn("unisonSign", -song.UnisonSignMax, song.UnisonSignMax, ins.UnisonSign)
		return
	}
	for i, u := range song.Unisons {
		if u.Name == name {
			ins.SetUnison(i)
			return
		}
	}
	st.d.warnf("unknown unison %q", name)
}

func (st *decodeState) pulseWidth(o object, ins *song.Instrument) {
	ins.PulseWidth = o.intIn("pulseWidth", 0, song.PulseWidthRange, ins.PulseWidth)
	ins.DecimalOffset = o.intIn("decimalOffset", 0, song.DecimalOffsetMax, ins.DecimalOffset)
}

func (st *decodeState) fm(o object, ins *song.Instrument) {
	six := ins.Type == song.InstrumentFM6Op
	if name, ok := o.str("algorithm"); ok {
		if six {
			st.sixOpAlgorithm(o, ins, name)
		} else if i := algorithmIndex(song.Algorithms, name); i >= 0 {
			ins.Algorithm = i
		} else {
			st.d.warnf("unknown algorithm %q", name)
		}
	}
	if name, ok := o.str("feedbackType"); ok {
		if six {
			st.sixOpFeedback(o, ins, name)
		} else if i := feedbackIndex(song.Feedbacks, name); i >= 0 {
			ins.FeedbackType = i
		} else {
			st.d.warnf("unknown feedback %q", name)
		}
	}
	ins.FeedbackAmplitude = o.intIn("feedbackAmplitude", 0, song.OperatorAmplitudeMax, ins.FeedbackAmplitude)

	for i, v := range o.array("operators") {
		op, ok := asObject(v)
		if !ok || i >= ins.Type.OperatorCount() {
			continue
		}
		dst := &ins.Operators[i]
		if name, ok := op.str("frequency"); ok {
			if f := nameIndex(song.OperatorFrequencies, name); f >= 0 {
				dst.Frequency = f
			} else {
				st.d.warnf("unknown operator frequency %q", name)
			}
		}
		dst.Amplitude = op.intIn("amplitude", 0, song.OperatorAmplitudeMax, dst.Amplitude)
		if name, ok := op.str("waveform"); ok {
			if w := nameIndex(song.OperatorWaves, name); w >= 0 {
				dst.Waveform = w
			}
		}
		dst.PulseWidth = op.intIn("pulseWidth", 0, song.OperatorPulseWidths-1, dst.PulseWidth)
	}
}

func (st *decodeState) sixOpAlgorithm(o object, ins *song.Instrument, name string) {
	i := algorithmIndex(song.SixOpAlgorithms, name)
	if i < 0 {
		st.d.warnf("unknown algorithm %q", name)
		return
	}
	ins.Algorithm6Op = i
	ins.CustomAlgorithm = song.AlgorithmFromPreset(i)
	if i != 0 {
		return
	}
	if custom, ok := o.object("customAlgorithm"); ok {
		ins.CustomAlgorithm.CarrierCount = custom.intIn("carrierCount", 1, song.SixOperatorCount, ins.CustomAlgorithm.CarrierCount)
		if custom.has("mods") {
			ins.CustomAlgorithm.ModulatedBy = routingRows(custom.array("mods"))
		}
	}
}

func (st *decodeState) sixOpFeedback(o object, ins *song.Instrument, name string) {
	i := feedbackIndex(song.SixOpFeedbacks, name)
	if i < 0 {
		st.d.warnf("unknown feedback %q", name)
		return
	}
	ins.Feedback6Op = i
	ins.CustomFeedback = song.FeedbackFromPreset(i)
	if i != 0 {
		return
	}
	if custom, ok := o.object("customFeedback"); ok && custom.has("mods") {
		ins.CustomFeedback.Indices = routingRows(custom.array("mods"))
	}
}

// routingRows reads one row of operator numbers per operator. Empty rows
// stay nil.
func routingRows(rows []any) [][]int {
	out := [][]int{}
	for _, v := range rows {
		if len(out) >= song.SixOperatorCount {
			break
		}
		row, _ := v.([]any)
		var ops []int
		for _, op := range row {
			if f, ok := op.(float64); ok {
				ops = append(ops, clamp(1, song.SixOperatorCount, int(math.Round(f))))
			}
		}
		out = append(out, ops)
	}
	return out
}

func algorithmIndex(list []song.Algorithm, name string) int {
	for i, a := range list {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func feedbackIndex(list []song.Feedback, name string) int {
	for i, f := range list {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (st *decodeState) envelopes(o object, ins *song.Instrument, isNoise bool) {
	if !o.has("envelopes") {
		return
	}
	ins.Envelopes = nil
	for i, v := range o.array("envelopes") {
		eo, ok := asObject(v)
		if !ok {
			continue
		}
		if len(ins.Envelopes) >= song.MaxEnvelopeCount {
			st.d.warnf("dropping envelopes past %d", song.MaxEnvelopeCount)
			return
		}
		targetName, _ := eo.str("target")
		target := song.TargetIndex(targetName)
		if target < 0 {
			st.d.warnf("envelope %d has unknown target %q", i, targetName)
			continue
		}
		index := eo.intIn("index", 0, song.EnvelopeTargets[target].MaxCount-1, 0)

		shapeName, _ := eo.str("envelope")
		if shape := nameIndex(song.EnvelopeShapes, shapeName); shape >= 0 {
			ins.AddEnvelope(envelope(eo, target, index, song.EnvelopeShape(shape), isNoise))
		} else if legacy, ok := legacyEnvelope(eo, "envelope"); ok {
			ins.AddEnvelope(song.FromLegacy(target, index, legacy, isNoise))
		} else {
			st.d.warnf("envelope %d has unknown shape %q", i, shapeName)
		}
	}
}

func envelope(o object, target, index int, shape song.EnvelopeShape, isNoise bool) song.EnvelopeSettings {
	e := song.NewEnvelope(target, index, shape, isNoise)
	e.Inverse = o.boolOr("inverse", false)
	e.Discrete = o.boolOr("discrete", false)
	if shape.HasSpeed() {
		e.Speed = o.floatIn("envelopeSpeed", 0, song.EnvelopeSpeeds[len(song.EnvelopeSpeeds)-1], e.Speed)
	}
	e.LowerBound = o.floatIn("lowerBound", 0, song.EnvelopeBoundMax, e.LowerBound)
	e.UpperBound = o.floatIn("upperBound", 0, song.EnvelopeBoundMax, e.UpperBound)

	switch shape {
	case song.EnvelopePitch:
		maxPitch := song.MaxPitch
		if isNoise {
			maxPitch = song.DrumCount - 1
		}
		e.PitchStart = o.intIn("pitchEnvelopeStart", 0, maxPitch, e.PitchStart)
		e.PitchEnd = o.intIn("pitchEnvelopeEnd", 0, maxPitch, e.PitchEnd)
	case song.EnvelopeRandom:
		e.Steps = o.intIn("steps", 1, song.RandomEnvelopeStepsMax, e.Steps)
		e.Seed = o.intIn("seed", 0, song.RandomEnvelopeSeedMax, e.Seed)
		if name, ok := o.str("waveform"); ok {
			if w := nameIndex(song.RandomEnvelopeTypes, name); w >= 0 {
				e.Waveform = w
			}
		}
	case song.EnvelopeLFO:
		if name, ok := o.str("waveform"); ok {
			if w := nameIndex(song.LFOWaveforms, name); w >= 0 {
				e.Waveform = w
			}
		}
		e.Steps = o.intIn("steps", 1, song.LFOEnvelopeStepsMax, e.Steps)
	}
	return e
}

func (st *decodeState) mod(o object, ins *song.Instrument) {
	channels := len(st.s.Channels)
	for i, v := range o.ints("modChannels") {
		if i < song.ModCount {
			ins.ModChannels[i] = clamp(-2, channels-1, v)
		}
	}
	for i, v := range o.ints("modInstruments") {
		if i < song.ModCount {
			ins.ModInstruments[i] = clamp(0, song.PatternInstrumentCountMax+1, v)
		}
	}
	for i, v := range o.array("modSettings") {
		if i >= song.ModCount {
			break
		}
		name, _ := v.(string)
		m := -1
		for j, mod := range song.Modulators {
			if mod.Name == name {
				m = j
				break
			}
		}
		if m < 0 {
			st.d.warnf("unknown modulator %q", name)
			m = song.ModNone
		}
		ins.ModSettings[i] = m
	}
	for i, v := range o.ints("modFilterTypes") {
		if i < song.ModCount {
			ins.ModFilterTypes[i] = clamp(0, 2*song.FilterMaxPoints, v)
		}
	}
	for i, v := range o.ints("modEnvelopeNumbers") {
		if i < song.ModCount {
			ins.ModEnvelopeNumbers[i] = clamp(0, song.MaxEnvelopeCount-1, v)
		}
	}
}

// fromPercents reads control points written as percentages of max.
func fromPercents(dst []int, values []any, maxValue int) {
	for i, v := range values {
		f, ok := v.(float64)
		if !ok || i >= len(dst) {
			continue
		}
		dst[i] = clamp(0, maxValue, int(math.Round(f*float64(maxValue)/100)))
	}
}
