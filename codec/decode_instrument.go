package codec

import (
	"math"

	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
)

// startInstrument moves to the next instrument and resets it to the defaults
// of the type that follows.
func (st *decodeState) startInstrument() {
	s := st.song
	st.instrument++
	if st.channel < len(s.Channels) && st.instrument >= len(s.Channels[st.channel].Instruments) {
		st.channel++
		st.instrument = 0
	}
	ch, ok := st.channelAt(st.channel)
	v := st.read()
	if !ok || st.err != nil {
		return
	}

	switch {
	case st.c.typeShiftTwo && (v == 7 || v == 8):
		v += 2
	case st.c.typeShiftOne && (v == 8 || v == 9):
		v++
	}
	t := song.InstrumentType(clampInt(0, int(song.InstrumentTypeCount)-1, v))
	isNoise := ch.Type == song.NoiseChannel
	isMod := ch.Type == song.ModChannel
	if t == song.InstrumentMod && !isMod {
		t = s.NewInstrumentFor(ch.Type).Type
	}

	ins := ch.Instruments[st.instrument]
	ins.Reset(t, isNoise, isMod)

	if st.c.antiAliasing {
		switch t {
		case song.InstrumentChip, song.InstrumentCustomChipWave, song.InstrumentPWM:
			ins.Aliases = true
			ins.Distortion = 0
			ins.Effects = ins.Effects.With(song.EffectDistortion)
		}
	}
	if st.slowerArp {
		ins.ArpeggioSpeed = legacySlowArpSpeed
	}
	if st.fastTwoNoteArp {
		ins.FastTwoNoteArp = true
	}
	if st.c.effectsFromChord {
		ins.Effects = 0
		if ins.Chord != song.ChordSimultaneous {
			ins.Effects = ins.Effects.With(song.EffectChord)
		}
	}
	if st.c.legacySettings {
		st.legacy.reset(st.channel, st.instrument)
		st.convertLegacy(ch, st.channel, st.instrument, ins)
	}
}

// legacyVolume converts the old 0 (loudest) to 7 volume slider.
func legacyVolume(v int) int {
	return int(math.Round(-float64(clampInt(0, 8, v)) * 25 / 7))
}

func (st *decodeState) volume() {
	st.eachTarget(func(ch *song.Channel, ci, ii int, ins *song.Instrument) {
		if st.c.bb || st.c.jbBefore3 {
			ins.Volume = legacyVolume(st.read())
			return
		}
		ins.Volume = clampInt(-song.VolumeRange/2, song.VolumeRange/2, st.read2()-song.VolumeRange/2)
	})
}

func (st *decodeState) preset() {
	_, ins, ok := st.current()
	v := st.read2()
	if ok {
		ins.Preset = v
	}
}

func (st *decodeState) wave() {
	st.eachTarget(func(ch *song.Channel, ci, ii int, ins *song.Instrument) {
		v := st.read()
		if ins.Type == song.InstrumentNoise {
			ins.ChipNoise = clampInt(0, len(song.NoiseWaves)-1, v)
			return
		}
		switch {
		case st.c.extendedChipWave:
			v += chipWaveBankSize * clampInt(0, 3, st.read())
		case st.c.bbBefore3:
			v = samples.LegacyWaveIndex[clampInt(0, len(samples.LegacyWaveIndex)-1, v)]
		}
		ins.ChipWave = clampInt(0, st.waves.WaveCount()-1, v)
	})
}

// legacyFilterChoice reads the single filter slider of the first versions,
// which picked a cutoff and a decay together.
func (st *decodeState) legacyFilterChoice() {
	st.eachTarget(func(ch *song.Channel, ci, ii int, ins *song.Instrument) {
		v := st.read()
		var choice int
		if st.c.bbBefore3 {
			choice = oldestFilters[clampInt(0, len(oldestFilters)-1, v)]
		} else {
			choice = clampInt(0, len(legacyToCutoff)-1, v)
		}
		legacy := st.legacy.at(ci, ii)
		legacy.SetFilterCutoff(legacyToCutoff[choice])
		legacy.SetFilterResonance(0)
		legacy.SetFilterEnvelope(song.LegacyEnvelopeNamed(legacyToEnvelope[choice]))
		st.convertLegacy(ch, ci, ii, ins)
	})
}

func (st *decodeState) legacyFilterCutoff() {
	ch, ins, ok := st.current()
	v := clampInt(0, legacyCutoffMax, st.read())
	if !ok {
		return
	}
	st.legacy.at(st.channel, st.instrument).SetFilterCutoff(v)
	st.convertLegacy(ch, st.channel, st.instrument, ins)
}

const (
	legacyCutoffMax    = 10
	legacyResonanceMax = 7
)

func (st *decodeState) legacyFilterResonance() {
	ch, ins, ok := st.current()
	v := clampInt(0, legacyResonanceMax, st.read())
	if !ok {
		return
	}
	st.legacy.at(st.channel, st.instrument).SetFilterResonance(v)
	st.convertLegacy(ch, st.channel, st.instrument, ins)
}

func (st *decodeState) eqFilter() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	st.instrumentFilter(&ins.EqFilterType, &ins.EqFilterSimpleCut, &ins.EqFilterSimplePeak, &ins.EqFilter, &ins.EqSubFilters)
}

// instrumentFilter reads a filter that may be in simple cut/peak mode.
func (st *decodeState) instrumentFilter(simple *bool, cut, peak *int, f *song.FilterSettings, subs *[song.FilterMorphCount - 1]*song.FilterSettings) {
	if st.c.filterTypeCheck {
		*simple = st.flag()
		if *simple {
			*cut = clampInt(0, song.FilterSimpleCutRange-1, st.read())
			*peak = clampInt(0, song.FilterSimplePeakRange-1, st.read())
			return
		}
	} else {
		*simple = false
	}
	st.filter(f)
	if st.c.subFilters {
		st.subFilters(subs)
	}
}

func (st *decodeState) drumsetEnvelopes() {
	ch, ins, ok := st.current()
	if !ok {
		return
	}
	if ins.Type == song.InstrumentDrumset {
		for i := range ins.DrumsetEnvelopes {
			ins.DrumsetEnvelopes[i] = legacyEnvelope(st.read(), st.c.pregoldDrumset)
		}
		return
	}
	env := legacyEnvelope(st.read(), st.c.pregoldEnvelopes)
	st.legacy.at(st.channel, st.instrument).SetFilterEnvelope(env)
	st.convertLegacy(ch, st.channel, st.instrument, ins)
}

func (st *decodeState) legacyTransition() {
	st.eachTarget(func(ch *song.Channel, ci, ii int, ins *song.Instrument) {
		legacyTransitions[clampInt(0, len(legacyTransitions)-1, st.read())].apply(ins)
	})
}

// legacyTransitionTieOver also remembers whether the transition tied notes
// over from the previous pattern.
func (st *decodeState) legacyTransitionTieOver() {
	_, ins, ok := st.current()
	t := legacyTransitions[clampInt(0, len(legacyTransitions)-1, st.read())]
	if !ok {
		return
	}
	t.apply(ins)
	if st.c.legacyTieOver {
		st.tieOver[[2]int{st.channel, st.instrument}] = t.tiesOver
	}
}

func (st *decodeState) fadeInOut() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	ins.FadeIn = clampInt(0, song.FadeInRange-1, st.read())
	ins.FadeOut = clampInt(0, len(song.FadeOutTicks)-1, st.read())
	if st.c.clicklessSymbol {
		ins.ClicklessTransition = st.flag()
	}
}

// legacyEffectPreset reads the effect list of BeepBox 7 and 8: none, reverb,
// chorus, or both.
func (st *decodeState) legacyEffectPreset() {
	ch, ins, ok := st.current()
	v := clampInt(0, 3, st.read())
	if !ok {
		return
	}
	ins.Effects &^= legacyEffectMask
	if v&1 != 0 {
		ins.Effects = ins.Effects.With(song.EffectReverb)
	}
	if v&2 != 0 {
		ins.Effects = ins.Effects.With(song.EffectChorus)
	}
	st.finishLegacyEffects(ch, ins)
}

func (st *decodeState) legacyEffects() {
	ch, ins, ok := st.current()
	v := song.Effects(st.read())
	if !ok {
		return
	}
	ins.Effects = ins.Effects&^legacyEffectMask | v&legacyEffectMask
	st.finishLegacyEffects(ch, ins)
}

// finishLegacyEffects turns on the effects old instruments had implicitly
// and moves the song reverb onto the instrument.
func (st *decodeState) finishLegacyEffects(ch *song.Channel, ins *song.Instrument) {
	if st.legacyGlobalReverb == 0 && !st.c.jumfive {
		ins.Effects = ins.Effects.Without(song.EffectReverb)
	} else if ins.Effects.Has(song.EffectReverb) {
		ins.Reverb = st.legacyGlobalReverb
	}
	ins.Effects = ins.Effects.With(song.EffectPanning)
	if ins.Vibrato != 0 {
		ins.Effects = ins.Effects.With(song.EffectVibrato)
	}
	if ins.Detune != song.DetuneCenter {
		ins.Effects = ins.Effects.With(song.EffectDetune)
	}
	if ins.Aliases {
		ins.Effects = ins.Effects.With(song.EffectDistortion)
	} else {
		ins.Effects = ins.Effects.Without(song.EffectDistortion)
	}
	st.convertLegacy(ch, st.channel, st.instrument, ins)
}

func (st *decodeState) effects() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	n := 2
	if st.c.threeSymbolEffects {
		n = 3
	}
	ins.Effects = song.Effects(st.readN(n)) & (1<<song.EffectTypeCount - 1)
	if !st.c.ringModulation {
		ins.Effects = ins.Effects.Without(song.EffectRingModulation)
	}
	if !st.c.granular {
		ins.Effects = ins.Effects.Without(song.EffectGranular)
	}
	fx := ins.Effects
	bb := st.c.bb

	if fx.Has(song.EffectNoteFilter) {
		st.instrumentFilter(&ins.NoteFilterType, &ins.NoteFilterSimpleCut, &ins.NoteFilterSimplePeak, &ins.NoteFilter, &ins.NoteSubFilters)
	}
	if fx.Has(song.EffectTransition) {
		ins.Transition = song.TransitionType(clampInt(0, len(song.Transitions)-1, st.read()))
	}
	if fx.Has(song.EffectChord) {
		ins.Chord = song.ChordType(clampInt(0, len(song.Chords)-1, st.read()))
		switch {
		case ins.Chord == song.ChordArpeggio && st.c.arpSpeed:
			ins.ArpeggioSpeed = clampInt(0, song.ArpSpeedMax, st.read())
			ins.FastTwoNoteArp = st.flag()
		case ins.Chord == song.ChordMonophonic && st.c.monoChordTone:
			ins.MonoChordTone = clampInt(0, song.MonoChordToneMax, st.read())
		}
	}
	if fx.Has(song.EffectPitchShift) {
		ins.PitchShift = clampInt(0, song.PitchShiftRange-1, st.read())
	}
	if fx.Has(song.EffectDetune) {
		if bb {
			// Old detune steps grew quadratically away from the center.
			d := st.read() - 9
			ins.Detune = d*(abs(d)+1)/2 + song.DetuneCenter
		} else {
			ins.Detune = st.read2()
		}
		ins.Detune = clampInt(song.DetuneMin, song.DetuneMax, ins.Detune)
	}
	if fx.Has(song.EffectVibrato) {
		ins.SetVibrato(clampInt(0, song.CustomVibrato, st.read()))
		if ins.Vibrato == song.CustomVibrato {
			if st.c.customVibrato {
				ins.VibratoDepth = clampFloat(0, song.VibratoDepthMax, float64(st.read())/vibratoDepthScale)
				ins.VibratoSpeed = clampInt(0, song.VibratoSpeedMax, st.read())
				ins.VibratoDelay = float64(clampInt(0, song.VibratoDelayMax, st.read()))
				ins.VibratoType = clampInt(0, song.VibratoTypeCount-1, st.read())
			} else {
				ins.SetVibrato(0)
			}
		}
	}
	if fx.Has(song.EffectDistortion) {
		ins.Distortion = clampInt(0, song.DistortionRange-1, st.read())
		if st.c.aliasesInDistortion {
			ins.Aliases = st.flag()
		}
	}
	if fx.Has(song.EffectBitcrusher) {
		ins.BitcrusherFreq = clampInt(0, song.BitcrusherFreqRange-1, st.read())
		ins.BitcrusherQuantization = clampInt(0, song.BitcrusherQuantizationRange-1, st.read())
	}
	if fx.Has(song.EffectPanning) {
		if bb {
			ins.Pan = clampInt(0, song.PanMax, int(math.Round(float64(st.read())*song.PanMax/8)))
		} else {
			ins.Pan = clampInt(0, song.PanMax, st.read2())
		}
		if st.c.panDelay {
			ins.PanDelay = clampInt(0, song.PanDelayMax, st.read())
		}
	}
	if fx.Has(song.EffectChorus) {
		if bb {
			ins.Chorus = clampInt(0, song.ChorusRange-1, st.read()*2)
		} else {
			ins.Chorus = clampInt(0, song.ChorusRange-1, st.read())
		}
	}
	if fx.Has(song.EffectEcho) {
		ins.EchoSustain = clampInt(0, song.EchoSustainRange-1, st.read())
		ins.EchoDelay = clampInt(0, song.EchoDelayRange-1, st.read())
	}
	if fx.Has(song.EffectReverb) {
		if bb {
			ins.Reverb = clampInt(0, song.ReverbRange-1, int(math.Round(float64(st.read())*(song.ReverbRange-1)/3)))
		} else {
			ins.Reverb = clampInt(0, song.ReverbRange-1, st.read())
		}
	}
	if fx.Has(song.EffectRingModulation) {
		ins.RingModulation = clampInt(0, song.RingModRange-1, st.read())
		ins.RingModulationHz = clampInt(0, song.RingModHzRange-1, st.read())
		ins.RingModWaveformIndex = clampInt(0, len(song.OperatorWaves)-1, st.read())
		ins.RingModPulseWidth = clampInt(0, song.RingModPulseWidthMax, st.read())
		if st.c.sb {
			ins.RingModHzOffset = clampInt(song.RingModHzOffsetMin, song.RingModHzOffsetMax, st.read2()+song.RingModHzOffsetMin)
		}
	}
	if fx.Has(song.EffectGranular) {
		ins.Granular = clampInt(0, song.GranularRange, st.read2())
		ins.GrainSize = clampInt(song.GrainSizeMin, song.GrainSizeMax, st.read()*song.GrainSizeStep)
		ins.GrainAmounts = clampInt(1, song.GrainAmountsMax, st.read())
		ins.GrainRange = clampInt(0, song.GrainRangeMax, st.read2())
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (st *decodeState) chord() {
	_, ins, ok := st.current()
	v := clampInt(0, len(song.Chords)-1, st.read())
	if !ok {
		return
	}
	ins.Chord = song.ChordType(v)
	if ins.Chord != song.ChordSimultaneous {
		ins.Effects = ins.Effects.With(song.EffectChord)
	}
}

func (st *decodeState) detune() {
	_, ins, ok := st.current()
	v := clampInt(song.DetuneMin, song.DetuneMax, st.read2())
	if !ok {
		return
	}
	ins.Detune = v
	if v != song.DetuneCenter {
		ins.Effects = ins.Effects.With(song.EffectDetune)
	}
}

func (st *decodeState) pan() {
	st.eachTarget(func(ch *song.Channel, ci, ii int, ins *song.Instrument) {
		if st.c.bb {
			ins.Pan = clampInt(0, song.PanMax, int(math.Round(float64(st.read())*song.PanMax/8)))
		} else {
			ins.Pan = clampInt(0, song.PanMax, st.read2())
			if st.c.legacyPanDelay {
				ins.PanDelay = clampInt(0, song.PanDelayMax, st.read())
			}
		}
		ins.Effects = ins.Effects.With(song.EffectPanning)
	})
}

func (st *decodeState) arpeggioSpeed() {
	_, ins, ok := st.current()
	speed := clampInt(0, song.ArpSpeedMax, st.read())
	fast := st.flag()
	if ok {
		ins.ArpeggioSpeed = speed
		ins.FastTwoNoteArp = fast
	}
}

func (st *decodeState) aliases() {
	_, ins, ok := st.current()
	v := st.flag()
	if !ok {
		return
	}
	ins.Aliases = v
	if v {
		ins.Distortion = 0
		ins.Effects = ins.Effects.With(song.EffectDistortion)
	}
}

func (st *decodeState) legacyDecimalOffsetTag() {
	_, ins, ok := st.current()
	v := clampInt(0, song.DecimalOffsetMax, st.read2())
	if ok {
		ins.DecimalOffset = v
	}
}

func (st *decodeState) feedbackEnvelope() {
	ch, ins, ok := st.current()
	env := legacyEnvelope(st.read(), st.c.pregoldEnvelopes)
	if !ok {
		return
	}
	st.legacy.at(st.channel, st.instrument).SetFeedbackEnvelope(env)
	st.convertLegacy(ch, st.channel, st.instrument, ins)
}

func (st *decodeState) legacyPulseWidth() {
	ch, ins, ok := st.current()
	v := st.read()
	env := legacyEnvelope(st.read(), st.c.pregoldEnvelopes)
	if !ok {
		return
	}
	if st.c.bb {
		// Eight steps, each half an octave of duty cycle.
		v = int(math.Round(math.Pow(0.5, float64(7-clampInt(0, 7, v))*0.5) * song.PulseWidthRange))
	}
	ins.PulseWidth = clampInt(0, song.PulseWidthRange, v)
	st.legacy.at(st.channel, st.instrument).SetPulseEnvelope(env)
	st.convertLegacy(ch, st.channel, st.instrument, ins)
}

func (st *decodeState) pulseWidth() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	ins.PulseWidth = clampInt(0, song.PulseWidthRange, st.read())
	if st.c.decimalOffset {
		ins.DecimalOffset = clampInt(0, song.DecimalOffsetMax, st.read2())
	}
}

func (st *decodeState) stringSustain() {
	_, ins, ok := st.current()
	v := st.read()
	if !ok {
		return
	}
	ins.StringSustain = clampInt(0, song.StringSustainRange-1, v&0x1f)
	if st.c.ub || st.c.sb {
		ins.StringSustainType = clampInt(0, song.StringSustainTypeCount-1, v>>5)
	}
}

// controlPoints reads a bit field of 3 bit control point values.
func (st *decodeState) controlPoints(points []int, bits, max int) {
	r := st.bitReader((len(points)*bits + 5) / 6)
	if r == nil {
		return
	}
	for i := range points {
		points[i] = clampInt(0, max, r.Read(bits))
	}
	st.checkReader(r)
}

func (st *decodeState) harmonics() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	st.controlPoints(ins.Harmonics[:], song.HarmonicsControlPointBits, song.HarmonicsMax)
}

func (st *decodeState) spectrum() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	if ins.Type != song.InstrumentDrumset {
		st.controlPoints(ins.Spectrum[:], song.SpectrumControlPointBits, song.SpectrumMax)
		return
	}
	all := make([]int, song.DrumCount*song.SpectrumControlPoints)
	st.controlPoints(all, song.SpectrumControlPointBits, song.SpectrumMax)
	for i := range ins.DrumsetSpectra {
		copy(ins.DrumsetSpectra[i][:], all[i*song.SpectrumControlPoints:])
	}
}

func (st *decodeState) customChipWave() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	for i := range ins.CustomChipWave {
		ins.CustomChipWave[i] = clampInt(-song.CustomChipWaveMax, song.CustomChipWaveMax, st.read()-song.CustomChipWaveMax)
	}
}

func (st *decodeState) supersaw() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	ins.SupersawDynamism = clampInt(0, song.SupersawDynamismMax, st.read())
	ins.SupersawSpread = clampInt(0, song.SupersawSpreadMax, st.read())
	ins.SupersawShape = clampInt(0, song.SupersawShapeMax, st.read())
}

func (st *decodeState) loopControls() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	mode := st.read()
	ins.IsUsingAdvancedLoopControls = mode&1 != 0
	ins.ChipWaveLoopMode = clampInt(0, song.ChipWaveLoopModeCount-1, mode>>1)
	ins.ChipWavePlayBackwards = st.flag()
	ins.ChipWaveLoopStart = st.readN(loopPointSymbols)
	ins.ChipWaveLoopEnd = st.readN(loopPointSymbols)
	ins.ChipWaveStartOffset = st.readN(loopPointSymbols)
}

func (st *decodeState) unison() {
	st.eachTarget(func(ch *song.Channel, ci, ii int, ins *song.Instrument) {
		highest := len(song.Unisons) - 1
		if st.c.customUnison {
			highest = song.CustomUnison
		}
		ins.SetUnison(clampInt(0, highest, st.read()))
		if ins.Unison != song.CustomUnison {
			return
		}
		ins.UnisonVoices = clampInt(1, song.UnisonVoicesMax, st.read())
		ins.UnisonSpread = st.signed(3, song.UnisonSpreadMax)
		ins.UnisonOffset = st.signed(3, song.UnisonOffsetMax)
		ins.UnisonExpression = st.signed(2, song.UnisonExpressionMax)
		ins.UnisonSign = st.signed(2, song.UnisonSignMax)
	})
}

// signed is the inverse of encoder.signed.
func (st *decodeState) signed(n int, limit float64) float64 {
	negative := st.flag()
	v := float64(st.readN(n)) / unisonScale
	if negative {
		v = -v
	}
	return clampFloat(-limit, limit, v)
}

// operatorEnvelopes reads the per operator envelope presets of old FM
// instruments.
func (st *decodeState) operatorEnvelopes() {
	ch, ins, ok := st.current()
	if !ok || !ins.Type.IsFM() {
		return
	}
	envs := make([]song.LegacyEnvelope, song.OperatorCount)
	for i := range envs {
		envs[i] = legacyEnvelope(st.read(), st.c.pregoldEnvelopes)
	}
	st.legacy.at(st.channel, st.instrument).OperatorEnvelopes = envs
	st.convertLegacy(ch, st.channel, st.instrument, ins)
}

// presetEnvelopes reads envelope lists whose entries are old presets.
func (st *decodeState) presetEnvelopes() {
	ch, ins, ok := st.current()
	if !ok {
		return
	}
	isNoise := ch.Type == song.NoiseChannel
	n := st.read()
	discrete := false
	if st.c.envelopeSpeed {
		ins.EnvelopeSpeed = clampInt(0, song.EnvelopeSpeedMax, st.read())
		discrete = st.flag()
	}
	ins.Envelopes = nil
	for i := 0; i < n && st.err == nil; i++ {
		target, index := st.envelopeTarget()
		e := song.FromLegacy(target, index, legacyEnvelope(st.read(), st.c.pregoldEnvelopes), isNoise)
		if st.c.ub {
			if e.Envelope == song.EnvelopePitch {
				e.PitchStart, e.PitchEnd = st.pitchBounds(isNoise)
			}
			e.Inverse = st.flag()
		}
		e.Discrete = discrete
		ins.AddEnvelope(e)
	}
}

func (st *decodeState) envelopeTarget() (target, index int) {
	target = clampInt(0, len(song.EnvelopeTargets)-1, st.read())
	if max := song.EnvelopeTargets[target].MaxCount; max > 1 {
		index = clampInt(0, max-1, st.read())
	}
	return target, index
}

func (st *decodeState) pitchBounds(isNoise bool) (start, end int) {
	if isNoise {
		return clampInt(0, song.DrumCount-1, st.read()), clampInt(0, song.DrumCount-1, st.read())
	}
	return clampInt(0, song.MaxPitch, st.read2()), clampInt(0, song.MaxPitch, st.read2())
}

// envelopes reads envelope lists that store each envelope's shape and
// parameters.
func (st *decodeState) envelopes() {
	ch, ins, ok := st.current()
	if !ok {
		return
	}
	isNoise := ch.Type == song.NoiseChannel
	n := st.read()
	ins.EnvelopeSpeed = clampInt(0, song.EnvelopeSpeedMax, st.read())
	ins.Envelopes = nil
	for i := 0; i < n && st.err == nil; i++ {
		target, index := st.envelopeTarget()
		shape := song.EnvelopeShape(clampInt(0, len(song.EnvelopeShapes)-1, st.read()))
		e := song.NewEnvelope(target, index, shape, isNoise)
		switch shape {
		case song.EnvelopePitch:
			e.PitchStart, e.PitchEnd = st.pitchBounds(isNoise)
		case song.EnvelopeRandom:
			e.Steps = clampInt(1, song.RandomEnvelopeStepsMax, st.read())
			e.Seed = clampInt(0, song.RandomEnvelopeSeedMax, st.read())
			e.Waveform = clampInt(0, song.RandomEnvelopeTypeCount-1, st.read())
		case song.EnvelopeLFO:
			e.Waveform = clampInt(0, len(song.LFOWaveforms)-1, st.read())
			if song.IsSteppedLFO(e.Waveform) {
				e.Steps = clampInt(1, song.LFOEnvelopeStepsMax, st.read())
			}
		}
		flags := st.read()
		e.Discrete = flags&(1<<1) != 0
		e.Inverse = flags&1 != 0
		if shape.HasSpeed() {
			e.Speed = song.EnvelopeSpeeds[clampInt(0, len(song.EnvelopeSpeeds)-1, st.read())]
		}
		e.LowerBound = clampFloat(0, song.EnvelopeBoundMax, float64(st.read())/envelopeBoundScale)
		e.UpperBound = clampFloat(0, song.EnvelopeBoundMax, float64(st.read())/envelopeBoundScale)
		ins.AddEnvelope(e)
	}
}
