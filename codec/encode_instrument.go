package codec

import (
	"math"

	"github.com/QEStudios/boxcodec/codec/bitfield"
	"github.com/QEStudios/boxcodec/song"
	"github.com/pkg/errors"
)

func (e *encoder) instrument(ch *song.Channel, ins *song.Instrument) error {
	if ins.Type < 0 || ins.Type >= song.InstrumentTypeCount {
		return errors.Wrapf(ErrUnknownInstrumentType, "type %d", int(ins.Type))
	}
	isNoise := ch.Type == song.NoiseChannel

	e.tag(tagStartInstrument)
	e.sym(int(ins.Type))
	e.tag(tagVolume)
	e.sym2(ins.Volume + song.VolumeRange/2)
	e.tag(tagPreset)
	e.sym2(ins.Preset)
	if ins.Type == song.InstrumentMod {
		return nil
	}

	e.tag(tagEqFilter)
	e.instrumentFilter(ins.EqFilterType, ins.EqFilterSimpleCut, ins.EqFilterSimplePeak, &ins.EqFilter, &ins.EqSubFilters)

	e.tag(tagEffects)
	e.symN(3, int(ins.Effects))
	e.effects(ins)

	if ins.Type != song.InstrumentDrumset {
		e.tag(tagFadeInOut)
		e.sym(ins.FadeIn)
		e.sym(ins.FadeOut)
		e.flag(ins.ClicklessTransition)
	}

	switch ins.Type {
	case song.InstrumentChip:
		e.chipWave(ins.ChipWave)
		e.loopControls(ins)
		e.unison(ins)
	case song.InstrumentCustomChipWave:
		e.chipWave(ins.ChipWave)
		e.tag(tagCustomChipWave)
		for _, v := range ins.CustomChipWave {
			e.sym(v + song.CustomChipWaveMax)
		}
		e.unison(ins)
	case song.InstrumentFM, song.InstrumentFM6Op:
		e.fm(ins)
	case song.InstrumentNoise:
		e.tag(tagWave)
		e.sym(ins.ChipNoise)
	case song.InstrumentSpectrum:
		e.tag(tagSpectrum)
		e.bits(spectrumBits(ins.Spectrum[:]))
		e.unison(ins)
	case song.InstrumentDrumset:
		e.tag(tagDrumsetEnvelopes)
		for _, env := range ins.DrumsetEnvelopes {
			e.sym(int(env))
		}
		e.tag(tagSpectrum)
		var all []int
		for i := range ins.DrumsetSpectra {
			all = append(all, ins.DrumsetSpectra[i][:]...)
		}
		e.bits(spectrumBits(all))
	case song.InstrumentHarmonics:
		e.tag(tagHarmonics)
		e.bits(harmonicsBits(ins.Harmonics[:]))
		e.unison(ins)
	case song.InstrumentPWM:
		e.pulseWidth(ins)
		e.unison(ins)
	case song.InstrumentPickedString:
		e.tag(tagHarmonics)
		e.bits(harmonicsBits(ins.Harmonics[:]))
		e.tag(tagStringSustain)
		e.sym(ins.StringSustain | ins.StringSustainType<<5)
		e.unison(ins)
	case song.InstrumentSupersaw:
		e.tag(tagSupersaw)
		e.sym(ins.SupersawDynamism)
		e.sym(ins.SupersawSpread)
		e.sym(ins.SupersawShape)
		e.pulseWidth(ins)
	}

	e.envelopes(ins, isNoise)
	return nil
}

// effects writes the parameter block of every enabled effect, in bit order
// except for the note filter, transition and chord which lead.
func (e *encoder) effects(ins *song.Instrument) {
	fx := ins.Effects
	if fx.Has(song.EffectNoteFilter) {
		e.instrumentFilter(ins.NoteFilterType, ins.NoteFilterSimpleCut, ins.NoteFilterSimplePeak, &ins.NoteFilter, &ins.NoteSubFilters)
	}
	if fx.Has(song.EffectTransition) {
		e.sym(int(ins.Transition))
	}
	if fx.Has(song.EffectChord) {
		e.sym(int(ins.Chord))
		switch ins.Chord {
		case song.ChordArpeggio:
			e.sym(ins.ArpeggioSpeed)
			e.flag(ins.FastTwoNoteArp)
		case song.ChordMonophonic:
			e.sym(ins.MonoChordTone)
		}
	}
	if fx.Has(song.EffectPitchShift) {
		e.sym(ins.PitchShift)
	}
	if fx.Has(song.EffectDetune) {
		e.sym2(ins.Detune)
	}
	if fx.Has(song.EffectVibrato) {
		e.sym(ins.Vibrato)
		if ins.Vibrato == song.CustomVibrato {
			e.sym(int(math.Round(ins.VibratoDepth * vibratoDepthScale)))
			e.sym(ins.VibratoSpeed)
			e.sym(int(math.Round(ins.VibratoDelay)))
			e.sym(ins.VibratoType)
		}
	}
	if fx.Has(song.EffectDistortion) {
		e.sym(ins.Distortion)
		e.flag(ins.Aliases)
	}
	if fx.Has(song.EffectBitcrusher) {
		e.sym(ins.BitcrusherFreq)
		e.sym(ins.BitcrusherQuantization)
	}
	if fx.Has(song.EffectPanning) {
		e.sym2(ins.Pan)
		e.sym(ins.PanDelay)
	}
	if fx.Has(song.EffectChorus) {
		e.sym(ins.Chorus)
	}
	if fx.Has(song.EffectEcho) {
		e.sym(ins.EchoSustain)
		e.sym(ins.EchoDelay)
	}
	if fx.Has(song.EffectReverb) {
		e.sym(ins.Reverb)
	}
	if fx.Has(song.EffectRingModulation) {
		e.sym(ins.RingModulation)
		e.sym(ins.RingModulationHz)
		e.sym(ins.RingModWaveformIndex)
		e.sym(ins.RingModPulseWidth)
		e.sym2(ins.RingModHzOffset - song.RingModHzOffsetMin)
	}
	if fx.Has(song.EffectGranular) {
		e.sym2(ins.Granular)
		e.sym(ins.GrainSize / song.GrainSizeStep)
		e.sym(ins.GrainAmounts)
		e.sym2(ins.GrainRange)
	}
}

// Vibrato depth is stored in 25ths.
const vibratoDepthScale = 25.0

// chipWave writes the wave index as a value and a bank counter, each bank
// covering 62 more waves.
func (e *encoder) chipWave(wave int) {
	bank := 0
	for bank < 3 && wave > chipWaveBankSize*(bank+1) {
		bank++
	}
	e.tag(tagWave)
	e.sym(wave - chipWaveBankSize*bank)
	e.sym(bank)
}

const chipWaveBankSize = 62

func (e *encoder) loopControls(ins *song.Instrument) {
	e.tag(tagLoopControls)
	mode := ins.ChipWaveLoopMode << 1
	if ins.IsUsingAdvancedLoopControls {
		mode |= 1
	}
	e.sym(mode)
	e.flag(ins.ChipWavePlayBackwards)
	e.symN(loopPointSymbols, ins.ChipWaveLoopStart)
	e.symN(loopPointSymbols, ins.ChipWaveLoopEnd)
	e.symN(loopPointSymbols, ins.ChipWaveStartOffset)
}

const loopPointSymbols = 5

// unison writes the preset, followed by the parameters of a custom unison
// as sign and magnitude in thousandths.
func (e *encoder) unison(ins *song.Instrument) {
	e.tag(tagUnison)
	e.sym(ins.Unison)
	if ins.Unison != song.CustomUnison {
		return
	}
	e.sym(ins.UnisonVoices)
	e.signed(3, ins.UnisonSpread)
	e.signed(3, ins.UnisonOffset)
	e.signed(2, ins.UnisonExpression)
	e.signed(2, ins.UnisonSign)
}

const unisonScale = 1000.0

func (e *encoder) signed(n int, v float64) {
	e.flag(v < 0)
	e.symN(n, int(math.Round(math.Abs(v)*unisonScale)))
}

func (e *encoder) pulseWidth(ins *song.Instrument) {
	e.tag(tagPulseWidth)
	e.sym(ins.PulseWidth)
	e.sym2(ins.DecimalOffset)
}

func (e *encoder) fm(ins *song.Instrument) {
	six := ins.Type == song.InstrumentFM6Op
	e.tag(tagAlgorithm)
	if six {
		e.sym(ins.Algorithm6Op)
		if ins.Algorithm6Op == 0 {
			e.buf = append(e.buf, graphCarriers)
			e.sym(ins.CustomAlgorithm.CarrierCount)
			e.graph(ins.CustomAlgorithm.ModulatedBy)
		}
	} else {
		e.sym(ins.Algorithm)
	}
	e.tag(tagFeedbackType)
	if six {
		e.sym(ins.Feedback6Op)
		if ins.Feedback6Op == 0 {
			e.graph(ins.CustomFeedback.Indices)
		}
	} else {
		e.sym(ins.FeedbackType)
	}
	e.tag(tagFeedbackAmplitude)
	e.sym(ins.FeedbackAmplitude)

	ops := ins.Operators[:ins.Type.OperatorCount()]
	e.tag(tagOperatorFrequencies)
	for _, op := range ops {
		e.sym(op.Frequency)
	}
	e.tag(tagOperatorAmplitudes)
	for _, op := range ops {
		e.sym(op.Amplitude)
	}
	e.tag(tagOperatorWaves)
	for _, op := range ops {
		e.sym(op.Waveform)
		if op.Waveform == song.OperatorWavePulseWidth {
			e.sym(op.PulseWidth)
		}
	}
}

// graph writes a routing table as bound, rows of operator numbers each
// closed by a row marker, bound.
func (e *encoder) graph(rows [][]int) {
	e.buf = append(e.buf, graphBound)
	for _, row := range rows {
		for _, op := range row {
			e.sym(op)
		}
		e.buf = append(e.buf, graphRowEnd)
	}
	e.buf = append(e.buf, graphBound)
}

func spectrumBits(points []int) *bitfield.Writer {
	w := &bitfield.Writer{}
	for _, p := range points {
		w.Write(song.SpectrumControlPointBits, p)
	}
	return w
}

func harmonicsBits(points []int) *bitfield.Writer {
	w := &bitfield.Writer{}
	for _, p := range points {
		w.Write(song.HarmonicsControlPointBits, p)
	}
	return w
}

// Envelope bounds are stored in tenths.
const envelopeBoundScale = 10.0

func (e *encoder) envelopes(ins *song.Instrument, isNoise bool) {
	e.tag(tagEnvelopes)
	e.sym(len(ins.Envelopes))
	e.sym(ins.EnvelopeSpeed)
	for _, env := range ins.Envelopes {
		e.sym(env.Target)
		if env.Target >= 0 && env.Target < len(song.EnvelopeTargets) && song.EnvelopeTargets[env.Target].MaxCount > 1 {
			e.sym(env.Index)
		}
		e.sym(int(env.Envelope))
		switch env.Envelope {
		case song.EnvelopePitch:
			if isNoise {
				e.sym(env.PitchStart)
				e.sym(env.PitchEnd)
			} else {
				e.sym2(env.PitchStart)
				e.sym2(env.PitchEnd)
			}
		case song.EnvelopeRandom:
			e.sym(env.Steps)
			e.sym(env.Seed)
			e.sym(env.Waveform)
		case song.EnvelopeLFO:
			e.sym(env.Waveform)
			if song.IsSteppedLFO(env.Waveform) {
				e.sym(env.Steps)
			}
		}
		flags := 0
		if env.Discrete {
			flags |= 1 << 1
		}
		if env.Inverse {
			flags |= 1
		}
		e.sym(flags)
		if env.Envelope.HasSpeed() {
			e.sym(song.EnvelopeSpeedIndex(env.Speed))
		}
		e.sym(int(math.Round(env.LowerBound * envelopeBoundScale)))
		e.sym(int(math.Round(env.UpperBound * envelopeBoundScale)))
	}
}
