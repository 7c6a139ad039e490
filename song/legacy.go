package song

import "math"

// LegacySettings collects the separate filter and envelope sliders of old
// instruments until they can be converted together. Unset fields take the
// defaults of the instrument type.
type LegacySettings struct {
	FilterCutoff      *int
	FilterResonance   *int
	FilterEnvelope    *LegacyEnvelope
	PulseEnvelope     *LegacyEnvelope
	FeedbackEnvelope  *LegacyEnvelope
	OperatorEnvelopes []LegacyEnvelope
}

func (l *LegacySettings) SetFilterCutoff(v int)                { l.FilterCutoff = &v }
func (l *LegacySettings) SetFilterResonance(v int)             { l.FilterResonance = &v }
func (l *LegacySettings) SetFilterEnvelope(v LegacyEnvelope)   { l.FilterEnvelope = &v }
func (l *LegacySettings) SetPulseEnvelope(v LegacyEnvelope)    { l.PulseEnvelope = &v }
func (l *LegacySettings) SetFeedbackEnvelope(v LegacyEnvelope) { l.FeedbackEnvelope = &v }

// ConvertLegacySettings rebuilds the filters and envelopes of the instrument
// from legacy. With forceSimpleFilter the converted filter is also exposed
// through the simple cut/peak sliders.
func (ins *Instrument) ConvertLegacySettings(legacy *LegacySettings, forceSimpleFilter, isNoise bool) {
	none := LegacyEnvelopeNamed("none")
	noteSize := LegacyEnvelopeNamed("note size")

	cutoff := 10
	if ins.Type == InstrumentChip {
		cutoff = 6
	}
	if legacy.FilterCutoff != nil {
		cutoff = *legacy.FilterCutoff
	}
	resonance := 0
	if legacy.FilterResonance != nil {
		resonance = *legacy.FilterResonance
	}
	filterEnv := none
	if legacy.FilterEnvelope != nil {
		filterEnv = *legacy.FilterEnvelope
	}
	pulseEnv := none
	if ins.Type == InstrumentPWM {
		pulseEnv = LegacyEnvelopeNamed("twang 2")
	}
	if legacy.PulseEnvelope != nil {
		pulseEnv = *legacy.PulseEnvelope
	}
	operatorEnvs := legacy.OperatorEnvelopes
	if operatorEnvs == nil {
		operatorEnvs = []LegacyEnvelope{none, none, none, none}
		if ins.Type == InstrumentFM {
			operatorEnvs[0] = noteSize
		}
	}
	feedbackEnv := none
	if legacy.FeedbackEnvelope != nil {
		feedbackEnv = *legacy.FeedbackEnvelope
	}

	// Punch raises the cutoff, which does nothing once it's at the top.
	if cutoff == legacyCutoffRange-1 && filterEnv.Preset().Shape == EnvelopePunch {
		filterEnv = none
	}

	carrierCount := Algorithms[clamp(0, len(Algorithms)-1, ins.Algorithm)].CarrierCount
	noCarriersOnNoteSize := true
	allCarriersOnNoteSize := true
	noteSizeElsewhere := filterEnv.Preset().Shape == EnvelopeNoteSize || pulseEnv.Preset().Shape == EnvelopeNoteSize
	if ins.Type.IsFM() {
		noteSizeElsewhere = noteSizeElsewhere || feedbackEnv.Preset().Shape == EnvelopeNoteSize
		for i, env := range operatorEnvs {
			isNoteSize := env.Preset().Shape == EnvelopeNoteSize
			if i < carrierCount {
				if isNoteSize {
					noCarriersOnNoteSize = false
				} else {
					allCarriersOnNoteSize = false
				}
			} else {
				noteSizeElsewhere = noteSizeElsewhere || isNoteSize
			}
		}
	}

	ins.Envelopes = nil

	if ins.Type.IsFM() {
		if allCarriersOnNoteSize && noteSizeElsewhere {
			ins.AddEnvelope(FromLegacy(TargetNoteVolume, 0, noteSize, isNoise))
		} else if noCarriersOnNoteSize && !noteSizeElsewhere {
			ins.AddEnvelope(FromLegacy(TargetNone, 0, noteSize, isNoise))
		}
	}

	if filterEnv.Preset().Shape == EnvelopeNone {
		ins.NoteFilter.Reset()
		ins.NoteFilterType = false
		ins.EqFilter.ConvertLegacySettings(cutoff, resonance, filterEnv)
		ins.Effects = ins.Effects.Without(EffectNoteFilter)
		if forceSimpleFilter || ins.EqFilterType {
			ins.EqFilterType = true
			ins.EqFilterSimpleCut = clamp(0, FilterSimpleCutRange-1, cutoff)
			ins.EqFilterSimplePeak = clamp(0, FilterSimplePeakRange-1, resonance)
		}
	} else {
		ins.EqFilter.Reset()
		ins.EqFilterType = false
		ins.NoteFilterType = false
		ins.NoteFilter.ConvertLegacySettings(cutoff, resonance, filterEnv)
		ins.Effects = ins.Effects.With(EffectNoteFilter)
		ins.AddEnvelope(FromLegacy(TargetNoteFilterAllFreqs, 0, filterEnv, isNoise))
		if forceSimpleFilter {
			ins.NoteFilterType = true
			ins.NoteFilterSimpleCut = clamp(0, FilterSimpleCutRange-1, cutoff)
			ins.NoteFilterSimplePeak = clamp(0, FilterSimplePeakRange-1, resonance)
		}
	}

	if pulseEnv.Preset().Shape != EnvelopeNone {
		ins.AddEnvelope(FromLegacy(TargetPulseWidth, 0, pulseEnv, isNoise))
	}
	for i, env := range operatorEnvs {
		if i < carrierCount && allCarriersOnNoteSize {
			continue
		}
		if env.Preset().Shape != EnvelopeNone {
			ins.AddEnvelope(FromLegacy(TargetOperatorAmplitude, i, env, isNoise))
		}
	}
	if feedbackEnv.Preset().Shape != EnvelopeNone {
		ins.AddEnvelope(FromLegacy(TargetFeedbackAmplitude, 0, feedbackEnv, isNoise))
	}
}

// FadeInSetting returns the fade in setting closest to a fade of seconds.
func FadeInSetting(seconds float64) int {
	return clamp(0, FadeInRange-1, int(math.Round((-0.95+math.Sqrt(0.9025+0.2*seconds/0.0125))/0.1)))
}

// FadeInSeconds is the inverse of FadeInSetting.
func FadeInSeconds(setting int) float64 {
	s := float64(setting)
	return 0.0125 * (0.95*s + 0.05*s*s)
}

// FadeOutSetting returns the fade out setting closest to a release of ticks.
func FadeOutSetting(ticks int) int {
	lower := FadeOutTicks[0]
	if ticks <= lower {
		return 0
	}
	for i := 1; i < len(FadeOutTicks); i++ {
		upper := FadeOutTicks[i]
		if ticks <= upper {
			if float64(ticks) < float64(lower+upper)/2 {
				return i - 1
			}
			return i
		}
		lower = upper
	}
	return len(FadeOutTicks) - 1
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
