package song

import (
	"math"
	"math/cmplx"
)

type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	Peak
	HighShelf
)

var FilterTypes = []string{"low-pass", "high-pass", "peak", "high-shelf"}

// FilterControlPoint is one dot on a filter curve. Freq and Gain are setting
// indices, see HzFromFreqSetting and LinearGainFromGainSetting.
type FilterControlPoint struct {
	Type FilterType
	Freq int
	Gain int
}

// FilterSettings is a filter curve made of up to FilterMaxPoints control points.
type FilterSettings struct {
	ControlPoints []FilterControlPoint
}

// Reset removes every control point.
func (f *FilterSettings) Reset() {
	f.ControlPoints = nil
}

// AddPoint appends a control point.
func (f *FilterSettings) AddPoint(t FilterType, freq, gain int) {
	f.ControlPoints = append(f.ControlPoints, FilterControlPoint{Type: t, Freq: freq, Gain: gain})
}

// Clone returns a deep copy.
func (f *FilterSettings) Clone() *FilterSettings {
	if f == nil {
		return nil
	}
	return &FilterSettings{ControlPoints: append([]FilterControlPoint(nil), f.ControlPoints...)}
}

// HzFromFreqSetting returns the frequency of a freq setting.
func HzFromFreqSetting(setting float64) float64 {
	return FilterFreqReferenceHz * math.Pow(2, (setting-FilterFreqReference)*FilterFreqStep)
}

// FreqSettingFromHz returns the freq setting closest to hz.
func FreqSettingFromHz(hz float64) int {
	return clamp(0, FilterFreqRange-1, int(math.Round(math.Log2(hz/FilterFreqReferenceHz)/FilterFreqStep+FilterFreqReference)))
}

// LinearGainFromGainSetting returns the gain of a gain setting.
func LinearGainFromGainSetting(setting float64) float64 {
	return math.Pow(2, (setting-FilterGainCenter)*FilterGainStep)
}

// GainSettingFromLinearGain returns the gain setting closest to gain.
func GainSettingFromLinearGain(gain float64) int {
	return clamp(0, FilterGainRange-1, int(math.Round(math.Log2(gain)/FilterGainStep+FilterGainCenter)))
}

// Old instruments had one resonant low pass filter with an 11 step cutoff
// slider and an 8 step resonance slider.
const (
	legacyCutoffMaxHz      = 8000.0
	legacyFilterMax        = 0.95
	legacyMaxResonance     = 0.95
	legacyCutoffRange      = 11
	legacyResonanceRange   = 8
	legacySampleRate       = 48000.0
	legacyFirstOrderOctave = 3.5
)

var legacyMaxRadians = math.Asin(legacyFilterMax/2) * 2

// coefficients of a recursive filter, a[0] is always 1.
type coefficients struct {
	a, b []float64
}

func lowPass1stOrderSimplified(radians float64) coefficients {
	g := 2 * math.Sin(radians*0.5)
	return coefficients{a: []float64{1, g - 1}, b: []float64{g, 0}}
}

func lowPass2ndOrderSimplified(radians, peakGain float64) coefficients {
	g := 2 * math.Sin(radians/2)
	resonance := 1 - 1/(2*peakGain)
	feedback := resonance + resonance/(1-g)
	return coefficients{
		a: []float64{1, 2*g + (g-1)*g*feedback - 2, (g - 1) * (g - g*feedback - 1)},
		b: []float64{g * g, 0, 0},
	}
}

// magnitude evaluates the filter's frequency response at radians per sample.
func (c coefficients) magnitude(radians float64) float64 {
	z := cmplx.Exp(complex(0, -radians))
	var num, den complex128
	zk := complex(1, 0)
	for k := 0; k < len(c.a); k++ {
		num += complex(c.b[k], 0) * zk
		den += complex(c.a[k], 0) * zk
		zk *= z
	}
	return cmplx.Abs(num / den)
}

// ConvertLegacySettings replaces the curve with the single control point that
// best approximates an old cutoff/resonance slider pair under env.
func (f *FilterSettings) ConvertLegacySettings(cutoff, resonance int, env LegacyEnvelope) {
	f.Reset()

	preset := env.Preset()
	resonant := resonance > 1
	firstOrder := resonance == 0
	cutoffAtMax := cutoff == legacyCutoffRange-1
	envDecays := preset.Decays()

	legacyHz := legacyCutoffMaxHz * math.Pow(2, float64(cutoff-(legacyCutoffRange-1))*0.5)
	legacyRadians := math.Min(legacyMaxRadians, 2*math.Pi*legacyHz/legacySampleRate)

	switch {
	case preset.Shape == EnvelopeNone && !resonant && cutoffAtMax:
		// Flat response.
	case firstOrder:
		targetRadians := legacyRadians * math.Pow(2, legacyFirstOrderOctave)
		curvedRadians := targetRadians / (1 + targetRadians/math.Pi)
		curvedHz := legacySampleRate * curvedRadians / (2 * math.Pi)
		freqSetting := FreqSettingFromHz(curvedHz)
		finalRadians := 2 * math.Pi * HzFromFreqSetting(float64(freqSetting)) / legacySampleRate

		logGain := math.Log2(lowPass1stOrderSimplified(legacyRadians).magnitude(finalRadians))
		logGain = -legacyFirstOrderOctave + (logGain+legacyFirstOrderOctave)*0.82
		if envDecays {
			logGain = math.Min(logGain, -1)
		}
		f.AddPoint(LowPass, freqSetting, GainSettingFromLinearGain(math.Pow(2, logGain)))
	default:
		intendedGain := 0.5 / (1 - legacyMaxResonance*math.Sqrt(math.Max(0, float64(resonance)-1)/(legacyResonanceRange-2)))
		invertedGain := 0.5 / intendedGain
		maxRadians := 2 * math.Pi * legacyCutoffMaxHz / legacySampleRate
		freqRatio := legacyRadians / maxRadians
		targetRadians := legacyRadians * (freqRatio*math.Pow(invertedGain, 0.9) + 1)
		curvedRadians := legacyRadians + (targetRadians-legacyRadians)*invertedGain
		var curvedHz float64
		if envDecays {
			curvedHz = legacySampleRate * math.Min(curvedRadians, legacyRadians*math.Pow(2, 0.25)) / (2 * math.Pi)
		} else {
			curvedHz = legacySampleRate * curvedRadians / (2 * math.Pi)
		}
		freqSetting := FreqSettingFromHz(curvedHz)

		gain := intendedGain
		if !envDecays {
			gain = lowPass2ndOrderSimplified(legacyRadians, intendedGain).magnitude(curvedRadians)
		}
		if !resonant {
			gain = math.Min(gain, math.Sqrt(0.5))
		}
		f.AddPoint(LowPass, freqSetting, GainSettingFromLinearGain(gain))
	}
}
