package codec

// Tag codes. Every field of the compact form starts with one of these
// symbols. Several codes meant something else in old links, noted inline.
const (
	tagBeatCount           = 'a'
	tagBars                = 'b'
	tagSongEq              = 'c' // vibrato in old links
	tagFadeInOut           = 'd' // transition in old links
	tagLoopEnd             = 'e'
	tagEqFilter            = 'f' // filter cutoff in old links
	tagBarCount            = 'g'
	tagUnison              = 'h'
	tagInstrumentCount     = 'i'
	tagPatternCount        = 'j'
	tagKey                 = 'k'
	tagLoopStart           = 'l'
	tagReverb              = 'm'
	tagChannelCount        = 'n'
	tagChannelOctave       = 'o'
	tagPatterns            = 'p'
	tagEffects             = 'q'
	tagRhythm              = 'r'
	tagScale               = 's'
	tagTempo               = 't'
	tagPreset              = 'u'
	tagVolume              = 'v'
	tagWave                = 'w'
	tagSupersaw            = 'x'
	tagLoopControls        = 'y'
	tagDrumsetEnvelopes    = 'z' // filter envelope in old links
	tagAlgorithm           = 'A'
	tagFeedbackAmplitude   = 'B'
	tagChord               = 'C'
	tagDetune              = 'D'
	tagEnvelopes           = 'E'
	tagFeedbackType        = 'F'
	tagArpeggioSpeed       = 'G'
	tagHarmonics           = 'H'
	tagStringSustain       = 'I'
	tagPan                 = 'L'
	tagCustomChipWave      = 'M'
	tagSongTitle           = 'N'
	tagLimiter             = 'O'
	tagOperatorAmplitudes  = 'P'
	tagOperatorFrequencies = 'Q'
	tagOperatorWaves       = 'R'
	tagSpectrum            = 'S'
	tagStartInstrument     = 'T'
	tagChannelNames        = 'U'
	tagFeedbackEnvelope    = 'V'
	tagPulseWidth          = 'W'
	tagAliases             = 'X' // decimal offset in some old links
	tagFilterResonance     = 'Y'
)

// Markers of the custom six operator routing graphs. They reuse tag symbols
// but only ever appear as data inside the algorithm and feedback fields.
const (
	graphCarriers = 'C'
	graphBound    = 'q'
	graphRowEnd   = 'R'
)

// Separates the custom sample entries from the song body.
const sampleSeparator = '|'

// defaultLimiterSymbol stands in for the eight limiter symbols when every
// limiter setting is at its default.
const defaultLimiterSymbol = '_'
