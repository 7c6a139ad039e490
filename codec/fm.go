package codec

import "github.com/QEStudios/boxcodec/song"

// Operator frequency lists of older lineages, mapped onto
// song.OperatorFrequencies.
var (
	freqToGold3    = []int{4, 5, 6, 7, 8, 10, 12, 13, 14, 15, 16, 18, 20, 22, 24, 2, 1, 9, 17, 19, 21, 23, 0, 3}
	freqToUltraBox = []int{4, 5, 6, 7, 8, 10, 12, 13, 14, 15, 16, 18, 20, 23, 27, 2, 1, 9, 17, 19, 21, 23, 0, 3}
)

// Custom routing names.
const (
	customAlgorithmName = "Custom"
	customFeedbackName  = "Custom"
)

func (st *decodeState) algorithm() {
	ch, ins, ok := st.current()
	if !ok {
		return
	}
	if ins.Type != song.InstrumentFM6Op {
		ins.Algorithm = clampInt(0, len(song.Algorithms)-1, st.read())
		if st.c.legacySettings {
			st.convertLegacy(ch, st.channel, st.instrument, ins)
		}
		return
	}

	ins.Algorithm6Op = clampInt(0, len(song.SixOpAlgorithms)-1, st.read())
	if ins.Algorithm6Op != 0 {
		ins.CustomAlgorithm = song.AlgorithmFromPreset(ins.Algorithm6Op)
		return
	}
	if st.peek() != graphCarriers {
		st.failf("custom algorithm without a carrier count")
		return
	}
	st.pos++
	carriers := clampInt(1, song.SixOperatorCount, st.read())
	ins.CustomAlgorithm = song.Algorithm{
		Name:         customAlgorithmName,
		CarrierCount: carriers,
		ModulatedBy:  st.graph(song.SixOperatorCount),
	}
}

func (st *decodeState) feedbackType() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	if ins.Type != song.InstrumentFM6Op {
		ins.FeedbackType = clampInt(0, len(song.Feedbacks)-1, st.read())
		return
	}
	ins.Feedback6Op = clampInt(0, len(song.SixOpFeedbacks)-1, st.read())
	if ins.Feedback6Op != 0 {
		ins.CustomFeedback = song.FeedbackFromPreset(ins.Feedback6Op)
		return
	}
	ins.CustomFeedback = song.Feedback{Name: customFeedbackName, Indices: st.graph(song.SixOperatorCount)}
}

// graph reads a routing table: a bound, rows of operator numbers each closed
// by a row marker, and a closing bound. Rows past the operator count are
// dropped.
func (st *decodeState) graph(operators int) [][]int {
	if st.peek() != graphBound {
		st.failf("routing table must open with %q", graphBound)
		return nil
	}
	st.pos++
	rows := [][]int{}
	var row []int
	for st.err == nil {
		switch st.peek() {
		case 0:
			st.read() // fails with ErrTruncated
		case graphBound:
			st.pos++
			return rows
		case graphRowEnd:
			st.pos++
			if len(rows) < operators {
				rows = append(rows, row)
			}
			row = nil
		default:
			row = append(row, clampInt(1, operators, st.read()))
		}
	}
	return nil
}

func (st *decodeState) feedbackAmplitude() {
	_, ins, ok := st.current()
	v := clampInt(0, song.OperatorAmplitudeMax, st.read())
	if ok {
		ins.FeedbackAmplitude = v
	}
}

func (st *decodeState) operatorFrequencies() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	for i := 0; i < ins.Type.OperatorCount(); i++ {
		v := st.read()
		switch {
		case st.c.fmFreqGold3:
			v = freqToGold3[clampInt(0, len(freqToGold3)-1, v)]
		case st.c.fmFreqUltra:
			v = freqToUltraBox[clampInt(0, len(freqToUltraBox)-1, v)]
		}
		ins.Operators[i].Frequency = clampInt(0, len(song.OperatorFrequencies)-1, v)
	}
}

func (st *decodeState) operatorAmplitudes() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	for i := 0; i < ins.Type.OperatorCount(); i++ {
		ins.Operators[i].Amplitude = clampInt(0, song.OperatorAmplitudeMax, st.read())
	}
}

func (st *decodeState) operatorWaves() {
	_, ins, ok := st.current()
	if !ok {
		return
	}
	for i := 0; i < ins.Type.OperatorCount(); i++ {
		op := &ins.Operators[i]
		op.Waveform = clampInt(0, len(song.OperatorWaves)-1, st.read())
		if st.c.operatorPulseWidth && op.Waveform == song.OperatorWavePulseWidth {
			op.PulseWidth = clampInt(0, song.OperatorPulseWidths-1, st.read())
		}
	}
}
