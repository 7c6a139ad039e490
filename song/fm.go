package song

// Algorithm routes FM operators into each other. Operators are numbered
// from 1 and the first CarrierCount operators are audible.
type Algorithm struct {
	Name         string
	CarrierCount int
	// ModulatedBy lists, per operator, the operators modulating it.
	ModulatedBy [][]int
}

// Feedback lists, per operator, the operators feeding back into it.
type Feedback struct {
	Name    string
	Indices [][]int
}

func rows(r ...[]int) [][]int { return r }

var Algorithms = []Algorithm{
	{"1←(2 3 4)", 1, rows([]int{2, 3, 4}, nil, nil, nil)},
	{"1←(2 3←4)", 1, rows([]int{2, 3}, nil, []int{4}, nil)},
	{"1←2←(3 4)", 1, rows([]int{2}, []int{3, 4}, nil, nil)},
	{"1←(2 3)←4", 1, rows([]int{2, 3}, []int{4}, []int{4}, nil)},
	{"1←2←3←4", 1, rows([]int{2}, []int{3}, []int{4}, nil)},
	{"1←3 2←4", 2, rows([]int{3}, []int{4}, nil, nil)},
	{"1 2←(3 4)", 2, rows(nil, []int{3, 4}, nil, nil)},
	{"1 2←3←4", 2, rows(nil, []int{3}, []int{4}, nil)},
	{"(1 2)←3←4", 2, rows([]int{3}, []int{3}, []int{4}, nil)},
	{"(1 2)←(3 4)", 2, rows([]int{3, 4}, []int{3, 4}, nil, nil)},
	{"1 2 3←4", 3, rows(nil, nil, []int{4}, nil)},
	{"(1 2 3)←4", 3, rows([]int{4}, []int{4}, []int{4}, nil)},
	{"1 2 3 4", 4, rows(nil, nil, nil, nil)},
}

var Feedbacks = []Feedback{
	{"1⟲", rows([]int{1}, nil, nil, nil)},
	{"2⟲", rows(nil, []int{2}, nil, nil)},
	{"3⟲", rows(nil, nil, []int{3}, nil)},
	{"4⟲", rows(nil, nil, nil, []int{4})},
	{"1⟲ 2⟲", rows([]int{1}, []int{2}, nil, nil)},
	{"3⟲ 4⟲", rows(nil, nil, []int{3}, []int{4})},
	{"1⟲ 2⟲ 3⟲", rows([]int{1}, []int{2}, []int{3}, nil)},
	{"2⟲ 3⟲ 4⟲", rows(nil, []int{2}, []int{3}, []int{4})},
	{"1⟲ 2⟲ 3⟲ 4⟲", rows([]int{1}, []int{2}, []int{3}, []int{4})},
	{"1→2", rows(nil, []int{1}, nil, nil)},
	{"1→3", rows(nil, nil, []int{1}, nil)},
	{"1→4", rows(nil, nil, nil, []int{1})},
	{"2→3", rows(nil, nil, []int{2}, nil)},
	{"2→4", rows(nil, nil, nil, []int{2})},
	{"3→4", rows(nil, nil, nil, []int{3})},
	{"1→3 2→4", rows(nil, nil, []int{1}, []int{2})},
	{"1→4 2→3", rows(nil, nil, []int{2}, []int{1})},
	{"1→2→3→4", rows(nil, []int{1}, []int{2}, []int{3})},
}

// SixOpAlgorithms start with the user editable routing.
var SixOpAlgorithms = []Algorithm{
	{"Custom", 1, rows([]int{2, 3, 4, 5, 6}, nil, nil, nil, nil, nil)},
	{"1←2←3←4←5←6", 1, rows([]int{2}, []int{3}, []int{4}, []int{5}, []int{6}, nil)},
	{"1←(2 3←4←5←6)", 1, rows([]int{2, 3}, nil, []int{4}, []int{5}, []int{6}, nil)},
	{"1←(2 3 4 5 6)", 1, rows([]int{2, 3, 4, 5, 6}, nil, nil, nil, nil, nil)},
	{"1←3 2←4←5←6", 2, rows([]int{3}, []int{4}, nil, []int{5}, []int{6}, nil)},
	{"1←(3 4) 2←(5 6)", 2, rows([]int{3, 4}, []int{5, 6}, nil, nil, nil, nil)},
	{"1←4 2←5 3←6", 3, rows([]int{4}, []int{5}, []int{6}, nil, nil, nil)},
	{"1 2 3←(4 5 6)", 3, rows(nil, nil, []int{4, 5, 6}, nil, nil, nil)},
	{"1←5 2←6 3 4", 4, rows([]int{5}, []int{6}, nil, nil, nil, nil)},
	{"1 2 3 4←(5 6)", 4, rows(nil, nil, nil, []int{5, 6}, nil, nil)},
	{"1 2 3 4 5←6", 5, rows(nil, nil, nil, nil, []int{6}, nil)},
	{"1 2 3 4 5 6", 6, rows(nil, nil, nil, nil, nil, nil)},
}

var SixOpFeedbacks = []Feedback{
	{"Custom", rows([]int{1}, nil, nil, nil, nil, nil)},
	{"1⟲", rows([]int{1}, nil, nil, nil, nil, nil)},
	{"2⟲", rows(nil, []int{2}, nil, nil, nil, nil)},
	{"3⟲", rows(nil, nil, []int{3}, nil, nil, nil)},
	{"4⟲", rows(nil, nil, nil, []int{4}, nil, nil)},
	{"5⟲", rows(nil, nil, nil, nil, []int{5}, nil)},
	{"6⟲", rows(nil, nil, nil, nil, nil, []int{6})},
	{"1⟲ 2⟲", rows([]int{1}, []int{2}, nil, nil, nil, nil)},
	{"1⟲ 2⟲ 3⟲", rows([]int{1}, []int{2}, []int{3}, nil, nil, nil)},
	{"1⟲ 2⟲ 3⟲ 4⟲ 5⟲ 6⟲", rows([]int{1}, []int{2}, []int{3}, []int{4}, []int{5}, []int{6})},
	{"1→2", rows(nil, []int{1}, nil, nil, nil, nil)},
	{"1→2→3→4→5→6", rows(nil, []int{1}, []int{2}, []int{3}, []int{4}, []int{5})},
	{"6→1", rows([]int{6}, nil, nil, nil, nil, nil)},
}

// SixOpDefault is the preset a new six operator instrument starts with.
const SixOpDefault = 1

func copyRows(src [][]int) [][]int {
	dst := make([][]int, len(src))
	for i, row := range src {
		dst[i] = append([]int(nil), row...)
	}
	return dst
}

// AlgorithmFromPreset returns an independent copy of a six operator preset.
func AlgorithmFromPreset(index int) Algorithm {
	a := SixOpAlgorithms[index]
	return Algorithm{Name: a.Name, CarrierCount: a.CarrierCount, ModulatedBy: copyRows(a.ModulatedBy)}
}

// FeedbackFromPreset returns an independent copy of a six operator preset.
func FeedbackFromPreset(index int) Feedback {
	f := SixOpFeedbacks[index]
	return Feedback{Name: f.Name, Indices: copyRows(f.Indices)}
}

// Operator is one FM oscillator.
type Operator struct {
	Frequency  int
	Amplitude  int
	Waveform   int
	PulseWidth int
}

func (o *Operator) reset(index int) {
	o.Frequency = OperatorFrequencyDefault
	o.Amplitude = 0
	if index <= 1 {
		o.Amplitude = OperatorAmplitudeMax
	}
	o.Waveform = 0
	o.PulseWidth = OperatorPulseWidthDefault
}
