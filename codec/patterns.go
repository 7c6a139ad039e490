package codec

import (
	"slices"
	"strconv"

	"github.com/QEStudios/boxcodec/codec/bitfield"
	"github.com/QEStudios/boxcodec/song"
	"github.com/pkg/errors"
)

// The first pitches of a channel's recent pitch window, before any note.
var (
	initialPitches      = []int{0, 7, 12, 19, 24, -5, -12}
	initialNoisePitches = []int{4, 6, 7, 2, 3, 8, 0, 10}
	initialModPitches   = []int{0, 1, 2, 3, 4, 5}
)

const (
	recentShapeCount = 10
	modNoteSizeBits  = 9
	// lastPitch of noise and mod channels before any note.
	initialDrumPitch = 4
)

// pitchWindow is the list of recently used pitches, most recent first. A
// pitch found in the window is stored as its index, any other pitch as a
// step count from the last pitch that skips the pitches in the window.
type pitchWindow struct {
	pitches []int
	size    int
	bits    int
}

func newPitchWindow(ch *song.Channel, largerChords bool) *pitchWindow {
	w := &pitchWindow{size: 16, bits: 4}
	switch ch.Type {
	case song.ModChannel:
		w.size, w.bits = 6, 3
		w.pitches = slices.Clone(initialModPitches)
	case song.NoiseChannel:
		w.pitches = slices.Clone(initialNoisePitches)
	default:
		offset := ch.Octave * song.PitchesPerOctave
		for _, p := range initialPitches {
			w.pitches = append(w.pitches, p+offset)
		}
	}
	if !largerChords && ch.Type != song.ModChannel {
		w.size, w.bits = 8, 3
	}
	return w
}

func (w *pitchWindow) index(pitch int) int {
	return slices.Index(w.pitches, pitch)
}

// push moves pitch to the front, evicting the oldest entry past capacity.
func (w *pitchWindow) push(pitch int) {
	if i := w.index(pitch); i >= 0 {
		w.pitches = slices.Delete(w.pitches, i, i+1)
	}
	w.pitches = slices.Insert(w.pitches, 0, pitch)
	if len(w.pitches) > w.size {
		w.pitches = w.pitches[:w.size]
	}
}

// interval counts the pitches outside the window between from and to.
func (w *pitchWindow) interval(from, to int) int {
	n := 0
	for p := from; p != to; {
		step := 1
		if to < p {
			step = -1
		}
		p += step
		if w.index(p) < 0 {
			n += step
		}
	}
	return n
}

// step moves from by n pitches that are not in the window.
func (w *pitchWindow) step(from, n int) int {
	p := from
	for ; n > 0; n-- {
		p++
		for w.index(p) >= 0 {
			p++
		}
	}
	for ; n < 0; n++ {
		p--
		for w.index(p) >= 0 {
			p--
		}
	}
	return p
}

// initialLastPitch is the reference for the first pitch interval of a channel.
func initialLastPitch(ch *song.Channel) int {
	if ch.Type == song.PitchChannel {
		return ch.Octave * song.PitchesPerOctave
	}
	return initialDrumPitch
}

// encodeBars writes the 1-based pattern index of every bar, channel by channel.
func encodeBars(s *song.Song) *bitfield.Writer {
	w := &bitfield.Writer{}
	bits := song.NeededBits(s.PatternsPerChannel)
	for _, ch := range s.Channels {
		for _, bar := range ch.Bars {
			w.Write(bits, bar)
		}
	}
	return w
}

func encodePatterns(s *song.Song) (*bitfield.Writer, error) {
	w := &bitfield.Writer{}
	shape := &bitfield.Writer{}
	sizeBits := song.NeededBits(song.NoteSizeMax)

	for ci, ch := range s.Channels {
		isMod := ch.Type == song.ModChannel
		if isMod {
			encodeModHeader(w, s, ch)
		}
		maxPerPattern := s.MaxInstrumentsPerPattern(ch)
		countBits := song.NeededBits(maxPerPattern - song.InstrumentCountMin)
		indexBits := song.NeededBits(len(ch.Instruments) - 1)

		window := newPitchWindow(ch, true)
		lastPitch := initialLastPitch(ch)
		var shapes []string
		end := s.BarParts()
		if isMod {
			end++
		}

		for pi, p := range ch.Patterns {
			if s.PatternInstruments {
				n := clampInt(song.InstrumentCountMin, maxPerPattern, len(p.Instruments))
				w.Write(countBits, n-song.InstrumentCountMin)
				for i := 0; i < n; i++ {
					index := 0
					if i < len(p.Instruments) {
						index = p.Instruments[i]
					}
					w.Write(indexBits, index)
				}
			}
			if len(p.Notes) == 0 {
				w.Write(1, 0)
				continue
			}
			w.Write(1, 1)

			curPart := 0
			for ni, note := range p.Notes {
				if err := checkNote(note, isMod); err != nil {
					return nil, errors.Wrapf(err, "channel %d pattern %d note %d", ci, pi+1, ni)
				}
				if note.Start < curPart && isMod {
					w.Write(2, 0)
					w.Write(1, 1)
					w.WritePartDuration(curPart - note.Start)
				}
				if note.Start > curPart {
					w.Write(2, 0)
					if isMod {
						w.Write(1, 0)
					}
					w.WritePartDuration(note.Start - curPart)
				}

				shape.Clear()
				if len(note.Pitches) == 1 {
					shape.Write(1, 0)
				} else {
					shape.Write(1, 1)
					shape.Write(3, len(note.Pitches)-2)
				}
				shape.WritePinCount(len(note.Pins) - 1)
				if isMod {
					shape.Write(modNoteSizeBits, note.Pins[0].Size)
				} else {
					shape.Write(sizeBits, note.Pins[0].Size)
				}

				start := note.Pitches[0]
				current := start
				var bends []int
				shapePart := 0
				for _, pin := range note.Pins[1:] {
					next := start + pin.Interval
					if next != current {
						shape.Write(1, 1)
						bends = append(bends, next)
						current = next
					} else {
						shape.Write(1, 0)
					}
					shape.WritePartDuration(pin.Time - shapePart)
					shapePart = pin.Time
					if isMod {
						shape.Write(modNoteSizeBits, pin.Size)
					} else {
						shape.Write(sizeBits, pin.Size)
					}
				}

				key := shapeKey(shape)
				if i := slices.Index(shapes, key); i >= 0 {
					w.Write(1, 1)
					w.WriteLongTail(0, 0, i)
					shapes = slices.Delete(shapes, i, i+1)
				} else {
					w.Write(2, 1)
					w.Concat(shape)
				}
				shapes = slices.Insert(shapes, 0, key)
				if len(shapes) > recentShapeCount {
					shapes = shapes[:recentShapeCount]
				}

				all := append(slices.Clone(note.Pitches), bends...)
				for i, pitch := range all {
					if index := window.index(pitch); index >= 0 {
						w.Write(1, 1)
						w.Write(window.bits, index)
					} else {
						interval := window.interval(lastPitch, pitch)
						if interval == 0 {
							return nil, errors.Errorf("channel %d pattern %d note %d: pitch %d has no interval from %d", ci, pi+1, ni, pitch, lastPitch)
						}
						w.Write(1, 0)
						w.WritePitchInterval(interval)
					}
					window.push(pitch)
					if i == len(note.Pitches)-1 {
						lastPitch = note.Pitches[0]
					} else {
						lastPitch = pitch
					}
				}

				if note.Start == 0 {
					if note.ContinuesLastPattern {
						w.Write(1, 1)
					} else {
						w.Write(1, 0)
					}
				}
				curPart = note.End
			}

			if curPart < end {
				w.Write(2, 0)
				if isMod {
					w.Write(1, 0)
				}
				w.WritePartDuration(end - curPart)
			}
		}
	}
	if err := w.Err(); err != nil {
		return nil, errors.Wrap(err, "patterns")
	}
	return w, nil
}

func shapeKey(shape *bitfield.Writer) string {
	return string(shape.EncodeBase64(nil)) + ":" + strconv.Itoa(shape.BitCount())
}

// checkNote rejects notes the pattern stream cannot represent.
func checkNote(n *song.Note, isMod bool) error {
	if len(n.Pitches) < 1 || len(n.Pitches) > maxChordSize {
		return errors.Errorf("%d pitches", len(n.Pitches))
	}
	if len(n.Pins) < 2 {
		return errors.Errorf("%d pins", len(n.Pins))
	}
	if n.Pins[0].Time != 0 || n.Pins[0].Interval != 0 {
		return errors.New("first pin must be at time 0 without a bend")
	}
	for i := 1; i < len(n.Pins); i++ {
		if n.Pins[i].Time <= n.Pins[i-1].Time {
			return errors.Errorf("pin %d does not advance", i)
		}
	}
	if n.Pins[len(n.Pins)-1].Time != n.End-n.Start {
		return errors.Errorf("last pin at %d for a note of length %d", n.Pins[len(n.Pins)-1].Time, n.End-n.Start)
	}
	if n.Start < 0 && !isMod {
		return errors.Errorf("note starts at %d", n.Start)
	}
	return nil
}

// maxChordSize is one more than the largest count the three bit chord
// field can hold after its offset of two.
const maxChordSize = 9

// encodeModHeader writes, for every instrument of a mod channel, the target
// of each modulator slot.
func encodeModHeader(w *bitfield.Writer, s *song.Song, ch *song.Channel) {
	instrumentBits := song.NeededBits(s.MaxInstrumentsPerChannel() + 2)
	for _, ins := range ch.Instruments {
		for slot := 0; slot < song.ModCount; slot++ {
			setting := clampInt(0, len(song.Modulators)-1, ins.ModSettings[slot])
			m := song.Modulators[setting]
			status := modStatusTarget
			if m.ForSong {
				status = modStatusSong
			}
			if setting == song.ModNone {
				status = modStatusNone
			}
			w.Write(2, status)
			if status == modStatusTarget {
				w.Write(8, max(0, ins.ModChannels[slot]))
				w.Write(instrumentBits, ins.ModInstruments[slot])
			}
			if status != modStatusNone {
				w.Write(6, setting)
			}
			if m.UsesFilterType() {
				w.Write(6, ins.ModFilterTypes[slot])
			}
			if m.UsesEnvelopeNumber() {
				w.Write(6, ins.ModEnvelopeNumbers[slot])
			}
		}
	}
}

// Mod slot target kinds.
const (
	modStatusTarget = iota
	modStatusNoise  // channel index relative to the first noise channel
	modStatusSong
	modStatusNone
)

// bars reads the 'b' tag.
func (st *decodeState) bars() {
	s := st.song
	if st.c.bbBefore3 {
		ci := st.read()
		count := st.read()
		r := st.bitReader((count + 1) / 2)
		if st.err != nil {
			return
		}
		ch, ok := st.channelAt(ci)
		if !ok {
			return
		}
		if count > s.BarCount {
			s.SetBarCount(min(count, song.BarCountMax))
		}
		for i := 0; i < count; i++ {
			bar := r.Read(3) + 1
			if i < len(ch.Bars) {
				ch.Bars[i] = clampInt(0, s.PatternsPerChannel, bar)
			}
		}
		st.checkReader(r)
		return
	}

	var bits int
	offset := 0
	if st.c.bbBefore5 {
		for 1<<bits < s.PatternsPerChannel {
			bits++
		}
		offset = 1
	} else {
		bits = song.NeededBits(s.PatternsPerChannel)
	}
	total := len(s.Channels) * s.BarCount * bits
	r := st.bitReader((total + 5) / 6)
	if st.err != nil {
		return
	}
	for _, ch := range s.Channels {
		for i := range ch.Bars {
			ch.Bars[i] = clampInt(0, s.PatternsPerChannel, r.Read(bits)+offset)
		}
	}
	st.checkReader(r)
}

// bitReader carves the next n symbols out of the stream.
func (st *decodeState) bitReader(n int) *bitfield.Reader {
	if st.err != nil {
		return nil
	}
	r, err := bitfield.NewReader(st.src, st.pos, st.pos+n)
	if err != nil {
		st.fail(st.streamError(err))
		return nil
	}
	st.pos += n
	return r
}

func (st *decodeState) checkReader(r *bitfield.Reader) {
	if r != nil && r.Err() != nil {
		st.fail(st.streamError(r.Err()))
	}
}

// patterns reads the 'p' tag: the mod channel headers and every pattern.
func (st *decodeState) patterns() {
	s := st.song
	first, last := 0, len(s.Channels)-1
	length := 0
	if st.c.bbBefore3 {
		first = st.read()
		last = first
		st.read()
		length = st.read2()
	} else {
		digits := st.read()
		if st.err == nil && (digits < 1 || digits > maxLengthDigits) {
			st.fail(errors.Wrapf(ErrOutOfRange, "tag %q at %d: pattern data length in %d symbols", st.tag, st.tagPos, digits))
			return
		}
		for i := 0; i < digits; i++ {
			length = length<<6 | st.read()
		}
	}
	r := st.bitReader(length)
	if st.err != nil {
		return
	}
	if _, ok := st.channelAt(first); !ok {
		return
	}
	for ci := first; ci <= last && st.err == nil; ci++ {
		st.channelPatterns(r, ci)
		st.checkReader(r)
	}
}

// maxLengthDigits is the most symbols the pattern data length is written in.
const maxLengthDigits = 4

type noteShape struct {
	pitchCount int
	bendCount  int
	initial    int
	pins       []shapePin
	length     int
}

type shapePin struct {
	bend bool
	time int
	size int
}

func (st *decodeState) channelPatterns(r *bitfield.Reader, ci int) {
	s := st.song
	c := &st.c
	ch := s.Channels[ci]
	isMod := ch.Type == song.ModChannel

	maxPerPattern := s.MaxInstrumentsPerPattern(ch)
	countBits := song.NeededBits(maxPerPattern - song.InstrumentCountMin)
	indexBits := song.NeededBits(len(ch.Instruments) - 1)
	if isMod {
		st.modHeader(r, ci, indexBits)
	}

	sizeBits := song.NeededBits(song.NoteSizeMax)
	window := newPitchWindow(ch, c.largerChords)
	lastPitch := initialLastPitch(ch)
	var shapes []*noteShape
	barParts := s.BarParts()
	end := barParts
	if isMod {
		end++
	}
	stepsPerBeat := song.Rhythms[clampInt(0, len(song.Rhythms)-1, s.Rhythm)].StepsPerBeat

	readSize := func() int {
		switch {
		case c.twoBitNoteSize:
			return r.Read(2) * 2
		case isMod:
			return r.Read(modNoteSizeBits)
		}
		return min(r.Read(sizeBits), song.NoteSizeMax)
	}
	readDuration := func() int {
		if c.legacyPartDuration {
			return r.ReadLegacyPartDuration() * song.PartsPerBeat / stepsPerBeat
		}
		return r.ReadPartDuration()
	}

	for pi := range ch.Patterns {
		p := &song.Pattern{}
		switch {
		case c.legacySettings:
			p.Instruments = []int{clampInt(0, len(ch.Instruments)-1, r.Read(indexBits))}
		case s.PatternInstruments:
			n := clampInt(song.InstrumentCountMin, maxPerPattern, r.Read(countBits)+song.InstrumentCountMin)
			for i := 0; i < n; i++ {
				p.Instruments = append(p.Instruments, clampInt(0, len(ch.Instruments)-1, r.Read(indexBits)))
			}
		default:
			p.Instruments = []int{0}
		}
		ch.Patterns[pi] = p

		if !c.bbBefore3 && r.Read(1) == 0 {
			continue
		}

		scales := st.modNoteScales(ch, p)
		curPart := 0
		for curPart < end && r.Err() == nil {
			var shape *noteShape
			switch {
			case r.Read(1) == 1:
				i := r.ReadLongTail(0, 0)
				if r.Err() != nil {
					break
				}
				if i < 0 || i >= len(shapes) {
					st.fail(errors.Errorf("channel %d pattern %d: shape %d of %d recent shapes", ci, pi+1, i, len(shapes)))
					return
				}
				shape = shapes[i]
				shapes = slices.Delete(shapes, i, i+1)
			case r.Read(1) == 1:
				shape = &noteShape{pitchCount: 1}
				if c.largerChords {
					if r.Read(1) == 1 {
						shape.pitchCount = r.Read(3) + 2
					}
				} else {
					for shape.pitchCount < 4 && r.Read(1) == 1 {
						shape.pitchCount++
					}
				}
				pinCount := r.ReadPinCount()
				shape.initial = readSize()
				for j := 0; j < pinCount && r.Err() == nil; j++ {
					pin := shapePin{bend: r.Read(1) == 1}
					if pin.bend {
						shape.bendCount++
					}
					shape.length += readDuration()
					pin.time = shape.length
					pin.size = readSize()
					shape.pins = append(shape.pins, pin)
				}
			default:
				backwards := isMod && r.Read(1) == 1
				if backwards {
					curPart -= readDuration()
					if curPart < 0 {
						st.fail(errors.Errorf("channel %d pattern %d: rest before the start of the bar", ci, pi+1))
						return
					}
				} else {
					curPart += readDuration()
				}
				continue
			}
			shapes = slices.Insert(shapes, 0, shape)
			if len(shapes) > recentShapeCount {
				shapes = shapes[:recentShapeCount]
			}
			if r.Err() != nil {
				break
			}
			if len(shape.pins) == 0 {
				st.fail(errors.Errorf("channel %d pattern %d: note without length", ci, pi+1))
				return
			}

			note := &song.Note{Start: curPart, End: curPart + shape.length}
			var raw, bends []int
			for j := 0; j < shape.pitchCount+shape.bendCount; j++ {
				var pitch int
				if r.Read(1) == 1 {
					i := r.Read(window.bits)
					if i >= len(window.pitches) {
						st.fail(errors.Errorf("channel %d pattern %d: recent pitch %d of %d", ci, pi+1, i, len(window.pitches)))
						return
					}
					pitch = window.pitches[i]
				} else {
					interval := r.ReadPitchInterval()
					if span := pitchSpan(ch.Type); interval < -span || interval > span {
						st.fail(errors.Wrapf(ErrOutOfRange, "channel %d pattern %d: pitch interval %d", ci, pi+1, interval))
						return
					}
					pitch = window.step(lastPitch, interval)
				}
				window.push(pitch)
				if j < shape.pitchCount {
					raw = append(raw, pitch)
				} else {
					bends = append(bends, pitch)
				}
				if j == shape.pitchCount-1 {
					lastPitch = raw[0]
				} else {
					lastPitch = pitch
				}
			}
			for _, pitch := range raw {
				note.Pitches = append(note.Pitches, clampPitch(ch.Type, pitch))
			}

			scale := 1
			offset := 0
			if isMod {
				slot := song.ModCount - 1 - note.Pitches[0]
				if sc, ok := scales[slot]; ok {
					scale, offset = sc.scale, sc.offset
				}
			}
			note.Pins = append(note.Pins, song.NotePin{Size: shape.initial*scale + offset})
			interval := 0
			bend := 0
			for _, sp := range shape.pins {
				if sp.bend && bend < len(bends) {
					interval = bends[bend] - raw[0]
					bend++
				}
				note.Pins = append(note.Pins, song.NotePin{Interval: interval, Time: sp.time, Size: sp.size*scale + offset})
			}

			if note.End > barParts {
				st.fail(errors.Errorf("channel %d pattern %d: note ends at part %d of %d", ci, pi+1, note.End, barParts))
				return
			}
			if note.Start == 0 {
				switch {
				case !c.legacySettings:
					note.ContinuesLastPattern = r.Read(1) == 1
				case c.legacyTieOver:
					note.ContinuesLastPattern = st.tieOver[[2]int{ci, p.Instruments[0]}]
				}
			}
			p.Notes = append(p.Notes, note)
			curPart = note.End
		}
	}
}

// pitchSpan is the number of pitches a channel of type t can play. No
// interval between two playable pitches is larger.
func pitchSpan(t song.ChannelType) int {
	switch t {
	case song.NoiseChannel:
		return song.DrumCount
	case song.ModChannel:
		return song.ModCount
	}
	return song.MaxPitch + 1
}

func clampPitch(t song.ChannelType, pitch int) int {
	switch t {
	case song.NoiseChannel:
		return clampInt(0, song.DrumCount-1, pitch)
	case song.ModChannel:
		return clampInt(0, song.ModCount-1, pitch)
	}
	return clampInt(0, song.MaxPitch, pitch)
}

type modNoteScale struct {
	scale, offset int
}

// modNoteScales returns the value corrections of the mod slots played by
// the first instrument of p, for links whose tempo or detune modulators
// used other ranges.
func (st *decodeState) modNoteScales(ch *song.Channel, p *song.Pattern) map[int]modNoteScale {
	if ch.Type != song.ModChannel || len(p.Instruments) == 0 || p.Instruments[0] >= len(ch.Instruments) {
		return nil
	}
	ins := ch.Instruments[p.Instruments[0]]
	scales := map[int]modNoteScale{}
	for slot, setting := range ins.ModSettings {
		switch {
		case st.c.tempoModCorrection && setting == song.ModTempo:
			scales[slot] = modNoteScale{1, song.LegacyTempoMin - song.TempoMin}
		case st.c.jumfive && setting == song.ModDetune:
			scales[slot] = modNoteScale{4, 0}
		}
	}
	return scales
}

// modHeader reads the targets of every modulator slot of a mod channel.
func (st *decodeState) modHeader(r *bitfield.Reader, ci, indexBits int) {
	s := st.song
	c := &st.c
	ch := s.Channels[ci]
	instrumentBits := song.NeededBits(s.MaxInstrumentsPerChannel() + 2)
	if c.jumfive {
		instrumentBits = indexBits
	}
	pitch, noise, _ := s.ChannelCounts()

	for ii, ins := range ch.Instruments {
		for slot := 0; slot < song.ModCount; slot++ {
			status := r.Read(2)
			switch status {
			case modStatusTarget:
				ins.ModChannels[slot] = clampInt(0, len(s.Channels)-1, r.Read(8))
				ins.ModInstruments[slot] = clampInt(0, len(s.Channels[ins.ModChannels[slot]].Instruments)+1, r.Read(instrumentBits))
			case modStatusNoise:
				ins.ModChannels[slot] = clampInt(0, len(s.Channels)-1, pitch+clampInt(0, max(noise-1, 0), r.Read(8)))
				ins.ModInstruments[slot] = clampInt(0, len(s.Channels[ins.ModChannels[slot]].Instruments)+1, r.Read(indexBits))
			case modStatusSong:
				ins.ModChannels[slot] = -1
			case modStatusNone:
				ins.ModChannels[slot] = -2
			}
			if status != modStatusNone {
				ins.ModSettings[slot] = clampInt(0, len(song.Modulators)-1, r.Read(6))
			}

			target := st.modTarget(ins, slot)
			if c.jumfive {
				if target != nil {
					st.remapLegacyFilterMod(ins, slot, target)
				} else if ins.ModSettings[slot] == song.ModSongReverb {
					st.songReverb = songReverbSlot{channel: ci, instrument: ii, slot: slot}
				}
				if effect := song.Modulators[ins.ModSettings[slot]].Effect; effect >= 0 && target != nil {
					target.Effects = target.Effects.With(song.EffectType(effect))
				}
				continue
			}

			m := song.Modulators[ins.ModSettings[slot]]
			if m.UsesFilterType() {
				ins.ModFilterTypes[slot] = r.Read(6)
			}
			if m.UsesEnvelopeNumber() {
				ins.ModEnvelopeNumbers[slot] = r.Read(6)
			}
		}
	}
}

// modTarget returns the single instrument a slot modulates, or nil for song
// targets and the "all" and "active" pseudo instruments.
func (st *decodeState) modTarget(ins *song.Instrument, slot int) *song.Instrument {
	ci := ins.ModChannels[slot]
	if ci < 0 || ci >= len(st.song.Channels) {
		return nil
	}
	target := st.song.Channels[ci]
	if ins.ModInstruments[slot] >= len(target.Instruments) {
		return nil
	}
	return target.Instruments[ins.ModInstruments[slot]]
}

// Modulator ids of the single filter cut and peak sliders of old links.
const (
	legacyModFilterCut  = 7
	legacyModFilterPeak = 8
)

// remapLegacyFilterMod points the old filter cut and peak modulators at the
// first control point of whichever filter the target converted to.
func (st *decodeState) remapLegacyFilterMod(ins *song.Instrument, slot int, target *song.Instrument) {
	setting := ins.ModSettings[slot]
	if setting != legacyModFilterCut && setting != legacyModFilterPeak {
		return
	}
	if target.Effects.Has(song.EffectNoteFilter) {
		ins.ModSettings[slot] = song.ModNoteFilter
	} else {
		ins.ModSettings[slot] = song.ModEqFilter
	}
	ins.ModFilterTypes[slot] = song.ModFilterTypeFor(0, setting == legacyModFilterPeak)
}
