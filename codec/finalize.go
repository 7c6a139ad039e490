package codec

import "github.com/QEStudios/boxcodec/song"

// Notes up to this part of the first bar are covered by the reverb note
// added for old mod songs.
const reverbNoteParts = 6

// finalize applies the fixes that need the whole song: legacy settings that
// arrived in pieces, the song reverb of old mod songs, and loop bounds.
func (st *decodeState) finalize() {
	s := st.song
	if st.c.legacySettings {
		for ci, ch := range s.Channels {
			for ii, ins := range ch.Instruments {
				st.convertLegacy(ch, ci, ii, ins)
			}
		}
	}
	if st.c.jumfive && st.songReverb.slot >= 0 {
		st.moveSongReverb()
	}

	s.LoopStart = clampInt(0, s.BarCount-1, s.LoopStart)
	s.LoopLength = clampInt(1, s.BarCount-s.LoopStart, s.LoopLength)
}

// moveSongReverb handles old songs whose mod channel modulated the song
// reverb. Reverb now lives on the instruments, so every reverb instrument is
// turned up fully and the song reverb becomes a mod note at the start.
func (st *decodeState) moveSongReverb() {
	s := st.song
	for _, ch := range s.Channels {
		for _, ins := range ch.Instruments {
			if ins.Effects.Has(song.EffectReverb) {
				ins.Reverb = song.ReverbMax
			}
		}
	}

	slot := st.songReverb
	ch := s.Channels[slot.channel]
	pitch := song.ModCount - 1 - slot.slot
	if len(ch.Bars) == 0 {
		return
	}

	if b := ch.Bars[0]; b > 0 {
		p := ch.Patterns[b-1]
		lowest := reverbNoteParts
		for _, n := range p.Notes {
			if n.Pitches[0] == pitch && n.Start < lowest {
				lowest = n.Start
			}
		}
		if lowest > 0 {
			p.Notes = append([]*song.Note{song.NewNote(pitch, 0, lowest, st.legacyGlobalReverb)}, p.Notes...)
		}
		return
	}

	if s.PatternsPerChannel >= song.PatternsPerChannelMax {
		st.warnf("no free pattern for the song reverb of channel %d", slot.channel)
		return
	}
	s.SetPatternsPerChannel(s.PatternsPerChannel + 1)
	p := ch.Patterns[s.PatternsPerChannel-1]
	p.Instruments = []int{slot.instrument}
	p.Notes = []*song.Note{song.NewNote(pitch, 0, reverbNoteParts, st.legacyGlobalReverb)}
	ch.Bars[0] = s.PatternsPerChannel
}
