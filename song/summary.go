package song

import (
	"fmt"
	"strings"
)

// formatBarsByChannel lays out one column per channel and one row per bar.
func formatBarsByChannel(cells [][]string, headers []string, indent int) string {
	numChannels := len(cells)
	if numChannels == 0 {
		return ""
	}

	maxRows := 0
	for _, col := range cells {
		maxRows = max(maxRows, len(col))
	}

	widths := make([]int, numChannels)
	for i := range numChannels {
		widths[i] = len([]rune(headers[i]))
		for _, cell := range cells[i] {
			widths[i] = max(widths[i], len([]rune(cell)))
		}
		// Minimum width for nicer output.
		widths[i] = max(widths[i], 12)
	}

	padRight := func(s string, w int) string {
		n := len([]rune(s))
		if n >= w {
			return s
		}
		return s + strings.Repeat(" ", w-n)
	}
	separator := func(b *strings.Builder) {
		b.WriteString(strings.Repeat(" ", indent))
		for i := range numChannels {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", widths[i]+2))
		}
		b.WriteString("+\n")
	}
	row := func(b *strings.Builder, cell func(channel int) string) {
		b.WriteString(strings.Repeat(" ", indent))
		for channel := range numChannels {
			b.WriteString("| ")
			b.WriteString(padRight(cell(channel), widths[channel]))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}

	var b strings.Builder
	separator(&b)
	row(&b, func(channel int) string { return headers[channel] })
	separator(&b)
	for r := range maxRows {
		row(&b, func(channel int) string {
			if r < len(cells[channel]) {
				return cells[channel][r]
			}
			return ""
		})
	}
	separator(&b)
	return b.String()
}

func channelHeader(index int, ch *Channel) string {
	if ch.Name != "" {
		return ch.Name
	}
	return fmt.Sprintf("%s %d", strings.ToUpper(ch.Type.String()[:1])+ch.Type.String()[1:], index)
}

// String summarises the song settings and shows which pattern each channel
// plays in every bar.
func (s *Song) String() string {
	var b strings.Builder
	b.WriteString("Song:\n")
	fmt.Fprintf(&b, "- Title: %s\n", s.Title)
	scale := "?"
	if s.Scale >= 0 && s.Scale < len(Scales) {
		scale = Scales[s.Scale].Name
	}
	key := "?"
	if s.Key >= 0 && s.Key < len(Keys) {
		key = Keys[s.Key]
	}
	fmt.Fprintf(&b, "- Key: %s %s (octave %+d)\n", key, scale, s.Octave)
	fmt.Fprintf(&b, "- Tempo: %d bpm, %d beats per bar\n", s.Tempo, s.BeatsPerBar)
	fmt.Fprintf(&b, "- Bars: %d (loop %d-%d)\n", s.BarCount, s.LoopStart, s.LoopStart+s.LoopLength)

	pitch, noise, mod := s.ChannelCounts()
	fmt.Fprintf(&b, "- Channels: %d pitch, %d noise, %d mod\n", pitch, noise, mod)
	for i, ch := range s.Channels {
		fmt.Fprintf(&b, "  - %s:", channelHeader(i, ch))
		for j, ins := range ch.Instruments {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s", ins.Type)
		}
		b.WriteString("\n")
	}

	if len(s.Channels) > 0 {
		headers := make([]string, len(s.Channels))
		cells := make([][]string, len(s.Channels))
		for i, ch := range s.Channels {
			headers[i] = channelHeader(i, ch)
			for _, p := range ch.Bars {
				cell := "-"
				if p > 0 && p <= len(ch.Patterns) {
					n := len(ch.Patterns[p-1].Notes)
					cell = fmt.Sprintf("#%d (%d note", p, n)
					if n != 1 {
						cell += "s" // Pluralise the word "note" if needed.
					}
					cell += ")"
				}
				cells[i] = append(cells[i], cell)
			}
		}
		b.WriteString("- Sequence:\n")
		b.WriteString(formatBarsByChannel(cells, headers, 4))
	}
	return b.String()
}
