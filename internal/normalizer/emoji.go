package normalizer

import "strings"

// emojiRanges covers the Unicode blocks where emoji and pictographs live.
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // Misc symbols and pictographs
	{0x1F600, 0x1F64F}, // Emoticons
	{0x1F680, 0x1F6FF}, // Transport and map symbols
	{0x1F700, 0x1F77F}, // Alchemical symbols
	{0x1F900, 0x1F9FF}, // Supplemental symbols and pictographs
	{0x1FA00, 0x1FAFF}, // Symbols and pictographs extended-A
	{0x2600, 0x26FF},   // Misc symbols
	{0x2700, 0x27BF},   // Dingbats
	{0x1F1E6, 0x1F1FF}, // Regional indicators (flags)
	{0xFE00, 0xFE0F},   // Variation selectors
	{0x200D, 0x200D},   // Zero-width joiner
	{0x20E3, 0x20E3},   // Combining enclosing keycap
}

// stripEmoji replaces every emoji rune with a single space.
func stripEmoji(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if isEmoji(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}
