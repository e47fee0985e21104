package normalizer

// mojibakeReplacements maps common UTF-8-decoded-as-Windows-1252 sequences
// back to the characters users typed. Order matters: longer sequences first
// so their prefixes do not match early.
var mojibakeReplacements = [][2]string{
	{"â€™", "'"},
	{"â€˜", "'"},
	{"â€œ", "\""},
	{"â€", "\""},
	{"â€”", "-"},
	{"â€“", "-"},
	{"â€¦", "..."},
	{"Ã©", "é"},
	{"Ã¨", "è"},
	{"Ã¡", "á"},
	{"Ã³", "ó"},
	{"Ãº", "ú"},
	{"Ã±", "ñ"},
	{"Ã¼", "ü"},
	{"Ã¶", "ö"},
	{"Ã¤", "ä"},
	{"Ã§", "ç"},
	{"Â°", "°"},
	{"Â·", "·"},
	{"Â ", " "},
	{" ", " "},
}
