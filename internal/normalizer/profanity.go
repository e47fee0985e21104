package normalizer

import (
	"regexp"
	"strings"
)

// censorMask replaces a censored word regardless of its length.
const censorMask = "****"

// profanityWords is the censor list applied to cleaned text. Matching is
// case-insensitive and bounded at word edges so substrings inside longer
// words are left alone.
var profanityWords = []string{
	"arse",
	"arsehole",
	"ass",
	"asshole",
	"bastard",
	"bitch",
	"bollocks",
	"bullshit",
	"crap",
	"cunt",
	"damn",
	"dick",
	"dickhead",
	"douche",
	"fuck",
	"fucked",
	"fucker",
	"fucking",
	"goddamn",
	"jackass",
	"motherfucker",
	"piss",
	"pissed",
	"prick",
	"shit",
	"shitty",
	"slut",
	"twat",
	"wanker",
	"whore",
}

var profanityPattern = buildProfanityPattern()

func buildProfanityPattern() *regexp.Regexp {
	escaped := make([]string, len(profanityWords))
	for i, w := range profanityWords {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// censorProfanity masks every profane word in text.
func censorProfanity(text string) string {
	return profanityPattern.ReplaceAllString(text, censorMask)
}
