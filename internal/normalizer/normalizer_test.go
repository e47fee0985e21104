//nolint:testpackage // Exercises unexported cleaning helpers directly
package normalizer

import (
	"strings"
	"testing"
)

func TestNormalize_EmptyInput(t *testing.T) {
	n := New(nil)

	if got := n.Normalize(""); got != "" {
		t.Errorf("empty input: got %q, want empty", got)
	}
	if got := n.Normalize("   \n\t  "); got != "" {
		t.Errorf("whitespace input: got %q, want empty", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(nil)

	inputs := []string{
		"The road has been broken for weeks.",
		"water pressure drops every evening in Maple Heights",
		"Streetlight out since monday , very dark corner",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n first: %q\nsecond: %q", in, once, twice)
		}
	}
}

func TestNormalize_ReplacesURLs(t *testing.T) {
	n := New(nil)

	got := n.Normalize("reported before at https://city.example/tickets/123 but nothing happened since then")

	if strings.Contains(got, "https://") {
		t.Errorf("url survived cleaning: %q", got)
	}
	if !strings.Contains(got, "URL") {
		t.Errorf("missing url placeholder: %q", got)
	}
}

func TestNormalize_FlattensNewlines(t *testing.T) {
	n := New(nil)

	got := n.Normalize("first line\nsecond line\r\nthird line")

	if strings.ContainsAny(got, "\n\r") {
		t.Errorf("newline survived cleaning: %q", got)
	}
}

func TestNormalize_CensorsProfanity(t *testing.T) {
	n := New(nil)

	got := n.Normalize("this damn pothole has been here forever and nobody cares")

	if strings.Contains(strings.ToLower(got), "damn") {
		t.Errorf("profanity survived cleaning: %q", got)
	}
	if !strings.Contains(got, "****") {
		t.Errorf("missing censor mask: %q", got)
	}
}

func TestNormalize_KeepsOriginalWhenCleaningTooAggressive(t *testing.T) {
	n := New(nil)

	// Mostly emoji: cleaning would drop well below the token retention
	// floor, so the trimmed original must come back.
	in := "🔥 🚨 🔥 🚨 leak"
	got := n.Normalize(in)

	if got != in {
		t.Errorf("expected original back, got %q", got)
	}
}

func TestNormalize_RetentionFloorAtFractionalBoundary(t *testing.T) {
	n := New(nil)

	// 5 tokens cleaned down to 3 is 60% retention. The floor is 3.75
	// tokens, so the cleaned text must be discarded even though it holds
	// the truncated integer count.
	in := "hello world leak 🔥 🚨"
	got := n.Normalize(in)

	if got != in {
		t.Errorf("expected original back at 3/5 retention, got %q", got)
	}
}

func TestRepairEncoding_Mojibake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"smart apostrophe", "doesnâ€™t", "doesn't"},
		{"accented e", "CafÃ©", "Café"},
		{"ellipsis", "waitingâ€¦", "waiting..."},
		{"clean text untouched", "nothing wrong here", "nothing wrong here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repairEncoding(tt.in); got != tt.want {
				t.Errorf("repairEncoding(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripEmoji(t *testing.T) {
	got := stripEmoji("broken 🚰 pipe 💧 flooding")

	if strings.ContainsRune(got, '🚰') || strings.ContainsRune(got, '💧') {
		t.Errorf("emoji survived: %q", got)
	}
	if !strings.Contains(got, "broken") || !strings.Contains(got, "flooding") {
		t.Errorf("words lost: %q", got)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain words", "broken street light", []string{"broken", "street", "light"}},
		{"punctuation split off", "no water!", []string{"no", "water", "!"}},
		{"digits kept", "out for 3 days", []string{"out", "for", "3", "days"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCapitalizedSpans(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"multi word span", "flooding near Maple Heights again", []string{"Maple Heights"}},
		{"sentence start skipped", "Flooding near the river", nil},
		{"mid sentence single word", "the bridge at Riverside is cracked", []string{"Riverside"}},
		{"all caps ignored", "the light is OUT again", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capitalizedSpans(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("capitalizedSpans(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
