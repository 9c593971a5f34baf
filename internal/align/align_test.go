package align

import (
	"context"
	"testing"
	"time"

	"github.com/mgpai22/readalong/internal/model"
	"github.com/mgpai22/readalong/internal/tts"
)

func ocrWords(texts ...string) []*model.Word {
	words := make([]*model.Word, len(texts))
	for i, t := range texts {
		words[i] = &model.Word{Index: i, Text: t}
	}
	return words
}

func spoken(text string, startMs, endMs int) SpokenWord {
	return SpokenWord{
		Text:  text,
		Start: time.Duration(startMs) * time.Millisecond,
		End:   time.Duration(endMs) * time.Millisecond,
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello,", "hello"},
		{"“Café”", "cafe"},
		{"NAÏVE!", "naive"},
		{"don't", "don't"},
		{"...", ""},
		{"42.", "42"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	words := ocrWords("A", "hungry", "Fox,", "—", "saw", "some", "grapes.")
	heard := []SpokenWord{
		spoken("a", 0, 120),
		spoken("hungry", 150, 500),
		spoken("fox", 520, 900),
		spoken("uh", 950, 1000),
		spoken("saw", 1100, 1300),
		spoken("grapes", 1500, 2000),
	}

	p := Match(heard, words, 0)
	subs := p.Payload.Subtitles
	if len(subs) != len(heard) {
		t.Fatalf("expected %d tokens, got %d", len(heard), len(subs))
	}

	want := []tts.WordIndex{
		tts.Index(0),
		tts.Index(1),
		tts.Index(2),
		{},
		tts.Index(4),
		tts.Index(6),
	}
	for i, w := range want {
		if subs[i].BeginIndex != w {
			t.Errorf("token %d (%s): BeginIndex = %+v, want %+v", i, subs[i].Text, subs[i].BeginIndex, w)
		}
	}
	if subs[2].BeginTime != 520 || subs[2].EndTime != 900 {
		t.Errorf("token 2 times = [%v, %v]", subs[2].BeginTime, subs[2].EndTime)
	}

	// the matched payload feeds straight into the timing attacher
	tts.AttachTiming(words, p)
	if words[6].Timing != model.At(1500, 2000) {
		t.Errorf("grapes timing = %+v", words[6].Timing)
	}
	if words[5].Timing.Valid {
		t.Errorf("unspoken word should stay untimed, got %+v", words[5].Timing)
	}
}

func TestMatchWindowLimitsLookahead(t *testing.T) {
	words := ocrWords("one", "two", "three", "four", "five")
	heard := []SpokenWord{spoken("five", 0, 100), spoken("one", 100, 200)}

	p := Match(heard, words, 2)
	if p.Payload.Subtitles[0].BeginIndex.Set {
		t.Errorf("five is outside the window, got %+v", p.Payload.Subtitles[0].BeginIndex)
	}
	// the cursor did not move, so "one" still matches
	if p.Payload.Subtitles[1].BeginIndex != tts.Index(0) {
		t.Errorf("one: BeginIndex = %+v", p.Payload.Subtitles[1].BeginIndex)
	}
}

func TestMatchRepeatedWordsAdvance(t *testing.T) {
	words := ocrWords("the", "cat", "and", "the", "dog")
	heard := []SpokenWord{
		spoken("the", 0, 100),
		spoken("cat", 100, 200),
		spoken("and", 200, 300),
		spoken("the", 300, 400),
		spoken("dog", 400, 500),
	}
	p := Match(heard, words, 0)
	for i, tok := range p.Payload.Subtitles {
		if tok.BeginIndex != tts.Index(i) {
			t.Errorf("token %d: BeginIndex = %+v, want %d", i, tok.BeginIndex, i)
		}
	}
}

func TestParseVerboseWords(t *testing.T) {
	tests := []struct {
		name      string
		rawJSON   string
		wantCount int
		wantErr   bool
	}{
		{
			name: "word timestamps",
			rawJSON: `{
				"text": "A hungry fox.",
				"words": [
					{"word": "A", "start": 0.0, "end": 0.12},
					{"word": "hungry", "start": 0.15, "end": 0.5},
					{"word": "fox", "start": 0.52, "end": 0.9}
				],
				"language": "english",
				"duration": 1.1
			}`,
			wantCount: 3,
		},
		{
			name:      "blank words dropped",
			rawJSON:   `{"words": [{"word": " ", "start": 0, "end": 0.1}, {"word": "fox", "start": 0.1, "end": 0.4}]}`,
			wantCount: 1,
		},
		{
			name:    "no words",
			rawJSON: `{"text": "A hungry fox.", "words": []}`,
			wantErr: true,
		},
		{
			name:    "empty",
			rawJSON: ``,
			wantErr: true,
		},
		{
			name:    "invalid json",
			rawJSON: `{"words": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerboseWords(tt.rawJSON)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %d words", len(got))
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVerboseWords() error: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("got %d words, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestParseVerboseWordsTimes(t *testing.T) {
	got, err := parseVerboseWords(`{"words": [{"word": "fox", "start": 0.52, "end": 0.9}]}`)
	if err != nil {
		t.Fatalf("parseVerboseWords() error: %v", err)
	}
	if got[0].Start != 520*time.Millisecond || got[0].End != 900*time.Millisecond {
		t.Errorf("times = [%v, %v]", got[0].Start, got[0].End)
	}
}

func TestParseGeminiWords(t *testing.T) {
	response := "```json\n[{\"word\": \"A\", \"start\": 0, \"end\": 0.1}, {\"word\": \"fox\", \"start\": 0.2, \"end\": 0.6}]\n```"
	got, err := parseGeminiWords(response)
	if err != nil {
		t.Fatalf("parseGeminiWords() error: %v", err)
	}
	if len(got) != 2 || got[1].Text != "fox" || got[1].End != 600*time.Millisecond {
		t.Errorf("parseGeminiWords() = %+v", got)
	}

	if _, err := parseGeminiWords("I could not hear anything."); err == nil {
		t.Error("expected error for non-JSON response")
	}
	if _, err := parseGeminiWords("  "); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	a, err := Factory(ctx, ProviderOpenAI, "fake-key", Options{})
	if err != nil {
		t.Fatalf("Factory(ProviderOpenAI) error: %v", err)
	}
	if _, ok := a.(*OpenAIAligner); !ok {
		t.Errorf("expected *OpenAIAligner, got %T", a)
	}

	a, err = Factory(ctx, ProviderGemini, "fake-key", Options{})
	if err != nil {
		t.Fatalf("Factory(ProviderGemini) error: %v", err)
	}
	if _, ok := a.(*GeminiAligner); !ok {
		t.Errorf("expected *GeminiAligner, got %T", a)
	}

	if _, err := Factory(ctx, Provider("anthropic"), "fake-key", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := Factory(ctx, ProviderOpenAI, "", Options{}); err == nil {
		t.Error("expected error for missing OpenAI key")
	}
}
