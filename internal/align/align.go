package align

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mgpai22/readalong/internal/model"
	"github.com/mgpai22/readalong/internal/tts"
)

// one word heard in the narration
type SpokenWord struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// interface for word-level timestamping of a narration clip
type Aligner interface {
	Words(ctx context.Context, audioPath string) ([]SpokenWord, error)
}

// speech recognition provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

type Options struct {
	Language string // language of the narration
	Model    string
	Prompt   string
}

// creates Aligner based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Aligner, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIAligner(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiAligner(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported alignment provider: %s", provider)
	}
}

// DefaultWindow is how many OCR words Match looks ahead for a spoken word.
const DefaultWindow = 6

// Match pairs spoken words with OCR words in reading order and returns a
// timing document whose tokens reference OCR indexes. Spoken words with no
// counterpart inside the look-ahead window get a token without an index.
func Match(spoken []SpokenWord, words []*model.Word, window int) *tts.Payload {
	if window <= 0 {
		window = DefaultWindow
	}

	keys := make([]string, len(words))
	for i, w := range words {
		keys[i] = Normalize(w.Text)
	}

	p := &tts.Payload{
		Header:  map[string]any{"generator": "readalong-align"},
		Payload: tts.Body{Subtitles: make([]tts.Token, 0, len(spoken))},
	}

	cursor := 0
	for _, sw := range spoken {
		tok := tts.Token{
			Text:      sw.Text,
			BeginTime: float64(sw.Start.Milliseconds()),
			EndTime:   float64(sw.End.Milliseconds()),
		}

		key := Normalize(sw.Text)
		if key != "" {
			for k := cursor; k < len(words) && k < cursor+window; k++ {
				if keys[k] == key {
					tok.BeginIndex = tts.Index(k)
					tok.EndIndex = tts.Index(k)
					cursor = k + 1
					break
				}
			}
		}

		p.Payload.Subtitles = append(p.Payload.Subtitles, tok)
	}

	return p
}

var foldMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds case and diacritics and trims surrounding punctuation so
// OCR text and recognized speech compare equal.
func Normalize(s string) string {
	out, _, err := transform.String(foldMarks, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)
	return strings.TrimFunc(out, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	jsonBlockRegex := regexp.MustCompile("```(?:json)?\\s*")
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
