package align

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Aligner using OpenAI word-level timestamps
type OpenAIAligner struct {
	client  openai.Client
	model   string
	options Options
}

// word entry from a verbose_json response
type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperVerboseResponse struct {
	Text     string        `json:"text"`
	Words    []whisperWord `json:"words"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
}

func NewOpenAIAligner(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIAligner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAIAligner{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (a *OpenAIAligner) Words(ctx context.Context, audioPath string) ([]SpokenWord, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(a.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word"},
	}

	if a.options.Language != "" {
		params.Language = openai.String(a.options.Language)
	}

	if a.options.Prompt != "" {
		params.Prompt = openai.String(a.options.Prompt)
	}

	resp, err := a.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	return parseVerboseWords(resp.RawJSON())
}

func parseVerboseWords(rawJSON string) ([]SpokenWord, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(verboseResp.Words) == 0 {
		return nil, fmt.Errorf("response has no word timestamps")
	}

	words := make([]SpokenWord, 0, len(verboseResp.Words))
	for _, w := range verboseResp.Words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		words = append(words, SpokenWord{
			Text:  text,
			Start: seconds(w.Start),
			End:   seconds(w.End),
		})
	}

	return words, nil
}
