package align

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// implements Aligner using Google Gemini
type GeminiAligner struct {
	client  *genai.Client
	model   string
	options Options
}

// word from Gemini's JSON response
type geminiWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func NewGeminiAligner(ctx context.Context, apiKey string, opts Options) (*GeminiAligner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiAligner{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (a *GeminiAligner) Words(ctx context.Context, audioPath string) ([]SpokenWord, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	uploadedFile, err := a.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}

	defer func() {
		_, _ = a.client.Files.Delete(ctx, uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(a.buildPrompt()),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("alignment request failed: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				responseText += part.Text
			}
		}
	}

	return parseGeminiWords(responseText)
}

func (a *GeminiAligner) buildPrompt() string {
	var sb strings.Builder

	sb.WriteString("List every word spoken in this narration in order. ")
	sb.WriteString("For each word give the start and end time in seconds (as numbers). ")
	sb.WriteString("Format your response as a JSON array of objects with 'word', 'start' and 'end' fields. ")

	if a.options.Language != "" {
		sb.WriteString(fmt.Sprintf("The narration is in %s. ", a.options.Language))
	}

	if a.options.Prompt != "" {
		sb.WriteString(a.options.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

func parseGeminiWords(responseText string) ([]SpokenWord, error) {
	responseText = cleanJSONResponse(responseText)
	if responseText == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	var raw []geminiWord
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)", err, truncateString(responseText, 200))
	}

	words := make([]SpokenWord, 0, len(raw))
	for _, w := range raw {
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
