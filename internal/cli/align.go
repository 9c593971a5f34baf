package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/readalong/internal/align"
	"github.com/mgpai22/readalong/internal/audio"
	"github.com/mgpai22/readalong/internal/ocr"
	"github.com/mgpai22/readalong/internal/tts"
	"github.com/spf13/cobra"
)

var alignCmd = &cobra.Command{
	Use:   "align [audio_file]",
	Short: "Derive word timings for a segment from its narration audio",
	Long: `Transcribe the narration with word-level timestamps and match the heard
words against the segment's OCR words in reading order. The result is a timing
document with begin_index references, in the same shape the loader reads.

Supported providers:
  openai  - Whisper verbose_json with word timestamps (default)
  gemini  - Gemini audio understanding with a JSON word list

Examples:
  readalong align seg-001.mp3 --ocr seg-001.ocr.json
  readalong align seg-001.mp3 --ocr seg-001.ocr.json -o seg-001.tts.json --provider gemini`,
	Args: cobra.ExactArgs(1),
	RunE: runAlign,
}

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().String("ocr", "", "OCR document of the segment (required)")
	alignCmd.Flags().
		StringP("provider", "p", "", "Speech provider: openai or gemini (default from config)")
	alignCmd.Flags().
		StringP("api-key", "k", "", "API key (or set OPENAI_API_KEY / GEMINI_API_KEY env var)")
	alignCmd.Flags().String("model", "", "Model to use for transcription")
	alignCmd.Flags().
		StringP("language", "l", "", "Language code of the narration (e.g., en, es, fr)")
	alignCmd.Flags().
		Int("window", 0, "OCR words to look ahead when matching (default from config)")

	_ = alignCmd.MarkFlagRequired("ocr")
}

func runAlign(cmd *cobra.Command, args []string) error {
	audioPath := args[0]
	ctx := context.Background()

	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", audioPath)
	}
	if !audio.IsAudioFile(audioPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio file)", filepath.Ext(audioPath))
	}

	ocrPath, _ := cmd.Flags().GetString("ocr")
	providerStr, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	modelName, _ := cmd.Flags().GetString("model")
	language, _ := cmd.Flags().GetString("language")
	window, _ := cmd.Flags().GetInt("window")
	outputPath, _ := cmd.Flags().GetString("output")

	if providerStr != "" {
		cfg.Provider = strings.ToLower(providerStr)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if apiKey == "" {
		apiKey = cfg.APIKey()
	}
	if apiKey == "" {
		return fmt.Errorf("%s API key is required: use --api-key flag, the config file, or the provider's environment variable", cfg.Provider)
	}
	if modelName == "" {
		modelName = cfg.Model
	}
	if language == "" {
		language = cfg.Language
	}
	if window <= 0 {
		window = cfg.MatchWindow
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".tts.json"
	}

	f, err := os.Open(ocrPath)
	if err != nil {
		return fmt.Errorf("failed to open OCR document: %w", err)
	}
	doc, err := ocr.Decode(f)
	f.Close()
	if err != nil {
		return err
	}
	words := ocr.BuildWords(doc)

	aligner, err := align.Factory(ctx, align.Provider(cfg.Provider), apiKey, align.Options{
		Language: language,
		Model:    modelName,
	})
	if err != nil {
		return fmt.Errorf("failed to create aligner: %w", err)
	}

	logger.Infow("Transcribing narration",
		"input", audioPath,
		"provider", cfg.Provider,
		"ocr_words", len(words),
	)

	heard, err := aligner.Words(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	payload := align.Match(heard, words, window)
	matched := countMatched(payload)

	logger.Infow("Alignment complete",
		"heard", len(heard),
		"matched", matched,
		"unmatched", len(heard)-matched,
	)

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode timings: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write timings: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Timings written: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Words heard: %d\n", len(heard))
	fmt.Fprintf(cmd.OutOrStdout(), "  Matched to page: %d of %d\n", matched, len(words))

	return nil
}

func countMatched(p *tts.Payload) int {
	n := 0
	for _, tok := range p.Payload.Subtitles {
		if tok.BeginIndex.Set {
			n++
		}
	}
	return n
}
