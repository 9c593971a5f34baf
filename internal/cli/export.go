package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/readalong/internal/hocr"
	"github.com/mgpai22/readalong/internal/subtitle"
	"github.com/spf13/cobra"
)

const formatHOCR = "hocr"

var exportCmd = &cobra.Command{
	Use:   "export [manifest]",
	Short: "Export line cues or hOCR for a manifest",
	Long: `Assemble the manifest and write one cue per timed line in SRT, VTT or ASS
format, or the whole page as hOCR with word boxes and timings.

Segments are laid end to end in cue output; set probe_audio in the config
to use each clip's measured length instead of its last timed word.

Examples:
  readalong export manifest.json
  readalong export manifest.json -f vtt -o lines.vtt
  readalong export manifest.json -f hocr`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().
		StringP("format", "f", "srt", "Output format (srt, vtt, ass, hocr)")
	exportCmd.Flags().
		StringP("language", "l", "", "Language code recorded in the output (e.g., en, es, fr)")
}

func runExport(cmd *cobra.Command, args []string) error {
	manifestRef := args[0]

	formatStr, _ := cmd.Flags().GetString("format")
	language, _ := cmd.Flags().GetString("language")
	outputPath, _ := cmd.Flags().GetString("output")

	formatStr = strings.ToLower(formatStr)
	var (
		format subtitle.Format
		ext    string
	)
	switch formatStr {
	case "srt", "vtt", "ass":
		format = subtitle.Format(formatStr)
		ext = subtitle.GetExtensionForFormat(format)
	case formatHOCR:
		ext = ".hocr"
	default:
		return fmt.Errorf("unsupported format %q: use srt, vtt, ass, or hocr", formatStr)
	}

	if outputPath == "" {
		outputPath = defaultOutput(manifestRef, ext)
	}

	m, page, err := loadPage(context.Background(), manifestRef)
	if err != nil {
		return err
	}

	if formatStr == formatHOCR {
		doc, err := hocr.Generate(page, hocr.Options{
			Title:    m.Dataset,
			Language: language,
			Image:    m.Image,
		})
		if err != nil {
			return fmt.Errorf("failed to generate hOCR: %w", err)
		}
		if err := os.WriteFile(outputPath, []byte(doc), 0644); err != nil {
			return fmt.Errorf("failed to write hOCR: %w", err)
		}
	} else {
		sub := subtitle.FromSegments(page.Segments, subtitle.Offsets(page.Segments))
		sub.Language = language

		enc, err := subtitle.NewEncoder(format)
		if err != nil {
			return fmt.Errorf("failed to create encoder: %w", err)
		}
		if err := subtitle.WriteFile(enc, sub, outputPath); err != nil {
			return fmt.Errorf("failed to write cues: %w", err)
		}

		logger.Infow("Cues written",
			"entries", len(sub.Entries),
		)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s: %s\n", formatStr, absOutput)
	return nil
}
