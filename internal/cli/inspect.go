package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mgpai22/readalong/internal/model"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [manifest]",
	Short: "Assemble a manifest and print its lines",
	Long: `Fetch every segment listed in the manifest, cluster the OCR words into
reading-order lines and attach narration timings, then print a summary.

Examples:
  readalong inspect dataset/manifest.json
  readalong inspect https://example.com/page/manifest.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Bool("json", false, "Print the assembled page as JSON")
}

func runInspect(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	_, page, err := loadPage(context.Background(), args[0])
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	writeSummary(cmd.OutOrStdout(), page)
	return nil
}

func writeSummary(w io.Writer, page *model.Page) {
	fmt.Fprintf(w, "Page %dx%d, %d segments\n", page.ImageWidth, page.ImageHeight, len(page.Segments))

	for _, seg := range page.Segments {
		fmt.Fprintf(w, "\n%s  [%.0f, %.0f] ms  %d lines  %d words\n",
			seg.ID, seg.T0, seg.T1, len(seg.Runs), len(seg.Words))

		for _, run := range seg.Runs {
			span := run.Span()
			timing := "untimed"
			if span.Valid {
				timing = fmt.Sprintf("[%.0f, %.0f]", span.Start, span.End)
			}
			fmt.Fprintf(w, "  %-16s %-14s %q\n", run.ID, timing, run.Text())
		}
	}
}
