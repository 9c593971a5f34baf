package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/mgpai22/readalong/internal/model"
	"github.com/mgpai22/readalong/internal/progress"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress [manifest]",
	Short: "Show how far each line has been read at a point in the narration",
	Long: `Evaluate the horizontal read progress (0 to 1) of every line of a segment
at the given narration time, and report the active line.

Examples:
  readalong progress manifest.json --segment seg-001 --at 1500`,
	Args: cobra.ExactArgs(1),
	RunE: runProgress,
}

func init() {
	rootCmd.AddCommand(progressCmd)

	progressCmd.Flags().StringP("segment", "s", "", "Segment id (default: first segment)")
	progressCmd.Flags().Float64("at", 0, "Narration time in milliseconds")
}

func runProgress(cmd *cobra.Command, args []string) error {
	segmentID, _ := cmd.Flags().GetString("segment")
	at, _ := cmd.Flags().GetFloat64("at")

	_, page, err := loadPage(context.Background(), args[0])
	if err != nil {
		return err
	}

	seg := &page.Segments[0]
	if segmentID != "" {
		if seg, err = findSegment(page, segmentID); err != nil {
			return err
		}
	}

	writeProgress(cmd.OutOrStdout(), seg, at)
	return nil
}

func writeProgress(w io.Writer, seg *model.Segment, at float64) {
	active := progress.ActiveRun(*seg, at)
	fractions := progress.SegmentProgress(*seg, at)

	fmt.Fprintf(w, "%s at %.0f ms\n", seg.ID, at)
	for i, run := range seg.Runs {
		marker := " "
		if i == active {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %-16s %5.1f%%  %q\n", marker, run.ID, fractions[i]*100, run.Text())
	}
}
