package cli

import (
	"github.com/mgpai22/readalong/internal/config"
	"github.com/mgpai22/readalong/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "readalong",
	Short: "Synchronise narration audio with the words on a page image",
	Long: `Readalong assembles OCR word boxes and narration timings into
reading-order lines, and reports how far each line has been read at any
point of the narration.

It can inspect a dataset manifest, evaluate line progress at a given time,
export line cues (srt, vtt, ass) or hOCR, and derive word timings from
narration audio with OpenAI or Gemini.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ./readalong.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
