package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubRip format
type SRTEncoder struct{}

// WebVTT format
type VTTEncoder struct{}

// Advanced SubStation Alpha format
type ASSEncoder struct {
	Title    string
	FontName string
	FontSize int
}

func NewEncoder(format Format) (Encoder, error) {
	switch format {
	case FormatSRT:
		return &SRTEncoder{}, nil
	case FormatVTT:
		return &VTTEncoder{}, nil
	case FormatASS:
		return &ASSEncoder{
			Title:    "Read-along Lines",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteFile encodes sub into path, creating parent directories.
func WriteFile(enc Encoder, sub *Subtitle, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := enc.Encode(f, sub); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (e *SRTEncoder) Encode(w io.Writer, sub *Subtitle) error {
	bw := bufio.NewWriter(w)
	for i, entry := range sub.Entries {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			cueNumber(entry, i),
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.EndTime),
			entry.Text)
	}
	return bw.Flush()
}

func (e *VTTEncoder) Encode(w io.Writer, sub *Subtitle) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("WEBVTT\n")
	if sub.Language != "" {
		fmt.Fprintf(bw, "Language: %s\n", sub.Language)
	}
	bw.WriteString("\n")
	for i, entry := range sub.Entries {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			cueNumber(entry, i),
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime),
			entry.Text)
	}
	return bw.Flush()
}

func (e *ASSEncoder) Encode(w io.Writer, sub *Subtitle) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("[Script Info]\n")
	fmt.Fprintf(bw, "Title: %s\n", e.Title)
	if sub.Language != "" {
		fmt.Fprintf(bw, "Language: %s\n", sub.Language)
	}
	bw.WriteString("ScriptType: v4.00+\n")
	bw.WriteString("Collisions: Normal\n")
	bw.WriteString("PlayDepth: 0\n\n")

	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		e.FontName, e.FontSize)

	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, entry := range sub.Entries {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(entry.StartTime),
			formatASSTime(entry.EndTime),
			strings.ReplaceAll(entry.Text, "\n", "\\N"))
	}

	return bw.Flush()
}

// entries built by hand may leave Index unset
func cueNumber(entry Entry, i int) int {
	if entry.Index > 0 {
		return entry.Index
	}
	return i + 1
}

func formatSRTTime(d time.Duration) string {
	return formatClock(d, ",")
}

func formatVTTTime(d time.Duration) string {
	return formatClock(d, ".")
}

func formatClock(d time.Duration, sep string) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, sep, millis)
}

func formatASSTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	centis := (int(d.Milliseconds()) % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}
