package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/readalong/internal/fetch"
)

// interface for measuring narration clips
type Prober interface {
	Duration(ctx context.Context, ref string) (time.Duration, error)
}

// probes clips with ffprobe; refs may be local paths or http(s) URLs
type FFprobe struct {
	Root    string        // base directory for relative paths
	Timeout time.Duration // per-probe limit, 0 for none
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p *FFprobe) Duration(ctx context.Context, ref string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	target := ref
	if !fetch.IsRemote(ref) {
		target = strings.TrimPrefix(ref, "file://")
		if !filepath.IsAbs(target) && p.Root != "" {
			target = filepath.Join(p.Root, target)
		}
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return 0, fmt.Errorf("audio file not found: %s", target)
		}
	}

	timeout := p.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout == 0 || left < timeout {
			timeout = left
		}
	}

	out, err := ffmpeg.ProbeWithTimeout(target, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return ParseDuration(out)
}

// ParseDuration reads the container duration from ffprobe JSON output.
func ParseDuration(probeJSON string) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal([]byte(probeJSON), &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// IsAudioFile reports whether path has a narration-clip extension.
func IsAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".wav", ".m4a", ".aac", ".ogg", ".opus", ".flac", ".webm":
		return true
	}
	return false
}
