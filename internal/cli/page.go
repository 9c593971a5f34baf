package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mgpai22/readalong/internal/audio"
	"github.com/mgpai22/readalong/internal/fetch"
	"github.com/mgpai22/readalong/internal/manifest"
	"github.com/mgpai22/readalong/internal/model"
	"github.com/mgpai22/readalong/internal/segment"
)

// loadPage reads the manifest at ref and assembles all of its segments.
func loadPage(ctx context.Context, ref string) (*manifest.Manifest, *model.Page, error) {
	fetcher := fetch.NewAuto("", cfg.HTTPTimeout)

	m, err := manifest.Load(ctx, fetcher, ref)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	loader := segment.NewLoader(fetcher, logger)
	loader.RotationTolerance = cfg.RotationTolerance
	if cfg.ProbeAudio {
		loader.Prober = &audio.FFprobe{Timeout: cfg.HTTPTimeout}
	}

	logger.Infow("Loading segments",
		"manifest", ref,
		"dataset", m.Dataset,
		"segments", len(m.Segments),
	)

	page, err := loader.Load(ctx, m.Assets(ref))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to assemble segments: %w", err)
	}

	return m, page, nil
}

func findSegment(page *model.Page, id string) (*model.Segment, error) {
	for i := range page.Segments {
		if page.Segments[i].ID == id {
			return &page.Segments[i], nil
		}
	}
	return nil, fmt.Errorf("segment %q not found", id)
}

// output path next to the manifest when -o is not given
func defaultOutput(manifestRef, ext string) string {
	base := manifestRef
	if fetch.IsRemote(base) {
		base = filepath.Base(strings.SplitN(base, "?", 2)[0])
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
