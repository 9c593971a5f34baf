package segment

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/readalong/internal/audio"
	"github.com/mgpai22/readalong/internal/fetch"
	"github.com/mgpai22/readalong/internal/hocr"
	"github.com/mgpai22/readalong/internal/layout"
	"github.com/mgpai22/readalong/internal/logging"
	"github.com/mgpai22/readalong/internal/model"
	"github.com/mgpai22/readalong/internal/ocr"
	"github.com/mgpai22/readalong/internal/tts"
)

// default angle (degrees) above which a word is reported as rotated
const DefaultRotationTolerance = 2.0

// assembles segments from their OCR and TTS payloads
type Loader struct {
	Fetcher fetch.Fetcher
	Prober  audio.Prober // optional; measures narration clips
	Logger  *logging.Logger

	RotationTolerance float64
}

func NewLoader(f fetch.Fetcher, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loader{
		Fetcher:           f,
		Logger:            logger,
		RotationTolerance: DefaultRotationTolerance,
	}
}

func (l *Loader) log() *logging.Logger {
	if l.Logger == nil {
		return logging.Nop()
	}
	return l.Logger
}

// Load assembles every asset concurrently. Output order matches input order.
// Any fetch or parse failure fails the whole batch.
//
// Page dimensions come from the first segment; every segment also keeps its
// own, and a mismatch is logged.
func (l *Loader) Load(ctx context.Context, assets []model.Asset) (*model.Page, error) {
	start := time.Now()
	segments := make([]model.Segment, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	for i, asset := range assets {
		g.Go(func() error {
			seg, err := l.LoadSegment(gctx, asset)
			if err != nil {
				return fmt.Errorf("segment %s: %w", asset.ID, err)
			}
			segments[i] = *seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &model.Page{Segments: segments}
	if len(segments) > 0 {
		page.ImageWidth = segments[0].ImageWidth
		page.ImageHeight = segments[0].ImageHeight
	}
	for _, s := range segments[min(1, len(segments)):] {
		if s.ImageWidth != page.ImageWidth || s.ImageHeight != page.ImageHeight {
			l.log().Warnw("Segment image size differs from page",
				"segment", s.ID,
				"segment_size", fmt.Sprintf("%dx%d", s.ImageWidth, s.ImageHeight),
				"page_size", fmt.Sprintf("%dx%d", page.ImageWidth, page.ImageHeight),
			)
		}
	}

	l.log().Debugw("Loaded segments",
		"count", len(segments),
		"elapsed", time.Since(start).String(),
	)

	return page, nil
}

// LoadSegment fetches one asset's payloads concurrently and assembles it.
func (l *Loader) LoadSegment(ctx context.Context, asset model.Asset) (*model.Segment, error) {
	var (
		ocrDoc *ocr.Payload
		ttsDoc *tts.Payload
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		decode := ocr.Decode
		if hocr.IsHOCR(asset.OCRURL) {
			decode = hocr.Parse
		}
		ocrDoc, err = fetchDecode(gctx, l.Fetcher, asset.OCRURL, decode)
		if err != nil {
			return fmt.Errorf("ocr: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ttsDoc, err = fetchDecode(gctx, l.Fetcher, asset.TTSURL, tts.Decode)
		if err != nil {
			return fmt.Errorf("tts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log := l.log().With("segment", asset.ID)

	if rotated := ocr.RotatedWords(ocrDoc, l.RotationTolerance); len(rotated) > 0 {
		log.Warnw("Rotated words are treated as axis-aligned",
			"count", len(rotated),
			"indexes", rotated,
		)
	}

	seg := Assemble(asset, ocrDoc, ttsDoc, log)

	if l.Prober != nil && asset.AudioURL != "" {
		d, err := l.Prober.Duration(ctx, asset.AudioURL)
		if err != nil {
			log.Warnw("Could not probe narration clip", "audio", asset.AudioURL, "error", err)
		} else {
			seg.AudioDuration = d
			if seg.T1 > float64(d.Milliseconds()) {
				log.Warnw("Timing runs past the end of the clip",
					"t1_ms", seg.T1,
					"clip_ms", d.Milliseconds(),
				)
			}
		}
	}

	return seg, nil
}

// Assemble builds words, attaches timing, clusters runs and derives the
// segment time range. It does no I/O.
func Assemble(asset model.Asset, ocrDoc *ocr.Payload, ttsDoc *tts.Payload, log *logging.Logger) *model.Segment {
	if log == nil {
		log = logging.Nop()
	}

	words := ocr.BuildWords(ocrDoc)
	attached, skipped := tts.AttachTiming(words, ttsDoc)
	if skipped > 0 {
		log.Debugw("Skipped tokens without a usable word index",
			"skipped", skipped,
			"attached", attached,
		)
	}

	runs := layout.BuildRuns(asset.ID, words, ocrDoc.Data.Width)
	t0, t1 := model.TimeRange(words)

	log.Debugw("Assembled segment",
		"words", len(words),
		"runs", len(runs),
		"t0", t0,
		"t1", t1,
	)

	return &model.Segment{
		ID:          asset.ID,
		AudioURL:    asset.AudioURL,
		Text:        asset.Text,
		T0:          t0,
		T1:          t1,
		Runs:        runs,
		Words:       words,
		ImageWidth:  int(math.Round(ocrDoc.Data.Width)),
		ImageHeight: int(math.Round(ocrDoc.Data.Height)),
		Timeline:    asset.Timeline,
		DurationMs:  asset.DurationMs,
	}
}

func fetchDecode[T any](
	ctx context.Context,
	f fetch.Fetcher,
	ref string,
	decode func(r io.Reader) (*T, error),
) (*T, error) {
	if ref == "" {
		return nil, fmt.Errorf("no location given")
	}
	rc, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return decode(rc)
}
