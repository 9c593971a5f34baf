package segment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/readalong/internal/fetch"
	"github.com/mgpai22/readalong/internal/model"
)

// serves canned documents, optionally delayed per ref
type fakeFetcher struct {
	docs   map[string]string
	delays map[string]time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	if d := f.delays[ref]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	doc, ok := f.docs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fetch.ErrNotFound, ref)
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

type fakeProber struct {
	d   time.Duration
	err error
}

func (p *fakeProber) Duration(ctx context.Context, ref string) (time.Duration, error) {
	return p.d, p.err
}

const ocrDoc = `{
	"code": 0,
	"data": {
		"width": 1000,
		"height": 800,
		"words": [
			{"text": "The",  "rotated_rect": [40, 110, 60, 20, 0]},
			{"text": "fox",  "rotated_rect": [120, 110, 60, 20, 0]},
			{"text": "ran",  "rotated_rect": [40, 160, 60, 20, 0]},
			{"text": "away", "rotated_rect": [700, 110, 80, 20, 0]}
		]
	}
}`

const ttsDoc = `{
	"header": {"code": 3000},
	"payload": {"subtitles": [
		{"text": "The",  "begin_time": 120, "end_time": 300,  "begin_index": 0, "end_index": 1},
		{"text": "fox",  "begin_time": 350, "end_time": 700,  "begin_index": 1, "end_index": 2},
		{"text": ",",    "begin_time": 700, "end_time": 720},
		{"text": "ran",  "begin_time": 800, "end_time": 1100, "begin_index": 2, "end_index": 3},
		{"text": "??",   "begin_time": 900, "end_time": 950,  "begin_index": 42}
	]}
}`

const untimedTTS = `{"header": {}, "payload": {"subtitles": []}}`

func newFetcher() *fakeFetcher {
	return &fakeFetcher{
		docs: map[string]string{
			"a_ocr.json": ocrDoc,
			"a_tts.json": ttsDoc,
			"b_ocr.json": strings.Replace(ocrDoc, `"width": 1000`, `"width": 1200`, 1),
			"b_tts.json": untimedTTS,
		},
		delays: map[string]time.Duration{},
	}
}

func asset(id string) model.Asset {
	return model.Asset{
		ID:       id,
		AudioURL: id + ".mp3",
		OCRURL:   id + "_ocr.json",
		TTSURL:   id + "_tts.json",
		Text:     "text of " + id,
	}
}

func TestLoadSegment(t *testing.T) {
	l := NewLoader(newFetcher(), nil)

	seg, err := l.LoadSegment(context.Background(), asset("a"))
	if err != nil {
		t.Fatalf("LoadSegment() error: %v", err)
	}

	if seg.ID != "a" || seg.AudioURL != "a.mp3" || seg.Text != "text of a" {
		t.Errorf("segment metadata = %+v", seg)
	}
	if seg.T0 != 120 || seg.T1 != 1100 {
		t.Errorf("time range = (%v, %v), want (120, 1100)", seg.T0, seg.T1)
	}
	if seg.ImageWidth != 1000 || seg.ImageHeight != 800 {
		t.Errorf("image size = %dx%d", seg.ImageWidth, seg.ImageHeight)
	}

	// "away" (x=660) sits in the right column; its line shares y with The/fox
	wantRuns := []string{"The fox", "away", "ran"}
	if len(seg.Runs) != len(wantRuns) {
		t.Fatalf("got %d runs, want %d", len(seg.Runs), len(wantRuns))
	}
	for i, want := range wantRuns {
		if got := seg.Runs[i].Text(); got != want {
			t.Errorf("run %d text = %q, want %q", i, got, want)
		}
		if wantID := fmt.Sprintf("a-run-%d", i+1); seg.Runs[i].ID != wantID {
			t.Errorf("run %d ID = %q, want %q", i, seg.Runs[i].ID, wantID)
		}
	}

	if seg.Words[3].Timing.Valid {
		t.Errorf("word 3 should be untimed, got %+v", seg.Words[3].Timing)
	}
	// flat word list and runs share the same word values
	if seg.Runs[0].Words[0] != seg.Words[0] {
		t.Error("run words should point into the segment word list")
	}
}

func TestLoadSegmentUntimed(t *testing.T) {
	l := NewLoader(newFetcher(), nil)
	seg, err := l.LoadSegment(context.Background(), asset("b"))
	if err != nil {
		t.Fatalf("LoadSegment() error: %v", err)
	}
	if seg.T0 != 0 || seg.T1 != 0 {
		t.Errorf("untimed segment range = (%v, %v), want (0, 0)", seg.T0, seg.T1)
	}
}

func TestLoadPreservesInputOrder(t *testing.T) {
	f := newFetcher()
	// the first asset finishes last
	f.delays["a_ocr.json"] = 50 * time.Millisecond

	l := NewLoader(f, nil)
	page, err := l.Load(context.Background(), []model.Asset{asset("a"), asset("b")})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(page.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(page.Segments))
	}
	if page.Segments[0].ID != "a" || page.Segments[1].ID != "b" {
		t.Errorf("segment order = %s, %s", page.Segments[0].ID, page.Segments[1].ID)
	}
	// page size comes from the first segment even though b differs
	if page.ImageWidth != 1000 || page.ImageHeight != 800 {
		t.Errorf("page size = %dx%d, want 1000x800", page.ImageWidth, page.ImageHeight)
	}
	if page.Segments[1].ImageWidth != 1200 {
		t.Errorf("segment b keeps its own width, got %d", page.Segments[1].ImageWidth)
	}
}

func TestLoadFailsWholeBatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fakeFetcher)
	}{
		{"missing tts", func(f *fakeFetcher) { delete(f.docs, "b_tts.json") }},
		{"missing ocr", func(f *fakeFetcher) { delete(f.docs, "a_ocr.json") }},
		{"malformed ocr", func(f *fakeFetcher) { f.docs["b_ocr.json"] = `{"data": {"words": [{"rotated_rect": [1]}]}}` }},
		{"malformed tts", func(f *fakeFetcher) { f.docs["a_tts.json"] = `not json` }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFetcher()
			tt.mutate(f)
			page, err := NewLoader(f, nil).Load(context.Background(), []model.Asset{asset("a"), asset("b")})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if page != nil {
				t.Errorf("expected no partial result, got %+v", page)
			}
		})
	}
}

func TestLoadErrorWrapsCause(t *testing.T) {
	f := newFetcher()
	delete(f.docs, "a_ocr.json")
	_, err := NewLoader(f, nil).Load(context.Background(), []model.Asset{asset("a")})
	if !errors.Is(err, fetch.ErrNotFound) {
		t.Errorf("error = %v, want wrapped ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "segment a") {
		t.Errorf("error should name the segment: %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	page, err := NewLoader(newFetcher(), nil).Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load(nil) error: %v", err)
	}
	if page.ImageWidth != 0 || page.ImageHeight != 0 || len(page.Segments) != 0 {
		t.Errorf("Load(nil) = %+v, want empty page", page)
	}
}

func TestLoadSegmentProbesAudio(t *testing.T) {
	l := NewLoader(newFetcher(), nil)
	l.Prober = &fakeProber{d: 1500 * time.Millisecond}

	seg, err := l.LoadSegment(context.Background(), asset("a"))
	if err != nil {
		t.Fatalf("LoadSegment() error: %v", err)
	}
	if seg.AudioDuration != 1500*time.Millisecond {
		t.Errorf("AudioDuration = %v", seg.AudioDuration)
	}

	// probe failures are not fatal
	l.Prober = &fakeProber{err: errors.New("ffprobe missing")}
	seg, err = l.LoadSegment(context.Background(), asset("a"))
	if err != nil {
		t.Fatalf("LoadSegment() with failing probe: %v", err)
	}
	if seg.AudioDuration != 0 {
		t.Errorf("AudioDuration = %v, want 0", seg.AudioDuration)
	}
}

const hocrDoc = `<html><body>
<div class="ocr_page" title="bbox 0 0 1000 800">
 <span class="ocr_line" title="bbox 10 100 150 120">
  <span class="ocrx_word" title="bbox 10 100 70 120">The</span>
  <span class="ocrx_word" title="bbox 90 100 150 120">fox</span>
 </span>
 <span class="ocr_line" title="bbox 10 150 70 170">
  <span class="ocrx_word" title="bbox 10 150 70 170">ran</span>
 </span>
 <span class="ocr_line" title="bbox 660 100 740 120">
  <span class="ocrx_word" title="bbox 660 100 740 120">away</span>
 </span>
</div>
</body></html>`

func TestLoadSegmentFromHOCR(t *testing.T) {
	f := newFetcher()
	f.docs["h.hocr"] = hocrDoc
	f.docs["h_tts.json"] = ttsDoc

	seg, err := NewLoader(f, nil).LoadSegment(context.Background(), model.Asset{
		ID:     "h",
		OCRURL: "h.hocr",
		TTSURL: "h_tts.json",
	})
	if err != nil {
		t.Fatalf("LoadSegment() error: %v", err)
	}

	if seg.ImageWidth != 1000 || seg.ImageHeight != 800 {
		t.Errorf("image size = %dx%d", seg.ImageWidth, seg.ImageHeight)
	}
	// word indexes follow hOCR document order, which the timing doc references
	wantRuns := []string{"The fox", "away", "ran"}
	for i, want := range wantRuns {
		if got := seg.Runs[i].Text(); got != want {
			t.Errorf("run %d text = %q, want %q", i, got, want)
		}
	}
	if seg.T0 != 120 || seg.T1 != 1100 {
		t.Errorf("time range = (%v, %v), want (120, 1100)", seg.T0, seg.T1)
	}
}

func TestLoaderWithoutLogger(t *testing.T) {
	l := &Loader{Fetcher: newFetcher()}

	seg, err := l.LoadSegment(context.Background(), asset("a"))
	if err != nil {
		t.Fatalf("LoadSegment() error: %v", err)
	}
	if seg.T1 != 1100 {
		t.Errorf("T1 = %v, want 1100", seg.T1)
	}

	// mismatched page sizes take the warning path
	page, err := l.Load(context.Background(), []model.Asset{asset("a"), asset("b")})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(page.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(page.Segments))
	}
}

func TestLoadSegmentKeepsTimeline(t *testing.T) {
	a := asset("a")
	a.Timeline = model.At(4200, 9100)
	a.DurationMs = 4900

	seg, err := NewLoader(newFetcher(), nil).LoadSegment(context.Background(), a)
	if err != nil {
		t.Fatalf("LoadSegment() error: %v", err)
	}
	if seg.Timeline != a.Timeline || seg.DurationMs != 4900 {
		t.Errorf("timeline = %+v duration = %v", seg.Timeline, seg.DurationMs)
	}
}

func TestLoadSegmentFractionalPageSize(t *testing.T) {
	f := newFetcher()
	f.docs["f_ocr.json"] = strings.Replace(
		strings.Replace(ocrDoc, `"width": 1000`, `"width": 999.6`, 1),
		`"height": 800`, `"height": 800.2`, 1,
	)
	f.docs["f_tts.json"] = ttsDoc

	seg, err := NewLoader(f, nil).LoadSegment(context.Background(), asset("f"))
	if err != nil {
		t.Fatalf("LoadSegment() error: %v", err)
	}
	if seg.ImageWidth != 1000 || seg.ImageHeight != 800 {
		t.Errorf("image size = %dx%d, want 1000x800", seg.ImageWidth, seg.ImageHeight)
	}
}
