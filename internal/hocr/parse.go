package hocr

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/mgpai22/readalong/internal/ocr"
)

// IsHOCR reports whether ref names an hOCR document rather than OCR JSON.
func IsHOCR(ref string) bool {
	ref = strings.SplitN(ref, "?", 2)[0]
	switch strings.ToLower(path.Ext(ref)) {
	case ".hocr", ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Parse reads the first ocr_page of an hOCR document (tesseract, Document
// AI exports, or Generate's own output) as an OCR payload. Words keep
// document order; each bbox becomes a center-based rect, with the angle
// taken from the nearest textangle.
func Parse(r io.Reader) (*ocr.Payload, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	page := findClass(doc, "ocr_page")
	if page == nil {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}

	p := &ocr.Payload{}
	if box, ok := parseBBox(getAttrVal(page, "title")); ok {
		p.Data.Width = box[2]
		p.Data.Height = box[3]
	}

	var walk func(n *html.Node, angle float64)
	walk = func(n *html.Node, angle float64) {
		if n.Type == html.ElementNode {
			title := ParseTitle(getAttrVal(n, "title"))
			if v, ok := title["textangle"]; ok && len(v) > 0 {
				// a malformed angle keeps the inherited one
				if a, err := strconv.ParseFloat(v[0], 64); err == nil {
					angle = a
				}
			}

			if hasClass(n, "ocrx_word") {
				if box, ok := parseBBox(getAttrVal(n, "title")); ok {
					w, h := box[2]-box[0], box[3]-box[1]
					p.Data.Words = append(p.Data.Words, ocr.RawWord{
						Text:        strings.TrimSpace(textContent(n)),
						RotatedRect: []float64{box[0] + w/2, box[1] + h/2, w, h, angle},
					})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, angle)
		}
	}
	walk(page, 0)

	return p, nil
}

// ParseTitle breaks an hOCR title attribute into its properties.
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// x1 y1 x2 y2
func parseBBox(title string) ([4]float64, bool) {
	var box [4]float64
	values, ok := ParseTitle(title)["bbox"]
	if !ok || len(values) < 4 {
		return box, false
	}
	for i := range box {
		v, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return box, false
		}
		box[i] = v
	}
	return box, true
}

func findClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
