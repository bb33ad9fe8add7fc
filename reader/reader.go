package reader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/finsight/model"
)

// maxRuleThickness is the widest a filled rectangle can be, in points, while
// still counting as a drawn table border.
const maxRuleThickness = 2.0

// baselineTolerance groups text runs onto the same line.
const baselineTolerance = 2.0

// Document is an open PDF file positioned for page-by-page extraction.
type Document struct {
	file *os.File
	r    *pdf.Reader
}

// Open opens the PDF at path.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Document{file: f, r: r}, nil
}

// NewDocument wraps an already-open file. The Document takes ownership and
// closes the file on Close.
func NewDocument(f *os.File) (*Document, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	return &Document{file: f, r: r}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.file.Close()
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.r.NumPage()
}

// Page returns the 1-indexed page in geometric form.
func (d *Document) Page(n int) (*model.Page, error) {
	if n < 1 || n > d.r.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1-%d", n, d.r.NumPage())
	}

	p := d.r.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", n)
	}

	content, err := pageContent(p)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}

	fragments := assembleFragments(content.Text)
	lines := assembleLines(fragments)

	return &model.Page{
		Number:    n,
		Fragments: fragments,
		Lines:     lines,
		Rulings:   rulingsFromRects(content.Rect),
		Text:      joinLines(lines),
		Images:    extractImages(p),
	}, nil
}

// pageContent shields callers from the underlying parser, which reports
// malformed objects by panicking.
func pageContent(p pdf.Page) (content pdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse content: %v", r)
		}
	}()
	return p.Content(), nil
}

// assembleFragments merges the parser's glyph runs into word-level fragments.
// Runs on the same baseline separated by less than a word gap belong to one
// fragment; a wider gap starts a new one, which is what lets the borderless
// detector see cell boundaries.
func assembleFragments(texts []pdf.Text) []model.TextFragment {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var fragments []model.TextFragment
	cur := fragmentFromText(sorted[0])

	for _, t := range sorted[1:] {
		if sameBaseline(cur, t) && withinWordGap(cur, t) {
			if isSpaceGap(cur, t) {
				cur.Text += " "
			}
			cur.Text += norm.NFKC.String(t.S)
			cur.BBox = cur.BBox.Union(textBBox(t))
			continue
		}
		fragments = appendFragment(fragments, cur)
		cur = fragmentFromText(t)
	}

	return appendFragment(fragments, cur)
}

func fragmentFromText(t pdf.Text) model.TextFragment {
	return model.TextFragment{
		Text:     norm.NFKC.String(t.S),
		BBox:     textBBox(t),
		FontSize: t.FontSize,
	}
}

func textBBox(t pdf.Text) model.BBox {
	h := t.FontSize
	if h <= 0 {
		h = 1
	}
	return model.BBox{X: t.X, Y: t.Y, Width: t.W, Height: h}
}

func sameBaseline(cur model.TextFragment, t pdf.Text) bool {
	d := cur.BBox.Bottom() - t.Y
	return d >= -baselineTolerance && d <= baselineTolerance
}

// withinWordGap reports whether t starts close enough to the fragment's right
// edge to continue it. The threshold scales with font size since glyph
// spacing does.
func withinWordGap(cur model.TextFragment, t pdf.Text) bool {
	gap := t.X - cur.BBox.Right()
	threshold := 0.35 * t.FontSize
	if threshold < 1 {
		threshold = 1
	}
	return gap <= threshold
}

// isSpaceGap reports whether the gap between runs is wide enough to have
// held a space character the producer never emitted.
func isSpaceGap(cur model.TextFragment, t pdf.Text) bool {
	gap := t.X - cur.BBox.Right()
	threshold := 0.15 * t.FontSize
	if threshold < 1 {
		threshold = 1
	}
	return gap >= threshold
}

func appendFragment(fragments []model.TextFragment, f model.TextFragment) []model.TextFragment {
	f.Text = strings.TrimSpace(f.Text)
	if f.Text == "" {
		return fragments
	}
	return append(fragments, f)
}

// assembleLines groups fragments sharing a baseline into full text lines,
// top-to-bottom, each line left-to-right.
func assembleLines(fragments []model.TextFragment) []model.TextLine {
	if len(fragments) == 0 {
		return nil
	}

	sorted := make([]model.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Bottom() != sorted[j].BBox.Bottom() {
			return sorted[i].BBox.Bottom() > sorted[j].BBox.Bottom()
		}
		return sorted[i].BBox.Left() < sorted[j].BBox.Left()
	})

	var lines []model.TextLine
	var parts []string
	baseline := sorted[0].BBox.Bottom()

	flush := func() {
		if len(parts) > 0 {
			lines = append(lines, model.TextLine{Text: strings.Join(parts, " "), Y: baseline})
		}
	}

	for _, f := range sorted {
		if baseline-f.BBox.Bottom() > baselineTolerance {
			flush()
			parts = parts[:0]
			baseline = f.BBox.Bottom()
		}
		parts = append(parts, f.Text)
	}
	flush()

	return lines
}

func joinLines(lines []model.TextLine) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = line.Text
	}
	return strings.Join(parts, "\n")
}

// rulingsFromRects recovers ruling lines from drawn rectangles. PDF
// producers draw table borders as thin filled rectangles; anything thicker
// than maxRuleThickness is a shape, not a rule.
func rulingsFromRects(rects []pdf.Rect) []model.RulingLine {
	var rulings []model.RulingLine
	for _, r := range rects {
		w := r.Max.X - r.Min.X
		h := r.Max.Y - r.Min.Y
		if w < 0 || h < 0 {
			continue
		}

		switch {
		case h <= maxRuleThickness && w > h:
			y := (r.Min.Y + r.Max.Y) / 2
			rulings = append(rulings, model.RulingLine{
				Start:        model.Point{X: r.Min.X, Y: y},
				End:          model.Point{X: r.Max.X, Y: y},
				IsHorizontal: true,
			})
		case w <= maxRuleThickness && h > w:
			x := (r.Min.X + r.Max.X) / 2
			rulings = append(rulings, model.RulingLine{
				Start:      model.Point{X: x, Y: r.Min.Y},
				End:        model.Point{X: x, Y: r.Max.Y},
				IsVertical: true,
			})
		}
	}
	return rulings
}
