package local

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// minLineTolerance is the smallest baseline difference, in points, that
// starts a new line.
const minLineTolerance = 1.0

type textLine struct {
	y      float64
	glyphs []pdf.Text
}

// pageLines rebuilds the text lines of a page from positioned glyphs. Glyphs
// sharing a baseline form one line; lines run top to bottom and glyphs left to
// right. Glyphs with the same X keep content-stream order, which matters for
// fonts without width tables where every glyph of a string reports one X.
func pageLines(texts []pdf.Text) []string {
	var lines []*textLine
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		tol := math.Max(minLineTolerance, t.FontSize*0.4)
		var target *textLine
		for _, l := range lines {
			if math.Abs(l.y-t.Y) <= tol {
				target = l
				break
			}
		}
		if target == nil {
			target = &textLine{y: t.Y}
			lines = append(lines, target)
		}
		target.glyphs = append(target.glyphs, t)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })
		out = append(out, joinGlyphs(l.glyphs))
	}
	return out
}

// joinGlyphs concatenates a line's glyphs, inserting a space where the gap to
// the previous glyph is wider than a fifth of the font size.
func joinGlyphs(glyphs []pdf.Text) string {
	var b strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if prev.W > 0 && gap > g.FontSize*0.2 && !endsWithSpace(b.String()) && !startsWithSpace(g.S) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == utf8.RuneError || unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}
