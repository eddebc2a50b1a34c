package local

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Element types, named the way the Unstructured partition API names them so
// documents from either backend look alike.
const (
	TypeTitle         = "Title"
	TypeNarrativeText = "NarrativeText"
	TypeListItem      = "ListItem"
	TypeUncategorized = "UncategorizedText"
)

const maxTitleWords = 12

var bulletPrefixes = []string{"•", "▪", "◦", "●", "‣", "-", "*", "–", "—"}

type block struct {
	Type string
	Text string
}

// segment splits extracted page text into classified blocks. A line that
// starts lowercase continues the previous narrative block.
func segment(pageText string) []block {
	var blocks []block
	for _, raw := range strings.Split(pageText, "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		if line == "" {
			continue
		}
		if n := len(blocks); n > 0 && continuesPrevious(blocks[n-1], line) {
			blocks[n-1].Text += " " + line
			blocks[n-1].Type = classifyText(blocks[n-1].Text)
			continue
		}
		typ, text := classify(line)
		blocks = append(blocks, block{Type: typ, Text: text})
	}
	return blocks
}

func continuesPrevious(prev block, line string) bool {
	if prev.Type == TypeListItem || (prev.Type == TypeUncategorized && !hasLetters(prev.Text)) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsLower(r) && !endsSentence(prev.Text)
}

// classify returns the element type of a single line and its text with any
// list marker removed.
func classify(line string) (string, string) {
	if item, ok := stripListMarker(line); ok {
		return TypeListItem, item
	}
	return classifyText(line), line
}

func classifyText(text string) string {
	words := len(strings.Fields(text))
	switch {
	case !hasLetters(text):
		return TypeUncategorized
	case endsSentence(text) && words >= 3:
		return TypeNarrativeText
	case words > maxTitleWords:
		return TypeNarrativeText
	case startsUpper(text) && !endsSentence(text):
		return TypeTitle
	default:
		return TypeUncategorized
	}
}

func stripListMarker(line string) (string, bool) {
	for _, prefix := range bulletPrefixes {
		if rest, ok := strings.CutPrefix(line, prefix+" "); ok && strings.TrimSpace(rest) != "" {
			return strings.TrimSpace(rest), true
		}
	}
	// Enumerators: "1. ", "2) ", "a) ".
	i := 0
	for i < len(line) && i < 3 && (isDigit(line[i]) || i == 0 && isASCIILetter(line[i])) {
		i++
	}
	if i == 0 || i >= len(line)-1 {
		return "", false
	}
	if isASCIILetter(line[0]) && (i != 1 || line[i] != ')') {
		return "", false
	}
	if (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		rest := strings.TrimSpace(line[i+2:])
		return rest, rest != ""
	}
	return "", false
}

func endsSentence(text string) bool {
	r, _ := utf8.DecodeLastRuneInString(text)
	switch r {
	case '.', '!', '?', ';', '…':
		return true
	}
	return false
}

func startsUpper(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			return false
		}
	}
	return false
}

func hasLetters(text string) bool {
	return strings.IndexFunc(text, unicode.IsLetter) >= 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isASCIILetter(b byte) bool { return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' }
