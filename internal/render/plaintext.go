package render

import (
	"math"
	"regexp"
	"strings"
)

type replacement struct {
	re   *regexp.Regexp
	with string
}

// Order matters: fences before inline code, images before links.
var plainTextSteps = []replacement{
	{regexp.MustCompile("(?s)```.*?```"), ""},
	{regexp.MustCompile("`([^`]+)`"), "${1}"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "${1}"},
	{regexp.MustCompile(`\*([^*]+)\*`), "${1}"},
	{regexp.MustCompile(`__([^_]+)__`), "${1}"},
	{regexp.MustCompile(`_([^_]+)_`), "${1}"},
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`), "${1}"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "${1}"},
	{regexp.MustCompile(`(?m)^---+$`), ""},
	{regexp.MustCompile(`(?m)^\s*[-*+]\s+`), ""},
	{regexp.MustCompile(`(?m)^\s*\d+\.\s+`), ""},
	{regexp.MustCompile(`(?m)^>\s+`), ""},
	{regexp.MustCompile(`\n\s*\n`), "\n"},
}

// PlainText strips markdown syntax for indexing. It is a best-effort,
// regex-based projection, not a parser.
func PlainText(markdown string) string {
	if markdown == "" {
		return ""
	}
	out := markdown
	for _, step := range plainTextSteps {
		out = step.re.ReplaceAllString(out, step.with)
	}
	return strings.TrimSpace(out)
}

// WordCount counts whitespace-separated words of the plain-text projection.
func WordCount(markdown string) int {
	return len(strings.Fields(PlainText(markdown)))
}

type ReadingModel int

const (
	// ReadingWords applies WordsPerMinute to every whitespace-separated word.
	ReadingWords ReadingModel = iota
	// ReadingMixed counts Hangul syllables at KoreanCharsPerMinute and the
	// remaining words at WordsPerMinute.
	ReadingMixed
)

type ReadingOptions struct {
	Model                ReadingModel
	WordsPerMinute       int
	KoreanCharsPerMinute int
}

func DefaultReadingOptions() ReadingOptions {
	return ReadingOptions{Model: ReadingWords, WordsPerMinute: 200, KoreanCharsPerMinute: 500}
}

// ReadingTime estimates minutes to read markdown: at least 1 for non-empty
// input, 0 for empty input.
func ReadingTime(markdown string, opts ReadingOptions) int {
	if markdown == "" {
		return 0
	}
	wpm := opts.WordsPerMinute
	if wpm <= 0 {
		wpm = 200
	}
	words := strings.Fields(PlainText(markdown))

	var minutes float64
	switch opts.Model {
	case ReadingMixed:
		cpm := opts.KoreanCharsPerMinute
		if cpm <= 0 {
			cpm = 500
		}
		syllables, others := 0, 0
		for _, w := range words {
			n := 0
			for _, r := range w {
				if isHangulSyllable(r) {
					n++
				}
			}
			if n > 0 {
				syllables += n
			} else {
				others++
			}
		}
		minutes = float64(syllables)/float64(cpm) + float64(others)/float64(wpm)
	default:
		minutes = float64(len(words)) / float64(wpm)
	}

	rt := int(math.Ceil(minutes))
	if rt < 1 {
		rt = 1
	}
	return rt
}
