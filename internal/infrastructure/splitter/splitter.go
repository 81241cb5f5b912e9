package splitter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/storyreelhq/storyreel/internal/core/ports"
)

// Splitter breaks an extracted document into the chapter/paragraph/sentence
// hierarchy. Chapters are cut on heading lines; when no heading matches, the
// whole document becomes a single untitled chapter.
type Splitter struct {
	MaxSentenceRunes int
}

func New() *Splitter {
	return &Splitter{MaxSentenceRunes: 300}
}

var headingPattern = regexp.MustCompile(`(?m)^\s*(?:第[0-9一二三四五六七八九十百千]+[章节卷]|Chapter\s+\d+|CHAPTER\s+\d+|#{1,3}\s+\S).*$`)

func (s *Splitter) Split(text string) []ports.SplitChapter {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	headings := headingPattern.FindAllStringIndex(text, -1)
	if len(headings) == 0 {
		return []ports.SplitChapter{s.buildChapter("", text)}
	}

	out := make([]ports.SplitChapter, 0, len(headings)+1)

	// Text before the first heading becomes a preamble chapter.
	if lead := strings.TrimSpace(text[:headings[0][0]]); lead != "" {
		out = append(out, s.buildChapter("", lead))
	}

	for i, h := range headings {
		title := strings.TrimSpace(strings.TrimLeft(text[h[0]:h[1]], "# \t"))
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		body := strings.TrimSpace(text[h[1]:end])
		out = append(out, s.buildChapter(title, body))
	}
	return out
}

func (s *Splitter) buildChapter(title, body string) ports.SplitChapter {
	ch := ports.SplitChapter{
		Title:   title,
		Content: body,
	}
	for _, block := range strings.Split(body, "\n\n") {
		content := strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if content == "" {
			continue
		}
		ch.Paragraphs = append(ch.Paragraphs, ports.SplitParagraph{
			Content:   content,
			Sentences: s.splitSentences(content),
		})
	}
	return ch
}

// splitSentences cuts on terminal punctuation, keeping the punctuation with
// the sentence. Overlong runs without punctuation are cut at the rune limit
// so a sentence always fits one generated clip.
func (s *Splitter) splitSentences(paragraph string) []string {
	maxRunes := s.MaxSentenceRunes
	if maxRunes <= 0 {
		maxRunes = 300
	}

	var out []string
	var current []rune
	flush := func() {
		sentence := strings.TrimSpace(string(current))
		if sentence != "" {
			out = append(out, sentence)
		}
		current = current[:0]
	}

	for _, r := range paragraph {
		current = append(current, r)
		if isTerminal(r) || len(current) >= maxRunes {
			flush()
		}
	}
	flush()
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '…', ';', '；':
		return true
	default:
		return false
	}
}

// CountWords counts whitespace-separated words plus CJK characters, which do
// not use spaces.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			count++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}
