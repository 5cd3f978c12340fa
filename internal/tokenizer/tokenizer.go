// Package tokenizer provides the bilingual tokenizer shared by index building
// and query processing. The same Tokenize function MUST be used on both sides:
// any drift between corpus tokens and query tokens silently breaks keyword
// search, so this package is the single source of truth for tokenization.
package tokenizer

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

// cjkRatioThreshold is the fraction of CJK characters (among non-whitespace,
// non-punctuation characters) above which text is segmented as Chinese.
const cjkRatioThreshold = 0.3

// cjkTable covers the CJK Unified Ideographs block, extensions A-E, and the
// compatibility blocks. Punctuation is deliberately excluded.
var cjkTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3400, Hi: 0x4DBF, Stride: 1}, // Extension A
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}, // Unified Ideographs
		{Lo: 0xF900, Hi: 0xFAFF, Stride: 1}, // Compatibility Ideographs
	},
	R32: []unicode.Range32{
		{Lo: 0x20000, Hi: 0x2A6DF, Stride: 1}, // Extension B
		{Lo: 0x2A700, Hi: 0x2B73F, Stride: 1}, // Extension C
		{Lo: 0x2B740, Hi: 0x2B81F, Stride: 1}, // Extension D
		{Lo: 0x2B820, Hi: 0x2CEAF, Stride: 1}, // Extension E
		{Lo: 0x2F800, Hi: 0x2FA1F, Stride: 1}, // Compatibility Supplement
	},
}

const (
	asciiPunctuation   = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	chinesePunctuation = "，。！？、；：“”‘’（）【】《》〈〉「」『』…—～·"
)

var punctSet = func() map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range asciiPunctuation + chinesePunctuation {
		set[r] = true
	}
	return set
}()

var (
	segOnce sync.Once
	seg     gse.Segmenter
	segErr  error
)

// segmenter lazily loads the embedded Chinese dictionary once per process.
func segmenter() (*gse.Segmenter, error) {
	segOnce.Do(func() {
		segErr = seg.LoadDict()
	})
	if segErr != nil {
		return nil, segErr
	}
	return &seg, nil
}

func isCJK(r rune) bool {
	return unicode.Is(cjkTable, r)
}

func isPunct(r rune) bool {
	return punctSet[r]
}

// isPunctToken reports whether the token consists entirely of punctuation and
// whitespace.
func isPunctToken(tok string) bool {
	for _, r := range tok {
		if !isPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// cjkRatio returns the fraction of CJK characters among the characters of
// text that are neither whitespace nor punctuation.
func cjkRatio(text string) float64 {
	var total, cjk int
	for _, r := range text {
		if unicode.IsSpace(r) || isPunct(r) {
			continue
		}
		total++
		if isCJK(r) {
			cjk++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(cjk) / float64(total)
}

// IsChineseText reports whether text is CJK-dominant, i.e. whether the CJK
// character ratio meets the segmentation threshold.
func IsChineseText(text string) bool {
	return cjkRatio(text) >= cjkRatioThreshold
}

// Tokenize converts text into an ordered sequence of lowercase tokens. It is
// deterministic and pure: the same input always yields the same output, and
// the worst case for malformed input is an empty slice, never an error.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if IsChineseText(text) {
		return tokenizeChinese(text)
	}
	return tokenizeMixed(text)
}

// tokenizeChinese segments CJK-dominant text with the dictionary segmenter,
// dropping whitespace and punctuation tokens.
func tokenizeChinese(text string) []string {
	var tokens []string
	for _, tok := range cutCJK(text) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || isPunctToken(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// tokenizeLatin lowercases and splits on any non-alphanumeric character.
// Underscore counts as alphanumeric so identifiers survive intact.
func tokenizeLatin(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	return fields
}

// tokenizeMixed walks the text grouping maximal same-script runs, splitting at
// whitespace and punctuation. CJK runs go through the word segmenter, other
// runs through the alphanumeric splitter. Short CJK fragments embedded in
// mostly-Latin text are therefore still segmented as words.
func tokenizeMixed(text string) []string {
	var (
		tokens  []string
		run     []rune
		runCJK  bool
		haveRun bool
	)
	flush := func() {
		if !haveRun {
			return
		}
		s := string(run)
		if runCJK {
			tokens = append(tokens, tokenizeChinese(s)...)
		} else {
			tokens = append(tokens, tokenizeLatin(s)...)
		}
		run = run[:0]
		haveRun = false
	}
	for _, r := range text {
		if unicode.IsSpace(r) || isPunct(r) {
			flush()
			continue
		}
		rCJK := isCJK(r)
		if haveRun && rCJK != runCJK {
			flush()
		}
		run = append(run, r)
		runCJK = rCJK
		haveRun = true
	}
	flush()
	return tokens
}

// cutCJK runs dictionary segmentation. If the dictionary failed to load the
// text degrades to per-character tokens so indexing keeps working.
func cutCJK(text string) []string {
	s, err := segmenter()
	if err != nil {
		return strings.Split(text, "")
	}
	return s.Cut(text, true)
}
