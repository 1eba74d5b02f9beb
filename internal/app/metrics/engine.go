// Package metrics computes delivery metrics from a transcript.
package metrics

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/PabloGalante/speech-coach/internal/domain"
)

// DefaultFillerWords returns the built-in filler vocabulary. "like" is left
// out on purpose since it is mostly used as a verb or preposition.
func DefaultFillerWords() []string {
	return []string{
		"um", "uh", "er", "ah", "erm", "hmm",
		"you know", "i mean", "sort of", "kind of",
	}
}

// Engine turns a transcript and an elapsed time into a SpeechMetrics
// snapshot. Its only state is the filler vocabulary, so it is safe to share.
type Engine struct {
	fillers   map[string]bool
	phrases   [][]string // multi-token fillers
	maxPhrase int
}

// NewEngine builds an engine for the given filler vocabulary. With no words
// it uses DefaultFillerWords.
func NewEngine(words ...string) *Engine {
	if len(words) == 0 {
		words = DefaultFillerWords()
	}

	e := &Engine{fillers: make(map[string]bool)}
	for _, w := range words {
		toks := normalizeAll(strings.Fields(w))
		switch len(toks) {
		case 0:
			continue
		case 1:
			e.fillers[toks[0]] = true
		default:
			e.phrases = append(e.phrases, toks)
			if len(toks) > e.maxPhrase {
				e.maxPhrase = len(toks)
			}
		}
	}
	return e
}

// Compute returns the metrics for transcript after elapsedSeconds of speech.
func (e *Engine) Compute(transcript string, elapsedSeconds float64) domain.SpeechMetrics {
	raw := strings.Fields(transcript)
	tokens := normalizeAll(raw)

	m := domain.SpeechMetrics{
		WordCount:       len(raw),
		FillerWordCount: e.countFillers(tokens),
		Duration:        math.Max(elapsedSeconds, 0),
	}

	if elapsedSeconds > 0 {
		m.WPM = math.Round(float64(m.WordCount) / (elapsedSeconds / 60))
	}

	if len(tokens) > 0 {
		unique := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			unique[t] = struct{}{}
		}
		m.VocabularyDiversity = float64(len(unique)) / float64(len(tokens))
	}

	return m
}

// countFillers scans left to right, preferring the longest phrase at each
// position so "you know" is one filler, not two tokens.
func (e *Engine) countFillers(tokens []string) int {
	n := 0
	for i := 0; i < len(tokens); {
		if l := e.phraseAt(tokens, i); l > 0 {
			n++
			i += l
			continue
		}
		if e.fillers[tokens[i]] {
			n++
		}
		i++
	}
	return n
}

func (e *Engine) phraseAt(tokens []string, i int) int {
	best := 0
	for _, p := range e.phrases {
		if len(p) <= best || i+len(p) > len(tokens) {
			continue
		}
		match := true
		for j, t := range p {
			if tokens[i+j] != t {
				match = false
				break
			}
		}
		if match {
			best = len(p)
		}
	}
	return best
}

// normalizeAll case-folds tokens and strips surrounding punctuation. Tokens
// that end up empty are dropped.
func normalizeAll(raw []string) []string {
	folder := cases.Fold() // a Caser is stateful, keep it per call
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		t := strings.TrimFunc(folder.String(r), func(c rune) bool {
			return unicode.IsPunct(c) || unicode.IsSymbol(c)
		})
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
