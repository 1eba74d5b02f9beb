package metrics_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/speech-coach/internal/app/metrics"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

func TestComputeReferenceSentence(t *testing.T) {
	e := metrics.NewEngine()

	m := e.Compute("um like this is a test um", 10)

	assert.Equal(t, 2, m.FillerWordCount)
	assert.Equal(t, 7, m.WordCount)
	assert.Equal(t, float64(42), m.WPM)
	assert.Equal(t, float64(10), m.Duration)
	// unique: um, like, this, is, a, test
	assert.InDelta(t, 6.0/7.0, m.VocabularyDiversity, 1e-9)
}

func TestComputeEmptyTranscript(t *testing.T) {
	e := metrics.NewEngine()

	for _, in := range []string{"", "   ", "\n\t"} {
		m := e.Compute(in, 30)
		assert.Equal(t, domain.SpeechMetrics{Duration: 30}, m, "input %q", in)
	}
}

func TestComputeGuardsNonPositiveElapsed(t *testing.T) {
	e := metrics.NewEngine()

	m := e.Compute("hello there friend", 0)
	assert.Zero(t, m.WPM)
	assert.Zero(t, m.Duration)

	m = e.Compute("hello there friend", -3)
	assert.Zero(t, m.WPM)
	assert.Zero(t, m.Duration)
}

func TestFillersAreCaseInsensitiveAndIgnorePunctuation(t *testing.T) {
	e := metrics.NewEngine()

	m := e.Compute("Um, I think, UH... you know, it works. You KNOW?", 60)

	// Um, UH, you know, You KNOW
	assert.Equal(t, 4, m.FillerWordCount)
	assert.Equal(t, 10, m.WordCount)
}

func TestConfiguredVocabulary(t *testing.T) {
	e := metrics.NewEngine("like", "basically", "at the end of the day")

	m := e.Compute("Like basically, at the end of the day it is like that", 20)

	assert.Equal(t, 4, m.FillerWordCount)
}

func TestDiversityBounds(t *testing.T) {
	e := metrics.NewEngine()

	cases := []string{
		"a",
		"the the the the",
		"One two three, four!",
		"?? !! ...",
		"Hello hello HELLO hello.",
	}
	for _, in := range cases {
		m := e.Compute(in, 5)
		assert.GreaterOrEqual(t, m.VocabularyDiversity, 0.0, in)
		assert.LessOrEqual(t, m.VocabularyDiversity, 1.0, in)
	}

	m := e.Compute("Hello hello HELLO hello.", 5)
	assert.Equal(t, 0.25, m.VocabularyDiversity)

	m = e.Compute("?? !! ...", 5)
	assert.Zero(t, m.VocabularyDiversity)
	assert.Equal(t, 3, m.WordCount)
}

func TestIncrementalMatchesOneShot(t *testing.T) {
	e := metrics.NewEngine()
	words := strings.Fields("so um I was you know thinking that uh we could I mean try again um later")

	var (
		sb          strings.Builder
		prevFillers int
	)
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w)
		elapsed := float64(i+1) * 0.5

		inc := e.Compute(sb.String(), elapsed)
		once := metrics.NewEngine().Compute(strings.Join(words[:i+1], " "), elapsed)

		require.Equal(t, once, inc)
		require.GreaterOrEqual(t, inc.FillerWordCount, prevFillers, "filler count must not decrease")
		prevFillers = inc.FillerWordCount
	}
	assert.Equal(t, 5, prevFillers)
}
