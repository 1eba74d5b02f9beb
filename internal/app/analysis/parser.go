package analysis

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/PabloGalante/speech-coach/internal/domain"
	"github.com/PabloGalante/speech-coach/internal/observability"
)

// resultSchemaJSON is the contract a service response must satisfy before it
// is accepted as an AnalysisResult.
const resultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["overallScore", "improvements"],
  "properties": {
    "overallScore": {"type": "number", "minimum": 1, "maximum": 10},
    "toneFeedback": {"type": "string"},
    "feedback": {"type": "string"},
    "improvements": {"type": "array", "items": {"type": "string"}},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "corrections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "type": {"type": "string"},
          "original": {"type": "string"},
          "correction": {"type": "string"},
          "explanation": {"type": "string"}
        }
      }
    }
  }
}`

var resultSchema = mustCompileSchema(resultSchemaJSON, "analysis-result.schema.json")

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// FallbackResult is the neutral analysis used whenever a response cannot be
// parsed or validated.
func FallbackResult() domain.AnalysisResult {
	return domain.AnalysisResult{
		OverallScore: 7,
		ToneFeedback: "Professional and engaged",
		Corrections:  []domain.Correction{},
		Feedback:     "Your delivery was clear overall. Keep practicing to build fluency and confidence.",
		Improvements: []string{"Keep practicing regularly and focus on one improvement area per session."},
		Fallback:     true,
	}
}

// Parser pulls a structured AnalysisResult out of free-form service text.
type Parser struct {
	log *slog.Logger
}

func NewParser() *Parser {
	return &Parser{log: observability.WithFields("component", "response_parser")}
}

// Parse never fails: anything unusable yields FallbackResult.
func (p *Parser) Parse(raw string) domain.AnalysisResult {
	res, reason := p.parse(raw)
	if reason != "" {
		p.log.Warn("using fallback analysis", "reason", reason, "raw_len", len(raw))
		return FallbackResult()
	}
	return res
}

func (p *Parser) parse(raw string) (domain.AnalysisResult, string) {
	candidates := extractCandidates(raw)
	if len(candidates) == 0 {
		return domain.AnalysisResult{}, "no JSON object found"
	}

	var (
		doc  any
		span string
	)
	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), &doc); err == nil {
			span = c
			break
		}
	}
	if span == "" {
		return domain.AnalysisResult{}, "no candidate decoded as JSON"
	}

	if err := resultSchema.Validate(doc); err != nil {
		return domain.AnalysisResult{}, "schema validation: " + err.Error()
	}

	var wire struct {
		OverallScore float64             `json:"overallScore"`
		ToneFeedback string              `json:"toneFeedback"`
		Corrections  []domain.Correction `json:"corrections"`
		Feedback     string              `json:"feedback"`
		Improvements []string            `json:"improvements"`
		Strengths    []string            `json:"strengths"`
	}
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return domain.AnalysisResult{}, "decode: " + err.Error()
	}

	res := domain.AnalysisResult{
		OverallScore: int(math.Round(wire.OverallScore)),
		ToneFeedback: wire.ToneFeedback,
		Corrections:  wire.Corrections,
		Feedback:     wire.Feedback,
		Improvements: wire.Improvements,
		Strengths:    wire.Strengths,
	}
	if res.Corrections == nil {
		res.Corrections = []domain.Correction{}
	}
	if res.Improvements == nil {
		res.Improvements = []string{}
	}
	return res, ""
}

// extractCandidates returns the spans worth decoding, in order of preference:
// the greedy first-'{' to last-'}' span, then the balanced object that starts
// at the first '{'.
func extractCandidates(raw string) []string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil
	}

	var out []string
	if end := strings.LastIndexByte(raw, '}'); end > start {
		out = append(out, raw[start:end+1])
	}
	if obj, ok := balancedObject(raw[start:]); ok && (len(out) == 0 || obj != out[0]) {
		out = append(out, obj)
	}
	return out
}

// balancedObject returns the prefix of s (which starts with '{') up to its
// matching '}', skipping braces inside JSON strings.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
