package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"cvforge/internal/errors"
	"cvforge/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

// Shape names reported in AnalysisOutput.Shape
const (
	ShapeCanonical = "canonical"
	ShapeSnakeFlat = "snake_flat"
	ShapeWrapped   = "wrapped"
	ShapeBreakdown = "breakdown"
)

const (
	scoreSchema       = `{"type": "number"}`
	stringArraySchema = `{"type": ["array", "null"], "items": {"type": "string"}}`
	improvementSchema = `{"type": ["array", "null"], "items": {"type": "object", "required": ["suggestion"],
		"properties": {"section": {"type": "string"}, "priority": {"type": "string"}, "suggestion": {"type": "string"}}}}`
)

var canonicalSchema = `{
	"type": "object",
	"required": ["overallScore", "scores"],
	"properties": {
		"overallScore": ` + scoreSchema + `,
		"scores": {
			"type": "object",
			"required": ["atsCompatibility", "keywordOptimization", "contentQuality", "formatting"],
			"properties": {
				"atsCompatibility": ` + scoreSchema + `,
				"keywordOptimization": ` + scoreSchema + `,
				"contentQuality": ` + scoreSchema + `,
				"formatting": ` + scoreSchema + `
			}
		},
		"recommendations": ` + stringArraySchema + `,
		"strengths": ` + stringArraySchema + `,
		"weaknesses": ` + stringArraySchema + `,
		"keywords": {
			"type": "object",
			"properties": {
				"found": ` + stringArraySchema + `,
				"missing": ` + stringArraySchema + `,
				"suggested": ` + stringArraySchema + `
			}
		},
		"improvements": ` + improvementSchema + `
	}
}`

var snakeFlatSchema = `{
	"type": "object",
	"required": ["overall_score"],
	"properties": {
		"overall_score": ` + scoreSchema + `,
		"ats_score": ` + scoreSchema + `,
		"keyword_score": ` + scoreSchema + `,
		"content_score": ` + scoreSchema + `,
		"format_score": ` + scoreSchema + `,
		"recommendations": ` + stringArraySchema + `,
		"strengths": ` + stringArraySchema + `,
		"weaknesses": ` + stringArraySchema + `,
		"found_keywords": ` + stringArraySchema + `,
		"missing_keywords": ` + stringArraySchema + `,
		"suggested_keywords": ` + stringArraySchema + `,
		"improvements": ` + improvementSchema + `
	}
}`

var wrappedSchema = `{
	"definitions": {"canonical": ` + canonicalSchema + `},
	"type": "object",
	"anyOf": [
		{"required": ["analysis"], "properties": {"analysis": {"$ref": "#/definitions/canonical"}}},
		{"required": ["result"], "properties": {"result": {"$ref": "#/definitions/canonical"}}},
		{"required": ["data"], "properties": {"data": {"$ref": "#/definitions/canonical"}}}
	]
}`

var breakdownSchema = `{
	"type": "object",
	"required": ["score", "breakdown"],
	"properties": {
		"score": ` + scoreSchema + `,
		"breakdown": {
			"type": "array",
			"items": {"type": "object", "required": ["category", "score"],
				"properties": {"category": {"type": "string"}, "score": ` + scoreSchema + `}}
		},
		"feedback": {
			"type": "object",
			"properties": {
				"strengths": ` + stringArraySchema + `,
				"weaknesses": ` + stringArraySchema + `,
				"recommendations": ` + stringArraySchema + `
			}
		},
		"keywords": {
			"type": "object",
			"properties": {
				"present": ` + stringArraySchema + `,
				"absent": ` + stringArraySchema + `,
				"recommended": ` + stringArraySchema + `
			}
		},
		"actionItems": {
			"type": ["array", "null"],
			"items": {"type": "object", "required": ["action"],
				"properties": {"area": {"type": "string"}, "priority": {"type": "string"}, "action": {"type": "string"}}}
		}
	}
}`

// shape is one recognizer in the chain: a schema that identifies the response
// layout and an adapter into the canonical result.
type shape struct {
	name   string
	schema *gojsonschema.Schema
	adapt  func(raw []byte) (*types.AnalysisResult, error)
}

func (s *shape) matches(raw []byte) bool {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	return err == nil && result.Valid()
}

var (
	canonicalShape = newShape(ShapeCanonical, canonicalSchema, adaptCanonical)
	recognizers    = []*shape{
		canonicalShape,
		newShape(ShapeSnakeFlat, snakeFlatSchema, adaptSnakeFlat),
		newShape(ShapeWrapped, wrappedSchema, adaptWrapped),
		newShape(ShapeBreakdown, breakdownSchema, adaptBreakdown),
	}
)

func newShape(name, schema string, adapt func([]byte) (*types.AnalysisResult, error)) *shape {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid %s schema: %v", name, err))
	}
	return &shape{name: name, schema: compiled, adapt: adapt}
}

// Adapt cleans a raw model response, recognizes its layout and converts it
// into the canonical result. It returns the recognized shape name. Any
// failure is a parse error; no partial result is ever returned.
func Adapt(raw string) (*types.AnalysisResult, string, error) {
	text, ok := cleanResponse(raw)
	if !ok {
		return nil, "", parseFailure("response contains no JSON object", nil)
	}
	doc := []byte(text)

	for _, s := range recognizers {
		if !s.matches(doc) {
			continue
		}
		result, err := s.adapt(doc)
		if err != nil {
			return nil, "", parseFailure("could not convert "+s.name+" response", err)
		}
		return finalize(result), s.name, nil
	}

	return nil, "", parseFailure("unrecognized response shape", nil)
}

func parseFailure(reason string, cause error) error {
	return errors.NewParseError(errors.ErrCodeAIResponseParse, "analysis failed, please retry", cause).
		WithContext("reason", reason)
}

type improvementWire struct {
	Section    string `json:"section"`
	Priority   string `json:"priority"`
	Suggestion string `json:"suggestion"`
}

type canonicalWire struct {
	OverallScore float64 `json:"overallScore"`
	Scores       struct {
		ATSCompatibility    float64 `json:"atsCompatibility"`
		KeywordOptimization float64 `json:"keywordOptimization"`
		ContentQuality      float64 `json:"contentQuality"`
		Formatting          float64 `json:"formatting"`
	} `json:"scores"`
	Recommendations []string `json:"recommendations"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Keywords        struct {
		Found     []string `json:"found"`
		Missing   []string `json:"missing"`
		Suggested []string `json:"suggested"`
	} `json:"keywords"`
	Improvements []improvementWire `json:"improvements"`
}

func adaptCanonical(raw []byte) (*types.AnalysisResult, error) {
	var w canonicalWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &types.AnalysisResult{
		OverallScore: score(w.OverallScore),
		Scores: types.CategoryScores{
			ATSCompatibility:    score(w.Scores.ATSCompatibility),
			KeywordOptimization: score(w.Scores.KeywordOptimization),
			ContentQuality:      score(w.Scores.ContentQuality),
			Formatting:          score(w.Scores.Formatting),
		},
		Recommendations: w.Recommendations,
		Strengths:       w.Strengths,
		Weaknesses:      w.Weaknesses,
		Keywords: types.KeywordAnalysis{
			Found:     w.Keywords.Found,
			Missing:   w.Keywords.Missing,
			Suggested: w.Keywords.Suggested,
		},
		Improvements: improvements(w.Improvements),
	}, nil
}

type snakeFlatWire struct {
	OverallScore      float64           `json:"overall_score"`
	ATSScore          float64           `json:"ats_score"`
	KeywordScore      float64           `json:"keyword_score"`
	ContentScore      float64           `json:"content_score"`
	FormatScore       float64           `json:"format_score"`
	Recommendations   []string          `json:"recommendations"`
	Strengths         []string          `json:"strengths"`
	Weaknesses        []string          `json:"weaknesses"`
	FoundKeywords     []string          `json:"found_keywords"`
	MissingKeywords   []string          `json:"missing_keywords"`
	SuggestedKeywords []string          `json:"suggested_keywords"`
	Improvements      []improvementWire `json:"improvements"`
}

func adaptSnakeFlat(raw []byte) (*types.AnalysisResult, error) {
	var w snakeFlatWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &types.AnalysisResult{
		OverallScore: score(w.OverallScore),
		Scores: types.CategoryScores{
			ATSCompatibility:    score(w.ATSScore),
			KeywordOptimization: score(w.KeywordScore),
			ContentQuality:      score(w.ContentScore),
			Formatting:          score(w.FormatScore),
		},
		Recommendations: w.Recommendations,
		Strengths:       w.Strengths,
		Weaknesses:      w.Weaknesses,
		Keywords: types.KeywordAnalysis{
			Found:     w.FoundKeywords,
			Missing:   w.MissingKeywords,
			Suggested: w.SuggestedKeywords,
		},
		Improvements: improvements(w.Improvements),
	}, nil
}

func adaptWrapped(raw []byte) (*types.AnalysisResult, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	for _, key := range []string{"analysis", "result", "data"} {
		inner, ok := envelope[key]
		if ok && canonicalShape.matches(inner) {
			return adaptCanonical(inner)
		}
	}
	return nil, fmt.Errorf("no canonical object under analysis, result or data")
}

type breakdownWire struct {
	Score     float64 `json:"score"`
	Breakdown []struct {
		Category string  `json:"category"`
		Score    float64 `json:"score"`
	} `json:"breakdown"`
	Feedback struct {
		Strengths       []string `json:"strengths"`
		Weaknesses      []string `json:"weaknesses"`
		Recommendations []string `json:"recommendations"`
	} `json:"feedback"`
	Keywords struct {
		Present     []string `json:"present"`
		Absent      []string `json:"absent"`
		Recommended []string `json:"recommended"`
	} `json:"keywords"`
	ActionItems []struct {
		Area     string `json:"area"`
		Priority string `json:"priority"`
		Action   string `json:"action"`
	} `json:"actionItems"`
}

func adaptBreakdown(raw []byte) (*types.AnalysisResult, error) {
	var w breakdownWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}

	result := &types.AnalysisResult{
		OverallScore:    score(w.Score),
		Recommendations: w.Feedback.Recommendations,
		Strengths:       w.Feedback.Strengths,
		Weaknesses:      w.Feedback.Weaknesses,
		Keywords: types.KeywordAnalysis{
			Found:     w.Keywords.Present,
			Missing:   w.Keywords.Absent,
			Suggested: w.Keywords.Recommended,
		},
	}

	for _, b := range w.Breakdown {
		category := strings.ToLower(b.Category)
		switch {
		case strings.Contains(category, "ats"):
			result.Scores.ATSCompatibility = score(b.Score)
		case strings.Contains(category, "keyword"):
			result.Scores.KeywordOptimization = score(b.Score)
		case strings.Contains(category, "content"):
			result.Scores.ContentQuality = score(b.Score)
		case strings.Contains(category, "format"):
			result.Scores.Formatting = score(b.Score)
		}
	}

	for _, item := range w.ActionItems {
		result.Improvements = append(result.Improvements, types.Improvement{
			Section:    item.Area,
			Priority:   NormalizePriority(item.Priority),
			Suggestion: item.Action,
		})
	}
	return result, nil
}

func improvements(in []improvementWire) []types.Improvement {
	out := make([]types.Improvement, 0, len(in))
	for _, imp := range in {
		out = append(out, types.Improvement{
			Section:    imp.Section,
			Priority:   NormalizePriority(imp.Priority),
			Suggestion: imp.Suggestion,
		})
	}
	return out
}

// NormalizePriority maps free-form priority labels onto high, medium or low
func NormalizePriority(p string) types.Priority {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high", "critical", "urgent":
		return types.PriorityHigh
	case "low", "minor":
		return types.PriorityLow
	default:
		return types.PriorityMedium
	}
}

// score rounds and clamps to 0..100
func score(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

// finalize replaces nil slices so every result serializes the same way
func finalize(r *types.AnalysisResult) *types.AnalysisResult {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	r.Recommendations = nonNil(r.Recommendations)
	r.Strengths = nonNil(r.Strengths)
	r.Weaknesses = nonNil(r.Weaknesses)
	r.Keywords.Found = nonNil(r.Keywords.Found)
	r.Keywords.Missing = nonNil(r.Keywords.Missing)
	r.Keywords.Suggested = nonNil(r.Keywords.Suggested)
	if r.Improvements == nil {
		r.Improvements = []types.Improvement{}
	}
	return r
}
