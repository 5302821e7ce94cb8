package ai

import "strings"

// DefaultSystemPrompt is the built-in analysis instruction
const DefaultSystemPrompt = `You are an experienced recruiter and applicant tracking system (ATS) specialist. You review résumés honestly and concretely.

Your principles:
- Judge only what is written; never assume experience that is not stated
- Prefer specific, actionable advice over generic tips
- Score strictly: 90+ is exceptional, 70-89 is solid, below 50 needs major work`

// Placeholders substituted into the user prompt. Any other text, including
// a literal %, is passed through unchanged.
const (
	ResumePlaceholder = "{{resume}}"
	RolePlaceholder   = "{{role}}"
)

// DefaultUserPrompt is the built-in analysis request.
const DefaultUserPrompt = `Analyze the following résumé.

Résumé:
---
{{resume}}
---

Target role (may be empty): {{role}}

Respond with a single JSON object and nothing else, using exactly this structure:
{
  "overallScore": <integer 0-100>,
  "scores": {
    "atsCompatibility": <integer 0-100>,
    "keywordOptimization": <integer 0-100>,
    "contentQuality": <integer 0-100>,
    "formatting": <integer 0-100>
  },
  "recommendations": [<string>],
  "strengths": [<string>],
  "weaknesses": [<string>],
  "keywords": {
    "found": [<keyword already present>],
    "missing": [<expected keyword that is absent>],
    "suggested": [<keyword worth adding>]
  },
  "improvements": [
    {"section": <résumé section>, "priority": "high" | "medium" | "low", "suggestion": <string>}
  ]
}`

// resolvePrompt selects the first non-empty prompt in priority order: loaded
// from a file or set inline in config, then the built-in default.
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// renderUserPrompt fills the placeholders of tmpl in a single pass, so text
// inside the résumé is never expanded again.
func renderUserPrompt(tmpl, resume, role string) string {
	return strings.NewReplacer(ResumePlaceholder, resume, RolePlaceholder, role).Replace(tmpl)
}
