package gate

import (
	"regexp"
	"strings"
)

// Complexity is the classifier's verdict over one raw user request.
type Complexity int

const (
	Simple  Complexity = iota // Direct question, greeting, lookup
	Complex                   // Multi-step or change-making request
)

func (c Complexity) String() string {
	if c == Complex {
		return "complex"
	}
	return "simple"
}

// DefaultLengthThreshold marks long free-form requests as complex when no
// simple signal overrides.
const DefaultLengthThreshold = 200

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)

	greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|thanks|thank you|good (morning|afternoon|evening))\b`)

	// Interrogative openers and info-lookup phrasing.
	questionPattern = regexp.MustCompile(`(?i)^\s*(what|who|when|where|why|how|which|is|are|does|do|can|could|tell me|explain)\b`)

	// Change/feature/debug verbs.
	changePattern = regexp.MustCompile(`(?i)\b(implement|add|create|build|write|fix|refactor|debug|update|remove|delete|rename|migrate|deploy|install|set up|configure)\b`)

	// Explicit multi-step phrasing.
	multiStepPattern = regexp.MustCompile(`(?i)\b(and then|after (that|which)|first\b.*\bthen|step \d|steps?:)\b`)
)

// Classify applies the pattern-based complexity heuristic. Simple signals
// (greeting, question or lookup phrasing, a URL in the text) win regardless
// of length; otherwise change/feature/debug or multi-step language marks the
// request complex, as does raw length beyond threshold.
func Classify(text string, lengthThreshold int) Complexity {
	if lengthThreshold <= 0 {
		lengthThreshold = DefaultLengthThreshold
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Simple
	}

	if urlPattern.MatchString(trimmed) ||
		greetingPattern.MatchString(trimmed) ||
		questionPattern.MatchString(trimmed) ||
		strings.HasSuffix(trimmed, "?") {
		return Simple
	}

	if changePattern.MatchString(trimmed) ||
		multiStepPattern.MatchString(trimmed) ||
		len(trimmed) > lengthThreshold {
		return Complex
	}

	return Simple
}
