package risk

import (
	"strings"
	"time"
)

// Scorer aggregates registered pattern detectors into a risk assessment.
// It is stateless after construction and safe for concurrent use.
type Scorer struct {
	detectors []WeightedDetector
}

// NewScorer creates a scorer over the given detectors, falling back to the
// built-in set when none are provided.
func NewScorer(detectors ...WeightedDetector) *Scorer {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Scorer{detectors: detectors}
}

// Score runs every registered detector against the input and derives the
// assessment: summed weights clamped to [ScoreMin, ScoreMax], the step
// mapping to a level, the delay table, and the concatenated explanation
// in detector registration order.
func (s *Scorer) Score(input DetectionInput) *Assessment {
	if input.Now.IsZero() {
		input.Now = time.Now()
	}

	raw := 0
	var patterns []Pattern
	var fragments []string

	for _, wd := range s.detectors {
		if !wd.Detector.Match(input) {
			continue
		}
		raw += wd.Weight
		patterns = append(patterns, wd.Detector.Pattern())
		fragments = append(fragments, wd.Detector.Description())
	}

	score := clampScore(raw)
	level := LevelForScore(score)

	return &Assessment{
		Level:            level,
		Score:            score,
		Patterns:         patterns,
		VaultDelay:       DelayForLevel(level),
		Explanation:      explanation(fragments),
		RecipientProfile: input.Profile,
	}
}

// LevelForScore maps a clamped score to its risk level
func LevelForScore(score int) Level {
	switch {
	case score >= ThresholdHigh:
		return LevelHigh
	case score >= ThresholdMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// DelayForLevel maps a risk level to its vault delay
func DelayForLevel(level Level) time.Duration {
	switch level {
	case LevelHigh:
		return DelayHigh
	case LevelMedium:
		return DelayMedium
	default:
		return DelayLow
	}
}

func clampScore(raw int) int {
	if raw < ScoreMin {
		return ScoreMin
	}
	if raw > ScoreMax {
		return ScoreMax
	}
	return raw
}

func explanation(fragments []string) string {
	if len(fragments) == 0 {
		return "no risk detected"
	}
	return strings.Join(fragments, "; ")
}
