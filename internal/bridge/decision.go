package bridge

import (
	"fmt"
	"math"
	"strings"
)

// Decision is the binary fire classification.
// Decision 是二元火灾分类结果。
type Decision int

const (
	NoFire Decision = iota
	Fire
)

func (d Decision) String() string {
	if d == Fire {
		return "FIRE"
	}
	return "NO_FIRE"
}

// MarshalText renders the decision as FIRE / NO_FIRE.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts FIRE / NO_FIRE, case-insensitive.
func (d *Decision) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "FIRE":
		*d = Fire
	case "NO_FIRE":
		*d = NoFire
	default:
		return fmt.Errorf("unknown decision %q", string(text))
	}
	return nil
}

// Decide returns Fire iff p is strictly greater than threshold.
// Decide 当 p 严格大于阈值时返回 Fire。
func Decide(p, threshold float64) Decision {
	if p > threshold {
		return Fire
	}
	return NoFire
}

// Confidence is max(p, 1-p). It is reported, never used to decide.
// Confidence 为 max(p, 1-p)，仅用于报告。
func Confidence(p float64) float64 {
	return math.Max(p, 1-p)
}

// Verdict bundles the decision with the observational metrics.
// Verdict 将判定结果与观测指标打包。
type Verdict struct {
	Probability       float64  `json:"probability"`
	NoFireProbability float64  `json:"no_fire_probability"`
	Confidence        float64  `json:"confidence"`
	Decision          Decision `json:"decision"`
}

// Evaluate applies the decision rule to a probability in [0, 1].
func Evaluate(p, threshold float64) Verdict {
	return Verdict{
		Probability:       p,
		NoFireProbability: 1 - p,
		Confidence:        Confidence(p),
		Decision:          Decide(p, threshold),
	}
}

// ValidThreshold reports whether 0 < t < 1.
func ValidThreshold(t float64) bool {
	return t > 0 && t < 1
}
