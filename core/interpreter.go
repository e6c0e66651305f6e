package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// InterpretationResult is the output of an Interpreter: the server's
// best-effort reading of intent (Ψ̂), the capability it matched (if any),
// the raw model probability (ρ), and any runner-up interpretations.
type InterpretationResult struct {
	Interpretation string
	Capability     *Capability
	RawConfidence  float64
	Alternatives   []AlternativeInterpretation
}

// AlternativeInterpretation is a runner-up match against a different
// capability, surfaced to the client on a PROPOSE decision.
type AlternativeInterpretation struct {
	Interpretation string
	Capability     Capability
	Confidence     float64
}

// Interpreter maps client intent to a server action with confidence:
// f: (Ψ_req, Γ) → (Ψ̂, c, ρ). Implementations can range from keyword
// matching (KeywordInterpreter) to LLM-based semantic understanding.
type Interpreter interface {
	Interpret(intent string, ctx Context, capabilities []Capability) InterpretationResult
}

// KeywordInterpreter is the baseline deterministic interpreter. It scores
// each capability by the fraction of its keywords (drawn from description,
// inputs, and id) that appear in the tokenized intent:
//
//	Score(c) = (Σ I(k ∈ V_int) for k in K_c) / |K_c| × w_match
type KeywordInterpreter struct {
	// MatchWeight scales every score (default 1.0).
	MatchWeight float64
	// MinScore is the minimum score to consider a capability a match
	// (default 0.2).
	MinScore float64
}

// NewKeywordInterpreter returns a KeywordInterpreter with the RFC Section
// 6.1 defaults (match_weight=1.0, min_score=0.2).
func NewKeywordInterpreter() *KeywordInterpreter {
	return &KeywordInterpreter{MatchWeight: 1.0, MinScore: 0.2}
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return fields
}

func capabilityKeywords(cap Capability) []string {
	keywords := tokenize(cap.Description)
	for _, input := range cap.Inputs {
		keywords = append(keywords, tokenize(input)...)
	}
	keywords = append(keywords, tokenize(cap.ID)...)
	return keywords
}

func (k *KeywordInterpreter) score(intentTokens []string, cap Capability) float64 {
	keywords := capabilityKeywords(cap)
	if len(keywords) == 0 {
		return 0.0
	}

	intentSet := make(map[string]struct{}, len(intentTokens))
	for _, t := range intentTokens {
		intentSet[t] = struct{}{}
	}

	matches := 0
	for _, kw := range keywords {
		if _, ok := intentSet[kw]; ok {
			matches++
		}
	}

	return (float64(matches) / float64(len(keywords))) * k.MatchWeight
}

type scoredCapability struct {
	score float64
	cap   Capability
}

// Interpret scores every capability against the tokenized intent and
// returns the best match above MinScore, plus up to three runner-up
// alternatives that also clear MinScore.
func (k *KeywordInterpreter) Interpret(intent string, ctx Context, capabilities []Capability) InterpretationResult {
	intentTokens := tokenize(intent)

	scores := make([]scoredCapability, len(capabilities))
	for i, cap := range capabilities {
		scores[i] = scoredCapability{score: k.score(intentTokens, cap), cap: cap}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	var bestScore float64
	var matched *Capability
	if len(scores) > 0 {
		bestScore = scores[0].score
		if bestScore >= k.MinScore {
			cap := scores[0].cap
			matched = &cap
		}
	}

	var alternatives []AlternativeInterpretation
	for i := 1; i < len(scores) && len(alternatives) < 3; i++ {
		if scores[i].score < k.MinScore {
			continue
		}
		alternatives = append(alternatives, AlternativeInterpretation{
			Interpretation: fmt.Sprintf("Use %s capability", scores[i].cap.ID),
			Capability:     scores[i].cap,
			Confidence:     scores[i].score,
		})
	}

	interpretation := "No matching capability found"
	if matched != nil {
		interpretation = fmt.Sprintf("Execute %s for: %s", matched.ID, intent)
	}

	return InterpretationResult{
		Interpretation: interpretation,
		Capability:     matched,
		RawConfidence:  bestScore,
		Alternatives:   alternatives,
	}
}

var _ Interpreter = (*KeywordInterpreter)(nil)

// PlattScale calibrates a raw confidence score via logistic regression:
// P(y=1|x) = 1 / (1 + exp(-A·x - B)). Used when an interpreter's own
// raw_confidence is not already a well-calibrated probability.
func PlattScale(rawConfidence, a, b float64) float64 {
	return 1.0 / (1.0 + math.Exp(-a*rawConfidence-b))
}

// BrierScore measures calibration quality across a batch of (forecast,
// outcome) pairs: BS = (1/N) Σ (f_t - o_t)². Lower is better; 0 is perfect.
func BrierScore(predictions []struct {
	Forecast float64
	Outcome  bool
}) float64 {
	if len(predictions) == 0 {
		return 0.0
	}
	var sum float64
	for _, p := range predictions {
		o := 0.0
		if p.Outcome {
			o = 1.0
		}
		diff := p.Forecast - o
		sum += diff * diff
	}
	return sum / float64(len(predictions))
}
