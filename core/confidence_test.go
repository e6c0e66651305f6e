package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeServerConfidence(t *testing.T) {
	t.Run("normal case", func(t *testing.T) {
		phi := ComputeServerConfidence(0.9, 0.95, 1.0, true)
		assert.True(t, math.Abs(phi-0.855) < 0.001)
	})

	t.Run("policy failed collapses to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ComputeServerConfidence(0.9, 0.95, 1.0, false))
	})

	t.Run("clamped to 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, ComputeServerConfidence(1.0, 1.0, 1.0, true))
	})

	t.Run("low availability", func(t *testing.T) {
		phi := ComputeServerConfidence(0.9, 1.0, 0.5, true)
		assert.True(t, math.Abs(phi-0.45) < 0.001)
	})
}

func TestDecideAction(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name                  string
		phiS, phiC            float64
		hasBetterAlternative  bool
		policyViolated        bool
		malformed             bool
		want                  ActionDecision
	}{
		{"execute", 0.90, 0.85, false, false, false, ActionExecute},
		{"clarify low server confidence", 0.60, 0.85, false, false, false, ActionClarify},
		{"refuse policy violation wins over high confidence", 0.95, 0.95, false, true, false, ActionRefuse},
		{"refuse malformed wins over high confidence", 0.95, 0.95, false, false, true, ActionRefuse},
		{"propose when alternative exists", 0.70, 0.85, true, false, false, ActionPropose},
		{"boundary: exactly tau_exec and tau_accept executes", thresholds.TauExec, thresholds.TauAccept, false, false, false, ActionExecute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideAction(tt.phiS, tt.phiC, thresholds, tt.hasBetterAlternative, tt.policyViolated, tt.malformed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideActionCustomThresholds(t *testing.T) {
	thresholds := Thresholds{TauExec: 0.70, TauClarify: 0.40, TauAccept: 0.40}
	action := DecideAction(0.75, 0.50, thresholds, false, false, false)
	assert.Equal(t, ActionExecute, action)
}

func TestDecideActionSimple(t *testing.T) {
	assert.Equal(t, ActionExecute, DecideActionSimple(0.9, 0.9))
	assert.Equal(t, ActionClarify, DecideActionSimple(0.3, 0.9))
}
