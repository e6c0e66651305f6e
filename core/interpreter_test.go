package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func weatherCapability() Capability {
	return Capability{
		ID:          "get_weather",
		Description: "Get current weather forecast for a location",
		Inputs:      []string{"location"},
	}
}

func flightCapability() Capability {
	return Capability{
		ID:          "book_flight",
		Description: "Book a flight ticket for travel",
		Inputs:      []string{"origin", "destination", "date"},
	}
}

func TestKeywordInterpreterWeather(t *testing.T) {
	interp := NewKeywordInterpreter()
	caps := []Capability{weatherCapability(), flightCapability()}

	result := interp.Interpret("What is the weather forecast today", Context{}, caps)

	if assert.NotNil(t, result.Capability) {
		assert.Equal(t, "get_weather", result.Capability.ID)
	}
	assert.Greater(t, result.RawConfidence, 0.2)
}

func TestKeywordInterpreterFlight(t *testing.T) {
	interp := NewKeywordInterpreter()
	caps := []Capability{weatherCapability(), flightCapability()}

	result := interp.Interpret("Book a flight ticket", Context{}, caps)

	if assert.NotNil(t, result.Capability) {
		assert.Equal(t, "book_flight", result.Capability.ID)
	}
}

func TestKeywordInterpreterNoMatch(t *testing.T) {
	interp := NewKeywordInterpreter()
	caps := []Capability{weatherCapability(), flightCapability()}

	result := interp.Interpret("zzz qqq xyz nonsense", Context{}, caps)

	assert.Nil(t, result.Capability)
	assert.Equal(t, "No matching capability found", result.Interpretation)
}

func TestPlattScaling(t *testing.T) {
	scaled := PlattScale(0.0, 1.0, 0.0)
	assert.InDelta(t, 0.5, scaled, 0.0001)

	highScaled := PlattScale(5.0, 1.0, 0.0)
	assert.Greater(t, highScaled, 0.9)

	lowScaled := PlattScale(-5.0, 1.0, 0.0)
	assert.Less(t, lowScaled, 0.1)
}

func TestBrierScorePerfect(t *testing.T) {
	predictions := []struct {
		Forecast float64
		Outcome  bool
	}{
		{1.0, true},
		{0.0, false},
		{1.0, true},
	}
	assert.Equal(t, 0.0, BrierScore(predictions))
}

func TestBrierScoreWorst(t *testing.T) {
	predictions := []struct {
		Forecast float64
		Outcome  bool
	}{
		{1.0, false},
		{0.0, true},
	}
	assert.Equal(t, 1.0, BrierScore(predictions))
}
