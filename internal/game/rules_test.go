package game

import (
	"testing"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHouseRules(t *testing.T) {
	r := DefaultHouseRules()
	require.NoError(t, r.Validate())
	assert.Equal(t, 10, r.MaxPlayers)
	assert.Equal(t, 7, r.InitialHandSize)
	assert.Equal(t, StackingAny, r.Stacking)
	assert.Equal(t, OpeningReturn, r.OpeningDiscard)
	assert.True(t, r.RequireChosenColor)
	assert.Equal(t, models.Red, r.DefaultWildColor)
	assert.Equal(t, DefaultBotDelay, r.BotDelay())
}

func TestParseRules(t *testing.T) {
	current := DefaultHouseRules()
	updated, err := ParseRules(map[string]interface{}{
		"maxPlayers":         float64(4),
		"stacking":           "same_face",
		"openingDiscard":     "burn",
		"requireChosenColor": false,
		"defaultWildColor":   "green",
		"botDelayMs":         0,
		"unknownRule":        true,
	}, current)
	require.NoError(t, err)

	assert.Equal(t, 4, updated.MaxPlayers)
	assert.Equal(t, StackingSameFace, updated.Stacking)
	assert.Equal(t, OpeningBurn, updated.OpeningDiscard)
	assert.False(t, updated.RequireChosenColor)
	assert.Equal(t, models.Green, updated.DefaultWildColor)
	assert.Equal(t, 0, updated.BotDelayMs)
	assert.Equal(t, 7, updated.InitialHandSize)

	// the input is a value and stays as it was
	assert.Equal(t, DefaultHouseRules(), current)
}

func TestParseRulesErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules map[string]interface{}
	}{
		{"wrong bool type", map[string]interface{}{"requireChosenColor": "yes"}},
		{"wrong int type", map[string]interface{}{"maxPlayers": "four"}},
		{"too few players", map[string]interface{}{"maxPlayers": float64(1)}},
		{"negative delay", map[string]interface{}{"botDelayMs": float64(-5)}},
		{"unknown stacking", map[string]interface{}{"stacking": "chaos"}},
		{"unknown opening", map[string]interface{}{"openingDiscard": "keep"}},
		{"wild default color", map[string]interface{}{"defaultWildColor": "wild"}},
		{"wrong string type", map[string]interface{}{"stacking": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules(tt.rules, DefaultHouseRules())
			assert.Error(t, err)
		})
	}
}
