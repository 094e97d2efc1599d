// internal/game/rules.go
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/uno/internal/models"
)

// StackingPolicy decides which cards may answer a pending draw penalty.
type StackingPolicy string

const (
	StackingAny      StackingPolicy = "any"       // any draw-two or wild-draw-four answers any penalty
	StackingSameFace StackingPolicy = "same_face" // only the face on top of the discard pile may answer
)

// OpeningPolicy decides what happens to non-number cards turned up while opening the discard pile.
type OpeningPolicy string

const (
	OpeningReturn OpeningPolicy = "return" // slid under the deck
	OpeningBurn   OpeningPolicy = "burn"   // removed from circulation
)

const (
	DeckSize               = 108
	DefaultMaxPlayers      = 10
	DefaultInitialHandSize = 7
	DefaultBotDelay        = 1500 * time.Millisecond
)

// HouseRules defines the configurable policies of a game session.
type HouseRules struct {
	MaxPlayers         int            `json:"maxPlayers"`         // seats allowed at the table, minimum 2
	InitialHandSize    int            `json:"initialHandSize"`    // cards dealt to each seat
	Stacking           StackingPolicy `json:"stacking"`           // which cards answer a pending draw
	OpeningDiscard     OpeningPolicy  `json:"openingDiscard"`     // fate of rejected opening cards
	RequireChosenColor bool           `json:"requireChosenColor"` // human wilds without a color are rejected
	DefaultWildColor   models.Color   `json:"defaultWildColor"`   // used when a color is missing and not required
	BotDelayMs         int            `json:"botDelayMs"`         // presentation delay between bot moves
}

// DefaultHouseRules returns the rules used when a session does not override them.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		MaxPlayers:         DefaultMaxPlayers,
		InitialHandSize:    DefaultInitialHandSize,
		Stacking:           StackingAny,
		OpeningDiscard:     OpeningReturn,
		RequireChosenColor: true,
		DefaultWildColor:   models.Red,
		BotDelayMs:         int(DefaultBotDelay / time.Millisecond),
	}
}

// BotDelay is BotDelayMs as a duration.
func (rules HouseRules) BotDelay() time.Duration {
	return time.Duration(rules.BotDelayMs) * time.Millisecond
}

// Validate checks that the rules can run a game.
func (rules HouseRules) Validate() error {
	if rules.MaxPlayers < 2 {
		return errors.New("maxPlayers must be at least 2")
	}
	if rules.InitialHandSize < 1 {
		return errors.New("initialHandSize must be at least 1")
	}
	switch rules.Stacking {
	case StackingAny, StackingSameFace:
	default:
		return fmt.Errorf("unknown stacking policy %q", rules.Stacking)
	}
	switch rules.OpeningDiscard {
	case OpeningReturn, OpeningBurn:
	default:
		return fmt.Errorf("unknown opening discard policy %q", rules.OpeningDiscard)
	}
	if !rules.DefaultWildColor.Valid() {
		return fmt.Errorf("defaultWildColor %q is not a playable color", rules.DefaultWildColor)
	}
	if rules.BotDelayMs < 0 {
		return errors.New("botDelayMs must be non-negative")
	}
	return nil
}

// Update will update the house rules with the new rules provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		if val, exists := newRules[key]; exists && val != nil {
			// JSON numbers arrive as float64
			switch v := val.(type) {
			case float64:
				*field = int(v)
			case int:
				*field = v
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
			if *field < minVal {
				return fmt.Errorf("%s must be at least %d", key, minVal)
			}
		}
		return nil
	}

	assignString := func(key string, set func(string)) error {
		if val, exists := newRules[key]; exists && val != nil {
			s, ok := val.(string)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			set(s)
		}
		return nil
	}

	if err := assignInt(&rules.MaxPlayers, "maxPlayers", 2); err != nil {
		return err
	}
	if err := assignInt(&rules.InitialHandSize, "initialHandSize", 1); err != nil {
		return err
	}
	if err := assignInt(&rules.BotDelayMs, "botDelayMs", 0); err != nil {
		return err
	}
	if err := assignBool(&rules.RequireChosenColor, "requireChosenColor"); err != nil {
		return err
	}
	if err := assignString("stacking", func(s string) { rules.Stacking = StackingPolicy(s) }); err != nil {
		return err
	}
	if err := assignString("openingDiscard", func(s string) { rules.OpeningDiscard = OpeningPolicy(s) }); err != nil {
		return err
	}
	if err := assignString("defaultWildColor", func(s string) { rules.DefaultWildColor = models.Color(s) }); err != nil {
		return err
	}

	return rules.Validate()
}

// ParseRules converts a map of rules to a HouseRules struct, starting from current.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}
