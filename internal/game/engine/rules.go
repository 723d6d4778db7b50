package engine

import "fmt"

// Rules holds the match-wide tunables.
type Rules struct {
	InitialHealth      int
	MaxHealth          int
	MaxCreatureHealth  int
	MaxEnergy          int
	InitialHandSize    int
	DeckSize           int
	EmptyDeckTurnLimit int
	// MaxConsecutiveTimeouts ends the match when a player lets the turn
	// timer expire this many times in a row. Zero disables the check.
	MaxConsecutiveTimeouts int
	// Seed feeds the match RNG. Zero picks a time based seed.
	Seed int64
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		InitialHealth:          20,
		MaxHealth:              30,
		MaxCreatureHealth:      20,
		MaxEnergy:              10,
		InitialHandSize:        4,
		DeckSize:               20,
		EmptyDeckTurnLimit:     10,
		MaxConsecutiveTimeouts: 3,
	}
}

// Validate rejects rule sets a match cannot run with.
func (r Rules) Validate() error {
	switch {
	case r.InitialHealth <= 0:
		return fmt.Errorf("initial health must be positive, got %d", r.InitialHealth)
	case r.MaxHealth < r.InitialHealth:
		return fmt.Errorf("max health %d below initial health %d", r.MaxHealth, r.InitialHealth)
	case r.MaxCreatureHealth <= 0:
		return fmt.Errorf("max creature health must be positive, got %d", r.MaxCreatureHealth)
	case r.MaxEnergy < 0:
		return fmt.Errorf("max energy must not be negative, got %d", r.MaxEnergy)
	case r.InitialHandSize < 0:
		return fmt.Errorf("initial hand size must not be negative, got %d", r.InitialHandSize)
	case r.DeckSize <= 0:
		return fmt.Errorf("deck size must be positive, got %d", r.DeckSize)
	case r.EmptyDeckTurnLimit <= 0:
		return fmt.Errorf("empty deck turn limit must be positive, got %d", r.EmptyDeckTurnLimit)
	case r.MaxConsecutiveTimeouts < 0:
		return fmt.Errorf("max consecutive timeouts must not be negative, got %d", r.MaxConsecutiveTimeouts)
	}
	return nil
}
