package game

import (
	"math/rand"

	"coderoom/internal/models"
)

const (
	// HandSize is the fixed number of cards in every player's hand.
	HandSize = 4

	// CopiesPerPlayer scales the deck: each symbol appears 2N times for N
	// players, so the full deck holds 8N cards.
	CopiesPerPlayer = 2

	// MaxPlayers caps room membership. The cap keeps the deterministic
	// dealing fallback applicable (it can construct up to 8 distinct hands).
	MaxPlayers = 8
)

// NewDeck builds the deck for numPlayers and shuffles it: 8N cards total,
// each of the 4 symbols repeated exactly 2N times. Pure apart from rng.
func NewDeck(rng *rand.Rand, numPlayers int) ([]models.Symbol, error) {
	if numPlayers < 1 {
		return nil, ErrInvalidPlayerCount
	}
	deck := make([]models.Symbol, 0, 2*HandSize*numPlayers)
	for _, sym := range models.Alphabet {
		for i := 0; i < CopiesPerPlayer*numPlayers; i++ {
			deck = append(deck, sym)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, nil
}

// CheckWin reports whether the hand's symbol set, duplicates collapsed,
// equals the full alphabet. With the fixed hand size of 4 this is the same
// as "the hand is a permutation of C, O, D, E".
func CheckWin(hand []models.Symbol) bool {
	seen := make(map[models.Symbol]struct{}, len(hand))
	for _, s := range hand {
		seen[s] = struct{}{}
	}
	if len(seen) != len(models.Alphabet) {
		return false
	}
	for _, sym := range models.Alphabet {
		if _, ok := seen[sym]; !ok {
			return false
		}
	}
	return true
}
