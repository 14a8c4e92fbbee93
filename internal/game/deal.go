package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"coderoom/internal/models"
)

// maxDealAttempts bounds the reshuffle loop. At the 4-symbol / 4-card-hand
// configuration a valid partition shows up within a handful of attempts, so
// the cap only matters if those constants ever change.
const maxDealAttempts = 1024

// Deal is the output of dealing: one hand per player (assignment order
// already randomized independently of join order) plus the table pool.
type Deal struct {
	Hands [][]models.Symbol
	Table []models.Symbol
}

// DealHands shuffles a fresh deck and partitions it into numPlayers hands of
// four under the fairness constraint: no two hands share the same
// distinct-symbol set, and no hand holds more than two distinct symbols. An
// invalid partition re-randomizes the whole deck, never just the bad hands.
//
// Only 2N of the 4N cards left after dealing are placed on the table; the
// rest sit out of the round entirely. That matches the table size players
// expect, so keep it even though it looks like half the pool goes unused.
func DealHands(rng *rand.Rand, numPlayers int) (*Deal, error) {
	if numPlayers < 1 {
		return nil, ErrInvalidPlayerCount
	}
	tableSize := CopiesPerPlayer * numPlayers

	for attempt := 0; attempt < maxDealAttempts; attempt++ {
		deck, err := NewDeck(rng, numPlayers)
		if err != nil {
			return nil, err
		}
		hands, ok := partitionHands(deck, numPlayers)
		if !ok {
			continue
		}
		dealt := numPlayers * HandSize
		table := make([]models.Symbol, tableSize)
		copy(table, deck[dealt:dealt+tableSize])

		rng.Shuffle(len(hands), func(i, j int) {
			hands[i], hands[j] = hands[j], hands[i]
		})
		return &Deal{Hands: hands, Table: table}, nil
	}

	return fallbackDeal(rng, numPlayers)
}

// partitionHands slices the deck into consecutive hands and validates the
// fairness constraint. Hands are copied out so the caller can keep them
// after the deck is reshuffled.
func partitionHands(deck []models.Symbol, numPlayers int) ([][]models.Symbol, bool) {
	seen := make(map[string]struct{}, numPlayers)
	hands := make([][]models.Symbol, 0, numPlayers)
	for i := 0; i < numPlayers; i++ {
		hand := deck[i*HandSize : (i+1)*HandSize]
		if distinctCount(hand) > 2 {
			return nil, false
		}
		key := distinctKey(hand)
		if _, dup := seen[key]; dup {
			return nil, false
		}
		seen[key] = struct{}{}

		h := make([]models.Symbol, HandSize)
		copy(h, hand)
		hands = append(hands, h)
	}
	return hands, true
}

func distinctCount(hand []models.Symbol) int {
	set := make(map[models.Symbol]struct{}, len(hand))
	for _, s := range hand {
		set[s] = struct{}{}
	}
	return len(set)
}

// distinctKey identifies a hand by its distinct symbols, order-independent.
func distinctKey(hand []models.Symbol) string {
	set := make(map[models.Symbol]struct{}, len(hand))
	for _, s := range hand {
		set[s] = struct{}{}
	}
	syms := make([]string, 0, len(set))
	for s := range set {
		syms = append(syms, string(s))
	}
	sort.Strings(syms)
	return strings.Join(syms, "")
}

// fallbackDeal constructs a valid partition directly when the random loop
// exhausts its attempts. Players 0-3 get two copies each of two
// adjacent alphabet symbols, players 4-7 get four copies of one symbol;
// all eight hand sets are distinct and every hand has at most two distinct
// symbols. Supply is never exceeded: each symbol is used at most 8 times
// and the deck carries 2N >= 10 copies once N > 4.
func fallbackDeal(rng *rand.Rand, numPlayers int) (*Deal, error) {
	if numPlayers > MaxPlayers {
		return nil, fmt.Errorf("no valid partition found for %d players after %d attempts", numPlayers, maxDealAttempts)
	}
	alpha := models.Alphabet
	used := make(map[models.Symbol]int, len(alpha))

	hands := make([][]models.Symbol, 0, numPlayers)
	for i := 0; i < numPlayers; i++ {
		var hand []models.Symbol
		if i < len(alpha) {
			a, b := alpha[i], alpha[(i+1)%len(alpha)]
			hand = []models.Symbol{a, a, b, b}
		} else {
			s := alpha[i%len(alpha)]
			hand = []models.Symbol{s, s, s, s}
		}
		for _, s := range hand {
			used[s]++
		}
		hands = append(hands, hand)
	}

	// Table comes from whatever copies remain after the hands.
	table := make([]models.Symbol, 0, CopiesPerPlayer*numPlayers)
	for _, sym := range alpha {
		remaining := CopiesPerPlayer*numPlayers - used[sym]
		for j := 0; j < remaining && len(table) < cap(table); j++ {
			table = append(table, sym)
		}
	}
	rng.Shuffle(len(table), func(i, j int) {
		table[i], table[j] = table[j], table[i]
	})
	rng.Shuffle(len(hands), func(i, j int) {
		hands[i], hands[j] = hands[j], hands[i]
	})
	return &Deal{Hands: hands, Table: table}, nil
}
