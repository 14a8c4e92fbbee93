package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coderoom/internal/models"
)

// checkDeal asserts the fairness constraints and sizing for a dealt round.
func checkDeal(t *testing.T, deal *Deal, numPlayers int) {
	t.Helper()
	require.Len(t, deal.Hands, numPlayers)
	require.Len(t, deal.Table, 2*numPlayers)

	seen := map[string]bool{}
	for _, hand := range deal.Hands {
		require.Len(t, hand, HandSize)
		assert.LessOrEqual(t, distinctCount(hand), 2, "hand %v has too many distinct symbols", hand)
		key := distinctKey(hand)
		assert.False(t, seen[key], "two hands share the symbol set %v", key)
		seen[key] = true
	}

	// Hands plus table never exceed the deck's supply of any symbol.
	counts := map[models.Symbol]int{}
	for _, hand := range deal.Hands {
		for _, s := range hand {
			counts[s]++
		}
	}
	for _, s := range deal.Table {
		counts[s]++
	}
	total := 0
	for sym, c := range counts {
		assert.LessOrEqual(t, c, 2*numPlayers, "symbol %s over-dealt", sym)
		total += c
	}
	// 4N in hands + 2N on the table; the other 2N cards sit out of play.
	assert.Equal(t, 6*numPlayers, total)
}

func TestDealHandsFairness(t *testing.T) {
	for n := 2; n <= MaxPlayers; n++ {
		for seed := int64(0); seed < 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			deal, err := DealHands(rng, n)
			require.NoError(t, err, "players=%d seed=%d", n, seed)
			checkDeal(t, deal, n)
		}
	}
}

func TestDealHandsInvalidPlayerCount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := DealHands(rng, 0)
	assert.ErrorIs(t, err, ErrInvalidPlayerCount)
}

func TestFallbackDealIsValid(t *testing.T) {
	for n := 2; n <= MaxPlayers; n++ {
		rng := rand.New(rand.NewSource(7))
		deal, err := fallbackDeal(rng, n)
		require.NoError(t, err)
		checkDeal(t, deal, n)
	}
}

func TestFallbackDealTooManyPlayers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	_, err := fallbackDeal(rng, MaxPlayers+1)
	assert.Error(t, err)
}

func TestPartitionHandsRejectsBadDecks(t *testing.T) {
	// Two identical symbol sets across hands.
	deck := []models.Symbol{
		"C", "C", "O", "O",
		"O", "O", "C", "C",
		"D", "D", "D", "D",
		"E", "E", "E", "E",
	}
	_, ok := partitionHands(deck, 2)
	assert.False(t, ok)

	// A hand with three distinct symbols.
	deck = []models.Symbol{
		"C", "O", "D", "C",
		"E", "E", "E", "E",
	}
	_, ok = partitionHands(deck, 2)
	assert.False(t, ok)

	// A valid partition passes.
	deck = []models.Symbol{
		"C", "C", "O", "O",
		"D", "D", "E", "E",
	}
	hands, ok := partitionHands(deck, 2)
	require.True(t, ok)
	require.Len(t, hands, 2)
}
