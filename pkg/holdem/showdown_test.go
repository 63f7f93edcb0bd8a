package holdem

import (
	"testing"

	"holdem-server/pkg/deck"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riverGame plays three seats to the river with everyone checking/calling,
// then rigs the cards so the outcome is deterministic
func riverGame(t *testing.T) *Game {
	t.Helper()

	g := newTestGame(t, "alice", "bob", "carol")
	require.NoError(t, g.StartHand())

	for street := 0; street < 4; street++ {
		for !g.BettingRoundComplete() {
			seat := g.CurrentTurn()
			require.NoError(t, g.Bet(seat, g.CurrentBet()))
			if !g.BettingRoundComplete() {
				g.AdvanceTurn()
			}
		}

		if g.Round() != RoundRiver {
			require.NoError(t, g.NextStreet())
		}
	}

	require.Equal(t, RoundRiver, g.Round())

	// rigged board: no pairs, no flush, no straight
	g.community = deck.CardsFromString("2c,5d,9h,11s,13c")
	g.players[0].HoleCards = deck.CardsFromString("3h,6s")
	g.players[1].HoleCards = deck.CardsFromString("14s,14h") // pair of aces
	g.players[2].HoleCards = deck.CardsFromString("3c,7d")

	return g
}

func TestGame_EnterShowdown(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	s, err := g.EnterShowdown()
	a.NoError(err)
	a.NotNil(s)
	a.Len(s.Players, 3)
	a.False(s.FoldOut)
	a.False(s.Settled())

	// no aggression happened, so precedence is unconstrained
	a.Empty(s.LastAggressor)

	for i, sp := range s.Players {
		a.NotEmpty(sp.Hand, "seat %d should have an evaluated hand", i)
		a.NotNil(g.players[i].CurrentHand)
	}
}

func TestGame_EnterShowdown_recordsLastAggressor(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	a.NoError(g.Bet(g.CurrentTurn(), 50))

	s, err := g.EnterShowdown()
	a.NoError(err)
	a.Equal(g.players[g.lastAggressor].Name, s.LastAggressor)
}

func TestShowdown_Decide(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	// alice closes the river action, so she is still to act
	require.Equal(t, 0, g.CurrentTurn())
	_, _, err := g.Fold(0)
	a.NoError(err)
	g.AdvanceTurn()

	s, err := g.EnterShowdown()
	a.NoError(err)

	a.Equal(ErrInvalidShowdownDecision, s.Decide("bob", Choice("peek")))
	a.Equal(ErrInvalidShowdownDecision, s.Decide("nobody", ChoiceShow))
	a.Equal(ErrInvalidShowdownDecision, s.Decide("alice", ChoiceShow), "folded seats cannot decide")

	a.NoError(s.Decide("bob", ChoiceShow))
	a.Equal(ErrInvalidShowdownDecision, s.Decide("bob", ChoiceMuck), "decisions are final")
	a.Equal(ChoiceShow, s.Choice("bob"))

	a.False(s.AllDecided())
	a.NoError(s.Decide("carol", ChoiceMuck))
	a.True(s.AllDecided())
}

func TestShowdown_DefaultUndecidedToMuck(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	s, err := g.EnterShowdown()
	a.NoError(err)

	a.NoError(s.Decide("bob", ChoiceShow))
	a.False(s.AllDecided())

	s.DefaultUndecidedToMuck()
	a.True(s.AllDecided())
	a.Equal(ChoiceShow, s.Choice("bob"))
	a.Equal(ChoiceMuck, s.Choice("alice"))
	a.Equal(ChoiceMuck, s.Choice("carol"))
}

func TestGame_SettleShowdown_rankedWin(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	pot := g.Pot()
	a.Greater(pot, 0)

	s, err := g.EnterShowdown()
	a.NoError(err)

	a.NoError(s.Decide("alice", ChoiceMuck))
	a.NoError(s.Decide("bob", ChoiceShow))
	a.NoError(s.Decide("carol", ChoiceShow))

	winners := g.SettleShowdown(s)
	a.Len(winners, 1)
	a.Equal("bob", winners[0].Name)
	a.NotEmpty(winners[0].Hand)
	a.False(s.UndecidedSplit)

	_, bob := g.PlayerByName("bob")
	a.Equal(StartingChips-bob.TotalBet+pot, bob.Chips)

	_, carol := g.PlayerByName("carol")
	a.Equal(StartingChips-carol.TotalBet, carol.Chips)

	a.Equal(0, g.Pot())
	a.True(s.Settled())

	// settling twice is a no-op
	a.Equal(winners, g.SettleShowdown(s))
}

func TestGame_SettleShowdown_undecidedSplit(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	pot := g.Pot()
	share := pot / 3

	s, err := g.EnterShowdown()
	a.NoError(err)

	s.DefaultUndecidedToMuck()
	winners := g.SettleShowdown(s)

	a.True(s.UndecidedSplit)
	a.Len(winners, 3)
	for _, w := range winners {
		a.Empty(w.Hand, "an undecided split is not a ranked win")
	}

	_, alice := g.PlayerByName("alice")
	a.GreaterOrEqual(alice.Chips, StartingChips-alice.TotalBet+share)
	a.Equal(0, g.Pot())
}

func TestGame_SettleShowdown_remainderGoesLeftOfDealer(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	// force an uneven split across the three unfolded seats
	g.pot = 100

	s, err := g.EnterShowdown()
	a.NoError(err)

	s.DefaultUndecidedToMuck()
	g.SettleShowdown(s)

	// dealer is alice; bob sits to her left and gets the extra chip
	_, alice := g.PlayerByName("alice")
	_, bob := g.PlayerByName("bob")
	_, carol := g.PlayerByName("carol")

	a.Equal(StartingChips-bob.TotalBet+34, bob.Chips)
	a.Equal(StartingChips-alice.TotalBet+33, alice.Chips)
	a.Equal(StartingChips-carol.TotalBet+33, carol.Chips)
	a.Equal(0, g.Pot())
}

func TestGame_FoldOutShowdown(t *testing.T) {
	a := assert.New(t)
	oracle := &stubOracle{scores: make(map[string]int16)}
	g := NewGame(logrus.StandardLogger(), oracle)

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := g.AddPlayer(name, StartingChips)
		a.NoError(err)
	}

	a.NoError(g.StartHand())
	pot := g.Pot()

	_, foldOut, err := g.Fold(0)
	a.NoError(err)
	a.False(foldOut)
	g.AdvanceTurn()

	survivor, foldOut, err := g.Fold(1)
	a.NoError(err)
	a.True(foldOut)

	s := g.FoldOutShowdown(survivor)
	a.True(s.FoldOut)
	a.True(s.Settled())
	a.Len(s.Winners, 1)
	a.Equal("carol", s.Winners[0].Name)
	a.Empty(s.Winners[0].Hand)

	_, carol := g.PlayerByName("carol")
	a.Equal(StartingChips-carol.TotalBet+pot, carol.Chips)
	a.Equal(0, g.Pot())

	// the hand oracle is never consulted on a fold-out
	a.Equal(0, oracle.rankCalls)
	a.Equal(0, oracle.winnersCalls)
}

// the §8-style end-to-end scenario: A folds pre-flop, B and C check to the
// river, both show, B holds the better hand
func TestGame_fullHandScenario(t *testing.T) {
	a := assert.New(t)
	g := riverGame(t)
	g.oracle = NewOracle()

	pot := g.Pot()
	a.Equal(60, pot) // everyone called the big blind, then checked down

	s, err := g.EnterShowdown()
	a.NoError(err)

	a.NoError(s.Decide("alice", ChoiceMuck))
	a.NoError(s.Decide("bob", ChoiceShow))
	a.NoError(s.Decide("carol", ChoiceShow))
	a.True(s.AllDecided())

	winners := g.SettleShowdown(s)
	a.Len(winners, 1)
	a.Equal("bob", winners[0].Name)
	a.NotEmpty(winners[0].Hand)

	potEqualsContributionsAfterSettlement(t, g)
}

func potEqualsContributionsAfterSettlement(t *testing.T, g *Game) {
	t.Helper()

	total := 0
	for _, p := range g.Players() {
		total += p.Chips
	}

	assert.Equal(t, 3*StartingChips, total, "settlement must conserve chips")
	assert.Equal(t, 0, g.Pot())
}
