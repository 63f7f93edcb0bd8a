package holdem

import (
	"fmt"

	"holdem-server/pkg/deck"

	"github.com/paulhankin/poker"
)

// Ranking is a comparable evaluation of a poker hand.
// Higher scores beat lower scores; equal scores tie.
type Ranking struct {
	Score       int16
	Description string
}

// Oracle ranks poker hands and picks winners among them. Implementations must
// accept 5 to 7 cards.
type Oracle interface {
	Rank(cards []*deck.Card) (Ranking, error)
	Winners(rankings []Ranking) []int
}

// NewOracle returns an Oracle backed by the paulhankin/poker evaluator
func NewOracle() Oracle {
	return pokerOracle{}
}

type pokerOracle struct{}

func (pokerOracle) Rank(cards []*deck.Card) (Ranking, error) {
	hand := make([]poker.Card, len(cards))
	for i, c := range cards {
		card, err := makePokerCard(c)
		if err != nil {
			return Ranking{}, err
		}

		hand[i] = card
	}

	var score int16
	switch len(hand) {
	case 5:
		var h [5]poker.Card
		copy(h[:], hand)
		score = poker.Eval5(&h)
	case 6:
		// the evaluator only handles 5 or 7 cards, so take the best
		// five-card hand out of the six
		best := bestFiveOfSix(hand)
		score = poker.Eval5(&best)
		hand = best[:]
	case 7:
		var h [7]poker.Card
		copy(h[:], hand)
		score = poker.Eval7(&h)
	default:
		return Ranking{}, fmt.Errorf("cannot rank a %d-card hand", len(hand))
	}

	desc, err := poker.Describe(hand)
	if err != nil {
		return Ranking{}, err
	}

	return Ranking{
		Score:       score,
		Description: desc,
	}, nil
}

func (pokerOracle) Winners(rankings []Ranking) []int {
	if len(rankings) == 0 {
		return nil
	}

	best := rankings[0].Score
	for _, r := range rankings[1:] {
		if r.Score > best {
			best = r.Score
		}
	}

	winners := make([]int, 0, 1)
	for i, r := range rankings {
		if r.Score == best {
			winners = append(winners, i)
		}
	}

	return winners
}

func bestFiveOfSix(hand []poker.Card) [5]poker.Card {
	var best [5]poker.Card
	var bestScore int16

	// drop each card in turn
	for skip := 0; skip < len(hand); skip++ {
		var h [5]poker.Card
		n := 0
		for i, c := range hand {
			if i == skip {
				continue
			}

			h[n] = c
			n++
		}

		if score := poker.Eval5(&h); skip == 0 || score > bestScore {
			bestScore = score
			best = h
		}
	}

	return best
}

func makePokerCard(c *deck.Card) (poker.Card, error) {
	rank := c.Rank
	if rank == deck.Ace {
		rank = 1
	}

	var suit int
	switch c.Suit {
	case deck.Clubs:
		suit = 0
	case deck.Diamonds:
		suit = 1
	case deck.Hearts:
		suit = 2
	case deck.Spades:
		suit = 3
	default:
		var zero poker.Card
		return zero, fmt.Errorf("unknown suit: %s", c.Suit)
	}

	return poker.MakeCard(poker.Suit(suit), poker.Rank(rank))
}
