package holdem

import (
	"strings"

	"holdem-server/pkg/deck"
)

// Player is a seat at the table
// The zero index into Game.players is not meaningful; seats are identified by
// their stable username.
type Player struct {
	Name       string
	Chips      int
	HoleCards  deck.Hand
	RoundBet   int // contribution for the current betting round
	TotalBet   int // cumulative contribution for the hand
	Folded     bool
	SmallBlind bool
	BigBlind   bool
	Ready      bool

	// CurrentHand is the seat's own evaluation of its best hand so far.
	// Cleared at the start of every hand.
	CurrentHand *HandState

	acted bool
}

// HandState describes a seat's best hand for display purposes
type HandState struct {
	Rank        int16  `json:"rank"`
	Description string `json:"description"`
}

func newPlayer(name string, chips int) *Player {
	return &Player{
		Name:  name,
		Chips: chips,
	}
}

// resetForHand clears all per-hand state on the seat
func (p *Player) resetForHand() {
	p.HoleCards = nil
	p.RoundBet = 0
	p.TotalBet = 0
	p.Folded = false
	p.SmallBlind = false
	p.BigBlind = false
	p.Ready = false
	p.CurrentHand = nil
	p.acted = false
}

// newStreet resets the seat for the next betting round
func (p *Player) newStreet() {
	p.RoundBet = 0
	p.acted = false
}

// HasActed returns true if the seat already acted this betting round
func (p *Player) HasActed() bool {
	return p.acted
}

// holeCardsDescription renders the hole cards for the pre-flop hand display
func (p *Player) holeCardsDescription() string {
	cards := make([]string, len(p.HoleCards))
	for i, c := range p.HoleCards {
		cards[i] = c.String()
	}

	return strings.Join(cards, ", ")
}
