package holdem

import (
	"errors"

	"holdem-server/pkg/deck"

	"github.com/sirupsen/logrus"
)

// Choice is a seat's show/muck decision
type Choice string

// constants for Choice
const (
	ChoiceUndecided Choice = ""
	ChoiceShow      Choice = "show"
	ChoiceMuck      Choice = "muck"
)

// ShowdownPlayer is a frozen per-seat snapshot taken when the hand resolves
type ShowdownPlayer struct {
	Name      string
	HoleCards deck.Hand
	Folded    bool

	// Hand is the oracle's description of the seat's best hand. Empty for
	// folded seats and for the fold-out case, where nothing is evaluated.
	Hand string

	ranking Ranking
	ranked  bool
}

// Winner is a pot recipient
type Winner struct {
	Name  string `json:"name"`
	Chips int    `json:"chips"`
	Hand  string `json:"hand,omitempty"`
}

// Showdown is the transient context for the post-river (or fold-out)
// resolution of a hand. It is owned by the room and discarded once the next
// hand is dealt.
type Showdown struct {
	Players       []*ShowdownPlayer
	Winners       []Winner
	LastAggressor string

	// FoldOut marks the single-survivor case: the pot was already awarded
	// and no hand comparison takes place
	FoldOut bool

	// UndecidedSplit marks a settlement where nobody showed and the pot was
	// split evenly rather than won on rank
	UndecidedSplit bool

	choices map[string]Choice
	settled bool
}

// EnterShowdown freezes the table into a showdown context after the river
// betting round closes with two or more unfolded seats.
func (g *Game) EnterShowdown() (*Showdown, error) {
	if g.activeCount() < 2 {
		return nil, errors.New("showdown requires at least two active seats")
	}

	s := &Showdown{
		Players: make([]*ShowdownPlayer, 0, len(g.players)),
		choices: make(map[string]Choice),
	}

	if aggressor := g.LastAggressor(); aggressor != nil && !aggressor.Folded {
		s.LastAggressor = aggressor.Name
	}

	for _, p := range g.players {
		sp := &ShowdownPlayer{
			Name:      p.Name,
			HoleCards: p.HoleCards.Clone(),
			Folded:    p.Folded,
		}

		if !p.Folded {
			cards := make([]*deck.Card, 0, 7)
			cards = append(cards, p.HoleCards...)
			cards = append(cards, g.community...)

			ranking, err := g.oracle.Rank(cards)
			if err != nil {
				return nil, err
			}

			sp.ranking = ranking
			sp.ranked = true
			sp.Hand = ranking.Description
			p.CurrentHand = &HandState{
				Rank:        ranking.Score,
				Description: ranking.Description,
			}
		}

		s.Players = append(s.Players, sp)
	}

	return s, nil
}

// FoldOutShowdown settles the single-survivor case immediately: the survivor
// takes the whole pot and no hands are evaluated.
func (g *Game) FoldOutShowdown(survivor int) *Showdown {
	p := g.players[survivor]
	p.Chips += g.pot
	g.pot = 0

	s := &Showdown{
		Players: make([]*ShowdownPlayer, 0, len(g.players)),
		Winners: []Winner{{
			Name:  p.Name,
			Chips: p.Chips,
		}},
		FoldOut: true,
		choices: make(map[string]Choice),
		settled: true,
	}

	if aggressor := g.LastAggressor(); aggressor != nil && !aggressor.Folded {
		s.LastAggressor = aggressor.Name
	}

	for _, gp := range g.players {
		s.Players = append(s.Players, &ShowdownPlayer{
			Name:      gp.Name,
			HoleCards: gp.HoleCards.Clone(),
			Folded:    gp.Folded,
		})
	}

	g.log.WithFields(logrus.Fields{
		"winner": p.Name,
		"chips":  p.Chips,
	}).Debug("fold-out settlement")

	return s
}

// Decide records a show/muck decision for the named seat. Each unfolded seat
// may decide exactly once; show-order precedence is advisory only.
func (s *Showdown) Decide(name string, choice Choice) error {
	if choice != ChoiceShow && choice != ChoiceMuck {
		return ErrInvalidShowdownDecision
	}

	sp := s.player(name)
	if sp == nil || sp.Folded {
		return ErrInvalidShowdownDecision
	}

	if _, decided := s.choices[name]; decided {
		return ErrInvalidShowdownDecision
	}

	s.choices[name] = choice
	return nil
}

// Choice returns the seat's decision, or ChoiceUndecided
func (s *Showdown) Choice(name string) Choice {
	return s.choices[name]
}

// Choices returns a copy of all recorded decisions
func (s *Showdown) Choices() map[string]Choice {
	choices := make(map[string]Choice, len(s.choices))
	for name, choice := range s.choices {
		choices[name] = choice
	}

	return choices
}

// AllDecided returns true once every unfolded seat has a decision
func (s *Showdown) AllDecided() bool {
	for _, sp := range s.Players {
		if sp.Folded {
			continue
		}

		if s.choices[sp.Name] == ChoiceUndecided {
			return false
		}
	}

	return true
}

// DefaultUndecidedToMuck mucks every seat that has not decided. Called when
// the decision timer expires.
func (s *Showdown) DefaultUndecidedToMuck() {
	for _, sp := range s.Players {
		if sp.Folded {
			continue
		}

		if s.choices[sp.Name] == ChoiceUndecided {
			s.choices[sp.Name] = ChoiceMuck
		}
	}
}

// Settled returns true once the pot has been paid out
func (s *Showdown) Settled() bool {
	return s.settled
}

// SettleShowdown pays out the pot. Seats that chose to show are compared by
// the oracle; if nobody showed, the pot splits evenly across all unfolded
// seats as an undecided split. The floor-division remainder goes to the
// winner closest to the dealer's left.
func (g *Game) SettleShowdown(s *Showdown) []Winner {
	if s.settled {
		return s.Winners
	}

	shown := make([]*ShowdownPlayer, 0, len(s.Players))
	rankings := make([]Ranking, 0, len(s.Players))
	for _, sp := range s.Players {
		if sp.Folded || s.choices[sp.Name] != ChoiceShow || !sp.ranked {
			continue
		}

		shown = append(shown, sp)
		rankings = append(rankings, sp.ranking)
	}

	var recipients []*ShowdownPlayer
	if len(shown) > 0 {
		for _, i := range g.oracle.Winners(rankings) {
			recipients = append(recipients, shown[i])
		}
	} else {
		// nobody showed: even split across all unfolded seats
		s.UndecidedSplit = true
		for _, sp := range s.Players {
			if !sp.Folded {
				recipients = append(recipients, sp)
			}
		}
	}

	if len(recipients) == 0 {
		// every potential recipient left the table
		g.pot = 0
		s.settled = true
		return nil
	}

	share := g.pot / len(recipients)
	remainder := g.pot % len(recipients)

	winners := make([]Winner, 0, len(recipients))
	for _, sp := range g.dealerOrder(recipients) {
		_, p := g.PlayerByName(sp.Name)
		if p == nil {
			// seat was removed mid-showdown; its share stays unawarded
			g.log.WithField("player", sp.Name).Warn("pot recipient left the table")
			continue
		}

		amount := share
		if remainder > 0 {
			amount += remainder
			remainder = 0
		}

		p.Chips += amount

		hand := ""
		if !s.UndecidedSplit {
			hand = sp.Hand
		}

		winners = append(winners, Winner{
			Name:  p.Name,
			Chips: p.Chips,
			Hand:  hand,
		})
	}

	g.pot = 0
	s.Winners = winners
	s.settled = true

	g.log.WithFields(logrus.Fields{
		"winners":   len(winners),
		"undecided": s.UndecidedSplit,
	}).Debug("showdown settled")

	return winners
}

// dealerOrder sorts the recipients by seating distance from the dealer's left
func (g *Game) dealerOrder(recipients []*ShowdownPlayer) []*ShowdownPlayer {
	n := len(g.players)
	if n == 0 {
		return recipients
	}

	ordered := make([]*ShowdownPlayer, 0, len(recipients))
	for i := 1; i <= n; i++ {
		name := g.players[(g.dealerIndex+i)%n].Name
		for _, sp := range recipients {
			if sp.Name == name {
				ordered = append(ordered, sp)
			}
		}
	}

	// recipients whose seats are already gone settle last
	for _, sp := range recipients {
		if _, p := g.PlayerByName(sp.Name); p == nil {
			ordered = append(ordered, sp)
		}
	}

	return ordered
}

func (s *Showdown) player(name string) *ShowdownPlayer {
	for _, sp := range s.Players {
		if sp.Name == name {
			return sp
		}
	}

	return nil
}
