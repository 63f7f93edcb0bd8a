package room

import (
	"holdem-server/pkg/deck"
	"holdem-server/pkg/holdem"

	"github.com/thoas/go-funk"
)

type statePlayer struct {
	Name         string            `json:"name"`
	Chips        int               `json:"chips"`
	RoundBet     int               `json:"roundBet"`
	TotalBet     int               `json:"totalBet"`
	Folded       bool              `json:"folded"`
	Ready        bool              `json:"ready"`
	IsDealer     bool              `json:"isDealer"`
	IsSmallBlind bool              `json:"isSmallBlind"`
	IsBigBlind   bool              `json:"isBigBlind"`
	IsTurn       bool              `json:"isTurn"`
	IsConnected  bool              `json:"isConnected"`
	HoleCards    deck.Hand         `json:"holeCards,omitempty"`
	CurrentHand  *holdem.HandState `json:"currentHand,omitempty"`
}

type gameState struct {
	Players        []*statePlayer `json:"players"`
	CommunityCards deck.Hand      `json:"communityCards"`
	Pot            int            `json:"pot"`
	CurrentBet     int            `json:"currentBet"`
	CurrentPlayer  string         `json:"currentPlayer,omitempty"`
	Dealer         string         `json:"dealer,omitempty"`
	Round          holdem.Round   `json:"round"`
	HandInProgress bool           `json:"handInProgress"`
	InReview       bool           `json:"inReview"`
	ActionLog      []*LogMessage  `json:"actionLog"`
}

// renderState builds the gameState payload for one recipient. Hole cards are
// only visible to their owner until the owner shows them at a showdown.
// NOTE: must only be called from the run loop
func (r *Room) renderState(recipient string) *Response {
	connected := make([]string, 0)
	for _, client := range r.Clients() {
		connected = append(connected, client.username)
	}

	dealer := r.game.Dealer()

	players := make([]*statePlayer, 0, len(r.game.Players()))
	for seat, p := range r.game.Players() {
		sp := &statePlayer{
			Name:         p.Name,
			Chips:        p.Chips,
			RoundBet:     p.RoundBet,
			TotalBet:     p.TotalBet,
			Folded:       p.Folded,
			Ready:        p.Ready,
			IsDealer:     dealer == p,
			IsSmallBlind: p.SmallBlind,
			IsBigBlind:   p.BigBlind,
			IsTurn:       r.game.HandInProgress() && r.showdown == nil && r.game.CurrentTurn() == seat,
			IsConnected:  funk.ContainsString(connected, p.Name),
		}

		if p.Name == recipient {
			sp.HoleCards = p.HoleCards
			sp.CurrentHand = r.game.EvaluateSeat(seat)
		} else if r.showdown != nil && r.showdown.Choice(p.Name) == holdem.ChoiceShow {
			sp.HoleCards = p.HoleCards
		}

		players = append(players, sp)
	}

	state := &gameState{
		Players:        players,
		CommunityCards: r.game.Community(),
		Pot:            r.game.Pot(),
		CurrentBet:     r.game.CurrentBet(),
		Round:          r.game.Round(),
		HandInProgress: r.game.HandInProgress(),
		InReview:       r.inReview,
		ActionLog:      r.logMessages,
	}

	if dealer != nil {
		state.Dealer = dealer.Name
	}

	if r.game.HandInProgress() && r.showdown == nil {
		state.CurrentPlayer = r.game.Players()[r.game.CurrentTurn()].Name
	}

	return &Response{
		Key:  "gameState",
		Data: state,
	}
}

// NOTE: must only be called from the run loop
func (r *Room) showChoicesUpdate() *Response {
	choices := make(map[string]holdem.Choice)
	if r.showdown != nil {
		choices = r.showdown.Choices()
	}

	return &Response{
		Key:  "showChoicesUpdate",
		Data: choices,
	}
}

type showdownSeat struct {
	Name      string    `json:"name"`
	Folded    bool      `json:"folded"`
	HoleCards deck.Hand `json:"holeCards,omitempty"`
	Hand      string    `json:"hand,omitempty"`
}

type showdownData struct {
	Winners        []holdem.Winner `json:"winners"`
	Players        []*showdownSeat `json:"players"`
	LastAggressor  string          `json:"lastAggressor,omitempty"`
	FoldOut        bool            `json:"foldOut"`
	UndecidedSplit bool            `json:"undecidedSplit"`
}

// showdownResult builds the broadcast sent once the pot is settled. Only
// hands whose owners chose to show are revealed.
// NOTE: must only be called from the run loop
func (r *Room) showdownResult() *Response {
	s := r.showdown

	shown := make([]string, 0, len(s.Players))
	for name, choice := range s.Choices() {
		if choice == holdem.ChoiceShow {
			shown = append(shown, name)
		}
	}

	seats := make([]*showdownSeat, 0, len(s.Players))
	for _, sp := range s.Players {
		seat := &showdownSeat{
			Name:   sp.Name,
			Folded: sp.Folded,
		}

		if funk.ContainsString(shown, sp.Name) {
			seat.HoleCards = sp.HoleCards
			seat.Hand = sp.Hand
		}

		seats = append(seats, seat)
	}

	return &Response{
		Key: "showdown",
		Data: &showdownData{
			Winners:        s.Winners,
			Players:        seats,
			LastAggressor:  s.LastAggressor,
			FoldOut:        s.FoldOut,
			UndecidedSplit: s.UndecidedSplit,
		},
	}
}
