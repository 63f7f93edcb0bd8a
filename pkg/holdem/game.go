package holdem

import (
	"errors"
	"fmt"

	"holdem-server/pkg/deck"

	"github.com/sirupsen/logrus"
)

// table constants
const (
	MaxPlayers    = 12
	StartingChips = 1000
	SmallBlind    = 10
	BigBlind      = 20
)

// Game is the authoritative state of a single hold'em table. It is not safe
// for concurrent use; the room run loop serializes all access.
type Game struct {
	log    logrus.FieldLogger
	oracle Oracle

	players   []*Player
	deck      *deck.Deck
	community deck.Hand

	pot        int
	currentBet int

	dealerIndex  int
	currentIndex int
	round        Round

	// lastAggressor is the seat that most recently raised this street, or -1
	lastAggressor int

	handInProgress bool
}

// NewGame returns an empty table
func NewGame(log logrus.FieldLogger, oracle Oracle) *Game {
	return &Game{
		log:           log,
		oracle:        oracle,
		players:       make([]*Player, 0, MaxPlayers),
		community:     make(deck.Hand, 0, 5),
		dealerIndex:   -1,
		lastAggressor: -1,
	}
}

// AddPlayer seats a player. Joining with a name that already holds a seat
// returns that seat (reconnection).
func (g *Game) AddPlayer(name string, chips int) (int, error) {
	if seat, p := g.PlayerByName(name); p != nil {
		return seat, nil
	}

	if len(g.players) >= MaxPlayers {
		return -1, ErrTableFull
	}

	g.players = append(g.players, newPlayer(name, chips))
	return len(g.players) - 1, nil
}

// RemovePlayer removes the named seat. If a hand is in progress the seat is
// folded first so the turn order stays consistent.
func (g *Game) RemovePlayer(name string) bool {
	seat, p := g.PlayerByName(name)
	if p == nil {
		return false
	}

	if g.handInProgress && !p.Folded {
		p.Folded = true
		p.acted = true
		if g.currentIndex == seat && g.activeCount() > 0 {
			g.AdvanceTurn()
		}
	}

	g.players = append(g.players[:seat], g.players[seat+1:]...)

	if g.dealerIndex >= seat && g.dealerIndex > 0 {
		g.dealerIndex--
	}

	if g.currentIndex >= seat && g.currentIndex > 0 {
		g.currentIndex--
	}

	if g.lastAggressor == seat {
		g.lastAggressor = -1
	} else if g.lastAggressor > seat {
		g.lastAggressor--
	}

	return true
}

// PlayerByName returns the seat index and player for the username, or (-1, nil)
func (g *Game) PlayerByName(name string) (int, *Player) {
	for i, p := range g.players {
		if p.Name == name {
			return i, p
		}
	}

	return -1, nil
}

// Players returns the seats in table order
func (g *Game) Players() []*Player {
	return g.players
}

// Pot returns the chips in the pot
func (g *Game) Pot() int {
	return g.pot
}

// CurrentBet returns the contribution level every active seat must match
func (g *Game) CurrentBet() int {
	return g.currentBet
}

// Round returns the current betting street
func (g *Game) Round() Round {
	return g.round
}

// Community returns the community cards dealt so far
func (g *Game) Community() deck.Hand {
	return g.community
}

// HandInProgress returns true between the deal and settlement
func (g *Game) HandInProgress() bool {
	return g.handInProgress
}

// Dealer returns the dealer seat, or nil before the first hand
func (g *Game) Dealer() *Player {
	if g.dealerIndex < 0 || g.dealerIndex >= len(g.players) {
		return nil
	}

	return g.players[g.dealerIndex]
}

// CurrentTurn returns the seat index whose turn it is
func (g *Game) CurrentTurn() int {
	return g.currentIndex
}

// CurrentPlayer returns the player whose turn it is, or nil
func (g *Game) CurrentPlayer() *Player {
	if g.currentIndex < 0 || g.currentIndex >= len(g.players) {
		return nil
	}

	return g.players[g.currentIndex]
}

// LastAggressor returns the seat that most recently raised, or nil
func (g *Game) LastAggressor() *Player {
	if g.lastAggressor < 0 || g.lastAggressor >= len(g.players) {
		return nil
	}

	return g.players[g.lastAggressor]
}

// AllReady returns true if every seat is ready for the next hand
func (g *Game) AllReady() bool {
	for _, p := range g.players {
		if !p.Ready {
			return false
		}
	}

	return len(g.players) > 0
}

// StartHand rotates the dealer, posts blinds, and deals two hole cards to
// every seat. The turn passes to the seat after the big blind.
func (g *Game) StartHand() error {
	n := len(g.players)
	if n < 2 {
		return errors.New("at least two players are required")
	}

	g.dealerIndex = (g.dealerIndex + 1) % n
	g.community = make(deck.Hand, 0, 5)
	g.pot = 0
	g.currentBet = 0
	g.round = RoundPreFlop
	g.lastAggressor = -1

	for _, p := range g.players {
		p.resetForHand()
	}

	// a fresh deck every hand keeps hands independent
	g.deck = deck.New()
	g.deck.Shuffle()

	smallBlindIndex := (g.dealerIndex + 1) % n
	bigBlindIndex := (g.dealerIndex + 2) % n

	sb := g.players[smallBlindIndex]
	bb := g.players[bigBlindIndex]
	sb.SmallBlind = true
	bb.BigBlind = true

	// a short stack posts what it can (all-in blind)
	sbAmount := min(SmallBlind, sb.Chips)
	bbAmount := min(BigBlind, bb.Chips)

	sb.Chips -= sbAmount
	sb.RoundBet = sbAmount
	sb.TotalBet = sbAmount

	bb.Chips -= bbAmount
	bb.RoundBet = bbAmount
	bb.TotalBet = bbAmount

	g.pot = sbAmount + bbAmount
	g.currentBet = bbAmount

	if !g.deck.CanDraw(2 * n) {
		return ErrInsufficientCards
	}

	for _, p := range g.players {
		for i := 0; i < 2; i++ {
			card, err := g.deck.Draw()
			if err != nil {
				return err
			}

			p.HoleCards.AddCard(card)
		}
	}

	g.currentIndex = (bigBlindIndex + 1) % n
	g.handInProgress = true

	g.log.WithFields(logrus.Fields{
		"players": n,
		"dealer":  g.players[g.dealerIndex].Name,
		"seed":    g.deck.GetSeed(),
	}).Debug("hand started")

	return nil
}

// validateTurn is the common gate for every player action
func (g *Game) validateTurn(seat int) error {
	if seat != g.currentIndex {
		return ErrNotYourTurn
	}

	if g.players[seat].Folded {
		return ErrAlreadyFolded
	}

	return nil
}

// ValidateBet checks whether the seat may bring its round contribution up to
// the target amount
func (g *Game) ValidateBet(seat, amount int) error {
	if err := g.validateTurn(seat); err != nil {
		return err
	}

	p := g.players[seat]
	if amount < g.currentBet {
		return fmt.Errorf("%w (%d)", ErrBetTooLow, g.currentBet)
	}

	if amount > p.Chips+p.RoundBet {
		return ErrInsufficientChips
	}

	return nil
}

// Bet brings the seat's round contribution up to amount. A contribution above
// the current bet raises it and reopens the action for every other seat.
func (g *Game) Bet(seat, amount int) error {
	if err := g.ValidateBet(seat, amount); err != nil {
		return err
	}

	p := g.players[seat]
	delta := amount - p.RoundBet
	p.Chips -= delta
	p.RoundBet = amount
	p.TotalBet += delta
	p.acted = true
	g.pot += delta

	if p.RoundBet > g.currentBet {
		g.currentBet = p.RoundBet
		g.lastAggressor = seat
		for i, other := range g.players {
			if i != seat && !other.Folded {
				other.acted = false
			}
		}
	}

	return nil
}

// Fold marks the seat as folded. If exactly one seat remains the hand is over
// and the survivor's seat index is returned with foldOut set.
func (g *Game) Fold(seat int) (survivor int, foldOut bool, err error) {
	if err := g.validateTurn(seat); err != nil {
		return -1, false, err
	}

	p := g.players[seat]
	p.Folded = true
	p.acted = true

	if active := g.activeIndexes(); len(active) == 1 {
		return active[0], true, nil
	}

	return -1, false, nil
}

// AdvanceTurn moves the turn to the next unfolded seat.
// The caller must detect the single-survivor win before calling.
func (g *Game) AdvanceTurn() {
	n := len(g.players)
	for i := 0; i < n; i++ {
		g.currentIndex = (g.currentIndex + 1) % n
		if !g.players[g.currentIndex].Folded {
			return
		}
	}

	panic("all players folded")
}

// BettingRoundComplete returns true once every unfolded seat has acted and
// matched the current bet. An all-in seat is exempt from both requirements.
func (g *Game) BettingRoundComplete() bool {
	for _, p := range g.players {
		if p.Folded || p.Chips == 0 {
			continue
		}

		if !p.acted || p.RoundBet != g.currentBet {
			return false
		}
	}

	return true
}

// NextStreet burns a card, reveals the next community cards, and resets the
// betting round. Calling it on the river is a programming error; the caller
// hands off to the showdown instead.
func (g *Game) NextStreet() error {
	if g.round == RoundRiver {
		return errors.New("no street after the river")
	}

	g.currentBet = 0
	g.lastAggressor = -1
	for _, p := range g.players {
		p.newStreet()
	}

	// action restarts with the first unfolded seat left of the dealer
	g.currentIndex = g.dealerIndex
	g.AdvanceTurn()

	// burn
	if _, err := g.deck.Draw(); err != nil {
		return err
	}

	reveal := 1
	if g.round == RoundPreFlop {
		reveal = 3
	}

	for i := 0; i < reveal; i++ {
		card, err := g.deck.Draw()
		if err != nil {
			return err
		}

		g.community.AddCard(card)
	}

	g.round++

	g.log.WithFields(logrus.Fields{
		"round":     g.round.String(),
		"community": g.community.String(),
	}).Debug("street dealt")

	return nil
}

// EvaluateSeat returns the seat's current best-hand display. Before the flop
// it simply names the hole cards; afterwards it asks the oracle.
func (g *Game) EvaluateSeat(seat int) *HandState {
	p := g.players[seat]
	if len(p.HoleCards) == 0 {
		return nil
	}

	if len(g.community) == 0 {
		return &HandState{Description: p.holeCardsDescription()}
	}

	cards := make([]*deck.Card, 0, len(p.HoleCards)+len(g.community))
	cards = append(cards, p.HoleCards...)
	cards = append(cards, g.community...)

	ranking, err := g.oracle.Rank(cards)
	if err != nil {
		g.log.WithError(err).WithField("player", p.Name).Error("could not rank hand")
		return nil
	}

	return &HandState{
		Rank:        ranking.Score,
		Description: ranking.Description,
	}
}

// Rebuy restores the starting stake for a busted seat
func (g *Game) Rebuy(seat int) error {
	p := g.players[seat]
	if p.Chips > 0 {
		return ErrRebuyNotAllowed
	}

	p.Chips = StartingChips
	return nil
}

// ResetHand clears per-hand state and returns the table to the idle pre-flop
// position, waiting for seats to ready up.
func (g *Game) ResetHand() {
	for _, p := range g.players {
		p.resetForHand()
	}

	g.community = make(deck.Hand, 0, 5)
	g.pot = 0
	g.currentBet = 0
	g.currentIndex = 0
	g.round = RoundPreFlop
	g.lastAggressor = -1
	g.handInProgress = false
}

func (g *Game) activeIndexes() []int {
	active := make([]int, 0, len(g.players))
	for i, p := range g.players {
		if !p.Folded {
			active = append(active, i)
		}
	}

	return active
}

func (g *Game) activeCount() int {
	return len(g.activeIndexes())
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}
