package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"holdem-server/pkg/holdem"

	"github.com/sirupsen/logrus"
	"github.com/weedbox/syncsaga"
	"github.com/weedbox/timebank"
)

type state int

const (
	stateClientEvent state = iota
	stateGameEvent
)

// ErrUnknownPlayer is returned by a ChipStore when it has no record for the
// username. The table seats the player with the starting stake instead.
var ErrUnknownPlayer = errors.New("unknown player")

// ChipStore persists chip counts between sessions
type ChipStore interface {
	Chips(ctx context.Context, username string) (int, error)
	SetChips(ctx context.Context, username string, chips int) error
}

// Timeouts holds the table's timer durations. The defaults match live play;
// tests shrink them.
type Timeouts struct {
	// Showdown is how long seats get to choose show or muck
	Showdown time.Duration

	// Review is how long the settled hand stays on screen before the table resets
	Review time.Duration

	// Disconnect is how long a player may stay disconnected before losing the seat
	Disconnect time.Duration

	// ReadySeconds is how long the ready-up phase waits before readying
	// everyone automatically
	ReadySeconds int
}

// DefaultTimeouts returns the timer durations used in live play
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Showdown:     time.Second * 30,
		Review:       time.Second * 15,
		Disconnect:   time.Second * 60,
		ReadySeconds: 30,
	}
}

// Room runs a single hold'em table. All game mutation happens on the room's
// run loop, one event at a time.
type Room struct {
	lobby    *Lobby
	id       string
	log      logrus.FieldLogger
	store    ChipStore
	timeouts Timeouts

	clients map[*Client]bool
	lock    sync.RWMutex

	game     *holdem.Game
	showdown *holdem.Showdown
	inReview bool

	readyGroup      *syncsaga.ReadyGroup
	showdownBank    *timebank.TimeBank
	reviewBank      *timebank.TimeBank
	disconnectBanks map[string]*timebank.TimeBank

	logMessages []*LogMessage

	stateChanged  chan state
	execInRunLoop chan func()
	close         chan bool
}

// NewRoom creates a new room for the given table
// This is called from a blocking state, so it needs to return quickly
func NewRoom(lobby *Lobby, id string, store ChipStore, timeouts Timeouts) *Room {
	log := logrus.WithField("table", id)

	r := &Room{
		lobby:           lobby,
		id:              id,
		log:             log,
		store:           store,
		timeouts:        timeouts,
		clients:         make(map[*Client]bool),
		game:            holdem.NewGame(log, holdem.NewOracle()),
		showdownBank:    timebank.NewTimeBank(),
		reviewBank:      timebank.NewTimeBank(),
		disconnectBanks: make(map[string]*timebank.TimeBank),
		stateChanged:    make(chan state, 256),
		execInRunLoop:   make(chan func(), 256),
		close:           make(chan bool),
	}

	rg := syncsaga.NewReadyGroup(
		syncsaga.WithTimeout(timeouts.ReadySeconds, func(rg *syncsaga.ReadyGroup) {
			for seat, isReady := range rg.GetParticipantStates() {
				if !isReady {
					rg.Ready(seat)
				}
			}
		}),
		syncsaga.WithCompletedCallback(func(rg *syncsaga.ReadyGroup) {
			r.execInRunLoop <- func() {
				r.startHand("", nil)
			}
		}),
	)
	r.readyGroup = rg

	return r
}

// ID returns the table identifier
func (r *Room) ID() string {
	return r.id
}

// Clients will return a slice of connected (at the time) clients
func (r *Room) Clients() []*Client {
	r.lock.RLock()
	defer r.lock.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}

	return clients
}

// StartShift starts the run loop
func (r *Room) StartShift() {
	go r.runLoop()
}

func (r *Room) runLoop() {
	r.log.Debug("creating room run loop")
	for {
		select {
		case <-r.stateChanged:
			r.sendGameData()
		case fn := <-r.execInRunLoop:
			fn()
		case <-r.close:
			r.log.Debug("terminating room run loop")
			r.showdownBank.Cancel()
			r.reviewBank.Cancel()
			for _, bank := range r.disconnectBanks {
				bank.Cancel()
			}
			return
		}
	}
}

// AddClient adds a client
// This method must return quickly
func (r *Room) AddClient(client *Client) {
	r.lock.Lock()
	client.room = r
	r.clients[client] = true
	r.lock.Unlock()

	r.execInRunLoop <- func() {
		// a reconnect within the grace period keeps the seat
		if bank, ok := r.disconnectBanks[client.username]; ok {
			bank.Cancel()
			delete(r.disconnectBanks, client.username)
			r.addLogMessage(client.username, "reconnected")
		}

		client.send(r.renderState(client.username))
	}

	r.stateChanged <- stateClientEvent
}

// RemoveClient removes a client
// This method must return quickly
func (r *Room) RemoveClient(client *Client) (lastClient bool) {
	r.lock.Lock()
	delete(r.clients, client)
	nClients := len(r.clients)

	stillConnected := false
	for other := range r.clients {
		if other.username == client.username {
			stillConnected = true
			break
		}
	}
	r.lock.Unlock()

	if nClients == 0 {
		return true
	}

	if !stillConnected {
		r.execInRunLoop <- func() {
			r.playerDisconnected(client.username)
		}
	}

	r.stateChanged <- stateClientEvent
	return false
}

// EndShift is called when the room is no longer needed
func (r *Room) EndShift() {
	close(r.close)
}

// ReceivedMessage is called when a client sends a message to the server
func (r *Room) ReceivedMessage(c *Client, msg *PayloadIn) {
	switch msg.Action {
	case "joinGame":
		r.execInRunLoop <- func() {
			r.join(c, msg)
		}
	case "startRound":
		r.execInRunLoop <- func() {
			if r.game.HandInProgress() || r.showdown != nil || r.inReview {
				c.send(newErrorResponse(msg.Context, errors.New("a hand is already in progress")))
				return
			}

			if !r.game.AllReady() {
				c.send(newErrorResponse(msg.Context, errors.New("all players must be ready")))
				return
			}

			r.startHand(msg.Context, c)
		}
	case "playerAction":
		r.execInRunLoop <- func() {
			r.playerAction(c, msg)
		}
	case "playerReady":
		r.execInRunLoop <- func() {
			r.playerReady(c, msg)
		}
	case "showHand":
		r.execInRunLoop <- func() {
			r.decideShowdown(c, msg, holdem.ChoiceShow)
		}
	case "muckHand":
		r.execInRunLoop <- func() {
			r.decideShowdown(c, msg, holdem.ChoiceMuck)
		}
	case "rebuy":
		r.execInRunLoop <- func() {
			r.rebuy(c, msg)
		}
	default:
		r.log.WithField("msg", msg).Warn("unknown message")
	}
}

// NOTE: everything below must only be called from the run loop

func (r *Room) join(c *Client, msg *PayloadIn) {
	if _, p := r.game.PlayerByName(c.username); p != nil {
		// already seated, likely a reconnect
		c.send(OK(msg.Context))
		c.send(r.renderState(c.username))
		return
	}

	chips := holdem.StartingChips
	if r.store != nil {
		stored, err := r.store.Chips(context.Background(), c.username)
		switch {
		case err == nil:
			chips = stored
		case errors.Is(err, ErrUnknownPlayer):
			// first visit, seat them with the starting stake
		default:
			c.send(newErrorResponse(msg.Context, err))
			return
		}
	}

	seat, err := r.game.AddPlayer(c.username, chips)
	if err != nil {
		c.send(newErrorResponse(msg.Context, err))
		return
	}

	c.send(OK(msg.Context))

	if r.game.HandInProgress() || r.showdown != nil || r.inReview {
		// sit out until the next hand rather than entering one mid-street
		r.game.Players()[seat].Folded = true
		r.addLogMessage(c.username, "joined the table, sitting out this hand")
	} else {
		r.addLogMessage(c.username, "joined the table")

		// a join between hands adds the seat to the ready gate
		r.resetReadyGroup()
	}

	r.stateChanged <- stateGameEvent
}

func (r *Room) startHand(ctx string, c *Client) {
	// a ready-group completion may race a manual startRound
	if r.game.HandInProgress() {
		return
	}

	r.readyGroup.Stop()

	if err := r.game.StartHand(); err != nil {
		if c != nil {
			c.send(newErrorResponse(ctx, err))
		}
		return
	}

	r.showdown = nil
	r.inReview = false
	r.addLogMessage("", "a new hand has been dealt")

	if c != nil {
		c.send(OK(ctx))
	}

	r.stateChanged <- stateGameEvent
}

func (r *Room) playerAction(c *Client, msg *PayloadIn) {
	if !r.game.HandInProgress() || r.showdown != nil {
		c.send(newErrorResponse(msg.Context, errors.New("no betting round in progress")))
		return
	}

	seat, p := r.game.PlayerByName(c.username)
	if p == nil {
		c.send(newErrorResponse(msg.Context, errors.New("you are not seated at this table")))
		return
	}

	actionType, _ := msg.AdditionalData.GetString("type")

	var foldOut bool
	var survivor int
	var err error

	switch actionType {
	case "fold":
		survivor, foldOut, err = r.game.Fold(seat)
	case "check", "call":
		err = r.game.Bet(seat, r.game.CurrentBet())
	case "bet", "raise":
		amount, ok := msg.AdditionalData.GetInt("amount")
		if !ok {
			err = errors.New("amount is required")
			break
		}

		err = r.game.Bet(seat, amount)
	default:
		err = fmt.Errorf("unknown action: %s", actionType)
	}

	if err != nil {
		c.send(newErrorResponse(msg.Context, err))
		return
	}

	r.logAction(c.username, actionType, p)
	c.send(OK(msg.Context))

	if foldOut {
		r.enterFoldOut(survivor)
		return
	}

	r.advanceAfterAction()
	r.stateChanged <- stateGameEvent
}

func (r *Room) logAction(username, actionType string, p *holdem.Player) {
	switch actionType {
	case "fold":
		r.addLogMessage(username, "folds")
	case "check", "call":
		if p.RoundBet == 0 {
			r.addLogMessage(username, "checks")
		} else {
			r.addLogMessage(username, fmt.Sprintf("calls %d", p.RoundBet))
		}
	default:
		r.addLogMessage(username, fmt.Sprintf("bets %d", p.RoundBet))
	}
}

// advanceAfterAction moves the hand forward after a bet or fold. A street
// where every remaining seat is all-in runs out with no further action.
func (r *Room) advanceAfterAction() {
	g := r.game

	if !g.BettingRoundComplete() {
		g.AdvanceTurn()
		return
	}

	for g.BettingRoundComplete() {
		if g.Round() == holdem.RoundRiver {
			r.enterShowdown()
			return
		}

		if err := g.NextStreet(); err != nil {
			r.log.WithError(err).Error("could not deal next street")
			return
		}
	}
}

func (r *Room) enterShowdown() {
	s, err := r.game.EnterShowdown()
	if err != nil {
		r.log.WithError(err).Error("could not enter showdown")
		return
	}

	r.showdown = s
	r.addLogMessage("", "showdown: show or muck your hand")
	r.broadcast(r.showChoicesUpdate())
	r.startShowdownTimer()
	r.stateChanged <- stateGameEvent
}

func (r *Room) enterFoldOut(survivor int) {
	winner := r.game.Players()[survivor].Name
	s := r.game.FoldOutShowdown(survivor)
	r.showdown = s

	r.persistChips()
	r.addLogMessage(winner, "takes the pot uncontested")
	r.broadcast(r.showdownResult())

	// the survivor may still choose to reveal their cards
	r.startShowdownTimer()
	r.stateChanged <- stateGameEvent
}

func (r *Room) startShowdownTimer() {
	err := r.showdownBank.NewTask(r.timeouts.Showdown, func(isCancelled bool) {
		if isCancelled {
			return
		}

		r.execInRunLoop <- func() {
			// the context survives into the review phase, so a timer that
			// fired behind a queued final decision must not settle again
			if r.showdown == nil || r.inReview {
				return
			}

			r.showdown.DefaultUndecidedToMuck()
			r.finishShowdown()
		}
	})

	if err != nil {
		r.log.WithError(err).Error("could not start showdown timer")
	}
}

func (r *Room) decideShowdown(c *Client, msg *PayloadIn, choice holdem.Choice) {
	if r.showdown == nil {
		c.send(newErrorResponse(msg.Context, errors.New("no showdown in progress")))
		return
	}

	if err := r.showdown.Decide(c.username, choice); err != nil {
		c.send(newErrorResponse(msg.Context, err))
		return
	}

	if choice == holdem.ChoiceShow {
		r.addLogMessage(c.username, "shows their hand")
	} else {
		r.addLogMessage(c.username, "mucks their hand")
	}

	c.send(OK(msg.Context))
	r.broadcast(r.showChoicesUpdate())

	if r.showdown.AllDecided() && !r.inReview {
		r.showdownBank.Cancel()
		r.finishShowdown()
	}
}

// finishShowdown settles the pot if it has not been paid out yet, then moves
// the table into the review phase.
func (r *Room) finishShowdown() {
	if !r.showdown.Settled() {
		r.game.SettleShowdown(r.showdown)
		r.persistChips()

		for _, w := range r.showdown.Winners {
			if w.Hand != "" {
				r.addLogMessage(w.Name, fmt.Sprintf("wins with %s", w.Hand))
			} else {
				r.addLogMessage(w.Name, "splits the pot")
			}
		}
	}

	r.broadcast(r.showdownResult())
	r.startReview()
}

func (r *Room) startReview() {
	r.inReview = true
	r.broadcast(&Response{Key: "showdownReviewPhase"})
	r.stateChanged <- stateGameEvent

	err := r.reviewBank.NewTask(r.timeouts.Review, func(isCancelled bool) {
		if isCancelled {
			return
		}

		r.execInRunLoop <- func() {
			r.finishHand()
		}
	})

	if err != nil {
		r.log.WithError(err).Error("could not start review timer")
	}
}

func (r *Room) finishHand() {
	r.game.ResetHand()
	r.showdown = nil
	r.inReview = false
	r.resetReadyGroup()
	r.stateChanged <- stateGameEvent
}

func (r *Room) resetReadyGroup() {
	r.readyGroup.Stop()
	r.readyGroup.ResetParticipants()

	for i, p := range r.game.Players() {
		p.Ready = false
		r.readyGroup.Add(int64(i), false)
	}

	// the auto-ready countdown only runs between hands. Before the first
	// deal the table waits for an explicit startRound.
	if len(r.game.Players()) >= 2 && r.game.Dealer() != nil {
		r.readyGroup.Start()
	}
}

func (r *Room) playerReady(c *Client, msg *PayloadIn) {
	if r.game.HandInProgress() {
		c.send(newErrorResponse(msg.Context, errors.New("a hand is in progress")))
		return
	}

	seat, p := r.game.PlayerByName(c.username)
	if p == nil {
		c.send(newErrorResponse(msg.Context, errors.New("you are not seated at this table")))
		return
	}

	p.Ready = true

	// the countdown group only runs between hands. Before the first deal
	// the ready flags alone gate startRound.
	if r.game.Dealer() != nil {
		r.readyGroup.Ready(int64(seat))
	}

	c.send(OK(msg.Context))
	r.stateChanged <- stateClientEvent
}

func (r *Room) rebuy(c *Client, msg *PayloadIn) {
	if r.game.HandInProgress() {
		c.send(newErrorResponse(msg.Context, errors.New("a hand is in progress")))
		return
	}

	seat, p := r.game.PlayerByName(c.username)
	if p == nil {
		c.send(newErrorResponse(msg.Context, errors.New("you are not seated at this table")))
		return
	}

	if err := r.game.Rebuy(seat); err != nil {
		c.send(newErrorResponse(msg.Context, err))
		return
	}

	if r.store != nil {
		if err := r.store.SetChips(context.Background(), c.username, p.Chips); err != nil {
			r.log.WithError(err).WithField("player", c.username).Error("could not persist chips")
		}
	}

	r.addLogMessage(c.username, "rebuys")
	c.send(OK(msg.Context))
	r.stateChanged <- stateGameEvent
}

func (r *Room) playerDisconnected(username string) {
	if _, p := r.game.PlayerByName(username); p == nil {
		return
	}

	r.addLogMessage(username, "disconnected")
	r.broadcast(&Response{
		Key:  "playerDisconnectNotice",
		Data: map[string]interface{}{"username": username},
	})

	bank, ok := r.disconnectBanks[username]
	if !ok {
		bank = timebank.NewTimeBank()
		r.disconnectBanks[username] = bank
	}

	err := bank.NewTask(r.timeouts.Disconnect, func(isCancelled bool) {
		if isCancelled {
			return
		}

		r.execInRunLoop <- func() {
			r.removeDisconnected(username)
		}
	})

	if err != nil {
		r.log.WithError(err).Error("could not start disconnect timer")
	}
}

func (r *Room) removeDisconnected(username string) {
	delete(r.disconnectBanks, username)

	if !r.game.RemovePlayer(username) {
		return
	}

	r.addLogMessage(username, "was removed from the table")
	r.broadcast(&Response{
		Key:  "playerRemoveNotice",
		Data: map[string]interface{}{"username": username},
	})

	if r.game.HandInProgress() && r.showdown == nil {
		// the removal folded the seat, which may end or unblock the hand
		survivors := make([]int, 0, len(r.game.Players()))
		for i, p := range r.game.Players() {
			if !p.Folded {
				survivors = append(survivors, i)
			}
		}

		switch {
		case len(survivors) == 1:
			r.enterFoldOut(survivors[0])
			return
		case r.game.BettingRoundComplete():
			r.advanceAfterAction()
		}
	} else if !r.game.HandInProgress() && !r.inReview {
		r.resetReadyGroup()
	}

	r.stateChanged <- stateGameEvent
}

func (r *Room) persistChips() {
	if r.store == nil {
		return
	}

	for _, p := range r.game.Players() {
		if err := r.store.SetChips(context.Background(), p.Name, p.Chips); err != nil {
			r.log.WithError(err).WithField("player", p.Name).Error("could not persist chips")
		}
	}
}

func (r *Room) broadcast(msg interface{}) {
	for _, client := range r.Clients() {
		client.send(msg)
	}
}

func (r *Room) sendGameData() {
	for _, client := range r.Clients() {
		client.send(r.renderState(client.username))
	}
}
