package room

import (
	"github.com/sirupsen/logrus"
)

// DefaultTableID is the table a client is seated at when it does not name one
const DefaultTableID = "main"

// Lobby is responsible for dispatching players to tables
type Lobby struct {
	rooms      map[string]*Room
	connect    chan *Client
	disconnect chan *Client
	store      ChipStore
	timeouts   Timeouts
}

// NewLobby returns a new dispatch object
func NewLobby(store ChipStore, timeouts Timeouts) *Lobby {
	return &Lobby{
		rooms:      make(map[string]*Room),
		connect:    make(chan *Client, 256),
		disconnect: make(chan *Client, 256),
		store:      store,
		timeouts:   timeouts,
	}
}

// StartShift starts the lobby run loop
func (l *Lobby) StartShift() {
	go l.runLoop()
}

func (l *Lobby) runLoop() {
	for {
		select {
		case client := <-l.connect:
			logrus.WithField("player", client.String()).Debug("client connected")
			room, found := l.rooms[client.tableID]
			if !found {
				room = NewRoom(l, client.tableID, l.store, l.timeouts)
				room.StartShift()
				l.rooms[client.tableID] = room
			}

			room.AddClient(client)
		case client := <-l.disconnect:
			logrus.WithField("player", client.String()).Debug("client disconnected")
			room, found := l.rooms[client.tableID]
			if !found {
				logrus.WithField("table", client.tableID).WithField("type", "exception").Error("table not found")
				continue
			}

			if room.RemoveClient(client) {
				room.EndShift()
				delete(l.rooms, client.tableID)
			}
		}
	}
}

// ClientConnected is called when a client connects to the server
func (l *Lobby) ClientConnected(client *Client) {
	l.connect <- client
}

// ClientDisconnected is called when a client disconnects from the server
func (l *Lobby) ClientDisconnected(client *Client) {
	l.disconnect <- client
}
