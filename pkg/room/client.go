package room

import (
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is a player connected to a table via websockets
type Client struct {
	// Conn is the underlying websocket connection
	Conn *websocket.Conn

	// Send is a channel for sending messages to the client
	Send chan interface{}

	// Close is a channel for closing the client
	Close chan string

	// CloseError contains the reason why the connection was closed
	CloseError error

	room *Room

	username string
	tableID  string
}

// NewClient returns a new client object
func NewClient(conn *websocket.Conn, username, tableID string) *Client {
	return &Client{
		Send:     make(chan interface{}, 256),
		Close:    make(chan string),
		Conn:     conn,
		username: username,
		tableID:  tableID,
	}
}

// Username returns the name the client authenticated with
func (c *Client) Username() string {
	return c.username
}

// TableID returns the table the client asked to be seated at
func (c *Client) TableID() string {
	return c.tableID
}

// String returns a traceable identifier for the player and table
func (c *Client) String() string {
	return fmt.Sprintf("%s:%s", c.username, c.tableID)
}

// ReceivedMessage is called when the server receives a message from a connected client
func (c *Client) ReceivedMessage(msg *PayloadIn) {
	if c.room == nil {
		logrus.WithField("msg", msg).Warn("received message, but room not found")
		return
	}

	c.room.ReceivedMessage(c, msg)
}

// send queues a message without blocking the run loop. A client that cannot
// keep up loses messages rather than stalling the table.
func (c *Client) send(msg interface{}) {
	select {
	case c.Send <- msg:
	default:
		logrus.WithField("client", c.String()).Warn("send buffer full, dropping message")
	}
}
