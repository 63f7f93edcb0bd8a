package room

import (
	"time"

	"github.com/google/uuid"
)

const logMessageLimit = 25

// LogMessage is a line in the table's action log
type LogMessage struct {
	UUID     string    `json:"uuid"`
	Username string    `json:"username,omitempty"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// addLogMessage records an action log line, keeping only the most recent ones
// Note: this must only be called from within the run loop
func (r *Room) addLogMessage(username, message string) {
	m := append(r.logMessages, &LogMessage{
		UUID:     uuid.New().String(),
		Username: username,
		Message:  message,
		Time:     time.Now(),
	})

	if count := len(m); count > logMessageLimit {
		m = m[count-logMessageLimit:]
	}

	r.logMessages = m
}
