package websocket

import (
	"encoding/json"
	"fmt"
)

const (
	messageMove  = "move"
	messageReset = "reset"
)

// Message is what a participant sends over its connection.
type Message struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

type messageHandler func(roomID, participantID string, message *Message)

func parseMessage(data []byte) (*Message, error) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &message, nil
}

func (that *Server) handleMove(roomID, participantID string, message *Message) {
	if message.Index == nil {
		that.logger.Debug("move without index", "roomID", roomID, "participantID", participantID)
		return
	}

	that.sessions.Move(roomID, participantID, *message.Index)
}

func (that *Server) handleReset(roomID, _ string, _ *Message) {
	that.sessions.Reset(roomID)
}
