// Package domain contains core concepts of the real-time delivery core.
// No runtime, network, or storage logic should be added here.
package domain

// Message is a two-party chat message. Only Body and Edited change after it
// has been sent, through the edit operation.
type Message struct {
	Sender   string    `json:"usernameSender" validate:"required"`
	Receiver string    `json:"usernameReceiver" validate:"required"`
	SentAt   Timestamp `json:"dataEnviament"`
	Body     string    `json:"missatge" validate:"required"`
	Edited   bool      `json:"isEdited"`
}

// RoomKey returns the room this message belongs to.
func (m Message) RoomKey() RoomKey {
	return NewRoomKey(m.Sender, m.Receiver)
}
