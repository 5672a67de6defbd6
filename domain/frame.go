package domain

import (
	"encoding/json"
	"fmt"

	"rendezvous/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type FrameType string

const (
	FrameHistory FrameType = "history"
	FrameEdit    FrameType = "EDIT"
	FrameDelete  FrameType = "DELETE"
	FramePing    FrameType = "PING"
	FramePong    FrameType = "PONG"
	FrameError   FrameType = "ERROR"
)

// Frame is an inbound chat frame. The set of variants is closed:
// NewMessageFrame, EditFrame, DeleteFrame and PingFrame.
type Frame interface {
	frame()
}

// NewMessageFrame carries a message without a type tag.
type NewMessageFrame struct {
	Message
}

type EditFrame struct {
	Type              FrameType `json:"type"`
	Sender            string    `json:"usernameSender" validate:"required"`
	OriginalTimestamp Timestamp `json:"originalTimestamp" validate:"required"`
	NewContent        string    `json:"newContent" validate:"required"`
	Edited            bool      `json:"isEdited,omitempty"`
}

type DeleteFrame struct {
	Type      FrameType `json:"type"`
	Sender    string    `json:"usernameSender" validate:"required"`
	Timestamp Timestamp `json:"timestamp" validate:"required"`
}

type PingFrame struct {
	Type FrameType `json:"type"`
}

func (NewMessageFrame) frame() {}
func (EditFrame) frame()       {}
func (DeleteFrame) frame()     {}
func (PingFrame) frame()       {}

// HistoryFrame is sent once to a session joining a room.
type HistoryFrame struct {
	Type     FrameType `json:"type"`
	Messages []Message `json:"messages"`
}

type PongFrame struct {
	Type FrameType `json:"type"`
}

type ErrorFrame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}

func NewHistoryFrame(messages []Message) HistoryFrame {
	if messages == nil {
		messages = []Message{}
	}
	return HistoryFrame{Type: FrameHistory, Messages: messages}
}

func NewErrorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: FrameError, Message: message}
}

// DecodeFrame discriminates a raw frame on its "type" field. A frame without
// a type is a new message. Required fields are validated for every variant.
func DecodeFrame(data []byte) (Frame, error) {
	var envelope struct {
		Type FrameType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}

	var frame Frame
	switch envelope.Type {
	case "":
		var f NewMessageFrame
		if err := decodeStrict(data, &f.Message); err != nil {
			return nil, err
		}
		frame = f
	case FrameEdit:
		var f EditFrame
		if err := decodeStrict(data, &f); err != nil {
			return nil, err
		}
		frame = f
	case FrameDelete:
		var f DeleteFrame
		if err := decodeStrict(data, &f); err != nil {
			return nil, err
		}
		frame = f
	case FramePing:
		frame = PingFrame{Type: FramePing}
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownFrame, envelope.Type)
	}
	return frame, nil
}

func decodeStrict(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidFrame, err)
	}
	return nil
}
