package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rendezvous/errors"
)

func TestDecodeFrame_NewMessage(t *testing.T) {
	req := require.New(t)

	frame, err := DecodeFrame([]byte(`{"usernameSender":"alice","usernameReceiver":"bob","dataEnviament":"2024-05-01T10:00:00","missatge":"hi"}`))

	req.NoError(err)
	msg, ok := frame.(NewMessageFrame)
	req.True(ok)
	req.Equal("alice", msg.Sender)
	req.Equal("bob", msg.Receiver)
	req.Equal("hi", msg.Body)
	req.True(msg.SentAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)))
}

func TestDecodeFrame_Variants(t *testing.T) {
	req := require.New(t)

	frame, err := DecodeFrame([]byte(`{"type":"EDIT","usernameSender":"alice","originalTimestamp":"2024-05-01T10:00:00","newContent":"hi there"}`))
	req.NoError(err)
	edit, ok := frame.(EditFrame)
	req.True(ok)
	req.Equal("hi there", edit.NewContent)

	frame, err = DecodeFrame([]byte(`{"type":"DELETE","usernameSender":"bob","timestamp":"2024-05-01T10:00:00"}`))
	req.NoError(err)
	_, ok = frame.(DeleteFrame)
	req.True(ok)

	frame, err = DecodeFrame([]byte(`{"type":"PING"}`))
	req.NoError(err)
	req.Equal(PingFrame{Type: FramePing}, frame)
}

func TestDecodeFrame_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want error
	}{
		{"malformed json", `{"usernameSender":`, errors.ErrInvalidFrame},
		{"missing body", `{"usernameSender":"alice","usernameReceiver":"bob"}`, errors.ErrInvalidFrame},
		{"edit without timestamp", `{"type":"EDIT","usernameSender":"alice","newContent":"x"}`, errors.ErrInvalidFrame},
		{"edit without content", `{"type":"EDIT","usernameSender":"alice","originalTimestamp":"2024-05-01T10:00:00"}`, errors.ErrInvalidFrame},
		{"delete without sender", `{"type":"DELETE","timestamp":"2024-05-01T10:00:00"}`, errors.ErrInvalidFrame},
		{"bad timestamp", `{"type":"DELETE","usernameSender":"bob","timestamp":"yesterday"}`, errors.ErrInvalidFrame},
		{"unknown type", `{"type":"TYPING"}`, errors.ErrUnknownFrame},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tc.data))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOutboundFrames(t *testing.T) {
	req := require.New(t)

	history, err := json.Marshal(NewHistoryFrame(nil))
	req.NoError(err)
	req.JSONEq(`{"type":"history","messages":[]}`, string(history))

	errFrame, err := json.Marshal(NewErrorFrame("Message not found"))
	req.NoError(err)
	req.JSONEq(`{"type":"ERROR","message":"Message not found"}`, string(errFrame))

	edit, err := json.Marshal(EditFrame{
		Type:              FrameEdit,
		Sender:            "alice",
		OriginalTimestamp: NewTimestamp(time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)),
		NewContent:        "hi there",
		Edited:            true,
	})
	req.NoError(err)
	req.JSONEq(`{"type":"EDIT","usernameSender":"alice","originalTimestamp":"2024-05-01T10:00:00","newContent":"hi there","isEdited":true}`, string(edit))
}
