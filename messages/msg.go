// Package messages defines the JSON protocol spoken over realtime
// connections.
package messages

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	// ErrTypeMsgSkip is the error type returned by modules for messages they
	// do not handle.
	ErrTypeMsgSkip = "msg_skip"

	// ErrTypeBadRequest is the error type of malformed or invalid requests.
	ErrTypeBadRequest = "bad_request"

	// ErrTypeSessionNotJoined is the error type of requests that require a
	// joined session.
	ErrTypeSessionNotJoined = "session_not_joined"
)

// ErrModuleMsgSkip is returned by a module that does not handle a message.
var ErrModuleMsgSkip = errors.New("message skipped").WithType(ErrTypeMsgSkip)

// Msg is the envelope of every message exchanged with a client.
type Msg struct {
	Type      MsgType         `json:"type"`
	RequestID uint32          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MsgFromData returns a message of the given type carrying data encoded as
// JSON. A nil data produces a message without payload.
func MsgFromData(t MsgType, requestID uint32, data any) (Msg, error) {
	msg := Msg{
		Type:      t,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}

	if data == nil {
		return msg, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return Msg{}, errors.New("encoding message data failed").
			WithTag("msg_type", t).
			Wrap(err)
	}
	msg.Data = b
	return msg, nil
}

// TypeString returns the message type as a string.
func (m Msg) TypeString() string {
	return string(m.Type)
}

// DataTo decodes the message payload into v.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return errors.New("message has no data").
			WithType(ErrTypeBadRequest).
			WithTag("msg_type", m.Type)
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeBadRequest).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

// Codec encodes messages as JSON text frames.
var Codec = websocket.Codec{
	Marshal: func(v any) ([]byte, byte, error) {
		b, err := json.Marshal(v)
		return b, websocket.TextFrame, err
	},
	Unmarshal: func(data []byte, payloadType byte, v any) error {
		return json.Unmarshal(data, v)
	},
}

// Sender sends a message and returns the number of bytes written.
type Sender func(Msg) (int, error)

// Receiver receives a message and returns the number of bytes read.
type Receiver func() (Msg, int, error)

// NewSender returns a sender writing to conn.
func NewSender(conn *websocket.Conn) Sender {
	return func(msg Msg) (int, error) {
		b, err := json.Marshal(msg)
		if err != nil {
			return 0, errors.New("encoding message failed").
				WithTag("msg_type", msg.Type).
				Wrap(err)
		}

		if err := websocket.Message.Send(conn, string(b)); err != nil {
			return 0, err
		}
		return len(b), nil
	}
}

// NewReceiver returns a receiver reading from conn.
func NewReceiver(conn *websocket.Conn) Receiver {
	return func() (Msg, int, error) {
		var b []byte
		if err := websocket.Message.Receive(conn, &b); err != nil {
			return Msg{}, 0, err
		}

		var msg Msg
		if err := json.Unmarshal(b, &msg); err != nil {
			return Msg{}, len(b), errors.New("decoding message failed").
				WithType(ErrTypeBadRequest).
				Wrap(err)
		}
		return msg, len(b), nil
	}
}

// ResponseSender sends messages to the client being served.
type ResponseSender interface {
	// Send encodes data into a message of the given type and sends it.
	Send(t MsgType, requestID uint32, data any)

	// SendMsg sends an already encoded message.
	SendMsg(msg Msg)
}

// RespondError sends an error response for the given request.
func RespondError(respond ResponseSender, requestID uint32, code ErrorCode) {
	respond.Send(MsgTypeError, requestID, ErrorResponse{Code: code})
}

// ErrorCodeFromError returns the error code matching the type of err or of
// an error it wraps. It returns false for errors that are not caused by the
// request.
func ErrorCodeFromError(err error) (ErrorCode, bool) {
	for err != nil {
		switch errors.Type(err) {
		case ErrTypeBadRequest:
			return ErrorCodeBadRequest, true

		case ErrTypeSessionNotJoined:
			return ErrorCodeSessionNotJoined, true
		}

		wrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = wrapper.Unwrap()
	}
	return "", false
}
