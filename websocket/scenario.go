package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/messages"
	"golang.org/x/net/websocket"
)

const errTypeScenarioMsgSkip = "scenario_msg_skip"

// ErrScenarioMsgSkip is returned by a scenario message handler to ignore a
// received message and wait for the next one.
var ErrScenarioMsgSkip = errors.New("scenario message skipped").WithType(errTypeScenarioMsgSkip)

// ScenarioHandler handles a message received during a scenario.
type ScenarioHandler func(messages.Msg) error

// Scenario describes a sequence of messages sent and expected on a client
// connection. It is used to test handlers and modules end to end.
type Scenario struct {
	conn    *websocket.Conn
	send    messages.Sender
	receive messages.Receiver
	steps   []func() error
}

// NewScenario creates a scenario that runs on the given client connection.
func NewScenario(conn *websocket.Conn) *Scenario {
	return &Scenario{
		conn:    conn,
		send:    messages.NewSender(conn),
		receive: messages.NewReceiver(conn),
	}
}

// Send adds a step that sends a message with the given payload.
func (s *Scenario) Send(t messages.MsgType, requestID uint32, data any) *Scenario {
	s.steps = append(s.steps, func() error {
		msg, err := messages.MsgFromData(t, requestID, data)
		if err != nil {
			return err
		}

		if _, err = s.send(msg); err != nil {
			return errors.New("sending scenario message failed").
				WithTag("msg_type", t).
				Wrap(err)
		}
		return nil
	})
	return s
}

// Receive adds a step that waits for a message accepted by every handler.
// Messages for which a handler returns ErrScenarioMsgSkip are discarded.
func (s *Scenario) Receive(handlers ...ScenarioHandler) *Scenario {
	s.steps = append(s.steps, func() error {
		for {
			msg, _, err := s.receive()
			if err != nil {
				return errors.New("receiving scenario message failed").Wrap(err)
			}

			err = handleScenarioMsg(msg, handlers)
			if errors.IsType(err, errTypeScenarioMsgSkip) {
				continue
			}
			return err
		}
	})
	return s
}

// Run executes the scenario steps in order. Receiving steps fail when the
// context deadline is exceeded.
func (s *Scenario) Run(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetReadDeadline(deadline)
		defer s.conn.SetReadDeadline(time.Time{})
	}

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func handleScenarioMsg(msg messages.Msg, handlers []ScenarioHandler) error {
	for _, h := range handlers {
		if err := h(msg); err != nil {
			return err
		}
	}
	return nil
}

// FilterByType skips messages that are not of one of the given types.
func FilterByType(types ...messages.MsgType) ScenarioHandler {
	return func(msg messages.Msg) error {
		for _, t := range types {
			if msg.Type == t {
				return nil
			}
		}
		return ErrScenarioMsgSkip
	}
}

// FilterByRequestID skips messages that do not answer the given request.
func FilterByRequestID(requestID uint32) ScenarioHandler {
	return func(msg messages.Msg) error {
		if msg.RequestID != requestID {
			return ErrScenarioMsgSkip
		}
		return nil
	}
}

// DecodeTo returns a handler that decodes the message payload into v.
func DecodeTo(v any) ScenarioHandler {
	return func(msg messages.Msg) error {
		return msg.DataTo(v)
	}
}
