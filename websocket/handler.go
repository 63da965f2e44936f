package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/spatial/messages"
	"github.com/aukilabs/spatial/models"
	"github.com/aukilabs/spatial/modules"
	"golang.org/x/net/websocket"
)

const (
	sendChanSize    = 512
	receiveChanSize = 64
)

// Handler represents a realtime connection handler.
type Handler interface {
	// Handles a ping request.
	HandlePing(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error

	// Handles a client connection.
	HandleConnect(conn *websocket.Conn)

	// Handles a request to create or join a session.
	HandleSessionJoin(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error

	// Handles a request to get the state of the joined session.
	HandleSessionState(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Handles a request to create an entity.
	HandleEntityAdd(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error

	// Handles a request to delete an entity and its collider.
	HandleEntityDelete(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error

	// Handles an entity pose update.
	HandleEntityUpdatePose(ctx context.Context, msg messages.Msg) error

	// Handles a request to replace or remove the collision shape of an
	// entity.
	HandleEntityUpdateShape(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error

	// Handle a message with a module.
	HandleWithModule(ctx context.Context, module modules.Module, respond messages.ResponseSender, msg messages.Msg) error

	// Sends a sync clock message to the client.
	SendSyncClock(ctx context.Context, respond messages.ResponseSender) error

	// Creates a message receiver used to receive incoming messages.
	Receiver() messages.Receiver

	// Creates a message sender passed in service methods in order to send
	// messages.
	Sender() messages.Sender

	// Closes the service and releases its allocated resources.
	Close()

	// The interval between each sync clock message sent to the connected
	// client.
	SyncClockInterval() time.Duration

	// The time a client is idle before being disconnected.
	IdleTimeout() time.Duration

	// Returns the session store.
	GetSessions() *models.SessionStore

	// Returns the modules.
	GetModules() []modules.Module

	// The currently joined session.
	CurrentSession() *models.Session

	// The current participant.
	CurrentParticipant() *models.Participant

	// Get ClientID
	GetClientID() string
}

// Handle handles the given service.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	handler := handler{
		Conn:    conn,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The connection handler.
	Handler Handler

	sendChan       chan messages.Msg
	receiveChan    chan messages.Msg
	sender         messages.Sender
	receiver       messages.Receiver
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.Handler.HandleConnect(h.Conn)

	h.disconnectChan = make(chan error, 8)
	defer func() {
		for len(h.disconnectChan) != 0 {
			<-h.disconnectChan
		}
	}()

	var wg sync.WaitGroup

	h.sendChan = make(chan messages.Msg, sendChanSize)
	h.sender = h.Handler.Sender()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startSending(ctx)
	}()

	h.receiveChan = make(chan messages.Msg, receiveChanSize)
	h.receiver = h.Handler.Receiver()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving(ctx)
	}()

	idleTimeout := h.Handler.IdleTimeout()
	idleTimer := time.NewTimer(idleTimeout)
	defer idleTimer.Stop()

	syncClockTicker := time.NewTicker(h.Handler.SyncClockInterval())
	defer syncClockTicker.Stop()

	var responder = responseSender{
		clientID: h.Handler.GetClientID(),
		sendMsg:  h.sendMsg,
	}

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			h.disconnect(ctx.Err())

		case <-idleTimer.C:
			h.disconnect(errors.New("idle connection").WithTag("duration", h.Handler.IdleTimeout()))

		case <-syncClockTicker.C:
			if err := h.Handler.SendSyncClock(ctx, responder); err != nil {
				h.disconnect(errors.New("sending sync clock failed").Wrap(err))
			}

		case msg := <-h.receiveChan:
			idleTimer.Stop()
			idleTimer.Reset(idleTimeout)

			if err := h.handleMessage(ctx, msg, responder); err != nil {
				h.disconnect(errors.New("handling message failed").Wrap(err))
			}

		case err := <-h.disconnectChan:
			h.handleDisconnect(err)
			if ctx.Err() == nil {
				// cancel context so go routines can cleanly exit
				cancel()
			}
		}
	}

	wg.Wait()
}

func (h *handler) sendMsg(msg messages.Msg) {
	h.sendChan <- msg
}

func (h *handler) startSending(ctx context.Context) {
	defer func() {
		for len(h.sendChan) != 0 {
			<-h.sendChan
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-h.sendChan:
			if _, err := h.sender(msg); err != nil {
				h.disconnect(errors.New("sending message failed").Wrap(err))
				return
			}
		}
	}
}

func (h *handler) startReceiving(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		default:
			msg, _, err := h.receiver()
			if errors.IsType(err, messages.ErrTypeBadRequest) {
				continue
			}
			if err != nil {
				h.disconnect(errors.New("receiving message failed").Wrap(err))
				return
			}

			select {
			case <-ctx.Done():
				return
			case h.receiveChan <- msg:
			}
		}
	}
}

func (h *handler) handleMessage(ctx context.Context, msg messages.Msg, responder messages.ResponseSender) error {
	var err error

	switch msg.Type {
	case messages.MsgTypePingRequest:
		err = h.Handler.HandlePing(ctx, responder, msg)

	case messages.MsgTypeSessionJoinRequest:
		err = h.Handler.HandleSessionJoin(ctx, responder, msg)

	case messages.MsgTypeSessionStateRequest:
		err = h.Handler.HandleSessionState(ctx, responder, msg)

	case messages.MsgTypeEntityAddRequest:
		err = h.Handler.HandleEntityAdd(ctx, responder, msg)

	case messages.MsgTypeEntityDeleteRequest:
		err = h.Handler.HandleEntityDelete(ctx, responder, msg)

	case messages.MsgTypeEntityUpdatePose:
		err = h.Handler.HandleEntityUpdatePose(ctx, msg)

	case messages.MsgTypeEntityUpdateShapeRequest:
		err = h.Handler.HandleEntityUpdateShape(ctx, responder, msg)
	}

	if err != nil {
		return respondRequestError(responder, msg, err)
	}

	if h.Handler.CurrentParticipant() == nil || h.Handler.CurrentSession() == nil {
		if isModuleMsg(msg.Type) {
			messages.RespondError(responder, msg.RequestID, messages.ErrorCodeSessionNotJoined)
		}
		return nil
	}

	for _, m := range h.Handler.GetModules() {
		if err = h.Handler.HandleWithModule(ctx, m, responder, msg); err != nil {
			return respondRequestError(responder, msg, err)
		}
	}
	return nil
}

func (h *handler) disconnect(err error) {
	h.disconnectChan <- err
}

func (h *handler) handleDisconnect(err error) {
	h.Conn.Close()
	h.Handler.HandleDisconnect(err)
}

// respondRequestError reports errors caused by the request to the client.
// Other errors are returned.
func respondRequestError(respond messages.ResponseSender, msg messages.Msg, err error) error {
	code, ok := messages.ErrorCodeFromError(err)
	if !ok {
		return err
	}

	logs.WithTag("msg_type", msg.Type).
		WithTag("request_id", msg.RequestID).
		Debug(err)
	messages.RespondError(respond, msg.RequestID, code)
	return nil
}

// isModuleMsg reports whether t is a request handled by a module.
func isModuleMsg(t messages.MsgType) bool {
	switch t {
	case messages.MsgTypeRaycastRequest,
		messages.MsgTypeRaycastAllRequest,
		messages.MsgTypeOverlapRequest,
		messages.MsgTypePointCloudAddRequest,
		messages.MsgTypePointCloudDeleteRequest,
		messages.MsgTypePointCloudSortRequest:
		return true

	default:
		return false
	}
}

type responseSender struct {
	clientID string
	sendMsg  func(messages.Msg)
}

func (r responseSender) Send(t messages.MsgType, requestID uint32, data any) {
	msg, err := messages.MsgFromData(t, requestID, data)
	if err != nil {
		logs.WithTag("msg_type", t).
			WithTag("client_id", r.clientID).
			Debug(err)
		return
	}
	r.sendMsg(msg)
}

func (r responseSender) SendMsg(msg messages.Msg) {
	r.sendMsg(msg)
}
