package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/spatial/collision"
	"github.com/aukilabs/spatial/featureflag"
	"github.com/aukilabs/spatial/messages"
	"github.com/aukilabs/spatial/models"
	"github.com/aukilabs/spatial/modules"
	"golang.org/x/net/websocket"
)

// RealtimeHandler represents a service that manages multiple client connections
// and relays their actions in realtime.
type RealtimeHandler struct {
	// The interval between each sync clock message sent to the connected
	// client.
	ClientSyncClockInterval time.Duration

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The store that contains all the server sessions.
	Sessions *models.SessionStore

	// The modules that expand the server features.
	Modules []modules.Module

	FeatureFlags featureflag.FeatureFlag

	conn               *websocket.Conn
	currentSession     *models.Session
	currentParticipant *models.Participant

	clientID string
	appKey   string
}

func (h *RealtimeHandler) HandleConnect(conn *websocket.Conn) {
	req := conn.Request()
	h.clientID = req.Header.Get(httpcmn.HeaderPosemeshClientID)
	h.appKey = httpcmn.GetAppKeyFromHagallUserToken(httpcmn.GetUserTokenFromHTTPRequest(req))

	h.conn = conn
}

func (h *RealtimeHandler) HandlePing(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	respond.Send(messages.MsgTypePingResponse, msg.RequestID, messages.PingResponse{})
	return nil
}

func (h *RealtimeHandler) HandleSessionJoin(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.SessionJoinRequest
	if len(msg.Data) != 0 {
		if err := msg.DataTo(&req); err != nil {
			return err
		}
	}

	if h.currentSession != nil && h.Sessions.GlobalSessionID(h.currentSession.ID) == req.SessionID {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeSessionAlreadyJoined)
		return nil
	}

	if h.currentParticipant != nil {
		h.leaveSession()
	}

	session, ok := h.Sessions.GetByGlobalID(req.SessionID)
	if !ok && req.SessionID != "" {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeSessionNotFound)
		return nil
	}

	if !ok {
		session = models.NewSession(h.Sessions.NewID())
		session.AppKey = h.appKey
		if err := h.Sessions.Add(ctx, session); err != nil {
			messages.RespondError(respond, msg.RequestID, messages.ErrorCodeInternal)
			return nil
		}
	}

	participant := &models.Participant{
		ID:        session.NewParticipantID(),
		Responder: respond,
	}
	session.AddParticipant(participant)

	respond.Send(messages.MsgTypeSessionJoinResponse, msg.RequestID, messages.SessionJoinResponse{
		SessionID:     h.Sessions.GlobalSessionID(session.ID),
		SessionUUID:   session.SessionUUID,
		ParticipantID: participant.ID,
		Participants:  models.ParticipantIDs(session.GetParticipants()),
		Entities:      session.EntityStates(),
	})

	h.currentSession = session
	h.currentParticipant = participant

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableSessionState, func() {
		respond.Send(messages.MsgTypeSessionStateResponse, 0, h.sessionState(session))
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantJoinBroadcast, func() {
		session.Broadcast(participant, messages.MsgTypeParticipantJoinBroadcast, messages.ParticipantBroadcast{
			ParticipantID: participant.ID,
		})
	})

	for _, m := range h.Modules {
		m.Init(session, participant)
	}

	return nil
}

func (h *RealtimeHandler) HandleSessionState(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	session, _, err := h.joined(msg)
	if err != nil {
		return err
	}

	respond.Send(messages.MsgTypeSessionStateResponse, msg.RequestID, h.sessionState(session))
	return nil
}

func (h *RealtimeHandler) sessionState(session *models.Session) messages.SessionStateResponse {
	return messages.SessionStateResponse{
		Participants: models.ParticipantIDs(session.GetParticipants()),
		Entities:     session.EntityStates(),
		PointClouds:  session.PointCloudStates(),
	}
}

func (h *RealtimeHandler) HandleDisconnect(_ error) {
	if h.currentParticipant != nil {
		h.leaveSession()
	}
}

func (h *RealtimeHandler) HandleEntityAdd(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.EntityAddRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	var shape collision.Shape
	if req.Shape != nil {
		if shape, err = req.Shape.Shape(); err != nil {
			return err
		}
	}

	entity := &models.Entity{
		ID:            session.NewEntityID(),
		ParticipantID: participant.ID,
		Persist:       req.Persist,
	}
	entity.SetPose(models.PoseFromMessage(req.Pose))

	if err := session.AddEntity(entity, shape); err != nil {
		return errors.New("adding entity failed").
			WithType(messages.ErrTypeBadRequest).
			WithTag("entity_id", entity.ID).
			Wrap(err)
	}
	participant.AddEntity(entity)

	respond.Send(messages.MsgTypeEntityAddResponse, msg.RequestID, messages.EntityAddResponse{
		EntityID: entity.ID,
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityAddBroadcast, func() {
		session.Broadcast(participant, messages.MsgTypeEntityAddBroadcast, session.EntityState(entity))
	})

	return nil
}

func (h *RealtimeHandler) HandleEntityDelete(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.EntityDeleteRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	entity, ok := h.ownedEntity(respond, msg, req.EntityID)
	if !ok {
		return nil
	}

	session.RemoveEntity(entity)
	participant.RemoveEntity(entity)

	respond.Send(messages.MsgTypeEntityDeleteResponse, msg.RequestID, nil)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityDeleteBroadcast, func() {
		session.Broadcast(participant, messages.MsgTypeEntityDeleteBroadcast, messages.EntityDeleteBroadcast{
			EntityID: entity.ID,
		})
	})

	return nil
}

func (h *RealtimeHandler) HandleEntityUpdatePose(ctx context.Context, msg messages.Msg) error {
	var update messages.EntityUpdatePose
	if err := msg.DataTo(&update); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	entity, ok := session.EntityByID(update.EntityID)
	if !ok {
		return nil
	}

	if entity.ParticipantID != participant.ID {
		return nil
	}

	session.SetEntityPose(entity, models.PoseFromMessage(update.Pose))

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityUpdatePoseBroadcast, func() {
		session.Broadcast(participant, messages.MsgTypeEntityUpdatePoseBroadcast, messages.EntityUpdatePose{
			EntityID: entity.ID,
			Pose:     entity.Pose().ToMessage(),
		})
	})

	return nil
}

func (h *RealtimeHandler) HandleEntityUpdateShape(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.EntityUpdateShapeRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	var shape collision.Shape
	if req.Shape != nil {
		if shape, err = req.Shape.Shape(); err != nil {
			return err
		}
	}

	entity, ok := h.ownedEntity(respond, msg, req.EntityID)
	if !ok {
		return nil
	}

	if err := session.SetEntityShape(entity, shape); err != nil {
		return errors.New("setting entity shape failed").
			WithType(messages.ErrTypeBadRequest).
			WithTag("entity_id", entity.ID).
			Wrap(err)
	}

	respond.Send(messages.MsgTypeEntityUpdateShapeResponse, msg.RequestID, nil)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityUpdateShapeBroadcast, func() {
		session.Broadcast(participant, messages.MsgTypeEntityUpdateShapeBroadcast, messages.EntityUpdateShapeBroadcast{
			EntityID: entity.ID,
			Shape:    messages.NewShapeDef(shape),
		})
	})

	return nil
}

// ownedEntity returns the entity with the given id when it belongs to the
// current participant. Otherwise an error response is sent.
func (h *RealtimeHandler) ownedEntity(respond messages.ResponseSender, msg messages.Msg, id uint32) (*models.Entity, bool) {
	entity, ok := h.currentSession.EntityByID(id)
	if !ok {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeEntityNotFound)
		return nil, false
	}

	if entity.ParticipantID != h.currentParticipant.ID {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeEntityNotOwned)
		return nil, false
	}
	return entity, true
}

func (h *RealtimeHandler) joined(msg messages.Msg) (*models.Session, *models.Participant, error) {
	if h.currentParticipant == nil || h.currentSession == nil {
		return nil, nil, errors.New("session not joined").
			WithType(messages.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}
	return h.currentSession, h.currentParticipant, nil
}

func (h *RealtimeHandler) HandleWithModule(ctx context.Context, m modules.Module, respond messages.ResponseSender, msg messages.Msg) error {
	if h.CurrentParticipant() == nil || h.CurrentSession() == nil {
		return nil
	}

	err := m.HandleMsg(ctx, respond, msg)
	if errors.IsType(err, messages.ErrTypeMsgSkip) {
		return nil
	}
	if err != nil {
		return errors.New("handling message with module failed").
			WithTag("module", m.Name()).
			Wrap(err)
	}
	return nil
}

func (h *RealtimeHandler) SendSyncClock(ctx context.Context, respond messages.ResponseSender) error {
	respond.Send(messages.MsgTypeSyncClock, 0, messages.SyncClock{
		ServerTime: time.Now().UnixMilli(),
	})
	return nil
}

func (h *RealtimeHandler) Receiver() messages.Receiver {
	return messages.NewReceiver(h.conn)
}

func (h *RealtimeHandler) Sender() messages.Sender {
	return messages.NewSender(h.conn)
}

func (h *RealtimeHandler) Close() {
}

func (h *RealtimeHandler) SyncClockInterval() time.Duration {
	return h.ClientSyncClockInterval
}

func (h *RealtimeHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *RealtimeHandler) GetSessions() *models.SessionStore {
	return h.Sessions
}

func (h *RealtimeHandler) GetModules() []modules.Module {
	return h.Modules
}

func (h *RealtimeHandler) CurrentSession() *models.Session {
	return h.currentSession
}

func (h *RealtimeHandler) CurrentParticipant() *models.Participant {
	return h.currentParticipant
}

func (h *RealtimeHandler) GetClientID() string {
	return h.clientID
}

func (h *RealtimeHandler) leaveSession() {
	session := h.currentSession
	participant := h.currentParticipant

	if participant == nil || session == nil {
		return
	}

	for _, m := range h.Modules {
		m.HandleDisconnect()
	}

	for id := range participant.EntityIDs() {
		entity, ok := session.EntityByID(id)
		if !ok || entity.Persist {
			continue
		}

		session.RemoveEntity(entity)
		participant.RemoveEntity(entity)

		h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityDeleteBroadcast, func() {
			session.Broadcast(participant, messages.MsgTypeEntityDeleteBroadcast, messages.EntityDeleteBroadcast{
				EntityID: entity.ID,
			})
		})
	}

	session.RemoveParticipant(participant)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantLeaveBroadcast, func() {
		session.Broadcast(participant, messages.MsgTypeParticipantLeaveBroadcast, messages.ParticipantBroadcast{
			ParticipantID: participant.ID,
		})
	})

	if session.ParticipantCount() == 0 {
		// A background context makes sure the session is removed even when
		// the connection context is done.
		h.Sessions.Remove(context.Background(), session)
	}

	h.currentParticipant = nil
	h.currentSession = nil
}
