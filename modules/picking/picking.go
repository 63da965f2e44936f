// Package picking answers ray and overlap queries against the colliders of
// the joined session.
package picking

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/collision"
	"github.com/aukilabs/spatial/geom"
	"github.com/aukilabs/spatial/messages"
	"github.com/aukilabs/spatial/models"
)

type Module struct {
	currentSession     *models.Session
	currentParticipant *models.Participant
}

func (m *Module) Name() string {
	return "picking"
}

func (m *Module) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var err error

	switch msg.Type {
	case messages.MsgTypeRaycastRequest:
		err = m.handleRaycast(ctx, respond, msg)

	case messages.MsgTypeRaycastAllRequest:
		err = m.handleRaycastAll(ctx, respond, msg)

	case messages.MsgTypeOverlapRequest:
		err = m.handleOverlap(ctx, respond, msg)

	default:
		err = messages.ErrModuleMsgSkip
	}

	return err
}

func (m *Module) HandleDisconnect() {
	m.currentSession = nil
	m.currentParticipant = nil
}

func (m *Module) handleRaycast(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RaycastRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, err := m.session(msg)
	if err != nil {
		return err
	}

	ray, err := newRay(req.Ray)
	if err != nil {
		return err
	}

	var res messages.RaycastResponse
	if hit, ok := session.Raycast(ray); ok {
		res.Hit = newRaycastHit(hit)
	}
	instrumentQuery(queryRaycast, res.Hit != nil)

	respond.Send(messages.MsgTypeRaycastResponse, msg.RequestID, res)
	return nil
}

func (m *Module) handleRaycastAll(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RaycastAllRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, err := m.session(msg)
	if err != nil {
		return err
	}

	if req.Limit < 0 {
		return errors.New("raycast limit is negative").
			WithType(messages.ErrTypeBadRequest).
			WithTag("limit", req.Limit)
	}

	ray, err := newRay(req.Ray)
	if err != nil {
		return err
	}

	hits := session.RaycastAll(ray, req.Limit)
	res := messages.RaycastAllResponse{
		Hits: make([]messages.RaycastHit, len(hits)),
	}
	for i, h := range hits {
		res.Hits[i] = *newRaycastHit(h)
	}
	instrumentQuery(queryRaycastAll, len(hits) != 0)

	respond.Send(messages.MsgTypeRaycastAllResponse, msg.RequestID, res)
	return nil
}

func (m *Module) handleOverlap(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.OverlapRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, err := m.session(msg)
	if err != nil {
		return err
	}

	entity, ok := session.EntityByID(req.EntityID)
	if !ok {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodeEntityNotFound)
		return nil
	}

	entities := session.Overlaps(entity, req.First)
	res := messages.OverlapResponse{
		EntityIDs: make([]uint32, len(entities)),
	}
	for i, e := range entities {
		res.EntityIDs[i] = e.ID
	}
	instrumentQuery(queryOverlap, len(entities) != 0)

	respond.Send(messages.MsgTypeOverlapResponse, msg.RequestID, res)
	return nil
}

func (m *Module) session(msg messages.Msg) (*models.Session, error) {
	if m.currentSession == nil || m.currentParticipant == nil {
		return nil, errors.New("session not joined").
			WithType(messages.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}
	return m.currentSession, nil
}

func newRay(r messages.Ray) (collision.Ray, error) {
	if r.Direction.Equal(geom.Zero()) {
		return collision.Ray{}, errors.New("ray direction is zero").
			WithType(messages.ErrTypeBadRequest)
	}
	return collision.NewRay(r.Origin, r.Direction), nil
}

func newRaycastHit(h models.EntityHit) *messages.RaycastHit {
	return &messages.RaycastHit{
		EntityID: h.Entity.ID,
		Distance: h.Distance,
		Point:    h.Point,
	}
}
