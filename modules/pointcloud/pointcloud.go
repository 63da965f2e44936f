// Package pointcloud lets participants upload splat centers and request
// their back to front ordering from any camera.
package pointcloud

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/featureflag"
	"github.com/aukilabs/spatial/geom"
	"github.com/aukilabs/spatial/messages"
	"github.com/aukilabs/spatial/models"
	"github.com/aukilabs/spatial/splat"
)

type Module struct {
	// The maximum number of points of a point cloud. Zero means no limit.
	MaxPoints int

	FeatureFlags featureflag.FeatureFlag

	currentSession     *models.Session
	currentParticipant *models.Participant
	pointCloudIDs      map[uint32]struct{}
}

func (m *Module) Name() string {
	return "pointcloud"
}

func (m *Module) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p
	m.pointCloudIDs = make(map[uint32]struct{})
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var err error

	switch msg.Type {
	case messages.MsgTypePointCloudAddRequest:
		err = m.handleAdd(ctx, respond, msg)

	case messages.MsgTypePointCloudDeleteRequest:
		err = m.handleDelete(ctx, respond, msg)

	case messages.MsgTypePointCloudSortRequest:
		err = m.handleSort(ctx, respond, msg)

	default:
		err = messages.ErrModuleMsgSkip
	}

	return err
}

// HandleDisconnect removes the point clouds added by the participant.
func (m *Module) HandleDisconnect() {
	session := m.currentSession
	if session == nil {
		return
	}

	for id := range m.pointCloudIDs {
		if pc, ok := session.PointCloudByID(id); ok {
			session.RemovePointCloud(pc)
		}
	}

	m.currentSession = nil
	m.currentParticipant = nil
	m.pointCloudIDs = nil
}

func (m *Module) handleAdd(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.PointCloudAddRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := m.session(msg)
	if err != nil {
		return err
	}

	if len(req.Centers)%3 != 0 {
		return errors.New("point cloud centers are not a multiple of 3").
			WithType(messages.ErrTypeBadRequest).
			WithTag("centers", len(req.Centers))
	}

	count := len(req.Centers) / 3
	if m.MaxPoints > 0 && count > m.MaxPoints {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodePointCloudTooLarge)
		return nil
	}

	model := geom.IdentityMatrix()
	if req.Model != nil {
		model = *req.Model
	}

	pc, err := models.NewPointCloud(
		session.NewPointCloudID(),
		participant.ID,
		req.Centers,
		model,
		m.newSorter(count),
	)
	if err != nil {
		return err
	}

	session.AddPointCloud(pc)
	m.pointCloudIDs[pc.ID] = struct{}{}

	respond.Send(messages.MsgTypePointCloudAddResponse, msg.RequestID, messages.PointCloudAddResponse{
		PointCloudID: pc.ID,
		Count:        pc.Count(),
	})
	return nil
}

func (m *Module) handleDelete(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.PointCloudDeleteRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := m.session(msg)
	if err != nil {
		return err
	}

	pc, ok := session.PointCloudByID(req.PointCloudID)
	if !ok {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodePointCloudNotFound)
		return nil
	}

	if pc.ParticipantID != participant.ID {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodePointCloudNotOwned)
		return nil
	}

	session.RemovePointCloud(pc)
	delete(m.pointCloudIDs, pc.ID)

	respond.Send(messages.MsgTypePointCloudDeleteResponse, msg.RequestID, nil)
	return nil
}

func (m *Module) handleSort(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.PointCloudSortRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := m.session(msg)
	if err != nil {
		return err
	}

	pc, ok := session.PointCloudByID(req.PointCloudID)
	if !ok {
		messages.RespondError(respond, msg.RequestID, messages.ErrorCodePointCloudNotFound)
		return nil
	}

	if req.Model != nil {
		if pc.ParticipantID != participant.ID {
			messages.RespondError(respond, msg.RequestID, messages.ErrorCodePointCloudNotOwned)
			return nil
		}
		pc.SetModel(*req.Model)
	}

	raw := req.Raw || m.FeatureFlags.IsSet(featureflag.FlagSplatForceRawIndices)

	respond.Send(messages.MsgTypePointCloudSortResponse, msg.RequestID, messages.PointCloudSortResponse{
		PointCloudID: pc.ID,
		Raw:          raw,
		Indices:      pc.Sort(req.Camera, raw),
	})
	return nil
}

func (m *Module) newSorter(count int) splat.DepthSorter {
	pivot := splat.PivotMiddle
	name := "middle"
	if m.FeatureFlags.IsSet(featureflag.FlagSplatMedianOfThreePivot) {
		pivot = splat.PivotMedianOfThree
		name = "median_of_three"
	}

	return splat.WithMetrics(splat.NewSorter(count, splat.WithPivot(pivot)), name)
}

func (m *Module) session(msg messages.Msg) (*models.Session, *models.Participant, error) {
	if m.currentSession == nil || m.currentParticipant == nil {
		return nil, nil, errors.New("session not joined").
			WithType(messages.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}
	return m.currentSession, m.currentParticipant, nil
}
