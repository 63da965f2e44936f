package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/aukilabs/spatial/featureflag"
	"github.com/aukilabs/spatial/geom"
	"github.com/aukilabs/spatial/messages"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestHandlerSendSyncClock(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := NewScenario(clientA).
		Receive(FilterByType(messages.MsgTypeSyncClock), func(msg messages.Msg) error {
			var res messages.SyncClock
			err := msg.DataTo(&res)

			require.NoError(t, err)
			require.NotZero(t, msg.Timestamp)
			require.NotZero(t, res.ServerTime)
			return err
		}).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerHandlePing(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := NewScenario(clientA).
		Send(messages.MsgTypePingRequest, 1, nil).
		Receive(
			FilterByType(messages.MsgTypePingResponse),
			FilterByRequestID(1),
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerHandleSessionJoin(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var joinA messages.SessionJoinResponse

	err := NewScenario(clientA).
		Send(messages.MsgTypeSessionJoinRequest, 1, messages.SessionJoinRequest{}).
		Receive(
			FilterByType(messages.MsgTypeSessionJoinResponse),
			FilterByRequestID(1),
			DecodeTo(&joinA),
		).
		Receive(
			FilterByType(messages.MsgTypeSessionStateResponse),
			func(msg messages.Msg) error {
				var res messages.SessionStateResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, []uint32{joinA.ParticipantID}, res.Participants)
				require.Empty(t, res.Entities)
				require.Empty(t, res.PointClouds)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)
	require.Equal(t, "tedx1", joinA.SessionID)
	require.NotEmpty(t, joinA.SessionUUID)
	require.Equal(t, uint32(1), joinA.ParticipantID)

	var joinB messages.SessionJoinResponse

	err = NewScenario(clientB).
		Send(messages.MsgTypeSessionJoinRequest, 1, messages.SessionJoinRequest{
			SessionID: joinA.SessionID,
		}).
		Receive(
			FilterByType(messages.MsgTypeSessionJoinResponse),
			FilterByRequestID(1),
			DecodeTo(&joinB),
		).
		Run(ctx)
	require.NoError(t, err)
	require.Equal(t, joinA.SessionID, joinB.SessionID)
	require.Equal(t, joinA.SessionUUID, joinB.SessionUUID)
	require.Equal(t, uint32(2), joinB.ParticipantID)
	require.Equal(t, []uint32{1, 2}, joinB.Participants)

	err = NewScenario(clientA).
		Receive(
			FilterByType(messages.MsgTypeParticipantJoinBroadcast),
			func(msg messages.Msg) error {
				var res messages.ParticipantBroadcast
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, joinB.ParticipantID, res.ParticipantID)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerHandleSessionJoinErrors(t *testing.T) {
	t.Run("session not found", func(t *testing.T) {
		clientA, _, close := NewTestingEnv(t, newTestHandler())
		defer close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := NewScenario(clientA).
			Send(messages.MsgTypeSessionJoinRequest, 1, messages.SessionJoinRequest{
				SessionID: "tedx42",
			}).
			Receive(
				FilterByType(messages.MsgTypeError),
				FilterByRequestID(1),
				requireErrorCode(t, messages.ErrorCodeSessionNotFound),
			).
			Run(ctx)
		require.NoError(t, err)
	})

	t.Run("session already joined", func(t *testing.T) {
		clientA, _, close := NewTestingEnv(t, newTestHandler())
		defer close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		var join messages.SessionJoinResponse

		err := NewScenario(clientA).
			Send(messages.MsgTypeSessionJoinRequest, 1, nil).
			Receive(
				FilterByType(messages.MsgTypeSessionJoinResponse),
				DecodeTo(&join),
			).
			Run(ctx)
		require.NoError(t, err)

		err = NewScenario(clientA).
			Send(messages.MsgTypeSessionJoinRequest, 2, messages.SessionJoinRequest{
				SessionID: join.SessionID,
			}).
			Receive(
				FilterByType(messages.MsgTypeError),
				FilterByRequestID(2),
				requireErrorCode(t, messages.ErrorCodeSessionAlreadyJoined),
			).
			Run(ctx)
		require.NoError(t, err)
	})
}

func TestHandlerRequestErrors(t *testing.T) {
	t.Run("session not joined", func(t *testing.T) {
		clientA, _, close := NewTestingEnv(t, newTestHandler())
		defer close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := NewScenario(clientA).
			Send(messages.MsgTypeEntityAddRequest, 1, messages.EntityAddRequest{}).
			Receive(
				FilterByType(messages.MsgTypeError),
				FilterByRequestID(1),
				requireErrorCode(t, messages.ErrorCodeSessionNotJoined),
			).
			Send(messages.MsgTypeRaycastRequest, 2, messages.RaycastRequest{}).
			Receive(
				FilterByType(messages.MsgTypeError),
				FilterByRequestID(2),
				requireErrorCode(t, messages.ErrorCodeSessionNotJoined),
			).
			Send(messages.MsgTypePingRequest, 3, nil).
			Receive(
				FilterByType(messages.MsgTypePingResponse),
				FilterByRequestID(3),
			).
			Run(ctx)
		require.NoError(t, err)
	})

	t.Run("bad request", func(t *testing.T) {
		clientA, _, close := NewTestingEnv(t, newTestHandler())
		defer close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := NewScenario(clientA).
			Send(messages.MsgTypeSessionJoinRequest, 1, nil).
			Receive(FilterByType(messages.MsgTypeSessionJoinResponse)).
			Send(messages.MsgTypeEntityAddRequest, 2, messages.EntityAddRequest{
				Shape: &messages.ShapeDef{
					Kind:   messages.ShapeKindSphere,
					Radius: -1,
				},
			}).
			Receive(
				FilterByType(messages.MsgTypeError),
				FilterByRequestID(2),
				requireErrorCode(t, messages.ErrorCodeBadRequest),
			).
			Send(messages.MsgTypeEntityDeleteRequest, 3, nil).
			Receive(
				FilterByType(messages.MsgTypeError),
				FilterByRequestID(3),
				requireErrorCode(t, messages.ErrorCodeBadRequest),
			).
			Send(messages.MsgTypePingRequest, 4, nil).
			Receive(
				FilterByType(messages.MsgTypePingResponse),
				FilterByRequestID(4),
			).
			Run(ctx)
		require.NoError(t, err)
	})
}

func TestHandlerHandleEntityAdd(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sessionID := joinSession(t, ctx, clientA, clientB)

	var res messages.EntityAddResponse

	err := NewScenario(clientA).
		Send(messages.MsgTypeEntityAddRequest, 2, messages.EntityAddRequest{
			Pose: messages.Pose{
				Position: geom.NewVector3f(1, 2, 3),
				Rotation: geom.IdentityQuaternion(),
			},
			Shape: &messages.ShapeDef{
				Kind:   messages.ShapeKindSphere,
				Radius: 0.5,
			},
		}).
		Receive(
			FilterByType(messages.MsgTypeEntityAddResponse),
			FilterByRequestID(2),
			DecodeTo(&res),
		).
		Run(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), res.EntityID)
	require.NotEmpty(t, sessionID)

	err = NewScenario(clientB).
		Receive(
			FilterByType(messages.MsgTypeEntityAddBroadcast),
			func(msg messages.Msg) error {
				var entity messages.EntityState
				err := msg.DataTo(&entity)
				require.NoError(t, err)

				require.Equal(t, res.EntityID, entity.ID)
				require.Equal(t, uint32(1), entity.ParticipantID)
				require.Equal(t, geom.NewVector3f(1, 2, 3), entity.Pose.Position)
				require.NotNil(t, entity.Shape)
				require.Equal(t, messages.ShapeKindSphere, entity.Shape.Kind)
				require.Equal(t, float32(0.5), entity.Shape.Radius)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerHandleEntityDelete(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	joinSession(t, ctx, clientA, clientB)
	entityID := addEntity(t, ctx, clientA, messages.EntityAddRequest{})

	err := NewScenario(clientB).
		Send(messages.MsgTypeEntityDeleteRequest, 2, messages.EntityDeleteRequest{
			EntityID: entityID,
		}).
		Receive(
			FilterByType(messages.MsgTypeError),
			FilterByRequestID(2),
			requireErrorCode(t, messages.ErrorCodeEntityNotOwned),
		).
		Send(messages.MsgTypeEntityDeleteRequest, 3, messages.EntityDeleteRequest{
			EntityID: 42,
		}).
		Receive(
			FilterByType(messages.MsgTypeError),
			FilterByRequestID(3),
			requireErrorCode(t, messages.ErrorCodeEntityNotFound),
		).
		Run(ctx)
	require.NoError(t, err)

	err = NewScenario(clientA).
		Send(messages.MsgTypeEntityDeleteRequest, 3, messages.EntityDeleteRequest{
			EntityID: entityID,
		}).
		Receive(
			FilterByType(messages.MsgTypeEntityDeleteResponse),
			FilterByRequestID(3),
		).
		Run(ctx)
	require.NoError(t, err)

	err = NewScenario(clientB).
		Receive(
			FilterByType(messages.MsgTypeEntityDeleteBroadcast),
			func(msg messages.Msg) error {
				var res messages.EntityDeleteBroadcast
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, entityID, res.EntityID)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerHandleEntityUpdatePose(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	joinSession(t, ctx, clientA, clientB)
	entityID := addEntity(t, ctx, clientA, messages.EntityAddRequest{})

	err := NewScenario(clientA).
		Send(messages.MsgTypeEntityUpdatePose, 0, messages.EntityUpdatePose{
			EntityID: entityID,
			Pose: messages.Pose{
				Position: geom.NewVector3f(4, 5, 6),
				Rotation: geom.IdentityQuaternion(),
			},
		}).
		Run(ctx)
	require.NoError(t, err)

	err = NewScenario(clientB).
		Receive(
			FilterByType(messages.MsgTypeEntityUpdatePoseBroadcast),
			func(msg messages.Msg) error {
				var res messages.EntityUpdatePose
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, entityID, res.EntityID)
				require.Equal(t, geom.NewVector3f(4, 5, 6), res.Pose.Position)
				require.NotNil(t, res.Pose.Scale)
				require.Equal(t, geom.One(), *res.Pose.Scale)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerHandleEntityUpdateShape(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	joinSession(t, ctx, clientA, clientB)
	entityID := addEntity(t, ctx, clientA, messages.EntityAddRequest{})

	shape := &messages.ShapeDef{
		Kind: messages.ShapeKindBox,
		Size: geom.NewVector3f(1, 2, 3),
	}

	err := NewScenario(clientB).
		Send(messages.MsgTypeEntityUpdateShapeRequest, 2, messages.EntityUpdateShapeRequest{
			EntityID: entityID,
			Shape:    shape,
		}).
		Receive(
			FilterByType(messages.MsgTypeError),
			FilterByRequestID(2),
			requireErrorCode(t, messages.ErrorCodeEntityNotOwned),
		).
		Run(ctx)
	require.NoError(t, err)

	err = NewScenario(clientA).
		Send(messages.MsgTypeEntityUpdateShapeRequest, 3, messages.EntityUpdateShapeRequest{
			EntityID: entityID,
			Shape:    shape,
		}).
		Receive(
			FilterByType(messages.MsgTypeEntityUpdateShapeResponse),
			FilterByRequestID(3),
		).
		Send(messages.MsgTypeSessionStateRequest, 4, nil).
		Receive(
			FilterByType(messages.MsgTypeSessionStateResponse),
			FilterByRequestID(4),
			func(msg messages.Msg) error {
				var res messages.SessionStateResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Len(t, res.Entities, 1)
				require.NotNil(t, res.Entities[0].Shape)
				require.Equal(t, messages.ShapeKindBox, res.Entities[0].Shape.Kind)
				require.Equal(t, geom.NewVector3f(1, 2, 3), res.Entities[0].Shape.Size)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)

	err = NewScenario(clientB).
		Receive(
			FilterByType(messages.MsgTypeEntityUpdateShapeBroadcast),
			func(msg messages.Msg) error {
				var res messages.EntityUpdateShapeBroadcast
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, entityID, res.EntityID)
				require.NotNil(t, res.Shape)
				require.Equal(t, messages.ShapeKindBox, res.Shape.Kind)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerHandleDisconnect(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler())
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	joinSession(t, ctx, clientA, clientB)
	entityID := addEntity(t, ctx, clientB, messages.EntityAddRequest{})
	addEntity(t, ctx, clientB, messages.EntityAddRequest{Persist: true})

	clientB.Close()

	err := NewScenario(clientA).
		Receive(
			FilterByType(messages.MsgTypeEntityDeleteBroadcast),
			func(msg messages.Msg) error {
				var res messages.EntityDeleteBroadcast
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, entityID, res.EntityID)
				return err
			}).
		Receive(
			FilterByType(messages.MsgTypeParticipantLeaveBroadcast),
			func(msg messages.Msg) error {
				var res messages.ParticipantBroadcast
				err := msg.DataTo(&res)
				require.NoError(t, err)
				require.Equal(t, uint32(2), res.ParticipantID)
				return err
			}).
		Send(messages.MsgTypeSessionStateRequest, 5, nil).
		Receive(
			FilterByType(messages.MsgTypeSessionStateResponse),
			FilterByRequestID(5),
			func(msg messages.Msg) error {
				var res messages.SessionStateResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, []uint32{1}, res.Participants)
				require.Len(t, res.Entities, 1)
				require.True(t, res.Entities[0].Persist)
				return err
			}).
		Run(ctx)
	require.NoError(t, err)
}

func TestHandlerIdleTimeout(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, func() Handler {
		h := newTestHandler()().(*handlerWithMetrics)
		h.Handler.(*handlerWithLogs).Handler.(*RealtimeHandler).ClientIdleTimeout = 0
		return h
	})
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := NewScenario(clientA).
		Receive(FilterByType(messages.MsgTypePingResponse)).
		Run(ctx)
	require.Error(t, err)
}

func TestHandlerFeatureFlags(t *testing.T) {
	t.Run("session state disabled", func(t *testing.T) {
		flags := featureflag.New([]string{string(featureflag.FlagDisableSessionState)})
		clientA, _, close := NewTestingEnv(t, newTestHandlerWithFlags(flags))
		defer close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := NewScenario(clientA).
			Send(messages.MsgTypeSessionJoinRequest, 1, nil).
			Receive(FilterByType(messages.MsgTypeSessionJoinResponse)).
			Send(messages.MsgTypePingRequest, 2, nil).
			Receive(
				FilterByType(messages.MsgTypeSessionStateResponse, messages.MsgTypePingResponse),
				func(msg messages.Msg) error {
					require.Equal(t, messages.MsgTypePingResponse, msg.Type)
					return nil
				}).
			Run(ctx)
		require.NoError(t, err)
	})

	t.Run("entity add broadcast disabled", func(t *testing.T) {
		flags := featureflag.New([]string{string(featureflag.FlagDisableEntityAddBroadcast)})
		clientA, clientB, close := NewTestingEnv(t, newTestHandlerWithFlags(flags))
		defer close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		joinSession(t, ctx, clientA, clientB)
		addEntity(t, ctx, clientA, messages.EntityAddRequest{})

		err := NewScenario(clientB).
			Send(messages.MsgTypePingRequest, 2, nil).
			Receive(
				FilterByType(messages.MsgTypeEntityAddBroadcast, messages.MsgTypePingResponse),
				func(msg messages.Msg) error {
					require.Equal(t, messages.MsgTypePingResponse, msg.Type)
					return nil
				}).
			Run(ctx)
		require.NoError(t, err)
	})
}

// joinSession makes clientA create a session and clientB join it. The
// participant join broadcast sent to clientA is consumed.
func joinSession(t *testing.T, ctx context.Context, clientA, clientB *websocket.Conn) string {
	var join messages.SessionJoinResponse

	err := NewScenario(clientA).
		Send(messages.MsgTypeSessionJoinRequest, 1, nil).
		Receive(
			FilterByType(messages.MsgTypeSessionJoinResponse),
			FilterByRequestID(1),
			DecodeTo(&join),
		).
		Run(ctx)
	require.NoError(t, err)

	if clientB == nil {
		return join.SessionID
	}

	err = NewScenario(clientB).
		Send(messages.MsgTypeSessionJoinRequest, 1, messages.SessionJoinRequest{
			SessionID: join.SessionID,
		}).
		Receive(
			FilterByType(messages.MsgTypeSessionJoinResponse),
			FilterByRequestID(1),
		).
		Run(ctx)
	require.NoError(t, err)

	err = NewScenario(clientA).
		Receive(FilterByType(messages.MsgTypeParticipantJoinBroadcast)).
		Run(ctx)
	require.NoError(t, err)
	return join.SessionID
}

func addEntity(t *testing.T, ctx context.Context, conn *websocket.Conn, req messages.EntityAddRequest) uint32 {
	var res messages.EntityAddResponse

	err := NewScenario(conn).
		Send(messages.MsgTypeEntityAddRequest, 100, req).
		Receive(
			FilterByType(messages.MsgTypeEntityAddResponse),
			FilterByRequestID(100),
			DecodeTo(&res),
		).
		Run(ctx)
	require.NoError(t, err)
	return res.EntityID
}

func requireErrorCode(t *testing.T, code messages.ErrorCode) ScenarioHandler {
	return func(msg messages.Msg) error {
		var res messages.ErrorResponse
		err := msg.DataTo(&res)
		require.NoError(t, err)
		require.Equal(t, code, res.Code)
		return err
	}
}
