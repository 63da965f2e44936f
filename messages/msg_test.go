package messages

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/collision"
	"github.com/aukilabs/spatial/geom"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func TestMsgFromData(t *testing.T) {
	msg, err := MsgFromData(MsgTypeEntityAddResponse, 42, EntityAddResponse{EntityID: 7})
	require.NoError(t, err)
	require.Equal(t, MsgTypeEntityAddResponse, msg.Type)
	require.Equal(t, uint32(42), msg.RequestID)
	require.NotZero(t, msg.Timestamp)

	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Msg
	require.NoError(t, json.Unmarshal(b, &decoded))

	var res EntityAddResponse
	require.NoError(t, decoded.DataTo(&res))
	require.Equal(t, uint32(7), res.EntityID)

	t.Run("without data", func(t *testing.T) {
		msg, err := MsgFromData(MsgTypePingResponse, 1, nil)
		require.NoError(t, err)
		require.Empty(t, msg.Data)

		err = msg.DataTo(&res)
		require.True(t, errors.IsType(err, ErrTypeBadRequest))
	})

	t.Run("malformed data", func(t *testing.T) {
		msg := Msg{Type: MsgTypeRaycastRequest, Data: json.RawMessage(`{"ray":1}`)}
		var req RaycastRequest
		err := msg.DataTo(&req)
		require.True(t, errors.IsType(err, ErrTypeBadRequest))
	})
}

func TestErrModuleMsgSkip(t *testing.T) {
	require.True(t, errors.IsType(ErrModuleMsgSkip, ErrTypeMsgSkip))
}

func TestShapeDef(t *testing.T) {
	rotation := geom.AxisAngle(geom.Up(), 30)

	t.Run("sphere", func(t *testing.T) {
		s, err := ShapeDef{Kind: ShapeKindSphere, Radius: 2, Center: geom.One()}.Shape()
		require.NoError(t, err)
		sphere := s.(*collision.Sphere)
		require.Equal(t, float32(2), sphere.Radius())
		require.True(t, geom.One().Equal(sphere.Center()))
		require.Equal(t, ShapeKindSphere, NewShapeDef(s).Kind)
	})

	t.Run("box", func(t *testing.T) {
		s, err := ShapeDef{Kind: ShapeKindBox, Size: geom.One(), Rotation: &rotation}.Shape()
		require.NoError(t, err)
		box := s.(*collision.Box)
		require.True(t, geom.MakeRotation(rotation).EqualWithEpsilon(box.RotationMatrix(), 1e-6))

		def := NewShapeDef(s)
		require.Equal(t, ShapeKindBox, def.Kind)
		require.True(t, geom.One().Equal(def.Size))
		require.NotNil(t, def.Rotation)
	})

	t.Run("plane", func(t *testing.T) {
		s, err := ShapeDef{Kind: ShapeKindPlane, Normal: geom.Vector3f{Y: 3}}.Shape()
		require.NoError(t, err)
		require.True(t, geom.Up().Equal(s.(*collision.Plane).Normal()))
	})

	t.Run("invalid", func(t *testing.T) {
		defs := []ShapeDef{
			{Kind: "capsule"},
			{Kind: ShapeKindSphere, Radius: -1},
			{Kind: ShapeKindBox, Size: geom.Vector3f{X: -1}},
			{Kind: ShapeKindPlane},
		}

		for _, d := range defs {
			_, err := d.Shape()
			require.Error(t, err, d.Kind)
			require.True(t, errors.IsType(err, ErrTypeBadRequest), d.Kind)
		}
	})

	t.Run("nil shape", func(t *testing.T) {
		require.Nil(t, NewShapeDef(nil))
	})
}

func TestErrorCodeFromError(t *testing.T) {
	code, ok := ErrorCodeFromError(errors.New("bad").WithType(ErrTypeBadRequest))
	require.True(t, ok)
	require.Equal(t, ErrorCodeBadRequest, code)

	code, ok = ErrorCodeFromError(errors.New("not joined").WithType(ErrTypeSessionNotJoined))
	require.True(t, ok)
	require.Equal(t, ErrorCodeSessionNotJoined, code)

	code, ok = ErrorCodeFromError(errors.New("handling message failed").
		Wrap(errors.New("bad").WithType(ErrTypeBadRequest)))
	require.True(t, ok)
	require.Equal(t, ErrorCodeBadRequest, code)

	_, ok = ErrorCodeFromError(errors.New("broken pipe"))
	require.False(t, ok)
}

type recordingSender struct {
	msgs []Msg
}

func (s *recordingSender) Send(t MsgType, requestID uint32, data any) {
	msg, err := MsgFromData(t, requestID, data)
	if err != nil {
		panic(err)
	}
	s.SendMsg(msg)
}

func (s *recordingSender) SendMsg(msg Msg) {
	s.msgs = append(s.msgs, msg)
}

func TestRespondError(t *testing.T) {
	var sender recordingSender
	RespondError(&sender, 12, ErrorCodeEntityNotFound)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	require.Equal(t, MsgTypeError, msg.Type)
	require.Equal(t, uint32(12), msg.RequestID)

	var res ErrorResponse
	require.NoError(t, msg.DataTo(&res))
	require.Equal(t, ErrorCodeEntityNotFound, res.Code)
}
