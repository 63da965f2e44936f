package messages

import (
	"github.com/aukilabs/spatial/geom"
)

// MsgType identifies the payload of a message.
type MsgType string

const (
	MsgTypeError MsgType = "error"

	MsgTypePingRequest  MsgType = "ping_request"
	MsgTypePingResponse MsgType = "ping_response"
	MsgTypeSyncClock    MsgType = "sync_clock"

	MsgTypeSessionJoinRequest        MsgType = "session_join_request"
	MsgTypeSessionJoinResponse       MsgType = "session_join_response"
	MsgTypeSessionStateRequest       MsgType = "session_state_request"
	MsgTypeSessionStateResponse      MsgType = "session_state_response"
	MsgTypeParticipantJoinBroadcast  MsgType = "participant_join_broadcast"
	MsgTypeParticipantLeaveBroadcast MsgType = "participant_leave_broadcast"

	MsgTypeEntityAddRequest           MsgType = "entity_add_request"
	MsgTypeEntityAddResponse          MsgType = "entity_add_response"
	MsgTypeEntityAddBroadcast         MsgType = "entity_add_broadcast"
	MsgTypeEntityDeleteRequest        MsgType = "entity_delete_request"
	MsgTypeEntityDeleteResponse       MsgType = "entity_delete_response"
	MsgTypeEntityDeleteBroadcast      MsgType = "entity_delete_broadcast"
	MsgTypeEntityUpdatePose           MsgType = "entity_update_pose"
	MsgTypeEntityUpdatePoseBroadcast  MsgType = "entity_update_pose_broadcast"
	MsgTypeEntityUpdateShapeRequest   MsgType = "entity_update_shape_request"
	MsgTypeEntityUpdateShapeResponse  MsgType = "entity_update_shape_response"
	MsgTypeEntityUpdateShapeBroadcast MsgType = "entity_update_shape_broadcast"

	MsgTypeRaycastRequest     MsgType = "raycast_request"
	MsgTypeRaycastResponse    MsgType = "raycast_response"
	MsgTypeRaycastAllRequest  MsgType = "raycast_all_request"
	MsgTypeRaycastAllResponse MsgType = "raycast_all_response"
	MsgTypeOverlapRequest     MsgType = "overlap_request"
	MsgTypeOverlapResponse    MsgType = "overlap_response"

	MsgTypePointCloudAddRequest     MsgType = "point_cloud_add_request"
	MsgTypePointCloudAddResponse    MsgType = "point_cloud_add_response"
	MsgTypePointCloudDeleteRequest  MsgType = "point_cloud_delete_request"
	MsgTypePointCloudDeleteResponse MsgType = "point_cloud_delete_response"
	MsgTypePointCloudSortRequest    MsgType = "point_cloud_sort_request"
	MsgTypePointCloudSortResponse   MsgType = "point_cloud_sort_response"
)

// ErrorCode describes why a request failed.
type ErrorCode string

const (
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeSessionNotJoined     ErrorCode = "session_not_joined"
	ErrorCodeSessionAlreadyJoined ErrorCode = "session_already_joined"
	ErrorCodeSessionNotFound      ErrorCode = "session_not_found"
	ErrorCodeEntityNotFound       ErrorCode = "entity_not_found"
	ErrorCodeEntityNotOwned       ErrorCode = "entity_not_owned"
	ErrorCodePointCloudNotFound   ErrorCode = "point_cloud_not_found"
	ErrorCodePointCloudNotOwned   ErrorCode = "point_cloud_not_owned"
	ErrorCodePointCloudTooLarge   ErrorCode = "point_cloud_too_large"
	ErrorCodeInternal             ErrorCode = "internal"
)

type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}

type PingResponse struct{}

type SyncClock struct {
	ServerTime int64 `json:"server_time"`
}

type SessionJoinRequest struct {
	// The session to join. An empty id creates a new session.
	SessionID string `json:"session_id,omitempty"`
}

type SessionJoinResponse struct {
	SessionID     string        `json:"session_id"`
	SessionUUID   string        `json:"session_uuid"`
	ParticipantID uint32        `json:"participant_id"`
	Participants  []uint32      `json:"participants"`
	Entities      []EntityState `json:"entities"`
}

type SessionStateResponse struct {
	Participants []uint32          `json:"participants"`
	Entities     []EntityState     `json:"entities"`
	PointClouds  []PointCloudState `json:"point_clouds"`
}

type ParticipantBroadcast struct {
	ParticipantID uint32 `json:"participant_id"`
}

// Pose places an entity in the session world.
type Pose struct {
	Position geom.Vector3f   `json:"position"`
	Rotation geom.Quaternion `json:"rotation"`

	// Scale defaults to one on every axis when omitted.
	Scale *geom.Vector3f `json:"scale,omitempty"`
}

type EntityState struct {
	ID            uint32    `json:"id"`
	ParticipantID uint32    `json:"participant_id"`
	Persist       bool      `json:"persist,omitempty"`
	Pose          Pose      `json:"pose"`
	Shape         *ShapeDef `json:"shape,omitempty"`
}

type EntityAddRequest struct {
	Pose    Pose      `json:"pose"`
	Persist bool      `json:"persist,omitempty"`
	Shape   *ShapeDef `json:"shape,omitempty"`
}

type EntityAddResponse struct {
	EntityID uint32 `json:"entity_id"`
}

type EntityDeleteRequest struct {
	EntityID uint32 `json:"entity_id"`
}

type EntityDeleteBroadcast struct {
	EntityID uint32 `json:"entity_id"`
}

type EntityUpdatePose struct {
	EntityID uint32 `json:"entity_id"`
	Pose     Pose   `json:"pose"`
}

type EntityUpdateShapeRequest struct {
	EntityID uint32 `json:"entity_id"`

	// A nil shape removes the entity collider.
	Shape *ShapeDef `json:"shape,omitempty"`
}

type EntityUpdateShapeBroadcast struct {
	EntityID uint32    `json:"entity_id"`
	Shape    *ShapeDef `json:"shape,omitempty"`
}

// Ray is a world space ray. Direction does not need to be normalized but
// must not be zero.
type Ray struct {
	Origin    geom.Vector3f `json:"origin"`
	Direction geom.Vector3f `json:"direction"`
}

type RaycastRequest struct {
	Ray Ray `json:"ray"`
}

type RaycastHit struct {
	EntityID uint32        `json:"entity_id"`
	Distance float32       `json:"distance"`
	Point    geom.Vector3f `json:"point"`
}

type RaycastResponse struct {
	Hit *RaycastHit `json:"hit,omitempty"`
}

type RaycastAllRequest struct {
	Ray Ray `json:"ray"`

	// The maximum number of hits returned. Zero means no limit.
	Limit int `json:"limit,omitempty"`
}

type RaycastAllResponse struct {
	Hits []RaycastHit `json:"hits"`
}

type OverlapRequest struct {
	EntityID uint32 `json:"entity_id"`

	// Returns only the first overlapping entity.
	First bool `json:"first,omitempty"`
}

type OverlapResponse struct {
	EntityIDs []uint32 `json:"entity_ids"`
}

type PointCloudState struct {
	ID            uint32 `json:"id"`
	ParticipantID uint32 `json:"participant_id"`
	Count         int    `json:"count"`
}

type PointCloudAddRequest struct {
	// Centers holds x, y, z per point in model space.
	Centers []float32 `json:"centers"`

	// Model is the column-major model matrix. Identity when omitted.
	Model *geom.Matrix `json:"model,omitempty"`
}

type PointCloudAddResponse struct {
	PointCloudID uint32 `json:"point_cloud_id"`
	Count        int    `json:"count"`
}

type PointCloudDeleteRequest struct {
	PointCloudID uint32 `json:"point_cloud_id"`
}

type PointCloudSortRequest struct {
	PointCloudID uint32 `json:"point_cloud_id"`

	// Camera is the column-major camera world matrix, without scale.
	Camera geom.Matrix `json:"camera"`

	// Model replaces the stored model matrix when set.
	Model *geom.Matrix `json:"model,omitempty"`

	// Raw requests the sorted point indices instead of quad indices.
	Raw bool `json:"raw,omitempty"`
}

type PointCloudSortResponse struct {
	PointCloudID uint32   `json:"point_cloud_id"`
	Raw          bool     `json:"raw"`
	Indices      []uint32 `json:"indices"`
}
