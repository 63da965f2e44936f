package featureflag

type Flag string

const (
	FlagDisableSessionState               Flag = "DISABLE_SESSION_STATE"
	FlagDisableParticipantJoinBroadcast   Flag = "DISABLE_PARTICIPANT_JOIN_BROADCAST"
	FlagDisableParticipantLeaveBroadcast  Flag = "DISABLE_PARTICIPANT_LEAVE_BROADCAST"
	FlagDisableEntityAddBroadcast         Flag = "DISABLE_ENTITY_ADD_BROADCAST"
	FlagDisableEntityDeleteBroadcast      Flag = "DISABLE_ENTITY_DELETE_BROADCAST"
	FlagDisableEntityUpdatePoseBroadcast  Flag = "DISABLE_ENTITY_UPDATE_POSE_BROADCAST"
	FlagDisableEntityUpdateShapeBroadcast Flag = "DISABLE_ENTITY_UPDATE_SHAPE_BROADCAST"
	FlagSplatMedianOfThreePivot           Flag = "SPLAT_MEDIAN_OF_THREE_PIVOT"
	FlagSplatForceRawIndices              Flag = "SPLAT_FORCE_RAW_INDICES"
)
