package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Robot routing.
	ErrBadRobot  = "E_BAD_ROBOT"
	ErrRobotBusy = "E_ROBOT_BUSY"

	// Command layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrRateLimit  = "E_RATE_LIMIT"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrBadRobot:        {},
	ErrRobotBusy:       {},
	ErrBadRequest:      {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// NewError builds an ERROR message. Unknown codes are reported as ErrInternal.
func NewError(code, message string) ErrorMsg {
	if !IsKnownCode(code) || code == "" {
		code = ErrInternal
	}
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}
