package world

import (
	"fmt"

	"multisim.dev/internal/protocol"
)

func (w *World) handleAttach(req AttachRequest) {
	resp := AttachResponse{}
	switch {
	case !w.validRobot(req.Robot):
		resp.Code = protocol.ErrBadRobot
		resp.Message = fmt.Sprintf("robot %d not in [0, %d)", req.Robot, len(w.robots))
	case w.clients[req.Robot] != nil:
		resp.Code = protocol.ErrRobotBusy
		resp.Message = fmt.Sprintf("robot %d already has a session", req.Robot)
	default:
		w.clients[req.Robot] = &clientState{SessionID: req.SessionID, Name: req.ClientName, Out: req.Out}
		resp.Welcome = protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			SessionID:       req.SessionID,
			RunID:           w.cfg.RunID,
			Robot:           req.Robot,
			Color:           w.robots[req.Robot].Color,
			WorldParams:     w.Params(),
		}
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

// handleDetach drops the robot's session only if it is still the one that asked.
// The robot keeps its last command.
func (w *World) handleDetach(req DetachRequest) {
	cl := w.clients[req.Robot]
	if cl == nil || cl.SessionID != req.SessionID {
		return
	}
	delete(w.clients, req.Robot)
}
