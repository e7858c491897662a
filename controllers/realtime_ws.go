package controller

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"tasknest/authz"
	"tasknest/config"
	"tasknest/models"
	"tasknest/realtime"
	"tasknest/utils"
)

// clientMessage is what connected clients send: room management only.
// Mutations always go through the REST API.
type clientMessage struct {
	Action      string `json:"action"` // joinWorkspace, leaveWorkspace
	WorkspaceID uint   `json:"workspace_id"`
}

type ackMessage struct {
	Action      string `json:"action"`
	WorkspaceID uint   `json:"workspace_id"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

// HandleRealtimeWS upgrades a session into the fan-out hub. The token comes
// as a query parameter because browsers cannot set headers on websocket
// upgrades. The session is auto-subscribed to its personal channel; rooms
// are joined explicitly and re-checked against current membership.
func HandleRealtimeWS(hub *realtime.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		claims, err := utils.ParseJWTToken(c.Query("token"))
		if err != nil {
			_ = c.WriteJSON(ackMessage{Action: "connect", OK: false, Error: "invalid token"})
			return
		}

		var user models.User
		if err := config.DB.First(&user, claims.UserID).Error; err != nil || !user.IsActive {
			_ = c.WriteJSON(ackMessage{Action: "connect", OK: false, Error: "unknown user"})
			return
		}

		// Every frame after this point goes through the session, which
		// serializes writes against concurrent hub publishes.
		session := hub.Connect(user.ID, c)
		defer hub.Disconnect(session)

		_ = session.WriteJSON(ackMessage{Action: "connect", OK: true})

		for {
			var msg clientMessage
			if err := c.ReadJSON(&msg); err != nil {
				// Closed or malformed stream; the client resubscribes
				// on reconnect.
				return
			}

			switch msg.Action {
			case "joinWorkspace":
				var ws models.Workspace
				if err := config.DB.Preload("Members").First(&ws, msg.WorkspaceID).Error; err != nil {
					reason := "workspace not found"
					if err != gorm.ErrRecordNotFound {
						reason = "lookup failed"
						log.Printf("realtime: workspace lookup: %v", err)
					}
					_ = session.WriteJSON(ackMessage{Action: msg.Action, WorkspaceID: msg.WorkspaceID, OK: false, Error: reason})
					continue
				}
				if !authz.WorkspaceRead(user.ID, &ws).Allowed() {
					_ = session.WriteJSON(ackMessage{Action: msg.Action, WorkspaceID: msg.WorkspaceID, OK: false, Error: "insufficient permission"})
					continue
				}
				hub.Subscribe(session, realtime.WorkspaceTopic(ws.ID))
				_ = session.WriteJSON(ackMessage{Action: msg.Action, WorkspaceID: ws.ID, OK: true})

			case "leaveWorkspace":
				hub.Unsubscribe(session, realtime.WorkspaceTopic(msg.WorkspaceID))
				_ = session.WriteJSON(ackMessage{Action: msg.Action, WorkspaceID: msg.WorkspaceID, OK: true})

			default:
				_ = session.WriteJSON(ackMessage{Action: msg.Action, OK: false, Error: "unknown action"})
			}
		}
	}
}
