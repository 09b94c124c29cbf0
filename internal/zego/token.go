// Package zego integrates the ZEGOCLOUD conferencing provider: room tokens for the
// client SDK, best-effort moderation commands through the server API, and the
// room event callback that feeds joins and leaves into the coordinator.
package zego

import (
	"encoding/json"
	"fmt"

	"github.com/ZEGOCLOUD/zego_server_assistant/token/go/src/token04"

	"github.com/aura-webinar/classroom/internal/models"
)

// RtcRoomPayload is the payload for a room-scoped token04 token.
type RtcRoomPayload struct {
	RoomID       string      `json:"RoomId"`
	Privilege    map[int]int `json:"Privilege"`
	StreamIDList []string    `json:"StreamIdList,omitempty"`
}

// GenerateRoomToken generates a token04 token that lets userID log into roomID.
// Both classroom roles may publish: students speak when their hand is taken.
// The roster's mute flag, not the token, decides who is expected to be silent.
func GenerateRoomToken(appID uint32, serverSecret, roomID, userID string, role models.Role, effectiveTimeSec int64) (string, error) {
	if appID == 0 || serverSecret == "" {
		return "", fmt.Errorf("zego: app_id and server_secret required")
	}
	if len(serverSecret) != 32 {
		return "", fmt.Errorf("zego: server_secret must be 32 characters")
	}
	if !role.Valid() {
		return "", fmt.Errorf("zego: unknown role %q", role)
	}
	payload := RtcRoomPayload{
		RoomID: roomID,
		Privilege: map[int]int{
			token04.PrivilegeKeyLogin:   token04.PrivilegeEnable,
			token04.PrivilegeKeyPublish: token04.PrivilegeEnable,
		},
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("zego: marshal payload: %w", err)
	}
	return token04.GenerateToken04(appID, userID, serverSecret, effectiveTimeSec, string(payloadJSON))
}
