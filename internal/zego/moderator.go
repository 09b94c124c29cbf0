package zego

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/config"
	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/coordinator"
)

// systemUserID is the sender of server-originated custom commands.
const systemUserID = "classroom-server"

// Command is the custom command body the client widget understands.
type Command struct {
	Type  string `json:"type"` // "mute" | "mute_all"
	Muted bool   `json:"muted"`
}

// Moderator calls the ZEGOCLOUD server API. Every call is best-effort: the roster is
// the source of truth and a failed provider call never rolls back a committed action.
type Moderator struct {
	appID   uint32
	secret  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// NewModerator creates a provider API client.
func NewModerator(cfg config.ZegoConfig, logger *zap.Logger) *Moderator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Moderator{
		appID:   cfg.AppID,
		secret:  cfg.ServerSecret,
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
		now:     time.Now,
	}
}

// apiResponse is the common envelope of server API responses.
type apiResponse struct {
	Code      int    `json:"Code"`
	Message   string `json:"Message"`
	RequestID string `json:"RequestId"`
}

// Mute tells the target user's client to mute or unmute its microphone.
func (m *Moderator) Mute(ctx context.Context, roomID, userID string, muted bool) error {
	return m.sendCommand(ctx, roomID, Command{Type: "mute", Muted: muted}, userID)
}

// MuteAll broadcasts a mute command to every client in the room.
func (m *Moderator) MuteAll(ctx context.Context, roomID string) error {
	return m.sendCommand(ctx, roomID, Command{Type: "mute_all", Muted: true})
}

// Kick removes users from the provider room.
func (m *Moderator) Kick(ctx context.Context, roomID string, userIDs ...string) error {
	q := url.Values{"RoomId": {roomID}}
	for _, id := range userIDs {
		q.Add("UserId[]", id)
	}
	return m.call(ctx, "KickoutUser", q)
}

// CloseRoom ends the provider room, disconnecting everyone.
func (m *Moderator) CloseRoom(ctx context.Context, roomID string) error {
	return m.call(ctx, "CloseRoom", url.Values{"RoomId": {roomID}})
}

func (m *Moderator) sendCommand(ctx context.Context, roomID string, cmd Command, toUserIDs ...string) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("zego: marshal command: %w", err)
	}
	q := url.Values{
		"RoomId":         {roomID},
		"FromUserId":     {systemUserID},
		"MessageContent": {string(body)},
	}
	for _, id := range toUserIDs {
		q.Add("ToUserId[]", id)
	}
	return m.call(ctx, "SendCustomCommand", q)
}

func (m *Moderator) call(ctx context.Context, action string, q url.Values) error {
	nonce, err := signatureNonce()
	if err != nil {
		return err
	}
	ts := strconv.FormatInt(m.now().Unix(), 10)
	q.Set("Action", action)
	q.Set("AppId", strconv.FormatUint(uint64(m.appID), 10))
	q.Set("SignatureNonce", nonce)
	q.Set("Timestamp", ts)
	q.Set("SignatureVersion", "2.0")
	q.Set("Signature", apiSignature(m.appID, nonce, m.secret, ts))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("zego: create request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("zego %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zego %s: status %d", action, resp.StatusCode)
	}
	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("zego %s: decode response: %w", action, err)
	}
	if out.Code != 0 {
		return fmt.Errorf("zego %s: code %d: %s (request %s)", action, out.Code, out.Message, out.RequestID)
	}
	return nil
}

// apiSignature is md5(AppId + SignatureNonce + ServerSecret + Timestamp), hex encoded.
func apiSignature(appID uint32, nonce, secret, ts string) string {
	sum := md5.Sum([]byte(strconv.FormatUint(uint64(appID), 10) + nonce + secret + ts))
	return hex.EncodeToString(sum[:])
}

func signatureNonce() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("zego: nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Mirror issues the provider command matching a committed roster change. Actions
// that have no provider counterpart are ignored.
func (m *Moderator) Mirror(ctx context.Context, c coordinator.Commit) error {
	switch a := c.Action.(type) {
	case classroom.SetMuteAction:
		return m.Mute(ctx, c.RoomID, a.TargetID.String(), a.Muted)
	case classroom.MuteAllAction:
		return m.MuteAll(ctx, c.RoomID)
	case classroom.KickAction:
		return m.Kick(ctx, c.RoomID, a.TargetID.String())
	case classroom.CloseRoomAction, classroom.SweepIdleAction:
		return m.CloseRoom(ctx, c.RoomID)
	}
	return nil
}

// Hook returns a commit hook that mirrors moderation to the provider in the background.
func (m *Moderator) Hook() coordinator.CommitHook {
	return func(_ context.Context, c coordinator.Commit) {
		switch c.Action.(type) {
		case classroom.SetMuteAction, classroom.MuteAllAction, classroom.KickAction,
			classroom.CloseRoomAction, classroom.SweepIdleAction:
		default:
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.Mirror(ctx, c); err != nil {
				m.logger.Warn("provider moderation failed",
					zap.String("room_id", c.RoomID),
					zap.String("action", string(c.Action.Kind())),
					zap.Error(err))
			}
		}()
	}
}
