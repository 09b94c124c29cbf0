package zego

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Room event names sent by the provider callback.
const (
	EventRoomLogin  = "room_login"
	EventRoomLogout = "room_logout"
	EventRoomClose  = "room_close"
)

// Event is a room callback from the provider. Times are unix milliseconds as strings.
type Event struct {
	Event        string `json:"event"`
	AppID        string `json:"appid"`
	Timestamp    string `json:"timestamp"`
	Nonce        string `json:"nonce"`
	Signature    string `json:"signature"`
	RoomID       string `json:"room_id"`
	UserAccount  string `json:"user_account"`
	UserNickname string `json:"user_nickname"`
	LoginTime    string `json:"login_time"`
	LogoutTime   string `json:"logout_time"`
	CloseTime    string `json:"close_time"`
}

// VerifySignature checks sha1(sorted(secret, timestamp, nonce)) against the event signature.
func VerifySignature(secret string, e Event) bool {
	if secret == "" || e.Signature == "" {
		return false
	}
	want := CallbackSignature(secret, e.Timestamp, e.Nonce)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(e.Signature))) == 1
}

// CallbackSignature computes the provider's callback signature.
func CallbackSignature(secret, timestamp, nonce string) string {
	parts := []string{secret, timestamp, nonce}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// At returns the time the event happened, or the zero time when the provider omitted it.
func (e Event) At() time.Time {
	var raw string
	switch e.Event {
	case EventRoomLogin:
		raw = e.LoginTime
	case EventRoomLogout:
		raw = e.LogoutTime
	case EventRoomClose:
		raw = e.CloseTime
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
