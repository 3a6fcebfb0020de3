package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/mattsolo1/grove-gallery/pkg/conversation"
)

// Response types written by the helper, one JSON object per line.
const (
	typeApps         = "apps"
	typeConversation = "conversation"
	typeAppActivated = "app-activated"
	typeError        = "error"
)

// Error codes the helper reports when it cannot walk the chat window.
const (
	CodeNoWindow      = "no_window"
	CodeNoWebArea     = "no_webarea"
	CodeNoMainContent = "no_main_content"
	CodeNoScrollArea  = "no_scroll_area"
)

// Error is a failure reported by the helper itself.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("helper error %s: %s", e.Code, e.Message)
}

// Navigation reports whether the helper could not find the conversation in
// the app's window, which usually means accessibility access is missing or
// no chat is open.
func (e *Error) Navigation() bool {
	switch e.Code {
	case CodeNoWindow, CodeNoWebArea, CodeNoMainContent, CodeNoScrollArea:
		return true
	}
	return false
}

// AppInfo describes a running application.
type AppInfo struct {
	Name             string `json:"name"`
	PID              int    `json:"pid"`
	BundleIdentifier string `json:"bundleIdentifier"`
}

// AppActivated is pushed by the helper when an application comes to the
// foreground.
type AppActivated struct {
	BundleID string `json:"bundleId"`
	PID      int    `json:"pid"`
}

type command struct {
	Command string `json:"command"`
	PID     int    `json:"pid,omitempty"`
}

type appsResponse struct {
	Apps []AppInfo `json:"apps"`
}

func encodeCommand(c command) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s command: %w", c.Command, err)
	}
	return append(data, '\n'), nil
}

// responseType peeks at the type field without decoding the whole line.
func responseType(line []byte) string {
	return gjson.GetBytes(line, "type").String()
}

func decodeError(line []byte) *Error {
	return &Error{
		Code:    gjson.GetBytes(line, "code").String(),
		Message: gjson.GetBytes(line, "message").String(),
	}
}

func decodeApps(line []byte) ([]AppInfo, error) {
	var resp appsResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode apps response: %w", err)
	}
	return resp.Apps, nil
}

func decodeConversation(line []byte) (conversation.Snapshot, error) {
	var snap conversation.Snapshot
	if err := json.Unmarshal(line, &snap); err != nil {
		return conversation.Snapshot{}, fmt.Errorf("decode conversation response: %w", err)
	}
	return snap, nil
}

func decodeAppActivated(line []byte) (AppActivated, error) {
	var ev AppActivated
	if err := json.Unmarshal(line, &ev); err != nil {
		return AppActivated{}, fmt.Errorf("decode app-activated event: %w", err)
	}
	return ev, nil
}
