package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/playbook/internal/models"
)

// wrapperKeys are the object fields that may hold the action list.
var wrapperKeys = []string{"actions", "output", "data"}

// wireLog is an action log as the assistant sends it: ids may be missing
// and timestamps may be epoch milliseconds or RFC 3339 strings.
type wireLog struct {
	ID        json.RawMessage        `json:"id"`
	Type      models.ActionType      `json:"type"`
	Content   string                 `json:"content"`
	Metadata  *models.ActionMetadata `json:"metadata"`
	Timestamp json.RawMessage        `json:"timestamp"`
}

// ParseResponse decodes a response body into action logs. Accepted shapes
// are a bare array, an object wrapping the array under actions, output or
// data, and a single action log object.
func ParseResponse(body []byte, now time.Time) ([]models.ActionLog, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, malformed("empty body", body)
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, malformed("invalid array: "+err.Error(), body)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, malformed("invalid object: "+err.Error(), body)
		}
		found := false
		for _, key := range wrapperKeys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, malformed(fmt.Sprintf("%q is not an array", key), body)
			}
			found = true
			break
		}
		if !found {
			if _, ok := obj["type"]; !ok {
				return nil, malformed("object has no actions", body)
			}
			items = []json.RawMessage{body}
		}
	default:
		return nil, malformed("expected an array or an object", body)
	}

	logs := make([]models.ActionLog, 0, len(items))
	for i, raw := range items {
		log, err := decodeLog(raw, now)
		if err != nil {
			return nil, malformed(fmt.Sprintf("entry %d: %v", i, err), body)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func decodeLog(raw json.RawMessage, now time.Time) (models.ActionLog, error) {
	var w wireLog
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.ActionLog{}, err
	}
	if !w.Type.Valid() {
		return models.ActionLog{}, fmt.Errorf("unknown action type %q", w.Type)
	}
	id, err := decodeID(w.ID)
	if err != nil {
		return models.ActionLog{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	ts, err := decodeTimestamp(w.Timestamp)
	if err != nil {
		return models.ActionLog{}, err
	}
	if ts.IsZero() {
		ts = now
	}
	return models.ActionLog{
		ID:        id,
		Type:      w.Type,
		Content:   w.Content,
		Metadata:  w.Metadata,
		Timestamp: ts.UTC(),
	}, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}
	if s[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return id, nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", fmt.Errorf("invalid id %s", s)
	}
	return s, nil
}

func decodeTimestamp(raw json.RawMessage) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, err
		}
		if str == "" {
			return time.Time{}, nil
		}
		if ms, err := strconv.ParseInt(str, 10, 64); err == nil {
			return time.UnixMilli(ms), nil
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", str)
		}
		return t, nil
	}
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s", s)
	}
	return time.UnixMilli(int64(ms)), nil
}

const maxBodyInError = 512

func malformed(reason string, body []byte) *MalformedResponseError {
	b := string(body)
	if len(b) > maxBodyInError {
		b = b[:maxBodyInError]
	}
	return &MalformedResponseError{Reason: reason, Body: b}
}
