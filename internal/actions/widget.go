package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dotcommander/playbook/internal/models"
)

// widgetData is the loosely typed payload the assistant attaches to task and
// reward events.
type widgetData struct {
	Title      string   `json:"title"`
	Complexity wholeNum `json:"complexity"`
	Cost       wholeNum `json:"cost"`
	Tier       string   `json:"tier"`
	Tags       tagList  `json:"tags"`
}

// decodeWidget returns ok=false when the event carries no widget payload.
func decodeWidget(log models.ActionLog) (widgetData, bool, error) {
	var w widgetData
	if log.Metadata == nil {
		return w, false, nil
	}
	raw := bytes.TrimSpace(log.Metadata.WidgetData)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return w, false, nil
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return w, false, fmt.Errorf("decode widget data: %w", err)
	}
	w.Title = strings.TrimSpace(w.Title)
	return w, true, nil
}

// wholeNum accepts JSON integers, integral floats and numeric strings.
type wholeNum int

func (n *wholeNum) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if s == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a whole number: %s", b)
	}
	*n = wholeNum(f)
	return nil
}

// tagList accepts either a list of tags or a single tag string.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = tagList{s}
		return nil
	default:
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("tags must be a string or a list of strings: %w", err)
		}
		*t = list
		return nil
	}
}

func (t tagList) first() string {
	for _, s := range t {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
