package assistant

import "errors"

// ErrMalformedResponse matches every MalformedResponseError.
var ErrMalformedResponse = errors.New("malformed assistant response")

// MalformedResponseError reports a response body that is neither a list of
// action logs nor an object wrapping one.
type MalformedResponseError struct {
	Reason string
	Body   string
}

func (e *MalformedResponseError) Error() string {
	return "malformed assistant response: " + e.Reason
}

func (e *MalformedResponseError) ErrorCode() string { return "ASSISTANT_MALFORMED" }

func (e *MalformedResponseError) Context() map[string]string {
	return map[string]string{"reason": e.Reason, "body": e.Body}
}

func (e *MalformedResponseError) SuggestedAction() string {
	return "check assistant_url points at the action endpoint"
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }
