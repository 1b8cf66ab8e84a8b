package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgnsrekt/vue_devtools_enabler/internal/types"
)

var (
	// ErrUnknownTag is returned for a type outside the closed message set.
	ErrUnknownTag = errors.New("protocol: unknown message type")
	// ErrMissingField is returned when a required payload field is absent.
	ErrMissingField = errors.New("protocol: missing required field")
)

// wire is the JSON shape shared by every message.
type wire struct {
	Type            Tag                    `json:"type"`
	RequestID       string                 `json:"requestId,omitempty"`
	TabID           types.TabID            `json:"tabId,omitempty"`
	DetectionResult *types.DetectionResult `json:"detectionResult,omitempty"`
	Success         *bool                  `json:"success,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Detail          string                 `json:"detail,omitempty"`
}

// Encode renders m in its wire form.
func Encode(m Message) ([]byte, error) {
	w := wire{Type: m.Tag()}
	switch v := m.(type) {
	case GetVersion:
		w.RequestID, w.TabID = v.RequestID, v.TabID
	case Version:
		r := v.Result
		w.RequestID, w.DetectionResult = v.RequestID, &r
	case ActivateLegacy:
		w.RequestID, w.TabID, w.DetectionResult = v.RequestID, v.TabID, v.Result
	case ActivateModern:
		r := v.Result
		w.RequestID, w.TabID, w.DetectionResult = v.RequestID, v.TabID, &r
	case EnableInspection:
		r := v.Result
		w.RequestID, w.TabID, w.DetectionResult = v.RequestID, v.TabID, &r
	case Injected:
		ok := v.Result.Success
		w.RequestID, w.Success = v.RequestID, &ok
		w.Error, w.Detail = v.Result.Error, v.Result.Detail
	case TabVisible:
		w.TabID = v.TabID
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTag, m)
	}
	return json.Marshal(w)
}

// Decode parses a wire message and validates its required fields.
func Decode(data []byte) (Message, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("protocol: decode: %w", err)
	}

	switch w.Type {
	case TagGetVersion:
		return GetVersion{RequestID: w.RequestID, TabID: w.TabID}, nil

	case TagVersion:
		if w.DetectionResult == nil {
			return nil, fmt.Errorf("%w: %s.detectionResult", ErrMissingField, w.Type)
		}
		return Version{RequestID: w.RequestID, Result: *w.DetectionResult}, nil

	case TagActivateLegacy:
		return ActivateLegacy{RequestID: w.RequestID, TabID: w.TabID, Result: w.DetectionResult}, nil

	case TagActivateModern:
		if w.DetectionResult == nil || !w.DetectionResult.Detected() {
			return nil, fmt.Errorf("%w: %s.detectionResult", ErrMissingField, w.Type)
		}
		return ActivateModern{RequestID: w.RequestID, TabID: w.TabID, Result: *w.DetectionResult}, nil

	case TagEnableInspection:
		if w.DetectionResult == nil {
			return nil, fmt.Errorf("%w: %s.detectionResult", ErrMissingField, w.Type)
		}
		if w.TabID == "" {
			return nil, fmt.Errorf("%w: %s.tabId", ErrMissingField, w.Type)
		}
		return EnableInspection{RequestID: w.RequestID, TabID: w.TabID, Result: *w.DetectionResult}, nil

	case TagInjected:
		if w.Success == nil {
			return nil, fmt.Errorf("%w: %s.success", ErrMissingField, w.Type)
		}
		return Injected{
			RequestID: w.RequestID,
			Result:    types.ActivationResult{Success: *w.Success, Error: w.Error, Detail: w.Detail},
		}, nil

	case TagTabVisible:
		return TabVisible{TabID: w.TabID}, nil

	case "":
		return nil, fmt.Errorf("%w: type", ErrMissingField)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, w.Type)
	}
}
