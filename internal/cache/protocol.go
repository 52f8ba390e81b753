package cache

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"schoolcal/internal/model"
)

// Message kinds understood by Handle.
const (
	ActionGet   = "cache:get"
	ActionSet   = "cache:set"
	ActionClear = "cache:clear"
)

var ErrUnknownAction = errors.New("cache: unknown action")

var validate = validator.New()

// Request is one cache message as sent by a client.
type Request struct {
	Action      string            `json:"action" validate:"required"`
	Fingerprint string            `json:"fingerprint" validate:"required"`
	Payload     *model.Extraction `json:"payload,omitempty" validate:"required_if=Action cache:set"`
}

// Response is the reply to a Request. It encodes as
//
//	{"entry": {...} | null}          for cache:get
//	{"success": true}                for cache:set / cache:clear
//	{"success": false, "error": ...} on a rejected request
type Response struct {
	Entry   *model.Extraction
	Success bool
	Err     string

	get bool
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch {
	case r.Err != "":
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, r.Err})
	case r.get:
		return json.Marshal(struct {
			Entry *model.Extraction `json:"entry"`
		}{r.Entry})
	default:
		return json.Marshal(struct {
			Success bool `json:"success"`
		}{r.Success})
	}
}

// Handle applies a single message to the store.
func (s *Store) Handle(req Request) Response {
	if err := validate.Struct(req); err != nil {
		return Response{Err: err.Error()}
	}

	switch req.Action {
	case ActionGet:
		x, ok := s.Get(req.Fingerprint)
		if !ok {
			return Response{get: true}
		}
		return Response{Entry: &x, get: true}
	case ActionSet:
		s.Set(req.Fingerprint, *req.Payload)
		return Response{Success: true}
	case ActionClear:
		s.Clear(req.Fingerprint)
		return Response{Success: true}
	default:
		return Response{Err: ErrUnknownAction.Error() + ": " + req.Action}
	}
}
