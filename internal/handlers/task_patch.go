package handlers

import (
	"errors"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/services"
)

var (
	errInvalidTaskField = errors.New("invalid task field")
	errInvalidDueDate   = errors.New("due_date must be an RFC3339 timestamp")
)

// parseTaskPatch converts a decoded JSON object into an UpdateTaskInput,
// distinguishing absent keys from explicit nulls.
func parseTaskPatch(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	stringField := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, errInvalidTaskField
		}
		return &s, nil
	}

	var err error
	if input.Title, err = stringField("title"); err != nil {
		return input, err
	}
	if input.Description, err = stringField("description"); err != nil {
		return input, err
	}

	status, err := stringField("status")
	if err != nil {
		return input, err
	}
	if status != nil {
		s := models.TaskStatus(*status)
		input.Status = &s
	}

	priority, err := stringField("priority")
	if err != nil {
		return input, err
	}
	if priority != nil {
		p := models.TaskPriority(*priority)
		input.Priority = &p
	}

	if v, ok := raw["due_date"]; ok {
		switch due := v.(type) {
		case nil:
			input.ClearDueDate = true
		case string:
			parsed, err := time.Parse(time.RFC3339, due)
			if err != nil {
				return input, errInvalidDueDate
			}
			input.DueDate = &parsed
		default:
			return input, errInvalidDueDate
		}
	}

	if v, ok := raw["client_id"]; ok {
		switch id := v.(type) {
		case nil:
			input.ClearClient = true
		case float64:
			if id <= 0 || id != float64(uint64(id)) {
				return input, errInvalidTaskField
			}
			clientID := uint64(id)
			input.ClientID = &clientID
		default:
			return input, errInvalidTaskField
		}
	}

	return input, nil
}
