package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the maximum title length in characters.
const MaxTitleLength = 255

const (
	fieldBody        = "body"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldCompleted   = "completed"
)

// CreateInput is a validated create request.
type CreateInput struct {
	Title       string
	Description *string
}

// UpdateInput is a validated update request. Nil fields were absent from the
// request and must be left unchanged. Description is only applied when
// HasDescription is set, since a present null clears it.
type UpdateInput struct {
	Title          *string
	HasDescription bool
	Description    *string
	Completed      *bool
}

// ValidateCreate parses and validates a create request body.
func ValidateCreate(body []byte) (CreateInput, error) {
	fields, verr := parseBody(body)
	if verr != nil {
		return CreateInput{}, verr
	}

	verr = &ValidationError{}
	var input CreateInput

	if title, ok := validateTitle(fields[fieldTitle], verr); ok {
		input.Title = title
	}
	if raw, ok := fields[fieldDescription]; ok {
		input.Description, _ = validateDescription(raw, verr)
	}

	if len(verr.Fields) > 0 {
		return CreateInput{}, verr
	}
	return input, nil
}

// ValidateUpdate parses and validates an update request body.
// Only keys present in the body are validated.
func ValidateUpdate(body []byte) (UpdateInput, error) {
	fields, verr := parseBody(body)
	if verr != nil {
		return UpdateInput{}, verr
	}

	verr = &ValidationError{}
	var input UpdateInput

	if raw, ok := fields[fieldTitle]; ok {
		if title, ok := validateTitle(raw, verr); ok {
			input.Title = &title
		}
	}
	if raw, ok := fields[fieldDescription]; ok {
		if description, ok := validateDescription(raw, verr); ok {
			input.HasDescription = true
			input.Description = description
		}
	}
	if raw, ok := fields[fieldCompleted]; ok {
		if completed, ok := validateCompleted(raw, verr); ok {
			input.Completed = &completed
		}
	}

	if len(verr.Fields) > 0 {
		return UpdateInput{}, verr
	}
	return input, nil
}

// parseBody decodes a JSON object body into its raw members.
// An empty body is an empty object.
func parseBody(body []byte) (map[string]json.RawMessage, *ValidationError) {
	fields := make(map[string]json.RawMessage)
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fields, nil
	}
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &fields) != nil {
		verr := &ValidationError{}
		verr.add(fieldBody, "The request body must be a valid JSON object.")
		return nil, verr
	}
	return fields, nil
}

// normalizeString interprets a raw JSON value as an optional string.
// Strings are trimmed and an empty result becomes null.
// isString is false for any non-null value that is not a JSON string.
func normalizeString(raw json.RawMessage) (value *string, isString bool) {
	if isNull(raw) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	return &s, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// validateTitle applies required|string|max:255. A nil raw value is an absent key.
func validateTitle(raw json.RawMessage, verr *ValidationError) (string, bool) {
	value, isString := normalizeString(raw)
	if isString && value == nil {
		verr.add(fieldTitle, fmt.Sprintf("The %s field is required.", fieldTitle))
		return "", false
	}
	if !isString {
		verr.add(fieldTitle, fmt.Sprintf("The %s field must be a string.", fieldTitle))
		return "", false
	}
	if utf8.RuneCountInString(*value) > MaxTitleLength {
		verr.add(fieldTitle, fmt.Sprintf("The %s field must not be greater than %d characters.", fieldTitle, MaxTitleLength))
		return "", false
	}
	return *value, true
}

// validateDescription applies nullable|string.
func validateDescription(raw json.RawMessage, verr *ValidationError) (*string, bool) {
	value, isString := normalizeString(raw)
	if !isString {
		verr.add(fieldDescription, fmt.Sprintf("The %s field must be a string.", fieldDescription))
		return nil, false
	}
	return value, true
}

// validateCompleted applies boolean: true, false, 0, 1, "0" and "1" are accepted.
// String forms are trimmed like every other string input.
func validateCompleted(raw json.RawMessage, verr *ValidationError) (bool, bool) {
	value := string(bytes.TrimSpace(raw))
	var s string
	if json.Unmarshal(raw, &s) == nil {
		value = `"` + strings.TrimSpace(s) + `"`
	}
	switch value {
	case "true", "1", `"1"`:
		return true, true
	case "false", "0", `"0"`:
		return false, true
	}
	verr.add(fieldCompleted, fmt.Sprintf("The %s field must be true or false.", fieldCompleted))
	return false, false
}
