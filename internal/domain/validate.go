package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FindCriticalEventsRequest is the body accepted by the detection endpoint
// and the stream-mode source topic.
type FindCriticalEventsRequest struct {
	DaysList [][]Observation `json:"days_list" validate:"required,dive,dive"`
}

// Days converts the validated request into detector input.
func (r FindCriticalEventsRequest) Days() DaysList {
	days := make(DaysList, len(r.DaysList))
	for i, d := range r.DaysList {
		days[i] = Day(d)
	}
	return days
}

// ParseFindCriticalEventsRequest decodes and validates a detection request.
// Unknown fields are rejected.
func ParseFindCriticalEventsRequest(r io.Reader) (FindCriticalEventsRequest, error) {
	var req FindCriticalEventsRequest
	if err := DecodeStrict(r, &req, "days_list must be an array of arrays"); err != nil {
		return FindCriticalEventsRequest{}, err
	}
	if err := validate.Struct(req); err != nil {
		return FindCriticalEventsRequest{}, toValidationError(err)
	}
	return req, nil
}

// ParseDayRecords decodes and validates a stored day file: an array of
// {id, events} records. Extra fields are ignored.
func ParseDayRecords(data []byte) ([]DayRecord, error) {
	var records []DayRecord
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&records); err != nil {
		return nil, decodeError(err, "instance is not of a type(s) array")
	}
	if records == nil {
		return nil, NewValidationError("instance is not of a type(s) array")
	}
	if err := validate.Var(records, "dive"); err != nil {
		return nil, toValidationError(err)
	}
	return records, nil
}

// DecodeStrict decodes a JSON body into v, rejecting unknown fields. A type
// mismatch that is not on a string field is reported as typeMsg.
func DecodeStrict(r io.Reader, v any, typeMsg string) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError(err, typeMsg)
	}
	return nil
}

// ValidateStruct runs tag validation on any request DTO.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return toValidationError(err)
	}
	return nil
}

func decodeError(err error, typeMsg string) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		if typeErr.Type != nil && typeErr.Type.Kind() == reflect.String && typeErr.Field != "" {
			field := typeErr.Field
			if i := strings.LastIndex(field, "."); i >= 0 {
				field = field[i+1:]
			}
			return NewValidationError(field + " must be a string")
		}
		return NewValidationError(typeMsg)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return NewValidationError("malformed JSON: " + err.Error())
	default:
		return NewValidationError(err.Error())
	}
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return NewValidationError(msgs...)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	// Drop the root struct name; keep the JSON path.
	if i := strings.Index(field, "."); i >= 0 && !strings.HasPrefix(field, "[") {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Slice {
			return field + " is required"
		}
		return field + " must not be empty"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
