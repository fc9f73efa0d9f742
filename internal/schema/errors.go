package schema

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Locations of an invalid value in a request.
const (
	LocBody  = "body"
	LocQuery = "query"
	LocPath  = "path"
)

// FieldError describes one invalid input value.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned when request input fails validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, strings.Join(f.Loc, ".")+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewFieldError builds a single-field ValidationError.
func NewFieldError(loc, field, typ, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{
		Loc:  []string{loc, field},
		Msg:  msg,
		Type: typ,
	}}}
}

// convertErrors turns ozzo validation errors into a ValidationError with
// fields sorted by name so responses are stable.
func convertErrors(loc string, err error) error {
	if err == nil {
		return nil
	}

	var ve validation.Errors
	if !errors.As(err, &ve) {
		return &ValidationError{Fields: []FieldError{{
			Loc:  []string{loc},
			Msg:  err.Error(),
			Type: "value_error",
		}}}
	}

	names := make([]string, 0, len(ve))
	for name := range ve {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &ValidationError{}
	for _, name := range names {
		fieldErr := ve[name]
		if fieldErr == nil {
			continue
		}
		fe := FieldError{
			Loc:  []string{loc, name},
			Msg:  fieldErr.Error(),
			Type: "value_error",
		}
		var eo validation.Error
		if errors.As(fieldErr, &eo) {
			fe.Msg = eo.Message()
			fe.Type = eo.Code()
		}
		out.Fields = append(out.Fields, fe)
	}
	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

// merge joins several ValidationErrors into one. Nil entries are skipped.
func merge(errs ...error) error {
	out := &ValidationError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			out.Fields = append(out.Fields, ve.Fields...)
			continue
		}
		out.Fields = append(out.Fields, FieldError{Msg: err.Error(), Type: "value_error"})
	}
	if len(out.Fields) == 0 {
		return nil
	}
	return out
}
