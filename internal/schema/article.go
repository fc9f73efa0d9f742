// Package schema validates request input and turns it into model values.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
)

const MaxTitleLength = 200

var (
	errMissing   = validation.NewError("missing", "Field required")
	errTooShort  = validation.NewError("string_too_short", "String should have at least 1 character")
	errTooLong   = validation.NewError("string_too_long", fmt.Sprintf("String should have at most %d characters", MaxTitleLength))
	errBadStatus = validation.NewError("enum", "Input should be 'draft' or 'published'")
)

// articleFields is the decoded body of a create or update request. A nil
// pointer means the key was absent.
type articleFields struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

// ValidateCreate checks a create request body. Status defaults to draft.
func ValidateCreate(body []byte) (model.NewArticle, error) {
	f, typeErrs, err := decodeFields(body)
	if err != nil {
		return model.NewArticle{}, err
	}

	err = validation.ValidateStruct(f,
		validation.Field(&f.Title,
			validation.NotNil.ErrorObject(errMissing),
			validation.Required.ErrorObject(errTooShort),
			validation.RuneLength(0, MaxTitleLength).ErrorObject(errTooLong),
		),
		validation.Field(&f.Content,
			validation.NotNil.ErrorObject(errMissing),
			validation.Required.ErrorObject(errTooShort),
		),
		validation.Field(&f.Status, validation.By(statusRule)),
	)
	if err := combine(typeErrs, convertErrors(LocBody, err)); err != nil {
		return model.NewArticle{}, err
	}

	in := model.NewArticle{
		Title:   *f.Title,
		Content: *f.Content,
		Status:  model.StatusDraft,
	}
	if f.Status != nil {
		in.Status, _ = model.ParseStatus(*f.Status)
	}
	return in, nil
}

// ValidateUpdate checks an update request body and returns a patch holding
// only the fields the caller supplied.
func ValidateUpdate(body []byte) (model.Patch, error) {
	f, typeErrs, err := decodeFields(body)
	if err != nil {
		return model.Patch{}, err
	}

	err = validation.ValidateStruct(f,
		validation.Field(&f.Title,
			validation.NilOrNotEmpty.ErrorObject(errTooShort),
			validation.RuneLength(0, MaxTitleLength).ErrorObject(errTooLong),
		),
		validation.Field(&f.Content,
			validation.NilOrNotEmpty.ErrorObject(errTooShort),
		),
		validation.Field(&f.Status, validation.By(statusRule)),
	)
	if err := combine(typeErrs, convertErrors(LocBody, err)); err != nil {
		return model.Patch{}, err
	}

	p := model.Patch{Title: f.Title, Content: f.Content}
	if f.Status != nil {
		st, _ := model.ParseStatus(*f.Status)
		p.Status = &st
	}
	return p, nil
}

func statusRule(value interface{}) error {
	s, _ := value.(*string)
	if s == nil {
		return nil
	}
	if _, err := model.ParseStatus(*s); err != nil {
		return errBadStatus
	}
	return nil
}

// decodeFields reads the known keys of a JSON object. Unknown keys are
// ignored. An explicit null or a non-string value leaves the field nil and
// is reported in typeErrs; err is set only when the body is not an object.
func decodeFields(body []byte) (f *articleFields, typeErrs map[string]FieldError, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, nil, &ValidationError{Fields: []FieldError{{
				Loc:  []string{LocBody},
				Msg:  "Input should be a valid dictionary or object to extract fields from",
				Type: "model_attributes_type",
			}}}
		}
		return nil, nil, &ValidationError{Fields: []FieldError{{
			Loc:  []string{LocBody},
			Msg:  "JSON decode error",
			Type: "json_invalid",
		}}}
	}
	if raw == nil {
		// literal null body
		return nil, nil, &ValidationError{Fields: []FieldError{{
			Loc:  []string{LocBody},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
			Type: "model_attributes_type",
		}}}
	}

	f = &articleFields{}
	typeErrs = make(map[string]FieldError)
	for _, key := range []struct {
		name string
		dst  **string
	}{
		{"title", &f.Title},
		{"content", &f.Content},
		{"status", &f.Status},
	} {
		v, ok := raw[key.name]
		if !ok {
			continue
		}
		s, err := decodeString(v)
		if err != nil {
			typeErrs[key.name] = FieldError{
				Loc:  []string{LocBody, key.name},
				Msg:  "Input should be a valid string",
				Type: "string_type",
			}
			continue
		}
		*key.dst = &s
	}
	return f, typeErrs, nil
}

// combine reports type errors together with the rule failures of the other
// fields. A field with a type error was decoded as nil, so its rule failure
// is dropped in favour of the type error.
func combine(typeErrs map[string]FieldError, ruleErr error) error {
	out := &ValidationError{}
	for _, fe := range typeErrs {
		out.Fields = append(out.Fields, fe)
	}

	var ve *ValidationError
	if errors.As(ruleErr, &ve) {
		for _, fe := range ve.Fields {
			if len(fe.Loc) == 2 {
				if _, ok := typeErrs[fe.Loc[1]]; ok {
					continue
				}
			}
			out.Fields = append(out.Fields, fe)
		}
	} else if ruleErr != nil {
		return ruleErr
	}

	if len(out.Fields) == 0 {
		return nil
	}
	sort.Slice(out.Fields, func(i, j int) bool {
		return strings.Join(out.Fields[i].Loc, ".") < strings.Join(out.Fields[j].Loc, ".")
	})
	return out
}

func decodeString(v json.RawMessage) (string, error) {
	if strings.TrimSpace(string(v)) == "null" {
		return "", errors.New("null value")
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", err
	}
	return s, nil
}
