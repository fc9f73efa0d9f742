package schema

import (
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var (
	errSkipNegative = validation.NewError("greater_than_equal", "Input should be greater than or equal to 0")
	errLimitLow     = validation.NewError("greater_than_equal", "Input should be greater than or equal to 1")
	errLimitHigh    = validation.NewError("less_than_equal", "Input should be less than or equal to 1000")
)

// ListQuery holds the validated parameters of a list request.
type ListQuery struct {
	Status        *model.Status
	TitleContains string
	Skip          int
	Limit         int
}

// ValidateListQuery parses and checks list query parameters, applying the
// defaults skip=0 and limit=100.
func ValidateListQuery(q url.Values) (ListQuery, error) {
	lq := ListQuery{
		TitleContains: q.Get("title_contains"),
		Limit:         DefaultLimit,
	}

	var errs []error
	if q.Has("status") {
		st, err := model.ParseStatus(q.Get("status"))
		if err != nil {
			errs = append(errs, NewFieldError(LocQuery, "status", errBadStatus.Code(), errBadStatus.Message()))
		} else {
			lq.Status = &st
		}
	}
	if q.Has("skip") {
		n, err := parseInt(LocQuery, "skip", q.Get("skip"))
		if err != nil {
			errs = append(errs, err)
		}
		lq.Skip = n
	}
	if q.Has("limit") {
		n, err := parseInt(LocQuery, "limit", q.Get("limit"))
		if err != nil {
			errs = append(errs, err)
		}
		lq.Limit = n
	}
	if err := merge(errs...); err != nil {
		return ListQuery{}, err
	}

	// ozzo treats 0 as empty and skips threshold rules for it, so Required
	// enforces the lower bound of limit.
	err := validation.Errors{
		"skip": validation.Validate(lq.Skip, validation.Min(0).ErrorObject(errSkipNegative)),
		"limit": validation.Validate(lq.Limit,
			validation.Required.ErrorObject(errLimitLow),
			validation.Min(1).ErrorObject(errLimitLow),
			validation.Max(MaxLimit).ErrorObject(errLimitHigh),
		),
	}.Filter()
	if err := convertErrors(LocQuery, err); err != nil {
		return ListQuery{}, err
	}
	return lq, nil
}

// ParseID parses an article id path parameter.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewFieldError(LocPath, "article_id", "int_parsing", "Input should be a valid integer, unable to parse string as an integer")
	}
	return id, nil
}

func parseInt(loc, field, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, NewFieldError(loc, field, "int_parsing", "Input should be a valid integer, unable to parse string as an integer")
	}
	return n, nil
}
