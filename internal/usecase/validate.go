package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// check runs struct validation and reports the first failure as a ValidationError.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.ValidationError{Msg: err.Error()}
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.Invalid(field, "field required")
	case "max":
		return domain.Invalid(field, "must be at most %s characters", fe.Param())
	case "email":
		return domain.Invalid(field, "must be a valid email address")
	case "gte":
		return domain.Invalid(field, "must be greater than or equal to %s", fe.Param())
	default:
		return domain.Invalid(field, "is invalid")
	}
}

func malformed(field string, err error) error {
	if errors.Is(err, jsonfield.ErrMalformed) {
		return domain.Invalid(field, "%v", err)
	}
	return err
}

// checkLengths enforces per-key max lengths on free-form form fields.
func checkLengths(values map[string]string, limits map[string]int) error {
	for key, val := range values {
		if limit, ok := limits[key]; ok && limit > 0 && utf8.RuneCountInString(val) > limit {
			return domain.Invalid(key, "must be at most %d characters", limit)
		}
	}
	return nil
}

func storeJSON(field string, v any) (datatypes.JSON, error) {
	b, err := jsonfield.Marshal(v)
	if err != nil {
		return nil, domain.Invalid(field, "%v", fmt.Errorf("encode: %w", err))
	}
	return b, nil
}
