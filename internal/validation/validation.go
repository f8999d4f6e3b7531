// Package validation checks command inputs at the service boundary.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"upvcerp/pkg/domain"
)

// DefaultRegion is used for phone numbers written without a country code.
const DefaultRegion = "IN"

// Validator wraps validator/v10 with the project's custom tags.
type Validator struct {
	v      *validator.Validate
	region string
}

// New returns a Validator that parses phone numbers relative to region.
func New(region string) *Validator {
	if region == "" {
		region = DefaultRegion
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	out := &Validator{v: v, region: region}
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String(), out.region) == nil
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return ValidDate(fl.Field().String())
	})
	return out
}

// Struct validates s and converts failures into *domain.ValidationError keyed
// by the JSON path of each offending field.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return &domain.ValidationError{Fields: fields}
}

func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// ValidatePhone reports whether number is a valid phone number for region.
func ValidatePhone(number, region string) error {
	p, err := libphonenumber.Parse(number, region)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number %q is not valid", number)
	}
	return nil
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}
