package services

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 2000
	maxBatchSize         = 100
)

// slugRule validates a slug field with the shared slug grammar
var slugRule = validation.By(func(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if s == "" {
		return nil
	}
	var ve *domain.ValidationError
	if err := domain.ValidateSlug(s); errors.As(err, &ve) {
		return errors.New(ve.Message)
	}
	return nil
})

// toValidationError converts ozzo validation errors into a domain ValidationError.
// The alphabetically first failing field is reported.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &domain.ValidationError{Field: keys[0], Message: fields[keys[0]].Error()}
}
