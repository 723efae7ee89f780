// Package validate adapts ozzo-validation results to the single
// human-readable message the API returns.
package validate

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

// FirstMessage returns the message of the first failing field, checking
// fields in the given order. Fields not listed are checked afterwards in
// name order so the result is deterministic.
func FirstMessage(err error, fields ...string) string {
	if err == nil {
		return ""
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	for _, f := range fields {
		if fe, ok := errs[f]; ok && fe != nil {
			return message(fe)
		}
	}

	keys := make([]string, 0, len(errs))
	for k, fe := range errs {
		if fe != nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return err.Error()
	}
	sort.Strings(keys)
	return message(errs[keys[0]])
}

// nested struct or slice validation returns Errors again
func message(err error) string {
	var nested validation.Errors
	if errors.As(err, &nested) {
		return FirstMessage(nested)
	}
	return err.Error()
}
