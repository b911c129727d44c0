package services

import (
	"strings"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalizeEmail trims and lowercases an address. Lookups and uniqueness
// always use the normalized form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkEmail accepts addresses with a single "@", a non-empty local part and
// a dotted domain without empty labels.
func checkEmail(email string) error {
	invalid := common.NewValidationError("Please provide a valid email address")

	if strings.ContainsAny(email, " \t\r\n") || strings.Count(email, "@") != 1 {
		return invalid
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return invalid
	}

	_, domain, _ := strings.Cut(email, "@")
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return invalid
	}
	for _, l := range labels {
		if l == "" {
			return invalid
		}
	}
	return nil
}
