package loaders

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domainloader "github.com/flowforge/streamline/internal/domain/loader"
)

var (
	validatorOnce   sync.Once
	sharedValidator *validator.Validate
)

// Validator returns the shared go-playground/validator instance every
// concrete loader's struct-tag validation runs against, created once.
// Only the validator's built-in tags are available; no custom checks
// are registered.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		sharedValidator = validator.New()
	})
	return sharedValidator
}

// ValidateStruct runs struct-tag validation against target and converts
// validator.ValidationErrors into a domainloader.ValidationResult, the
// shape Spec.Validate returns.
func ValidateStruct(target any) domainloader.ValidationResult {
	err := Validator().Struct(target)
	if err == nil {
		return domainloader.ValidationResult{Valid: true}
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domainloader.ValidationResult{
			Valid:  false,
			Errors: []domainloader.FieldError{domainloader.FieldErr("", "INVALID", err.Error())},
		}
	}
	result := domainloader.ValidationResult{Valid: false}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, domainloader.FieldError{
			Field:   lowerFirst(fe.Field()),
			Code:    strings.ToUpper(fe.Tag()),
			Message: fe.Error(),
		})
	}
	return result
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
