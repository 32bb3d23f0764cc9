package http

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"playlater/internal/entity"
	"playlater/internal/httpx"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("libstatus", validateLibraryStatus)
	validate.RegisterValidation("acquisition", validateAcquisitionType)
	validate.RegisterValidation("password_strength", validatePasswordStrength)
}

func validateLibraryStatus(fl validator.FieldLevel) bool {
	_, err := entity.ParseLibraryStatus(fl.Field().String())
	return err == nil
}

func validateAcquisitionType(fl validator.FieldLevel) bool {
	return entity.ValidAcquisitionType(fl.Field().String())
}

func validatePasswordStrength(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasNumber = true
		case strings.ContainsRune(`!@#$%^&*()_+-=[]{};':"\|,.<>/?`, c):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}

func ValidateStruct(s interface{}) []httpx.ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var details []httpx.ErrorDetail
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		tag := err.Tag()
		param := err.Param()

		var message string
		switch tag {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, param)
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", field, param)
		case "libstatus":
			message = fmt.Sprintf("%s must be a valid library status", field)
		case "acquisition":
			message = fmt.Sprintf("%s must be one of DIGITAL, PHYSICAL, SUBSCRIPTION", field)
		case "password_strength":
			message = fmt.Sprintf("%s must be at least 8 characters with uppercase, lowercase, number, and special character", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		fieldName := strings.ToLower(field[:1]) + field[1:]
		details = append(details, httpx.ErrorDetail{
			Field:   fieldName,
			Message: message,
		})
	}

	return details
}
