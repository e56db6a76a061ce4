package validator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/cinetix/movie-ticket-booking/internal/domain"
	"github.com/go-playground/validator/v10"
)

var seatLabelRgx = regexp.MustCompile(`^[A-Z][0-9]{1,2}$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seat_label", validateSeatLabel)
	validator.RegisterValidation("show_date", validateShowDate)
	validator.RegisterValidation("time_label", validateTimeLabel)

	return validator
}

func validateSeatLabel(fl validator.FieldLevel) bool {
	return seatLabelRgx.MatchString(fl.Field().String())
}

func validateShowDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(domain.ShowDateLayout, fl.Field().String())
	return err == nil
}

func validateTimeLabel(fl validator.FieldLevel) bool {
	_, err := time.Parse(domain.TimeLabelLayout, fl.Field().String())
	return err == nil
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s items", err.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s items", err.Param())
	case "unique":
		return "must not contain duplicates"
	case "uuid4":
		return "must be a valid id"
	case "seat_label":
		return "must be a seat label such as A1"
	case "show_date":
		return "must be a date in YYYY-MM-DD format"
	case "time_label":
		return "must be a clock label such as 7:00 PM"
	default:
		return "is invalid"
	}
}
