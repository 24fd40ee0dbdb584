// Package validation checks the shape of creation payloads before they reach storage.
package validation

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	numberPlatePattern = regexp.MustCompile(`^[A-Z0-9]{3,8}$`)

	dateLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}

	validate = newValidator()
)

// Result is the outcome of a payload check. It never carries a Go error.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// UserInput is the subset of a user payload that is validated.
type UserInput struct {
	Name        string
	Email       string
	Password    string
	NumberPlate *string
}

// CaseInput is the subset of a case payload that is validated.
type CaseInput struct {
	Violation string
	Fine      float64
	ProofURL  string
	Location  string
	Date      string
}

// QueryInput is the subset of a query payload that is validated.
type QueryInput struct {
	Subject string
	Message string
}

type userPayload struct {
	Name        string `validate:"min=2"`
	Email       string `validate:"simple_email"`
	Password    string `validate:"min=6"`
	NumberPlate string `validate:"omitempty,number_plate"`
}

type casePayload struct {
	Violation string  `validate:"min=5"`
	Fine      float64 `validate:"gt=0"`
	ProofURL  string  `validate:"required"`
	Location  string  `validate:"min=3"`
	Date      string  `validate:"iso_date"`
}

type queryPayload struct {
	Subject string `validate:"min=5"`
	Message string `validate:"min=10"`
}

var messages = map[string]string{
	"Name":        "Name must be at least 2 characters long",
	"Email":       "Please provide a valid email address",
	"Password":    "Password must be at least 6 characters long",
	"NumberPlate": "Number plate must be 3 to 8 letters or digits",
	"Violation":   "Violation description must be at least 5 characters long",
	"Fine":        "Fine amount must be greater than 0",
	"ProofURL":    "Proof URL is required",
	"Location":    "Location must be at least 3 characters long",
	"Date":        "Please provide a valid violation date",
	"Subject":     "Subject must be at least 5 characters long",
	"Message":     "Message must be at least 10 characters long",
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("number_plate", func(fl validator.FieldLevel) bool {
		return numberPlatePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateUser checks a user creation payload.
func ValidateUser(in UserInput) Result {
	payload := userPayload{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	}
	if in.NumberPlate != nil {
		payload.NumberPlate = NormalizeNumberPlate(*in.NumberPlate)
	}
	return run(payload)
}

// ValidateCase checks a case creation payload.
func ValidateCase(in CaseInput) Result {
	return run(casePayload{
		Violation: strings.TrimSpace(in.Violation),
		Fine:      RoundCents(in.Fine),
		ProofURL:  strings.TrimSpace(in.ProofURL),
		Location:  strings.TrimSpace(in.Location),
		Date:      strings.TrimSpace(in.Date),
	})
}

// RoundCents rounds a monetary amount to two decimal places, the precision it is stored at.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ValidateQuery checks a query creation payload.
func ValidateQuery(in QueryInput) Result {
	return run(queryPayload{
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	})
}

// ValidEmail reports whether email has the accepted shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidNumberPlate reports whether plate, once normalized, has the accepted shape.
func ValidNumberPlate(plate string) bool {
	return numberPlatePattern.MatchString(NormalizeNumberPlate(plate))
}

// NormalizeNumberPlate trims and upper-cases a plate.
func NormalizeNumberPlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// ParseDate accepts RFC 3339 instants and plain calendar dates.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

func run(payload any) Result {
	err := validate.Struct(payload)
	if err == nil {
		return Result{IsValid: true, Errors: []string{}}
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Result{IsValid: false, Errors: []string{err.Error()}}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		out = append(out, msg)
	}
	return Result{IsValid: false, Errors: out}
}
