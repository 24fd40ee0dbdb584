package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUser(t *testing.T) {
	res := ValidateUser(UserInput{Name: "Ann Lee", Email: "ann@x.com", Password: "secret1"})
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)

	res = ValidateUser(UserInput{Name: " A ", Email: "ann@x", Password: "12345"})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"Name must be at least 2 characters long",
		"Please provide a valid email address",
		"Password must be at least 6 characters long",
	}, res.Errors)
}

func TestValidateUser_NumberPlate(t *testing.T) {
	good := " ab123 "
	res := ValidateUser(UserInput{Name: "Ann", Email: "ann@x.com", Password: "secret1", NumberPlate: &good})
	assert.True(t, res.IsValid)

	bad := "AB-12"
	res = ValidateUser(UserInput{Name: "Ann", Email: "ann@x.com", Password: "secret1", NumberPlate: &bad})
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "Number plate must be 3 to 8 letters or digits")

	empty := ""
	res = ValidateUser(UserInput{Name: "Ann", Email: "ann@x.com", Password: "secret1", NumberPlate: &empty})
	assert.True(t, res.IsValid)
}

func TestValidateCase(t *testing.T) {
	res := ValidateCase(CaseInput{
		Violation: "Speeding 80 in 50",
		Fine:      150,
		ProofURL:  "https://cdn.example.com/p.jpg",
		Location:  "Main St",
		Date:      "2026-03-01T10:00:00Z",
	})
	assert.True(t, res.IsValid)

	res = ValidateCase(CaseInput{Violation: "x", Fine: 0, ProofURL: " ", Location: "ab", Date: "yesterday"})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"Violation description must be at least 5 characters long",
		"Fine amount must be greater than 0",
		"Proof URL is required",
		"Location must be at least 3 characters long",
		"Please provide a valid violation date",
	}, res.Errors)
}

func TestValidateCase_NegativeFine(t *testing.T) {
	res := ValidateCase(CaseInput{Violation: "Parking", Fine: -5, ProofURL: "u", Location: "Lot", Date: "2026-01-01"})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Fine amount must be greater than 0"}, res.Errors)
}

func TestValidateCase_SubCentFine(t *testing.T) {
	res := ValidateCase(CaseInput{Violation: "Parking", Fine: 0.001, ProofURL: "u", Location: "Lot", Date: "2026-01-01"})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Fine amount must be greater than 0"}, res.Errors)

	assert.True(t, ValidateCase(CaseInput{Violation: "Parking", Fine: 0.01, ProofURL: "u", Location: "Lot", Date: "2026-01-01"}).IsValid)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 0.0, RoundCents(0.001))
	assert.Equal(t, 100.25, RoundCents(100.249))
	assert.Equal(t, 100.26, RoundCents(100.256))
	assert.Equal(t, 80.0, RoundCents(80))
}

func TestValidateQuery(t *testing.T) {
	assert.True(t, ValidateQuery(QueryInput{Subject: "Refund", Message: "I was charged twice"}).IsValid)

	res := ValidateQuery(QueryInput{Subject: "Hi", Message: "   short   "})
	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, 2)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-04-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-04-05T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = ParseDate("")
	assert.Error(t, err)
	_, err = ParseDate("05/04/2026")
	assert.Error(t, err)
}

func TestValidNumberPlate(t *testing.T) {
	assert.True(t, ValidNumberPlate("abc123"))
	assert.False(t, ValidNumberPlate("ab"))
	assert.False(t, ValidNumberPlate("ABCDEFGHI"))
	assert.Equal(t, "KA01", NormalizeNumberPlate(" ka01 "))
}
