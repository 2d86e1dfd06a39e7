package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultCityMaxLength = 50

var (
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Address struct {
	FullName    string `json:"full_name"`
	Pincode     string `json:"pincode"`
	City        string `json:"city"`
	AddressLine string `json:"address_line"`
	Landmark    string `json:"landmark"`
}

// Draft is the unpersisted checkout form.
type Draft struct {
	Stage   Stage   `json:"stage"`
	Contact Contact `json:"contact"`
	Address Address `json:"address"`
}

func NewDraft() Draft {
	return Draft{Stage: StageCart}
}

// DigitsOnly drops every non-digit rune. Phone input is normalised with it
// when entered; validation itself does not strip.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < utf8.RuneSelf {
			return r
		}
		return -1
	}, s)
}

// Validate checks phone then email and returns the first failure.
func (c Contact) Validate() error {
	switch {
	case c.Phone == "":
		return invalid(FieldPhone, ReasonMissing, "phone number is required")
	case !phonePattern.MatchString(c.Phone):
		return invalid(FieldPhone, ReasonMalformed, "phone number must be exactly 10 digits")
	}

	email := strings.TrimSpace(c.Email)
	switch {
	case email == "":
		return invalid(FieldEmail, ReasonMissing, "email is required")
	case !emailPattern.MatchString(email):
		return invalid(FieldEmail, ReasonMalformed, "email must look like name@domain.tld")
	}
	return nil
}

// Validate checks the address fields in form order and returns the first failure.
// cityMax <= 0 falls back to DefaultCityMaxLength.
func (a Address) Validate(cityMax int) error {
	if cityMax <= 0 {
		cityMax = DefaultCityMaxLength
	}

	pincode := strings.TrimSpace(a.Pincode)
	switch {
	case pincode == "":
		return invalid(FieldPincode, ReasonMissing, "pincode is required")
	case !pincodePattern.MatchString(pincode):
		return invalid(FieldPincode, ReasonMalformed, "pincode must be exactly 6 digits")
	}

	city := strings.TrimSpace(a.City)
	switch {
	case city == "":
		return invalid(FieldCity, ReasonMissing, "city is required")
	case utf8.RuneCountInString(city) > cityMax:
		return invalid(FieldCity, ReasonTooLong, "city is too long")
	}

	if strings.TrimSpace(a.FullName) == "" {
		return invalid(FieldFullName, ReasonMissing, "full name is required")
	}
	if strings.TrimSpace(a.AddressLine) == "" {
		return invalid(FieldAddressLine, ReasonMissing, "address is required")
	}
	if strings.TrimSpace(a.Landmark) == "" {
		return invalid(FieldLandmark, ReasonMissing, "landmark is required")
	}
	return nil
}
