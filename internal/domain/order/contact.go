package order

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

var ErrInvalidContact = errors.New("invalid contact details")

// Contact is the delivery form filled in at checkout.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Comment   string `json:"comment,omitempty"`
}

// Normalize trims every field.
func (c Contact) Normalize() Contact {
	return Contact{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
		Address:   strings.TrimSpace(c.Address),
		Comment:   strings.TrimSpace(c.Comment),
	}
}

// Validate reports the first invalid field.
func (c Contact) Validate() error {
	if utf8.RuneCountInString(c.FirstName) < 2 {
		return fmt.Errorf("%w: first name must have at least 2 characters", ErrInvalidContact)
	}
	if utf8.RuneCountInString(c.LastName) < 2 {
		return fmt.Errorf("%w: last name must have at least 2 characters", ErrInvalidContact)
	}
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return fmt.Errorf("%w: email is not valid", ErrInvalidContact)
	}
	if utf8.RuneCountInString(c.Phone) < 10 {
		return fmt.Errorf("%w: phone number is too short", ErrInvalidContact)
	}
	if utf8.RuneCountInString(c.Address) < 5 {
		return fmt.Errorf("%w: address is too short", ErrInvalidContact)
	}
	return nil
}
