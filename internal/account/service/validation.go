package service

import (
	"net/mail"
	"unicode"
	"unicode/utf8"

	"github.com/filmdoms/community/internal/account/domain"
	"github.com/filmdoms/community/internal/common/constants"
)

func validateEmail(email string) error {
	if email == "" || len(email) > constants.EmailMaxLength {
		return domain.ErrValidationEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.ErrValidationEmail
	}
	return nil
}

// validateNickname counts runes, so Hangul nicknames get the same limits as
// Latin ones.
func validateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < constants.NicknameMinLength || n > constants.NicknameMaxLength {
		return domain.ErrValidationNicknameLength
	}
	if !isValidNickname(nickname) {
		return domain.ErrValidationNicknameChars
	}
	return nil
}

// validatePassword limits bytes, not runes: bcrypt ignores everything past
// 72 bytes.
func validatePassword(password string) error {
	if len(password) < constants.PasswordMinLength || len(password) > constants.PasswordMaxLength {
		return domain.ErrValidationPasswordLength
	}
	if !isValidPassword(password) {
		return domain.ErrValidationPasswordLetterDigit
	}
	return nil
}

func isValidNickname(value string) bool {
	runes := []rune(value)
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return false
		}
	}

	first, last := runes[0], runes[len(runes)-1]
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) {
		return false
	}
	if !unicode.IsLetter(last) && !unicode.IsDigit(last) {
		return false
	}

	return true
}

func isValidPassword(value string) bool {
	hasLetter := false
	hasDigit := false

	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}

	return false
}
