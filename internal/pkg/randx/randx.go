/*
Package randx generates identifiers: UUID page ids and Base62 confirmation tokens drawn
from crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ConfirmTokenLength is the length of a cancellation confirmation token.
	ConfirmTokenLength = 16
)

// PageID returns a new UUID v4 string identifying an open page.
func PageID() string {
	return uuid.New().String()
}

// IsValidPageID reports whether id parses as a UUID.
func IsValidPageID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ConfirmToken returns a random Base62 string of ConfirmTokenLength characters.
func ConfirmToken() (string, error) {
	result := make([]byte, ConfirmTokenLength)

	for i := range ConfirmTokenLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for confirm token: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}
