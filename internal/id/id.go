// Package id generates identifiers for stored documents.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// autoAlphabet matches the auto ids of imported documents, so new ids and
// migrated ones look alike.
const (
	autoAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	autoLength   = 20
)

// Auto creates a 20 character alphanumeric document id.
func Auto() (string, error) {
	v, err := gonanoid.Generate(autoAlphabet, autoLength)
	if err != nil {
		return "", fmt.Errorf("generate auto id: %w", err)
	}
	return v, nil
}
