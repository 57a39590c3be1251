package server

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidCharacter = errors.New("invalid character_id")
)

const maxNameLength = 50

var characterPattern = regexp.MustCompile(`^(female|male)-[a-f]$`)

// userError carries the exact message shown to the client and the sentinel
// it belongs to.
type userError struct {
	kind error
	msg  string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.kind }

// ParseConnectParams validates the connect query. The name comes back
// trimmed and the character id lowercased. An empty value counts as missing.
func ParseConnectParams(q url.Values) (Identity, error) {
	if q.Get("name") == "" {
		return Identity{}, &userError{ErrInvalidName, "Missing required parameter: name"}
	}
	if q.Get("character_id") == "" {
		return Identity{}, &userError{ErrInvalidCharacter, "Missing required parameter: character_id"}
	}

	name := strings.TrimSpace(q.Get("name"))
	switch {
	case name == "":
		return Identity{}, &userError{ErrInvalidName, "Name cannot be empty"}
	case utf8.RuneCountInString(name) > maxNameLength:
		return Identity{}, &userError{ErrInvalidName, fmt.Sprintf("Name must be %d characters or less", maxNameLength)}
	}

	character := strings.ToLower(q.Get("character_id"))
	if !characterPattern.MatchString(character) {
		return Identity{}, &userError{ErrInvalidCharacter, "Invalid character_id format"}
	}
	return Identity{Name: name, CharacterID: character}, nil
}
