package command

import (
	"errors"
	"fmt"
)

// ErrUnknownCommand is returned for lines without a known verb.
var ErrUnknownCommand = errors.New("unknown command, type 'help' for available commands")

// ParseError is returned when a known verb is followed by arguments that do
// not match its grammar.
type ParseError struct {
	Verb string
	Args string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid arguments %q for %s, use: %s", e.Args, e.Verb, usage[e.Verb])
}
