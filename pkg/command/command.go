// Package command implements the line protocol used to set the clock and
// query the moon phase over the serial console or the API.
package command

import (
	"fmt"
	"strings"

	"github.com/charlie0129/moonframe/pkg/types"
)

// Kind identifies a parsed command.
type Kind string

const (
	SetTime      Kind = "setdate"
	QueryPhase   Kind = "getphase"
	GetTime      Kind = "getdate"
	Help         Kind = "help"
	Unrecognized Kind = "unrecognized"
)

var usage = map[string]string{
	string(SetTime):    "setdate YYYY-MM-DD HH:MM:SS",
	string(QueryPhase): "getphase YYYY-MM-DD HH:MM:SS",
	string(GetTime):    "getdate",
	string(Help):       "help",
}

// Usage lists the accepted command forms.
func Usage() []string {
	return []string{
		usage[string(SetTime)],
		usage[string(QueryPhase)],
		usage[string(GetTime)],
		usage[string(Help)],
	}
}

// Command is a parsed line.
type Command struct {
	Kind Kind            `json:"kind"`
	Time types.Timestamp `json:"time"`
	Line string          `json:"line"`
}

// scanTimestamp reads six integers in the YYYY-MM-DD HH:MM:SS layout. Text
// following the seconds is ignored and no range check is done.
func scanTimestamp(s string) (types.Timestamp, bool) {
	var ts types.Timestamp
	n, err := fmt.Sscanf(s, "%d-%d-%d %d:%d:%d", &ts.Year, &ts.Month, &ts.Day, &ts.Hour, &ts.Minute, &ts.Second)
	return ts, err == nil && n == 6
}

// Parse turns line into a Command. On error the returned Command has Kind
// Unrecognized. setdate arguments are range checked and fail with a
// *types.ValidationError; getphase arguments are not.
func Parse(line string) (Command, error) {
	cmd := Command{Kind: Unrecognized, Line: line}

	verb, args, _ := strings.Cut(line, " ")
	switch Kind(verb) {
	case SetTime:
		ts, ok := scanTimestamp(args)
		if !ok {
			return cmd, &ParseError{Verb: verb, Args: args}
		}
		if err := ts.Validate(); err != nil {
			return cmd, err
		}
		cmd.Kind, cmd.Time = SetTime, ts
	case QueryPhase:
		ts, ok := scanTimestamp(args)
		if !ok {
			return cmd, &ParseError{Verb: verb, Args: args}
		}
		cmd.Kind, cmd.Time = QueryPhase, ts
	case GetTime, Help:
		cmd.Kind = Kind(verb)
	default:
		return cmd, ErrUnknownCommand
	}

	return cmd, nil
}
