package backend

import (
	"context"
	"errors"
	"fmt"

	"filefinder/internal/disks"
)

// Backend is the client's view of the native file-search service.
type Backend interface {
	GetDisks(ctx context.Context) ([]disks.Summary, error)
	SearchForFile(ctx context.Context, req SearchRequest) ([]SearchResult, error)
	ShowInExplorer(ctx context.Context, path string) error
}

// ErrUnknownCommand is returned by the host for a command outside the contract.
var ErrUnknownCommand = errors.New("unknown command")

// ErrorKind classifies why a command failed.
type ErrorKind int

const (
	KindTransport ErrorKind = iota // Host unreachable or connection dropped
	KindRemote                     // Host ran the command and reported failure
	KindDecode                     // Response did not match the contract
)

// String returns the string representation of an error kind
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// CommandError reports a failed backend command.
type CommandError struct {
	Command string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s error: %s", e.Command, e.Kind, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// AsCommandError extracts a *CommandError from err, if present.
func AsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
