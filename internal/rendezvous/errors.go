package rendezvous

import (
	"errors"
	"fmt"
)

// Kind classifies a rendezvous failure.
type Kind int

const (
	// KindConfig covers missing or malformed options.
	KindConfig Kind = iota + 1
	// KindIO covers output file open and write failures.
	KindIO
	// KindIPC covers socket create/bind/connect/send/receive failures.
	KindIPC
)

// Sentinels for errors.Is matching against an *Error.
var (
	ErrConfig = errors.New("config error")
	ErrIO     = errors.New("io error")
	ErrIPC    = errors.New("ipc error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrConfig
	case KindIO:
		return ErrIO
	case KindIPC:
		return ErrIPC
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every fallible Timer operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s in %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s in %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrIPC) and friends match on Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func configError(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

func ioError(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

func ipcError(op string, err error) error {
	return &Error{Kind: KindIPC, Op: op, Err: err}
}
