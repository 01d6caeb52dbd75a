package heatmap

import (
	"errors"

	"github.com/tartampluch/go-heatmap/internal/config"
)

// Kind classifies the failures surfaced to the user.
type Kind uint8

const (
	KindNoSourceOfData Kind = iota + 1
	KindWrongDate
	KindNoData
	KindDatabase
	KindParse
	KindIO
	KindFmt
)

// String returns the English description of the kind.
func (k Kind) String() string {
	switch k {
	case KindNoSourceOfData:
		return config.ErrKindNoSource
	case KindWrongDate:
		return config.ErrKindWrongDate
	case KindNoData:
		return config.ErrKindNoData
	case KindDatabase:
		return config.ErrKindDatabase
	case KindParse:
		return config.ErrKindParse
	case KindIO:
		return config.ErrKindIO
	case KindFmt:
		return config.ErrKindFmt
	default:
		return "unknown error"
	}
}

// TranslationKey returns the message id used to localize the kind.
func (k Kind) TranslationKey() string {
	switch k {
	case KindNoSourceOfData:
		return config.TKeyErrNoSource
	case KindWrongDate:
		return config.TKeyErrWrongDate
	case KindNoData:
		return config.TKeyErrNoData
	case KindDatabase:
		return config.TKeyErrDatabase
	case KindParse:
		return config.TKeyErrParse
	case KindIO:
		return config.TKeyErrIO
	case KindFmt:
		return config.TKeyErrFmt
	default:
		return ""
	}
}

// Error is a categorized failure. Err carries the underlying cause, if any.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the same kind, so that
// errors.Is(err, ErrWrongDate) matches any wrapped WrongDate failure.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

// Sentinels, one per kind.
var (
	ErrNoSourceOfData = &Error{Kind: KindNoSourceOfData}
	ErrWrongDate      = &Error{Kind: KindWrongDate}
	ErrNoData         = &Error{Kind: KindNoData}
	ErrDatabase       = &Error{Kind: KindDatabase}
	ErrParse          = &Error{Kind: KindParse}
	ErrIO             = &Error{Kind: KindIO}
	ErrFmt            = &Error{Kind: KindFmt}
)

// Wrap attaches kind to err. A nil err yields nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
