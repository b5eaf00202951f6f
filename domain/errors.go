package domain

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrorKind classifies failures surfaced by the storefront core.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindInsufficientStock
	KindUnexpected
)

// CategoryInsufficientStock marks business rule rejections on stock.
var CategoryInsufficientStock = goerrors.CategoryConflict.Extend("stock")

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	default:
		return "unexpected"
	}
}

// Category maps the kind onto a go-errors category.
func (k ErrorKind) Category() goerrors.Category {
	switch k {
	case KindInvalidInput:
		return goerrors.CategoryBadInput
	case KindNotFound:
		return goerrors.CategoryNotFound
	case KindInsufficientStock:
		return CategoryInsufficientStock
	default:
		return goerrors.CategoryInternal
	}
}

// TextCode is the stable machine readable code for the kind.
func (k ErrorKind) TextCode() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	default:
		return "UNEXPECTED"
	}
}

// StatusCode is the HTTP status used when the kind reaches a transport.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindInvalidInput:
		return goerrors.CodeBadRequest
	case KindNotFound:
		return goerrors.CodeNotFound
	case KindInsufficientStock:
		return goerrors.CodeConflict
	default:
		return goerrors.CodeInternal
	}
}

// NewError builds a caller visible error of the given kind.
func NewError(kind ErrorKind, message string) *goerrors.Error {
	err := goerrors.New(message, kind.Category()).
		WithTextCode(kind.TextCode()).
		WithCode(kind.StatusCode())
	if kind != KindUnexpected {
		err = err.WithSeverity(goerrors.SeverityWarning)
	}
	return err
}

// Unexpected wraps a lower layer failure. It returns nil for a nil err.
func Unexpected(err error, message string) *goerrors.Error {
	wrapped := goerrors.Wrap(err, goerrors.CategoryInternal, message)
	if wrapped == nil {
		return nil
	}
	if wrapped.TextCode == "" {
		wrapped = wrapped.WithTextCode(KindUnexpected.TextCode()).WithCode(KindUnexpected.StatusCode())
	}
	return wrapped
}

// KindOf reports the kind carried by err. Errors not produced by this
// package are Unexpected; nil is KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return KindUnexpected
	}

	switch rich.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return KindInvalidInput
	case goerrors.CategoryNotFound:
		return KindNotFound
	case CategoryInsufficientStock:
		return KindInsufficientStock
	default:
		return KindUnexpected
	}
}
