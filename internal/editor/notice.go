package editor

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/catalog-editor/internal/repository"
	"github.com/sandeepkv93/catalog-editor/internal/service"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

const DefaultNoticeTTL = 3 * time.Second

const (
	MsgAdded          = "Product added successfully!"
	MsgUpdated        = "Product updated successfully!"
	MsgDeleted        = "Product deleted successfully!"
	MsgCleared        = "All products have been cleared!"
	MsgRequiredFields = "Please fill in all required fields"
	MsgInvalidPrice   = "Please enter a valid price"
	MsgNotFound       = "Product not found"
	MsgStoreFailure   = "Something went wrong. Please try again."

	PromptDelete   = "Are you sure you want to delete this product?"
	PromptClearAll = "Are you sure you want to delete ALL products? This action cannot be undone."
)

type Notice struct {
	Message string     `json:"message"`
	Kind    NoticeKind `json:"kind"`
}

func Success(msg string) *Notice { return &Notice{Message: msg, Kind: NoticeSuccess} }

func Failure(msg string) *Notice { return &Notice{Message: msg, Kind: NoticeError} }

// Notifier displays transient notices. Surfaces decide how long a notice
// stays visible.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Preconfirmed answers every prompt with a decision the surface collected
// before calling, such as a confirm form field or a --yes flag.
func Preconfirmed(ok bool) Confirmer {
	return ConfirmerFunc(func(context.Context, string) (bool, error) { return ok, nil })
}

// NoticeForError maps a mutation error to the message shown to the user.
func NoticeForError(err error) *Notice {
	switch {
	case errors.Is(err, service.ErrProductInvalidPrice):
		return Failure(MsgInvalidPrice)
	case errors.Is(err, service.ErrProductValidation):
		return Failure(MsgRequiredFields)
	case errors.Is(err, repository.ErrProductNotFound):
		return Failure(MsgNotFound)
	default:
		return Failure(MsgStoreFailure)
	}
}
