package storage

import (
	"errors"

	"github.com/pribylovaa/exivox-comments/internal/thread"
)

// FromThread переводит ошибки мутаций ветки (internal/thread) в ошибки хранилища.
// Прочие ошибки возвращаются как есть.
func FromThread(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, thread.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, thread.ErrParentNotFound):
		return ErrParentNotFound
	case errors.Is(err, thread.ErrNestedReply):
		return ErrMaxDepthExceeded
	case errors.Is(err, thread.ErrDuplicateID):
		return ErrConflict
	default:
		return err
	}
}
