package service

import (
	"context"
	"errors"

	"catalogo/internal/apierror"

	"gorm.io/gorm"
)

// runTx runs fn in a transaction on db. A non-nil error from fn rolls back.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// notFound replaces gorm's missing-row error with e. Any other error is
// returned as is.
func notFound(err error, e *apierror.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e
	}
	return err
}

// duplicate maps a unique-constraint violation reported by the driver to a
// DuplicateEntry error with msg.
func duplicate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierror.Duplicate(msg)
	}
	return err
}

// Cache is the read-through store behind product detail reads. Every method
// is best-effort; a miss or a backend failure never fails the caller.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, v any)
	Delete(ctx context.Context, keys ...string)
	DeletePrefix(ctx context.Context, prefix string)
}

// ImagenScheduler removes product image files outside the request path.
type ImagenScheduler interface {
	EliminarImagen(ctx context.Context, nombre string)
}

// nopCache is used when the service is built without a cache.
type nopCache struct{}

func (nopCache) Get(context.Context, string, any) bool { return false }
func (nopCache) Set(context.Context, string, any)      {}
func (nopCache) Delete(context.Context, ...string)     {}
func (nopCache) DeletePrefix(context.Context, string)  {}

func cacheOrNop(c Cache) Cache {
	if c == nil {
		return nopCache{}
	}
	return c
}

func programarEliminacion(ctx context.Context, s ImagenScheduler, nombres ...string) {
	if s == nil {
		return
	}
	for _, n := range nombres {
		if n != "" {
			s.EliminarImagen(ctx, n)
		}
	}
}
