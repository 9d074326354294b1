package model

import "errors"

// World action failures. All are recoverable by the caller.
var (
	ErrCannotWalk              = errors.New("cannot walk")
	ErrMustDestroyContentFirst = errors.New("must destroy content first")
	ErrNotEnoughContent        = errors.New("not enough content")
	ErrNotEnoughEnergy         = errors.New("not enough energy")
	ErrNotEnoughSpace          = errors.New("not enough space")
	ErrOutOfBounds             = errors.New("out of bounds")
	ErrNoContent               = errors.New("no content")
	ErrCannotDestroy           = errors.New("content cannot be destroyed")
	ErrCannotCraft             = errors.New("content cannot be crafted")
	ErrCannotPlace             = errors.New("content cannot be placed here")
)
