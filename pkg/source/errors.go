package source

import "errors"

var (
	ErrInvalidURI   = errors.New("invalid URI")
	ErrDoesNotExist = errors.New("object does not exist")
	ErrUpstream     = errors.New("upstream error")
)
