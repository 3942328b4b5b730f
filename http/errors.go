package http

import "errors"

// ErrUnknownErrorFormat is returned for an error format other than text,
// json or html.
var ErrUnknownErrorFormat = errors.New("unknown error format")
