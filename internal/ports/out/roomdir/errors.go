package roomdir

import "errors"

var ErrNotFound = errors.New("room not found")
