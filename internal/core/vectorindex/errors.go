package vectorindex

import "errors"

var errBadMagic = errors.New("not a vector index file")
