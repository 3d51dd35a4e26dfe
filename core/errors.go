package core

import "errors"

// ErrUnknownAgent reports a plan task that references an agent missing from
// the live agent table. The dispatcher drops such tasks and continues.
var ErrUnknownAgent = errors.New("unknown agent in plan")
