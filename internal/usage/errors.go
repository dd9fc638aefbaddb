package usage

import "errors"

// ErrLimitReached indicates the user exceeded their word limit for the cycle.
var ErrLimitReached = errors.New("limit reached")
