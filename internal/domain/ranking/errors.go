package ranking

import "errors"

// ErrInvalidSortKey is returned for a sort key outside the known set.
var ErrInvalidSortKey = errors.New("invalid sort key")
