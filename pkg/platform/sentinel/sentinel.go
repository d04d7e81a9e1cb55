package sentinel

import "errors"

// ErrNotFound is returned, optionally wrapped, by citizen stores when no
// citizen matches the id or message id. Services translate it into a
// not_found domain error; lookups that may legitimately miss (status
// callbacks for unknown messages) treat it as "ignore".
var ErrNotFound = errors.New("not found")
