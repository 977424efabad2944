package repository

import "errors"

// ErrNotFound is the repository-specific sentinel returned when a keyed
// lookup finds nothing. The service layer translates it into a domain-level
// error, keeping business logic decoupled from the storage driver's own
// not-found signal (sql.ErrNoRows, redis.Nil).
var ErrNotFound = errors.New("repository: not found")
