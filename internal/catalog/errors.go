package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogLoad is matched by every *LoadError.
	ErrCatalogLoad = errors.New("catalog load failed")
	// ErrDuplicateAlias is matched by every *DuplicateAliasError.
	ErrDuplicateAlias = errors.New("alias already bound to another code")
	// ErrPersistenceWrite is matched by every *PersistenceError.
	ErrPersistenceWrite = errors.New("catalog write failed")
	// ErrInvalidEntry is returned by Append for an entry that cannot be stored.
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// LoadError reports a missing or malformed catalog file. Line is 0 when the
// failure is not tied to a row.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load catalog %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load catalog %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrCatalogLoad, e.Err} }

// DuplicateAliasError names both codes involved in a conflicting binding.
type DuplicateAliasError struct {
	Alias     string
	Owner     string
	Requested string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("alias %q is bound to %s, cannot bind it to %s", e.Alias, e.Owner, e.Requested)
}

func (e *DuplicateAliasError) Unwrap() error { return ErrDuplicateAlias }

// PersistenceError reports a failed catalog rewrite. The in-memory catalog is
// unchanged when this is returned.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("write catalog %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistenceWrite, e.Err} }
