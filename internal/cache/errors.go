package cache

import "fmt"

// TypeMismatchError is returned when a key is read with a different type than
// the one it was stored with.
type TypeMismatchError struct {
	Key string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cache key %q holds a different type", e.Key)
}
