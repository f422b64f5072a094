package tracker

import (
	"errors"
	"fmt"

	"github.com/viant/selfie/snapshot"
)

// ErrNoIdentity is wrapped by WrongThreadError
var ErrNoIdentity = errors.New("no test identity")

// WrongThreadError is returned when a snapshot call can not be attributed to a running test
type WrongThreadError struct {
	Goroutine int64
}

func (e *WrongThreadError) Error() string {
	return fmt.Sprintf("snapshot calls must happen on the goroutine that started the test (goroutine %d has no test), pass the test context from other goroutines", e.Goroutine)
}

func (e *WrongThreadError) Unwrap() error {
	return ErrNoIdentity
}

// StaleFileCollisionError is returned when one key is written twice in a run
type StaleFileCollisionError struct {
	Class    string
	Key      snapshot.Key
	Previous string // method that wrote the key first
	Method   string
}

func (e *StaleFileCollisionError) Error() string {
	return fmt.Sprintf("snapshot %v of %v was already written in this run by %v, %v wrote it again", e.Key, e.Class, e.Previous, e.Method)
}
