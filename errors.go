package nanny

import (
	"errors"
	"fmt"
)

var (
	ErrReentrantUpdate        = errors.New("nanny: update called while another update is running")
	ErrPersistenceUnavailable = errors.New("nanny: persistence unavailable")
	ErrShapeMismatch          = errors.New("nanny: transformer result does not match state shape")
	ErrFieldType              = errors.New("nanny: unexpected field type")
	ErrIndexOutOfRange        = errors.New("nanny: index out of range")
	ErrClosed                 = errors.New("nanny: instance closed")
)

// Stage names the step of an update that failed.
type Stage string

const (
	StageInitiate    Stage = "initiate hook"
	StageBefore      Stage = "before hook"
	StageTransform   Stage = "transformer"
	StageCalculation Stage = "calculation"
	StageEffect      Stage = "effect"
	StageAfter       Stage = "after hook"
	StageRouteUpdate Stage = "route update"
	StageContent     Stage = "route view"
	StageView        Stage = "view"
)

// StageError wraps a failure raised by user code during an update. The
// update is abandoned and the previous state kept.
type StageError struct {
	Stage Stage
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Name != "" {
		return fmt.Sprintf("nanny: %s %q: %v", e.Stage, e.Name, e.Err)
	}
	return fmt.Sprintf("nanny: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageError(stage Stage, name string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StageError
	if errors.As(err, &existing) {
		return err
	}
	return &StageError{Stage: stage, Name: name, Err: err}
}

// PersistenceError reports a failed snapshot load or save. Nanny logs these
// and carries on; they are never returned from Update.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("nanny: persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrPersistenceUnavailable) succeed.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceUnavailable
}
