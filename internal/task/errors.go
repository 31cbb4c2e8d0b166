package task

import "errors"

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTerminalState = errors.New("task already in terminal state")
)
