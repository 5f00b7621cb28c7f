package fsm

// TransitionNotAllowed is an error caused by attempting to transition to a
// state that is not allowed by the machine.
type TransitionNotAllowed struct {
	Msg string
}

func (e TransitionNotAllowed) Error() string {
	return e.Msg
}

// StopError is returned when a stoppable machine refuses further
// transitions after an unallowable one.
type StopError struct {
	Msg string
}

func (e StopError) Error() string {
	return e.Msg
}
