package pipeline

import "github.com/rotisserie/eris"

var (
	// ErrInvalidTransition is returned when a command is issued against a
	// state that does not accept it. The state is left unchanged.
	ErrInvalidTransition = eris.New("pipeline: command not valid in current stage")

	// ErrCommandInFlight is returned when a command is issued while another
	// command for the same product is still executing.
	ErrCommandInFlight = eris.New("pipeline: another command is in flight for this product")
)
