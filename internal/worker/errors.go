package worker

import (
	"fmt"

	"github.com/workanator/wrustlr/internal/ioevent"
	"github.com/workanator/wrustlr/internal/token"
)

func errUnknownListener(t token.Token) error {
	return fmt.Errorf("worker: listener %d not found", t)
}

func errUnexpectedState(s State, events ioevent.Interest) error {
	return fmt.Errorf("worker: ready event %s arrived for unexpected state %s", events, s)
}
