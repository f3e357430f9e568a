package uplink

import (
	"errors"

	"github.com/looplab/fsm"
)

var (
	ErrDNSFailure        = errors.New("uplink: name resolution failed")
	ErrConnectFailure    = errors.New("uplink: connect failed")
	ErrTransport         = errors.New("uplink: transport error")
	ErrResourceExhausted = errors.New("uplink: no connection handle available")
	ErrTimeout           = errors.New("uplink: request timed out")
)

// Outcome labels of joynode_uplink_attempts_total.
const (
	OutcomeSuccess           = "success"
	OutcomeDNSFailure        = "dns_failure"
	OutcomeConnectFailure    = "connect_failure"
	OutcomeTransportError    = "transport_error"
	OutcomeResourceExhausted = "resource_exhausted"
	OutcomeTimeout           = "timeout"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrDNSFailure):
		return OutcomeDNSFailure
	case errors.Is(err, ErrConnectFailure):
		return OutcomeConnectFailure
	case errors.Is(err, ErrResourceExhausted):
		return OutcomeResourceExhausted
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeTransportError
	}
}

// isFsmRealError filters out the errors looplab/fsm returns for transitions
// that simply did not happen.
func isFsmRealError(err error) bool {
	if err == nil {
		return false
	}

	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError

	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return false
	}

	return true
}
