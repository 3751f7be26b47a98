package errors

// Error codes for the hub contracts. Keep stable; they travel on the wire in error responses.
const (
	ErrCodeValidation             = "eventhub.validation"
	ErrCodeMissingEventName       = "eventhub.missing_event_name"
	ErrCodeMissingRoutineName     = "eventhub.missing_routine_name"
	ErrCodeRoutineNotFound        = "eventhub.routine_not_found"
	ErrCodeHandlerPanic           = "eventhub.handler_panic"
	ErrCodeSendFailed             = "eventhub.send_failed"
	ErrCodeSerializationFailed    = "eventhub.serialization_failed"
	ErrCodeSessionClosed          = "eventhub.session_closed"
	ErrCodeHubClosed              = "eventhub.hub_closed"
	ErrCodeTransportNotConfigured = "eventhub.transport_not_configured"
	ErrCodeUnknownFrame           = "eventhub.unknown_frame"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrValidation             = Code(ErrCodeValidation)
	ErrMissingEventName       = Code(ErrCodeMissingEventName)
	ErrMissingRoutineName     = Code(ErrCodeMissingRoutineName)
	ErrRoutineNotFound        = Code(ErrCodeRoutineNotFound)
	ErrHandlerPanic           = Code(ErrCodeHandlerPanic)
	ErrSendFailed             = Code(ErrCodeSendFailed)
	ErrSerializationFailed    = Code(ErrCodeSerializationFailed)
	ErrSessionClosed          = Code(ErrCodeSessionClosed)
	ErrHubClosed              = Code(ErrCodeHubClosed)
	ErrTransportNotConfigured = Code(ErrCodeTransportNotConfigured)
	ErrUnknownFrame           = Code(ErrCodeUnknownFrame)
)

// CodeOf reports the code of the first coded error found in err's chain.
// Errors that carry no code map to the empty string.
func CodeOf(err error) string {
	for err != nil {
		if c, ok := err.(codedError); ok {
			return string(c)
		}

		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if c := CodeOf(e); c != "" {
					return c
				}
			}

			return ""
		default:
			return ""
		}
	}

	return ""
}
