package application

// Envelope is the normalized result shape for every dispatched operation,
// the only shape callers of the command interface ever observe.
type Envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (e Envelope) Failed() bool {
	return len(e.Error) > 0
}

func dataEnvelope(data any) Envelope {
	return Envelope{Data: data}
}

func errorEnvelope(message string) Envelope {
	if len(message) == 0 {
		message = defaultErrorMessage
	}
	return Envelope{Error: message}
}

const defaultErrorMessage = "something went wrong"
