package util

type Envelope map[string]any

// Message is the body of every auth response, success or failure.
func Message(message string) Envelope {
	return Envelope{"message": message}
}
