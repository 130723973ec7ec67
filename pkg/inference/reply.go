package inference

// ReplyStatus tags a Reply as model output or the exhausted-retries sentinel.
type ReplyStatus int

const (
	// ReplyGenerated means Text came from the model.
	ReplyGenerated ReplyStatus = iota

	// ReplyExhausted means every attempt failed and Text is the fixed apology.
	ReplyExhausted
)

// String implements fmt.Stringer.
func (s ReplyStatus) String() string {
	switch s {
	case ReplyGenerated:
		return "generated"
	case ReplyExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Reply is the text answer for one turn.
type Reply struct {
	Text   string
	Status ReplyStatus

	// Attempts is the number of backend calls made.
	Attempts int

	// Model that produced Text; empty for the apology.
	Model string

	// Usage of the successful call.
	Usage Usage

	// Err is the last backend error for an exhausted reply.
	Err error
}

// OK reports whether the reply came from the model.
func (r Reply) OK() bool {
	return r.Status == ReplyGenerated
}

// String returns the reply text.
func (r Reply) String() string {
	return r.Text
}
