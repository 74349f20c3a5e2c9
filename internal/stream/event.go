package stream

// Stage identifies the kind of an Event.
type Stage string

const (
	StageStart Stage = "start"
	StageLine  Stage = "line"
	StageEnd   Stage = "end"
)

// Source names the output stream a line came from.
type Source string

const (
	Stdout Source = "stdout"
	Stderr Source = "stderr"
)

// Event is one record of a run's event sequence. Only the fields relevant
// to the stage are set. An empty line event omits Line.
type Event struct {
	RequestID string `json:"requestId"`
	Stage     Stage  `json:"stage"`
	Stream    Source `json:"stream,omitempty"`
	Line      string `json:"line,omitempty"`
	Success   *bool  `json:"success,omitempty"`
}

// StartEvent opens the sequence for id.
func StartEvent(id string) Event {
	return Event{RequestID: id, Stage: StageStart}
}

// LineEvent carries one line of output from src.
func LineEvent(id string, src Source, text string) Event {
	return Event{RequestID: id, Stage: StageLine, Stream: src, Line: text}
}

// EndEvent closes the sequence for id.
func EndEvent(id string, success bool) Event {
	return Event{RequestID: id, Stage: StageEnd, Success: &success}
}

// Succeeded reports the success flag of an end event; false otherwise.
func (e Event) Succeeded() bool {
	return e.Success != nil && *e.Success
}
