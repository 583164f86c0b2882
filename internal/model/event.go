package model

// Progress event type tags as they appear on the wire. The contract is
// one JSON object per line with a "type" discriminator; field names are
// camelCase because the stream is consumed by the web front end.
const (
	EventProcessing = "processing"
	EventCompleted  = "completed"
	EventFailed     = "failed"
	EventCooldown   = "cooldown"
	EventComplete   = "complete"
)

// ProcessingEvent announces that work on a target has started.
type ProcessingEvent struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Index  int    `json:"index"`
	Total  int    `json:"total"`
}

// NewProcessing builds a processing event. Index is 1-based.
func NewProcessing(target string, index, total int) ProcessingEvent {
	return ProcessingEvent{Type: EventProcessing, Target: target, Index: index, Total: total}
}

// CompletedEvent carries the merged profile for a finished target.
// FromCache is true when the cache gate short-circuited the lookup.
type CompletedEvent struct {
	Type      string   `json:"type"`
	Target    string   `json:"target"`
	Profile   *Profile `json:"profile,omitempty"`
	FromCache bool     `json:"fromCache"`
}

// NewCompleted builds a completed event.
func NewCompleted(target string, profile *Profile, fromCache bool) CompletedEvent {
	return CompletedEvent{Type: EventCompleted, Target: target, Profile: profile, FromCache: fromCache}
}

// FailedEvent reports a single target's failure. The batch continues.
type FailedEvent struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

// NewFailed builds a failed event.
func NewFailed(target, errMsg string) FailedEvent {
	return FailedEvent{Type: EventFailed, Target: target, Error: errMsg}
}

// CooldownEvent announces a rate-limit pause. RequestID is the only
// handle by which a separate resume request can end the pause early.
type CooldownEvent struct {
	Type             string `json:"type"`
	RequestID        string `json:"requestId"`
	SecondsRemaining int    `json:"secondsRemaining"`
	Processed        int    `json:"processed"`
}

// NewCooldown builds a cooldown event.
func NewCooldown(requestID string, seconds, processed int) CooldownEvent {
	return CooldownEvent{Type: EventCooldown, RequestID: requestID, SecondsRemaining: seconds, Processed: processed}
}

// CompleteEvent is the terminal batch summary. It is always the last
// event on the stream.
type CompleteEvent struct {
	Type      string `json:"type"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// NewComplete builds the terminal summary event.
func NewComplete(succeeded, failed, skipped int) CompleteEvent {
	return CompleteEvent{Type: EventComplete, Succeeded: succeeded, Failed: failed, Skipped: skipped}
}
