package dispatch

// Status tracks where a session's alert is in its lifecycle.
type Status string

const (
	// StatusIdle means no alert attempt is pending or done.
	StatusIdle Status = "idle"

	// StatusQueued means a hazard was detected before the location
	// resolved; the send is deferred until a location arrives.
	StatusQueued Status = "queued_for_location"

	// StatusSending means a broadcast call is in flight. Further attempts
	// are blocked until it resolves.
	StatusSending Status = "sending"

	// StatusSent means the alert was broadcast. Absorbing: no further
	// attempt is ever made for this session.
	StatusSent Status = "sent"
)

// AlertState is the dashboard-visible alert state of one session. There is
// no distinct error status: a failed send resets Status to idle immediately
// and the failure surfaces through Err, which stays visible until the next
// successful send clears it.
type AlertState struct {
	Status Status `json:"status"`
	Err    string `json:"error,omitempty"`
}
