package agent

// Response is the agent's structured reply to one invitation run. It is
// owned wholesale by the UI session and replaced on every call, never merged
// with a prior response.
type Response struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// Status values the agent reports. Anything else is treated as "other" and
// rendered as-is.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result carries the per-entry outcomes and the agent-computed summary.
type Result struct {
	InvitesSent   []SentInvite   `json:"invites_sent"`
	InvitesFailed []FailedInvite `json:"invites_failed"`
	Summary       Summary        `json:"summary"`
}

// SentInvite is one successful invitation.
type SentInvite struct {
	Email         string `json:"email"`
	SlackUserID   string `json:"slack_user_id"`
	SlackUserName string `json:"slack_user_name"`
	MessageSent   bool   `json:"message_sent"`
	// Timestamp is passed through as an opaque string. The agent's format is
	// not contractual, so we render it verbatim.
	Timestamp string `json:"timestamp"`
}

// FailedInvite is one invitation the agent could not deliver.
type FailedInvite struct {
	Email        string `json:"email"`
	Reason       string `json:"reason"`
	ErrorDetails string `json:"error_details"`
}

// Summary counts originate from the agent; the correct-behavior invariant
// successful + failed == total is a property to test against, not something
// this layer can guarantee. Fields absent from the JSON decode to zero, and
// the renderer must cope with a missing summary by showing zeros.
type Summary struct {
	TotalEmails     int `json:"total_emails"`
	SuccessfulCount int `json:"successful_count"`
	FailedCount     int `json:"failed_count"`
}

// Failure reason codes the agent is known to emit. Only ReasonUserNotFound
// changes the rendered label; the rest all render as a generic failure.
const (
	ReasonUserNotFound  = "user_not_found"
	ReasonAlreadyInTeam = "already_in_team"
	ReasonInvalidEmail  = "invalid_email"
	ReasonRateLimited   = "rate_limited"
	ReasonUnknown       = "unknown_error"
)
