package agent

import (
	"fmt"
	"strings"
)

// OutcomeKind is the explicit discriminator for an invite outcome. Tagging
// happens once at the boundary so nothing downstream has to sniff which
// fields happen to be populated.
type OutcomeKind string

const (
	OutcomeSent   OutcomeKind = "sent"
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is a tagged union over SentInvite and FailedInvite. Exactly one of
// Sent and Failed is non-nil, matching Kind.
type Outcome struct {
	Kind   OutcomeKind   `json:"kind"`
	Sent   *SentInvite   `json:"sent,omitempty"`
	Failed *FailedInvite `json:"failed,omitempty"`
}

// Email returns the outcome's address regardless of kind.
func (o Outcome) Email() string {
	switch o.Kind {
	case OutcomeSent:
		return o.Sent.Email
	case OutcomeFailed:
		return o.Failed.Email
	}
	return ""
}

// ClassifyOutcomes tags every entry of a response. Sent entries come first,
// then failed entries, each group preserving the agent's order. A nil
// response or missing result yields no outcomes.
func ClassifyOutcomes(resp *Response) []Outcome {
	if resp == nil || resp.Result == nil {
		return nil
	}
	outcomes := make([]Outcome, 0, len(resp.Result.InvitesSent)+len(resp.Result.InvitesFailed))
	for i := range resp.Result.InvitesSent {
		outcomes = append(outcomes, Outcome{Kind: OutcomeSent, Sent: &resp.Result.InvitesSent[i]})
	}
	for i := range resp.Result.InvitesFailed {
		outcomes = append(outcomes, Outcome{Kind: OutcomeFailed, Failed: &resp.Result.InvitesFailed[i]})
	}
	return outcomes
}

// FailureDetails concatenates the failed entries of a response into one
// string for the error display. Returns "" when nothing failed.
func FailureDetails(resp *Response) string {
	if resp == nil || resp.Result == nil {
		return ""
	}
	parts := make([]string, 0, len(resp.Result.InvitesFailed))
	for _, f := range resp.Result.InvitesFailed {
		detail := f.ErrorDetails
		if detail == "" {
			detail = f.Reason
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Email, detail))
	}
	return strings.Join(parts, "; ")
}
