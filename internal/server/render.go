package server

import (
	"github.com/dgellow/invite-front/internal/agent"
	"github.com/dgellow/invite-front/internal/session"
)

// SummaryView holds the agent-computed counts for the summary card. When the
// agent omits the summary, every count renders as zero.
type SummaryView struct {
	TotalEmails     int
	SuccessfulCount int
	FailedCount     int
}

// OutcomeView is one row of the result list, flattened for the template.
type OutcomeView struct {
	Email string
	Sent  bool
	Label string

	// Populated for sent invites.
	SlackUserName string
	SlackUserID   string
	MessageSent   bool
	Timestamp     string

	// Populated for failed invites.
	Reason       string
	ErrorDetails string
}

// ResultView is the displayed response of the last completed call.
type ResultView struct {
	Status   string
	Message  string
	Outcomes []OutcomeView
	Summary  SummaryView
}

// ErrorView is the displayed error of the last failed call. ShowScopeHint
// drives the remediation block for Slack tokens missing an OAuth scope.
type ErrorView struct {
	Text          string
	ShowScopeHint bool
}

// failedLabel maps a failure reason to its display label. Only
// "user_not_found" gets a dedicated label; every other reason renders as a
// generic failure with the details alongside.
func failedLabel(reason string) string {
	if reason == agent.ReasonUserNotFound {
		return "Not Found"
	}
	return "Failed"
}

func buildOutcomeView(o agent.Outcome) OutcomeView {
	switch o.Kind {
	case agent.OutcomeSent:
		return OutcomeView{
			Email:         o.Sent.Email,
			Sent:          true,
			Label:         "Invited",
			SlackUserName: o.Sent.SlackUserName,
			SlackUserID:   o.Sent.SlackUserID,
			MessageSent:   o.Sent.MessageSent,
			Timestamp:     o.Sent.Timestamp,
		}
	default:
		return OutcomeView{
			Email:        o.Failed.Email,
			Label:        failedLabel(o.Failed.Reason),
			Reason:       o.Failed.Reason,
			ErrorDetails: o.Failed.ErrorDetails,
		}
	}
}

// buildResultView converts the stored response into template data. Returns
// nil when no response is on display, including right after a transport
// failure.
func buildResultView(view session.View) *ResultView {
	if view.Response == nil {
		return nil
	}

	result := &ResultView{
		Status:  view.Response.Status,
		Message: view.Response.Message,
	}
	for _, o := range view.Outcomes {
		result.Outcomes = append(result.Outcomes, buildOutcomeView(o))
	}
	if view.Response.Result != nil {
		result.Summary = SummaryView{
			TotalEmails:     view.Response.Result.Summary.TotalEmails,
			SuccessfulCount: view.Response.Result.Summary.SuccessfulCount,
			FailedCount:     view.Response.Result.Summary.FailedCount,
		}
	}
	return result
}

// buildErrorView converts the stored error into template data, matching on
// the error code rather than the message text.
func buildErrorView(view session.View) *ErrorView {
	if view.ErrorText == "" {
		return nil
	}
	return &ErrorView{
		Text:          view.ErrorText,
		ShowScopeHint: view.ErrorCode == agent.CodeMissingScope,
	}
}
