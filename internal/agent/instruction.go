package agent

import (
	"fmt"
	"strings"
)

// DefaultContext is the personalization used when the operator leaves the
// message field empty.
const DefaultContext = "Welcome to the team! We're excited to have you join us."

// BuildInstruction renders the natural-language instruction the agent acts
// on: the target channel, the comma-joined valid addresses, the
// personalization context, and a clause toggling whether the channel
// description should be included in the welcome message.
//
// No upper bound is applied to the address list or the context here. Batch
// limits are the agent's problem.
func BuildInstruction(channel string, validEmails []string, context string, includeDescription bool) string {
	if strings.TrimSpace(context) == "" {
		context = DefaultContext
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Invite the following people to the #%s Slack channel: %s. ", channel, strings.Join(validEmails, ", "))
	fmt.Fprintf(&b, "Send each of them a personalized welcome message using this context: %s", context)
	if !strings.HasSuffix(context, ".") {
		b.WriteString(".")
	}
	if includeDescription {
		b.WriteString(" Include the channel description in the welcome message.")
	} else {
		b.WriteString(" Do not include the channel description in the welcome message.")
	}
	return b.String()
}
