package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dgellow/invite-front/internal/ioutil"
	"github.com/dgellow/invite-front/internal/log"
)

const (
	// maxResponseBody caps how much of the agent's reply we are willing to
	// decode. Transport hygiene, not a product limit.
	maxResponseBody = 1 << 20

	// maxErrorBody caps raw bodies captured for error display.
	maxErrorBody = 16 << 10
)

// ErrorCode classifies a transport/collaborator failure. The boundary layer
// inspects the error text once and sets the code; everything downstream
// matches on the code, never on substrings.
type ErrorCode string

const (
	CodeGeneric      ErrorCode = "generic"
	CodeMissingScope ErrorCode = "missing_scope"
)

// missingScopeMarker is what Slack puts in error payloads when the bot token
// lacks a required OAuth scope.
const missingScopeMarker = "missing_scope"

// CallError is a failed call to the agent API: the transport broke, the
// envelope said success=false, or the reply was unparseable.
type CallError struct {
	Message string
	Details string
	Raw     string
	Code    ErrorCode
}

func (e *CallError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func newCallError(message, details, raw string) *CallError {
	code := CodeGeneric
	if strings.Contains(message, missingScopeMarker) ||
		strings.Contains(details, missingScopeMarker) ||
		strings.Contains(raw, missingScopeMarker) {
		code = CodeMissingScope
	}
	return &CallError{Message: message, Details: details, Raw: raw, Code: code}
}

// Invoker is the collaborator boundary: one natural-language instruction in,
// one structured response out. The sole suspension point in the system.
type Invoker interface {
	Invoke(ctx context.Context, instruction string) (*Response, error)
}

// Client drives the agent-invocation API over HTTP.
type Client struct {
	endpoint string
	agentID  string
	apiKey   string
	http     *http.Client
	tracer   trace.Tracer
}

// NewClient creates a client for the given endpoint and agent. The HTTP
// client carries no timeout: the agent API owns timeout and retry policy,
// and the caller's context is the only cancellation path.
func NewClient(endpoint, agentID, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		agentID:  agentID,
		apiKey:   apiKey,
		http:     &http.Client{},
		tracer:   otel.Tracer("github.com/dgellow/invite-front/internal/agent"),
	}
}

type invokeRequest struct {
	AgentID     string `json:"agent_id"`
	Instruction string `json:"instruction"`
}

// invokeEnvelope is the wire envelope around a Response:
// {"success":true,"response":{...}} or
// {"success":false,"error":...,"details":...,"raw_response":...}.
type invokeEnvelope struct {
	Success     bool            `json:"success"`
	Response    *Response       `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	Details     string          `json:"details,omitempty"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
}

// Invoke sends the instruction and decodes the agent's reply. All failure
// modes come back as *CallError with a populated Code.
func (c *Client) Invoke(ctx context.Context, instruction string) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "agent.Invoke",
		trace.WithAttributes(
			attribute.String("agent.id", c.agentID),
			attribute.Int("instruction.length", len(instruction)),
		))
	defer span.End()

	body, err := json.Marshal(invokeRequest{AgentID: c.agentID, Instruction: instruction})
	if err != nil {
		return nil, newCallError("encoding agent request", err.Error(), "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newCallError("building agent request", err.Error(), "")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, newCallError("agent request failed", err.Error(), "")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw := ioutil.ReadLimited(resp.Body, maxErrorBody)
		log.LogErrorWithFields("agent", "Agent returned non-OK status", map[string]any{
			"status": resp.StatusCode,
		})
		return nil, newCallError(fmt.Sprintf("agent returned HTTP %d", resp.StatusCode), "", raw)
	}

	var envelope invokeEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&envelope); err != nil {
		return nil, newCallError("malformed agent response", err.Error(), "")
	}

	if !envelope.Success {
		message := envelope.Error
		if message == "" {
			message = "agent reported failure"
		}
		return nil, newCallError(message, envelope.Details, string(envelope.RawResponse))
	}
	if envelope.Response == nil {
		return nil, newCallError("agent reported success without a response", "", "")
	}

	log.LogDebugWithFields("agent", "Agent call completed", map[string]any{
		"status": envelope.Response.Status,
	})
	return envelope.Response, nil
}
