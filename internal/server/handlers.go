package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dgellow/invite-front/internal/agent"
	"github.com/dgellow/invite-front/internal/cookie"
	"github.com/dgellow/invite-front/internal/crypto"
	"github.com/dgellow/invite-front/internal/emailutil"
	jsonwriter "github.com/dgellow/invite-front/internal/json"
	"github.com/dgellow/invite-front/internal/log"
	"github.com/dgellow/invite-front/internal/session"
)

const (
	// sessionCookieMaxAge outlives the store TTL so a returning browser gets
	// a fresh session under the same cookie instead of a new cookie.
	sessionCookieMaxAge = 24 * time.Hour

	// maxJSONBody caps JSON API request bodies. Transport hygiene, not a
	// limit on how many addresses can be submitted.
	maxJSONBody = 1 << 20

	csrfFormField  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

// Handlers serves the invitation console: the HTML page, the form
// submission, and the JSON API the page's script talks to.
type Handlers struct {
	invoker        agent.Invoker
	sessions       *session.Store
	csrf           crypto.CSRFProtection
	channel        string
	defaultContext string
	tracer         trace.Tracer
}

// NewHandlers creates the handler set. defaultContext may be empty, in which
// case the built-in personalization fallback applies.
func NewHandlers(invoker agent.Invoker, sessions *session.Store, csrf crypto.CSRFProtection, channel, defaultContext string) *Handlers {
	return &Handlers{
		invoker:        invoker,
		sessions:       sessions,
		csrf:           csrf,
		channel:        channel,
		defaultContext: defaultContext,
		tracer:         otel.Tracer("github.com/dgellow/invite-front/internal/server"),
	}
}

// sessionFor resolves the request's UI session, minting a cookie on first
// contact. An unknown cookie value simply names a new session: IDs are random
// and sessions hold nothing sensitive, so there is nothing to reject.
func (h *Handlers) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	id, err := cookie.GetSession(r)
	if err != nil || id == "" {
		id, err = crypto.GenerateSecureToken()
		if err != nil {
			return nil, err
		}
		cookie.SetSession(w, id, sessionCookieMaxAge)
	}
	return h.sessions.GetOrCreate(id)
}

// Index renders the console page.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionFor(w, r)
	if err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	view := sess.View()
	valid, invalid := emailutil.Partition(emailutil.ParseList(view.RawEmails))

	token, err := h.csrf.Generate()
	if err != nil {
		log.LogError("Failed to generate CSRF token: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := PageData{
		Channel:            h.channel,
		RawEmails:          view.RawEmails,
		ContextText:        view.ContextText,
		IncludeDescription: view.IncludeDescription,
		ValidEmails:        valid,
		InvalidEmails:      invalid,
		Sending:            view.Phase == session.PhaseSending,
		Flash:              sess.TakeFlash(),
		CSRFToken:          token,
		Result:             buildResultView(view),
		Error:              buildErrorView(view),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPageTemplate.Execute(w, data); err != nil {
		log.LogError("Failed to render index page: %v", err)
	}
}

// SubmitInvites handles the HTML form submission. The agent call runs
// synchronously inside the request; the redirect back to the page happens
// only once the call has reached a terminal phase.
func (h *Handlers) SubmitInvites(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionFor(w, r)
	if err != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !h.csrf.Validate(r.FormValue(csrfFormField)) {
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return
	}

	rawEmails := r.FormValue("emails")
	contextText := r.FormValue("context")
	includeDescription := r.FormValue("include_description") != ""
	sess.SetForm(rawEmails, contextText, includeDescription)

	valid, _ := emailutil.Partition(emailutil.ParseList(rawEmails))
	if len(valid) == 0 {
		sess.SetFlash("No valid email addresses to invite.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := sess.Begin(); err != nil {
		sess.SetFlash("An invitation call is already in progress.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.performInvite(r, sess, valid, contextText, includeDescription)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// performInvite runs the agent call for a session already in the sending
// phase and records the terminal transition.
func (h *Handlers) performInvite(r *http.Request, sess *session.Session, valid []string, contextText string, includeDescription bool) {
	ctx, span := h.tracer.Start(r.Context(), "server.performInvite",
		trace.WithAttributes(
			attribute.String("invite.channel", h.channel),
			attribute.Int("invite.email_count", len(valid)),
		))
	defer span.End()

	if strings.TrimSpace(contextText) == "" {
		contextText = h.defaultContext
	}
	instruction := agent.BuildInstruction(h.channel, valid, contextText, includeDescription)

	resp, err := h.invoker.Invoke(ctx, instruction)
	if err != nil {
		span.RecordError(err)
		var callErr *agent.CallError
		if !errors.As(err, &callErr) {
			callErr = &agent.CallError{Message: err.Error(), Code: agent.CodeGeneric}
		}
		log.LogErrorWithFields("server", "Agent call failed", map[string]any{
			"error": callErr.Error(),
			"code":  string(callErr.Code),
		})
		_ = sess.FailTransport(callErr)
		return
	}

	if resp.Status == agent.StatusError {
		log.LogWarnWithFields("server", "Agent reported an error", map[string]any{
			"message": resp.Message,
		})
		_ = sess.FailAgent(resp)
		return
	}

	log.LogInfoWithFields("server", "Invitations processed", map[string]any{
		"emails": len(valid),
		"status": resp.Status,
	})
	_ = sess.Succeed(resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		jsonwriter.WriteBadRequest(w, "invalid_json", "Request body must be valid JSON")
		return false
	}
	return true
}

func (h *Handlers) jsonSession(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := h.sessionFor(w, r)
	if err != nil {
		jsonwriter.WriteServiceUnavailable(w, "Too many active sessions, try again later")
		return nil
	}
	return sess
}

type parseEmailsRequest struct {
	Emails string `json:"emails"`
}

type emailListResponse struct {
	RawEmails     string   `json:"raw_emails"`
	Entries       []string `json:"entries"`
	ValidEmails   []string `json:"valid_emails"`
	InvalidEmails []string `json:"invalid_emails"`
}

func emailListFor(raw string) emailListResponse {
	entries := emailutil.ParseList(raw)
	valid, invalid := emailutil.Partition(entries)
	return emailListResponse{
		RawEmails:     raw,
		Entries:       entries,
		ValidEmails:   valid,
		InvalidEmails: invalid,
	}
}

// ParseEmails normalizes the raw email input and reports the valid/invalid
// partition. Typing counts as editing: a terminal phase resets to idle while
// the stale result stays on display.
func (h *Handlers) ParseEmails(w http.ResponseWriter, r *http.Request) {
	sess := h.jsonSession(w, r)
	if sess == nil {
		return
	}

	var req parseEmailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess.Edit()
	view := sess.View()
	sess.SetForm(req.Emails, view.ContextText, view.IncludeDescription)

	_ = jsonwriter.Write(w, emailListFor(req.Emails))
}

type removeEmailRequest struct {
	Emails string `json:"emails"`
	Remove string `json:"remove"`
}

// RemoveEmail drops one address from the list and returns the rejoined raw
// string so the textarea and the chips stay in sync.
func (h *Handlers) RemoveEmail(w http.ResponseWriter, r *http.Request) {
	sess := h.jsonSession(w, r)
	if sess == nil {
		return
	}

	var req removeEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Remove == "" {
		jsonwriter.WriteBadRequest(w, "missing_remove", "The remove field is required")
		return
	}

	remaining := emailutil.Remove(emailutil.ParseList(req.Emails), req.Remove)
	raw := emailutil.Rejoin(remaining)

	sess.Edit()
	view := sess.View()
	sess.SetForm(raw, view.ContextText, view.IncludeDescription)

	_ = jsonwriter.Write(w, emailListFor(raw))
}

type submitInvitesRequest struct {
	Emails             string `json:"emails"`
	Context            string `json:"context"`
	IncludeDescription bool   `json:"include_description"`
}

// SubmitJSON is the JSON twin of the form submission, used by API clients
// and tests. Same semantics: synchronous call, one in flight per session.
func (h *Handlers) SubmitJSON(w http.ResponseWriter, r *http.Request) {
	if !h.csrf.Validate(r.Header.Get(csrfHeaderName)) {
		jsonwriter.WriteForbidden(w, "Invalid CSRF token")
		return
	}

	sess := h.jsonSession(w, r)
	if sess == nil {
		return
	}

	var req submitInvitesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess.SetForm(req.Emails, req.Context, req.IncludeDescription)

	valid, _ := emailutil.Partition(emailutil.ParseList(req.Emails))
	if len(valid) == 0 {
		jsonwriter.WriteBadRequest(w, "no_valid_emails", "No valid email addresses to invite")
		return
	}

	if err := sess.Begin(); err != nil {
		jsonwriter.WriteConflict(w, "call_in_flight", "An invitation call is already in progress")
		return
	}

	h.performInvite(r, sess, valid, req.Context, req.IncludeDescription)
	h.writeState(w, sess)
}

// State reports the session's current phase and displayed result, plus a
// fresh CSRF token for clients that bootstrap over the API.
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	sess := h.jsonSession(w, r)
	if sess == nil {
		return
	}
	h.writeState(w, sess)
}

type stateError struct {
	Text string          `json:"text"`
	Code agent.ErrorCode `json:"code"`
}

type stateResponse struct {
	Phase              session.Phase   `json:"phase"`
	RawEmails          string          `json:"raw_emails"`
	Context            string          `json:"context"`
	IncludeDescription bool            `json:"include_description"`
	ValidEmails        []string        `json:"valid_emails"`
	InvalidEmails      []string        `json:"invalid_emails"`
	Outcomes           []agent.Outcome `json:"outcomes,omitempty"`
	Summary            *agent.Summary  `json:"summary,omitempty"`
	Error              *stateError     `json:"error,omitempty"`
	CSRFToken          string          `json:"csrf_token,omitempty"`
}

func (h *Handlers) writeState(w http.ResponseWriter, sess *session.Session) {
	view := sess.View()
	valid, invalid := emailutil.Partition(emailutil.ParseList(view.RawEmails))

	state := stateResponse{
		Phase:              view.Phase,
		RawEmails:          view.RawEmails,
		Context:            view.ContextText,
		IncludeDescription: view.IncludeDescription,
		ValidEmails:        valid,
		InvalidEmails:      invalid,
		Outcomes:           view.Outcomes,
	}
	if view.Response != nil && view.Response.Result != nil {
		summary := view.Response.Result.Summary
		state.Summary = &summary
	}
	if view.ErrorText != "" {
		state.Error = &stateError{Text: view.ErrorText, Code: view.ErrorCode}
	}
	if token, err := h.csrf.Generate(); err == nil {
		state.CSRFToken = token
	}

	_ = jsonwriter.Write(w, state)
}
