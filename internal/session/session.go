package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgellow/invite-front/internal/agent"
	"github.com/dgellow/invite-front/internal/log"
)

// Phase is where a submission sits in its lifecycle. The flow is linear:
// idle -> sending -> (succeeded | failed_transport | failed_agent), and every
// terminal phase resets to idle when the operator edits input or re-submits.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseSending         Phase = "sending"
	PhaseSucceeded       Phase = "succeeded"
	PhaseFailedTransport Phase = "failed_transport"
	PhaseFailedAgent     Phase = "failed_agent"
)

// ErrCallInFlight is returned by Begin while a call is outstanding. This is
// the busy flag: at most one outstanding call per session, no queue.
var ErrCallInFlight = errors.New("a call is already in flight")

func (p Phase) terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailedTransport || p == PhaseFailedAgent
}

// Session holds one operator's UI state: the request-lifecycle phase, the
// sticky form fields, and the last displayed response or error. State only
// changes through the transition methods; there is no ad hoc field mutation.
//
// Everything here is ephemeral. Sessions live in process memory and expire;
// nothing is ever persisted.
type Session struct {
	mu sync.Mutex

	id    string
	phase Phase

	// Sticky form state, re-rendered as typed.
	rawEmails          string
	contextText        string
	includeDescription bool

	// Displayed result. Replaced wholesale per submission; edits reset the
	// phase but deliberately leave these visible until the next submission
	// completes or errors.
	response  *agent.Response
	outcomes  []agent.Outcome
	errorText string
	errorCode agent.ErrorCode

	flash string

	created      time.Time
	lastAccessed atomic.Pointer[time.Time]
}

func newSession(id string) *Session {
	now := time.Now()
	s := &Session{
		id:      id,
		phase:   PhaseIdle,
		created: now,
	}
	s.lastAccessed.Store(&now)
	return s
}

// ID returns the opaque session identifier.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) touch() {
	now := time.Now()
	s.lastAccessed.Store(&now)
}

// Begin moves the session into sending. Allowed from idle and from any
// terminal phase (a re-submission replaces the prior result entirely).
// Returns ErrCallInFlight when a call is already outstanding.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase == PhaseSending {
		return ErrCallInFlight
	}

	s.phase = PhaseSending
	s.response = nil
	s.outcomes = nil
	s.errorText = ""
	s.errorCode = ""
	s.flash = ""
	return nil
}

// Succeed records a successful response and classifies its outcomes.
func (s *Session) Succeed(resp *agent.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase != PhaseSending {
		return fmt.Errorf("cannot succeed from phase %s", s.phase)
	}

	s.phase = PhaseSucceeded
	s.response = resp
	s.outcomes = agent.ClassifyOutcomes(resp)
	return nil
}

// FailAgent records an agent-reported error: the call itself worked but the
// returned status was "error". The response is still displayed, and failure
// details from failed entries are concatenated into the error text.
func (s *Session) FailAgent(resp *agent.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase != PhaseSending {
		return fmt.Errorf("cannot fail from phase %s", s.phase)
	}

	s.phase = PhaseFailedAgent
	s.response = resp
	s.outcomes = agent.ClassifyOutcomes(resp)

	errorText := "The agent reported an error."
	if resp != nil && resp.Message != "" {
		errorText = resp.Message
	}
	if details := agent.FailureDetails(resp); details != "" {
		errorText += " Failures: " + details
	}
	s.errorText = errorText
	s.errorCode = agent.CodeGeneric
	return nil
}

// FailTransport records a transport/collaborator error: the call itself
// failed and no response is available.
func (s *Session) FailTransport(callErr *agent.CallError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase != PhaseSending {
		return fmt.Errorf("cannot fail from phase %s", s.phase)
	}

	s.phase = PhaseFailedTransport
	s.errorText = callErr.Error()
	s.errorCode = callErr.Code
	return nil
}

// Edit resets a terminal phase to idle when the operator changes input. The
// displayed response and error are left in place: stale results stay visible
// until the next submission completes or errors. While sending, Edit is a
// no-op; the busy flag stands.
func (s *Session) Edit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase.terminal() {
		log.LogTraceWithFields("session", "Edit resets terminal phase", map[string]any{
			"sessionID": s.id,
			"from":      string(s.phase),
		})
		s.phase = PhaseIdle
	}
}

// SetForm records the sticky form state so the page re-renders what the
// operator typed.
func (s *Session) SetForm(rawEmails, contextText string, includeDescription bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.rawEmails = rawEmails
	s.contextText = contextText
	s.includeDescription = includeDescription
}

// SetFlash stores a one-shot message for the next page render.
func (s *Session) SetFlash(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = message
}

// TakeFlash returns and clears the pending flash message.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	flash := s.flash
	s.flash = ""
	return flash
}

// View is an immutable snapshot of a session for rendering. The Response
// pointer is shared but the response value is never mutated after storage.
type View struct {
	Phase              Phase
	RawEmails          string
	ContextText        string
	IncludeDescription bool
	Response           *agent.Response
	Outcomes           []agent.Outcome
	ErrorText          string
	ErrorCode          agent.ErrorCode
}

// View snapshots the session state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	return View{
		Phase:              s.phase,
		RawEmails:          s.rawEmails,
		ContextText:        s.contextText,
		IncludeDescription: s.includeDescription,
		Response:           s.response,
		Outcomes:           s.outcomes,
		ErrorText:          s.errorText,
		ErrorCode:          s.errorCode,
	}
}
