// Package threadfsm implements the pure transition rules of spec §4.4: a
// Thread's two-state {Open, Resolved} lifecycle, and the agent-status
// sub-state orthogonal to it. Every function here is a pure state
// transform; the Store is responsible for looking up the Thread, applying
// the transform, persisting the result, and publishing the event.
package threadfsm

import (
	"time"

	"github.com/winstanley-industries/preflight/internal/domain"
)

// SetThreadStatus applies update_thread_status. The transition is
// idempotent: resolving an already-resolved thread (or reopening an
// already-open one) is a no-op beyond the timestamp bump. Resolving
// discards agent-status; reopening resets it to None.
func SetThreadStatus(t domain.Thread, status domain.ThreadStatus, now time.Time) domain.Thread {
	if t.Status == status {
		t.UpdatedAt = now
		return t
	}
	t.Status = status
	t.AgentStatus = domain.AgentStatusNone
	t.UpdatedAt = now
	return t
}

// SetAgentStatus applies set_agent_status(Seen|Working). Callers must
// reject this for a Resolved thread (NotOpen) before calling; this
// function only encodes the state transform once the caller has verified
// the thread is open.
func SetAgentStatus(t domain.Thread, status domain.AgentStatus, now time.Time) domain.Thread {
	t.AgentStatus = status
	t.UpdatedAt = now
	return t
}

// OnCommentAdded applies the agent-status reset that follows appending a
// comment, per spec §4.4: both a human reply and an agent reply clear the
// sub-state back to None — a human message invalidates any prior
// acknowledgement, and an agent's own reply supersedes its prior
// seen/working indicator.
func OnCommentAdded(t domain.Thread, author domain.Author, now time.Time) domain.Thread {
	t.AgentStatus = domain.AgentStatusNone
	t.UpdatedAt = now
	return t
}

// CanSetAgentStatus reports whether set_agent_status may be applied: only
// open threads carry an agent-status sub-state.
func CanSetAgentStatus(t domain.Thread) bool {
	return t.Status == domain.ThreadOpenStatus
}
