package services

import (
	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/models"
)

// Authorizer decides whether a principal may perform an operation
type Authorizer interface {
	Gate(role models.Role, resource policy.Resource, action policy.Action) policy.Decision
	Decide(actor policy.Actor, req policy.Request) policy.Decision
}

// Enforce turns a denial into a forbidden error carrying its reason
func Enforce(d policy.Decision) error {
	if d.Allowed() {
		return nil
	}
	return Forbidden(d.Reason)
}

// DenialRecorder counts refused decisions
type DenialRecorder interface {
	RecordDenial(resource, action string)
}

type recordingAuthorizer struct {
	inner    Authorizer
	recorder DenialRecorder
}

// RecordDenials wraps inner so every denial is reported to recorder
func RecordDenials(inner Authorizer, recorder DenialRecorder) Authorizer {
	return &recordingAuthorizer{inner: inner, recorder: recorder}
}

func (a *recordingAuthorizer) Gate(role models.Role, resource policy.Resource, action policy.Action) policy.Decision {
	return a.observe(a.inner.Gate(role, resource, action), resource, action)
}

func (a *recordingAuthorizer) Decide(actor policy.Actor, req policy.Request) policy.Decision {
	return a.observe(a.inner.Decide(actor, req), req.Resource, req.Action)
}

func (a *recordingAuthorizer) observe(d policy.Decision, resource policy.Resource, action policy.Action) policy.Decision {
	if !d.Allowed() {
		a.recorder.RecordDenial(string(resource), string(action))
	}
	return d
}
