package policy

import (
	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
)

// FieldStatus is the only task field a member assignee may change
const FieldStatus = "status"

type gateKey struct {
	resource Resource
	action   Action
}

type gateRule struct {
	roles  []models.Role
	reason string
}

// gates lists operations restricted by role alone. Operations absent from
// the table are open to every role before ownership checks.
var gates = map[gateKey]gateRule{
	{ResourceTeam, ActionCreate}:    {adminOnly, "Only admins can manage teams"},
	{ResourceTeam, ActionUpdate}:    {adminOnly, "Only admins can manage teams"},
	{ResourceTeam, ActionDelete}:    {adminOnly, "Only admins can manage teams"},
	{ResourceProject, ActionCreate}: {managers, "Only managers and admins can create projects"},
	{ResourceProject, ActionGet}:    {managers, "Not authorized to view this project"},
	{ResourceProject, ActionUpdate}: {managers, "Only the project manager or admins can update this project"},
	{ResourceProject, ActionDelete}: {adminOnly, "Only admins can delete projects"},
	{ResourceTask, ActionCreate}:    {managers, "Only managers and admins can create tasks"},
	{ResourceTask, ActionDelete}:    {adminOnly, "Only admins can delete tasks"},
}

var (
	adminOnly = []models.Role{models.RoleAdmin}
	managers  = []models.Role{models.RoleAdmin, models.RoleManager}
)

// Evaluator applies the role and ownership policy of the tracker
type Evaluator struct{}

// NewEvaluator creates a new Evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Gate decides an operation from the role alone. It denies only what no
// ownership relation could allow, so route middleware can reject early
// without loading the resource.
func (e *Evaluator) Gate(role models.Role, resource Resource, action Action) Decision {
	if !role.Valid() {
		return deny("Unknown role")
	}

	rule, ok := gates[gateKey{resource, action}]
	if !ok {
		return allow()
	}
	for _, r := range rule.roles {
		if r == role {
			return allow()
		}
	}
	return deny(rule.reason)
}

// Decide evaluates req for actor. Admins are allowed everything unscoped.
func (e *Evaluator) Decide(actor Actor, req Request) Decision {
	if d := e.Gate(actor.Role, req.Resource, req.Action); !d.Allowed() {
		return d
	}
	if actor.Role == models.RoleAdmin {
		return allow()
	}

	switch req.Resource {
	case ResourceProject:
		return e.decideProject(actor, req)
	case ResourceTask:
		return e.decideTask(actor, req)
	case ResourceStats:
		return e.decideStats(actor)
	default:
		return allow()
	}
}

func (e *Evaluator) decideProject(actor Actor, req Request) Decision {
	manager := actor.Role == models.RoleManager

	switch req.Action {
	case ActionList:
		if manager {
			return scope(Filter{ManagerID: ref(actor.ID)})
		}
		// members see every project
		return allow()

	case ActionGet:
		if is(req.Owners.ManagerID, actor.ID) {
			return allow()
		}
		return deny("Not authorized to view this project")

	case ActionUpdate:
		if is(req.Owners.ManagerID, actor.ID) {
			return allow()
		}
		return deny("Only the project manager or admins can update this project")

	case ActionCreate:
		if is(req.Owners.TeamCreatorID, actor.ID) {
			return allow()
		}
		return deny("You can only create projects for teams you manage")
	}

	return deny("Operation not permitted")
}

func (e *Evaluator) decideTask(actor Actor, req Request) Decision {
	manages := actor.Role == models.RoleManager && is(req.Owners.ManagerID, actor.ID)
	assigned := is(req.Owners.AssigneeID, actor.ID)

	switch req.Action {
	case ActionList:
		if actor.Role == models.RoleManager {
			return scope(Filter{ManagerID: ref(actor.ID), AssigneeID: ref(actor.ID)})
		}
		return scope(Filter{AssigneeID: ref(actor.ID)})

	case ActionGet:
		if manages || assigned {
			return allow()
		}
		return deny("Not authorized to view this task")

	case ActionCreate:
		if manages {
			return allow()
		}
		return deny("You can only create tasks for projects you manage")

	case ActionUpdate:
		if actor.Role == models.RoleManager {
			if manages || assigned {
				return allow()
			}
			return deny("You can only update tasks in your projects or assigned to you")
		}
		if !assigned {
			return deny("You can only update your own tasks")
		}
		for _, f := range req.Fields {
			if f != FieldStatus {
				return deny("Members can only update task status")
			}
		}
		return allow()
	}

	return deny("Operation not permitted")
}

func (e *Evaluator) decideStats(actor Actor) Decision {
	if actor.Role == models.RoleManager {
		return scope(Filter{ManagerID: ref(actor.ID), AssigneeID: ref(actor.ID)})
	}
	return scope(Filter{AssigneeID: ref(actor.ID), ParticipantID: ref(actor.ID)})
}

func allow() Decision {
	return Decision{Effect: EffectAllow}
}

func deny(reason string) Decision {
	return Decision{Effect: EffectDeny, Reason: reason}
}

func scope(f Filter) Decision {
	return Decision{Effect: EffectScope, Filter: f}
}

func is(owner *uuid.UUID, id uuid.UUID) bool {
	return owner != nil && *owner == id
}

func ref(id uuid.UUID) *uuid.UUID {
	return &id
}
