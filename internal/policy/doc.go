// Package policy decides what a principal may do with tracker resources.
//
// Every decision is derived from the principal's current role plus the
// ownership references of the resource involved (the project's manager, the
// task's assignee, the creator of a team). A decision either allows the
// operation outright, denies it with a reason suitable for the client, or
// allows it under a Filter that narrows list queries to what the principal
// may see.
//
// The evaluator is pure and holds no state; it is safe for concurrent use.
package policy
