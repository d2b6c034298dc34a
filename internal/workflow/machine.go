// Package workflow holds the lifecycle transition tables for tasks and
// reports. Services consult these tables before any status write; there is
// no other path between statuses.
package workflow

import "github.com/vietqa/accred-api/internal/models"

// Machine is a status transition table.
type Machine struct {
	transitions map[string]map[string]bool
}

// NewMachine builds a machine from an adjacency list.
func NewMachine(transitions map[string][]string) *Machine {
	m := &Machine{transitions: make(map[string]map[string]bool, len(transitions))}
	for from, tos := range transitions {
		set := make(map[string]bool, len(tos))
		for _, to := range tos {
			set[to] = true
		}
		m.transitions[from] = set
	}
	return m
}

// Allowed reports whether the transition from -> to is permitted.
func (m *Machine) Allowed(from, to string) bool {
	return m.transitions[from][to]
}

// Targets returns the permitted destination statuses for the given status.
func (m *Machine) Targets(from string) []string {
	set := m.transitions[from]
	out := make([]string, 0, len(set))
	for to := range set {
		out = append(out, to)
	}
	return out
}

// TaskMachine governs ordinary task status changes. Privileged roles may
// move a task between any two distinct statuses regardless of this table.
var TaskMachine = NewMachine(map[string][]string{
	models.TaskStatusPending:    {models.TaskStatusInProgress, models.TaskStatusCancelled},
	models.TaskStatusInProgress: {models.TaskStatusSubmitted, models.TaskStatusCancelled},
	models.TaskStatusSubmitted:  {models.TaskStatusInProgress, models.TaskStatusCompleted, models.TaskStatusRejected},
	models.TaskStatusRejected:   {models.TaskStatusInProgress, models.TaskStatusCancelled},
	models.TaskStatusCompleted:  {models.TaskStatusInProgress},
	models.TaskStatusCancelled:  {},
})

// SubmitSources are the task statuses from which an assignee may submit.
var SubmitSources = map[string]bool{
	models.TaskStatusPending:    true,
	models.TaskStatusInProgress: true,
	models.TaskStatusRejected:   true,
}

// ReviewTargets are the statuses a reviewer may move a submitted task to.
var ReviewTargets = map[string]bool{
	models.TaskStatusCompleted: true,
	models.TaskStatusRejected:  true,
}
