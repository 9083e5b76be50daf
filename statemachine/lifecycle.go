package statemachine

import (
	"errors"
	"strings"

	"parcel-delivery-api/models"
)

// Transition defines a valid state change and who normally performs it
type Transition struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Actor string `json:"actor"` // "admin", "rider", "system"
}

// Machine is a set of allowed transitions over one status field
type Machine struct {
	name        string
	transitions []Transition
	allowed     map[transitionKey]bool
}

type transitionKey struct {
	From string
	To   string
}

func newMachine(name string, transitions []Transition) *Machine {
	m := &Machine{name: name, transitions: transitions, allowed: make(map[transitionKey]bool)}
	for _, t := range transitions {
		m.allowed[transitionKey{t.From, t.To}] = true
	}
	return m
}

// Delivery is the parcel delivery lifecycle
var Delivery = newMachine("delivery_status", []Transition{
	// Admin assigns a rider to a paid parcel
	{From: string(models.DeliveryPending), To: string(models.DeliveryAssigned), Actor: "admin"},
	// Reassignment to another rider
	{From: string(models.DeliveryAssigned), To: string(models.DeliveryAssigned), Actor: "admin"},
	// Rider hands the parcel over
	{From: string(models.DeliveryAssigned), To: string(models.DeliveryDelivered), Actor: "rider"},
})

// Rider is the rider application lifecycle. Approval is idempotent.
var Rider = newMachine("status", []Transition{
	{From: string(models.RiderPending), To: string(models.RiderPending), Actor: "system"},
	{From: string(models.RiderPending), To: string(models.RiderApproved), Actor: "admin"},
	{From: string(models.RiderApproved), To: string(models.RiderApproved), Actor: "admin"},
})

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine) ValidTransitionsFrom(status string) []string {
	var nexts []string
	seen := map[string]bool{}
	for _, t := range m.transitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks whether the status may move from one state to another
func (m *Machine) CanTransition(from, to string) error {
	if m.allowed[transitionKey{From: from, To: to}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + from + " → " + to + " is not allowed for " + m.name + ". " +
			"Valid transitions from " + from + " are: " + m.describeValidFrom(from),
	)
}

func (m *Machine) describeValidFrom(status string) string {
	nexts := m.ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	return strings.Join(nexts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func (m *Machine) GetAllTransitions() []Transition {
	return m.transitions
}
