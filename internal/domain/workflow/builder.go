package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// GuardFunc decides whether a guarded edge may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects the edges of a state graph and builds machines from it
type StateMachineBuilder interface {
	Configure(state State) StateConfiguration
	Build(initialState State) StateMachine
}

// StateConfiguration adds outgoing edges to one state. Edges for the same trigger are
// tried in the order they were added; the first whose guard passes wins.
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

// graph maps each state to its outgoing edges per trigger
type graph map[State]map[Trigger][]edge

// snapshot copies the graph so later Configure calls do not reach built machines
func (g graph) snapshot() graph {
	out := make(graph, len(g))
	for state, byTrigger := range g {
		edges := make(map[Trigger][]edge, len(byTrigger))
		for trigger, es := range byTrigger {
			edges[trigger] = append([]edge(nil), es...)
		}
		out[state] = edges
	}
	return out
}

type builder struct {
	edges   graph
	configs map[State]*stateEdges
}

type stateEdges struct {
	from  State
	edges graph
}

// NewBuilder returns an empty builder
func NewBuilder() StateMachineBuilder {
	return &builder{edges: make(graph), configs: make(map[State]*stateEdges)}
}

func mustBeValid(s State, what string) {
	if !s.IsValid() {
		panic(fmt.Sprintf("%s: %v %q", what, ErrInvalidState, s))
	}
}

func (b *builder) Configure(state State) StateConfiguration {
	mustBeValid(state, "configure")
	if c, ok := b.configs[state]; ok {
		return c
	}
	b.edges[state] = make(map[Trigger][]edge)
	c := &stateEdges{from: state, edges: b.edges}
	b.configs[state] = c
	return c
}

func (b *builder) Build(initialState State) StateMachine {
	mustBeValid(initialState, "build")
	return &machine{
		current: initialState,
		edges:   b.edges.snapshot(),
		now:     time.Now,
	}
}

func (c *stateEdges) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateEdges) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	mustBeValid(toState, "permit")
	c.edges[c.from][trigger] = append(c.edges[c.from][trigger], edge{to: toState, guard: guard})
	return c
}

type machine struct {
	current State
	edges   graph
	trail   []Transition
	now     func() time.Time
}

func (m *machine) State() State {
	return m.current
}

// CanFire reports whether the current state has an edge for trigger. Guards are not
// evaluated.
func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.edges[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.edges[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, e := range candidates {
		if e.guard != nil && !e.guard(ctx) {
			continue
		}
		m.trail = append(m.trail, Transition{From: m.current, Trigger: trigger, To: e.to, At: m.now()})
		m.current = e.to
		return nil
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(m.edges[m.current]))
	for trigger := range m.edges[m.current] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

func (m *machine) History() []Transition {
	return append([]Transition(nil), m.trail...)
}
