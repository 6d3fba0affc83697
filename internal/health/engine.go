// internal/health/engine.go
// Engine evaluates a set of composite Rules against a sampled metric map on
// every tick, notifying each configured Sink the first time a rule
// transitions from healthy to firing (edge-triggered, not resampled on
// every tick while still firing) and again once it clears.
package health

import "sync"

// Sink receives a human-readable notification when a rule's state changes.
type Sink interface {
    Notify(ruleName, msg string)
}

// Rule pairs a name with a compiled composite Predicate.
type Rule struct {
    Name      string
    Predicate Predicate
}

// NewRule compiles expr and wraps it as a named Rule.
func NewRule(name, expr string) (Rule, error) {
    pred, err := Compile(expr)
    if err != nil {
        return Rule{}, err
    }
    return Rule{Name: name, Predicate: pred}, nil
}

// Engine holds a fixed set of rules and sinks and tracks each rule's last
// observed state so Sinks are only notified on transitions.
type Engine struct {
    rules []Rule
    sinks []Sink

    mu     sync.Mutex
    firing map[string]bool
}

// NewEngine builds an Engine from the given rules and sinks.
func NewEngine(rules []Rule, sinks []Sink) *Engine {
    return &Engine{rules: rules, sinks: sinks, firing: make(map[string]bool)}
}

// Check evaluates every rule against metrics and notifies sinks for any
// rule whose firing state changed since the previous call.
func (e *Engine) Check(metrics map[string]float64) {
    e.mu.Lock()
    defer e.mu.Unlock()

    for _, r := range e.rules {
        now := r.Predicate(metrics)
        was := e.firing[r.Name]
        if now == was {
            continue
        }
        e.firing[r.Name] = now
        msg := "cleared"
        if now {
            msg = "firing"
        }
        for _, s := range e.sinks {
            s.Notify(r.Name, msg)
        }
    }
}
