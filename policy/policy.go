package policy

import (
	"context"
	"fmt"
	"strings"
)

// Modes applied to actions rejected by the allow and block lists.
const (
	ModeDeny = "deny" // fail the task (default)
	ModeSkip = "skip" // complete the task without calling the action
)

// Decision is the outcome of evaluating an action
type Decision int

const (
	Run Decision = iota
	Skip
	Deny
)

// Policy represents action gating settings.
//
//   - AllowList, when not empty, names the only actions that may run.
//   - BlockList names actions that never run and wins over AllowList.
//   - Mode controls what happens to a rejected action.
type Policy struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// Validate checks the mode and action names
func (p *Policy) Validate() error {
	if p == nil {
		return nil
	}
	switch p.Mode {
	case "", ModeDeny, ModeSkip:
	default:
		return fmt.Errorf("unsupported policy mode %q", p.Mode)
	}
	for _, action := range append(append([]string(nil), p.AllowList...), p.BlockList...) {
		if service, method, ok := strings.Cut(action, "."); !ok || service == "" || method == "" {
			return fmt.Errorf("invalid policy action %q, expected service.method", action)
		}
	}
	return nil
}

// IsEmpty returns true when the policy rejects nothing
func (p *Policy) IsEmpty() bool {
	return p == nil || (len(p.AllowList) == 0 && len(p.BlockList) == 0)
}

// IsAllowed evaluates the lists; names match case-insensitively
func (p *Policy) IsAllowed(action string) bool {
	if p == nil {
		return true
	}
	normalized := strings.ToLower(action)
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// Evaluate returns the decision for the service method
func (p *Policy) Evaluate(service, method string) Decision {
	if p.IsAllowed(service + "." + method) {
		return Run
	}
	if p.Mode == ModeSkip {
		return Skip
	}
	return Deny
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext returns the policy carried by ctx, or nil
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
