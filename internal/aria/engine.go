package aria

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
)

// Sentinel errors for remediation.
var (
	ErrNilRoot       = errors.New("remediation root is nil")
	ErrRuleFailed    = errors.New("remediation rule failed")
	ErrInvalidPolicy = errors.New("invalid error policy")
)

// ErrorPolicy decides what happens to the rest of a pass when a rule fails.
type ErrorPolicy int

const (
	// FailFast aborts the pass at the first failing rule.
	FailFast ErrorPolicy = iota
	// ContinueOnError records the failure and runs the remaining rules.
	ContinueOnError
)

// String returns the configuration name of the policy.
func (p ErrorPolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case ContinueOnError:
		return "continue"
	}
	return fmt.Sprintf("ErrorPolicy(%d)", int(p))
}

// ParseErrorPolicy maps a configuration value to an ErrorPolicy.
// The empty string selects FailFast.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail-fast", "failfast":
		return FailFast, nil
	case "continue", "continue-on-error":
		return ContinueOnError, nil
	}
	return FailFast, fmt.Errorf("%w: %q (must be fail-fast or continue)", ErrInvalidPolicy, s)
}

// FixFunc repairs one matched element through the Fixer.
type FixFunc func(fx *Fixer, el *html.Node) error

// Rule pairs a selector with the fix applied to each element it matches.
// Rules hold no state between passes.
type Rule struct {
	Name        string
	Description string
	Selector    *xpath.Expr
	Fix         FixFunc
}

// RuleResult records what a rule did during one pass.
type RuleResult struct {
	Name    string
	Matched int
	Changed int
	Err     error
}

// Report summarizes a remediation pass.
type Report struct {
	Rules []RuleResult
}

// Changes returns the total number of attribute edits in the pass.
func (r *Report) Changes() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, rr := range r.Rules {
		total += rr.Changed
	}
	return total
}

// Failed returns the results of rules that returned an error.
func (r *Report) Failed() []RuleResult {
	if r == nil {
		return nil
	}
	var out []RuleResult
	for _, rr := range r.Rules {
		if rr.Err != nil {
			out = append(out, rr)
		}
	}
	return out
}

// Rule returns the result recorded for the named rule.
func (r *Report) Rule(name string) (RuleResult, bool) {
	if r == nil {
		return RuleResult{}, false
	}
	for _, rr := range r.Rules {
		if rr.Name == name {
			return rr, true
		}
	}
	return RuleResult{}, false
}

// IDGenerator returns a candidate element id with the given prefix.
type IDGenerator func(prefix string) string

// uuidIDs generates short random ids such as "label-1f0c9a2b".
func uuidIDs(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// sequentialIDs numbers ids from 1 for one remediation pass, so the same
// page always receives the same ids.
func sequentialIDs() IDGenerator {
	n := 0
	return func(prefix string) string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

// Fixer applies edits for a single rule and counts the ones that changed the tree.
type Fixer struct {
	root    *html.Node
	ids     IDGenerator
	changed int
}

// Set assigns an attribute value.
func (f *Fixer) Set(el *html.Node, key, val string) {
	if dom.SetAttr(el, key, val) {
		f.changed++
	}
}

// Remove deletes an attribute.
func (f *Fixer) Remove(el *html.Node, key string) {
	if dom.RemoveAttr(el, key) {
		f.changed++
	}
}

// Query runs a sub-query under el.
func (f *Fixer) Query(el *html.Node, expr *xpath.Expr) []*html.Node {
	return dom.Find(el, expr)
}

// UniqueID returns a generated id not yet used anywhere in the document
// owning the remediation root.
func (f *Fixer) UniqueID(prefix string) (string, error) {
	const attempts = 8
	doc := dom.OwnerDocument(f.root).Root()
	for i := 0; i < attempts; i++ {
		id := f.ids(prefix)
		if id != "" && !idInUse(doc, id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("no unique id with prefix %q after %d attempts", prefix, attempts)
}

func idInUse(root *html.Node, id string) bool {
	used := false
	dom.Walk(root, func(n *html.Node) bool {
		if v, ok := dom.Attr(n, "id"); ok && v == id {
			used = true
			return false
		}
		return true
	})
	return used
}

// Engine runs the remediation battery over a subtree.
type Engine struct {
	rules  []Rule
	policy ErrorPolicy
	newIDs func() IDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithErrorPolicy selects fail-fast or continue-on-error behavior.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithIDGenerator replaces the random id source used for label ids.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newIDs = func() IDGenerator { return gen }
		}
	}
}

// WithSequentialIDs numbers generated ids per remediation pass ("label-1",
// "label-2", ...) instead of drawing random ones, so identical pages
// serialize identically.
func WithSequentialIDs() Option {
	return func(e *Engine) { e.newIDs = sequentialIDs }
}

// WithRules replaces the rule battery.
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// New creates an Engine with the default rule battery.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:  DefaultRules(),
		policy: FailFast,
		newIDs: func() IDGenerator { return uuidIDs },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules in execution order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Policy returns the configured error policy.
func (e *Engine) Policy() ErrorPolicy { return e.policy }

// Remediate applies every rule, in order, to the elements under root.
// Each rule queries the tree afresh, so it observes edits made by earlier rules.
// Under FailFast the first failure stops the pass and is returned together
// with the partial report; under ContinueOnError failures are only recorded.
func (e *Engine) Remediate(root *html.Node) (*Report, error) {
	if root == nil {
		return nil, ErrNilRoot
	}

	ids := e.newIDs()
	report := &Report{Rules: make([]RuleResult, 0, len(e.rules))}
	for _, rule := range e.rules {
		res := e.apply(rule, root, ids)
		report.Rules = append(report.Rules, res)
		if res.Err != nil && e.policy == FailFast {
			return report, res.Err
		}
	}
	return report, nil
}

// apply runs one rule, converting errors and panics into the result.
func (e *Engine) apply(rule Rule, root *html.Node, ids IDGenerator) (res RuleResult) {
	res.Name = rule.Name
	fx := &Fixer{root: root, ids: ids}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %s: panic: %v", ErrRuleFailed, rule.Name, r)
		}
		res.Changed = fx.changed
	}()

	matches := dom.Find(root, rule.Selector)
	res.Matched = len(matches)
	for _, el := range matches {
		if err := rule.Fix(fx, el); err != nil {
			res.Err = fmt.Errorf("%w: %s: %v", ErrRuleFailed, rule.Name, err)
			return res
		}
	}
	return res
}
