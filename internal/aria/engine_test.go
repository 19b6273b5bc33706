package aria

import (
	"errors"
	"strings"
	"testing"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
)

func parseMain(t *testing.T, body string) (*dom.Document, *html.Node) {
	t.Helper()
	doc, err := dom.ParseString("<html><body><main>" + body + "</main></body></html>")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	main := doc.Main()
	if main == nil {
		t.Fatal("document has no <main>")
	}
	return doc, main
}

func fixedIDs(id string) IDGenerator {
	return func(string) string { return id }
}

func find(t *testing.T, root *html.Node, expr string) *html.Node {
	t.Helper()
	n := dom.FindOne(root, xpath.MustCompile(expr))
	if n == nil {
		t.Fatalf("no element matches %s", expr)
	}
	return n
}

func TestRemediate_NilRoot(t *testing.T) {
	t.Parallel()

	_, err := New().Remediate(nil)
	if !errors.Is(err, ErrNilRoot) {
		t.Errorf("Remediate(nil) error = %v, want ErrNilRoot", err)
	}
}

func TestRemediate_ReportsEveryRuleInOrder(t *testing.T) {
	t.Parallel()

	_, main := parseMain(t, "<p>clean</p>")
	report, err := New().Remediate(main)
	if err != nil {
		t.Fatalf("Remediate() error = %v", err)
	}

	rules := DefaultRules()
	if len(report.Rules) != len(rules) {
		t.Fatalf("report has %d rules, want %d", len(report.Rules), len(rules))
	}
	for i, rr := range report.Rules {
		if rr.Name != rules[i].Name {
			t.Errorf("rule %d = %q, want %q", i, rr.Name, rules[i].Name)
		}
	}
	if report.Changes() != 0 {
		t.Errorf("Changes() = %d on clean content, want 0", report.Changes())
	}
}

func TestRemediate_FailFast(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var ranAfter bool
	rules := []Rule{
		{Name: "broken", Selector: xpath.MustCompile(".//p"), Fix: func(*Fixer, *html.Node) error { return boom }},
		{Name: "after", Selector: xpath.MustCompile(".//p"), Fix: func(*Fixer, *html.Node) error {
			ranAfter = true
			return nil
		}},
	}

	_, main := parseMain(t, "<p>x</p>")
	report, err := New(WithRules(rules)).Remediate(main)
	if !errors.Is(err, ErrRuleFailed) {
		t.Fatalf("error = %v, want ErrRuleFailed", err)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q should name the rule", err)
	}
	if ranAfter {
		t.Error("rules after a failure must not run under FailFast")
	}
	if len(report.Rules) != 1 {
		t.Errorf("partial report has %d rules, want 1", len(report.Rules))
	}
}

func TestRemediate_ContinueOnError(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{Name: "panics", Selector: xpath.MustCompile(".//p"), Fix: func(*Fixer, *html.Node) error {
			panic("unexpected")
		}},
		{Name: "marks", Selector: xpath.MustCompile(".//p"), Fix: func(fx *Fixer, el *html.Node) error {
			fx.Set(el, "data-seen", "true")
			return nil
		}},
	}

	_, main := parseMain(t, "<p>x</p>")
	report, err := New(WithRules(rules), WithErrorPolicy(ContinueOnError)).Remediate(main)
	if err != nil {
		t.Fatalf("Remediate() error = %v, want nil under ContinueOnError", err)
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0].Name != "panics" {
		t.Fatalf("Failed() = %+v, want the panicking rule", failed)
	}
	if !errors.Is(failed[0].Err, ErrRuleFailed) {
		t.Errorf("recovered panic error = %v, want ErrRuleFailed", failed[0].Err)
	}
	if rr, _ := report.Rule("marks"); rr.Changed != 1 {
		t.Errorf("marks changed %d elements, want 1", rr.Changed)
	}
}

func TestParseErrorPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ErrorPolicy
		wantErr bool
	}{
		{"", FailFast, false},
		{"fail-fast", FailFast, false},
		{"FailFast", FailFast, false},
		{"continue", ContinueOnError, false},
		{" continue-on-error ", ContinueOnError, false},
		{"ignore", FailFast, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseErrorPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseErrorPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("error = %v, want ErrInvalidPolicy", err)
			}
			if got != tt.want {
				t.Errorf("ParseErrorPolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFixer_UniqueIDAvoidsExistingIDs(t *testing.T) {
	t.Parallel()

	_, main := parseMain(t, `<label id="label-taken">a</label>`)
	calls := 0
	gen := func(prefix string) string {
		calls++
		if calls == 1 {
			return prefix + "-taken"
		}
		return prefix + "-free"
	}
	fx := &Fixer{root: main, ids: gen}
	id, err := fx.UniqueID("label")
	if err != nil {
		t.Fatalf("UniqueID() error = %v", err)
	}
	if id != "label-free" {
		t.Errorf("UniqueID() = %q, want label-free", id)
	}

	fx = &Fixer{root: main, ids: fixedIDs("label-taken")}
	if _, err := fx.UniqueID("label"); err == nil {
		t.Error("UniqueID() should fail when every candidate collides")
	}
}

func TestDefaultIDGenerator(t *testing.T) {
	t.Parallel()

	id := uuidIDs("label")
	if !strings.HasPrefix(id, "label-") || len(id) != len("label-")+8 {
		t.Errorf("uuidIDs() = %q, want label-<8 chars>", id)
	}
}
