package aria

import (
	"strconv"
	"strings"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
)

// Rule names, in execution order.
const (
	RuleInteractiveRole  = "interactive-role"
	RuleExpandedState    = "expanded-state"
	RuleTabList          = "tablist"
	RuleLabelledBy       = "labelledby-duplicates"
	RuleEmptyAlt         = "empty-alt"
	RuleHiddenFocusable  = "hidden-focusable"
	RuleListbox          = "listbox"
	RuleRequiredState    = "required-state"
	RuleInputLabel       = "input-label"
	RuleAnchorButtonRole = "anchor-button-role"
	RuleAlertLive        = "alert-live"
	RuleCheckboxState    = "checkbox-state"
)

// Replacement values written by the rules.
const (
	GenericRole          = "button"
	DecorativeImageAlt   = "Decorative image"
	GenericInputLabel    = "Input field"
	TabPanelPrefix       = "tabpanel-"
	GeneratedLabelPrefix = "label"
)

var (
	tabExpr    = xpath.MustCompile(".//*[@role='tab']")
	optionExpr = xpath.MustCompile(".//*[@role='option']")
)

// DefaultRules returns the fixed remediation battery.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        RuleInteractiveRole,
			Description: "focusable elements without a role get a generic interactive role",
			Selector:    xpath.MustCompile(".//*[@tabindex='0'][not(@role) or @role=''][not(self::a)]"),
			Fix: func(fx *Fixer, el *html.Node) error {
				fx.Set(el, "role", GenericRole)
				return nil
			},
		},
		{
			Name:        RuleExpandedState,
			Description: "invalid aria-expanded values collapse to false",
			Selector:    xpath.MustCompile(".//*[@aria-expanded]"),
			Fix:         normalizeBoolean("aria-expanded"),
		},
		// Nested tab lists: the inner list is fixed last, so its tabs take
		// the inner numbering and panel ids repeat across the two lists.
		{
			Name:        RuleTabList,
			Description: "tab lists are horizontal, tabs reference panels and only the first is selected",
			Selector:    xpath.MustCompile(".//*[@role='tablist']"),
			Fix: func(fx *Fixer, el *html.Node) error {
				fx.Set(el, "aria-orientation", "horizontal")
				for i, tab := range fx.Query(el, tabExpr) {
					fx.Set(tab, "aria-selected", boolString(i == 0))
					fx.Set(tab, "aria-controls", TabPanelPrefix+strconv.Itoa(i))
				}
				return nil
			},
		},
		{
			Name:        RuleLabelledBy,
			Description: "duplicate ids in aria-labelledby are removed",
			Selector:    xpath.MustCompile(".//*[@aria-labelledby]"),
			Fix: func(fx *Fixer, el *html.Node) error {
				v, _ := dom.Attr(el, "aria-labelledby")
				if ids, dup := dedupe(strings.Fields(v)); dup {
					fx.Set(el, "aria-labelledby", strings.Join(ids, " "))
				}
				return nil
			},
		},
		{
			Name:        RuleEmptyAlt,
			Description: "images with empty alt text get a placeholder description",
			Selector:    xpath.MustCompile(".//img[@alt='']"),
			Fix: func(fx *Fixer, el *html.Node) error {
				fx.Set(el, "alt", DecorativeImageAlt)
				return nil
			},
		},
		{
			Name:        RuleHiddenFocusable,
			Description: "focusable content inside aria-hidden subtrees leaves the tab order",
			Selector:    xpath.MustCompile(".//*[self::button or @tabindex='0'][ancestor::*[@aria-hidden='true']]"),
			Fix: func(fx *Fixer, el *html.Node) error {
				fx.Set(el, "tabindex", "-1")
				return nil
			},
		},
		{
			Name:        RuleListbox,
			Description: "listboxes are single-select with the first option selected",
			Selector:    xpath.MustCompile(".//*[@role='listbox']"),
			Fix: func(fx *Fixer, el *html.Node) error {
				fx.Set(el, "aria-multiselectable", "false")
				for i, opt := range fx.Query(el, optionExpr) {
					fx.Set(opt, "aria-selected", boolString(i == 0))
				}
				return nil
			},
		},
		{
			Name:        RuleRequiredState,
			Description: "invalid aria-required values are dropped",
			Selector:    xpath.MustCompile(".//*[@aria-required]"),
			Fix: func(fx *Fixer, el *html.Node) error {
				if v, _ := dom.Attr(el, "aria-required"); !isBoolean(v) {
					fx.Remove(el, "aria-required")
				}
				return nil
			},
		},
		{
			Name:        RuleInputLabel,
			Description: "unlabelled inputs reference an adjacent label or get a generic name",
			Selector:    xpath.MustCompile(".//input[not(@aria-label)][not(@aria-labelledby)]"),
			Fix:         labelInput,
		},
		{
			Name:        RuleAnchorButtonRole,
			Description: "anchors keep native link semantics",
			Selector:    xpath.MustCompile(".//a[@role='button']"),
			Fix: func(fx *Fixer, el *html.Node) error {
				fx.Remove(el, "role")
				return nil
			},
		},
		{
			Name:        RuleAlertLive,
			Description: "alerts announce assertively",
			Selector:    xpath.MustCompile(".//*[@role='alert']"),
			Fix: func(fx *Fixer, el *html.Node) error {
				fx.Set(el, "aria-live", "assertive")
				return nil
			},
		},
		{
			Name:        RuleCheckboxState,
			Description: "invalid aria-checked values on checkboxes become false",
			Selector:    xpath.MustCompile(".//*[@role='checkbox'][@aria-checked]"),
			Fix:         normalizeBoolean("aria-checked"),
		},
	}
}

// labelInput associates an input with the label right before it, or names it.
func labelInput(fx *Fixer, el *html.Node) error {
	label := dom.PreviousElementSibling(el)
	if !dom.IsElement(label, "label") {
		fx.Set(el, "aria-label", GenericInputLabel)
		return nil
	}

	id, _ := dom.Attr(label, "id")
	if id == "" {
		generated, err := fx.UniqueID(GeneratedLabelPrefix)
		if err != nil {
			return err
		}
		id = generated
		fx.Set(label, "id", id)
	}
	fx.Set(el, "aria-labelledby", id)
	return nil
}

// normalizeBoolean rewrites any value other than "true"/"false" to "false".
func normalizeBoolean(attr string) FixFunc {
	return func(fx *Fixer, el *html.Node) error {
		if v, _ := dom.Attr(el, attr); !isBoolean(v) {
			fx.Set(el, attr, "false")
		}
		return nil
	}
}

func isBoolean(v string) bool {
	return v == "true" || v == "false"
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// dedupe keeps the first occurrence of each id and reports whether any repeated.
func dedupe(ids []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, len(out) != len(ids)
}
