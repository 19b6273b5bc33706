// Package aria repairs common ARIA defects in decorated page content.
//
// The Engine runs a fixed, ordered battery of rules over a subtree. Each rule
// pairs an XPath selector, evaluated against descendants of the root, with a
// fix applied to every match. Rules are independent and idempotent: a second
// pass over already repaired content reports no changes.
//
// Rules run in this order:
//
//	interactive-role       tabindex="0" without a role gets role="button"
//	expanded-state         aria-expanded outside true/false becomes false
//	tablist                orientation, aria-selected and aria-controls on tabs
//	labelledby-duplicates  duplicate ids dropped from aria-labelledby
//	empty-alt              alt="" becomes "Decorative image"
//	hidden-focusable       focusables under aria-hidden="true" get tabindex="-1"
//	listbox                single-select listbox, first option selected
//	required-state         invalid aria-required removed
//	input-label            inputs labelled by the preceding <label> or named
//	anchor-button-role     role="button" removed from anchors
//	alert-live             role="alert" gets aria-live="assertive"
//	checkbox-state         aria-checked outside true/false becomes false
package aria
