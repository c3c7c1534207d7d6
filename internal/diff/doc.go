// Package diff computes the ordered update actions that move an existing
// entity to the state described by a resolved draft.
//
// Every kind builds on two shared algorithms:
//
// ReconcileKeyed handles ordered child collections keyed by a stable name,
// such as field definitions or attribute definitions. It emits, in order:
//  1. for each existing child, in existing order: a removal when the child is
//     gone, a removal followed by an addition when its structure changed, or
//     its child-level changes
//  2. additions for new children, in draft order
//  3. one reorder action carrying the complete draft order, when the order
//     the backend would hold after steps 1 and 2 differs from the draft
//
// ReconcileEnums handles enum values: one removal action carrying every
// removed key, label changes, additions, then one order change.
//
// Two children sharing a key abort the diff of their parent with a
// DuplicateKeyError. Problems that affect a single action, such as a product
// attribute missing from its product type, are collected as warnings and the
// remaining actions are still returned.
//
// Builders are pure: the same inputs always produce the same actions.
package diff
