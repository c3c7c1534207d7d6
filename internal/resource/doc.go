// Package resource defines the value types exchanged with the commerce backend.
//
// Drafts describe desired state and are supplied by callers. Entities are the
// backend's current state: a draft plus an id and a version used for
// optimistic concurrency. Entities are never mutated in place; Apply functions
// return a fresh copy.
//
// Four kinds are modelled:
//   - Type: custom-field type with ordered field definitions
//   - ProductType: ordered attribute definitions
//   - Category: tree of categories with an optional parent and custom fields
//   - Product: references a product type, categories and other products
//
// Update actions marshal to JSON with an "action" discriminator, matching the
// backend's update protocol.
package resource
