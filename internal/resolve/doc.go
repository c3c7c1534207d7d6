// Package resolve rewrites key-based references inside drafts into id-based
// references.
//
// Every reference field follows the same rules:
//   - a reference that already carries an id passes through unchanged
//   - a blank key, or an absent value on a required field, fails with CodeBlankKey
//   - a key is looked up in the run's key/id cache, falling back to the backend
//   - a key that does not exist fails with CodeNotFound, unless it names
//     another draft of the same kind in the run's input; then the draft is
//     deferred (CodeDeferred) until that dependency has been created
//
// UUID-shaped keys are rejected by default because they usually indicate a
// backend id passed where a stable external key was expected. With
// AllowUUIDKeys they are taken as already-resolved ids.
package resolve
