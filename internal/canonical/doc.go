// Package canonical produces a stable byte representation of JSON values.
//
// Marshal follows RFC 8785: object keys sorted by UTF-16 code units, strings
// NFC-normalized, no HTML escaping, no insignificant whitespace. Two values
// that are equal as JSON always marshal to the same bytes, so the output is
// safe to hash and to compare in golden files.
//
// Unlike strict RFC 8785, numbers are written exactly as encoding/json
// produces them; drafts may carry decimal attribute values.
package canonical
