// Package model provides a missing-safe view over arbitrary resource documents.
//
// Documents returned by the client binary are decoded into plain Go data
// (map[string]any, []any, strings, numbers, booleans and nil) and wrapped in a
// *Value. A Value is a tagged union: its Kind tells which of the JSON types it
// holds, or KindAbsent when the value was reached through a path that does not
// exist in the document.
//
// Navigation never fails:
//
//	doc, _ := model.Decode(out)
//	phase := doc.Get("status", "phase").Str("Unknown")
//	if doc.Get("metadata", "labels", "app").IsAbsent() {
//		// label not set
//	}
//
// Absent propagates through further navigation, is falsy, has length zero and
// is never equal to a concrete value. Mutating a Value reached only through
// Absent navigation returns a *ModelError.
//
// CanMatch implements subset matching: maps match when every pattern key is
// present with a matching value, lists match when every pattern element is
// satisfied by at least one element, and scalars are compared after coercing
// numbers, strings and booleans to a common representation so that values
// which drifted through a JSON/YAML round trip ("true" vs true, "1" vs 1) still
// compare equal.
package model
