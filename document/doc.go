// Package document is the in-memory tree model of a parsed structured
// document: objects, arrays and primitive leaves.
//
// Nodes are immutable once built. Objects keep their members in source order
// and never hold two members with the same key: when a source object repeats a
// key, the last occurrence wins and takes the position of the first.
package document
