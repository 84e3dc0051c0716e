// Package models defines the server-side domain records: live aggregates
// (cases and todos with their control record and time entries), the archive
// snapshot that replaces them after archival, and the disposition audit rows
// that outlive both.
package models

// AggregateKind discriminates which live table an aggregate (and its
// snapshot) belongs to.
type AggregateKind string

const (
	KindCase AggregateKind = "case"
	KindTodo AggregateKind = "todo"
)

// Valid reports whether k is one of the known aggregate kinds.
func (k AggregateKind) Valid() bool {
	return k == KindCase || k == KindTodo
}
