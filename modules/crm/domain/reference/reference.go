// Package reference describes the read-only directories the migration
// engine resolves foreign-key cell values against.
package reference

import "context"

// Entity is one directory record: a status, platform or source.
type Entity struct {
	ID   string
	Name string
}

// User is a person-like directory record. Username and email participate in
// value matching the same way the display name does.
type User struct {
	ID       string
	Name     string
	Username string
	Email    string
}

type StatusDirectory interface {
	Statuses(ctx context.Context) ([]Entity, error)
}

type PlatformDirectory interface {
	Platforms(ctx context.Context) ([]Entity, error)
}

// SourceDirectory additionally supports creating a source from a literal
// cell value that matched nothing.
type SourceDirectory interface {
	Sources(ctx context.Context) ([]Entity, error)
	CreateSource(ctx context.Context, name string) (Entity, error)
}

type UserDirectory interface {
	ConfirmingAgents(ctx context.Context) ([]User, error)
	Operators(ctx context.Context) ([]User, error)
}
