// Package command collects named chains and exposes the host surface that
// embedded procedures call: execute a whole command, one statement, or a
// batch of statements, and read back result slots afterwards.
//
// Lookup misses are soft: they log an info message and return false or
// nil, never an error.
package command

import (
	"context"
	"log/slog"
	"sync"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/engine"
)

// Set owns a collection of commands keyed by id.
type Set struct {
	exec *engine.Executor
	log  *slog.Logger
	ids  IDGenerator

	mu           sync.RWMutex
	commands     map[string]*chain.Command
	order        []string
	fingerprints map[string]string // fingerprint → first id registered with it
}

// Option configures a Set.
type Option func(*Set)

// WithLogger routes the set's logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Set) { s.log = l }
}

// WithIDGenerator overrides the id generator (tests use FixedGenerator).
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Set) { s.ids = g }
}

// NewSet creates a command set executing through exec.
func NewSet(exec *engine.Executor, opts ...Option) *Set {
	s := &Set{
		exec:         exec,
		log:          slog.Default(),
		ids:          UUIDv7Generator{},
		commands:     make(map[string]*chain.Command),
		fingerprints: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a command, assigning an id when it has none, and returns
// the id. Registering an existing id replaces the command.
func (s *Set) Add(cmd *chain.Command) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd.ID == "" {
		cmd.ID = s.ids.Generate()
	}
	if _, exists := s.commands[cmd.ID]; !exists {
		s.order = append(s.order, cmd.ID)
	}
	s.commands[cmd.ID] = cmd

	if fp, err := cmd.Fingerprint(); err == nil {
		if firstID, dup := s.fingerprints[fp]; dup && firstID != cmd.ID {
			s.log.Info("Duplicate command content: " + cmd.ID + " matches " + firstID)
		} else if !dup {
			s.fingerprints[fp] = cmd.ID
		}
	}
	return cmd.ID
}

// Get returns the command with the given id, or nil.
func (s *Set) Get(id string) *chain.Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commands[id]
}

// ExecuteDBCommandByID runs the whole command in one transaction. The
// properties map overrides variable resolution of last resort.
func (s *Set) ExecuteDBCommandByID(ctx context.Context, id string, properties map[string]any) bool {
	cmd := s.Get(id)
	if cmd == nil {
		s.log.Info("Can't find command: " + id)
		return false
	}
	cmd.Reset()
	if err := s.exec.Execute(ctx, cmd, properties); err != nil {
		s.log.Error("Command failed: "+id, "error", err)
		return false
	}
	return true
}

// ExecuteSQLByID runs a single statement from whichever command owns it,
// inside its own transaction. The owning command's variable statements
// still run so %NAME% placeholders keep resolving.
func (s *Set) ExecuteSQLByID(ctx context.Context, sqlID string, properties map[string]any) bool {
	owner, _ := s.findStatement(sqlID)
	if owner == nil {
		s.log.Info("Can't find SQL: " + sqlID)
		return false
	}

	sub := owner.SubCommand(sqlID)
	sub.Reset()
	if err := s.exec.Execute(ctx, sub, properties); err != nil {
		s.log.Error("SQL failed: "+sqlID, "error", err)
		return false
	}
	return true
}

// ExecuteSQLsByIDs groups the ids by owning command and runs each group
// in its own transaction. Any failing group short-circuits the rest.
func (s *Set) ExecuteSQLsByIDs(ctx context.Context, sqlIDs []string, properties map[string]any) bool {
	type group struct {
		owner *chain.Command
		ids   []string
	}
	var groups []*group
	byOwner := make(map[*chain.Command]*group)

	for _, sqlID := range sqlIDs {
		owner, _ := s.findStatement(sqlID)
		if owner == nil {
			s.log.Info("Can't find SQL: " + sqlID)
			return false
		}
		g, ok := byOwner[owner]
		if !ok {
			g = &group{owner: owner}
			byOwner[owner] = g
			groups = append(groups, g)
		}
		g.ids = append(g.ids, sqlID)
	}

	for _, g := range groups {
		sub := g.owner.SubCommand(g.ids...)
		sub.Reset()
		if err := s.exec.Execute(ctx, sub, properties); err != nil {
			s.log.Error("SQL batch failed", "error", err)
			return false
		}
	}
	return true
}

// GetSQLResults returns the result rows of a previously executed
// statement.
func (s *Set) GetSQLResults(sqlID string) []map[string]any {
	_, stmt := s.findStatement(sqlID)
	if stmt == nil {
		s.log.Info("Can't find SQL: " + sqlID)
		return nil
	}
	return stmt.Results
}

// GetSQLResult returns the first result row, or nil.
func (s *Set) GetSQLResult(sqlID string) map[string]any {
	rows := s.GetSQLResults(sqlID)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// GetSQLResultsColumn returns one column across all result rows.
func (s *Set) GetSQLResultsColumn(sqlID, column string) []any {
	rows := s.GetSQLResults(sqlID)
	if rows == nil {
		return nil
	}
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row[column]
	}
	return out
}

// GetSQLResultColumn returns one column of the first result row.
func (s *Set) GetSQLResultColumn(sqlID, column string) any {
	row := s.GetSQLResult(sqlID)
	if row == nil {
		return nil
	}
	return row[column]
}

// GetProperty reads a property, searching commands in registration order.
func (s *Set) GetProperty(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if v, ok := s.commands[id].Property(key); ok {
			return v
		}
	}
	s.log.Info("Can't find property: " + key)
	return nil
}

// findStatement locates a statement by id across all commands, in
// registration order.
func (s *Set) findStatement(sqlID string) (*chain.Command, *chain.Statement) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		cmd := s.commands[id]
		if stmt := cmd.Statement(sqlID); stmt != nil {
			return cmd, stmt
		}
	}
	return nil, nil
}
