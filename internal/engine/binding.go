package engine

import (
	"context"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/driver"
	"github.com/relaydb/relay/internal/render"
)

// resolveVariables is the binding pass. It walks the main-pass statements
// in declaration order, and for every required variable name, in order of
// first appearance:
//
//  1. reuses a value already bound on the statement or in the chain-wide
//     resolved map;
//  2. otherwise executes every statement whose id is %NAME% and takes the
//     first non-null value of the first result row's first column;
//  3. otherwise falls back to the command's properties, then the caller's
//     overrides.
//
// Unresolved names bind to nil; downstream rendering emits NULL. The
// binding pass never aborts the chain (soft policy), so execution errors
// on variable statements are logged and treated as unresolved.
func (e *Executor) resolveVariables(ctx context.Context, cmd *chain.Command, conn driver.Connection, overrides map[string]any) {
	if cmd.Resolved == nil {
		cmd.Resolved = make(map[string]any)
	}

	for _, s := range cmd.Statements {
		if s.IsVariableStatement() {
			continue
		}
		for _, name := range s.RequiredVariables() {
			if v, ok := s.Variables.Get(name); ok && v != nil {
				if _, bound := cmd.Resolved[name]; !bound {
					cmd.Resolved[name] = v
				}
				continue
			}
			if v, bound := cmd.Resolved[name]; bound {
				s.SetVariable(name, v)
				continue
			}

			v, found := e.resolveByStatement(ctx, cmd, conn, name)
			if !found {
				v, found = cmd.Property(name)
			}
			if !found {
				v = overrides[name]
			}

			s.SetVariable(name, v)
			cmd.Resolved[name] = v
		}
	}
}

// resolveByStatement executes the %name% statements and returns the first
// non-null value of the first result row's first column.
func (e *Executor) resolveByStatement(ctx context.Context, cmd *chain.Command, conn driver.Connection, name string) (any, bool) {
	sqlID := "%" + name + "%"

	var resolved any
	found := false
	for _, vs := range cmd.Statements {
		if vs.SQLID != sqlID {
			continue
		}

		r, err := render.Statement(vs, conn.Dialect(), executedStatements(cmd))
		if err != nil {
			e.log.Error("Can't build SQL for variable "+vs.SQLID, "error", err)
			continue
		}
		res, err := conn.ExecuteRaw(ctx, r.SQL)
		if err != nil {
			e.log.Error("SQL failed for variable "+vs.SQLID, "sql", r.SQL, "error", err)
			continue
		}

		vs.RenderedSQL = r.SQL
		vs.Results = res.Rows
		vs.LastID = ResolveLastID(res.LastID, vs, r.Named, executedStatements(cmd))
		vs.Executed = true
		e.log.Info("Executed SQL for variable "+vs.SQLID, "sql", r.SQL)

		if !found {
			if v, ok := firstColumnValue(vs); ok {
				resolved = v
				found = true
			}
		}
	}
	return resolved, found
}

// firstColumnValue picks the first non-null column value of the first
// result row, preferring the statement's declared return columns (by
// alias when one is set).
func firstColumnValue(s *chain.Statement) (any, bool) {
	if len(s.Results) == 0 {
		return nil, false
	}
	row := s.Results[0]

	for _, col := range s.ReturnColumns.Keys() {
		key := col
		if alias, _ := s.ReturnColumns.Get(col); alias != nil {
			if aliasStr, ok := alias.(string); ok && aliasStr != "" {
				key = aliasStr
			}
		}
		if v, ok := row[key]; ok && v != nil {
			return v, true
		}
	}

	// No projection declared: any non-null value of the row.
	for _, v := range row {
		if v != nil {
			return v, true
		}
	}
	return nil, false
}
