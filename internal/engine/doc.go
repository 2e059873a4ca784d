// Package engine executes chains: it binds variables, renders each
// statement for the connection's dialect, and drives the whole list
// through a single transaction that commits or rolls back as one unit.
//
// A chain execution is strictly serial. The executor acquires one
// connection, runs the binding pass (which executes variable-producing
// statements), then the main pass in declaration order, writing result
// slots back onto each statement so later statements can reference them.
// Any failure enters a single absorbing abort path that rolls back; there
// is no partial commit.
package engine
