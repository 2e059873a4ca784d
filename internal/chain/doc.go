// Package chain holds the abstract model of a SQL chain: the Command that
// carries connection settings and an ordered list of Statements, the
// Condition predicate tree, and their JSON wire forms.
//
// The model is pure data. Statements are created by the JSON decoder or in
// code, mutated only by the chain executor (result slots), and discarded
// with the chain.
package chain
