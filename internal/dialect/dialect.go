// Package dialect carries the per-database rendering choices: the
// identifier quote character and the byte-literal syntax. A Dialect is an
// immutable value; the renderer is parameterized by one and never consults
// the database itself.
package dialect

import (
	"encoding/hex"
	"strings"
)

// ByteFormat selects how a byte sequence is emitted into SQL text.
type ByteFormat int

const (
	// BytesHexX renders X'0102..' (MySQL, SQLite).
	BytesHexX ByteFormat = iota
	// BytesHexEscape renders '\x0102..' (PostgreSQL).
	BytesHexEscape
)

// Dialect is one database's rendering profile.
type Dialect struct {
	Name   string
	Quote  string
	Format ByteFormat
}

// Reference dialects. Generic exists for tests and dry-run rendering.
var (
	MySQL    = Dialect{Name: "mysql", Quote: "`", Format: BytesHexX}
	Postgres = Dialect{Name: "postgres", Quote: `"`, Format: BytesHexEscape}
	SQLite   = Dialect{Name: "sqlite", Quote: `"`, Format: BytesHexX}
	Generic  = Dialect{Name: "generic", Quote: "`", Format: BytesHexEscape}
)

// ForSoftware maps a chain document's software selector to a dialect,
// falling back to Generic for unknown names.
func ForSoftware(software string) Dialect {
	switch strings.ToLower(software) {
	case "mysql", "mariadb":
		return MySQL
	case "postgres", "postgresql":
		return Postgres
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return Generic
	}
}

// QuoteIdent surrounds an identifier with the dialect's quote character.
func (d Dialect) QuoteIdent(ident string) string {
	return d.Quote + ident + d.Quote
}

// RenderBytes emits a byte sequence as a SQL literal in the dialect's
// byte-literal syntax.
func (d Dialect) RenderBytes(b []byte) string {
	h := hex.EncodeToString(b)
	if d.Format == BytesHexX {
		return "X'" + h + "'"
	}
	return `'\x` + h + `'`
}
