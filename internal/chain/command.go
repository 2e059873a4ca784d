package chain

// Command is one chain: connection settings, a software selector that maps
// to a dialect and connection provider, an ordered list of statements, and
// a free-form properties map used as the variable lookup of last resort.
type Command struct {
	ID       string
	Host     string
	Port     int
	User     string
	Pass     string
	Database string
	Software string

	Properties map[string]any

	Statements []*Statement

	// Resolved is the chain-wide variable map filled by the binding pass.
	// Executor-owned; not part of the wire form.
	Resolved map[string]any
}

// Statement returns the first statement with the given id, or nil.
func (c *Command) Statement(sqlID string) *Statement {
	for _, s := range c.Statements {
		if s.SQLID == sqlID {
			return s
		}
	}
	return nil
}

// Find returns the first statement matching both table and id, the lookup
// used to resolve #table:sqlID# back-references.
func (c *Command) Find(table, sqlID string) *Statement {
	for _, s := range c.Statements {
		if s.Table == table && s.SQLID == sqlID {
			return s
		}
	}
	return nil
}

// Property returns a value from the properties map.
func (c *Command) Property(key string) (any, bool) {
	v, ok := c.Properties[key]
	return v, ok
}

// Reset clears all result slots and resolved variables so the command can
// be executed again.
func (c *Command) Reset() {
	c.Resolved = nil
	for _, s := range c.Statements {
		s.Results = nil
		s.LastID = nil
		s.Executed = false
		s.RenderedSQL = ""
	}
}

// SubCommand derives a command that shares credentials, software, and
// properties with c but carries only the selected statements (plus every
// variable-producing statement, so %NAME% resolution keeps working).
// Statement order is preserved. The selected statements are shared, not
// copied: executing the sub-command fills the originals' result slots.
func (c *Command) SubCommand(sqlIDs ...string) *Command {
	want := make(map[string]bool, len(sqlIDs))
	for _, id := range sqlIDs {
		want[id] = true
	}

	sub := &Command{
		ID:         c.ID,
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Pass:       c.Pass,
		Database:   c.Database,
		Software:   c.Software,
		Properties: c.Properties,
	}
	for _, s := range c.Statements {
		if s.IsVariableStatement() || want[s.SQLID] {
			sub.Statements = append(sub.Statements, s)
		}
	}
	return sub
}
