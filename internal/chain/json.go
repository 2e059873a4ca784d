package chain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/relaydb/relay/internal/value"
)

// Wire form (see the chain document contract):
//
//	Statement: { "sqlID", "table", "type", "where", "returnColumns",
//	             "returnLastID", "orderBy", "limit", "parameters",
//	             "variables" }
//	Condition: a Value is the three-element list [field, op, value];
//	           a Group is { "or": bool, "conditions": [...] }.
//
// Decoders distinguish conditions by runtime shape (list vs object).

type statementJSON struct {
	SQLID         string          `json:"sqlID"`
	Table         string          `json:"table"`
	Type          Kind            `json:"type"`
	Where         json.RawMessage `json:"where,omitempty"`
	ReturnColumns *Fields         `json:"returnColumns,omitempty"`
	ReturnLastID  bool            `json:"returnLastID"`
	OrderBy       *string         `json:"orderBy,omitempty"`
	Limit         *int            `json:"limit,omitempty"`
	Parameters    *Fields         `json:"parameters,omitempty"`
	Variables     *Fields         `json:"variables,omitempty"`
}

// UnmarshalJSON decodes the statement wire form.
func (s *Statement) UnmarshalJSON(data []byte) error {
	var aux statementJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Type != "" && !aux.Type.Valid() {
		return fmt.Errorf("statement %q: unsupported type %q", aux.SQLID, aux.Type)
	}

	where, err := DecodeCondition(aux.Where)
	if err != nil {
		return fmt.Errorf("statement %q: %w", aux.SQLID, err)
	}

	s.SQLID = aux.SQLID
	s.Table = aux.Table
	s.Kind = aux.Type
	s.Where = where
	s.ReturnColumns = orEmpty(aux.ReturnColumns)
	s.ReturnLastID = aux.ReturnLastID
	if aux.OrderBy != nil {
		s.OrderBy = *aux.OrderBy
	}
	if aux.Limit != nil {
		s.Limit = *aux.Limit
	}
	s.Parameters = orEmpty(aux.Parameters)
	s.Variables = orEmpty(aux.Variables)
	return nil
}

// MarshalJSON encodes the statement wire form. Result slots are not part
// of the document and are omitted.
func (s *Statement) MarshalJSON() ([]byte, error) {
	aux := statementJSON{
		SQLID:        s.SQLID,
		Table:        s.Table,
		Type:         s.Kind,
		ReturnLastID: s.ReturnLastID,
	}
	if s.Where != nil {
		raw, err := EncodeCondition(s.Where)
		if err != nil {
			return nil, err
		}
		aux.Where = raw
	}
	if s.ReturnColumns.Len() > 0 {
		aux.ReturnColumns = s.ReturnColumns
	}
	if s.OrderBy != "" {
		aux.OrderBy = &s.OrderBy
	}
	if s.Limit != 0 {
		aux.Limit = &s.Limit
	}
	if s.Parameters.Len() > 0 {
		aux.Parameters = s.Parameters
	}
	if s.Variables.Len() > 0 {
		aux.Variables = s.Variables
	}
	return json.Marshal(aux)
}

// DecodeCondition decodes a condition by shape: a JSON array is a leaf,
// an object is a group, null or empty input is no condition.
func DecodeCondition(data json.RawMessage) (Condition, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		return decodeConditionLeaf(trimmed)
	case '{':
		return decodeConditionGroup(trimmed)
	default:
		return nil, fmt.Errorf("condition must be a list or an object")
	}
}

func decodeConditionLeaf(data []byte) (Condition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var parts []any
	tok, err := dec.Token() // opening '['
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("condition leaf must be a list")
	}
	for dec.More() {
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		parts = append(parts, v)
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("condition leaf needs [field, op, value], got %d elements", len(parts))
	}

	field, ok := parts[0].(string)
	if !ok {
		return nil, fmt.Errorf("condition field must be a string")
	}
	op, ok := parts[1].(string)
	if !ok {
		return nil, fmt.Errorf("condition operator must be a string")
	}
	return Value{Field: field, Op: op, Val: value.Decode(parts[2])}, nil
}

func decodeConditionGroup(data []byte) (Condition, error) {
	var aux struct {
		Or         bool              `json:"or"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	g := Group{Or: aux.Or}
	for i, raw := range aux.Conditions {
		child, err := DecodeCondition(raw)
		if err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		if child != nil {
			g.Conditions = append(g.Conditions, child)
		}
	}
	return g, nil
}

// EncodeCondition encodes a condition into its wire form.
func EncodeCondition(c Condition) (json.RawMessage, error) {
	switch node := c.(type) {
	case Value:
		return json.Marshal([]any{node.Field, node.Op, value.Encode(node.Val)})
	case Group:
		children := make([]json.RawMessage, 0, len(node.Conditions))
		for _, child := range node.Conditions {
			raw, err := EncodeCondition(child)
			if err != nil {
				return nil, err
			}
			children = append(children, raw)
		}
		return json.Marshal(map[string]any{"or": node.Or, "conditions": children})
	default:
		return nil, fmt.Errorf("unsupported condition type %T", c)
	}
}

type commandJSON struct {
	ID         string       `json:"id,omitempty"`
	Host       string       `json:"host,omitempty"`
	IP         string       `json:"ip,omitempty"` // legacy alias for host
	Port       int          `json:"port,omitempty"`
	User       string       `json:"user,omitempty"`
	Pass       string       `json:"pass,omitempty"`
	Database   string       `json:"db,omitempty"`
	Software   string       `json:"software,omitempty"`
	Properties *Fields      `json:"properties,omitempty"`
	Sqls       []*Statement `json:"sqls"`
}

// UnmarshalJSON decodes the chain document wire form. The legacy "ip" key
// is honored when "host" is absent.
func (c *Command) UnmarshalJSON(data []byte) error {
	var aux commandJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	host := aux.Host
	if host == "" {
		host = aux.IP
	}

	c.ID = aux.ID
	c.Host = host
	c.Port = aux.Port
	c.User = aux.User
	c.Pass = aux.Pass
	c.Database = aux.Database
	c.Software = aux.Software
	c.Properties = orEmpty(aux.Properties).Map()
	c.Statements = aux.Sqls
	c.Resolved = nil
	return nil
}

// MarshalJSON encodes the chain document wire form, always under the
// modern "host" key.
func (c *Command) MarshalJSON() ([]byte, error) {
	aux := commandJSON{
		ID:       c.ID,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Pass:     c.Pass,
		Database: c.Database,
		Software: c.Software,
		Sqls:     c.Statements,
	}
	if len(c.Properties) > 0 {
		props := NewFields()
		for _, k := range sortedKeys(c.Properties) {
			props.Set(k, c.Properties[k])
		}
		aux.Properties = props
	}
	if aux.Sqls == nil {
		aux.Sqls = []*Statement{}
	}
	return json.Marshal(aux)
}

// DecodeCommand decodes one chain document.
func DecodeCommand(data []byte) (*Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode chain document: %w", err)
	}
	return &c, nil
}

func orEmpty(f *Fields) *Fields {
	if f == nil {
		return NewFields()
	}
	return f
}
