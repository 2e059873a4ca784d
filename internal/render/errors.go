package render

import "fmt"

// BuildError reports a statement that cannot be rendered: INSERT or UPDATE
// with no parameters, UPDATE with an empty predicate, or an unsupported
// verb. A build error aborts the whole chain.
type BuildError struct {
	SQLID  string
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build statement %q: %s", e.SQLID, e.Reason)
}
