package taskgraph

// ValidationKind distinguishes the two fatal graph defects.
type ValidationKind int

const (
	ValidationDangling ValidationKind = iota // Dependency id resolves to no task
	ValidationCycle                          // dependsOn edges form a cycle
)

// ValidationError is returned by Validate for a graph that must not run.
type ValidationError struct {
	Kind ValidationKind
	Msg  string
}

func (e *ValidationError) Error() string { return e.Msg }
