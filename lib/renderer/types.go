package renderer

// TemplateName represents a known template filename.
type TemplateName string

const (
	TplStatementLogQuery TemplateName = "statement_log_query.tmpl"
	TplFlowLogQuery      TemplateName = "flow_log_query.tmpl"
)

// StatementLogQueryData holds the data for TplStatementLogQuery.
type StatementLogQueryData struct {
	// InstanceIdentifier selects the log stream "<identifier>.0".
	InstanceIdentifier string
	// Limit defaults to 100 when zero.
	Limit int
}

// FlowLogQueryData holds the data for TplFlowLogQuery.
type FlowLogQueryData struct {
	Limit int
}
