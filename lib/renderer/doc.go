// Package renderer loads the embedded CloudWatch Logs Insights query templates
// under templates/ and renders them with sprig functions.
//
// Queries live in .tmpl files instead of Go string literals so the parse
// expressions can be read and diffed as written.
//
// Example:
//
//	q, err := renderer.Render(renderer.TplStatementLogQuery, renderer.StatementLogQueryData{
//	    InstanceIdentifier: "mycooldb",
//	})
package renderer
