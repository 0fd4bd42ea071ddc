package sqlexec

// Outcome is the structured shape returned to tool callers. Failures never
// escape as errors so the server stays available for the next statement.
//
// Rows is set for every query, including one that matched nothing, and left
// nil for statements that commit.
type Outcome struct {
	Success bool              `json:"success" jsonschema:"whether the statement ran successfully"`
	Rows    *[]map[string]any `json:"rows,omitempty" jsonschema:"result rows for select statements, keyed by column name"`
	Error   string            `json:"error,omitempty" jsonschema:"error message when success is false"`
}

// ToOutcome folds an Execute result and error into an Outcome.
func ToOutcome(result *Result, err error) Outcome {
	if err != nil {
		return Outcome{Success: false, Error: err.Error()}
	}
	if result == nil || !result.IsQuery {
		return Outcome{Success: true}
	}

	rows := result.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	return Outcome{Success: true, Rows: &rows}
}
