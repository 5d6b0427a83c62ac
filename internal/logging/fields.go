package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. metadata_append_failed).
	FieldEventType = "event_type"
	// FieldErrorHint tells the reader what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldPath is the file the operation targeted.
	FieldPath = "path"
	// FieldFormat is the output format or extension involved.
	FieldFormat = "format"
	// FieldSaveVersion is the codec version of an embedded record.
	FieldSaveVersion = "save_version"
	// FieldSource names a provenance source (git-log, git-remote, git-diff, os).
	FieldSource = "source"
)
