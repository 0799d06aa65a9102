package log

import "time"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldGeneration  = "generation"
	FieldSource      = "source"
	FieldDir         = "dir"
	FieldFiles       = "files"
	FieldRows        = "rows"
	FieldEntries     = "entries"
	FieldDiscarded   = "discarded"
	FieldState       = "state"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldQuery       = "query"
	FieldCacheHit    = "cache_hit"
	FieldPath        = "path"
	FieldBackend     = "backend"
	FieldTriggeredBy = "triggered_by"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentRefresh = "refresh"
	ComponentQuery   = "query"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
	ComponentHTTP    = "http"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithDuration adds the elapsed time in milliseconds
func (f LogFields) WithDuration(d time.Duration) LogFields {
	f[FieldDuration] = d.Milliseconds()
	return f
}

// WithIngestion adds the counters of a source ingestion
func (f LogFields) WithIngestion(source string, files, rows int) LogFields {
	f[FieldSource] = source
	f[FieldFiles] = files
	f[FieldRows] = rows
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
