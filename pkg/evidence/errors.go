package evidence

import "fmt"

// StorageError is returned by storage backends.
type StorageError struct {
	Backend   string // "memory", "sqlite", "postgres"
	Operation string // "store", "query", "delete", ...
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// QueryError reports an invalid query.
type QueryError struct {
	Query *Query
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{Query: query, Cause: cause}
}

// RecorderError reports a record that could not be queued.
type RecorderError struct {
	RecordID string
	Cause    error
}

func (e *RecorderError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("recorder error [record_id=%s]: %v", e.RecordID, e.Cause)
	}
	return fmt.Sprintf("recorder error: %v", e.Cause)
}

func (e *RecorderError) Unwrap() error {
	return e.Cause
}

// NewRecorderError creates a new RecorderError.
func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{RecordID: recordID, Cause: cause}
}

// RetentionError reports a failed prune.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention error [retention_days=%d]: %v", e.RetentionDays, e.Cause)
}

func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a new RetentionError.
func NewRetentionError(retentionDays int, cause error) *RetentionError {
	return &RetentionError{RetentionDays: retentionDays, Cause: cause}
}

// ExportError reports a failed export.
type ExportError struct {
	Format      string
	RecordCount int
	Cause       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, record_count=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{Format: format, RecordCount: recordCount, Cause: cause}
}
