package common

import "fmt"

// UnauthenticatedError is returned when an operation requires an identity and
// the session has none. Unwraps to ErrorUnauthorized.
type UnauthenticatedError struct {
	Op string
}

func (e *UnauthenticatedError) Error() string {
	return fmt.Sprintf("%s: authentication required", e.Op)
}

func (e *UnauthenticatedError) Unwrap() error { return ErrorUnauthorized }

// MalformedRecordError names a catalog record that is missing a field the
// engine needs (subject or title).
type MalformedRecordError struct {
	ID    string
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: missing %s", e.ID, e.Field)
}

// NotFoundError reports an unknown document id. Unwraps to ErrorNotFound.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrorNotFound }

// BlobFetchError wraps a failure to read a blob from storage.
type BlobFetchError struct {
	Path string
	Err  error
}

func (e *BlobFetchError) Error() string {
	return fmt.Sprintf("fetch blob %q: %v", e.Path, e.Err)
}

func (e *BlobFetchError) Unwrap() error { return e.Err }

// BlobUploadError wraps a failure to write a blob to storage.
type BlobUploadError struct {
	Path string
	Err  error
}

func (e *BlobUploadError) Error() string {
	return fmt.Sprintf("upload blob %q: %v", e.Path, e.Err)
}

func (e *BlobUploadError) Unwrap() error { return e.Err }

// InsertError wraps a failure to insert a document row.
type InsertError struct {
	Path string
	Err  error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert document %q: %v", e.Path, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// UpdateError wraps a failure to update a counter or metadata field.
type UpdateError struct {
	ID  string
	Op  string
	Err error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.ID, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// DeleteError wraps a failure in either step of document deletion.
type DeleteError struct {
	ID   string
	Step string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete document %q (%s): %v", e.ID, e.Step, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
