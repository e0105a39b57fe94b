package book

import "fmt"

// FileAccessError reports a book file that is missing or unreadable.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// ContentError reports a book file whose content cannot be aggregated, such
// as a chapter that leaves a code fence open.
type ContentError struct {
	Path string
	Err  error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ContentError) Unwrap() error { return e.Err }
