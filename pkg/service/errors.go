package service

import (
	"errors"
	"fmt"
)

var (
	// ErrOperationFailed is returned when the before-save hook vetoes a save.
	ErrOperationFailed = errors.New("operation failed")
	ErrNilEntities     = errors.New("entities must not be nil")
	// ErrImportNotImplemented is returned for formats that are recognised but
	// not supported yet (xml).
	ErrImportNotImplemented = errors.New("import format not implemented")
)

// UnsupportedFormatError is returned by ImportData for unknown extensions.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Ext)
}
