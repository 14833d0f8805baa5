package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatRegistrations formats a list of registrations as JSON
func (f *Formatter) FormatRegistrations(registrations []RegistrationDTO) error {
	return f.encode(registrations)
}

// FormatEnqueued formats the assets an enqueue run produced as JSON
func (f *Formatter) FormatEnqueued(enqueued []EnqueuedDTO) error {
	return f.encode(enqueued)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
