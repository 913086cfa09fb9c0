// Package clipboard wraps the platform clipboard. A write failure is a
// warning for the caller to surface, never an orchestration failure.
package clipboard

import "github.com/atotto/clipboard"

// Writer puts text on a clipboard.
type Writer interface {
	Write(text string) error
}

// System writes to the platform clipboard.
type System struct{}

// Write implements Writer.
func (System) Write(text string) error {
	return clipboard.WriteAll(text)
}

// Buffer is an in-memory Writer for tests and headless environments.
type Buffer struct {
	Text string
	Err  error // returned by Write when set
}

// Write implements Writer.
func (b *Buffer) Write(text string) error {
	if b.Err != nil {
		return b.Err
	}
	b.Text = text
	return nil
}
