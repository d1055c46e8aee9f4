// Package clipboard delivers rendered output to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

const copyMessageFormat = "copy to clipboard: %w"

// ErrUnavailable reports that no clipboard utility exists on this system.
var ErrUnavailable = errors.New("system clipboard unavailable")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf(copyMessageFormat, err)
	}
	return nil
}

// Memory is an in-process Copier that keeps the last copied text.
type Memory struct {
	mutex sync.Mutex
	text  string
	count int
}

// Copy stores text.
func (memory *Memory) Copy(text string) error {
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	memory.text = text
	memory.count++
	return nil
}

// Text returns the last copied text and how many copies were made.
func (memory *Memory) Text() (string, int) {
	memory.mutex.Lock()
	defer memory.mutex.Unlock()
	return memory.text, memory.count
}

var (
	_ Copier = (*Service)(nil)
	_ Copier = (*Memory)(nil)
)
