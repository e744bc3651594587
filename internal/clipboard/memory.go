package clipboard

import (
	"context"
	"sync"
)

// Memory is an in-process clipboard. Every write bumps the change counter,
// like a real pasteboard does.
type Memory struct {
	mu       sync.Mutex
	count    int64
	contents Contents
}

// NewMemory returns an empty in-memory clipboard
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ChangeCount() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, nil
}

func (m *Memory) Read(ctx context.Context) (*Contents, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contents
	c.FileRefs = append([]string(nil), m.contents.FileRefs...)
	c.Bitmap = append([]byte(nil), m.contents.Bitmap...)
	c.RichText = append([]byte(nil), m.contents.RichText...)
	return &c, nil
}

func (m *Memory) Clear() error {
	m.Set(Contents{})
	return nil
}

func (m *Memory) WriteText(text string) error {
	m.Set(Contents{Text: text})
	return nil
}

func (m *Memory) WriteImage(data []byte) error {
	m.Set(Contents{Bitmap: append([]byte(nil), data...)})
	return nil
}

func (m *Memory) WriteFileRef(path string) error {
	m.Set(Contents{FileRefs: []string{path}})
	return nil
}

// Set replaces the contents, as if another application had copied them
func (m *Memory) Set(c Contents) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents = c
	m.count++
}

// Snapshot returns the current contents without going through Read
func (m *Memory) Snapshot() Contents {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contents
}
