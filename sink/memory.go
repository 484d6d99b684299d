package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/railrad/tensor"
)

// Memory collects rows into a dense tensor.
type Memory struct {
	mu        sync.Mutex
	out       *tensor.Dense[complex128]
	written   []bool
	rowLen    int
	committed bool
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Begin(_ context.Context, shape []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.out != nil {
		return fmt.Errorf("%w: Begin called twice", ErrState)
	}
	rows, rowLen, err := rowGeometry(shape)
	if err != nil {
		return fmt.Errorf("%w: %v", err, shape)
	}
	m.out = tensor.New[complex128](shape...)
	m.written = make([]bool, rows)
	m.rowLen = rowLen
	return nil
}

func (m *Memory) WriteRow(_ context.Context, i int, row []complex128) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.out == nil || m.committed {
		return fmt.Errorf("%w: WriteRow outside Begin/Commit", ErrState)
	}
	if i < 0 || i >= len(m.written) || len(row) != m.rowLen {
		return fmt.Errorf("%w: row %d of length %d", ErrShape, i, len(row))
	}
	if m.written[i] {
		return fmt.Errorf("%w: %d", ErrRowWritten, i)
	}
	copy(m.out.Data()[i*m.rowLen:(i+1)*m.rowLen], row)
	m.written[i] = true
	return nil
}

func (m *Memory) Commit(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.out == nil {
		return fmt.Errorf("%w: Commit before Begin", ErrState)
	}
	for i, ok := range m.written {
		if !ok {
			return fmt.Errorf("%w: row %d missing", ErrIncomplete, i)
		}
	}
	m.committed = true
	return nil
}

// Result returns the collected tensor after a successful Commit, nil before.
func (m *Memory) Result() *tensor.Dense[complex128] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.committed {
		return nil
	}
	return m.out
}
