package store

// memoryBackend is a non-persistent backend for tests.
type memoryBackend struct {
	snapshot map[string]string
	saveErr  error
}

// NewMemoryBackend returns a backend that holds the snapshot in memory.
func NewMemoryBackend(initial map[string]string) Backend {
	cp := make(map[string]string, len(initial))
	for k, v := range initial {
		cp[k] = v
	}
	return &memoryBackend{snapshot: cp}
}

func (m *memoryBackend) Load() (map[string]string, error) {
	cp := make(map[string]string, len(m.snapshot))
	for k, v := range m.snapshot {
		cp[k] = v
	}
	return cp, nil
}

func (m *memoryBackend) Save(bindings map[string]string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := make(map[string]string, len(bindings))
	for k, v := range bindings {
		cp[k] = v
	}
	m.snapshot = cp
	return nil
}

func (m *memoryBackend) Close() error { return nil }
