package metrics

import "time"

// MockCPU is a mock implementation of CPUProvider for testing.
type MockCPU struct {
	CountsFunc  func(logical bool) (int, error)
	PercentFunc func(interval time.Duration, perCore bool) ([]float64, error)
}

// Counts calls the mock function if set, otherwise returns defaults.
func (m *MockCPU) Counts(logical bool) (int, error) {
	if m.CountsFunc != nil {
		return m.CountsFunc(logical)
	}
	return 4, nil
}

// Percent calls the mock function if set, otherwise returns defaults.
func (m *MockCPU) Percent(interval time.Duration, perCore bool) ([]float64, error) {
	if m.PercentFunc != nil {
		return m.PercentFunc(interval, perCore)
	}
	if perCore {
		return []float64{25.0, 50.0, 75.0, 100.0}, nil
	}
	return []float64{50.0}, nil
}

// MockMemory is a mock implementation of MemoryProvider for testing.
type MockMemory struct {
	UsedPercentFunc func() (float64, error)
}

// UsedPercent calls the mock function if set, otherwise returns a default.
func (m *MockMemory) UsedPercent() (float64, error) {
	if m.UsedPercentFunc != nil {
		return m.UsedPercentFunc()
	}
	return 65.0, nil
}
