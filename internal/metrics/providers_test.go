package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestMockCPU_Counts(t *testing.T) {
	t.Run("default returns 4 cores", func(t *testing.T) {
		mock := &MockCPU{}
		count, err := mock.Counts(true)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if count != 4 {
			t.Errorf("expected 4 cores, got %d", count)
		}
	})

	t.Run("custom function", func(t *testing.T) {
		mock := &MockCPU{
			CountsFunc: func(logical bool) (int, error) {
				if logical {
					return 8, nil
				}
				return 4, nil
			},
		}

		count, _ := mock.Counts(true)
		if count != 8 {
			t.Errorf("expected 8 logical cores, got %d", count)
		}

		count, _ = mock.Counts(false)
		if count != 4 {
			t.Errorf("expected 4 physical cores, got %d", count)
		}
	})

	t.Run("returns error", func(t *testing.T) {
		expectedErr := errors.New("cpu error")
		mock := &MockCPU{
			CountsFunc: func(logical bool) (int, error) {
				return 0, expectedErr
			},
		}

		_, err := mock.Counts(true)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})
}

func TestMockCPU_Percent(t *testing.T) {
	t.Run("default aggregate", func(t *testing.T) {
		mock := &MockCPU{}
		percents, err := mock.Percent(100*time.Millisecond, false)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(percents) != 1 {
			t.Errorf("expected 1 value, got %d", len(percents))
		}
		if percents[0] != 50.0 {
			t.Errorf("expected 50.0, got %f", percents[0])
		}
	})

	t.Run("custom function", func(t *testing.T) {
		mock := &MockCPU{
			PercentFunc: func(interval time.Duration, perCore bool) ([]float64, error) {
				if perCore {
					return []float64{10.0, 20.0}, nil
				}
				return []float64{15.0}, nil
			},
		}

		percents, err := mock.Percent(50*time.Millisecond, true)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(percents) != 2 || percents[0] != 10.0 || percents[1] != 20.0 {
			t.Errorf("expected [10.0, 20.0], got %v", percents)
		}

		percents, _ = mock.Percent(50*time.Millisecond, false)
		if len(percents) != 1 || percents[0] != 15.0 {
			t.Errorf("expected [15.0], got %v", percents)
		}
	})

	t.Run("returns error", func(t *testing.T) {
		expectedErr := errors.New("percent error")
		mock := &MockCPU{
			PercentFunc: func(interval time.Duration, perCore bool) ([]float64, error) {
				return nil, expectedErr
			},
		}

		_, err := mock.Percent(100*time.Millisecond, true)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})
}

func TestMockMemory_UsedPercent(t *testing.T) {
	t.Run("default value", func(t *testing.T) {
		mock := &MockMemory{}
		percent, err := mock.UsedPercent()
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if percent != 65.0 {
			t.Errorf("expected 65.0, got %f", percent)
		}
	})

	t.Run("custom function", func(t *testing.T) {
		mock := &MockMemory{
			UsedPercentFunc: func() (float64, error) {
				return 80.5, nil
			},
		}
		percent, _ := mock.UsedPercent()
		if percent != 80.5 {
			t.Errorf("expected 80.5, got %f", percent)
		}
	})

	t.Run("returns error", func(t *testing.T) {
		expectedErr := errors.New("memory error")
		mock := &MockMemory{
			UsedPercentFunc: func() (float64, error) {
				return 0, expectedErr
			},
		}

		_, err := mock.UsedPercent()
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})
}

// GopsutilCPU and GopsutilMemory talk to the real host; just verify they
// return plausible values without erroring where the platform supports it.
func TestGopsutilProviders(t *testing.T) {
	cpu := NewGopsutilCPU()
	if count, err := cpu.Counts(true); err == nil && count <= 0 {
		t.Errorf("logical core count = %d, want > 0", count)
	}

	mem := NewGopsutilMemory()
	if percent, err := mem.UsedPercent(); err == nil && (percent < 0 || percent > 100) {
		t.Errorf("memory used percent = %f, want within [0,100]", percent)
	}
}
