package geometry

import "testing"

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []int{7}, 7},
		{"odd", []int{3, 1, 2}, 2},
		{"even", []int{1, 2, 3, 4}, 2.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Median(tc.values); got != tc.want {
				t.Fatalf("Median(%v) = %v, want %v", tc.values, got, tc.want)
			}
		})
	}
}

func TestQuartilesFences(t *testing.T) {
	q := ComputeQuartiles([]int{10, 10, 10, 10, 10, 10, 10, 100})
	if q.Q1 != 10 {
		t.Fatalf("Q1 = %v, want 10", q.Q1)
	}
	if q.IQR < 0 {
		t.Fatalf("negative IQR %v", q.IQR)
	}
	if q.LowFence() > q.Q1 {
		t.Fatalf("low fence %v above Q1 %v", q.LowFence(), q.Q1)
	}
	if q.HighFence() < q.Q3 {
		t.Fatalf("high fence %v below Q3 %v", q.HighFence(), q.Q3)
	}
}

func TestQuartilesEmpty(t *testing.T) {
	q := ComputeQuartiles(nil)
	if q.Q1 != 0 || q.Q3 != 0 || q.IQR != 0 {
		t.Fatalf("empty quartiles = %+v", q)
	}
}
