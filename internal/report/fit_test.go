package report

import "testing"

func TestFitImage(t *testing.T) {
	cases := []struct {
		name         string
		w, h         float64
		maxW, maxH   float64
		wantW, wantH float64
	}{
		{"wide image clamps to width", 4000, 2000, 180, 240, 180, 90},
		{"tall image clamps to height", 1000, 4000, 180, 200, 50, 200},
		{"already fits", 100, 120, 180, 240, 100, 120},
		{"exact fit", 180, 240, 180, 240, 180, 240},
		{"wide then still too tall", 2000, 4000, 180, 240, 120, 240},
		{"square into portrait box", 3000, 3000, 180, 240, 180, 180},
		{"zero width", 0, 100, 180, 240, 0, 0},
		{"negative height", 100, -1, 180, 240, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotW, gotH := FitImage(tc.w, tc.h, tc.maxW, tc.maxH)
			if gotW != tc.wantW || gotH != tc.wantH {
				t.Errorf("FitImage(%v, %v, %v, %v) = (%v, %v), want (%v, %v)",
					tc.w, tc.h, tc.maxW, tc.maxH, gotW, gotH, tc.wantW, tc.wantH)
			}
		})
	}
}
