package display

import "testing"

func TestExtractChronicMedications(t *testing.T) {
	t.Run("example plan", func(t *testing.T) {
		treatment := "Bed rest for 3 days\n" +
			"Continue chronic medication:\n" +
			"Metformin 500mg\n" +
			"\n" +
			"Amlodipine 5mg\n"

		got := ExtractChronicMedications(treatment)
		want := []string{"Metformin 500mg", "Amlodipine 5mg"}
		if len(got) != len(want) {
			t.Fatalf("got %d entries, want %d: %+v", len(got), len(want), got)
		}
		for i, w := range want {
			if got[i].Text != w {
				t.Errorf("entry %d text = %q, want %q", i, got[i].Text, w)
			}
			if got[i].Index != i {
				t.Errorf("entry %d index = %d", i, got[i].Index)
			}
			if got[i].Key == "" {
				t.Errorf("entry %d has empty key", i)
			}
		}
	})

	t.Run("no marker", func(t *testing.T) {
		if got := ExtractChronicMedications("Rest\nHydration\nMetformin 500mg"); len(got) != 0 {
			t.Errorf("plan without continue marker should yield nothing, got %+v", got)
		}
	})

	t.Run("marker casing", func(t *testing.T) {
		got := ExtractChronicMedications("CONTINUE the following\nAspirin 75mg")
		if len(got) != 1 || got[0].Text != "Aspirin 75mg" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("skips chronic medication restatement", func(t *testing.T) {
		got := ExtractChronicMedications("Continue:\nChronic Medication list below\nLosartan 50mg")
		if len(got) != 1 || got[0].Text != "Losartan 50mg" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := ExtractChronicMedications(""); got == nil || len(got) != 0 {
			t.Errorf("want empty non-nil slice, got %#v", got)
		}
	})
}

func TestChronicEntryKeys(t *testing.T) {
	a := ExtractChronicMedications("Continue\nMetformin 500mg\nAmlodipine 5mg")
	b := ExtractChronicMedications("Continue\nAmlodipine 5mg\nMetformin 500mg")

	// The key follows the text, not the position.
	if a[0].Key != b[1].Key || a[1].Key != b[0].Key {
		t.Error("keys should be stable under reordering")
	}

	// Identical lines still get distinct keys.
	dup := ExtractChronicMedications("Continue\nMetformin 500mg\nMetformin 500mg")
	if len(dup) != 2 {
		t.Fatalf("got %d entries", len(dup))
	}
	if dup[0].Key == dup[1].Key {
		t.Error("duplicate lines must not share a key")
	}
	if dup[0].Key != a[0].Key {
		t.Error("first occurrence key should match the single-occurrence key")
	}

	// Case differences normalize to the same key.
	c := ExtractChronicMedications("Continue\nMETFORMIN 500MG")
	if c[0].Key != a[0].Key {
		t.Error("key should be case-insensitive")
	}
}

func TestMapTimingToClock(t *testing.T) {
	cases := []struct {
		timing string
		want   string
	}{
		{"Once a night after dinner", "10:00 PM"},
		{"once a night", "10:00 PM"},
		{"After Dinner", "10:00 PM"},
		{"Two times a day", "09:00 AM & 09:00 PM"},
		{"three times a day", "09:00 AM & 02:00 PM & 09:00 PM"},
		{"before breakfast", "07:00 AM"},
		{"Once a morning", "09:00 AM"},
		{"1-1-1", "09:00 AM & 02:00 PM & 09:00 PM"},
		{"1-0-1", "09:00 AM & 09:00 PM"},
		{"0-0-1", "10:00 PM"},
		{"1-0-0", "09:00 AM"},
		{"take 1-0-1 with food", "09:00 AM & 09:00 PM"},
		{"Thrice weekly", ""},
		{"as needed", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := MapTimingToClock(tc.timing); got != tc.want {
			t.Errorf("MapTimingToClock(%q) = %q, want %q", tc.timing, got, tc.want)
		}
	}
}
