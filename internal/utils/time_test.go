package utils

import "testing"

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate(" 2025-09-01 ")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got := FormatDate(d); got != "2025-09-01" {
		t.Fatalf("FormatDate = %q, want 2025-09-01", got)
	}
}

func TestParseDateRejectsOtherLayouts(t *testing.T) {
	for _, s := range []string{"01-09-2025", "2025/09/01", "2025-9-1", ""} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("ParseDate(%q) should fail", s)
		}
	}
}
