package database

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMediaRecord_SearchText(t *testing.T) {
	tests := []struct {
		name   string
		record MediaRecord
		want   string
	}{
		{"manual wins", MediaRecord{Description: "manual", AIDescription: "ai"}, "manual"},
		{"falls back to ai", MediaRecord{AIDescription: "ai"}, "ai"},
		{"both empty", MediaRecord{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.record.SearchText(); got != tc.want {
				t.Errorf("SearchText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMediaType_Valid(t *testing.T) {
	for _, mt := range []MediaType{MediaPhoto, MediaVideo} {
		if !mt.Valid() {
			t.Errorf("%q should be valid", mt)
		}
	}
	for _, mt := range []MediaType{"", "audio", "PHOTO"} {
		if mt.Valid() {
			t.Errorf("%q should be invalid", mt)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	d, err := ParseDate("2024-05-12")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"2024-05-12"` {
		t.Errorf("unexpected JSON %s", data)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"2024-05-12T10:30:00Z"`), &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("expected %s, got %s", d, back)
	}

	if err := json.Unmarshal([]byte(`"12/05/2024"`), &back); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDate_Scan(t *testing.T) {
	want := "2023-01-02"
	sources := []any{
		time.Date(2023, 1, 2, 15, 4, 5, 0, time.FixedZone("X", 3600)),
		"2023-01-02",
		[]byte("2023-01-02T00:00:00Z"),
	}

	for _, src := range sources {
		var d Date
		if err := d.Scan(src); err != nil {
			t.Fatalf("Scan(%v) failed: %v", src, err)
		}
		if d.String() != want {
			t.Errorf("Scan(%v) = %s, want %s", src, d, want)
		}
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestCountTags(t *testing.T) {
	records := []MediaRecord{
		{Tags: []string{"igreja", "bebê"}},
		{Tags: []string{"igreja", "padre"}},
		{Tags: nil},
		{Tags: []string{"bebê", "igreja"}},
	}

	got := CountTags(records)

	want := []TagCount{{"igreja", 3}, {"bebê", 2}, {"padre", 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d tags, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
