package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampAcceptsZonedAndLocalValues(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: `"2025-03-01T10:15:30Z"`, want: time.Date(2025, 3, 1, 10, 15, 30, 0, time.UTC)},
		{raw: `"2025-03-01T10:15:30.123456"`, want: time.Date(2025, 3, 1, 10, 15, 30, 123456000, time.UTC)},
		{raw: `"2025-03-01T10:15:30"`, want: time.Date(2025, 3, 1, 10, 15, 30, 0, time.UTC)},
		{raw: `null`, want: time.Time{}},
	}
	for _, tt := range tests {
		var got Timestamp
		if err := json.Unmarshal([]byte(tt.raw), &got); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("unmarshal %s: got %v want %v", tt.raw, got.Time, tt.want)
		}
	}
}

func TestTimestampRejectsUnknownLayout(t *testing.T) {
	var got Timestamp
	if err := json.Unmarshal([]byte(`"03/01/2025"`), &got); err == nil {
		t.Fatal("expected unsupported layout to fail")
	}
}

func TestTimestampMarshalZeroIsNull(t *testing.T) {
	out, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "null" {
		t.Fatalf("expected null, got %s", out)
	}
}
