package logtime

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tsts := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2017-05-01 02:00:15", "2017-05-01T02:00:15Z", true},
		{"2017-05-01T02:00:15", "2017-05-01T02:00:15Z", true},
		{"  2017-05-01 02:00:15  ", "2017-05-01T02:00:15Z", true},
		{"05/01/2017 02:00:15", "2017-05-01T02:00:15Z", true},
		{"not a timestamp", "", false},
		{"", "", false},
	}
	for _, tt := range tsts {
		got, ok := Parse(tt.input)
		if ok != tt.ok {
			t.Errorf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		want, _ := time.Parse(time.RFC3339, tt.want)
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tsts := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"00:00:12", 12 * time.Second, true},
		{"00:01:02", 62 * time.Second, true},
		{"25:00:00", 25 * time.Hour, true},
		{"00:12", 0, false},
		{"aa:bb:cc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tsts {
		got, ok := ParseDuration(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

type fakeNower struct{}

func (f *fakeNower) Now() time.Time {
	ts, _ := time.Parse(time.RFC3339, "2017-05-01T02:00:15Z")
	return ts
}

func TestNowerSeam(t *testing.T) {
	orig := DefaultNower
	defer func() { DefaultNower = orig }()
	DefaultNower = &fakeNower{}
	if Now().Year() != 2017 {
		t.Errorf("Now() = %v, want the fake clock's value", Now())
	}
}
