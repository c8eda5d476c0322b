package config

import (
	"testing"
	"time"
)

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "1500ms", 1500 * time.Millisecond},
		{"bare seconds", "30", 30 * time.Second},
		{"minutes", "2m", 2 * time.Minute},
		{"garbage falls back", "soon", 7 * time.Second},
		{"unset falls back", "", 7 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DURATION", tt.value)
			}
			if got := getDuration("TEST_DURATION", 7*time.Second); got != tt.want {
				t.Errorf("getDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"banana", false},
	}

	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.value)
		if got := getBool("TEST_BOOL", false); got != tt.want {
			t.Errorf("getBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}

	if got := getBool("TEST_BOOL_UNSET", true); got != true {
		t.Error("getBool() unset did not fall back to default")
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("TEST_INT", "4096")
	if got := getInt("TEST_INT", 1); got != 4096 {
		t.Errorf("getInt() = %d, want 4096", got)
	}
	t.Setenv("TEST_INT", "nope")
	if got := getInt("TEST_INT", 1); got != 1 {
		t.Errorf("getInt() bad value = %d, want default 1", got)
	}
}
