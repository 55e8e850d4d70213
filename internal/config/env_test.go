package config

import "testing"

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 7},
		{"valid", "3", 3},
		{"negative", "-2", -2},
		{"garbage", "abc", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEPTHVIEW_TEST_INT", tt.value)
			if got := Int("DEPTHVIEW_TEST_INT", 7); got != tt.want {
				t.Errorf("Int() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOutputDir(t *testing.T) {
	t.Setenv("DEPTHVIEW_OUTPUT_DIR", "")
	if got := OutputDir(); got != DefaultOutputDir {
		t.Errorf("OutputDir() = %q, want %q", got, DefaultOutputDir)
	}

	t.Setenv("DEPTHVIEW_OUTPUT_DIR", "/tmp/out")
	if got := OutputDir(); got != "/tmp/out" {
		t.Errorf("OutputDir() = %q, want /tmp/out", got)
	}
}

func TestWebPortDisabledByDefault(t *testing.T) {
	t.Setenv("DEPTHVIEW_WEB_PORT", "")
	if got := WebPort(); got != "" {
		t.Errorf("WebPort() = %q, want empty", got)
	}
}
