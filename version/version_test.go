package version

import "testing"

func TestCheckAppBuild(t *testing.T) {
	tests := []struct {
		build    string
		expected string
	}{
		{build: "", expected: ""},
		{build: "abc-123", expected: "abc-123"},
		{build: "bad build", expected: ""},
		{build: "bad.build", expected: ""},
	}
	for _, test := range tests {
		result := checkAppBuild(test.build)
		if result != test.expected {
			t.Errorf("checkAppBuild(%q): got %q, want %q", test.build, result, test.expected)
		}
	}
}
