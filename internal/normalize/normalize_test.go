package normalize

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Comfort Food", "comfort food"},
		{"  olive   OIL ", "olive oil"},
		{"SALT", "salt"},
		{"salt", "salt"},
		{"", ""},
		{"   ", ""},
		{"crème fraîche", "crème fraîche"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.expected {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Comfort Food", "comfort-food"},
		{"comfort_food", "comfort-food"},
		{"COMFORT-FOOD", "comfort-food"},
		{"  multi   word ", "multi-word"},
		{"--leading--", "leading"},
		{"Spicy!", "spicy"},
		{"30 minute meals", "30-minute-meals"},
		{"a/b testing", "a-b-testing"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.expected {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
