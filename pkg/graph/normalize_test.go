package graph

import "testing"

func TestNormalize(t *testing.T) {
	norm := NewNormalizer(map[string]string{
		"Eren":   "Eren Yeager",
		"艾伦":     "Eren Yeager",
		"Mikasa": "Mikasa Ackerman",
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"alias is replaced", "Eren", "Eren Yeager"},
		{"alias in another script", "艾伦", "Eren Yeager"},
		{"unknown name passes through", "Armin", "Armin"},
		{"whitespace is trimmed", "  Mikasa \n", "Mikasa Ackerman"},
		{"canonical name passes through", "Eren Yeager", "Eren Yeager"},
		{"empty input stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := norm.Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	norm := NewNormalizer(map[string]string{"Eren": "Eren Yeager"})

	for _, in := range []string{"Eren", " Eren ", "Eren Yeager", "Armin", ""} {
		once := norm.Normalize(in)
		twice := norm.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeChainedAliases(t *testing.T) {
	norm := NewNormalizer(map[string]string{
		"Eren":     "Jaeger",
		"Jaeger":   "Eren Yeager",
		"Attack":   "Titan",
		"Titan":    "Attack",
		"Colossal": "Colossal",
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"chain resolves to the final form", "Eren", "Eren Yeager"},
		{"middle of the chain resolves too", "Jaeger", "Eren Yeager"},
		{"cycle member maps to itself", "Attack", "Attack"},
		{"other cycle member maps to itself", "Titan", "Titan"},
		{"self alias passes through", "Colossal", "Colossal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := norm.Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := norm.Normalize(got); again != got {
				t.Errorf("Normalize not idempotent for %q: first %q, second %q", tt.in, got, again)
			}
		})
	}
}

func TestNormalizeNilTable(t *testing.T) {
	norm := NewNormalizer(nil)
	if got := norm.Normalize(" Levi "); got != "Levi" {
		t.Errorf("Normalize with nil table = %q, want %q", got, "Levi")
	}
}
