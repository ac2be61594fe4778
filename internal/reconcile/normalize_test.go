package reconcile

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "lowercases",
			title:    "DUNE",
			expected: "dune",
		},
		{
			name:     "strips punctuation",
			title:    "Do Androids Dream of Electric Sheep?",
			expected: "do androids dream of electric sheep",
		},
		{
			name:     "straight apostrophe",
			title:    "The Handmaid's Tale",
			expected: "the handmaids tale",
		},
		{
			name:     "curly apostrophe",
			title:    "The Handmaid’s Tale",
			expected: "the handmaids tale",
		},
		{
			name:     "hyphens removed",
			title:    "The Hitch-Hiker",
			expected: "the hitchhiker",
		},
		{
			name:     "collapses whitespace",
			title:    "  The   Left Hand\tof Darkness ",
			expected: "the left hand of darkness",
		},
		{
			name:     "empty string",
			title:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeTitle(tt.title)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}

			// Normalizing twice must not change the result
			if again := NormalizeTitle(result); again != result {
				t.Errorf("Expected idempotence, got %q then %q", result, again)
			}
		})
	}
}

func TestNormalizeTitleMatchesVariants(t *testing.T) {
	if NormalizeTitle("The Left Hand of Darkness") != NormalizeTitle("the left hand of darkness!") {
		t.Error("Expected punctuation and case variants to normalize identically")
	}
	if NormalizeTitle("Ubik") == NormalizeTitle("Ubik 2") {
		t.Error("Expected different titles to stay different")
	}
}
