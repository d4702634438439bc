package safety

import "testing"

func TestLikelyInappropriate(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"", false},
		{"travel plans for Paris", false},
		{"my cat is asleep", false},
		{"sex", true},
		{"SEX", true},
		{"Sussex countryside", true}, // substring match, coarse on purpose
		{"he was killed in the film", true},
		{"classical music", true}, // "ass" in "classical"
		{"flower garden", false},
		{"a weird dream about spiders", false},
	}

	for _, tc := range cases {
		if got := LikelyInappropriate(tc.text); got != tc.want {
			t.Errorf("LikelyInappropriate(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
