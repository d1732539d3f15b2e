package script

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	cases := []string{
		"The Ability to Say No!",
		"co-operate, don't you think?",
		"  extra   whitespace  ",
		"Café — naïve",
		"",
	}
	for _, s := range cases {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%q) not idempotent: %q vs %q", s, once, twice)
		}
	}
}

func TestNormalizeBasics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The ability to say no", "the ability to say no"},
		{"co-operate", "co operate"},
		{"Hello,   World!", "hello world"},
		{"let me see your hands.", "let me see your hands"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWords(t *testing.T) {
	got := Words(Normalize("the ability to say no"))
	want := []string{"the", "ability", "to", "say", "no"}
	if len(got) != len(want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Words()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
