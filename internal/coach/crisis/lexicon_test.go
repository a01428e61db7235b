package crisis

import "testing"

func TestDefaultLexiconLoads(t *testing.T) {
	lex := DefaultLexicon()
	if lex.Version == "" {
		t.Fatalf("embedded lexicon has no version")
	}
	if len(lex.Keywords) == 0 || len(lex.Patterns) == 0 {
		t.Fatalf("embedded lexicon is empty: %d keywords, %d patterns", len(lex.Keywords), len(lex.Patterns))
	}
}

func TestLexiconMatching(t *testing.T) {
	lex := DefaultLexicon()
	cases := []struct {
		message string
		want    bool
	}{
		{"I want to kill myself", true},
		{"I WANT TO KILL MYSELF", true},
		{"some days I just can't take it anymore", true},
		{"I'm scared I might hurt my child", true},
		{"I want to hurt my child", true},
		{"thinking about ending it all", true},
		{"my son had a great day at school today", false},
		{"homework was a struggle again but we got through it", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := lex.Matches(tc.message); got != tc.want {
			t.Fatalf("Matches(%q) = %t, want %t", tc.message, got, tc.want)
		}
	}
}

func TestParseLexiconRejectsBrokenDocument(t *testing.T) {
	if _, err := ParseLexicon([]byte(`{"version":"x","keywords":["a"],"patterns":["("]}`)); err == nil {
		t.Fatalf("broken pattern accepted")
	}
	if _, err := ParseLexicon([]byte(`{"version":"x"}`)); err == nil {
		t.Fatalf("empty lexicon accepted")
	}
	if _, err := ParseLexicon([]byte(`not json`)); err == nil {
		t.Fatalf("malformed JSON accepted")
	}
}

func TestParseLexiconCompilesCaseInsensitive(t *testing.T) {
	lex, err := ParseLexicon([]byte(`{"version":"t","keywords":[],"patterns":["danger\\s+word"]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !lex.Matches("DANGER   WORD") {
		t.Fatalf("pattern did not match case-insensitively")
	}
}
