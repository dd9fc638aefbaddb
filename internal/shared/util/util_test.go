package util

import "testing"

func TestHashUserKey(t *testing.T) {
	id := "google:12345"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" notes/2026.txt ")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "notes_2026.txt" {
		t.Fatalf("unexpected result: %q", got)
	}

	if _, err := SanitizeFileName("../../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"hello", 1},
		{"we agreed to ship friday", 5},
		{"  spaced   out\nwords\t here ", 4},
	}
	for _, tc := range cases {
		if got := CountWords(tc.text); got != tc.want {
			t.Fatalf("CountWords(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
