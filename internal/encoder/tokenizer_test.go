package encoder

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// writeTokenizerFixtures writes a minimal vocab.json and merges.txt to a
// temp dir and returns their paths. The vocabulary covers lowercase ASCII
// letters (plain and end-of-word forms) plus a few merged subwords.
func writeTokenizerFixtures(t *testing.T) (vocabPath, mergesPath string) {
	t.Helper()
	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("{")
	id := 0
	add := func(tok string) {
		if id > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`"` + tok + `":`)
		sb.WriteString(strconv.Itoa(id))
		id++
	}
	add("<|startoftext|>")
	add("<|endoftext|>")
	for c := 'a'; c <= 'z'; c++ {
		add(string(c))
		add(string(c) + "</w>")
	}
	add("hi</w>")
	add("fa")
	add("face</w>")
	add("ce</w>")
	add(".</w>")
	add(".")
	sb.WriteString("}")

	vocabPath = filepath.Join(dir, "vocab.json")
	if err := os.WriteFile(vocabPath, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}

	merges := strings.Join([]string{
		"#version: 0.2",
		"h i</w>",
		"f a",
		"c e</w>",
		"fa ce</w>",
	}, "\n")
	mergesPath = filepath.Join(dir, "merges.txt")
	if err := os.WriteFile(mergesPath, []byte(merges), 0644); err != nil {
		t.Fatal(err)
	}
	return vocabPath, mergesPath
}

func newTestTokenizer(t *testing.T) *tokenizer {
	t.Helper()
	vocabPath, mergesPath := writeTokenizerFixtures(t)
	tok, err := newTokenizer(vocabPath, mergesPath)
	if err != nil {
		t.Fatalf("newTokenizer() error: %v", err)
	}
	return tok
}

func TestBPEMerges(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []struct {
		word string
		want []string
	}{
		{"hi", []string{"hi</w>"}},
		{"face", []string{"face</w>"}}, // f a → fa, c e</w> → ce</w>, fa ce</w> → face</w>
		{"ih", []string{"i", "h</w>"}}, // no rule merges this pair
		{"a", []string{"a</w>"}},
	}
	for _, tt := range tests {
		got := tok.bpe(tt.word)
		if len(got) != len(tt.want) {
			t.Errorf("bpe(%q) = %v, want %v", tt.word, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("bpe(%q)[%d] = %q, want %q", tt.word, i, got[i], tt.want[i])
			}
		}
	}
}

func TestEncode(t *testing.T) {
	tok := newTestTokenizer(t)

	ids, err := tok.encode("hi face")
	if err != nil {
		t.Fatalf("encode() error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %v", len(ids), ids)
	}

	hiID, _ := tok.vocab.lookup("hi</w>")
	faceID, _ := tok.vocab.lookup("face</w>")
	if ids[0] != hiID || ids[1] != faceID {
		t.Errorf("encode('hi face') = %v, want [%d %d]", ids, hiID, faceID)
	}
}

func TestEncodeCaseAndWhitespace(t *testing.T) {
	tok := newTestTokenizer(t)

	a, err := tok.encode("HI   Face")
	if err != nil {
		t.Fatal(err)
	}
	b, err := tok.encode("hi face")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("case/whitespace cleanup changed token count: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("token %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hello   World  ", "hello world"},
		{"A&amp;B", "a&b"},
		{"a\tb\nc", "a b c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenizeBatchLayout(t *testing.T) {
	tok := newTestTokenizer(t)

	batch, err := tok.tokenizeBatch([]string{"hi", "face hi"})
	if err != nil {
		t.Fatalf("tokenizeBatch() error: %v", err)
	}

	if batch.batchSize != 2 {
		t.Fatalf("batchSize = %d, want 2", batch.batchSize)
	}
	if len(batch.inputIDs) != 2*contextLength {
		t.Fatalf("inputIDs len = %d, want %d", len(batch.inputIDs), 2*contextLength)
	}

	// First sequence: sot, hi, eot, then eot padding with mask 0.
	if batch.inputIDs[0] != tok.vocab.sotID {
		t.Errorf("position 0 = %d, want sot %d", batch.inputIDs[0], tok.vocab.sotID)
	}
	if batch.inputIDs[2] != tok.vocab.eotID {
		t.Errorf("position 2 = %d, want eot %d", batch.inputIDs[2], tok.vocab.eotID)
	}
	if batch.attentionMask[2] != 1 {
		t.Error("eot position should be attended")
	}
	if batch.attentionMask[3] != 0 {
		t.Error("padding position should be masked out")
	}
	if batch.inputIDs[3] != tok.vocab.eotID {
		t.Errorf("padding = %d, want eot %d", batch.inputIDs[3], tok.vocab.eotID)
	}

	// Second sequence starts at contextLength.
	if batch.inputIDs[contextLength] != tok.vocab.sotID {
		t.Error("second sequence missing sot at its offset")
	}
}

func TestTokenizeBatchTooLong(t *testing.T) {
	tok := newTestTokenizer(t)

	// contextLength-1 single-letter words exceed the budget of
	// contextLength-2 content tokens.
	long := strings.TrimSpace(strings.Repeat("a ", contextLength-1))
	_, err := tok.tokenizeBatch([]string{long})
	if err == nil {
		t.Fatal("expected error for over-budget text")
	}
	if !errors.Is(err, ErrInputTooLong) {
		t.Fatalf("expected ErrInputTooLong, got: %v", err)
	}
}

func TestBytesToUnicodeReversible(t *testing.T) {
	table := bytesToUnicode()

	// Printable ASCII maps to itself.
	if table['!'] != '!' || table['z'] != 'z' {
		t.Error("printable ASCII should map to itself")
	}
	// Space is remapped above U+00FF.
	if table[' '] <= 0xFF {
		t.Errorf("space mapped to %U, want above U+00FF", table[' '])
	}
	// All 256 outputs are distinct.
	seen := make(map[rune]bool, 256)
	for _, r := range table {
		if seen[r] {
			t.Fatalf("duplicate rune %U in byte table", r)
		}
		seen[r] = true
	}
}

func TestLoadVocabMissingSpecial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.json")
	if err := os.WriteFile(path, []byte(`{"a":0}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadVocab(path); err == nil {
		t.Fatal("expected error for vocab without special tokens")
	}
}

func TestLoadMergesMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merges.txt")
	if err := os.WriteFile(path, []byte("justoneword"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadMerges(path); err == nil {
		t.Fatal("expected error for malformed merges line")
	}
}
