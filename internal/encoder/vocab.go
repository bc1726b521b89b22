package encoder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	startToken = "<|startoftext|>"
	endToken   = "<|endoftext|>"
)

// vocab holds a byte-level BPE vocabulary loaded from a vocab.json file
// (token string → ID, subwords carrying a "</w>" end-of-word suffix).
type vocab struct {
	tokenToID map[string]int64

	sotID int64
	eotID int64
}

// loadVocab reads a vocab.json file mapping token strings to IDs.
func loadVocab(path string) (*vocab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}

	tokenToID := make(map[string]int64, 49408)
	if err := json.Unmarshal(data, &tokenToID); err != nil {
		return nil, fmt.Errorf("vocab: failed to parse %s: %w", path, err)
	}
	if len(tokenToID) == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", path)
	}

	v := &vocab{tokenToID: tokenToID}

	// Resolve special token IDs.
	specials := []struct {
		name string
		dest *int64
	}{
		{startToken, &v.sotID},
		{endToken, &v.eotID},
	}
	for _, s := range specials {
		id, ok := tokenToID[s.name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", s.name)
		}
		*s.dest = id
	}

	return v, nil
}

// lookup returns the token ID and whether the token is in the vocabulary.
func (v *vocab) lookup(token string) (int64, bool) {
	id, ok := v.tokenToID[token]
	return id, ok
}

// mergePair is one BPE merge rule's operands.
type mergePair struct {
	left, right string
}

// loadMerges reads a merges.txt file where each line is a space-separated
// pair of subwords; the line number defines the merge priority (lower wins).
// A leading "#version" header line is skipped.
func loadMerges(path string) (map[mergePair]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("merges: %w", err)
	}
	defer f.Close()

	ranks := make(map[mergePair]int, 49152)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#version") {
			continue
		}
		left, right, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("merges: malformed line %q", line)
		}
		ranks[mergePair{left, right}] = len(ranks)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("merges: read error: %w", err)
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("merges: file is empty: %s", path)
	}

	return ranks, nil
}
