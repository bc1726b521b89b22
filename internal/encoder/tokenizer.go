package encoder

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// contextLength is the text tower's fixed token budget, including the
// start/end markers. Sequences are padded to exactly this length.
const contextLength = 77

// wordPattern splits cleaned text into BPE work units: contractions,
// letter runs, single digits, and punctuation runs.
var wordPattern = regexp.MustCompile(
	`'s|'t|'re|'ve|'m|'ll|'d|\p{L}+|\p{N}|[^\s\p{L}\p{N}]+`)

// tokenized holds the result of tokenizing one or more texts, ready for ONNX
// inference. Both slices are flat: [batchSize * contextLength].
type tokenized struct {
	inputIDs      []int64
	attentionMask []int64
	batchSize     int64
}

// tokenizer performs CLIP-style byte-level BPE tokenization.
type tokenizer struct {
	vocab   *vocab
	ranks   map[mergePair]int
	byteEnc [256]rune
}

// newTokenizer creates a tokenizer from vocab.json and merges.txt files.
func newTokenizer(vocabPath, mergesPath string) (*tokenizer, error) {
	v, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	ranks, err := loadMerges(mergesPath)
	if err != nil {
		return nil, err
	}
	return &tokenizer{vocab: v, ranks: ranks, byteEnc: bytesToUnicode()}, nil
}

// tokenizeBatch tokenizes multiple texts and packs them into flat slices
// padded to the fixed context length. Fails with ErrInputTooLong if any
// text does not fit within the budget.
func (t *tokenizer) tokenizeBatch(texts []string) (tokenized, error) {
	batchSize := int64(len(texts))
	total := batchSize * contextLength

	inputIDs := make([]int64, total)
	attentionMask := make([]int64, total)

	for i, text := range texts {
		ids, err := t.encode(text)
		if err != nil {
			return tokenized{}, err
		}
		if len(ids) > contextLength-2 {
			return tokenized{}, fmt.Errorf("text %d: %d tokens over budget %d: %w",
				i, len(ids)+2, contextLength, ErrInputTooLong)
		}

		// Build ID sequence: <|startoftext|> tokens... <|endoftext|> pad...
		off := int64(i) * contextLength
		inputIDs[off] = t.vocab.sotID
		attentionMask[off] = 1
		for j, id := range ids {
			inputIDs[off+int64(j)+1] = id
			attentionMask[off+int64(j)+1] = 1
		}
		end := off + int64(len(ids)) + 1
		inputIDs[end] = t.vocab.eotID
		attentionMask[end] = 1
		// Remaining positions pad with the end token, mask 0.
		for p := end + 1; p < off+contextLength; p++ {
			inputIDs[p] = t.vocab.eotID
		}
	}

	return tokenized{
		inputIDs:      inputIDs,
		attentionMask: attentionMask,
		batchSize:     batchSize,
	}, nil
}

// encode converts a single text into BPE token IDs, without the start/end
// markers.
func (t *tokenizer) encode(text string) ([]int64, error) {
	text = cleanText(text)

	var ids []int64
	for _, word := range wordPattern.FindAllString(text, -1) {
		// Map raw bytes into the printable-unicode alphabet BPE operates on.
		var b strings.Builder
		for i := 0; i < len(word); i++ {
			b.WriteRune(t.byteEnc[word[i]])
		}

		for _, sub := range t.bpe(b.String()) {
			id, ok := t.vocab.lookup(sub)
			if !ok {
				return nil, fmt.Errorf("tokenizer: subword %q not in vocabulary", sub)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// bpe decomposes one byte-encoded word into subwords by greedily applying
// the lowest-ranked merge rule until none applies. The final character
// carries the end-of-word marker.
func (t *tokenizer) bpe(word string) []string {
	runes := []rune(word)
	if len(runes) == 0 {
		return nil
	}

	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	parts[len(parts)-1] += "</w>"

	for len(parts) > 1 {
		// Find the pair with the lowest merge rank.
		bestRank := -1
		bestIdx := -1
		for i := 0; i < len(parts)-1; i++ {
			rank, ok := t.ranks[mergePair{parts[i], parts[i+1]}]
			if !ok {
				continue
			}
			if bestRank < 0 || rank < bestRank {
				bestRank = rank
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		merged := parts[bestIdx] + parts[bestIdx+1]
		parts = append(parts[:bestIdx], append([]string{merged}, parts[bestIdx+2:]...)...)
	}

	return parts
}

// cleanText normalizes raw prompt text: HTML entity unescaping, unicode
// composition, whitespace collapsing, lowercasing.
func cleanText(text string) string {
	text = html.UnescapeString(html.UnescapeString(text))
	text = norm.NFC.String(text)
	text = strings.Join(strings.Fields(text), " ")
	return strings.ToLower(strings.TrimSpace(text))
}

// bytesToUnicode builds the reversible byte→printable-rune table byte-level
// BPE vocabularies are written in. Printable ASCII and two Latin-1 ranges
// map to themselves; everything else is shifted above U+0100.
func bytesToUnicode() [256]rune {
	var table [256]rune
	n := 0
	for b := 0; b < 256; b++ {
		if (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF) {
			table[b] = rune(b)
		} else {
			table[b] = rune(256 + n)
			n++
		}
	}
	return table
}
