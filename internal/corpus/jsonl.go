package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Record is one line of a JSON lines corpus file.
type Record struct {
	Text string `json:"text"`
}

// maxLineBytes bounds a single corpus line.
const maxLineBytes = 4 << 20

// ReadJSONL reads a corpus of {"text": ...} lines. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	var out []string
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec.Text)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return out, nil
}

// WriteJSONL writes texts as {"text": ...} lines.
func WriteJSONL(w io.Writer, texts []string) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, t := range texts {
		if err := enc.Encode(Record{Text: t}); err != nil {
			return fmt.Errorf("write text %d: %w", i, err)
		}
	}
	return bw.Flush()
}
