package style

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTextMetrics_FieldCoversAllNames(t *testing.T) {
	m := TextMetrics{HedgingCount: 7, EmojiRate: 0.5}
	for _, name := range MetricNames() {
		if _, ok := m.Field(name); !ok {
			t.Errorf("Field(%q) not found", name)
		}
	}
	if v, _ := m.Field(HedgingCount); v != 7 {
		t.Errorf("hedging_count = %v, want 7", v)
	}
	if _, ok := m.Field("nope"); ok {
		t.Error("expected unknown field to be rejected")
	}
}

func TestTextMetrics_JSONKeysMatchNames(t *testing.T) {
	data, err := json.Marshal(TextMetrics{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(raw) != len(MetricNames()) {
		t.Fatalf("expected %d keys, got %d", len(MetricNames()), len(raw))
	}
	for _, name := range MetricNames() {
		if _, ok := raw[name]; !ok {
			t.Errorf("json key %q missing", name)
		}
	}
}

func TestTextMetrics_String(t *testing.T) {
	s := TextMetrics{EmojiRate: 1.5, HashtagCount: 2}.String()
	if !strings.HasPrefix(s, "emoji_rate=1.5 buzzword_rate=0 ") {
		t.Errorf("unexpected rendering: %s", s)
	}
	if !strings.Contains(s, " hashtag_count=2 ") {
		t.Errorf("hashtag_count missing: %s", s)
	}
	if got := strings.Count(s, "="); got != len(MetricNames()) {
		t.Errorf("expected %d pairs, got %d", len(MetricNames()), got)
	}
}
