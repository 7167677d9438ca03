package style

import (
	"strconv"
	"strings"
)

// Metric names, in canonical order. They double as JSON keys and feature table entries.
const (
	EmojiRate                 = "emoji_rate"
	BuzzwordRate              = "buzzword_rate"
	NotJustCount              = "not_just_count"
	HTMLEscapeCount           = "html_escape_count"
	DevlogCadenceCount        = "devlog_cadence_count"
	IrregularEllipsisCount    = "irregular_ellipsis_count"
	IrregularQuotationCount   = "irregular_quotation_count"
	IrregularDashCount        = "irregular_dash_count"
	IrregularMarkdownCount    = "irregular_markdown_count"
	LabelCount                = "label_count"
	HashtagCount              = "hashtag_count"
	BackstoryCount            = "backstory_count"
	IncorrectPerspectiveCount = "incorrect_perspective_count"
	HedgingCount              = "hedging_count"
)

var metricNames = []string{
	EmojiRate,
	BuzzwordRate,
	NotJustCount,
	HTMLEscapeCount,
	DevlogCadenceCount,
	IrregularEllipsisCount,
	IrregularQuotationCount,
	IrregularDashCount,
	IrregularMarkdownCount,
	LabelCount,
	HashtagCount,
	BackstoryCount,
	IncorrectPerspectiveCount,
	HedgingCount,
}

// MetricNames returns every metric name in canonical order.
func MetricNames() []string {
	out := make([]string, len(metricNames))
	copy(out, metricNames)
	return out
}

// TextMetrics is the stylistic fingerprint of one text.
// Rates are per sentence; every other field is an absolute count.
type TextMetrics struct {
	EmojiRate    float64 `json:"emoji_rate"`
	BuzzwordRate float64 `json:"buzzword_rate"`

	NotJustCount       float64 `json:"not_just_count"`
	HTMLEscapeCount    float64 `json:"html_escape_count"`
	DevlogCadenceCount float64 `json:"devlog_cadence_count"`

	IrregularEllipsisCount  float64 `json:"irregular_ellipsis_count"`
	IrregularQuotationCount float64 `json:"irregular_quotation_count"`
	IrregularDashCount      float64 `json:"irregular_dash_count"`
	IrregularMarkdownCount  float64 `json:"irregular_markdown_count"`

	LabelCount   float64 `json:"label_count"`
	HashtagCount float64 `json:"hashtag_count"`

	BackstoryCount            float64 `json:"backstory_count"`
	IncorrectPerspectiveCount float64 `json:"incorrect_perspective_count"`
	HedgingCount              float64 `json:"hedging_count"`
}

// Field returns the value of the named metric.
func (m TextMetrics) Field(name string) (float64, bool) {
	switch name {
	case EmojiRate:
		return m.EmojiRate, true
	case BuzzwordRate:
		return m.BuzzwordRate, true
	case NotJustCount:
		return m.NotJustCount, true
	case HTMLEscapeCount:
		return m.HTMLEscapeCount, true
	case DevlogCadenceCount:
		return m.DevlogCadenceCount, true
	case IrregularEllipsisCount:
		return m.IrregularEllipsisCount, true
	case IrregularQuotationCount:
		return m.IrregularQuotationCount, true
	case IrregularDashCount:
		return m.IrregularDashCount, true
	case IrregularMarkdownCount:
		return m.IrregularMarkdownCount, true
	case LabelCount:
		return m.LabelCount, true
	case HashtagCount:
		return m.HashtagCount, true
	case BackstoryCount:
		return m.BackstoryCount, true
	case IncorrectPerspectiveCount:
		return m.IncorrectPerspectiveCount, true
	case HedgingCount:
		return m.HedgingCount, true
	default:
		return 0, false
	}
}

// String renders the metrics as space separated name=value pairs in canonical order.
func (m TextMetrics) String() string {
	var b strings.Builder
	for i, name := range metricNames {
		if i > 0 {
			b.WriteByte(' ')
		}
		v, _ := m.Field(name)
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
