// Package dataset exports per-text metrics and weighted feature vectors as parquet
// for the external cluster trainer.
package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/sonai/internal/domain/feature"
	"github.com/kailas-cloud/sonai/internal/domain/style"
)

// Row is one text of the training set.
type Row struct {
	Text         string `parquet:"text"`
	FeatureTable string `parquet:"feature_table,dict"`

	EmojiRate                 float64 `parquet:"emoji_rate"`
	BuzzwordRate              float64 `parquet:"buzzword_rate"`
	NotJustCount              float64 `parquet:"not_just_count"`
	HTMLEscapeCount           float64 `parquet:"html_escape_count"`
	DevlogCadenceCount        float64 `parquet:"devlog_cadence_count"`
	IrregularEllipsisCount    float64 `parquet:"irregular_ellipsis_count"`
	IrregularQuotationCount   float64 `parquet:"irregular_quotation_count"`
	IrregularDashCount        float64 `parquet:"irregular_dash_count"`
	IrregularMarkdownCount    float64 `parquet:"irregular_markdown_count"`
	LabelCount                float64 `parquet:"label_count"`
	HashtagCount              float64 `parquet:"hashtag_count"`
	BackstoryCount            float64 `parquet:"backstory_count"`
	IncorrectPerspectiveCount float64 `parquet:"incorrect_perspective_count"`
	HedgingCount              float64 `parquet:"hedging_count"`

	Features []float64 `parquet:"features,list"`
}

// NewRow builds the row of one text.
func NewRow(text string, m style.TextMetrics, table feature.Table) Row {
	return Row{
		Text:                      text,
		FeatureTable:              table.Name(),
		EmojiRate:                 m.EmojiRate,
		BuzzwordRate:              m.BuzzwordRate,
		NotJustCount:              m.NotJustCount,
		HTMLEscapeCount:           m.HTMLEscapeCount,
		DevlogCadenceCount:        m.DevlogCadenceCount,
		IrregularEllipsisCount:    m.IrregularEllipsisCount,
		IrregularQuotationCount:   m.IrregularQuotationCount,
		IrregularDashCount:        m.IrregularDashCount,
		IrregularMarkdownCount:    m.IrregularMarkdownCount,
		LabelCount:                m.LabelCount,
		HashtagCount:              m.HashtagCount,
		BackstoryCount:            m.BackstoryCount,
		IncorrectPerspectiveCount: m.IncorrectPerspectiveCount,
		HedgingCount:              m.HedgingCount,
		Features:                  table.Vector(m),
	}
}

// Metrics restores the TextMetrics of a row.
func (r Row) Metrics() style.TextMetrics {
	return style.TextMetrics{
		EmojiRate:                 r.EmojiRate,
		BuzzwordRate:              r.BuzzwordRate,
		NotJustCount:              r.NotJustCount,
		HTMLEscapeCount:           r.HTMLEscapeCount,
		DevlogCadenceCount:        r.DevlogCadenceCount,
		IrregularEllipsisCount:    r.IrregularEllipsisCount,
		IrregularQuotationCount:   r.IrregularQuotationCount,
		IrregularDashCount:        r.IrregularDashCount,
		IrregularMarkdownCount:    r.IrregularMarkdownCount,
		LabelCount:                r.LabelCount,
		HashtagCount:              r.HashtagCount,
		BackstoryCount:            r.BackstoryCount,
		IncorrectPerspectiveCount: r.IncorrectPerspectiveCount,
		HedgingCount:              r.HedgingCount,
	}
}

// Build extracts every text with e and assembles rows for table, in input order.
func Build(e *style.Extractor, table feature.Table, texts []string) []Row {
	metrics := e.CalculateAll(texts)
	rows := make([]Row, len(texts))
	for i, t := range texts {
		rows[i] = NewRow(t, metrics[i], table)
	}
	return rows
}

// Write encodes rows as a single parquet file.
func Write(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes every row of a parquet file written by WriteFile.
func ReadFile(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
