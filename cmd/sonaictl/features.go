package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/sonai/internal/corpus"
	"github.com/kailas-cloud/sonai/internal/dataset"
	"github.com/kailas-cloud/sonai/internal/domain/feature"
	"github.com/kailas-cloud/sonai/internal/domain/pattern"
	"github.com/kailas-cloud/sonai/internal/domain/style"
)

func featuresCmd(root *rootOptions) *cobra.Command {
	var (
		fetch   fetchOptions
		in      string
		remote  bool
		table   string
		out     string
		samples int
	)
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Compute metrics and weighted feature vectors into a parquet training set",
		Example: `sonaictl features --in som.jsonl --table sonai-v1 --out train.parquet
sonaictl features --fetch --samples 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := feature.Lookup(table)
			if err != nil {
				return err
			}

			var texts []string
			if remote {
				texts, err = fetch.fetch(cmd.Context(), root)
			} else {
				texts, err = readCorpus(in)
			}
			if err != nil {
				return err
			}

			set, err := pattern.Default()
			if err != nil {
				return err
			}
			rows := dataset.Build(style.NewExtractor(set), t, texts)
			if err := dataset.WriteFile(out, rows); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, i := range sampleIndexes(len(rows), samples) {
				fmt.Fprintf(w, "--- sample %d ---\nfeatures: %s\ntext:\n%s\n\n", i, rows[i].Metrics(), rows[i].Text)
			}
			fmt.Fprintf(w, "wrote %d rows (%s, %d features) to %s\n", len(rows), t.Name(), t.Len(), out)
			return nil
		},
	}
	fetch.addFlags(cmd)
	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "som.jsonl", "input JSON lines corpus")
	f.BoolVar(&remote, "fetch", false, "fetch the corpus instead of reading --in")
	f.StringVar(&table, "table", feature.V1Name, "feature table")
	f.StringVarP(&out, "out", "o", "train.parquet", "output parquet file")
	f.IntVar(&samples, "samples", 0, "print this many random rows")
	return cmd
}

func readCorpus(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return corpus.ReadJSONL(f)
}

// sampleIndexes picks up to k distinct indexes below n.
func sampleIndexes(n, k int) []int {
	if k <= 0 || n == 0 {
		return nil
	}
	perm := rand.Perm(n)
	if k < n {
		perm = perm[:k]
	}
	return perm
}
