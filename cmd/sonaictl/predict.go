package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	sonai "github.com/kailas-cloud/sonai/pkg/sdk"
)

func predictCmd() *cobra.Command {
	var (
		artifact  string
		aiCluster string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "predict [text]",
		Short: "Score a text against a local model (reads stdin without an argument)",
		Example: `sonaictl predict --artifact model.kmeans --ai-cluster model.ai.cluster "Day 3: ..."
cat devlog.md | sonaictl predict --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}

			p, err := sonai.New(cmd.Context(), sonai.WithModelFiles(artifact, aiCluster))
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.Predict(cmd.Context(), text)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"chance_ai":    res.ChanceAI,
					"chance_human": res.ChanceHuman,
					"likely_ai":    res.LikelyAI,
					"metrics":      res.Metrics,
					"model":        res.Fingerprint,
				})
			}
			verdict := "human"
			if res.LikelyAI {
				verdict = "ai"
			}
			fmt.Fprintf(w, "verdict=%s chance_ai=%.2f chance_human=%.2f\n", verdict, res.ChanceAI, res.ChanceHuman)
			fmt.Fprintln(w, strings.TrimSpace(res.Metrics.String()))
			return nil
		},
	}
	addModelFlags(cmd, &artifact, &aiCluster)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func addModelFlags(cmd *cobra.Command, artifact, aiCluster *string) {
	cmd.Flags().StringVar(artifact, "artifact", "model.kmeans", "model artifact file")
	cmd.Flags().StringVar(aiCluster, "ai-cluster", "model.ai.cluster", "ai cluster index file")
}
