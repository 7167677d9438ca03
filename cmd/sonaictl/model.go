package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/sonai/internal/domain/cluster"
)

func encodeModelCmd() *cobra.Command {
	var (
		in        string
		artifact  string
		aiCluster string
	)
	cmd := &cobra.Command{
		Use:     "encode-model",
		Short:   "Convert a JSON centroid document into a model artifact and ai cluster file",
		Example: `sonaictl encode-model --in centroids.json --artifact model.kmeans --ai-cluster model.ai.cluster`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}
			m, err := cluster.ParseCentroidDoc(data)
			if err != nil {
				return err
			}
			if err := os.WriteFile(artifact, cluster.EncodeArtifact(m), 0o644); err != nil {
				return fmt.Errorf("write artifact: %w", err)
			}
			if err := os.WriteFile(aiCluster, cluster.EncodeAICluster(m.AICluster()), 0o644); err != nil {
				return fmt.Errorf("write ai cluster: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model %s (%s, ai_cluster=%d) written to %s and %s\n",
				m.Fingerprint(), m.Table().Name(), m.AICluster(), artifact, aiCluster)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "centroids.json", "JSON centroid document")
	addModelFlags(cmd, &artifact, &aiCluster)
	return cmd
}

// inspection is the JSON printed by inspect-model.
type inspection struct {
	Fingerprint string `json:"fingerprint"`
	Dimensions  int    `json:"dimensions"`
	cluster.CentroidDoc
}

func inspectModelCmd() *cobra.Command {
	var artifact, aiCluster string
	cmd := &cobra.Command{
		Use:   "inspect-model",
		Short: "Validate a model artifact and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := os.ReadFile(artifact)
			if err != nil {
				return fmt.Errorf("read artifact: %w", err)
			}
			ai, err := os.ReadFile(aiCluster)
			if err != nil {
				return fmt.Errorf("read ai cluster: %w", err)
			}
			m, err := cluster.Load(a, ai)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(inspection{
				Fingerprint: m.Fingerprint(),
				Dimensions:  m.Dimensions(),
				CentroidDoc: m.Doc(),
			})
		},
	}
	addModelFlags(cmd, &artifact, &aiCluster)
	return cmd
}
