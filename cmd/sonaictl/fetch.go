package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/sonai/internal/corpus"
)

// sessionEnv holds the corpus API session when --session is not given.
const sessionEnv = "SONAI_CORPUS_SESSION"

type fetchOptions struct {
	baseURL     string
	session     string
	concurrency int
	maxRetries  int
	backoff     time.Duration
	timeout     time.Duration
}

func (o *fetchOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.baseURL, "base-url", "https://summer.hackclub.com/api/v1", "corpus API base URL")
	f.StringVar(&o.session, "session", "", "API session cookie value (default $"+sessionEnv+")")
	f.IntVar(&o.concurrency, "concurrency", 20, "pages fetched in parallel")
	f.IntVar(&o.maxRetries, "max-retries", 3, "attempts per page")
	f.DurationVar(&o.backoff, "backoff", 500*time.Millisecond, "initial retry backoff, doubled per attempt")
	f.DurationVar(&o.timeout, "timeout", 30*time.Second, "per-request timeout")
}

func (o *fetchOptions) fetch(ctx context.Context, root *rootOptions) ([]string, error) {
	session := o.session
	if session == "" {
		session = os.Getenv(sessionEnv)
	}
	if session == "" {
		return nil, fmt.Errorf("session required: pass --session or set %s", sessionEnv)
	}
	f := corpus.NewFetcher(corpus.Config{
		BaseURL:     o.baseURL,
		Session:     session,
		Concurrency: o.concurrency,
		MaxRetries:  o.maxRetries,
		Backoff:     o.backoff,
		Timeout:     o.timeout,
	}, nil, root.logger)
	return f.FetchAll(ctx)
}

func fetchCmd(root *rootOptions) *cobra.Command {
	var (
		opts fetchOptions
		out  string
	)
	cmd := &cobra.Command{
		Use:     "fetch",
		Short:   "Download the devlog and project corpus as JSON lines",
		Example: `SONAI_CORPUS_SESSION=... sonaictl fetch --out som.jsonl`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			texts, err := opts.fetch(cmd.Context(), root)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := corpus.WriteJSONL(f, texts); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d texts to %s\n", len(texts), out)
			return nil
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "som.jsonl", "output JSON lines file")
	return cmd
}
