package main

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/ferdiebergado/ragchat/internal/app"
	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/document"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
	"github.com/spf13/cobra"
)

const previewRunes = 100

// withDocuments loads the config, builds the document service and closes
// its resources after fn returns.
func withDocuments(ctx context.Context, fn func(svc document.Service, cfg *config.Config) error) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	provider, err := app.NewProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(); err != nil {
			slog.Error("Failed to release resources.", "reason", err)
		}
	}()

	svc := document.NewService(provider.Store, provider.Embedder, cfg.Ingest, provider.Metrics.IngestedChunks)
	return fn(svc, cfg)
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Chunk, embed and store files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("%w: no supported files in %v", document.ErrUnsupported, args)
			}

			sources := make([]document.Source, 0, len(files))
			for _, f := range files {
				src, err := document.Load(f)
				if err != nil {
					slog.Warn("Skipping file.", "path", f, "reason", err)
					continue
				}
				sources = append(sources, src)
			}

			return withDocuments(cmd.Context(), func(svc document.Service, _ *config.Config) error {
				results, err := svc.Ingest(cmd.Context(), sources...)
				if err != nil {
					return err
				}

				out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(out, "DOCUMENT ID\tFILENAME\tCHUNKS")
				for _, r := range results {
					fmt.Fprintf(out, "%s\t%s\t%d\n", r.DocumentID, r.Filename, r.Chunks)
				}
				return out.Flush()
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the stored chunks closest to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocuments(cmd.Context(), func(svc document.Service, _ *config.Config) error {
				matches, err := svc.Search(cmd.Context(), args[0], n)
				if err != nil {
					return err
				}

				out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(out, "RANK\tDISTANCE\tFILENAME\tPREVIEW")
				for i, m := range matches {
					fmt.Fprintf(out, "%d\t%.4f\t%s\t%s\n", i+1, m.Distance, m.Metadata[document.MetaFilename], vectorstore.Preview(m.Content, previewRunes))
				}
				return out.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&n, "n-results", "n", 3, "number of results")
	return cmd
}

func newDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDocuments(cmd.Context(), func(svc document.Service, _ *config.Config) error {
				docs, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}

				out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(out, "DOCUMENT ID\tFILENAME\tCHUNKS\tSOURCE")
				for _, d := range docs {
					fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", d.DocumentID, d.Filename, d.Chunks, d.Source)
				}
				return out.Flush()
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocuments(cmd.Context(), func(svc document.Service, _ *config.Config) error {
				n, err := svc.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d chunks of %s\n", n, args[0])
				return nil
			})
		},
	}
}
