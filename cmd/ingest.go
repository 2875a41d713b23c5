package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eventatlas/eventatlas/app"
	"github.com/eventatlas/eventatlas/feed"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/worker"
	"github.com/spf13/cobra"
)

const ingestBatchSize = 100

type ingestOptions struct {
	source string
	file   string
	s3     string
	sync   bool
}

func (opts *ingestOptions) location() string {
	if opts.s3 != "" {
		return opts.s3
	}
	return opts.file
}

func newIngestCmd() *cobra.Command {
	opts := &ingestOptions{}

	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a feed of source payloads",
		Long: `Read a feed document from a file or S3 and enqueue one ingest task per payload.
With --sync the payloads are ingested in-process and the per-payload results are printed.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				source, err := a.Registry().LookUp(cmd.Context(), opts.source)
				if err != nil {
					return err
				}
				if source == nil {
					return fmt.Errorf("source %q is not registered", opts.source)
				}

				loader, err := feed.Open(cmd.Context(), opts.location(), a.Config().Feed)
				if err != nil {
					return err
				}
				payloads, err := loader.Load(cmd.Context(), opts.location())
				if err != nil {
					return err
				}
				if len(payloads) == 0 {
					return errors.New("feed contains no events")
				}

				if opts.sync {
					return ingestSync(cmd, a.Ingester(), opts.source, payloads)
				}
				return ingestAsync(cmd, a.Queue(), opts.source, payloads)
			})
		},
	}

	ingest.Flags().StringVar(&opts.source, "source", "", "Code of the source the payloads come from")
	ingest.Flags().StringVar(&opts.file, "file", "", "Path of a .json, .jsonl or .yaml feed")
	ingest.Flags().StringVar(&opts.s3, "s3", "", "S3 URI of a feed, s3://bucket/key")
	ingest.Flags().BoolVar(&opts.sync, "sync", false, "Ingest in-process instead of enqueueing tasks")
	_ = ingest.MarkFlagRequired("source")
	ingest.MarkFlagsMutuallyExclusive("file", "s3")
	ingest.MarkFlagsOneRequired("file", "s3")

	return ingest
}

func ingestAsync(cmd *cobra.Command, queue taskqueue.TaskQueue, source string, payloads []json.RawMessage) error {
	total := 0
	for start := 0; start < len(payloads); start += ingestBatchSize {
		end := min(start+ingestBatchSize, len(payloads))
		tasks := make([]*taskqueue.TaskMessage, 0, end-start)
		for _, payload := range payloads[start:end] {
			tasks = append(tasks, taskqueue.NewTaskMessage(taskqueue.TaskKindIngest, &worker.IngestData{
				SourceCode: source,
				RawPayload: payload,
			}))
		}
		if err := queue.Add(cmd.Context(), tasks); err != nil {
			return fmt.Errorf("enqueued %d of %d payloads: %w", total, len(payloads), err)
		}
		total += len(tasks)
	}
	cmd.Printf("enqueued %d ingest tasks\n", total)
	return nil
}

func ingestSync(cmd *cobra.Command, ingester *worker.Ingester, source string, payloads []json.RawMessage) error {
	var created, updated, failed int
	for i, payload := range payloads {
		result, err := ingester.Ingest(cmd.Context(), &worker.IngestData{SourceCode: source, RawPayload: payload})
		if err != nil {
			failed++
			cmd.PrintErrf("payload %d: %s\n", i, err)
			continue
		}
		if result.Created {
			created++
		} else {
			updated++
		}
		cmd.Printf("payload %d: %s\n", i, result.Hash)
	}
	cmd.Printf("created %d, updated %d, failed %d\n", created, updated, failed)
	if failed > 0 {
		return fmt.Errorf("%d payloads failed", failed)
	}
	return nil
}
