package cmd

import (
	"context"
	"time"

	"github.com/eventatlas/eventatlas/app"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/worker"
	"github.com/spf13/cobra"
)

func newIndexRebuildCmd() *cobra.Command {
	var timeout time.Duration
	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the search index from the record store",
		Long:  `Rebuild the search index from a consistent snapshot of every stored event.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				result, err := a.Indexer().Rebuild(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("indexed %d events into %q (%d batches) in %s\n",
					result.Documents, result.Collection, result.Batches, result.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
	rebuild.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Maximum time the rebuild may take")
	return rebuild
}

func newIndexReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex HASH...",
		Short: "Enqueue a reindex of the given events",
		Long:  ``,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				task := taskqueue.NewTaskMessage(taskqueue.TaskKindReindex, &worker.ReindexData{Hashes: args})
				if err := a.Queue().Add(cmd.Context(), []*taskqueue.TaskMessage{task}); err != nil {
					return err
				}
				cmd.Printf("enqueued reindex task %s for %d events\n", task.ID, len(args))
				return nil
			})
		},
	}
}

func newIndexStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the search index status",
		Long:  ``,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				status, err := a.Indexer().Status(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, status)
			})
		},
	}
}

func newIndexCmd() *cobra.Command {
	index := &cobra.Command{
		Use:               "index",
		Short:             "Search index commands",
		Long:              ``,
		PersistentPreRunE: loadConfig,
	}

	index.AddCommand(newIndexRebuildCmd())
	index.AddCommand(newIndexReindexCmd())
	index.AddCommand(newIndexStatusCmd())

	return index
}
