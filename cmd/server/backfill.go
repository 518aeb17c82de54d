package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/usecase"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed published jobs and default resumes that have no embedding yet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobs, _ := cmd.Flags().GetBool("jobs")
		resumes, _ := cmd.Flags().GetBool("resumes")
		limit, _ := cmd.Flags().GetInt("limit")
		if !jobs && !resumes {
			jobs, resumes = true, true
		}
		return backfill(cmd.Context(), jobs, resumes, limit)
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().Bool("jobs", false, "embed published jobs without an embedding")
	backfillCmd.Flags().Bool("resumes", false, "parse and embed default resumes without an embedding")
	backfillCmd.Flags().Int("limit", 500, "maximum entities of each kind to enqueue")
}

func backfill(parent context.Context, jobs, resumes bool, limit int) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := wire(ctx, log)
	if err != nil {
		log.Error("wiring dependencies", zap.Error(err))
		return err
	}
	defer d.close()

	d.pool.Start(ctx)
	defer d.pool.Stop()

	if jobs {
		ids, err := d.jobs.ListJobsWithoutEmbedding(ctx, limit)
		if err != nil {
			return err
		}
		if err := enqueueAll(ctx, d, usecase.TaskEmbedJob, ids); err != nil {
			return err
		}
	}
	if resumes {
		ids, err := d.resumes.ListDefaultWithoutEmbedding(ctx, limit)
		if err != nil {
			return err
		}
		if err := enqueueAll(ctx, d, usecase.TaskEmbedResume, ids); err != nil {
			return err
		}
	}

	if err := d.pool.Drain(ctx); err != nil {
		return fmt.Errorf("waiting for backfill tasks: %w", err)
	}
	log.Info("backfill finished")
	return nil
}

func enqueueAll(ctx context.Context, d *deps, kind string, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := d.pool.Enqueue(ctx, kind, id); err != nil {
			return fmt.Errorf("enqueue %s %s: %w", kind, id, err)
		}
	}
	d.log.Info("backfill enqueued", zap.String("task", kind), zap.Int("count", len(ids)))
	return nil
}
