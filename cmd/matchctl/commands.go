package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/infrastructure/export/xlsx"
)

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [lost-item-id] [found-item-id]",
		Short: "Score one lost/found pair and store the match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Matcher.ScoreSingle(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newBatchCmd() *cobra.Command {
	var (
		minScore   int
		categories []string
		activeOnly bool
		async      bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run pairwise matching over all lost and found items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := domain.BatchRequest{MinScore: minScore, ActiveOnly: activeOnly}
			for _, raw := range categories {
				category := domain.Category(raw)
				if !category.Valid() {
					return fmt.Errorf("unknown category %q", raw)
				}
				req.Categories = append(req.Categories, category)
			}
			if req.MinScore <= 0 {
				req.MinScore = app.Config.MatchMinScore
			}

			if async {
				if app.Queue == nil {
					return errors.New("async batch requires NATS_URL")
				}
				job := domain.BatchJob{ID: uuid.NewString(), Request: req, RequestedAt: time.Now().UTC()}
				if err := app.Queue.PublishBatchJob(cmd.Context(), job); err != nil {
					return err
				}
				return printJSON(cmd, map[string]string{"job_id": job.ID, "status": "queued"})
			}

			stats, err := app.Batch.RunBatch(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
	cmd.Flags().IntVar(&minScore, "min-score", 0, "minimum score for a stored match (default MATCH_MIN_SCORE)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "restrict to categories (repeatable)")
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "skip resolved, returned and archived items")
	cmd.Flags().BoolVar(&async, "async", false, "enqueue the run for a worker instead of running it here")
	return cmd
}

type discoveryFlags struct {
	minScore int
	category string
	userID   string
	limit    int
}

func (f *discoveryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.minScore, "min-score", 0, "minimum overlap score (default POTENTIAL_MIN_SCORE)")
	cmd.Flags().StringVar(&f.category, "category", "", "restrict to one category")
	cmd.Flags().StringVar(&f.userID, "user", "", "only lost items reported by this user")
	cmd.Flags().IntVar(&f.limit, "limit", domain.DefaultDiscoveryLimit, "maximum lost items to consider")
}

func (f *discoveryFlags) request() (domain.DiscoveryRequest, error) {
	category := domain.Category(f.category)
	if category != "" && !category.Valid() {
		return domain.DiscoveryRequest{}, fmt.Errorf("unknown category %q", f.category)
	}
	minScore := f.minScore
	if minScore <= 0 {
		minScore = app.Config.PotentialMinScore
	}
	return domain.DiscoveryRequest{MinScore: minScore, Category: category, UserID: f.userID, Limit: f.limit}, nil
}

func newDiscoverCmd() *cobra.Command {
	var flags discoveryFlags
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List potential matches without storing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			report, err := app.Finder.DiscoverPotential(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		flags discoveryFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write potential matches to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			report, err := app.Finder.DiscoverPotential(cmd.Context(), req)
			if err != nil {
				return err
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := xlsx.WriteDiscoveryReport(file, report, time.Now()); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d potential matches to %s\n", len(report.Matches), out)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "potential-matches.xlsx", "output file")
	return cmd
}

func newReviewCmd() *cobra.Command {
	review := &cobra.Command{
		Use:   "review",
		Short: "Inspect and update stored matches",
	}

	var (
		status string
		limit  int
		skip   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored matches, best score first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := app.Reviewer.ListMatches(cmd.Context(), domain.MatchFilter{
				Status: domain.MatchStatus(status),
				Limit:  limit,
				Skip:   skip,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status")
	list.Flags().IntVar(&limit, "limit", 20, "page size")
	list.Flags().IntVar(&skip, "skip", 0, "rows to skip")

	setStatus := &cobra.Command{
		Use:   "set-status [status] [match-id...]",
		Short: "Set the review status of one or more matches",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := app.Reviewer.UpdateStatus(cmd.Context(), args[1:], domain.MatchStatus(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"updated": updated, "status": args[0]})
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show match counts by status and confidence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Reviewer.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}

	review.AddCommand(list, setStatus, stats)
	return review
}
