package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/vocabflash/internal/flashcard"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/streak"
)

// filterFlags binds the card filter shared by list and export.
func filterFlags(cmd *cobra.Command, f *models.FlashcardFilter) {
	cmd.Flags().StringVar(&f.CategoryID, "category", "", `category id, "all" or "uncategorized"`)
	cmd.Flags().StringVar(&f.Search, "search", "", "substring of word or meaning")
	cmd.Flags().StringVar((*string)(&f.Mastery), "mastery", "", "new, learning, mastered or needsReview")
	cmd.Flags().StringVar((*string)(&f.Sort), "sort", string(models.SortNewest), "sort order")
}

func checkFilter(f models.FlashcardFilter) error {
	if f.Mastery != "" && !f.Mastery.Valid() {
		return fmt.Errorf("unknown mastery %q", f.Mastery)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	var categoryID string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: `Add cards from a file of "word :: meaning" lines ("-" reads stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.store.BulkImport(ctx, string(text), categoryID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "added %d cards\n", len(res.Added))
				for _, w := range res.SkippedDuplicates {
					fmt.Fprintf(out, "skipped duplicate: %s\n", w)
				}
				if res.Malformed > 0 {
					fmt.Fprintf(out, "ignored %d malformed lines\n", res.Malformed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&categoryID, "category", "", "category id for the new cards")
	return cmd
}

func newExportCmd() *cobra.Command {
	var f models.FlashcardFilter
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print cards in the import format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFilter(f); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				_, err := io.WriteString(cmd.OutOrStdout(), a.store.Export(f))
				return err
			})
		},
	}
	filterFlags(cmd, &f)
	return cmd
}

func newListCmd() *cobra.Command {
	var f models.FlashcardFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards with their review statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFilter(f); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return printCards(cmd.OutOrStdout(), a.store.Filter(f))
			})
		},
	}
	filterFlags(cmd, &f)
	return cmd
}

func printCards(w io.Writer, cards []models.Flashcard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tMEANING\tREVIEWS\tRATE\tMASTERY")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f%%\t%s\n",
			c.Word, c.Meaning, c.ReviewCount, flashcard.SuccessRate(c)*100, flashcard.Classify(c))
	}
	return tw.Flush()
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show learning progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, err := services.NewProgressService(a.store, a.kv, nil).Overview(ctx)
				if err != nil {
					return err
				}
				return printProgress(cmd.OutOrStdout(), p)
			})
		},
	}
}

func printProgress(w io.Writer, p models.ProgressOverview) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Cards:\t%d (%d reviewed)\n", p.TotalCards, p.ReviewedCards)
	fmt.Fprintf(tw, "Reviews:\t%d (%d correct)\n", p.TotalReviews, p.TotalCorrect)
	fmt.Fprintf(tw, "Success rate:\t%.1f%%\n", p.SuccessRate)
	fmt.Fprintf(tw, "Level:\t%s\n", p.Level)
	for _, m := range []models.Mastery{models.MasteryNew, models.MasteryLearning, models.MasteryMastered, models.MasteryNeedsReview} {
		fmt.Fprintf(tw, "  %s:\t%d\n", m, p.Buckets[m])
	}
	fmt.Fprintf(tw, "Streak:\t%d (longest %d)\n", p.Streak, p.LongestStreak)
	fmt.Fprintf(tw, "Daily quizzes:\t%d (average %.1f)\n", p.QuizzesTaken, p.AverageQuizScore)
	return tw.Flush()
}

func newStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the daily quiz streak and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				state, err := services.LoadDailyState(ctx, a.kv)
				if err != nil {
					return err
				}
				o := streak.Overview(state, streak.Today(time.Now()))
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "status: %s, streak: %d, longest: %d, done today: %t\n",
					o.Status, o.State.Streak, o.State.LongestStreak, o.CompletedToday)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tTYPE\tSCORE\tCARDS")
				for _, h := range o.State.History {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", h.Date, h.QuizType, h.Score, h.TotalCards)
				}
				return tw.Flush()
			})
		},
	}
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup FILE",
		Short: "Write every stored document and saved paragraph to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				doc, err := writeBackup(ctx, a.kv, a.paragraphs, time.Now(), f)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d keys and %d paragraphs to %s\n", len(doc.Values), len(doc.Paragraphs), args[0])
				return nil
			})
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore FILE",
		Short: "Load a backup written by the backup command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(cmd, func(ctx context.Context, a *app) error {
				report, err := restoreBackup(ctx, a.kv, a.paragraphs, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d keys and %d paragraphs (%d skipped)\n",
					report.Keys, report.Paragraphs, report.SkippedParagraphs)
				return nil
			})
		},
	}
}
