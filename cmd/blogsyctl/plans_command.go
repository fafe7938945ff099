// AngelaMos | 2026
// plans_command.go

package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/blogsy/internal/plan"
	"github.com/carterperez-dev/blogsy/internal/post"
	"github.com/carterperez-dev/blogsy/internal/user"
)

func newPlansCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Show the plan catalog with configured price ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPlans(plan.NewCatalog(cfg.Plans).All()))
			return nil
		},
	}
}

func renderPlans(plans []plan.Plan) string {
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []string{
			string(p.ID),
			priceLabel(p),
			limitLabel(p.MaxPosts) + " / " + string(p.PostWindow),
			limitLabel(p.MaxURLImports) + " / month",
			valueOrDash(p.PriceID),
		})
	}
	return renderTable(
		[]string{"Plan", "Price", "Posts", "URL imports", "Price ID"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func newUsageCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "usage <identity-id>",
		Short: "Show a user's plan and quota usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			catalog := plan.NewCatalog(cfg.Plans)
			quota := plan.NewChecker(post.NewRepository(db.DB))
			users := user.NewService(user.NewRepository(db.DB), catalog, quota, slog.Default())

			p, err := users.PlanFor(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}
			usage, err := quota.Usage(cmd.Context(), args[0], p, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Plan", "Posts", "URL imports"},
				[][]string{{
					string(usage.Plan.ID),
					strconv.Itoa(usage.PostsUsed) + " of " + limitLabel(usage.PostsLimit),
					strconv.Itoa(usage.URLImportUsed) + " of " + limitLabel(usage.URLImportCap),
				}},
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email used to match a checkout-created row")
	return cmd
}

func limitLabel(n int) string {
	if n == plan.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

func priceLabel(p plan.Plan) string {
	if !p.IsPaid() {
		return "free"
	}
	return "$" + p.Price + "/mo"
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
