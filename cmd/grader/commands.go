package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zoobzio/grader"
)

type vehicleFlags struct {
	year  string
	make  string
	model string
}

func (f *vehicleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.year, "year", "", "Model year")
	cmd.Flags().StringVar(&f.make, "make", "", "Manufacturer")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name")
}

func (f *vehicleFlags) vehicle() (grader.Vehicle, error) {
	return grader.NewVehicle(f.year, f.make, f.model)
}

func (f *vehicleFlags) set() bool {
	return f.year != "" || f.make != "" || f.model != ""
}

// validArgs reports positional argument mistakes as validation failures.
func validArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return exitError(exitValidation, "%v", err)
		}
		return nil
	}
}

// items is the envelope for supplemental lists.
type items[T any] struct {
	Items []T `json:"items"`
}

func newYearsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List model years present in the catalog",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			years, err := c.Years(ctx)
			if err != nil {
				return err
			}
			return a.print(years)
		},
	}
}

func newMakesCmd(a *app) *cobra.Command {
	var year string
	cmd := &cobra.Command{
		Use:   "makes",
		Short: "List makes for a model year",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			y, err := grader.ParseYear(year)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			makes, err := c.Makes(ctx, y)
			if err != nil {
				return err
			}
			return a.print(makes)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "Model year")
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	var year, mk string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models for a model year and make",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			y, err := grader.ParseYear(year)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			models, err := c.Models(ctx, y, mk)
			if err != nil {
				return err
			}
			return a.print(models)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "Model year")
	cmd.Flags().StringVar(&mk, "make", "", "Manufacturer")
	return cmd
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report whether the vehicle table is present and graded",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			h, err := c.Health(ctx)
			if err != nil {
				return err
			}
			if err := a.print(h); err != nil {
				return err
			}
			if !h.OK {
				return exitError(exitFailure, "table %s not found", h.Table)
			}
			return nil
		},
	}
}

// newVehicleCmd builds a command that looks up a single vehicle.
func newVehicleCmd(a *app, use, short string, lookup func(context.Context, *grader.Catalog, grader.Vehicle) (any, error)) *cobra.Command {
	f := &vehicleFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := f.vehicle()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			out, err := lookup(ctx, c, v)
			if err != nil {
				return err
			}
			return a.print(out)
		},
	}
	f.register(cmd)
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	return newVehicleCmd(a, "resolve", "Print the canonical group id for a vehicle",
		func(ctx context.Context, c *grader.Catalog, v grader.Vehicle) (any, error) {
			g, err := c.ResolveGroup(ctx, v)
			if err != nil {
				return nil, err
			}
			return map[string]string{"group_id": g}, nil
		})
}

func newScoreCmd(a *app) *cobra.Command {
	return newVehicleCmd(a, "score", "Print the grade and certainty for a vehicle",
		func(ctx context.Context, c *grader.Catalog, v grader.Vehicle) (any, error) {
			return c.Score(ctx, v)
		})
}

func newDetailsCmd(a *app) *cobra.Command {
	return newVehicleCmd(a, "details", "Print the grade, complaint count and failure factor for a vehicle",
		func(ctx context.Context, c *grader.Catalog, v grader.Vehicle) (any, error) {
			return c.Details(ctx, v)
		})
}

type filterFlags struct {
	minYear  string
	maxYear  string
	makes    []string
	models   []string
	minScore float64
	maxScore float64
	limit    int
}

func newFilterCmd(a *app) *cobra.Command {
	f := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Search vehicles by year range, make, model and score",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			years, err := grader.ParseYearRange(f.minYear, f.maxYear)
			if err != nil {
				return err
			}
			q := grader.FilterQuery{
				Years:  years,
				Makes:  f.makes,
				Models: f.models,
				Limit:  f.limit,
			}
			if cmd.Flags().Changed("min-score") {
				q.MinScore = &f.minScore
			}
			if cmd.Flags().Changed("max-score") {
				q.MaxScore = &f.maxScore
			}

			ctx := cmd.Context()
			c, err := a.catalog(ctx)
			if err != nil {
				return err
			}
			result, err := c.Filter(ctx, q)
			if err != nil {
				return err
			}
			return a.print(result)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.minYear, "min-year", "", "Lowest model year")
	flags.StringVar(&f.maxYear, "max-year", "", "Highest model year")
	flags.StringArrayVar(&f.makes, "make", nil, "Manufacturer (may be repeated)")
	flags.StringArrayVar(&f.models, "model", nil, "Model name (may be repeated)")
	flags.Float64Var(&f.minScore, "min-score", 0, "Lowest score")
	flags.Float64Var(&f.maxScore, "max-score", 0, "Highest score")
	flags.IntVar(&f.limit, "limit", 0, "Maximum rows (1-100, default 100)")
	return cmd
}

// newGroupCmd builds a command that reads supplemental data for one group,
// named directly or resolved from a vehicle.
func newGroupCmd(a *app, use, short string, fetch func(context.Context, *grader.Supplements, string) (any, error)) *cobra.Command {
	f := &vehicleFlags{}
	cmd := &cobra.Command{
		Use:   use + " [group-id]",
		Short: short,
		Args:  validArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groupID, err := a.groupID(ctx, args, f)
			if err != nil {
				return err
			}
			s, err := a.supplements(ctx)
			if err != nil {
				return err
			}
			out, err := fetch(ctx, s, groupID)
			if err != nil {
				return err
			}
			return a.print(out)
		},
	}
	f.register(cmd)
	return cmd
}

// groupID takes the group from args or resolves it from the vehicle flags.
func (a *app) groupID(ctx context.Context, args []string, f *vehicleFlags) (string, error) {
	switch {
	case len(args) == 1 && f.set():
		return "", exitError(exitValidation, "give a group id or --year/--make/--model, not both")
	case len(args) == 1:
		return args[0], nil
	case !f.set():
		return "", exitError(exitValidation, "a group id or --year/--make/--model is required")
	}
	v, err := f.vehicle()
	if err != nil {
		return "", err
	}
	c, err := a.catalog(ctx)
	if err != nil {
		return "", err
	}
	return c.ResolveGroup(ctx, v)
}

func newTopCmd(a *app) *cobra.Command {
	return newGroupCmd(a, "top", "List the most complained-about components with summaries",
		func(ctx context.Context, s *grader.Supplements, g string) (any, error) {
			list, err := s.TopComplaints(ctx, g)
			return items[grader.TopComplaintItem]{Items: list}, err
		})
}

func newTrimsCmd(a *app) *cobra.Command {
	return newGroupCmd(a, "trims", "List complaint counts per trim",
		func(ctx context.Context, s *grader.Supplements, g string) (any, error) {
			list, err := s.Trims(ctx, g)
			return items[grader.TrimItem]{Items: list}, err
		})
}

func newHistoryCmd(a *app) *cobra.Command {
	return newGroupCmd(a, "history", "List actual and expected complaints by year",
		func(ctx context.Context, s *grader.Supplements, g string) (any, error) {
			list, err := s.History(ctx, g)
			return items[grader.HistoryPoint]{Items: list}, err
		})
}

func newFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files <group-id>",
		Short: "List the stored files for a group",
		Args:  validArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.supplements(ctx)
			if err != nil {
				return err
			}
			infos, err := s.Files(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(items[grader.ObjectInfo]{Items: infos})
		},
	}
}
