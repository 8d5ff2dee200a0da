package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shiftplan/shiftplan/internal/config"
	"github.com/shiftplan/shiftplan/internal/ingest"
	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/solver"
	"github.com/shiftplan/shiftplan/pkg/stats"
	"github.com/shiftplan/shiftplan/pkg/validator"
)

type planOptions struct {
	input     string
	from      string
	to        string
	profile   string
	mode      string
	mechanism string
	dryRun    bool
	asJSON    bool
}

func planCmd(app *App) *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a plan from an input directory",
		Long:  "Read employees, existing shifts, open slots and absences from an input directory, fill the open slots and store snapshot and plan as artifacts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.generate(opts)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(app.out, plan)
			}
			printPlan(app.out, plan)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input directory (meta.json, employees.csv, open_slots.csv, ...)")
	cmd.Flags().StringVar(&opts.from, "from", "", "First date to plan (default: snapshot range)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last date to plan (default: snapshot range)")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Constraint profile (default: profile.json of the input, then PLANNER_DEFAULT_PROFILE)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Constraint mode: strict or loose (default: PLANNER_CONSTRAINT_MODE)")
	cmd.Flags().StringVar(&opts.mechanism, "mechanism", "", "Allocation mechanism (default: algo, or loose in loose mode)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Do not store snapshot and plan")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the plan as JSON")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// generate runs one planning mechanism over an input directory.
func (a *App) generate(opts *planOptions) (*model.Plan, error) {
	in, err := ingest.NewReader().LoadDir(opts.input)
	if err != nil {
		return nil, err
	}
	if err := ingest.ValidateSnapshot(in.Snapshot); err != nil {
		return nil, err
	}

	profile, err := a.planProfile(opts.profile, in)
	if err != nil {
		return nil, err
	}

	mode := model.ConstraintMode(opts.mode)
	if mode != "" && !mode.Valid() {
		return nil, apperrors.InvalidInput("mode", "must be strict or loose")
	}
	mechanism := opts.mechanism
	if mechanism == "" {
		if mode == "" {
			mode = a.cfg.Planner.ConstraintMode
		}
		mechanism = solver.MechanismFor(mode)
	}

	ctx, cancel := context.WithTimeout(a.ctx, a.cfg.Planner.Timeout)
	defer cancel()

	plan, err := a.registry.Run(ctx, mechanism, &solver.Request{
		Snapshot: in.Snapshot,
		Profile:  &profile.Profile,
		Range:    model.DateRange{From: opts.from, To: opts.to},
		Mode:     mode,
		Weights:  profile.Weights,
	})
	if err != nil {
		return nil, err
	}

	if !opts.dryRun {
		if _, err := a.store.SaveSnapshot(in.Snapshot); err != nil {
			return nil, err
		}
		if _, err := a.store.SavePlan(plan); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// planProfile prefers the named profile, then the input's profile.json,
// then the configured default. The input's directives are applied on top.
func (a *App) planProfile(name string, in *ingest.Input) (*config.Profile, error) {
	var (
		p   *config.Profile
		err error
	)
	switch {
	case name != "":
		p, err = a.profiles.Resolve(name)
	case in.Profile != nil:
		p = in.Profile
	default:
		p, err = a.profiles.Resolve(a.cfg.Planner.DefaultProfile)
	}
	if err != nil {
		return nil, err
	}
	return in.ResolveProfile(p), nil
}

func explainCmd(app *App) *cobra.Command {
	var planID, assignmentID string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain one assignment of a stored plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.store.LoadPlan(planID)
			if err != nil {
				return err
			}
			explanation, err := solver.ExplainAssignment(plan, assignmentID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(app.out, explanation)
			}
			printExplanation(app.out, explanation)
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "Plan id (default: latest plan)")
	cmd.Flags().StringVarP(&assignmentID, "assignment", "a", "", "Assignment id (<slot_id>::<employee_id>)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the explanation as JSON")
	_ = cmd.MarkFlagRequired("assignment")
	return cmd
}

func validateCmd(app *App) *cobra.Command {
	var planID, input, profileName string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Audit a stored plan against the obligatory constraints",
		Long:  "Check every assignment of a plan against absences, overlaps, rest, hour and salary caps. The snapshot is read from --input or from the artifact store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.store.LoadPlan(planID)
			if err != nil {
				return err
			}

			var (
				snapshot *model.Snapshot
				in       *ingest.Input
			)
			if input != "" {
				in, err = ingest.NewReader().LoadDir(input)
				if err != nil {
					return err
				}
				snapshot = in.Snapshot
			} else {
				snapshot, err = app.store.LoadSnapshot(plan.SnapshotID)
				if err != nil {
					return err
				}
			}

			if profileName == "" {
				profileName = plan.Profile
			}
			profile, err := app.profiles.Resolve(profileName)
			if err != nil {
				return err
			}
			if in != nil {
				profile = in.ResolveProfile(profile)
			}

			violations := validator.ValidateHardConstraints(plan, snapshot, &profile.Profile)
			printViolations(app.out, plan, violations)
			if len(violations) > 0 {
				return fmt.Errorf("plan %s has %d obligatory violations", plan.PlanID, len(violations))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "Plan id (default: latest plan)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input directory holding the snapshot (default: stored snapshot of the plan)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Constraint profile (default: the plan's profile)")
	return cmd
}

func compareCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "compare <plan_a> <plan_b>",
		Short: "Compare two stored plans",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.store.LoadPlan(args[0])
			if err != nil {
				return err
			}
			b, err := app.store.LoadPlan(args[1])
			if err != nil {
				return err
			}
			comparison := stats.ComparePlans(a, b)
			if asJSON {
				return writeJSON(app.out, comparison)
			}
			printComparison(app.out, comparison)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the comparison as JSON")
	return cmd
}

func plansCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List stored plans, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifests, err := app.store.ListPlans(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PLAN\tGENERATED\tSNAPSHOT\tPROFILE\tMECHANISM\tFILL")
			for _, m := range manifests {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f%%\n",
					m.PlanID, m.GeneratedAt.Format("2006-01-02 15:04"), m.SnapshotID, m.Profile, m.Mechanism, m.Counts.FillRate)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of plans")
	return cmd
}

func reportCmd(app *App) *cobra.Command {
	var planID string
	var weeklyHours float64
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print coverage, fairness and workload of a stored plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.store.LoadPlan(planID)
			if err != nil {
				return err
			}
			printReport(app.out, plan, weeklyHours)
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan id (default: latest plan)")
	cmd.Flags().Float64Var(&weeklyHours, "weekly-hours", stats.DefaultWeeklyHours, "Weekly reference hours for overtime")
	return cmd
}

func evaluateCmd(app *App) *cobra.Command {
	var planID string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Print scoring quality metrics of a stored plan",
		Long:  "Summarize score distributions per component, how often the applicant bonus decided a slot, and how stable role and skill scores are across an employee's assignments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.store.LoadPlan(planID)
			if err != nil {
				return err
			}
			eval := stats.EvaluatePlan(plan)
			if asJSON {
				return writeJSON(app.out, eval)
			}
			printEvaluation(app.out, eval)
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan id (default: latest plan)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the evaluation as JSON")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlan(w io.Writer, plan *model.Plan) {
	fmt.Fprintf(w, "\nPlan:       %s\n", plan.PlanID)
	fmt.Fprintf(w, "Snapshot:   %s\n", plan.SnapshotID)
	fmt.Fprintf(w, "Range:      %s .. %s\n", plan.Range.From, plan.Range.To)
	fmt.Fprintf(w, "Profile:    %s\n", plan.Profile)
	fmt.Fprintf(w, "Mechanism:  %s (%s)\n", plan.Mechanism, plan.ConstraintMode)
	fmt.Fprintf(w, "Filled:     %d/%d (%.1f%%)\n\n", plan.Metrics.AssignedSlots, plan.Metrics.TotalSlots, plan.Metrics.FillRate)

	if len(plan.Assignments) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tTIME\tSLOT\tEMPLOYEE\tSCORE\tKIND\tASSIGNMENT")
		for _, a := range plan.Assignments {
			fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%.1f\t%s\t%s\n",
				a.Date, a.Start, a.End, a.SlotID, a.EmployeeName, a.Score, a.AssignmentKind, a.AssignmentID)
		}
		_ = tw.Flush()
	}

	if len(plan.Unassigned) > 0 {
		fmt.Fprintf(w, "\nUnassigned (%d):\n", len(plan.Unassigned))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, u := range plan.Unassigned {
			fmt.Fprintf(tw, "  %s\t%s-%s\t%s\t%s\n", u.Date, u.Start, u.End, u.SlotID, u.Reason)
		}
		_ = tw.Flush()
	}

	if len(plan.SoftViolations) > 0 {
		fmt.Fprintf(w, "\nAccepted soft violations: %d\n", len(plan.SoftViolations))
	}
	if len(plan.HardViolations) > 0 {
		fmt.Fprintf(w, "\nObligatory violations: %d\n", len(plan.HardViolations))
	}
	fmt.Fprintln(w)
}

func printExplanation(w io.Writer, e *solver.Explanation) {
	fmt.Fprintf(w, "\nAssignment: %s\n", e.AssignmentID)
	fmt.Fprintf(w, "Employee:   %s (%s)\n", e.Employee, e.EmployeeID)
	fmt.Fprintf(w, "Slot:       %s %s-%s %s\n", e.Slot.Date, e.Slot.Start, e.Slot.End, e.Slot.ShiftType)
	fmt.Fprintf(w, "Kind:       %s\n", e.AssignmentKind)
	fmt.Fprintf(w, "Score:      %.2f\n\n", e.Score)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range e.ScoreDetail.Components() {
		fmt.Fprintf(tw, "  %s\t%.2f\n", c.Name, c.Value)
	}
	_ = tw.Flush()

	if len(e.Reasons) > 0 {
		reasons := make([]string, len(e.Reasons))
		for i, r := range e.Reasons {
			reasons[i] = string(r)
		}
		fmt.Fprintf(w, "\nReasons: %s\n", strings.Join(reasons, ", "))
	}
	if len(e.SoftViolations) > 0 {
		fmt.Fprintf(w, "Soft violations: %v\n", e.SoftViolations)
	}

	if len(e.Alternatives) > 0 {
		fmt.Fprintln(w, "\nAlternatives:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, alt := range e.Alternatives {
			status := "ok"
			if alt.Blocked {
				status = fmt.Sprintf("blocked %v", alt.BlockedReasons)
			}
			fmt.Fprintf(tw, "  %s\t%.2f\t%s\n", alt.EmployeeName, alt.Score, status)
		}
		_ = tw.Flush()
	}
	fmt.Fprintln(w)
}

func printViolations(w io.Writer, plan *model.Plan, violations []model.HardViolation) {
	if len(violations) == 0 {
		fmt.Fprintf(w, "Plan %s: %d assignments, no obligatory violations\n", plan.PlanID, len(plan.Assignments))
		return
	}
	fmt.Fprintf(w, "Plan %s: %d obligatory violations\n", plan.PlanID, len(violations))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, v := range violations {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", v.SlotID, v.EmployeeName, v.Violation, v.Detail)
	}
	_ = tw.Flush()
}

func printComparison(w io.Writer, c *stats.Comparison) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tA\tB\tDELTA")
	fmt.Fprintf(tw, "plan\t%s\t%s\t\n", c.PlanA.PlanID, c.PlanB.PlanID)
	fmt.Fprintf(tw, "mechanism\t%s\t%s\t\n", c.PlanA.Mechanism, c.PlanB.Mechanism)
	fmt.Fprintf(tw, "assigned\t%d\t%d\t%+d\n", c.PlanA.Assigned, c.PlanB.Assigned, c.Deltas.Assigned)
	fmt.Fprintf(tw, "fill rate\t%.1f\t%.1f\t%+.1f\n", c.PlanA.FillRate, c.PlanB.FillRate, c.Deltas.FillRate)
	fmt.Fprintf(tw, "mean score\t%.2f\t%.2f\t%+.2f\n", c.PlanA.MeanScore, c.PlanB.MeanScore, c.Deltas.MeanScore)
	fmt.Fprintf(tw, "gini\t%.4f\t%.4f\t%+.4f\n", c.PlanA.Gini, c.PlanB.Gini, c.Deltas.Gini)
	_ = tw.Flush()

	d := c.SlotDivergence
	fmt.Fprintf(w, "\nSlots: %d, same employee %d, different %d, only A %d, only B %d, both open %d, agreement %.1f%%\n",
		d.TotalSlots, d.SameEmployee, d.DifferentEmployee, d.AOnlyAssigned, d.BOnlyAssigned, d.BothUnassigned, d.AgreementRate)

	if len(d.TopDivergentSlots) > 0 {
		fmt.Fprintln(w, "\nLargest divergences:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, s := range d.TopDivergentSlots {
			fmt.Fprintf(tw, "  %s\t%s %s-%s\t%s\t%s\t%+.2f\n", s.SlotID, s.Date, s.Start, s.End, s.PlanAEmployee, s.PlanBEmployee, s.ScoreDelta)
		}
		_ = tw.Flush()
	}
}

func printReport(w io.Writer, plan *model.Plan, weeklyHours float64) {
	coverage := stats.NewCoverageAnalyzer()
	fmt.Fprintln(w, coverage.GenerateCoverageReport(coverage.Analyze(plan)))

	fairness := stats.NewFairnessAnalyzer().Analyze(plan)
	fmt.Fprintf(w, "=== Fairness ===\n\n  workload gini: %.4f\n  late gini:     %.4f\n  weekend gini:  %.4f\n  score:         %.1f\n\n",
		fairness.WorkloadGini, fairness.LateShiftGini, fairness.WeekendShiftGini, fairness.OverallFairnessScore)

	workload := stats.SummarizeWorkload(plan, weeklyHours)
	fmt.Fprintln(w, "=== Workload ===")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  EMPLOYEE\tHOURS\tSHIFTS\tOVERTIME\tUTILIZATION\tTARGET DELTA")
	overview := stats.FairnessOverview(plan.Assignments)
	deltas := make(map[string]string, len(overview))
	for _, row := range overview {
		if row.DeltaToTarget != nil {
			deltas[row.EmployeeID] = fmt.Sprintf("%+.2f", *row.DeltaToTarget)
		}
	}
	for _, e := range workload.ByEmployee {
		delta := deltas[e.EmployeeID]
		if delta == "" {
			delta = "-"
		}
		fmt.Fprintf(tw, "  %s\t%.2f\t%d\t%.2f\t%.1f%%\t%s\n", e.EmployeeName, e.TotalHours, e.ShiftCount, e.OvertimeHours, e.Utilization, delta)
	}
	_ = tw.Flush()
}

func printEvaluation(w io.Writer, eval *stats.PlanEvaluation) {
	fmt.Fprintf(w, "Plan:       %s (%s)\n", eval.PlanID, eval.Mechanism)
	fmt.Fprintf(w, "Filled:     %d/%d (%.1f%%)\n\n", eval.AssignedSlots, eval.TotalSlots, eval.FillRate)

	fmt.Fprintln(w, "=== Scores ===")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  COMPONENT\tMEAN\tMEDIAN\tSTD\tMIN\tMAX")
	printDistribution(tw, "total", eval.Scoring.Overall)
	for _, c := range (model.ScoreDetail{}).Components() {
		if d, ok := eval.Scoring.PerComponent[c.Name]; ok {
			printDistribution(tw, c.Name, d)
		}
	}
	_ = tw.Flush()

	a := eval.Applicant
	fmt.Fprintf(w, "\n=== Applicant bonus ===\n\n  decisive:   %d (%.1f%%)\n  with bonus: %d\n  avg share:  %.4f\n",
		a.DrivenCount, a.DrivenPct, a.WithApplicantBonus, a.AvgShare)

	c := eval.Consistency
	fmt.Fprintf(w, "\n=== Consistency ===\n\n  employees with several shifts: %d\n", c.EmployeesWithMultiple)
	for _, name := range []string{"role", "skill", "rest", "fairness"} {
		if v, ok := c.Stable[name]; ok {
			fmt.Fprintf(w, "  %-9s variance %.4f (stable)\n", name, v.MeanVariance)
		}
		if v, ok := c.Dynamic[name]; ok {
			fmt.Fprintf(w, "  %-9s variance %.4f (dynamic)\n", name, v.MeanVariance)
		}
	}
}

func printDistribution(w io.Writer, name string, d stats.Distribution) {
	fmt.Fprintf(w, "  %s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n", name, d.Mean, d.Median, d.Std, d.Min, d.Max)
}
