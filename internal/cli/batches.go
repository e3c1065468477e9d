package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func colorize(c domain.BatchColor) string {
	switch c {
	case domain.BatchGreen:
		return color.New(color.FgGreen).Sprint(string(c))
	case domain.BatchYellow:
		return color.New(color.FgYellow).Sprint(string(c))
	default:
		return color.New(color.FgRed).Sprint(string(c))
	}
}

func statusLabel(s domain.OperationStatus) string {
	switch s {
	case domain.StatusCompleted:
		return color.New(color.FgGreen).Sprint(string(s))
	case domain.StatusInProgress:
		return color.New(color.FgYellow).Sprint(string(s))
	default:
		return string(s)
	}
}

func dateFlag(cmd *cobra.Command) string {
	date, _ := cmd.Flags().GetString("date")
	return date
}

func (a *app) batchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List the batches of a date with their traffic-light status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			list, err := a.client().Batches(cmd.Context(), dateFlag(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)", list.OperationDate, list.DayOfWeek)
			if list.IsReadOnly {
				fmt.Fprint(out, " read-only")
			}
			if list.IsRestrictedDay {
				fmt.Fprint(out, " restricted day")
			}
			fmt.Fprintln(out)

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "BATCH\tSTARTED\tCOMPLETED\tPROGRESS\tSTATUS")
			fmt.Fprintln(w, "-----\t-------\t---------\t--------\t------")
			for _, b := range list.Batches {
				fmt.Fprintf(w, "%s\t%d/%d\t%d/%d\t%.2f%%\t%s\n",
					b.Batch, b.StartedCount, b.TotalRoles, b.CompletedCount, b.TotalRoles,
					b.ProgressPercentage, colorize(b.Status))
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("date", "", "operation date YYYY-MM-DD (default today)")
	return cmd
}

func (a *app) rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles BATCH",
		Short: "Show every role of a batch in sequence order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			br, err := a.client().BatchRoles(cmd.Context(), dateFlag(cmd), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch %s on %s (%s): %s %.2f%%\n",
				br.Batch, br.OperationDate, br.DayOfWeek, colorize(br.Status), br.ProgressPercentage)

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "#\tROLE\tSTART\tEND\tMIN\tBY\tSTATUS")
			fmt.Fprintln(w, "-\t----\t-----\t---\t---\t--\t------")
			for _, rs := range br.Roles {
				start, end, mins, by := "-", "-", "-", "-"
				if rs.StartTime != nil {
					start = rs.StartTime.Format("15:04")
				}
				if rs.EndTime != nil {
					end = rs.EndTime.Format("15:04")
				}
				if rs.DurationMinutes != nil {
					mins = fmt.Sprint(*rs.DurationMinutes)
				}
				if rs.StartedBy != nil {
					by = *rs.StartedBy
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", rs.Order, rs.Role, start, end, mins, by, statusLabel(rs.Status))
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("date", "", "operation date YYYY-MM-DD (default today)")
	return cmd
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init DATE BATCH",
		Short: "Create placeholder records for every role of a batch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			res, err := a.client().InitializeBatch(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Batch %s on %s: %d of %d roles created\n",
				color.New(color.FgGreen).Sprint("OK"), res.Batch, res.OperationDate, res.Created, res.TotalRoles)
			return nil
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the daily roll-up across batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			s, err := a.client().DailySummary(cmd.Context(), dateFlag(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", s.OperationDate, s.DayOfWeek)
			fmt.Fprintf(out, "  batches:  %d/%d completed\n", s.CompletedBatches, s.TotalBatches)
			fmt.Fprintf(out, "  roles:    %d/%d completed (%.2f%%)\n", s.CompletedRoles, s.TotalRoles, s.OverallProgress)
			if s.TotalOrdersDelivered != nil && s.TotalOnTimeDeliveries != nil && s.OverallOnTimePercentage != nil {
				fmt.Fprintf(out, "  delivery: %d/%d on time (%.2f%%)\n",
					*s.TotalOnTimeDeliveries, *s.TotalOrdersDelivered, *s.OverallOnTimePercentage)
			} else {
				fmt.Fprintln(out, "  delivery: no orders reported")
			}

			labels := make([]string, 0, len(s.Batches))
			for _, b := range s.Batches {
				labels = append(labels, b.Batch+" "+colorize(b.Status))
			}
			fmt.Fprintf(out, "  status:   %s\n", strings.Join(labels, "  "))
			return nil
		},
	}
	cmd.Flags().String("date", "", "operation date YYYY-MM-DD (default today)")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the daily summary spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("out")
			date := dateFlag(cmd)
			if path == "" {
				name := date
				if name == "" {
					name = "today"
				}
				path = "pallyops-" + name + ".xlsx"
			}

			data, err := a.client().ExportDailySummary(cmd.Context(), date)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s (%d bytes)\n", color.New(color.FgGreen).Sprint("OK"), path, len(data))
			return nil
		},
	}
	cmd.Flags().String("date", "", "operation date YYYY-MM-DD (default today)")
	cmd.Flags().StringP("out", "o", "", "output file (default pallyops-<date>.xlsx)")
	return cmd
}
