package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start DATE BATCH ROLE",
		Short: "Record the start of a role operation",
		Example: `  pallyctl start 2024-01-17 A Procurement
  pallyctl start 2024-01-17 A "Inventory QC - IN"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			res, err := a.client().Start(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printOperation(cmd.OutOrStdout(), "Started", res)
			return nil
		},
	}
}

func (a *app) endCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end DATE BATCH ROLE",
		Short: "Record the end of a started role operation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			res, err := a.client().End(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printOperation(cmd.OutOrStdout(), "Completed", res)
			return nil
		},
	}
}

func (a *app) endDriverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "end-driver DATE BATCH",
		Short: "Complete the Driver role with delivery figures",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("orders") || !cmd.Flags().Changed("on-time") {
				return errors.New("--orders and --on-time are required")
			}
			orders, _ := cmd.Flags().GetInt("orders")
			onTime, _ := cmd.Flags().GetInt("on-time")

			res, err := a.client().EndDriver(cmd.Context(), args[0], args[1], orders, onTime)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printOperation(out, "Completed", res)
			if op := res.Operation; op.OnTimePercentage != nil && op.TotalOrders != nil && op.OnTimeDeliveries != nil {
				fmt.Fprintf(out, "  on time: %d/%d (%.2f%%)\n", *op.OnTimeDeliveries, *op.TotalOrders, *op.OnTimePercentage)
			}
			return nil
		},
	}
	cmd.Flags().Int("orders", 0, "total orders delivered")
	cmd.Flags().Int("on-time", 0, "orders delivered on time")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check DATE BATCH ROLE",
		Short: "Check whether the previous role has completed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			chk, err := a.client().CheckPrevious(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case chk.PreviousRole == nil:
				fmt.Fprintf(out, "%s %s is the first role\n", color.New(color.FgGreen).Sprint("OK"), chk.CurrentRole)
			case chk.ShowWarning && chk.WarningMessage != nil:
				fmt.Fprintf(out, "%s %s\n", color.New(color.FgYellow).Sprint("WARN"), *chk.WarningMessage)
			default:
				fmt.Fprintf(out, "%s %s completed\n", color.New(color.FgGreen).Sprint("OK"), *chk.PreviousRole)
			}
			return nil
		},
	}
}

func printOperation(out io.Writer, verb string, res *service.OperationResult) {
	op := res.Operation
	fmt.Fprintf(out, "%s %s %s batch %s on %s\n", color.New(color.FgGreen).Sprint("OK"), verb, op.Role, op.Batch, op.OperationDate)
	if op.StartTime != nil {
		fmt.Fprintf(out, "  started:  %s", op.StartTime.Format("15:04:05"))
		if op.StartedBy != nil {
			fmt.Fprintf(out, " by %s", *op.StartedBy)
		}
		fmt.Fprintln(out)
	}
	if op.EndTime != nil {
		fmt.Fprintf(out, "  ended:    %s", op.EndTime.Format("15:04:05"))
		if op.CompletedBy != nil {
			fmt.Fprintf(out, " by %s", *op.CompletedBy)
		}
		fmt.Fprintln(out)
	}
	if op.DurationMinutes != nil {
		fmt.Fprintf(out, "  duration: %d min\n", *op.DurationMinutes)
	}
	if res.Warning != nil {
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgYellow).Sprint("WARN"), *res.Warning)
	}
}
