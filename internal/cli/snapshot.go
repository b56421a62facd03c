package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
)

func (a *app) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Record, list and restore snapshots of a book",
		Long: `Snapshots mark a point in a book's history together with the net worth
at that point. SNAPSHOT arguments are either the number shown by
"snapshot list" (or "snapshot deleted" for restore) or the snapshot ID.`,
	}

	var comment, netWorth string
	create := &cobra.Command{
		Use:   "create",
		Short: "Record the book's current net worth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.bookScope(cmd)
			if err != nil {
				return err
			}
			var snap *model.Snapshot
			if cmd.Flags().Changed("net-worth") {
				v, err := strconv.ParseFloat(netWorth, 64)
				if err != nil {
					return apperror.ValidationFailed("net-worth", fmt.Sprintf("%q is not a number", netWorth))
				}
				snap, err = a.snapshots.CreateSnapshot(cmd.Context(), owner, a.book(), v, comment)
				if err != nil {
					return err
				}
			} else {
				snap, err = a.snapshots.CaptureSnapshot(cmd.Context(), owner, a.book(), comment)
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "snapshot %s at tick %d: %s\n", snap.ID, snap.Tick, a.render.Format(snap.NetWorth))
			return nil
		},
	}
	create.Flags().StringVarP(&comment, "comment", "m", "", "note stored with the snapshot")
	create.Flags().StringVar(&netWorth, "net-worth", "", "record this net worth instead of the computed one")

	list := &cobra.Command{
		Use:   "list",
		Short: "List live snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.bookScope(cmd)
			if err != nil {
				return err
			}
			snaps, err := a.snapshots.ListSnapshots(cmd.Context(), owner, a.book())
			if err != nil {
				return err
			}
			return a.print(a.render.Snapshots("Snapshots", snaps))
		},
	}

	deleted := &cobra.Command{
		Use:   "deleted",
		Short: "List deleted snapshots that can be restored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.bookScope(cmd)
			if err != nil {
				return err
			}
			snaps, err := a.snapshots.ListDeletedSnapshots(cmd.Context(), owner, a.book())
			if err != nil {
				return err
			}
			return a.print(a.render.Snapshots("Deleted snapshots", snaps))
		},
	}

	view := &cobra.Command{
		Use:   "view SNAPSHOT",
		Short: "Rebuild the book as it was at a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.liveSnapshot(cmd, args[0])
			if err != nil {
				return err
			}
			sv, err := a.snapshots.ViewSnapshot(cmd.Context(), *snap)
			if err != nil {
				return err
			}
			return a.print(a.render.SnapshotView(*sv))
		},
	}

	del := &cobra.Command{
		Use:   "delete SNAPSHOT",
		Short: "Delete a snapshot; it can be restored later",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.liveSnapshot(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.snapshots.DeleteSnapshot(cmd.Context(), *snap); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted snapshot %s (%s)\n", snap.ID, snap.DateLabel)
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore SNAPSHOT",
		Short: "Bring a deleted snapshot back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.bookScope(cmd)
			if err != nil {
				return err
			}
			snaps, err := a.snapshots.ListDeletedSnapshots(cmd.Context(), owner, a.book())
			if err != nil {
				return err
			}
			target, err := pickSnapshot(snaps, args[0])
			if err != nil {
				return err
			}
			restored, err := a.snapshots.RestoreSnapshot(cmd.Context(), owner, a.book(), target.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "restored snapshot %s as %s\n", target.ID, restored.ID)
			return nil
		},
	}

	trend := &cobra.Command{
		Use:   "trend",
		Short: "Show net worth across snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.bookScope(cmd)
			if err != nil {
				return err
			}
			points, err := a.snapshots.Trend(cmd.Context(), owner, a.book())
			if err != nil {
				return err
			}
			return a.print(a.render.Trend(points))
		},
	}

	cmd.AddCommand(create, list, deleted, view, del, restore, trend)
	return cmd
}

func (a *app) compareCommand() *cobra.Command {
	var selection, csvPath, netPath string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare up to five snapshots side by side",
		Long: `Compare lays out up to five snapshots as columns, one row per item.
--select takes the numbers shown by "snapshot list", e.g. --select "1 3 5".
Numbers that are invalid, repeated or past the fifth are skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.bookScope(cmd)
			if err != nil {
				return err
			}
			snaps, err := a.snapshots.ListSnapshots(cmd.Context(), owner, a.book())
			if err != nil {
				return err
			}
			cmp, sel, err := a.comparator.CompareSelection(cmd.Context(), owner, a.book(), snaps, selection)
			for _, w := range sel.Warnings {
				fmt.Fprintf(a.errOut, "warning: %s\n", w)
			}
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := a.writeTo(csvPath, func(w io.Writer) error { return a.csv.WriteComparison(w, cmp) }); err != nil {
					return err
				}
			}
			if netPath != "" {
				if err := a.writeTo(netPath, func(w io.Writer) error { return a.csv.WriteNet(w, cmp) }); err != nil {
					return err
				}
			}
			if csvPath == "-" || netPath == "-" {
				return nil
			}
			return a.print(a.render.Comparison(cmp))
		},
	}
	cmd.Flags().StringVarP(&selection, "select", "s", "", `snapshot numbers, e.g. "1 3 5"`)
	cmd.Flags().StringVar(&csvPath, "csv", "", `also write the comparison as CSV to this file ("-" for stdout only)`)
	cmd.Flags().StringVar(&netPath, "net-csv", "", "also write the per-snapshot totals as CSV to this file")
	_ = cmd.MarkFlagRequired("select")
	return cmd
}

// bookScope resolves the owner and opens the database for a book command.
func (a *app) bookScope(cmd *cobra.Command) (string, error) {
	owner, err := a.owner()
	if err != nil {
		return "", err
	}
	if err := a.open(cmd.Context()); err != nil {
		return "", err
	}
	return owner, nil
}

func (a *app) liveSnapshot(cmd *cobra.Command, ref string) (*model.Snapshot, error) {
	owner, err := a.bookScope(cmd)
	if err != nil {
		return nil, err
	}
	snaps, err := a.snapshots.ListSnapshots(cmd.Context(), owner, a.book())
	if err != nil {
		return nil, err
	}
	return pickSnapshot(snaps, ref)
}

// pickSnapshot resolves ref as a 1-based position in snaps, then as an ID.
func pickSnapshot(snaps []model.Snapshot, ref string) (*model.Snapshot, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(snaps) {
			return nil, apperror.ValidationFailed("snapshot", fmt.Sprintf("choose a snapshot between 1 and %d", len(snaps)))
		}
		return &snaps[n-1], nil
	}
	for i := range snaps {
		if snaps[i].ID == ref {
			return &snaps[i], nil
		}
	}
	return nil, apperror.NotFound("snapshot", ref)
}
