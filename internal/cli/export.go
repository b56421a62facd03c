package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sakif/ledger/internal/export"
	"github.com/sakif/ledger/internal/model"
)

func (a *app) exportCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write ledger data as YAML or CSV",
	}
	cmd.PersistentFlags().StringVarP(&outPath, "out", "o", "-", `output file ("-" for stdout)`)

	var at int64
	var snapRef string
	view := &cobra.Command{
		Use:   "view",
		Short: "Dump the book, now, at --at or at --snapshot, as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				view *model.BookView
				snap *model.Snapshot
				err  error
			)
			if snapRef != "" {
				snap, err = a.liveSnapshot(cmd, snapRef)
				if err != nil {
					return err
				}
				sv, err := a.snapshots.ViewSnapshot(cmd.Context(), *snap)
				if err != nil {
					return err
				}
				view = &sv.View
			} else {
				view, err = a.bookView(cmd, at)
				if err != nil {
					return err
				}
			}
			return a.writeTo(outPath, func(w io.Writer) error { return export.WriteViewYAML(w, *view, snap) })
		},
	}
	view.Flags().Int64Var(&at, "at", 0, "tick to rebuild the book at")
	view.Flags().StringVar(&snapRef, "snapshot", "", "snapshot number or ID to rebuild the book at")
	view.MarkFlagsMutuallyExclusive("at", "snapshot")

	history := &cobra.Command{
		Use:   "history SECTION",
		Short: "Write every item version of a section as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, section, err := a.sectionScope(cmd, args[0])
			if err != nil {
				return err
			}
			versions, err := a.ledger.History(cmd.Context(), owner, section)
			if err != nil {
				return err
			}
			return a.writeTo(outPath, func(w io.Writer) error { return a.csv.WriteHistory(w, versions) })
		},
	}

	snapshots := &cobra.Command{
		Use:   "snapshots",
		Short: "Write the live snapshots as CSV",
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
			return a.writeTo(outPath, func(w io.Writer) error { return a.csv.WriteSnapshots(w, snaps) })
		},
	}

	trend := &cobra.Command{
		Use:   "trend",
		Short: "Write the net worth trend as CSV",
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
			return a.writeTo(outPath, func(w io.Writer) error { return a.csv.WriteTrend(w, points) })
		},
	}

	cmd.AddCommand(view, history, snapshots, trend)
	return cmd
}
