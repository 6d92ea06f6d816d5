package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/waymark/internal/chart"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

type listFlags struct {
	routes bool
}

func newListCmd(flags *globalFlags) *cobra.Command {
	lf := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored waypoints and routes",
		Long: `List the waypoints in the configured store, oldest first.

Examples:
  waymark list --store-backend yaml --store-path ~/charts/navobj.yaml
  waymark list --routes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			session, st, err := openSession(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if err := printWaypoints(out, session.Waypoints()); err != nil {
				return err
			}
			if lf.routes {
				fmt.Fprintln(out)
				return printRoutes(out, session.Routes())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lf.routes, "routes", false, "Also list routes")
	return cmd
}

func printWaypoints(w io.Writer, wps []waypoint.Waypoint) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GUID\tNAME\tPOSITION\tCREATED")
	for _, wp := range wps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", wp.GUID, wp.Name, wp.Position, wp.Created.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printRoutes(w io.Writer, routes []chart.RouteInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GUID\tNAME\tPOINTS\tLENGTH")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f nm\n", r.GUID, r.Name, len(r.Points), r.Length)
	}
	return tw.Flush()
}
