package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/specialistvlad/flowgridgo/internal/history"
	"github.com/specialistvlad/flowgridgo/internal/importer"
	"github.com/specialistvlad/flowgridgo/internal/version"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "run <flow>",
		Aliases: []string{"dispatch"},
		Short:   "Run a single flow to completion.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = a.RunFlow(cmd.Context(), args[0], history.TriggerManual)
			return err
		},
	}
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: scheduled flows fire and the control API accepts dispatches.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every loaded flow without executing anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Validate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Validated %d flow(s).\n", len(a.Model().Flows))
			return nil
		},
	}
}

func newFlowsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "flows",
		Short: "List loaded flows with their triggers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSCHEDULE\tMANUAL\tSTEPS\tNEXT RUN")
			for _, info := range a.FlowInfos() {
				schedule := info.Schedule
				if schedule == "" {
					schedule = "-"
				}
				next := "-"
				if len(info.NextRuns) > 0 {
					next = info.NextRuns[0].Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%v\t%d\t%s\n", info.Name, schedule, info.Manual, info.Steps, next)
			}
			return tw.Flush()
		},
	}
}

func newSecretsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Inspect the secrets a flow declares.",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <flow>",
		Short: "Verify every declared secret resolves, without printing values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			statuses, err := a.CheckSecrets(args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSTATUS\tSOURCE")
			missing := 0
			for _, s := range statuses {
				status, source := "ok", s.Source
				if !s.Found {
					status, source = "MISSING", "-"
					missing++
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, status, source)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if missing > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d of %d secrets missing", missing, len(statuses))}
			}
			return nil
		},
	})
	return cmd
}

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [flow]",
		Short: "Show recent runs from the history backend.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := v.GetString("history-dsn")
			if dsn == "" {
				return &ExitError{Code: 2, Message: "history requires --history-dsn"}
			}
			store, err := history.NewStoreFromDSN(dsn)
			if err != nil {
				return err
			}
			defer store.Close()

			flowName := ""
			if len(args) > 0 {
				flowName = args[0]
			}
			runs, err := store.RecentRuns(cmd.Context(), flowName, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tFLOW\tTRIGGER\tSTATUS\tSTARTED\tDURATION")
			for _, run := range runs {
				duration := "-"
				if !run.FinishedAt.IsZero() {
					duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					run.ID, run.FlowName, run.Trigger, run.Status,
					run.StartedAt.Format(time.RFC3339), duration)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show.")
	return cmd
}

func newImportCmd() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "import <workflow.yml>",
		Short: "Convert a workflow YAML file into flow definitions.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := importer.Import(src)
			if err != nil {
				return err
			}
			for _, warning := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}
			if outputPath == "" {
				_, err = cmd.OutOrStdout().Write(res.File.Bytes())
				return err
			}
			if err := os.WriteFile(outputPath, res.File.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d flow(s) into %s.\n", len(res.Flows), outputPath)
			if len(res.Secrets) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Secrets to provide: %v\n", res.Secrets)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write generated HCL to this file instead of stdout.")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowgrid %s\n", version.String())
		},
	}
}
