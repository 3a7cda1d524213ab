package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aisurvey/internal/app"
	"aisurvey/internal/config"
	"aisurvey/internal/logger"
	"aisurvey/internal/repository"
	"aisurvey/internal/survey"
)

const exportTimeout = 2 * time.Minute

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "surveyctl",
		Short:         "Researcher tooling for the travel decision survey",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")

	root.AddCommand(
		newExportCmd(&configPath),
		newScheduleCmd(),
		newColumnsCmd(),
	)
	return root
}

func newExportCmd(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored response as CSV",
		Long: `Read all stored responses from the configured storage driver and
write them as one CSV table under the widened header.

Examples:
  surveyctl export -o responses.csv
  SURVEY_STORAGE_DRIVER=mongo surveyctl export > responses.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			toFile := output != "" && output != "-"
			if toFile {
				// console logging would interleave with CSV on stdout
				logger.InitLogger(cfg)
				defer logger.Sync()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), exportTimeout)
			defer cancel()

			store, client, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			if client != nil {
				defer client.Disconnect(context.Background())
			}

			var w io.Writer = cmd.OutOrStdout()
			if toFile {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			n, err := exportResponses(ctx, store, w)
			if err != nil {
				return err
			}
			logger.Log.Info("responses exported", zap.Int("rows", n), zap.String("output", output))
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d responses\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func exportResponses(ctx context.Context, store repository.ResponseStore, w io.Writer) (int, error) {
	t, err := store.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read responses: %w", err)
	}
	if err := repository.WriteCSV(w, t); err != nil {
		return 0, err
	}
	return len(t.Rows), nil
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Print the page schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSchedule(cmd.OutOrStdout(), survey.Study())
		},
	}
}

func printSchedule(w io.Writer, s *survey.Schedule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tKEY\tQUESTIONS\tREQUIRED\tPREV\tNEXT")
	for _, p := range s.Pages() {
		keys := make([]string, 0, len(p.Questions))
		for _, q := range p.Questions {
			keys = append(keys, q.Key)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.Index, p.Key,
			dashIfEmpty(strings.Join(keys, ",")),
			dashIfEmpty(strings.Join(p.Required, ",")),
			pageRef(p.Prev), pageRef(p.Next))
	}
	return tw.Flush()
}

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Print the stable export columns, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, col := range survey.Columns(survey.Study()) {
				fmt.Fprintln(cmd.OutOrStdout(), col)
			}
			return nil
		},
	}
}

func pageRef(i int) string {
	if i == survey.NoPage {
		return "-"
	}
	return fmt.Sprint(i)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
