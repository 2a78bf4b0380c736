package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fluent/internal/config"
)

func newEndpointCmd() *cobra.Command {
	var (
		opts        sendOptions
		configFile  string
		environment string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "endpoint NAME [SEGMENT...]",
		Short: "Send a request described by a named endpoint in a configuration file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readNoColor(cmd, &opts.requestOptions)

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			rec, err := cfg.Record(args[0], environment)
			if err != nil {
				return err
			}
			loggerFrom(cmd.Context()).WithField("endpoint", args[0]).WithField("environment", environment).Debug("resolved endpoint")

			client := newClient(cmd.Context(), opts)
			b, err := decorate(client.Builder(rec), opts.requestOptions, args[1:])
			if err != nil {
				return err
			}
			if dryRun {
				return describe(cmd.OutOrStdout(), b, opts.requestOptions)
			}
			return send(cmd.Context(), cmd.OutOrStdout(), b, opts)
		},
	}

	addSendFlags(cmd, &opts)
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Endpoint configuration file (YAML or JSON)")
	cmd.Flags().StringVarP(&environment, "environment", "e", "", "Environment whose variables and base URL apply")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved request instead of sending it")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newEndpointsCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List the endpoints and environments in a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tURL\tDESCRIPTION")
			for _, name := range cfg.Names() {
				ep := cfg.Endpoints[name]
				method := ep.Method
				if method == "" {
					method = "GET"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, method, ep.URL, ep.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(cfg.Environments) > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "Environments:")
				for _, name := range sortedEnvironments(cfg) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", name, cfg.Environments[name].BaseURL)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Endpoint configuration file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func sortedEnvironments(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Environments))
	for name := range cfg.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
