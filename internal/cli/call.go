package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/fluent/internal/http"
	"github.com/wesleyorama2/fluent/pkg/fluent"
)

func newCallCmd() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "call URL [SEGMENT...]",
		Short: "Send a request built from a URL and path segments",
		Long: `Send a request to URL with each SEGMENT appended as a path segment,
ahead of any query string or fragment. A segment spelled _POST, _GET, _PUT,
_DELETE, _OPTIONS or _TRACE switches the method instead.

  fluent call https://api.example.com users 42 _DELETE`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readNoColor(cmd, &opts.requestOptions)
			client := newClient(cmd.Context(), opts)

			b, err := decorate(client.Builder(fluent.Record{URL: args[0]}), opts.requestOptions, args[1:])
			if err != nil {
				return err
			}
			return send(cmd.Context(), cmd.OutOrStdout(), b, opts)
		},
	}

	addSendFlags(cmd, &opts)
	return cmd
}

func newInspectCmd() *cobra.Command {
	var opts requestOptions

	cmd := &cobra.Command{
		Use:   "inspect URL [SEGMENT...]",
		Short: "Show the request a call would send, without sending it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readNoColor(cmd, &opts)
			b, err := decorate(fluent.New[*http.Response](nil, fluent.Record{URL: args[0]}), opts, args[1:])
			if err != nil {
				return err
			}
			return describe(cmd.OutOrStdout(), b, opts)
		},
	}

	addRequestFlags(cmd, &opts)
	return cmd
}
