package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
)

func newDirectiveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "directive [file|-]",
		Short: "Dispatch one directive document and print the response",
		Long: `Read an Alexa directive document from a file (or stdin when the
argument is omitted or "-"), dispatch it against openHAB and print the
response event. AcceptGrant directives are stored in the configured
settings backend.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening directive: %w", err)
				}
				defer f.Close()
				in = f
			}

			req, err := readRequest(in)
			if err != nil {
				return err
			}

			cfg, log, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := openDatabase(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			backend, err := openSettings(ctx, cfg, db)
			if err != nil {
				return err
			}
			if backend.close != nil {
				defer backend.close() //nolint:errcheck // process is exiting
			}

			client, err := newOpenHABClient(cfg)
			if err != nil {
				return err
			}

			resp := newDispatcher(client, backend.store, nil, log).Handle(ctx, req)
			if resp == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "directive ignored: %s.%s\n",
					req.Directive.Header.Namespace, req.Directive.Header.Name)
				return nil
			}
			return printJSON(cmd, resp)
		},
	}
}

func readRequest(r io.Reader) (alexa.Request, error) {
	var req alexa.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decoding directive: %w", err)
	}
	if req.Directive.Header.Namespace == "" || req.Directive.Header.Name == "" {
		return req, fmt.Errorf("directive header requires namespace and name")
	}
	return req, nil
}
