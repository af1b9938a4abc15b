package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
)

func newDiscoverCmd(opts *rootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the Discover.Response the bridge would send",
		Long: `Run endpoint discovery against openHAB and print the resulting
Alexa.Discovery Discover.Response as indented JSON. Useful for checking
item metadata without linking a skill.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			cfg, log, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			client, err := newOpenHABClient(cfg)
			if err != nil {
				return err
			}

			payload, err := json.Marshal(map[string]any{
				"scope": alexa.Scope{Type: "BearerToken", Token: token},
			})
			if err != nil {
				return fmt.Errorf("encoding payload: %w", err)
			}
			req := alexa.Request{Directive: alexa.Directive{
				Header: alexa.Header{
					Namespace:      alexa.NamespaceDiscovery,
					Name:           "Discover",
					PayloadVersion: alexa.PayloadVersion,
					MessageID:      uuid.NewString(),
				},
				Payload: payload,
			}}

			resp := newDispatcher(client, nil, nil, log).Handle(cmd.Context(), req)
			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "openHAB API token")
	return cmd
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
