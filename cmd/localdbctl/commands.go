// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/localdb/internal/api"
	"github.com/tomtom215/localdb/internal/eventlog"
)

const defaultServerURL = "http://localhost:3870"

// rootOptions are the persistent flags.
type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client {
	return newClient(o.server, o.timeout)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	server := os.Getenv("LOCALDB_URL")
	if server == "" {
		server = defaultServerURL
	}

	root := &cobra.Command{
		Use:           "localdbctl",
		Short:         "Inspect and operate a LocalDB server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "LocalDB base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	root.AddCommand(
		newStatsCommand(opts),
		newEventsCommand(opts),
		newMessagesCommand(opts),
		newQueuesCommand(opts),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newStatsCommand constructs `stats`.
func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show event log, outbox and store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var stats api.StatsResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/stats", nil, nil, &stats); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

// newEventsCommand constructs the `events` group.
func newEventsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "events", Short: "Event log operations"}
	cmd.AddCommand(newEventsSearchCommand(opts), newEventsExportCommand(opts), newEventsWriteCommand(opts))
	return cmd
}

func newEventsSearchCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			q := url.Values{}
			for _, name := range []string{"min-level", "actor", "text", "max-query-time"} {
				if v, _ := f.GetString(name); v != "" {
					q.Set(strings.ReplaceAll(name, "-", "_"), v)
				}
			}
			if n, _ := f.GetInt("max-count"); n > 0 {
				q.Set("max_count", strconv.Itoa(n))
			}
			for _, name := range []string{"category", "exclude"} {
				if vs, _ := f.GetStringSlice(name); len(vs) > 0 {
					q.Set(name, strings.Join(vs, ","))
				}
			}

			var res eventlog.SearchResults
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/events", q, nil, &res); err != nil {
				return err
			}
			if asJSON, _ := f.GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printEvents(cmd.OutOrStdout(), &res)
		},
	}
	f := cmd.Flags()
	f.String("min-level", "", "Minimum level: trace|debug|info|warn|error|fatal")
	f.Int("max-count", 0, "Maximum events to return (server default when 0)")
	f.String("actor", "", "Actor, exact or regular expression")
	f.String("text", "", "Case-insensitive text in message or topic")
	f.StringSlice("category", nil, "Only these categories")
	f.StringSlice("exclude", nil, "Skip these categories")
	f.String("max-query-time", "", "Search time budget, e.g. 2s")
	f.Bool("json", false, "Print raw JSON")
	return cmd
}

func printEvents(w io.Writer, res *eventlog.SearchResults) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLEVEL\tTOPIC\tACTOR\tMESSAGE")
	for _, e := range res.Events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Level, e.Topic, e.Actor, e.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if res.TimeExceeded {
		fmt.Fprintln(w, "(search stopped at its time limit; results may be incomplete)")
	}
	return nil
}

func newEventsExportCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every stored event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			if _, err := eventlog.ParseFormat(format); err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			n, err := opts.client().download(cmd.Context(), "/api/v1/events/export", url.Values{"format": {format}}, w)
			if err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", n, output)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "jsonl", "Export format: jsonl|csv|parquet")
	cmd.Flags().StringP("output", "o", "", "Output file (stdout when empty)")
	return cmd
}

func newEventsWriteCommand(opts *rootOptions) *cobra.Command {
	req := api.WriteEventRequest{}
	cmd := &cobra.Command{
		Use:   "write MESSAGE",
		Short: "Queue one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Message = args[0]
			var out map[string]interface{}
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/events", nil, req, &out); err != nil {
				return err
			}
			if accepted, _ := out["accepted"].(bool); !accepted {
				return errors.New("event ignored by the server: below its minimum level")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "accepted")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Level, "level", "info", "Event level")
	f.StringVar(&req.Topic, "topic", "cli", "Event topic")
	f.StringVar(&req.Category, "category", "", "Event category")
	f.StringVar(&req.Actor, "actor", "", "Event actor")
	return cmd
}

// newMessagesCommand constructs the `messages` group.
func newMessagesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "messages", Short: "Outbox operations"}

	req := api.MessageRequest{}
	send := &cobra.Command{
		Use:   "send",
		Short: "Enqueue an SMS or e-mail for delivery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				ID   string `json:"id"`
				Kind string `json:"kind"`
			}
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/messages", nil, req, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s message %s\n", out.Kind, out.ID)
			return nil
		},
	}
	f := send.Flags()
	f.StringVar(&req.Kind, "kind", "sms", "Message kind: sms|email")
	f.StringVar(&req.To, "to", "", "Recipient: E.164 number or e-mail address")
	f.StringVar(&req.Subject, "subject", "", "Subject (e-mail)")
	f.StringVar(&req.Body, "body", "", "Message body")
	_ = send.MarkFlagRequired("to")
	_ = send.MarkFlagRequired("body")

	cmd.AddCommand(send)
	return cmd
}

// newQueuesCommand constructs the `queues` group.
func newQueuesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "queues", Short: "Queue operations"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List open queues and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var infos []api.QueueInfo
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/queues", nil, nil, &infos); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tSIZE\tHEAD\tTAIL")
			for _, qi := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", qi.Category, qi.Size, qi.Head, qi.Tail)
			}
			return tw.Flush()
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear CATEGORY",
		Short: "Remove every entry from a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("refusing to clear %s without --yes", args[0])
			}
			var out struct {
				Category string `json:"category"`
				Removed  int    `json:"removed"`
			}
			path := "/api/v1/queues/" + url.PathEscape(args[0])
			if err := opts.client().do(cmd.Context(), http.MethodDelete, path, nil, nil, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s: %d removed\n", out.Category, out.Removed)
			return nil
		},
	}
	clearCmd.Flags().Bool("yes", false, "Confirm the destructive operation")

	cmd.AddCommand(list, clearCmd)
	return cmd
}
