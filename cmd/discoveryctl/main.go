package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shamank/discovery-sdk-go/pkg/auth"
	"github.com/shamank/discovery-sdk-go/pkg/client"
	"github.com/shamank/discovery-sdk-go/pkg/config"
	"github.com/shamank/discovery-sdk-go/pkg/request"
	"github.com/shamank/discovery-sdk-go/pkg/sdk"
	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

const envPrefix = "DISCOVERYCTL"

var (
	cfgFile      string
	discoveryURL string
	debug        bool

	core *sdk.Core
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "discoveryctl",
	Short: "Inspect and call APIs described by discovery documents",
	Long: `discoveryctl loads API discovery documents, shows the helper namespace
built from them, and executes requests.

Settings come from --config (YAML, JSON or TOML) and DISCOVERYCTL_*
environment variables, e.g. DISCOVERYCTL_API_KEY or DISCOVERYCTL_RATE_LIMIT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		v := config.NewViper(cfgFile, envPrefix)
		if discoveryURL != "" {
			v.Set("discovery_url", discoveryURL)
		}
		if debug {
			v.Set("debug", true)
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		core, err = sdk.New(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if core != nil {
			core.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().StringVar(&discoveryURL, "discovery-url", "", "discovery service base URL (default "+config.DefaultDiscoveryURL+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(directoryCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadClient builds a client from --file when given, otherwise from the
// discovery service.
func loadClient(ctx context.Context, file string, args []string) (*client.Client, error) {
	if file != "" {
		return core.NewClientFromFile(file)
	}
	if len(args) < 2 {
		return nil, errors.New("api and version are required without --file")
	}
	return core.NewClient(ctx, args[0], args[1])
}

// ── list ─────────────────────────────────────────────────────────────────────

var (
	listFile   string
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list [api version]",
	Short: "Print the helper paths of an API",
	Long: `List prints every helper path the client exposes, followed by method ids
that have no namespace path:

  discoveryctl list calendar v3
  discoveryctl list --file ./calendar.json --format json`,
	Args: cobra.MaximumNArgs(2),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listFile, "file", "", "read the document from a local file")
	listCmd.Flags().StringVar(&listFormat, "format", "text", "output format: text or json")
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := loadClient(cmd.Context(), listFile, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if listFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"name":        c.Name(),
			"version":     c.Version(),
			"paths":       c.Paths(),
			"unreachable": c.Unreachable(),
		})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tMETHOD")
	for _, p := range c.Paths() {
		h, _ := c.Helper(p)
		fmt.Fprintf(w, "%s\t%s\n", p, h.MethodID())
	}
	for _, id := range c.Unreachable() {
		fmt.Fprintf(w, "-\t%s\n", id)
	}
	return w.Flush()
}

// ── directory ────────────────────────────────────────────────────────────────

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "List APIs advertised by the discovery service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := core.Directory(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tPREFERRED\tTITLE")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", it.Name, it.Version, it.Preferred, it.Title)
		}
		return w.Flush()
	},
}

// ── call ─────────────────────────────────────────────────────────────────────

var (
	callFile   string
	callParams []string
	callBody   string
	callAPIKey string
	callToken  string
)

var callCmd = &cobra.Command{
	Use:   "call [api version] <path>",
	Short: "Execute one method and print the JSON response",
	Long: `Call resolves a helper path (or a full method id) and executes it:

  discoveryctl call calendar v3 events.list --param calendarId=primary --token $TOKEN
  discoveryctl call --file ./svc.json items.insert --body item.json

Repeat --param to send a parameter more than once. --body - reads stdin.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callFile, "file", "", "read the document from a local file")
	callCmd.Flags().StringArrayVarP(&callParams, "param", "p", nil, "request parameter as key=value")
	callCmd.Flags().StringVar(&callBody, "body", "", "JSON request body file, or - for stdin")
	callCmd.Flags().StringVar(&callAPIKey, "api-key", "", "API key (overrides DISCOVERYCTL_API_KEY)")
	callCmd.Flags().StringVar(&callToken, "token", "", "OAuth2 bearer token")
	callCmd.MarkFlagsMutuallyExclusive("api-key", "token")
}

func runCall(cmd *cobra.Command, args []string) error {
	path := args[len(args)-1]
	c, err := loadClient(cmd.Context(), callFile, args[:len(args)-1])
	if err != nil {
		return err
	}
	switch {
	case callToken != "":
		c.WithAuthClient(auth.BearerToken(callToken))
	case callAPIKey != "":
		c.WithAuthClient(auth.APIKey(callAPIKey))
	}

	params, err := parseParams(callParams)
	if err != nil {
		return err
	}
	var resource []any
	if callBody != "" {
		body, err := readBody(cmd.InOrStdin(), callBody)
		if err != nil {
			return err
		}
		resource = append(resource, body)
	}

	var r *request.Request
	if h, ok := c.Helper(path); ok {
		r = h.Call(params, resource...)
	} else {
		r = c.NewRequest(path, params, resource...)
	}

	resp, err := core.Execute(cmd.Context(), r, nil)
	if err != nil {
		return err
	}
	var pretty any
	if err := json.Unmarshal(resp.Body, &pretty); err != nil {
		_, err = cmd.OutOrStdout().Write(resp.Body)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

// parseParams turns key=value pairs into Params. A key given more than once
// becomes a []string in flag order.
func parseParams(pairs []string) (request.Params, error) {
	params := request.Params{}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", kv)
		}
		switch prev := params[k].(type) {
		case nil:
			params[k] = v
		case string:
			params[k] = []string{prev, v}
		case []string:
			params[k] = append(prev, v)
		}
	}
	return params, nil
}

func readBody(stdin io.Reader, path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}
	return body, nil
}

// ── publish ──────────────────────────────────────────────────────────────────

var publishCmd = &cobra.Command{
	Use:   "publish <document.json>",
	Short: "Upload a document to IPFS and print its reference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := core.Loader().LoadFile(args[0])
		if err != nil {
			return err
		}
		uri, err := core.Publish(cmd.Context(), meta)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), uri)
		return nil
	},
}

// ── health ───────────────────────────────────────────────────────────────────

var healthService string

var healthCmd = &cobra.Command{
	Use:   "health <endpoint> <file.proto>...",
	Short: "Check a gRPC endpoint with the standard health service",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make(map[string]string, len(args)-1)
		for _, p := range args[1:] {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			files[p] = string(data)
		}
		c, err := core.NewClientFromProto(cmd.Context(), args[0], files)
		if err != nil {
			return err
		}
		status, err := core.Healthcheck(cmd.Context(), c, healthService)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status.String())
		return nil
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthService, "service", "", "service name to check (default: whole server)")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the discoveryctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "discoveryctl %s\n", version)
	},
}
