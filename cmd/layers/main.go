package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-layers/internal/api"
	"github.com/joeblew999/plat-layers/internal/logging"
	"github.com/joeblew999/plat-layers/internal/server"
)

// Options defines all CLI flags and env vars for the layer server.
// Flags: --host, --port, --data-dir, --config, --log-level, --no-db
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host     string `doc:"Host to bind to" default:"0.0.0.0"`
	Port     int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir  string `doc:"Directory holding themes.yaml, layers.toml and the database" default:".data"`
	Config   string `doc:"TOML settings file (default <data-dir>/layers.toml)"`
	LogLevel string `doc:"Log level: debug, info, warn, error" default:"info"`
	NoDB     bool   `doc:"Run without the bookmark database"`
}

func newServer(opts *Options) (*server.Server, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:       opts.Host,
		Port:       strconv.Itoa(opts.Port),
		DataDir:    opts.DataDir,
		ConfigFile: opts.Config,
		NoDB:       opts.NoDB,
		Logger:     logging.New(os.Stderr, level),
	})
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		srv, err := newServer(opts)
		if err != nil {
			fatal(err)
		}

		var httpServer *http.Server
		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-layers API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Events:  %s/api/v1/editor/events\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fatal(err)
			}
		})
		hooks.OnStop(func() {
			if httpServer != nil {
				httpServer.Close()
			}
			srv.Close()
		})
	})

	cli.Root().Use = "layers"
	cli.Root().Short = "Layer tree engine for web map clients"
	cli.Root().Version = api.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.NoDB = true
			srv, err := newServer(opts)
			if err != nil {
				fatal(err)
			}
			defer srv.Close()

			useYAML, _ := cmd.Flags().GetBool("yaml")
			var output []byte
			if useYAML {
				output, err = yaml.Marshal(srv.OpenAPI())
			} else {
				output, err = json.MarshalIndent(srv.OpenAPI(), "", "  ")
			}
			if err != nil {
				fatal(fmt.Errorf("marshal spec: %w", err))
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	for _, cmd := range toolCommands() {
		cli.Root().AddCommand(cmd)
	}
	cli.Root().AddCommand(&cobra.Command{
		Use:   "themes",
		Short: "List the themes of the data directory catalogue",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			if err := listThemes(cmd.OutOrStdout(), opts.DataDir, opts.Config); err != nil {
				fatal(err)
			}
		}),
	})

	cli.Run()
}
