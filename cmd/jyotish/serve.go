package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/jyotish/api"
	"github.com/seenimoa/jyotish/internal/storage"
)

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve chart computation, prediction and the chart archive as a JSON API.

Examples:
  jyotish serve
  jyotish serve --port 9090 --no-archive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, port := cfg.API.Host, cfg.API.Port
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		srv, err := api.NewServer(cfg, eph, logger)
		if err != nil {
			return err
		}
		srv.SetVersion(version)

		if off, _ := cmd.Flags().GetBool("no-archive"); !off {
			a, err := storage.OpenArchive(cfg.Storage.ArchivePath, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			srv.SetArchive(a)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := net.JoinHostPort(host, strconv.Itoa(port))
		fmt.Printf("🌐 Starting jyotish API server on http://%s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (default from config)")
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	serveCmd.Flags().Bool("no-archive", false, "disable the /charts endpoints")
}
