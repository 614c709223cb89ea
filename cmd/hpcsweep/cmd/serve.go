package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ddimmery/NYU-HPC/pkg/api"
	"github.com/ddimmery/NYU-HPC/pkg/artifact"
)

var (
	serveListen    string
	serveArtifacts string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sweep status HTTP server",
	Long: `Serves a read-only view of the sweep manifest and the artifact
directory: sweep summaries, per-job status, artifact presence, and
Prometheus metrics at /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "127.0.0.1:8090", "listen address")
	serveCmd.Flags().StringVar(&serveArtifacts, "artifacts", ".", "artifact directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	manifest, err := openStore()
	if err != nil {
		return err
	}
	defer manifest.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(manifest, artifact.NewFSStore(serveArtifacts), log)
	fmt.Printf("Status server on http://%s (press Ctrl+C to stop)\n", serveListen)
	return server.Serve(ctx, serveListen)
}
