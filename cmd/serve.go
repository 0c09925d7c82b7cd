package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datachat-cli/internal/server"
)

var (
	serveFrame frameFlags
	serveAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over a websocket endpoint (/ws)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		fopt, err := serveFrame.options()
		if err != nil {
			return err
		}
		orch, err := buildOrchestrator(c)
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = c.ServeAddr
		}
		srv := server.New(orch, server.Options{
			SessionTTL:   c.SessionTTL(),
			FrameOptions: fopt,
			Logger:       logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.Printf("%s Listening on %s (websocket at /ws)\n", okMark, addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveFrame.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config serve_addr)")
}
