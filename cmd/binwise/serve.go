package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/binwise/internal/certs"
	"github.com/Veraticus/binwise/internal/config"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/httpapi"
	"github.com/Veraticus/binwise/internal/service"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Long: `Serve the scan API. With --tls a self-signed certificate is issued for
localhost and every --tls-host, so phones on the same network can reach the
API over HTTPS once they trust the certificate.

Examples:
  binwise serve --listen :8080
  binwise serve --listen 0.0.0.0:8443 --tls --tls-host 192.168.1.20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := viper.GetString("server.listen")
			if addr == "" {
				addr = "localhost:8080"
			}

			opts := []httpapi.Option{
				httpapi.WithLogger(slog.Default()),
				httpapi.WithMaxImageBytes(viper.GetInt("server.max_image_bytes")),
			}

			if viper.GetBool("server.tls") {
				dir := viper.GetString("server.cert_dir")
				if dir == "" {
					dir = filepath.Join(config.DataDir(), "certs")
				}
				store := certs.NewStore(config.ExpandPath(dir), viper.GetStringSlice("server.tls_hosts")...)
				cert, err := store.Certificate()
				if err != nil {
					return err
				}
				slog.Info("Serving HTTPS", "certificate", store.CertFile())
				opts = append(opts, httpapi.WithTLS(cert))
			}

			return withEngine(cmd.Context(), true, func(eng *engine.Engine, store service.Storage) error {
				return httpapi.New(eng, store, opts...).ListenAndServe(cmd.Context(), addr)
			})
		},
	}

	cmd.Flags().String("listen", "", "address to listen on (default localhost:8080)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	cmd.Flags().StringSlice("tls-host", nil, "extra host name or IP the certificate must cover")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("server.tls_hosts", cmd.Flags().Lookup("tls-host"))
	return cmd
}
