package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"autoalt/internal/proxy"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Serve a site with its pages filtered",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("addr", ":8081", "listen address, e.g. :81 or 0.0.0.0:8081")
	f.String("mode", "static", "static (serve site root) or upstream (reverse proxy)")
	f.String("upstream", "", "upstream site URL in upstream mode")
	f.String("render", "direct", "direct or browser (headless Chrome) in upstream mode")
	f.String("site-root", "", "local site root used for static files and image sizes")
	f.String("site-url", "", "public site URL stripped from image sources")
	c.bind("server.addr", f.Lookup("addr"))
	c.bind("server.mode", f.Lookup("mode"))
	c.bind("server.upstream", f.Lookup("upstream"))
	c.bind("server.render", f.Lookup("render"))
	c.bind("filter.siteRoot", f.Lookup("site-root"))
	c.bind("filter.siteURL", f.Lookup("site-url"))
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	cfg, _, err := c.load()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	pcfg, err := proxy.FromConfig(cfg, c.logger)
	if err != nil {
		return err
	}
	srvProxy, err := proxy.New(pcfg)
	if err != nil {
		return err
	}
	defer srvProxy.Close()
	if err := srvProxy.Watch(); err != nil {
		c.logger.Printf("SITE watch disabled: %v", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: srvProxy,
		// Conservative timeouts to avoid slowloris and leaked connections blocking the server
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          log.New(os.Stdout, "HTTPERR ", log.LstdFlags|log.Lmicroseconds),
	}
	if cfg.Log.Debug {
		srv.ConnState = func(conn net.Conn, s http.ConnState) {
			c.logger.Printf("CONN %s %s", s.String(), conn.RemoteAddr())
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	c.logger.Printf("Listening on %s (%s mode, site root %s)", addr, cfg.Server.Mode, cfg.Filter.SiteRoot)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
