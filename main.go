package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"dlux/internal/auth"
	"dlux/internal/common"
	"dlux/internal/config"
	"dlux/internal/ldap"
	"dlux/internal/metrics"
	"dlux/internal/network"
	"dlux/internal/neutron"
	"dlux/internal/session"
	"dlux/internal/tables"
	"dlux/internal/types"
	"dlux/internal/urls"

	"github.com/alecthomas/kong"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

/*
   ---------------------------
   Command line
   ---------------------------
*/

type CLI struct {
	Serve        ServeCmd        `cmd:"" default:"1" help:"Run the dashboard server"`
	Settings     SettingsCmd     `cmd:"" help:"Print the effective settings"`
	HashPassword HashPasswordCmd `cmd:"" name:"hash-password" help:"Hash a password read from stdin for STATIC_USERS"`
}

type (
	ServeCmd        struct{}
	SettingsCmd     struct{}
	HashPasswordCmd struct {
		Scheme string `enum:"bcrypt,sha512" default:"bcrypt" help:"Hash scheme (bcrypt or sha512)"`
	}
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, in io.Reader, out io.Writer) int {
	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("dlux"),
		kong.Description("OpenDaylight dashboard with controller login and neutron port views."),
		kong.Writers(out, out),
	)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	settings := config.NewSettingType()
	switch ctx.Command() {
	case "settings":
		settings.Print(out)
		return 0
	case "hash-password":
		return runHashPassword(cli.HashPassword, in, out)
	default:
		return runServe(settings, out)
	}
}

func runHashPassword(cmd HashPasswordCmd, in io.Reader, out io.Writer) int {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out, "no password on stdin")
		return 1
	}
	password := strings.TrimRight(scanner.Text(), "\r\n")
	if password == "" {
		fmt.Fprintln(out, "empty password")
		return 1
	}
	hash, err := auth.HashPassword(password, cmd.Scheme)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	fmt.Fprintln(out, hash)
	return 0
}

func runServe(settings *config.SettingsType, out io.Writer) int {
	server, err := config.LoadServer(settings)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	logger := config.NewLogger(server)

	a, err := newApp(settings, server, logger)
	if err != nil {
		logger.WithError(err).Error("configure dashboard")
		return 1
	}
	handler, err := a.router()
	if err != nil {
		logger.WithError(err).Error("build router")
		return 1
	}

	if err := ensureTLSCert(server.TLSCert, server.TLSKey, logger); err != nil {
		logger.WithError(err).Error("failed to ensure TLS certs")
		return 1
	}

	srv := &http.Server{
		Addr:      server.ListenAddr,
		Handler:   handler,
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},

		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":         server.ListenAddr,
			"auth_backend": server.AuthBackend,
			"controller":   a.login.DefaultController,
		}).Info("starting dashboard")
		errCh <- srv.ListenAndServeTLS(server.TLSCert, server.TLSKey)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server stopped")
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("shutdown")
		}
	}
	return 0
}

/*
   ---------------------------
   Application
   ---------------------------
*/

// portSource is the neutron data the pages read.
type portSource interface {
	ListPorts(ctx context.Context, user *types.User) ([]neutron.Port, error)
	GetPort(ctx context.Context, user *types.User, id string) (neutron.Port, error)
	GetNetwork(ctx context.Context, user *types.User, id string) (neutron.Network, error)
}

type app struct {
	login         config.Login
	authenticator auth.Authenticator
	sessions      *session.Manager
	neutron       portSource
	resolver      *urls.Resolver
	ports         *tables.Table[neutron.Port]
	metrics       *metrics.Metrics
	logger        *logrus.Logger
}

func newApp(settings *config.SettingsType, server config.Server, logger *logrus.Logger) (*app, error) {
	login, err := config.LoadLogin(settings)
	if err != nil {
		return nil, err
	}
	authenticator, err := newAuthenticator(settings, server, logger)
	if err != nil {
		return nil, err
	}

	resolver := urls.NewResolver()
	return &app{
		login:         login,
		authenticator: authenticator,
		sessions:      session.NewManager(server.SessionTTL, server.CookieSecure),
		neutron:       neutron.NewClient(server.ClientTimeout, server.CacheTTL, logger),
		resolver:      resolver,
		ports:         network.NewPortsTable(resolver),
		metrics:       metrics.New(),
		logger:        logger,
	}, nil
}

func newAuthenticator(settings *config.SettingsType, server config.Server, logger *logrus.Logger) (auth.Authenticator, error) {
	switch server.AuthBackend {
	case "", "controller":
		return auth.NewControllerAuthenticator(server.ClientTimeout), nil
	case "ldap":
		return ldap.NewAuthenticator(config.LoadLDAP(settings), logger), nil
	case "static":
		users, err := auth.ParseStaticUsers(server.StaticUsers)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.STATIC_USERS, err)
		}
		return users, nil
	default:
		return nil, fmt.Errorf("unknown %s %q", config.AUTH_BACKEND, server.AuthBackend)
	}
}

func (a *app) router() (http.Handler, error) {
	router := chi.NewRouter()
	router.Use(common.EnrichContext)
	router.Use(a.sessions.LoadAndSave)

	router.Get("/login", a.handleLoginGet)
	router.Post("/login", a.handleLoginPost)
	router.HandleFunc("/logout", a.handleLogout)
	router.Handle("/metrics", a.metrics.Handler())

	router.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			a.logger.WithError(err).Warn("failed to write health response")
		}
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, network.PortsIndexPath, http.StatusSeeOther)
	})

	var routeErr error
	router.Group(func(r chi.Router) {
		r.Use(a.sessions.RequireUser)
		r.Get(network.PortsIndexPath, a.handlePortsIndex)
		routeErr = errors.Join(
			a.resolver.Get(r, network.PortDetailView, network.PortDetailPath, a.handlePortDetail),
			a.resolver.Get(r, network.NetworkDetailView, network.NetworkDetailPath, a.handleNetworkDetail),
		)
	})
	if routeErr != nil {
		return nil, routeErr
	}

	apiCfg := huma.DefaultConfig("DLUX", "1.0.0")
	apiCfg.OpenAPIPath = ""
	apiCfg.DocsPath = ""
	apiCfg.SchemasPath = ""
	api := humachi.New(router, apiCfg)
	a.registerAPI(api)

	return a.logRequests(router), nil
}

/*
   ---------------------------
   Request logging
   ---------------------------
*/

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (a *app) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		dur := time.Since(start)
		a.metrics.ObserveRequest(r.Method, rec.status, dur)
		a.logger.WithFields(logrus.Fields{
			"status":    rec.status,
			"bytes":     rec.bytes,
			"dur":       dur.Truncate(time.Millisecond).String(),
			"method":    r.Method,
			"path":      r.URL.Path,
			"remote":    r.RemoteAddr,
			"client_ip": common.GetClientIp(r.Context()),
			"ua":        r.UserAgent(),
		}).Debug("request")
	})
}

/*
   ---------------------------
   TLS bootstrap
   ---------------------------
*/

func ensureTLSCert(certPath, keyPath string, logger logrus.FieldLogger) error {
	certInfo, certErr := os.Stat(certPath)
	keyInfo, keyErr := os.Stat(keyPath)
	if certErr == nil && keyErr == nil && certInfo.Mode().IsRegular() && keyInfo.Mode().IsRegular() {
		return nil
	}

	if (certErr == nil) != (keyErr == nil) {
		logger.WithFields(logrus.Fields{
			"cert_error": certErr,
			"key_error":  keyErr,
		}).Warn("TLS cert/key mismatch, regenerating")
	}

	for _, p := range []string{certPath, keyPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "dlux",
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return err
	}

	certFile, err := os.OpenFile(certPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer certFile.Close()

	if err := pem.Encode(certFile, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return err
	}

	keyFile, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer keyFile.Close()

	if err := pem.Encode(keyFile, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}); err != nil {
		return err
	}

	logger.WithField("cert", certPath).Info("generated self-signed TLS certificate")
	return nil
}
