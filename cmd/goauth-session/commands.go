package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"text/tabwriter"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Log in against the auth backend. On success the credential and identity are
stored and the route guard is run for the role's home.

Examples:
  goauth-session login --email admin@example.com --password admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			a, err := opts.open(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.manager.Login(cmd.Context(), email, password)
			if !res.Success {
				return fmt.Errorf("login failed: %s", res.Error)
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", email, res.Role)
			return navigateAndReport(cmd.Context(), a, a.cfg.Routes.Root)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Validate the stored session and show it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.manager.Initialize(cmd.Context()); err != nil && !errors.Is(err, goSession.ErrSessionRejected) {
				return err
			}
			printSnapshot(a, a.manager.Snapshot())
			return nil
		},
	}
}

func newRefreshCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored credential for a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.manager.Initialize(cmd.Context()); err != nil {
				return err
			}
			if err := a.manager.Refresh(cmd.Context()); err != nil {
				return err
			}
			printSnapshot(a, a.manager.Snapshot())
			return nil
		},
	}
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			a.manager.Logout(cmd.Context())
			fmt.Fprintf(a.out, "Logged out. Now at %s\n", a.router.Current())
			return nil
		},
	}
}

func newNavigateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Run the route guard for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, terminal(cmd))
			if err != nil {
				return err
			}
			defer a.Close()
			return navigateAndReport(cmd.Context(), a, args[0])
		},
	}
}

func newRoutesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			table, err := loadTable(cfg.Routes.RoutesFile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tNAME\tAUTH\tROLE\tREDIRECT")
			for _, r := range table.Routes() {
				auth := "-"
				switch {
				case r.RequiresAuth:
					auth = "required"
				case r.PublicOnly:
					auth = "public-only"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Path, dash(r.Name), auth, dash(r.Role.String()), dash(r.Redirect))
			}
			return w.Flush()
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the session alive and follow its state",
		Long: `Restore the stored session and stay attached to it. Privileged sessions are
asked to extend two minutes before expiry; other sessions end at expiry. State changes
and navigations are printed until the session ends or the command is interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.metrics = metricsAddr != ""
			a, err := opts.open(cmd, terminal(cmd).WithAccessibleInput(cmd.InOrStdin()))
			if err != nil {
				return err
			}
			defer a.Close()

			if metricsAddr != "" {
				stop, err := serveMetrics(a.manager, metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
				fmt.Fprintf(a.out, "Serving metrics on %s/metrics\n", metricsAddr)
			}

			ended := make(chan struct{}, 1)
			unsubscribe, err := a.manager.State().Subscribe(func(s goSession.Snapshot) {
				if !s.Authenticated && !s.Loading {
					select {
					case ended <- struct{}{}:
					default:
					}
				}
			})
			if err != nil {
				return err
			}
			defer unsubscribe()
			stopNav, err := a.router.OnNavigate(func(n guard.Navigation) {
				fmt.Fprintf(a.out, "%s %s\n", dimStyle.Render("navigated"), n.To)
			})
			if err != nil {
				return err
			}
			defer stopNav()

			if err := a.manager.Initialize(cmd.Context()); err != nil {
				return err
			}
			snap := a.manager.Snapshot()
			if !snap.Authenticated {
				return errors.New("no active session; run login first")
			}
			printSnapshot(a, snap)

			select {
			case <-ended:
				fmt.Fprintln(a.out, "Session ended")
				return nil
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func navigateAndReport(ctx context.Context, a *app, target string) error {
	var hops []guard.Navigation
	stop, err := a.router.OnNavigate(func(n guard.Navigation) { hops = append(hops, n) })
	if err != nil {
		return err
	}
	defer stop()

	err = a.router.Navigate(ctx, target)
	if err != nil && !errors.Is(err, goSession.ErrNavigationDuplicated) {
		return err
	}
	for _, n := range hops {
		for _, d := range n.Redirects {
			fmt.Fprintf(a.out, "%s %s -> %s (%s)\n", dimStyle.Render("redirect"), d.Path, d.Redirect, d.Reason)
		}
	}
	fmt.Fprintf(a.out, "%s %s\n", labelStyle.Render("Location:"), a.router.Current())
	return nil
}

func printSnapshot(a *app, s goSession.Snapshot) {
	if !s.Authenticated {
		fmt.Fprintln(a.out, "Not logged in.")
		return
	}
	fmt.Fprintf(a.out, "%s %s <%s>\n", labelStyle.Render("User:"), s.Identity.Username, s.Identity.Email)
	fmt.Fprintf(a.out, "%s %s\n", labelStyle.Render("Role:"), s.Identity.Role)
	if s.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "%s unknown\n", labelStyle.Render("Expires:"))
		return
	}
	left := time.Until(s.ExpiresAt).Round(time.Second)
	fmt.Fprintf(a.out, "%s %s (in %s)\n", labelStyle.Render("Expires:"), s.ExpiresAt.Local().Format(time.RFC3339), left)
}

func serveMetrics(m *goSession.Manager, addr string) (func(), error) {
	handler, err := prometheus.Handler(prometheus.NewCollector(m))
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
