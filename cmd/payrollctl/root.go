package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/paydesk/console/internal/clients"
	"github.com/paydesk/console/internal/config"
	"github.com/paydesk/console/internal/crypto"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/orchestrator"
	"github.com/paydesk/console/internal/store"
	"github.com/paydesk/console/internal/web"
)

var errNotSignedIn = errors.New("not signed in: run payrollctl login")

// localClientID scopes the CLI's persisted session in its state file.
const localClientID = "local"

// session is the started client shared by every subcommand of one run.
type session struct {
	client   *clients.Client
	state    *store.SessionStore
	out      io.Writer
	errOut   io.Writer
	currency string
}

func newRootCmd(s *session) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Payroll console for the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s.out, s.errOut = cmd.OutOrStdout(), cmd.ErrOrStderr()
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(s.errOut, &slog.HandlerOptions{Level: level}))
			return s.open(cmd.Context(), logger)
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(newLoginCmd(s))
	cmd.AddCommand(newLogoutCmd(s))
	cmd.AddCommand(newStatusCmd(s))
	cmd.AddCommand(newDashboardCmd(s))
	cmd.AddCommand(newNotificationsCmd(s))
	cmd.AddCommand(newPasswdCmd(s))
	cmd.AddCommand(newEmployeesCmd(s))
	cmd.AddCommand(newPayrollCmd(s))
	return cmd
}

func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run executes one command line. Notices are printed and the state file is
// closed whether or not the command succeeded.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s := &session{}
	cmd := newRootCmd(s)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

func (s *session) open(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	var crypter *crypto.Crypter
	if cfg.Key != "" {
		key, err := crypto.DeriveKey(cfg.Key, "payrollctl-state")
		if err != nil {
			return fmt.Errorf("derive state key: %w", err)
		}
		if crypter, err = crypto.New(key); err != nil {
			return err
		}
	}

	s.currency = cfg.Currency
	s.state, err = store.Open(ctx, "file:"+cfg.StatePath, crypter, logger)
	if err != nil {
		return err
	}
	deps := clients.Deps{BaseURL: cfg.APIURL, State: s.state, Logger: logger}
	s.client = deps.Build(localClientID)
	return nil
}

// close prints whatever notices the run produced and releases the state file.
func (s *session) close() error {
	if s.client != nil {
		s.flush()
	}
	if s.state == nil {
		return nil
	}
	return s.state.Close()
}

func (s *session) flush() {
	for _, n := range s.client.Notices.Drain() {
		fmt.Fprintf(s.errOut, "[%s] %s\n", n.Level, n.Message)
	}
}

func (s *session) money(d decimal.Decimal) string {
	return web.FormatMoney(d, s.currency)
}

// current restores the stored session on first use and returns the client's
// state. login and logout never call it, so they make no restoring requests.
func (s *session) current(ctx context.Context) orchestrator.State {
	s.client.Orchestrator.Start(ctx)
	return s.client.Orchestrator.State()
}

func (s *session) requireSignedIn(ctx context.Context) error {
	if !s.current(ctx).LoggedIn {
		return errNotSignedIn
	}
	return nil
}

// requireRole fails unless the stored session has the given role.
func (s *session) requireRole(ctx context.Context, admin bool) error {
	st := s.current(ctx)
	switch {
	case !st.LoggedIn:
		return errNotSignedIn
	case admin && st.Role != model.RoleAdmin:
		return errors.New("this command needs an administrator")
	case !admin && st.Role == model.RoleAdmin:
		return errors.New("this command needs an employee account")
	}
	return nil
}
