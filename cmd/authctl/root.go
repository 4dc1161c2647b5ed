package main

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	auth "github.com/goliatone/go-login"
	"github.com/goliatone/go-login/activitymap"
	"github.com/goliatone/go-login/repository"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	logLevel   string
	dsn        string

	db *bun.DB
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "authctl",
		Short: "Inspect and exercise auth configurations",
		Long: `authctl loads an auth configuration the same way services do and
lets you hash passwords for the users table, validate the configuration
and try credentials against the configured driver.

Examples:
  # Hash a password with the configured method and key
  authctl hash --config auth.yaml s3cret

  # Validate a configuration and list the enabled providers
  authctl check --config auth.yaml --env .env

  # Try a credential against the static users table
  authctl verify --config auth.yaml alice s3cret

  # Create the users table and a user for the database driver
  authctl migrate --dsn "file:auth.db"
  authctl useradd --config auth.yaml --dsn "file:auth.db" alice s3cret
`,
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return opts.close()
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the auth YAML configuration")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env", nil, "dotenv files loaded before AUTH_* overrides")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "sqlite DSN backing the database driver")

	root.AddCommand(
		newHashCmd(opts),
		newCheckCmd(opts),
		newVerifyCmd(opts),
		newMigrateCmd(opts),
		newUserAddCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (auth.Config, error) {
	return auth.LoadConfig(o.configPath, o.envFiles...)
}

// database opens the --dsn database once per invocation
func (o *rootOptions) database() (*bun.DB, error) {
	if o.db != nil {
		return o.db, nil
	}
	if o.dsn == "" {
		return nil, auth.ErrInvalidConfig.Clone().WithMetadata(map[string]any{
			"flag":   "dsn",
			"reason": "the database driver requires --dsn",
		})
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, o.dsn)
	if err != nil {
		return nil, auth.WrapStoreError(err, "open database")
	}
	o.db = bun.NewDB(sqldb, sqlitedialect.New())
	return o.db, nil
}

func (o *rootOptions) close() error {
	if o.db == nil {
		return nil
	}
	err := o.db.Close()
	o.db = nil
	return err
}

func (o *rootOptions) auther(cfg auth.Config) (*auth.Auther, error) {
	if cfg.Driver == repository.DriverName {
		db, err := o.database()
		if err != nil {
			return nil, err
		}
		repository.Register(db)
	}

	logger := auth.NewZapLogger(nil, o.logLevel)
	return auth.NewAuther(cfg,
		auth.WithLogger(logger),
		auth.WithActivitySink(activitymap.LogSink(logger.Zap())),
	)
}

func newHashCmd(opts *rootOptions) *cobra.Command {
	var method, key string

	cmd := &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the digest stored for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if method == "" || key == "" {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				if method == "" {
					method = cfg.Hash.Method
				}
				if key == "" {
					key = cfg.Hash.Key
				}
			}

			hasher, err := auth.NewHasher(method, key)
			if err != nil {
				return err
			}

			digest, err := hasher.Hash(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "hash method: "+strings.Join(auth.HashMethods(), ", "))
	cmd.Flags().StringVar(&key, "key", "", "hash key, overrides the configuration")
	return cmd
}

type checkReport struct {
	Driver          string                    `json:"driver"`
	HashMethod      string                    `json:"hash_method"`
	MaxFailedLogins int                       `json:"max_failed_logins"`
	LoginJailTime   string                    `json:"login_jail_time"`
	SessionKey      string                    `json:"session_key"`
	Users           []string                  `json:"users"`
	Providers       []auth.ProviderDescriptor `json:"providers"`
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and show the resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			a, err := opts.auther(cfg)
			if err != nil {
				return err
			}

			users := make([]string, 0, len(cfg.Users))
			for name := range cfg.Users {
				users = append(users, name)
			}
			sort.Strings(users)

			report := checkReport{
				Driver:          cfg.Driver,
				HashMethod:      a.Hasher().Method(),
				MaxFailedLogins: cfg.MaxFailedLogins,
				LoginJailTime:   cfg.LoginJailTime.String(),
				SessionKey:      cfg.Session.Key,
				Users:           users,
				Providers:       a.Providers(),
			}

			out := cmd.OutOrStdout()
			if asJSON {
				fmt.Fprintln(out, print.MaybePrettyJSON(report))
				return nil
			}

			fmt.Fprintf(out, "driver:            %s\n", report.Driver)
			fmt.Fprintf(out, "hash method:       %s\n", report.HashMethod)
			fmt.Fprintf(out, "max failed logins: %d\n", report.MaxFailedLogins)
			fmt.Fprintf(out, "login jail time:   %s\n", report.LoginJailTime)
			fmt.Fprintf(out, "session key:       %s\n", report.SessionKey)
			fmt.Fprintf(out, "users:             %d\n", len(report.Users))
			for _, p := range report.Providers {
				fmt.Fprintf(out, "provider:          %s (%s) %s\n", p.Name, p.Icon, p.URL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <username> <password>",
		Short: "Try a credential against the configured driver",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			a, err := opts.auther(cfg)
			if err != nil {
				return err
			}

			sess := a.Session(auth.NewMemorySessionStore(), auth.WithSource("authctl"))
			res, err := sess.Login(cmd.Context(), args[0], args[1], false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Valid {
				fmt.Fprintf(out, "invalid: %s\n", res.Message)
				return fmt.Errorf("credential rejected for %q", args[0])
			}

			fmt.Fprintf(out, "valid: %s\n", res.Principal.Username)
			return nil
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the users table migrations to the --dsn database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := opts.database()
			if err != nil {
				return err
			}

			applied, err := repository.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "no pending migrations")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied: %s\n", name)
			}
			return nil
		},
	}
}

func newUserAddCmd(opts *rootOptions) *cobra.Command {
	var email string
	var roles []string

	cmd := &cobra.Command{
		Use:   "useradd <username> <password>",
		Short: "Create a user for the database driver",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			hasher, err := auth.NewHasher(cfg.Hash.Method, cfg.Hash.Key)
			if err != nil {
				return err
			}

			db, err := opts.database()
			if err != nil {
				return err
			}

			p, err := repository.NewDriver(db, hasher).Create(cmd.Context(), auth.Principal{
				Username: args[0],
				Email:    email,
				Roles:    roles,
			}, args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created: %s %s\n", p.Username, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email stored with the user")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "roles granted to the user")
	return cmd
}
