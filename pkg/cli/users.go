package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/taskboard/pkg/async"
	"github.com/platinummonkey/taskboard/pkg/audit"
	"github.com/platinummonkey/taskboard/pkg/auth"
)

const (
	seedWorkers = 4
	seedTimeout = 10 * time.Second
)

// SeedAccount is one entry of a users seed file
type SeedAccount struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

func newUsersCommand() *Command {
	cmd := &Command{
		Name:        "users",
		Description: "Administer accounts and roles",
		Subcommands: make(map[string]*Command),
	}
	cmd.Subcommands["seed"] = newSeedCommand()
	cmd.Subcommands["set-role"] = newSetRoleCommand()
	return cmd
}

func newSeedCommand() *Command {
	cmd := &Command{
		Name:        "seed",
		Description: "Create or update accounts from a YAML file",
		Flags:       flag.NewFlagSet("seed", flag.ContinueOnError),
	}
	file := cmd.Flags.String("file", "", "YAML file with a list of {email, name, password, role}")
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *file == "" {
			return fmt.Errorf("--file is required")
		}
		return runSeed(context.Background(), *file)
	}
	return cmd
}

func newSetRoleCommand() *Command {
	cmd := &Command{
		Name:        "set-role",
		Description: "Change the role of an account: set-role <email> <user|manager|admin>",
		Flags:       flag.NewFlagSet("set-role", flag.ContinueOnError),
	}
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if cmd.Flags.NArg() != 2 {
			return fmt.Errorf("usage: taskboard users set-role <email> <role>")
		}
		return runSetRole(context.Background(), cmd.Flags.Arg(0), cmd.Flags.Arg(1))
	}
	return cmd
}

// LoadSeedFile parses a users seed file and checks every role
func LoadSeedFile(path string) ([]SeedAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var accounts []SeedAccount
	if err := yaml.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, a := range accounts {
		if a.Email == "" {
			return nil, fmt.Errorf("seed entry %d: email is required", i)
		}
		if a.Role == "" {
			accounts[i].Role = string(auth.RoleUser)
			continue
		}
		role, err := auth.ParseRole(a.Role)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d (%s): %w", i, a.Email, err)
		}
		accounts[i].Role = string(role)
	}
	return accounts, nil
}

func runSeed(ctx context.Context, path string) error {
	accounts, err := LoadSeedFile(path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newProcessLogger(cfg.Observability.LogLevel)

	db, err := openDatabase(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(auth.NewStore(db), cfg.Auth.SessionTTL)
	return seedAccounts(ctx, service, accounts, log)
}

func seedAccounts(ctx context.Context, service *auth.Service, accounts []SeedAccount, log *logrus.Logger) error {
	errs := async.Batch(ctx, accounts, seedWorkers, "seed users", seedTimeout, func(ctx context.Context, a SeedAccount) error {
		name := a.Name
		if name == "" {
			name = a.Email
		}
		user, err := service.SeedUser(ctx, a.Email, name, a.Password, auth.Role(a.Role))
		if err != nil {
			return fmt.Errorf("%s: %w", a.Email, err)
		}
		log.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("account seeded")
		return nil
	})
	if len(errs) > 0 {
		return fmt.Errorf("failed to seed %d of %d accounts: %w", len(errs), len(accounts), errors.Join(errs...))
	}
	return nil
}

func runSetRole(ctx context.Context, email, roleName string) error {
	role, err := auth.ParseRole(roleName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newProcessLogger(cfg.Observability.LogLevel)

	db, err := openDatabase(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := auth.NewStore(db).SetRole(ctx, email, role); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return fmt.Errorf("no account with email %s", auth.NormalizeEmail(email))
		}
		return err
	}

	if cfg.Audit.Enabled {
		logger, err := audit.NewDBLogger(db)
		if err != nil {
			return err
		}
		event := &audit.Event{
			EventType:  audit.EventTypeRoleChange,
			ResourceID: auth.NormalizeEmail(email),
			Message:    string(role),
		}
		if err := logger.Log(ctx, event); err != nil {
			log.WithError(err).Warn("failed to record role change")
		}
	}
	log.WithFields(logrus.Fields{"email": auth.NormalizeEmail(email), "role": role}).Info("role updated")
	return nil
}
