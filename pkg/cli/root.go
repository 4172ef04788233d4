package cli

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Command represents a CLI command. A command with subcommands and no Run
// dispatches on its first argument.
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "taskboard",
		Description: "Taskboard - multi-tenant todo service",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("taskboard", flag.ExitOnError),
	}

	root.Subcommands["serve"] = newServeCommand()
	root.Subcommands["migrate"] = newMigrateCommand()
	root.Subcommands["users"] = newUsersCommand()
	root.Subcommands["audit"] = newAuditCommand()

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the command with args
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 {
		if c.Run != nil {
			return c.Run(args)
		}
		return c.usage()
	}

	// Check for help flag
	switch strings.ToLower(args[0]) {
	case "-h", "--help", "help":
		return c.usage()
	}

	// Check for subcommand
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.ExecuteArgs(args[1:])
	}
	if c.Run != nil {
		return c.Run(args)
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	if c.Description != "" {
		fmt.Printf("%s\n\n", c.Description)
	}
	fmt.Printf("Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
