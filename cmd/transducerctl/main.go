// Command transducerctl is the operator tool for transducerd.
//
// It issues and inspects API bearer tokens and manages the SQLite schema:
//
//	transducerctl token issue --subject alice --role operator
//	transducerctl token verify <token>
//	transducerctl migrate status
//	transducerctl migrate up
//	transducerctl migrate down --yes
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nerrad567/gray-logic-transducers/internal/auth"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "transducerctl",
		Usage:           "manage transducerd tokens and schema",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "read settings from config `FILE`",
				EnvVars: []string{"GRAYLOGIC_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "secret",
				Usage:   "HMAC secret (overrides the config file)",
				EnvVars: []string{"GRAYLOGIC_JWT_SECRET"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:            "token",
				Usage:           "issue and verify API tokens",
				HideHelpCommand: true,
				Subcommands: []*cli.Command{
					{
						Name:  "issue",
						Usage: "print a signed access token",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "token subject", Required: true},
							&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Usage: "viewer, operator, or admin", Value: string(auth.RoleOperator)},
							&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (default from config)"},
						},
						Action: issueAction,
					},
					{
						Name:      "verify",
						Usage:     "check a token and print its claims",
						ArgsUsage: "TOKEN",
						Action:    verifyAction,
					},
				},
			},
			{
				Name:            "migrate",
				Usage:           "inspect or roll back the database schema",
				HideHelpCommand: true,
				Subcommands: []*cli.Command{
					{
						Name:   "status",
						Usage:  "list applied and pending migrations",
						Action: migrateStatusAction,
					},
					{
						Name:   "up",
						Usage:  "apply pending migrations (transducerd also does this at startup)",
						Action: migrateUpAction,
					},
					{
						Name:  "down",
						Usage: "roll back the most recent migration",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "yes", Usage: "confirm the rollback; stored data in dropped tables is lost"},
						},
						Action: migrateDownAction,
					},
				},
			},
		},
	}
}
