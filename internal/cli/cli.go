package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve     *ServeCommand
	Dashboard *DashboardCommand
	Insights  *InsightsCommand
	Settings  *SettingsCommand
	Add       *AddCommand
	Rule      *RuleCommand
	Limit     *LimitCommand
	Analyze   *AnalyzeCommand
	Visits    *VisitsCommand
	Status    *StatusCommand
	Prune     *PruneCommand
	Purge     *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "footprint"
	parser.LongDescription = "Local digital-footprint dashboard: browsing time, categories, emotional balance and goals."

	cmds := &commands{
		Serve:     &ServeCommand{globals: &globals, version: version},
		Dashboard: &DashboardCommand{globals: &globals, version: version},
		Insights:  &InsightsCommand{globals: &globals, version: version},
		Settings:  &SettingsCommand{globals: &globals, version: version},
		Add:       &AddCommand{globals: &globals, version: version},
		Rule:      &RuleCommand{globals: &globals, version: version},
		Limit:     &LimitCommand{globals: &globals, version: version},
		Analyze:   &AnalyzeCommand{globals: &globals, version: version},
		Visits:    &VisitsCommand{globals: &globals, version: version},
		Status:    &StatusCommand{globals: &globals, version: version},
		Prune:     &PruneCommand{globals: &globals, version: version},
		Purge:     &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Run the HTTP API", "Run the HTTP API and the periodic retention pruner.", cmds.Serve)
	parser.AddCommand("dashboard", "Show weekly metrics", "Show total, productive, social and entertainment time with the daily breakdown.", cmds.Dashboard)
	parser.AddCommand("insights", "Show weekly insights", "Show the health summary, alerts, goal progress and content categories.", cmds.Insights)
	parser.AddCommand("settings", "Show known websites", "Show visited, limited and rule domains with their category and limit.", cmds.Settings)
	parser.AddCommand("add", "Record a visit", "Manually record a page visit.", cmds.Add)
	parser.AddCommand("rule", "Manage domain rules", "Add, list or delete domain category rules.", cmds.Rule)
	parser.AddCommand("limit", "Manage domain limits", "Set or list daily domain limits.", cmds.Limit)
	parser.AddCommand("analyze", "Analyze page text", "Classify page text and store its category and emotion scores.", cmds.Analyze)
	parser.AddCommand("visits", "List recent visits", "List recent visits, newest first.", cmds.Visits)
	parser.AddCommand("status", "Show database statistics", "Show database statistics and a configuration summary.", cmds.Status)
	parser.AddCommand("prune", "Apply retention pruning", "Delete visits and analyses older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL footprint data", "Delete ALL footprint data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the footprint CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("footprint %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
