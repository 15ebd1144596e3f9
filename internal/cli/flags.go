package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DB      string `long:"db" description:"Override the SQLite database path"`
	User    string `long:"user" description:"User id (defaults to dashboard.default_user_id)"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand: run the HTTP API and the retention pruner.
type ServeCommand struct {
	Host     string `long:"host" description:"Override listen host"`
	Port     int    `long:"port" description:"Override listen port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// DashboardCommand: print the headline metrics and daily breakdown.
type DashboardCommand struct {
	Range string `long:"range" description:"this_week | last_week" default:"this_week"`

	globals *GlobalFlags
	version string
}

// InsightsCommand: print the health summary, alerts and goal progress.
type InsightsCommand struct {
	Range string `long:"range" description:"this_week | last_week" default:"this_week"`

	globals *GlobalFlags
	version string
}

// SettingsCommand: print known websites with their category and limit.
type SettingsCommand struct {
	globals *GlobalFlags
	version string
}

// AddCommand: manually record a page visit.
type AddCommand struct {
	URL      string `long:"url" description:"Visited URL (required)"`
	Domain   string `long:"domain" description:"Domain, if different from the URL host"`
	Start    string `long:"start" description:"Visit start time (RFC3339; default now minus duration)"`
	Duration string `long:"duration" description:"Visit length (e.g., 30m, 2h)" default:"1m"`

	globals *GlobalFlags
	version string
}

// RuleCommand: manage domain category rules.
type RuleCommand struct {
	Pattern  string `long:"pattern" description:"Domain substring to match"`
	Category string `long:"category" description:"Category assigned to matching domains"`
	List     bool   `long:"list" description:"List rules"`
	Delete   int64  `long:"delete" description:"Delete the rule with this id"`

	globals *GlobalFlags
	version string
}

// LimitCommand: set or list daily domain limits.
type LimitCommand struct {
	Domain  string `long:"domain" description:"Domain to limit"`
	Minutes int    `long:"minutes" description:"Allowed minutes per day" default:"-1"`

	globals *GlobalFlags
	version string
}

// AnalyzeCommand: classify page text and store the analysis.
type AnalyzeCommand struct {
	URL      string `long:"url" description:"Page URL (required)"`
	Text     string `long:"text" description:"Inline page text"`
	TextFile string `long:"text-file" description:"Path to file containing page text"`

	globals *GlobalFlags
	version string
}

// VisitsCommand: list recent visits.
type VisitsCommand struct {
	Since  string   `long:"since" description:"Only visits newer than duration (e.g., 7d, 24h, 2w)" default:"7d"`
	Domain []string `long:"domain" description:"Filter by domain substring (repeatable)"`
	Limit  int      `long:"limit" description:"Maximum results" default:"20"`

	globals *GlobalFlags
	version string
}

// StatusCommand: show database statistics and configuration summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// PruneCommand: apply retention pruning to old visits and analyses.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`

	globals *GlobalFlags
	version string
}

// PurgeCommand: delete ALL footprint data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}
