// Command gen-docs writes shell completions and a man page for coffeine from
// its flag table.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appName        = "coffeine"
	appDescription = "Simulates user presence by performing random actions from a scenario at random intervals."
)

type flagDef struct {
	Short string
	Long  string
	Arg   string
	Env   string
	Desc  string
}

var flags = []flagDef{
	{Short: "-s", Long: "--scenario", Arg: "<file>", Env: "COFFEINE_SCENARIO", Desc: "Scenario file, JSON or YAML (default \"scenario.json\")"},
	{Short: "-e", Long: "--enabled", Env: "COFFEINE_ENABLED", Desc: "Start active instead of paused"},
	{Long: "--headless", Env: "COFFEINE_HEADLESS", Desc: "Run without the terminal UI"},
	{Long: "--dry-run", Env: "COFFEINE_DRY_RUN", Desc: "Log actions instead of generating input"},
	{Long: "--on-error", Arg: "<policy>", Env: "COFFEINE_ON_HANDLER_ERROR", Desc: "Handler failure policy, abort or continue (default \"abort\")"},
	{Long: "--log-level", Arg: "<level>", Env: "COFFEINE_LOG_LEVEL", Desc: "Log level: debug, info, warn or error (default \"info\")"},
	{Long: "--log-file", Arg: "<file>", Env: "COFFEINE_LOG_FILE", Desc: "Log file (default \"coffeine.log\")"},
	{Short: "-d", Long: "--duration", Arg: "<string>", Desc: "Stop after a duration (e.g., \"2h30m\" or \"150\")"},
	{Short: "-c", Long: "--clock", Arg: "<string>", Desc: "Stop at a clock time (e.g., \"22:00\" or \"10:00PM\")"},
	{Short: "-v", Long: "--version", Desc: "Show version information"},
	{Short: "-h", Long: "--help", Desc: "Show help message"},
}

func main() {
	if err := writeCompletions("docs/completions"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeMan("man"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeCompletions(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string]string{
		appName + ".bash": bashCompletion(),
		"_" + appName:     zshCompletion(),
		appName + ".fish": fishCompletion(),
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func bashCompletion() string {
	var opts []string
	for _, f := range flags {
		if f.Short != "" {
			opts = append(opts, f.Short)
		}
		opts = append(opts, f.Long)
	}

	var b strings.Builder
	b.WriteString("_" + appName + "() {\n")
	b.WriteString("  local cur prev opts\n")
	b.WriteString("  COMPREPLY=()\n")
	b.WriteString("  cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("  prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("  case \"${prev}\" in\n")
	b.WriteString("    -s|--scenario|--log-file)\n")
	b.WriteString("      COMPREPLY=( $(compgen -f -- ${cur}) )\n")
	b.WriteString("      return 0 ;;\n")
	b.WriteString("    --on-error)\n")
	b.WriteString("      COMPREPLY=( $(compgen -W \"abort continue\" -- ${cur}) )\n")
	b.WriteString("      return 0 ;;\n")
	b.WriteString("  esac\n")
	b.WriteString("  opts=\"" + strings.Join(opts, " ") + "\"\n")
	b.WriteString("  if [[ ${cur} == -* ]] ; then\n")
	b.WriteString("    COMPREPLY=( $(compgen -W \"${opts}\" -- ${cur}) )\n")
	b.WriteString("    return 0\n")
	b.WriteString("  fi\n")
	b.WriteString("}\n")
	b.WriteString("complete -F _" + appName + " " + appName + "\n")
	return b.String()
}

func zshCompletion() string {
	parts := make([]string, 0, len(flags))
	for _, f := range flags {
		parts = append(parts, fmt.Sprintf("'%s[%s]%s'", zFlagName(f), escapeSingleQuotes(f.Desc), zArgSuffix(f)))
	}
	return "#compdef " + appName + "\n_arguments " + strings.Join(parts, " \\\n  ") + "\n"
}

func zFlagName(f flagDef) string {
	if f.Arg != "" {
		// zsh requires = for options with arguments
		return f.Long + "="
	}
	return f.Long
}

func zArgSuffix(f flagDef) string {
	switch {
	case f.Arg == "":
		return ""
	case f.Long == "--on-error":
		return ":policy:(abort continue)"
	case f.Arg == "<file>":
		return ":file:_files"
	default:
		return ":value:" + strings.Trim(f.Arg, "<>")
	}
}

func fishCompletion() string {
	var b strings.Builder
	b.WriteString("complete -c " + appName + " -f\n")
	for _, f := range flags {
		b.WriteString("complete -c " + appName)
		if f.Short != "" {
			b.WriteString(" -s " + strings.TrimPrefix(f.Short, "-"))
		}
		b.WriteString(" -l " + strings.TrimPrefix(f.Long, "--"))
		if f.Arg != "" {
			b.WriteString(" -r")
		} else {
			b.WriteString(" -f")
		}
		b.WriteString(" -d \"" + strings.ReplaceAll(f.Desc, "\"", "\\\"") + "\"\n")
	}
	return b.String()
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "'\\''")
}

func writeMan(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, appName+".1"), []byte(manPage()), 0o644)
}

func manPage() string {
	var b strings.Builder
	b.WriteString(".TH \"" + strings.ToUpper(appName) + "\" \"1\" \"\" \"" + appName + "\" \"User Commands\"\n")
	b.WriteString(".SH NAME\n" + appName + " \\- " + appDescription + "\n")

	b.WriteString(".SH SYNOPSIS\n.B " + appName + "\n")
	for _, f := range flags {
		b.WriteString("[" + roff(flagNames(f, "|")) + "]\n")
	}

	b.WriteString(".SH DESCRIPTION\n" + appDescription + "\n")
	b.WriteString(".PP\nA scenario lists weighted action items and the bounds, in seconds, of the\n" +
		"pause between ticks. While active, every tick picks one item uniformly at\n" +
		"random and runs its handler. Built-in types are random_mouse, window_change\n" +
		"and idle. Unknown types are skipped with a warning.\n")

	b.WriteString(".SH OPTIONS\n")
	for _, f := range flags {
		b.WriteString(".TP\n\\fB" + roff(flagNames(f, ", ")) + "\\fR\n" + f.Desc + "\n")
	}

	b.WriteString(".SH ENVIRONMENT\n")
	for _, f := range flags {
		if f.Env == "" {
			continue
		}
		b.WriteString(".TP\n\\fB" + f.Env + "\\fR\nSame as " + roff(f.Long) + ". The flag wins when both are set.\n")
	}

	b.WriteString(".SH EXAMPLES\n")
	b.WriteString(".TP\n\\fB" + appName + "\\fR\nStart the TUI paused with scenario.json.\n")
	b.WriteString(".TP\n\\fB" + appName + " \\-e \\-d 2h30m\\fR\nStay active for 2 hours 30 minutes.\n")
	b.WriteString(".TP\n\\fB" + appName + " \\-\\-headless \\-e \\-c 17:30\\fR\nRun without UI until 5:30 PM.\n")
	b.WriteString(".SH SEE ALSO\nxdotool(1)\n")
	return b.String()
}

func flagNames(f flagDef, sep string) string {
	names := f.Long
	if f.Short != "" {
		names = f.Short + sep + f.Long
	}
	if f.Arg != "" {
		names += " " + f.Arg
	}
	return names
}

// roff escapes hyphens so man renders them as minus signs.
func roff(s string) string {
	return strings.ReplaceAll(s, "-", "\\-")
}
