package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssw/common"
	"cssw/config"
	"cssw/edit"
	"cssw/misc"
	"cssw/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()
	env.Overwrite = cmd.Bool("overwrite")

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	env.RestoreStdLog()

	// log is synced now and result can be used in report, errors must be
	// reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Regular errors are returned from subcommands instead of cli.Exit().
var errWasHandled bool

// called before appContext is destroyed so error could be logged
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// reported either by exitErrHandler or on exit directly to stderr
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func charsetFlag() cli.Flag {
	return &cli.StringFlag{Name: "charset", Aliases: []string{"cs"},
		Usage: "decode non UTF-8 sources from `ENCODING` (see IANA.org for character set names)"}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{Name: "db", Usage: "use baseline store at `FILE` instead of configured one"}
}

const destinationHelp = `
DESTINATION:
    file name to write result to, if absent - STDOUT
`

func main() {

	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "stylesheet editing engine: format, diff, merge, namespace and inject CSS",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "replace destination files if they exist"},
		},
		Commands: []*cli.Command{
			{
				Name:         "format",
				Usage:        "Reformats stylesheet",
				OnUsageError: usageErrorHandler,
				Action:       edit.Format,
				Flags: []cli.Flag{
					charsetFlag(),
					&cli.BoolFlag{Name: "compress", Usage: "fold blocks with duplicate selectors into a single block"},
				},
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
			},
			{
				Name:         "namespace",
				Usage:        "Scopes every selector of stylesheet with namespace class",
				OnUsageError: usageErrorHandler,
				Action:       edit.Namespace,
				Flags: []cli.Flag{
					charsetFlag(),
					&cli.StringFlag{Name: "class", Usage: "namespace `CLASS` selector, if absent - configured or generated namespace"},
				},
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
			},
			{
				Name:         "unnamespace",
				Usage:        "Removes namespace class from every selector of stylesheet",
				OnUsageError: usageErrorHandler,
				Action:       edit.Unnamespace,
				Flags: []cli.Flag{
					charsetFlag(),
					&cli.StringFlag{Name: "class", Usage: "namespace `CLASS` selector, if absent - configured or generated namespace"},
				},
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
			},
			{
				Name:         "diff",
				Usage:        "Outputs changes turning BASE stylesheet into LIVE one",
				OnUsageError: usageErrorHandler,
				Action:       edit.Diff,
				Flags: []cli.Flag{
					charsetFlag(),
					&cli.BoolFlag{Name: "css", Usage: "output patch as stylesheet, deleted rules are not shown"},
				},
				ArgsUsage:          "BASE LIVE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
			},
			{
				Name:         "merge",
				Usage:        "Merges INCOMING stylesheet into BASE one",
				OnUsageError: usageErrorHandler,
				Action:       edit.Merge,
				Flags: []cli.Flag{
					charsetFlag(),
					&cli.BoolFlag{Name: "reverse", Usage: "match selectors from the end of BASE and put new blocks in front"},
				},
				ArgsUsage:          "BASE INCOMING [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
			},
			{
				Name:         "inject",
				Usage:        "Places stylesheet into page as style element",
				OnUsageError: usageErrorHandler,
				Action:       edit.Inject,
				Flags: []cli.Flag{
					charsetFlag(),
					&cli.StringFlag{Name: "id", Usage: "style element `ID`, if absent - configured or derived from SOURCE name"},
					&cli.StringFlag{Name: "format",
						Usage: "page `TYPE` (supported types: " + strings.Join(common.HostFormatNames(), ", ") + "), if absent - guessed from PAGE name"},
					&cli.StringFlag{Name: "mode", Usage: "injection `MODE` (asis, reformat, nonamespace)"},
					&cli.BoolFlag{Name: "clear", Usage: "remove style element instead, only PAGE is expected"},
					&cli.BoolFlag{Name: "rebase", Usage: "rewrite relative url() and @import references to resolve from PAGE directory"},
				},
				ArgsUsage: "SOURCE PAGE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
PAGE:
    html or xhtml document to place stylesheet into, existing element with the
    same id is replaced
%s`, cli.CommandHelpTemplate, destinationHelp),
			},
			{
				Name:         "extract",
				Usage:        "Collects styles of all style elements of page into a single stylesheet",
				OnUsageError: usageErrorHandler,
				Action:       edit.Extract,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format",
						Usage: "page `TYPE` (supported types: " + strings.Join(common.HostFormatNames(), ", ") + "), if absent - guessed from PAGE name"},
					&cli.StringFlag{Name: "class", Usage: "remove namespace `CLASS` from extracted selectors"},
				},
				ArgsUsage:          "PAGE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
			},
			{
				Name:         "tree",
				Usage:        "Outputs parsed object model of stylesheet",
				OnUsageError: usageErrorHandler,
				Action:       edit.Tree,
				Flags: []cli.Flag{
					charsetFlag(),
					&cli.BoolFlag{Name: "selectors", Usage: "output only sorted list of distinct selectors"},
				},
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
			},
			{
				Name:            "baseline",
				Usage:           "Manages stored stylesheet baselines",
				HideHelpCommand: true,
				OnUsageError:    usageErrorHandler,
				Commands: []*cli.Command{
					{
						Name:         "save",
						Usage:        "Stores stylesheet under ID replacing previous version",
						OnUsageError: usageErrorHandler,
						Action:       edit.BaselineSave,
						Flags:        []cli.Flag{dbFlag(), charsetFlag()},
						ArgsUsage:    "ID SOURCE",
					},
					{
						Name:         "diff",
						Usage:        "Outputs changes turning stored baseline into SOURCE",
						OnUsageError: usageErrorHandler,
						Action:       edit.BaselineDiff,
						Flags: []cli.Flag{dbFlag(), charsetFlag(),
							&cli.BoolFlag{Name: "css", Usage: "output patch as stylesheet, deleted rules are not shown"},
						},
						ArgsUsage:          "ID SOURCE [DESTINATION]",
						CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
					},
					{
						Name:               "list",
						Usage:              "Lists stored baselines",
						OnUsageError:       usageErrorHandler,
						Action:             edit.BaselineList,
						Flags:              []cli.Flag{dbFlag()},
						ArgsUsage:          "[DESTINATION]",
						CustomHelpTemplate: cli.CommandHelpTemplate + destinationHelp,
					},
					{
						Name:         "drop",
						Usage:        "Removes stored baseline",
						OnUsageError: usageErrorHandler,
						Action:       edit.BaselineDrop,
						Flags:        []cli.Flag{dbFlag()},
						ArgsUsage:    "ID",
					},
					{
						Name:         "export",
						Usage:        "Writes stored baseline as stylesheet file",
						OnUsageError: usageErrorHandler,
						Action:       edit.BaselineExport,
						Flags:        []cli.Flag{dbFlag()},
						ArgsUsage:    "ID [DIRECTORY]",
						CustomHelpTemplate: fmt.Sprintf(`%s
DIRECTORY:
    where to put ID.css, if absent - current working directory
`, cli.CommandHelpTemplate),
					},
				},
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// log may be either not set yet (argument parsing) or already closed
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer func() {
			err = multierr.Append(err, out.Close())
		}()
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
