package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"clrhost/internal/config"
	"clrhost/internal/locator"
	"clrhost/pkg/coreclr"
)

// Version is overridden at link time with -X clrhost/internal/cli.Version=...
var Version = "dev"

type app struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string
	cfg        config.Config
	log        zerolog.Logger

	env  locator.Environment
	open func(path string) (coreclr.Library, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		log:    zerolog.Nop(),
		env:    locator.OSEnv{},
		open:   coreclr.Open,
	}
}

func (a *app) newLocator() *locator.Locator {
	return &locator.Locator{
		Env:      locator.LayeredEnv{a.env, a.cfg.Env()},
		Probe:    locator.OSProber{},
		Platform: locator.HostPlatform(),
		Log:      a.log,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clrhost",
		Short:         "Locate, link against and host the CoreCLR runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usageError{msg: "clrhost requires a subcommand"}
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", envStr(logLevelVar, ""), "Log level: debug|info|warn|error|off (defaults "+logLevelVar+" or info)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if a.configPath != "" {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			a.cfg = cfg
		}
		a.log = newLogger(a.stderr, firstNonEmpty(a.logLevel, a.cfg.LogLevel, "info"))
		return nil
	}

	root.AddCommand(a.locateCmd(), a.ldflagsCmd(), a.envCmd(), a.genCmd(), a.runCmd(), a.versionCmd())
	return root
}

func (a *app) locateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print where libcoreclr was found and how",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.newLocator().Locate()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}
			fmt.Fprintf(a.stdout, "root:     %s\n", plan.Root)
			fmt.Fprintf(a.stdout, "library:  %s\n", plan.LibraryPath())
			fmt.Fprintf(a.stdout, "source:   %s\n", plan.SourceName)
			if plan.SDKRoot != "" {
				fmt.Fprintf(a.stdout, "sdk root: %s\n", plan.SDKRoot)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	return cmd
}

func (a *app) ldflagsCmd() *cobra.Command {
	var rpath bool
	cmd := &cobra.Command{
		Use:     "ldflags",
		Short:   "Print linker flags for libcoreclr",
		Example: "  go build -ldflags=\"-extldflags '$(clrhost ldflags --rpath)'\" ./...",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.newLocator().Locate()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, plan.LDFlags(rpath || a.cfg.RPath))
			return nil
		},
	}
	cmd.Flags().BoolVar(&rpath, "rpath", false, "Also embed the root as a runtime search path")
	return cmd
}

func (a *app) envCmd() *cobra.Command {
	var rpath bool
	cmd := &cobra.Command{
		Use:     "env",
		Short:   "Print a CGO_LDFLAGS assignment for libcoreclr",
		Example: "  eval \"export $(clrhost env --rpath)\"",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.newLocator().Locate()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, plan.CGOEnv(rpath || a.cfg.RPath))
			return nil
		},
	}
	cmd.Flags().BoolVar(&rpath, "rpath", false, "Also embed the root as a runtime search path")
	return cmd
}

func (a *app) genCmd() *cobra.Command {
	var (
		out   string
		pkg   string
		tag   string
		rpath bool
	)
	cmd := &cobra.Command{
		Use:     "gen",
		Short:   "Write a Go file carrying the cgo LDFLAGS for libcoreclr",
		Example: "  //go:generate clrhost gen --rpath",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.newLocator().Locate()
			if err != nil {
				return err
			}
			opts := locator.GenOptions{Package: pkg, Tag: tag, RPath: rpath || a.cfg.RPath}
			if err := plan.WriteGoSource(out, opts); err != nil {
				return err
			}
			a.log.Info().Str("file", out).Str("package", pkg).Str("tag", tag).Msg("wrote cgo directives")
			return nil
		},
	}
	// go generate exports GOPACKAGE for the package being generated.
	cmd.Flags().StringVar(&out, "out", "zz_coreclr_link.go", "Output file")
	cmd.Flags().StringVar(&pkg, "package", envStr("GOPACKAGE", "coreclr"), "Package clause of the generated file")
	cmd.Flags().StringVar(&tag, "tag", "coreclr_link", "Build constraint for the generated file (empty for none)")
	cmd.Flags().BoolVar(&rpath, "rpath", false, "Also embed the root as a runtime search path")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var (
		appDomain   string
		props       []string
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "run <assembly.dll> [args...]",
		Short: "Load libcoreclr and execute a managed assembly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := parseProperties(props)
			if err != nil {
				return usageError{msg: err.Error()}
			}
			code, err := a.execute(args[0], args[1:], firstNonEmpty(appDomain, a.cfg.AppDomain), extra)
			if metricsFile != "" {
				if werr := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); werr != nil {
					a.log.Warn().Err(werr).Str("file", metricsFile).Msg("write metrics")
				}
			}
			if err != nil {
				return err
			}
			if code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
	// everything after the assembly belongs to the managed program
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&appDomain, "app-domain", "", "Friendly name of the application domain")
	cmd.Flags().StringArrayVar(&props, "property", nil, "Runtime property NAME=VALUE (repeatable)")
	cmd.Flags().StringVar(&metricsFile, "metrics-textfile", "", "Write host metrics in Prometheus text format to this file")
	return cmd
}

// execute runs one assembly to completion and returns its exit code.
func (a *app) execute(assembly string, args []string, appDomain string, extra []coreclr.Property) (int, error) {
	plan, err := a.newLocator().Locate()
	if err != nil {
		return 0, err
	}
	asm, err := filepath.Abs(assembly)
	if err != nil {
		return 0, err
	}
	props, err := coreclr.DefaultProperties(plan.Root, filepath.Dir(asm))
	if err != nil {
		return 0, err
	}
	props = coreclr.MergeProperties(props, a.cfg.RuntimeProperties()...)
	props = coreclr.MergeProperties(props, extra...)

	lib, err := a.open(plan.LibraryPath())
	if err != nil {
		return 0, err
	}
	defer lib.Close()

	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	host, err := coreclr.Start(lib, coreclr.StartOptions{
		ExePath:    exe,
		AppDomain:  appDomain,
		Properties: props,
		Log:        a.log,
	})
	if err != nil {
		return 0, err
	}
	code, err := host.ExecuteAssembly(asm, args)
	if serr := host.Shutdown(); serr != nil {
		a.log.Warn().Err(serr).Msg("coreclr shutdown")
	}
	return code, err
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			plat := locator.HostPlatform()
			fmt.Fprintf(a.stdout, "clrhost %s (%s, expects %s %s, %s)\n",
				Version, plat.GOOS, locator.FrameworkName, locator.FrameworkVersion, plat.LibraryFile)
		},
	}
}

func parseProperties(kvs []string) ([]coreclr.Property, error) {
	out := make([]coreclr.Property, 0, len(kvs))
	for _, kv := range kvs {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --property %q, want NAME=VALUE", kv)
		}
		out = append(out, coreclr.Property{Name: name, Value: value})
	}
	return out, nil
}
