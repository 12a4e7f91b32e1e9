package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"junctionmirror/internal/app"
	"junctionmirror/internal/config"
	"junctionmirror/internal/domain"
	appErrors "junctionmirror/internal/errors"
	"junctionmirror/internal/infra/fs"
	"junctionmirror/internal/infra/link"
	"junctionmirror/internal/infra/lock"
	"junctionmirror/internal/logging"
	"junctionmirror/internal/presentation"
	"junctionmirror/internal/tui"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		exitWithError(err)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "junctionmirror <link-tool> <source-root> <target-root>",
		Short: "Mirror an engine tree into another location using directory links",
		Long: `junctionmirror mirrors a project tree with Plugins directories into a target root.
Directories are linked where possible; directories holding build output such as
Intermediate or Binaries are recreated with their other children linked.

Pass "builtin" as the link tool to create symlinks without an external utility.`,
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return appErrors.Wrap(appErrors.Internal, "flags", "", err)
			}
			cfg, err := config.Load(v, args)
			if err != nil {
				return appErrors.Wrap(appErrors.InvalidConfig, "config", "", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String(config.KeyPolicy, "", "TOML file with exclusive names, ignored, extra copy and plugin root paths")
	flags.BoolP(config.KeyDryRun, "d", false, "Print the plan without touching the target")
	flags.CountP(config.KeyVerbose, "v", "Verbose output (repeat for more detail)")
	flags.BoolP(config.KeyYes, "y", false, "Replace stale links without asking")
	flags.Bool(config.KeyTUI, false, "Show an interactive progress view")
	flags.Bool(config.KeyLinkEmptyLeaves, false, "Link empty non-plugin directories under Plugins instead of dropping them")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	var console io.Writer = os.Stderr
	if cfg.TUI {
		console = io.Discard
	}
	logger, closeLog, err := logging.Setup(cfg.Verbosity, console)
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "logging", "", err)
	}
	defer closeLog()

	policy, err := config.LoadPolicy(cfg.PolicyFile, cfg.LinkEmptyLeaves)
	if err != nil {
		return appErrors.Wrap(appErrors.InvalidConfig, "policy", cfg.PolicyFile, err)
	}

	filesystem := fs.OSFS{}
	planner := app.Planner{
		FS:     filesystem,
		Policy: policy,
		Logger: logger.With("component", "planner"),
	}
	executor := app.Executor{
		FS:     filesystem,
		Linker: link.New(cfg.LinkTool),
		Logger: logger.With("component", "executor"),
	}

	// The lock covers planning as well, so the plan still matches the target
	// when it is applied.
	release, err := lockTarget(cfg, filesystem)
	if err != nil {
		return err
	}
	defer release()

	if cfg.TUI {
		return runTUI(ctx, cfg, &planner, &executor)
	}

	plan, err := planner.Plan(ctx, cfg.SourceRoot, cfg.TargetRoot)
	if err != nil {
		return planError(cfg, err)
	}

	printer := presentation.Printer{
		Writer:  os.Stdout,
		Verbose: cfg.Verbose(),
	}

	if cfg.DryRun {
		printer.PrintDryRun(plan)
		return nil
	}

	relinkStale := cfg.AssumeYes
	if len(plan.StaleLinks) > 0 && !relinkStale {
		confirmed, confirmErr := confirmRelink(len(plan.StaleLinks))
		if confirmErr != nil {
			return appErrors.Wrap(appErrors.Internal, "prompt", "", confirmErr)
		}
		relinkStale = confirmed
	}

	report, err := executor.Execute(ctx, plan, relinkStale)
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "execute", cfg.TargetRoot, err)
	}

	printer.PrintExecution(plan, report)
	return nil
}

func runTUI(ctx context.Context, cfg config.Config, planner *app.Planner, executor *app.Executor) error {
	var program *tea.Program

	model := tui.NewModel(tui.Config{
		SourceDir: cfg.SourceRoot,
		TargetDir: cfg.TargetRoot,
		DryRun:    cfg.DryRun,
		Verbose:   cfg.Verbose(),
		AssumeYes: cfg.AssumeYes,
		Execute: func(plan domain.MirrorPlan, relinkStale bool) tea.Cmd {
			return func() tea.Msg {
				executor.OnProgress = func(current, total int, action domain.MirrorAction) {
					program.Send(tui.ExecProgressMsg{Current: current, Total: total, Action: action})
				}
				report, err := executor.Execute(ctx, plan, relinkStale)
				if err != nil {
					return tui.ErrorMsg{Err: err}
				}
				return tui.ExecDoneMsg{Report: report}
			}
		},
	})

	program = tea.NewProgram(model, tea.WithContext(ctx))
	planner.OnProgress = func(current, total int) {
		program.Send(tui.PlanProgressMsg{Current: current, Total: total})
	}

	go func() {
		plan, err := planner.Plan(ctx, cfg.SourceRoot, cfg.TargetRoot)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: planError(cfg, err)})
			return
		}
		program.Send(tui.PlanReadyMsg{Plan: plan})
	}()

	final, err := program.Run()
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "tui", "", err)
	}
	if m, ok := final.(tui.Model); ok && m.Phase == tui.PhaseError && m.Err != nil {
		return m.Err
	}
	return nil
}

// lockTarget takes the run lock for a real pass. A dry run neither creates
// the target root nor locks it.
func lockTarget(cfg config.Config, filesystem fs.OSFS) (func(), error) {
	if cfg.DryRun {
		return func() {}, nil
	}
	return prepareTarget(filesystem, cfg.TargetRoot)
}

// prepareTarget creates the target root and takes the run lock.
func prepareTarget(filesystem fs.OSFS, targetRoot string) (func(), error) {
	if _, err := (app.Materializer{FS: filesystem}).Ensure(targetRoot); err != nil {
		return nil, appErrors.Wrap(appErrors.IOFailure, "mkdir", targetRoot, err)
	}
	runLock, err := lock.Acquire(targetRoot)
	if err != nil {
		kind := appErrors.IOFailure
		if errors.Is(err, lock.ErrHeld) {
			kind = appErrors.Locked
		}
		return nil, appErrors.Wrap(kind, "lock", targetRoot, err)
	}
	return func() { _ = runLock.Release() }, nil
}

func planError(cfg config.Config, err error) error {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(appErrors.Internal, "plan", cfg.SourceRoot, err)
}

func confirmRelink(count int) (bool, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Replace %d stale links? [y/N]: ", count)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, appErrors.UserMessage(err))
	os.Exit(1)
}
