package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"embedup/internal/config"
)

// PTermPresenter renders the run with pterm: header panel, one spinner per
// component and a summary table at the end.
type PTermPresenter struct {
	spinner *pterm.SpinnerPrinter
}

// NewPTermPresenter creates the default terminal presenter.
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{}
}

// Start prints the run header and configuration panel.
func (p *PTermPresenter) Start(info RunInfo) {
	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("embedup - Embedded Rust Toolchain Manager")

	pterm.Println()

	panel := fmt.Sprintf("Action:  %s\n", pterm.Cyan(info.Action))
	if info.Version != "" {
		panel += fmt.Sprintf("Version: %s\n", pterm.Cyan(info.Version))
	}
	panel += fmt.Sprintf("Host:    %s\n", info.HostTriple)
	if len(info.Targets) > 0 {
		panel += fmt.Sprintf("Targets: %s\n", strings.Join(info.Targets, ", "))
	}
	panel += fmt.Sprintf("Root:    %s", info.InstallRoot)

	pterm.DefaultBox.
		WithTitle("Configuration").
		WithTitleTopCenter().
		WithLeftPadding(2).
		WithRightPadding(2).
		Println(panel)
	pterm.Println()
}

// StepStart opens a spinner for a component.
func (p *PTermPresenter) StepStart(name string) {
	p.stopSpinner()
	p.spinner, _ = pterm.DefaultSpinner.Start(name)
}

// StepDone resolves the component spinner as success.
func (p *PTermPresenter) StepDone(name string) {
	if p.spinner != nil {
		p.spinner.Success(name)
		p.spinner = nil
	}
}

// StepFailed resolves the component spinner as failure.
func (p *PTermPresenter) StepFailed(name string, err error) {
	if p.spinner != nil {
		p.spinner.Fail(fmt.Sprintf("%s: %v", name, err))
		p.spinner = nil
	}
}

// Summary prints the result table for a completed run.
func (p *PTermPresenter) Summary(rec *config.Record, elapsed time.Duration) {
	p.stopSpinner()
	pterm.Println()

	rows := pterm.TableData{{"Component", "Version", "Path"}}
	for _, c := range rec.Components {
		rows = append(rows, []string{c.Name, c.Version, c.Path})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	pterm.Println()
	pterm.Success.Printfln("Done in %s", elapsed.Round(time.Second))
	pterm.Info.Println("Restart your shell, or source the env file, to pick up the new environment.")
}

// Failure reports a run that stopped on an error.
func (p *PTermPresenter) Failure(err error) {
	p.stopSpinner()
	pterm.Println()
	pterm.Error.Println(err.Error())
}

func (p *PTermPresenter) stopSpinner() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}
