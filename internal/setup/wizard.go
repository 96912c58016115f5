// Package setup holds the interactive wizard that writes a zlend config file.
package setup

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/zlend/config"
	"github.com/vadiminshakov/zlend/internal/session"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	summaryStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1)
)

// Answers collected by the wizard.
type Answers struct {
	Network  string
	RPC      string
	Approval string
	LogLevel string
	LogFile  string
}

// DefaultAnswers values preselected in the wizard.
func DefaultAnswers() Answers {
	return Answers{
		Network:  "linea",
		Approval: string(session.ApprovalExact),
		LogLevel: "info",
		LogFile:  "zlend.log",
	}
}

// BuildConfig turns answers into a config file body. Only values that differ from
// the built-in network table end up under networks.
func BuildConfig(a Answers) config.ConfigTmp {
	cfg := config.ConfigTmp{
		Network:  strings.ToLower(strings.TrimSpace(a.Network)),
		Approval: a.Approval,
		Log: config.LogTmp{
			Level: a.LogLevel,
			File:  strings.TrimSpace(a.LogFile),
		},
	}
	if rpc := strings.TrimSpace(a.RPC); rpc != "" {
		cfg.Networks = map[string]config.NetworkTmp{cfg.Network: {RPC: rpc}}
	}
	return cfg
}

// Save writes cfg to path and checks that the result loads.
func Save(path string, cfg config.ConfigTmp) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	if _, err := config.Load(config.Overrides{ConfigPath: path}); err != nil {
		return errors.Wrap(err, "generated config is invalid")
	}
	return nil
}

// RunTUI asks for the config values and writes them to path.
func RunTUI(path string) error {
	a := DefaultAnswers()

	networkOptions := make([]huh.Option[string], 0)
	for _, name := range config.NetworkNames() {
		networkOptions = append(networkOptions, huh.NewOption(name, name))
	}

	fmt.Println(headerStyle.Render("ZLEND CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Values left empty fall back to the built-in network table.\n"))

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Network").
				Options(networkOptions...).
				Value(&a.Network),
			huh.NewInput().
				Title("RPC endpoint").
				Description("Leave empty to use the network default").
				Value(&a.RPC).
				Validate(validateRPC),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Approval before supply").
				Options(
					huh.NewOption("Exact amount", string(session.ApprovalExact)),
					huh.NewOption("Unlimited", string(session.ApprovalUnlimited)),
					huh.NewOption("None (allowance already set)", string(session.ApprovalNone)),
				).
				Value(&a.Approval),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&a.LogLevel),
			huh.NewInput().
				Title("Log file").
				Value(&a.LogFile),
		),
	).Run()
	if err != nil {
		return err
	}

	rpc := a.RPC
	if rpc == "" {
		rpc = "(default)"
	}
	fmt.Println(summaryStyle.Render(fmt.Sprintf(
		"Network: %s\nRPC: %s\nApproval: %s\nLog: %s (%s)",
		a.Network, rpc, a.Approval, a.LogFile, a.LogLevel,
	)))

	var confirm bool
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errors.New("setup cancelled by user")
	}

	if err := Save(path, BuildConfig(a)); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\nConfiguration saved to %s", path)))
	return nil
}

func validateRPC(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return nil
	default:
		return errors.New("scheme must be http, https, ws or wss")
	}
}
