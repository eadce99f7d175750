package initcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-inspector/internal/config"
	"github.com/certwatch-app/cw-inspector/internal/ui"
)

// Wizard manages the interactive configuration wizard.
type Wizard struct {
	state      *WizardState
	outputPath string
}

// NewWizard creates a new wizard instance.
func NewWizard() *Wizard {
	return &Wizard{
		state: NewWizardState(),
	}
}

// SetOutputPath sets the output path (from command line flag).
func (w *Wizard) SetOutputPath(path string) {
	w.outputPath = path
	if path != "" {
		w.state.ConfigPath = path
	}
}

// Run executes the wizard flow.
func (w *Wizard) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println()
		fmt.Println(ui.RenderWarning("Setup canceled by user"))
		os.Exit(0)
	}()

	fmt.Println()
	fmt.Println(ui.RenderHeader("cw-inspector Setup"))
	fmt.Println()

	if err := NewWelcomeForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	if err := w.handleExistingFile(); err != nil {
		return err
	}

	fmt.Println(ui.RenderSection("Inspector"))
	if err := NewInspectorForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	fmt.Println(ui.RenderSection("Transparency & Cache"))
	if err := NewDataForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	fmt.Println(ui.RenderSection("Watch"))
	if err := NewWatchForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	fmt.Println(ui.RenderSection("Domains to Watch"))
	if err := w.runDomainForms(); err != nil {
		return w.handleError(err)
	}

	cfg, err := w.state.ToConfig()
	if err != nil {
		return w.handleError(fmt.Errorf("failed to create configuration: %w", err))
	}

	if err := validate(cfg); err != nil {
		return w.handleValidationError(err)
	}

	fmt.Println()
	if err := WriteConfig(cfg, w.state.ConfigPath); err != nil {
		return w.handleError(err)
	}

	w.showSuccess(os.Stdout)

	return nil
}

func (w *Wizard) runDomainForms() error {
	domainNum := 1

	for {
		w.state.ResetCurrentDomain()

		if err := NewDomainForm(w.state, domainNum).Run(); err != nil {
			return err
		}

		w.state.SaveCurrentDomain()

		if !w.state.AddAnother {
			break
		}

		domainNum++
	}

	if len(w.state.Domains) == 0 {
		return fmt.Errorf("at least one domain is required")
	}

	return nil
}

func (w *Wizard) handleExistingFile() error {
	if !FileExists(w.state.ConfigPath) {
		return nil
	}

	if err := NewOverwriteConfirmForm(w.state, w.state.ConfigPath).Run(); err != nil {
		return w.handleError(err)
	}

	if !w.state.OverwriteFile {
		fmt.Println(ui.RenderWarning("Setup canceled: file already exists"))
		os.Exit(0)
	}

	return nil
}

func (w *Wizard) handleError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println()
		fmt.Println(ui.RenderWarning("Setup canceled"))
		os.Exit(0)
	}
	fmt.Println()
	fmt.Println(ui.RenderError(err.Error()))
	return err
}

func (w *Wizard) handleValidationError(err error) error {
	fmt.Println()
	fmt.Println(ui.RenderError("Configuration validation failed:"))
	fmt.Println(ui.RenderError("  " + err.Error()))
	fmt.Println()
	fmt.Println(ui.RenderInfo("Please run 'cw-inspector init' again with corrected values."))
	return err
}

func (w *Wizard) showSuccess(out io.Writer) {
	path := w.state.ConfigPath

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.RenderSuccess("Config written to "+path))
	fmt.Fprintln(out, ui.RenderSuccess("Validated successfully"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.TitleStyle.Render("Configuration Summary:"))
	fmt.Fprintln(out, ui.MutedStyle.Render("  Domains:  ")+fmt.Sprintf("%d", len(w.state.Domains)))
	fmt.Fprintln(out, ui.MutedStyle.Render("  Schedule: ")+w.state.Schedule)
	fmt.Fprintln(out, ui.MutedStyle.Render("  Cache:    ")+w.state.CacheBackend)
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.TitleStyle.Render("Next steps:"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  To scan a domain once:")
	fmt.Fprintln(out, "    "+ui.RenderCode("cw-inspector scan example.com -c "+path))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  To start watching:")
	fmt.Fprintln(out, "    "+ui.RenderCode("cw-inspector watch -c "+path))
	fmt.Fprintln(out)
}

// validate runs the general checks plus the watch checks when domains are set
func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(cfg.Watch.Domains) > 0 {
		return cfg.ValidateWatch()
	}
	return nil
}

// RunNonInteractive runs the wizard in non-interactive mode using environment variables.
func RunNonInteractive(outputPath string) error {
	state := NewWizardState()
	state.ConfigPath = outputPath

	if level := os.Getenv("CWI_LOG_LEVEL"); level != "" {
		state.LogLevel = level
	}

	if port := os.Getenv("CWI_INSPECTOR_PORT"); port != "" {
		state.PortStr = port
	}

	if backend := os.Getenv("CWI_CACHE_BACKEND"); backend != "" {
		state.CacheBackend = backend
	}

	if addr := os.Getenv("CWI_CACHE_REDIS_ADDR"); addr != "" {
		state.RedisAddr = addr
	}

	if schedule := os.Getenv("CWI_WATCH_SCHEDULE"); schedule != "" {
		state.Schedule = schedule
	}

	state.WebhookURL = os.Getenv("CWI_WATCH_WEBHOOK_URL")
	state.Domains = parseDomainList(os.Getenv("CWI_WATCH_DOMAINS"))

	cfg, err := state.ToConfig()
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := WriteConfig(cfg, state.ConfigPath); err != nil {
		return err
	}

	fmt.Println(ui.RenderSuccess("Config written to " + state.ConfigPath))
	return nil
}
