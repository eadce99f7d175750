package initcmd

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-inspector/internal/config"
	"github.com/certwatch-app/cw-inspector/internal/ui"
)

// NewWelcomeForm creates the welcome and file configuration form.
func NewWelcomeForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cw-inspector setup!").
				Description("This wizard creates a configuration file for cw-inspector.\n\n"+
					"You'll need:\n"+
					"  • The domains whose certificates you want to watch\n"+
					"  • Optionally, a webhook URL to receive scan results"),

			huh.NewInput().
				Title("Config file path").
				Description("Where to save the configuration file").
				Placeholder(DefaultConfigPath).
				Value(&state.ConfigPath).
				Validate(ValidateConfigPath),
		),
	).WithTheme(ui.CreateTheme())
}

// NewInspectorForm creates the TLS connection settings form.
func NewInspectorForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Inspector Configuration").
				Description("How cw-inspector connects to your servers"),

			huh.NewInput().
				Title("TLS Port").
				Description("Port to connect to (default: 443)").
				Placeholder("443").
				Value(&state.PortStr).
				Validate(ValidatePort),

			huh.NewSelect[string]().
				Title("Handshake Timeout").
				Description("How long to wait for a TLS handshake").
				Options(
					huh.NewOption("5 seconds", "5s"),
					huh.NewOption("10 seconds (recommended)", "10s"),
					huh.NewOption("30 seconds", "30s"),
				).
				Value(&state.HandshakeTimeout),

			huh.NewConfirm().
				Title("Verify certificate chains?").
				Description("Disable to inspect self-signed or privately issued certificates").
				Value(&state.VerifyChain).
				Affirmative("Yes").
				Negative("No"),

			huh.NewSelect[string]().
				Title("Log Level").
				Description("Logging verbosity").
				Options(
					huh.NewOption("Debug (verbose)", "debug"),
					huh.NewOption("Info (recommended)", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error (quiet)", "error"),
				).
				Value(&state.LogLevel),
		),
	).WithTheme(ui.CreateTheme())
}

// NewDataForm creates the CT lookup and cache settings form.
func NewDataForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Transparency & Cache").
				Description("Certificate Transparency lookups and certificate caching"),

			huh.NewConfirm().
				Title("Query Certificate Transparency logs?").
				Description("Counts historical certificates for each domain via crt.sh").
				Value(&state.CTEnabled).
				Affirmative("Yes").
				Negative("No"),

			huh.NewSelect[string]().
				Title("Cache Backend").
				Description("Where retrieved certificates are cached").
				Options(
					huh.NewOption("In memory (recommended)", config.CacheMemory),
					huh.NewOption("Redis (shared between instances)", config.CacheRedis),
				).
				Value(&state.CacheBackend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Redis Address").
				Description("host:port of the Redis server").
				Placeholder("localhost:6379").
				Value(&state.RedisAddr).
				Validate(ValidateRedisAddr),
		).WithHideFunc(func() bool {
			return state.CacheBackend != config.CacheRedis
		}),
	).WithTheme(ui.CreateTheme())
}

// NewWatchForm creates the scheduled rescan settings form.
func NewWatchForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Watch Configuration").
				Description("Settings for 'cw-inspector watch'"),

			huh.NewSelect[string]().
				Title("Rescan Schedule").
				Description("How often watched domains are rescanned").
				Options(
					huh.NewOption("Every hour", "@every 1h"),
					huh.NewOption("Every 6 hours (recommended)", "@every 6h"),
					huh.NewOption("Daily at 02:00", "0 2 * * *"),
				).
				Value(&state.Schedule),

			huh.NewInput().
				Title("Webhook URL").
				Description("Optional endpoint that receives every scan result").
				Placeholder("https://hooks.example.com/certs").
				Value(&state.WebhookURL).
				Validate(ValidateWebhookURL),
		),
	).WithTheme(ui.CreateTheme())
}

// NewDomainForm creates a domain entry form.
func NewDomainForm(state *WizardState, domainNum int) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Domain #%d", domainNum)).
				Description("Add a domain to watch"),

			huh.NewInput().
				Title("Domain").
				Description("The host to inspect (e.g., api.example.com)").
				Placeholder("api.example.com").
				Value(&state.CurrentDomain).
				Validate(ValidateNewDomain(state.Domains)),

			huh.NewConfirm().
				Title("Add another domain?").
				Value(&state.AddAnother).
				Affirmative("Yes").
				Negative("No"),
		),
	).WithTheme(ui.CreateTheme())
}

// NewOverwriteConfirmForm creates a form to confirm file overwrite.
func NewOverwriteConfirmForm(state *WizardState, path string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("File '%s' already exists. Overwrite?", path)).
				Description("The existing file will be replaced with the new configuration.").
				Value(&state.OverwriteFile).
				Affirmative("Yes, overwrite").
				Negative("No, cancel"),
		),
	).WithTheme(ui.CreateTheme())
}
