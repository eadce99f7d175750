package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

// Expiry markers shown next to the remaining days
const (
	markHealthy = "✅"
	markWarning = "⚠️"
	markExpired = "❌"
	markUnknown = "?"
)

// ExpiryMark returns the marker for an expiry status
func ExpiryMark(status inspector.ExpiryStatus) string {
	switch status {
	case inspector.ExpiryHealthy:
		return markHealthy
	case inspector.ExpiryWarning:
		return markWarning
	case inspector.ExpiryExpired:
		return markExpired
	}
	return markUnknown
}

func expiryStyle(status inspector.ExpiryStatus) lipgloss.Style {
	switch status {
	case inspector.ExpiryHealthy:
		return SuccessStyle
	case inspector.ExpiryWarning:
		return WarningStyle
	case inspector.ExpiryExpired:
		return ErrorStyle
	}
	return MutedStyle
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// RenderReport renders a ScanReport for terminal output
func RenderReport(r *inspector.ScanReport) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(r.Domain.String()))
	b.WriteString("\n\n")

	cert := r.Certificate
	expiry := cert.ValidTo
	if r.DaysRemaining != nil {
		expiry = fmt.Sprintf("%s (%d days) %s", cert.ValidTo, *r.DaysRemaining, ExpiryMark(r.ExpiryStatus))
	}

	lines := []string{
		RenderSection("Certificate"),
		row("Issuer", cert.Issuer),
		row("Valid from", cert.ValidFrom),
		row("Valid to", expiryStyle(r.ExpiryStatus).Render(expiry)),
		row("Serial", cert.SerialNumber),
		row("Self-signed", yesNo(cert.IsSelfSigned)),
		RenderSection("Cipher"),
	}

	if r.Cipher != nil {
		weak := yesNo(r.Cipher.IsWeak)
		if r.Cipher.IsWeak {
			weak = ErrorStyle.Render(weak)
		}
		lines = append(lines,
			row("Suite", r.Cipher.CipherName),
			row("Protocol", r.Cipher.Protocol),
			row("Bits", fmt.Sprintf("%d", r.Cipher.Bits)),
			row("Weak", weak),
		)
	} else {
		lines = append(lines, MutedStyle.Render("unavailable"))
	}

	lines = append(lines,
		RenderSection("Transparency"),
		row("CT log entries", fmt.Sprintf("%d", r.CTLogEntries)),
		row("Scanned at", r.ScanTime.UTC().Format(time.RFC3339)),
	)

	if len(r.Warnings) > 0 {
		lines = append(lines, RenderSection("Warnings"))
		for _, w := range r.Warnings {
			lines = append(lines, RenderWarning(w.Message))
		}
	}

	b.WriteString(strings.Join(lines, "\n"))
	return BoxStyle.Render(b.String())
}

// RenderFailure renders a failed scan
func RenderFailure(domain string, err error) string {
	// scan errors already name their kind and domain
	if inspector.KindOf(err) != "" {
		return RenderError(err.Error())
	}
	return RenderError(fmt.Sprintf("%s: %v", domain, err))
}
