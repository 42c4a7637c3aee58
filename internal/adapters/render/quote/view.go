package quote

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bnema/meli-relist-cli/internal/application"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
}

func renderBatch(batch application.BatchView, s styles) string {
	lines := []string{
		s.title.Render("Pricing Quote"),
		s.header.Render(fmt.Sprintf("request: %s  accounts: %d", batch.RequestID, len(batch.Results))),
	}

	if len(batch.Results) == 0 {
		lines = append(lines, s.empty.Render("No accounts quoted."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	nicknames := make([]string, 0, len(batch.Results))
	for nickname := range batch.Results {
		nicknames = append(nicknames, nickname)
	}
	sort.Strings(nicknames)

	for _, nickname := range nicknames {
		lines = append(lines, s.section.Render(renderQuote(nickname, batch.Results[nickname], s)))
	}

	if len(batch.Conflicts) > 0 {
		lines = append(lines, s.section.Render(s.warning.Render(
			fmt.Sprintf("credential changed elsewhere, stored record kept: %s", strings.Join(batch.Conflicts, ", ")),
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderQuote(nickname string, view application.QuoteView, s styles) string {
	title := nickname
	if view.AccountShippingMode != "" {
		title = fmt.Sprintf("%s (%s)", nickname, view.AccountShippingMode)
	}
	parts := []string{s.account.Render(title)}

	if view.Error != "" {
		parts = append(parts, tierLine("error:", s.warning.Render(view.Error), s))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if line, ok := priceLine("classic:", view.ClassicPrice, view.ClassicFeesInfo, view.ClassicError, s); ok {
		parts = append(parts, line)
	}
	if line, ok := priceLine("premium:", view.PremiumPrice, view.PremiumFeesInfo, view.PremiumError, s); ok {
		parts = append(parts, line)
	}
	parts = append(parts, shippingLine(view, s))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func priceLine(label string, price *float64, feesInfo string, tierErr string, s styles) (string, bool) {
	switch {
	case tierErr != "":
		return tierLine(label, s.warning.Render(tierErr), s), true
	case price == nil:
		return "", false
	}

	return tierLine(label, lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.price.Render(formatBRL(*price)),
		"  ",
		feesStyle(feesInfo, s).Render(feesInfo),
	), s), true
}

func feesStyle(feesInfo string, s styles) lipgloss.Style {
	if strings.Contains(feesInfo, "(approx.)") {
		return s.approx
	}
	return s.metadata
}

func shippingLine(view application.QuoteView, s styles) string {
	if view.ShippingListCostAPI == 0 && view.ShippingFinalCost == 0 {
		return tierLine("shipping:", s.detail.Render("none"), s)
	}

	return tierLine("shipping:", lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.detail.Render(formatBRL(view.ShippingFinalCost)),
		"  ",
		s.metadata.Render(fmt.Sprintf("(list %s, promoted %s, discount %.0f%%)",
			formatBRL(view.ShippingListCostAPI),
			formatBRL(view.ShippingPromotedAmountAPI),
			view.ShippingAPIDiscountRate*100,
		)),
	), s)
}

func tierLine(label string, value string, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, "  ", s.label.Render(label), value)
}

func renderAccounts(accounts []application.AccountView, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Linked Accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(accounts))),
	}

	if len(accounts) == 0 {
		lines = append(lines, s.empty.Render("No accounts linked. Run `mlr account link`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, account := range accounts {
		lines = append(lines, s.section.Render(renderAccount(account, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(account application.AccountView, opts RenderOptions, s styles) string {
	seller := account.SellerID
	if seller == "" {
		seller = "unresolved"
	}

	parts := []string{
		s.account.Render(fmt.Sprintf("%s (seller %s)", account.Nickname, seller)),
		tierLine("shipping:", s.detail.Render(account.ShippingMode), s),
		tierLine("token:", tokenState(account, opts, s), s),
	}
	if account.Error != "" {
		parts = append(parts, tierLine("error:", s.warning.Render(account.Error), s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func tokenState(account application.AccountView, opts RenderOptions, s styles) string {
	if !account.TokenValid {
		state := "expired"
		if account.Refreshable {
			state += ", refreshable"
		} else {
			state += ", relink required"
		}
		return s.expired.Render(state)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.valid.Render("valid"),
		" ",
		lipgloss.NewStyle().Foreground(expiryColor(account.ExpiresAt, opts.Now)).
			Render(fmt.Sprintf("(%s)", formatExpiryRelative(account.ExpiresAt, opts.Now))),
	)
}

func formatBRL(value float64) string {
	return fmt.Sprintf("R$ %.2f", value)
}

func formatExpiryRelative(expiresAt, now time.Time) string {
	if expiresAt.IsZero() {
		return "expiry unknown"
	}
	if now.IsZero() {
		return "expires " + expiresAt.Format(time.RFC3339)
	}

	remaining := expiresAt.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("expires in %d min (%s)", minutes, expiresAt.Format("15:04"))
	}

	hours := int(math.Ceil(remaining.Hours()))
	suffix := "hours"
	if hours == 1 {
		suffix = "hour"
	}
	return fmt.Sprintf("expires in %d %s (%s)", hours, suffix, expiresAt.Format("15:04"))
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// 240 is faded grey, 255 bright white on the 256-colour greyscale ramp.
	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}

// expiryColor fades from white for a fresh token toward grey as the six hour
// lifetime runs out.
func expiryColor(expiresAt, now time.Time) lipgloss.Color {
	if now.IsZero() || expiresAt.Before(now) {
		return lipgloss.Color("255")
	}

	lifetime := 6 * time.Hour
	return interpolateColor(expiresAt.Sub(now).Seconds(), 0, lifetime.Seconds())
}
