package board

import "agentdeck/internal/domain"

// Status palette shared by report panels and agent badges.
const (
	ColorPending    = "#94A3B8"
	ColorInProgress = "#F59E0B"
	ColorCompleted  = "#10B981"
	ColorError      = "#EF4444"
)

// StatusColor returns the palette color for a lifecycle status.
func StatusColor(s domain.ReportStatus) string {
	switch s {
	case domain.StatusInProgress:
		return ColorInProgress
	case domain.StatusCompleted:
		return ColorCompleted
	case domain.StatusError:
		return ColorError
	default:
		return ColorPending
	}
}

// SignalColor returns the badge color for a trading signal.
func SignalColor(k domain.SignalKind) string {
	switch k {
	case domain.SignalBuy:
		return ColorCompleted
	case domain.SignalSell:
		return ColorError
	default:
		return ColorInProgress
	}
}

// CategoryColor returns the color for a sign category on the account panel.
func CategoryColor(c domain.Category) string {
	switch c {
	case domain.CategoryPositive:
		return ColorCompleted
	case domain.CategoryNegative:
		return ColorError
	default:
		return ColorPending
	}
}

// RoleColor returns the speaker color for a debate role.
func RoleColor(r domain.DebateRole) string {
	switch r {
	case domain.RoleBull:
		return ColorCompleted
	case domain.RoleBear:
		return ColorError
	case domain.RoleRisky:
		return ColorInProgress
	case domain.RoleSafe:
		return "#3B82F6"
	default:
		return ColorPending
	}
}

// ControlStyle describes a selectable control (report tab or symbol
// button). All active-state styling flows through StyleFor so tabs and
// symbol buttons can never drift apart.
type ControlStyle struct {
	Background string
	Text       string
	Border     string
	Bold       bool
}

var (
	activeControl = ControlStyle{
		Background: "#3B82F6",
		Text:       "#FFFFFF",
		Border:     "#3B82F6",
		Bold:       true,
	}
	inactiveControl = ControlStyle{
		Background: "transparent",
		Text:       "#94A3B8",
		Border:     "#334155",
	}
)

// StyleFor returns the control style for the given active state.
func StyleFor(active bool) ControlStyle {
	if active {
		return activeControl
	}
	return inactiveControl
}
