package tree

// Icon keys the icon table of a collection.
type Icon string

const (
	IconPending            Icon = "pending"
	IconPendingAutorun     Icon = "pendingAutorun"
	IconScheduled          Icon = "scheduled"
	IconRunning            Icon = "running"
	IconRunningFailed      Icon = "runningFailed"
	IconPassed             Icon = "passed"
	IconPassedFaint        Icon = "passedFaint"
	IconPassedAutorun      Icon = "passedAutorun"
	IconPassedFaintAutorun Icon = "passedFaintAutorun"
	IconFailed             Icon = "failed"
	IconFailedFaint        Icon = "failedFaint"
	IconFailedAutorun      Icon = "failedAutorun"
	IconFailedFaintAutorun Icon = "failedFaintAutorun"
	IconSkipped            Icon = "skipped"
	IconErrored            Icon = "errored"
	IconErroredFaint       Icon = "erroredFaint"
)

// IconTable resolves icon keys to whatever the front end draws.
type IconTable map[Icon]string

// DefaultIcons is the terminal icon set.
var DefaultIcons = IconTable{
	IconPending:            "📄",
	IconPendingAutorun:     "👁 ",
	IconScheduled:          "🕒",
	IconRunning:            "⏳",
	IconRunningFailed:      "⌛",
	IconPassed:             "✅",
	IconPassedFaint:        "✔ ",
	IconPassedAutorun:      "🟢",
	IconPassedFaintAutorun: "🟩",
	IconFailed:             "❌",
	IconFailedFaint:        "✖ ",
	IconFailedAutorun:      "🔴",
	IconFailedFaintAutorun: "🟥",
	IconSkipped:            "⏭ ",
	IconErrored:            "⚠️",
	IconErroredFaint:       "⚠ ",
}

// Lookup returns the icon for key, falling back to the pending icon.
func (t IconTable) Lookup(key Icon) string {
	if icon, ok := t[key]; ok {
		return icon
	}
	return t[IconPending]
}

// StateIcon picks the icon key for a state.
func StateIcon(state NodeState) Icon {
	switch state.Current {
	case StateScheduled:
		return IconScheduled
	case StateRunning:
		return IconRunning
	case StateRunningFailed:
		return IconRunningFailed
	case StatePassed:
		return autorunIcon(IconPassed, IconPassedAutorun, state.Autorun)
	case StateFailed:
		return autorunIcon(IconFailed, IconFailedAutorun, state.Autorun)
	case StateSkipped:
		return IconSkipped
	case StateErrored:
		return IconErrored
	}

	switch state.Previous {
	case PreviousPassed:
		return autorunIcon(IconPassedFaint, IconPassedFaintAutorun, state.Autorun)
	case PreviousFailed:
		return autorunIcon(IconFailedFaint, IconFailedFaintAutorun, state.Autorun)
	case PreviousErrored:
		return IconErroredFaint
	}
	return autorunIcon(IconPending, IconPendingAutorun, state.Autorun)
}

func autorunIcon(plain, autorun Icon, on bool) Icon {
	if on {
		return autorun
	}
	return plain
}
