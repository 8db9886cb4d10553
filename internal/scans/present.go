package scans

import (
	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Presentation is how a scan's state is shown in lists and reports
type Presentation struct {
	Icon     string `json:"icon"`
	LabelKey string `json:"label_key"`
	Label    string `json:"label"`
	Color    string `json:"color"`
}

// Present maps (status, severity) to icon, label and colour. Labels are
// resolved in lang.
func Present(lang i18n.Lang, status types.ScanStatus, severity types.Severity) Presentation {
	p := present(status, severity)
	p.Label = i18n.T(lang, p.LabelKey)
	return p
}

func present(status types.ScanStatus, severity types.Severity) Presentation {
	switch status {
	case types.ScanStatusPending, types.ScanStatusProcessing:
		return Presentation{Icon: "clock", LabelKey: "status.analyzing", Color: "blue"}
	case types.ScanStatusFailed:
		return Presentation{Icon: "x-circle", LabelKey: "status.failed", Color: "gray"}
	case types.ScanStatusCompleted:
		switch severity {
		case types.SeveritySafe:
			return Presentation{Icon: "check-circle", LabelKey: "status.safe", Color: "green"}
		case types.SeverityWarning:
			return Presentation{Icon: "alert-triangle", LabelKey: "status.warning", Color: "yellow"}
		case types.SeverityDanger:
			return Presentation{Icon: "alert-triangle", LabelKey: "status.danger", Color: "red"}
		}
	}
	return Presentation{Icon: "shield", LabelKey: "status.processing", Color: "gray"}
}
