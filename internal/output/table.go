package output

import (
	"bytes"

	"github.com/olekukonko/tablewriter"

	"github.com/temirov/stitch/internal/profile"
)

const (
	profileNameHeader    = "Name"
	profileScopeHeader   = "Scope"
	profileCurrentHeader = "Current"
	currentProfileMarker = "*"
)

// RenderProfileTable lists profiles as a borderless table, marking the current one.
func RenderProfileTable(metas []profile.Meta, currentProfile string) string {
	var tableBuffer bytes.Buffer
	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{profileNameHeader, profileScopeHeader, profileCurrentHeader})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})
	for _, meta := range metas {
		marker := ""
		if meta.Name == currentProfile {
			marker = currentProfileMarker
		}
		table.Append([]string{meta.Name, meta.Scope.String(), marker})
	}
	table.Render()
	return tableBuffer.String()
}
