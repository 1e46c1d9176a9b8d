package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/muurk/ssdpd/internal/catalog"
)

// shortType trims a UPnP type URN to its name and version
// ("urn:schemas-upnp-org:device:BinaryLight:1" becomes "BinaryLight:1")
func shortType(urn string) string {
	parts := strings.Split(urn, ":")
	if len(parts) < 2 {
		return urn
	}
	return parts[len(parts)-2] + ":" + parts[len(parts)-1]
}

// RenderDeviceTable renders catalogued devices as a table
func RenderDeviceTable(devices []*catalog.Device, width int) string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{
			d.FriendlyName,
			shortType(d.DeviceType),
			d.Identifier,
			d.Location,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Width(clampWidth(width)).
		Headers("NAME", "TYPE", "IDENTIFIER", "LOCATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col >= 2:
				return TableMutedCellStyle
			default:
				return TableCellStyle
			}
		}).
		Render()
}

// RenderDeviceTree renders a device with its services, actions and
// arguments. Argument data types are resolved through the related state
// variable.
func RenderDeviceTree(d *catalog.Device) string {
	root := tree.Root(d.FriendlyName + "  " + lipgloss.NewStyle().Foreground(MutedColor).Render(d.Identifier)).
		RootStyle(TreeRootStyle).
		EnumeratorStyle(TreeEnumeratorStyle).
		Enumerator(tree.RoundedEnumerator)

	root.Child(
		"type      "+d.DeviceType,
		"location  "+d.Location,
	)
	if d.Manufacturer != "" || d.ModelName != "" {
		root.Child(fmt.Sprintf("model     %s %s", d.Manufacturer, d.ModelName))
	}

	for _, svc := range d.Services {
		node := tree.Root(shortType(svc.Type))
		if svc.SCPD == nil {
			node.Child(HintItemStyle.Render("description unavailable"))
			root.Child(node)
			continue
		}
		for _, action := range svc.SCPD.Actions {
			an := tree.Root(action.Name + "()")
			for i := range action.Arguments {
				arg := &action.Arguments[i]
				dataType := "?"
				if v := svc.SCPD.GetStateVariable(arg.RelatedStateVariable); v != nil {
					dataType = v.DataType.Name
				}
				an.Child(fmt.Sprintf("%-3s %s %s", arg.Direction, arg.Name,
					HintItemStyle.Render(dataType)))
			}
			node.Child(an)
		}
		root.Child(node)
	}
	return root.String()
}

// EventLine renders one catalog change for streaming output
func EventLine(kind string, d *catalog.Device) string {
	var marker string
	switch kind {
	case "added":
		marker = SuccessTitleStyle.Render("+")
	case "removed":
		marker = ErrorTitleStyle.Render("-")
	default:
		marker = WarningTitleStyle.Render("~")
	}
	return fmt.Sprintf("%s %s  %s  %s", marker, d.FriendlyName,
		HintItemStyle.Render(shortType(d.DeviceType)), HintItemStyle.Render(d.Identifier))
}
