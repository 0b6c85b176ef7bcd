// Package output renders reader, token, and object state to the
// terminal as colored tables, in the teacher's go-pretty style.
package output

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/opencard/pkcs15mw/file"
	"github.com/opencard/pkcs15mw/pkcs15"
)

var (
	colorHeader  = text.Colors{text.FgCyan, text.Bold}
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgYellow}

	colorOK      = text.Colors{text.FgGreen}
	colorBlocked = text.Colors{text.FgRed}
	colorLow     = text.Colors{text.FgYellow}
)

func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = text.Colors{text.FgWhite}
	style.Color.RowAlternate = text.Colors{text.FgHiWhite}
	style.Options.SeparateRows = false
	return style
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	t.Style().Options.SeparateRows = false
	return t
}

// PrintReaderInfo prints the connected reader's name, ATR, and
// PIN-pad capability.
func PrintReaderInfo(readerName, atr string, hasPINPad bool) {
	fmt.Println()
	t := newTable()
	t.SetTitle("READER & CARD INFO")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	t.AppendRow(table.Row{"Reader", readerName})
	t.AppendRow(table.Row{"ATR", atr})
	padStr := "no"
	if hasPINPad {
		padStr = "yes"
	}
	t.AppendRow(table.Row{"PIN-pad", padStr})
	t.Render()
}

// PrintReaderList prints available PC/SC readers.
func PrintReaderList(readers []string) {
	fmt.Println()
	t := newTable()
	t.SetTitle("AVAILABLE SMART CARD READERS")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 8},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	if len(readers) == 0 {
		t.AppendRow(table.Row{"Status", colorWarn.Sprint("No readers found")})
	} else {
		for i, r := range readers {
			t.AppendRow(table.Row{fmt.Sprintf("[%d]", i), r})
		}
	}
	t.Render()
}

// PrintTokenInfo prints the card's PKCS#15 TokenInfo.
func PrintTokenInfo(info pkcs15.TokenInfo) {
	fmt.Println()
	t := newTable()
	t.SetTitle("TOKEN INFORMATION")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	t.AppendRow(table.Row{"Label", info.Label})
	t.AppendRow(table.Row{"Manufacturer", info.Manufacturer})
	t.AppendRow(table.Row{"Serial", hex.EncodeToString(info.SerialNumber)})
	t.AppendRow(table.Row{"Version", info.Version})
	t.Render()
}

// PrintObjects prints a generic PKCS#15 object listing: keys,
// certificates, and data objects (PINs get their own PrintPINs table,
// since they carry retry-counter state the others don't).
func PrintObjects(title string, objects []*pkcs15.Object) {
	fmt.Println()
	t := newTable()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Label", "ID", "Flags", "Path"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 20},
		{Number: 2, Colors: colorValue, WidthMin: 16},
		{Number: 3, Colors: colorValue, WidthMin: 16},
		{Number: 4, Colors: colorValue, WidthMin: 24},
	})
	if len(objects) == 0 {
		t.AppendRow(table.Row{"-", "-", "-", "(none)"})
	} else {
		for _, obj := range objects {
			t.AppendRow(table.Row{obj.Label, hex.EncodeToString(objectID(obj)), flagString(obj.Flags), obj.Path.String()})
		}
	}
	t.Render()
}

func objectID(obj *pkcs15.Object) []byte {
	switch p := obj.Payload.(type) {
	case *pkcs15.KeyInfo:
		return p.ID
	case *pkcs15.CertInfo:
		return p.ID
	}
	return nil
}

func flagString(f pkcs15.ObjectFlags) string {
	s := ""
	if f&pkcs15.FlagPrivate != 0 {
		s += "private "
	}
	if f&pkcs15.FlagModifiable != 0 {
		s += "modifiable"
	}
	if s == "" {
		return "-"
	}
	return s
}

// PrintPINs prints the card's authentication objects with their
// current retry state.
func PrintPINs(pins []*pkcs15.Object) {
	fmt.Println()
	t := newTable()
	t.SetTitle("AUTHENTICATION OBJECTS")
	t.AppendHeader(table.Row{"Label", "Ref", "Tries left", "Flags"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 20},
		{Number: 2, Colors: colorValue, WidthMin: 8},
		{Number: 3, WidthMin: 12},
		{Number: 4, Colors: colorValue, WidthMin: 20},
	})
	for _, obj := range pins {
		info, ok := obj.Payload.(*pkcs15.AuthInfo)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{obj.Label, info.Reference, triesCell(info.TriesLeft), pinFlagString(info.Flags)})
	}
	t.Render()
}

func triesCell(n int) string {
	switch {
	case n <= 0:
		return colorBlocked.Sprint("BLOCKED")
	case n == 1:
		return colorLow.Sprintf("%d", n)
	default:
		return colorOK.Sprintf("%d", n)
	}
}

func pinFlagString(f pkcs15.PinFlags) string {
	s := ""
	if f&pkcs15.PinFlagSOPin != 0 {
		s += "so-pin "
	}
	if f&pkcs15.PinFlagUnblockDisabled != 0 {
		s += "unblock-disabled "
	}
	if f&pkcs15.PinFlagDisabled != 0 {
		s += "disabled "
	}
	if s == "" {
		return "-"
	}
	return s
}

// PrintFileInfo prints a selected file's FCI attributes.
func PrintFileInfo(f *file.File) {
	fmt.Println()
	t := newTable()
	t.SetTitle("FILE INFORMATION")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 40},
	})
	t.AppendRow(table.Row{"ID", fmt.Sprintf("%04X", f.ID)})
	t.AppendRow(table.Row{"DF?", f.IsDF()})
	t.AppendRow(table.Row{"Size", f.Size})
	if f.RecordLength > 0 {
		t.AppendRow(table.Row{"Record length", f.RecordLength})
		t.AppendRow(table.Row{"Record count", f.RecordCount})
	}
	t.AppendRow(table.Row{"Shareable", f.Shareable})
	t.Render()
}

// PrintRawData prints raw hex payloads keyed by a label, e.g. for
// read-binary/read-record debugging.
func PrintRawData(raw map[string][]byte) {
	fmt.Println()
	t := newTable()
	t.SetTitle("RAW DATA (HEX)")
	t.AppendHeader(table.Row{"Source", "Data"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMax: 80},
	})

	var keys []string
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{k, hex.EncodeToString(raw[k])})
	}
	t.Render()
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(colorError.Sprintf("✗ Error: %s", msg))
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Println(colorSuccess.Sprintf("✓ %s", msg))
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	fmt.Println(colorWarn.Sprintf("⚠ %s", msg))
}
