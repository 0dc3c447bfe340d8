package reporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
)

const (
	NoDataMessage  = "No data available"
	GoodbyeMessage = "Exiting the program. Goodbye!"

	unknownProduct = "Unknown"
)

// trashTypes maps the upstream product name to its Dutch and English labels.
// A null product name arrives as "".
var trashTypes = map[string][2]string{
	"Papier":  {"Papier", "Paper"},
	"Pbd":     {"Plastic, Blik en Drinkpakken", "Plastic, Cans and Drink cartons"},
	"Rest":    {"Restafval", "Residual waste"},
	"Textiel": {"Textiel", "Textile"},
	"Glas":    {"Glas", "Glass"},
	"":        {"None", "None"},
}

// ProductLabel translates a raw product name into language ("nl" or "en").
func ProductLabel(productName, language string) string {
	labels, ok := trashTypes[productName]
	if !ok {
		return unknownProduct
	}
	if language == "en" {
		return labels[1]
	}
	return labels[0]
}

// Reporter renders container records to a console.
type Reporter struct {
	out      io.Writer
	title    string
	language string

	titleStyle lipgloss.Style
	labelStyle lipgloss.Style
}

// New returns a Reporter writing to out. Styling is dropped automatically
// when out is not a terminal.
func New(out io.Writer, title, language string) *Reporter {
	renderer := lipgloss.NewRenderer(out)
	return &Reporter{
		out:        out,
		title:      title,
		language:   language,
		titleStyle: renderer.NewStyle().Bold(true).Underline(true),
		labelStyle: renderer.NewStyle().Bold(true),
	}
}

// Render prints the full report for rec, or the no-data line when ok is
// false.
func (r *Reporter) Render(rec models.ContainerRecord, ok bool) {
	if !ok {
		fmt.Fprintln(r.out, NoDataMessage)
		return
	}

	rows := [][2]string{
		{"Filling Degree", strconv.FormatFloat(rec.FillingDegree, 'f', -1, 64) + "%"},
		{"Status", rec.FillingDegreeStatus},
		{"Product", ProductLabel(rec.ProductName, r.language)},
		{"Product ID", strconv.Itoa(rec.ContainerProductID)},
		{"Container Kind", rec.ContainerKindName},
		{"Registration Number", rec.RegistrationNumber},
		{"Location", fmt.Sprintf("%.6f, %.6f", rec.Latitude, rec.Longitude)},
		{"Last Emptied", rec.DateLastEmptied.Format(time.DateOnly)},
		{"Is Out of Use", yesNo(rec.IsOutOfUse)},
		{"Is Skipped", yesNo(rec.IsSkipped)},
		{"Is Emptied Today", yesNo(rec.IsEmptiedToday)},
		{"Last Check", rec.CheckedAt.Format(time.DateTime)},
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(r.titleStyle.Render(r.title + " Status:"))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(r.labelStyle.Render(row[0] + ":"))
		b.WriteString(" ")
		b.WriteString(row[1])
		b.WriteString("\n")
	}
	fmt.Fprint(r.out, b.String())
}

// Goodbye prints the farewell line shown on interruption.
func (r *Reporter) Goodbye() {
	fmt.Fprintln(r.out, "\n"+GoodbyeMessage)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
