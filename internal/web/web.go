// Package web holds the server-rendered pages and the helpers they use.
package web

import (
	"embed"
	"html"
	"html/template"
	"regexp"
	"strings"

	"foodinsight/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	listItemPattern = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
	tagPattern      = regexp.MustCompile(`(?s)<[^>]*>`)
)

// Funcs are the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatTime": utils.FormatDisplay,
		"nutrition":  SafeNutrition,
		"bmiClass":   BMIClass,
	}
}

// Templates parses every embedded page.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// SafeNutrition renders model-produced nutrition markup as a plain list. Only the text of
// each <li> survives; everything else is escaped.
func SafeNutrition(raw string) template.HTML {
	items := listItemPattern.FindAllStringSubmatch(raw, -1)
	if len(items) == 0 {
		text := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(raw, " ")))
		if text == "" {
			return ""
		}
		var lines []string
		for _, l := range strings.Split(text, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, template.HTMLEscapeString(l))
			}
		}
		return template.HTML(strings.Join(lines, "<br>"))
	}

	var b strings.Builder
	b.WriteString("<ul>")
	for _, m := range items {
		text := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(m[1], "")))
		if text == "" {
			continue
		}
		b.WriteString("<li>")
		b.WriteString(template.HTMLEscapeString(text))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return template.HTML(b.String())
}

// BMIClass names the WHO weight category for a BMI value.
func BMIClass(bmi float64) string {
	switch {
	case bmi <= 0:
		return "Unknown"
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}
