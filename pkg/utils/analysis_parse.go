package utils

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"foodinsight/internal/models/response_models"
)

// Fallback patterns for model output that looks like JSON but does not parse. RE2 has no
// lookahead, so the nutrition pattern consumes the following key and only group 1 is used.
var (
	foodNamePattern       = regexp.MustCompile(`food_name"?\s*:\s*"([^"]+)"`)
	nutritionPattern      = regexp.MustCompile(`(?s)nutrition"?\s*:\s*"(.*?)"\s*(?:,\s*"(?:good_for_user|diet_plan|recommendation)"|\})`)
	goodForUserPattern    = regexp.MustCompile(`good_for_user"?\s*:\s*"([^"]+)"`)
	dietPlanPattern       = regexp.MustCompile(`diet_plan"?\s*:\s*"([^"]+)"`)
	recommendationPattern = regexp.MustCompile(`recommendation"?\s*:\s*"([^"]+)"`)
)

// ParseAnalysis turns raw model text into an AnalysisResult. Text without any JSON object is
// reported as unparseable; a broken object falls back to per-field regex extraction.
func ParseAnalysis(text string) response_models.AnalysisResult {
	candidate, ok := ExtractJSONObject(text)
	if !ok {
		res := response_models.FailedAnalysis(response_models.AnalysisFailureUnparseable, "")
		res.Raw = text
		return res
	}

	var res response_models.AnalysisResult
	if json.Valid([]byte(candidate)) {
		parsed := gjson.Parse(candidate)
		res = response_models.AnalysisResult{
			FoodName:       fieldText(parsed.Get("food_name")),
			Nutrition:      nutritionText(parsed.Get("nutrition")),
			Suitability:    fieldText(parsed.Get("good_for_user")),
			DietPlan:       fieldText(parsed.Get("diet_plan")),
			Recommendation: fieldText(parsed.Get("recommendation")),
		}
	} else {
		res = response_models.AnalysisResult{
			FoodName:       firstGroup(foodNamePattern, text),
			Nutrition:      firstGroup(nutritionPattern, text),
			Suitability:    firstGroup(goodForUserPattern, text),
			DietPlan:       firstGroup(dietPlanPattern, text),
			Recommendation: firstGroup(recommendationPattern, text),
		}
		res.FillMissing()
		if !strings.Contains(res.Nutrition, "<ul>") {
			res.Nutrition = linesToList(strings.Split(res.Nutrition, "\n"))
		}
	}
	res.FillMissing()
	res.Raw = text
	return res
}

// ExtractJSONObject strips markdown fences and returns the first balanced {...} block. When
// the braces never balance it returns everything from the first '{' to the last '}'.
func ExtractJSONObject(response string) (string, bool) {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```JSON", "")
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	if start == -1 {
		return "", false
	}
	if end := findMatchingBrace(response, start); end != -1 {
		return response[start : end+1], true
	}
	last := strings.LastIndex(response, "}")
	if last <= start {
		return "", false
	}
	return response[start : last+1], true
}

func findMatchingBrace(s string, start int) int {
	if start >= len(s) || s[start] != '{' {
		return -1
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' && inString {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch char {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func fieldText(v gjson.Result) string {
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	if v.IsArray() {
		parts := make([]string, 0)
		v.ForEach(func(_, item gjson.Result) bool {
			parts = append(parts, item.String())
			return true
		})
		return strings.Join(parts, " ")
	}
	return strings.TrimSpace(v.String())
}

// nutritionText keeps HTML strings as-is and renders arrays or objects as a list.
func nutritionText(v gjson.Result) string {
	switch {
	case v.IsArray():
		items := make([]string, 0)
		v.ForEach(func(_, item gjson.Result) bool {
			items = append(items, html.EscapeString(item.String()))
			return true
		})
		return linesToList(items)
	case v.IsObject():
		items := make([]string, 0)
		v.ForEach(func(key, item gjson.Result) bool {
			items = append(items, html.EscapeString(key.String()+": "+item.String()))
			return true
		})
		return linesToList(items)
	default:
		return fieldText(v)
	}
}

func linesToList(lines []string) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString("<li>")
			b.WriteString(line)
			b.WriteString("</li>")
		}
	}
	b.WriteString("</ul>")
	return b.String()
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
