package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

func stringFromValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	switch value.(type) {
	case []any, map[string]any:
		if encoded, err := json.Marshal(value); err == nil {
			return string(encoded)
		}
	}
	return fmt.Sprint(value)
}

// RenderCommandTemplate substitutes `{name}` placeholders from variables.
// It fails closed: any placeholder with no bound variable is an error
// listing every missing name, rather than rendering a partial command.
func RenderCommandTemplate(template string, variables BoundVariables) (string, error) {
	var missing []string
	seen := make(map[string]bool)
	for _, match := range placeholderRe.FindAllStringSubmatch(template, -1) {
		key := match[1]
		if key == "" {
			continue
		}
		if _, ok := variables[key]; !ok && !seen[key] {
			missing = append(missing, key)
			seen[key] = true
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}

	rendered := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := variables[key]; ok {
			return stringFromValue(value)
		}
		return ""
	})
	return rendered, nil
}
