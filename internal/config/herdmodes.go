package config

import (
	"strings"

	"github.com/leo/herd/internal/rules"
)

// defaultHerdModes seeds a fresh settings file with a single "default" mode
// backed by the stock rule file.
func defaultHerdModes() []HerdModeDefinition {
	return []HerdModeDefinition{
		{Name: "default", RuleFile: defaultHerdModeRuleFile("default")},
	}
}

// defaultHerdModeRuleFile returns the conventional rule-file name for a herd
// mode, e.g. "default" -> "default.rules.json".
func defaultHerdModeRuleFile(modeName string) string {
	return slugify(modeName) + ".rules.json"
}

// sanitizeHerdModes de-duplicates by sanitized name, drops blank names,
// rewrites legacy ".md" rule files to the JSON convention, and guarantees at
// least the default mode survives.
func sanitizeHerdModes(modes []HerdModeDefinition) []HerdModeDefinition {
	seen := make(map[string]bool)
	var out []HerdModeDefinition
	for _, m := range modes {
		name := sanitizeText(m.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, HerdModeDefinition{
			Name:     name,
			RuleFile: sanitizeRuleFile(m.RuleFile, name),
		})
	}
	if len(out) == 0 {
		return defaultHerdModes()
	}
	return out
}

func sanitizeRuleFile(ruleFile, modeName string) string {
	ruleFile = sanitizeText(ruleFile)
	if ruleFile == "" {
		return defaultHerdModeRuleFile(modeName)
	}
	if usesLegacyMarkdownRuleFile(ruleFile) {
		return strings.TrimSuffix(ruleFile, ".md") + ".rules.json"
	}
	return ruleFile
}

// usesLegacyMarkdownRuleFile reports whether a rule file still points at the
// pre-JSON markdown convention this settings format replaced.
func usesLegacyMarkdownRuleFile(ruleFile string) bool {
	return strings.HasSuffix(strings.ToLower(ruleFile), ".md")
}

func sanitizeText(s string) string {
	return trimSpace(s)
}

func sanitizeTextList(list []string) []string {
	var out []string
	for _, s := range list {
		s = sanitizeText(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// slugify lowercases a herd mode name and replaces runs of non
// alphanumeric characters with a single hyphen, trimming leading/trailing
// hyphens, e.g. "My Mode!!" -> "my-mode".
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "mode"
	}
	return out
}

// DefaultRuleFileContentFor renders the stock two-rule rule file for
// modeName as pretty JSON, delegating to package rules.
func DefaultRuleFileContentFor(modeName string) (string, error) {
	return rules.DefaultRuleFileContent(modeName)
}
