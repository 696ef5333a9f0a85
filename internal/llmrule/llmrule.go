// Package llmrule evaluates an LLM rule's prompt against captured pane
// text over the OpenAI or Anthropic HTTP API. There is no LLM SDK anywhere
// in the example pack this module draws on, so both providers are plain
// net/http + encoding/json calls, matching llm.rs's direct ureq usage.
package llmrule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/rules"
)

const (
	openAIModelsURL          = "https://api.openai.com/v1/models"
	anthropicModelsURL       = "https://api.anthropic.com/v1/models"
	openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"
	anthropicMessagesURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion         = "2023-06-01"
	systemPrompt             = `You are a rule evaluator. Respond with strict JSON object only: {"match":boolean,"command":string?,"variables":object?}.`
	modelFetchFixtureEnv     = "HERD_MODEL_FETCH_FIXTURE"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// FetchModels lists the models available to provider with api_key. If
// HERD_MODEL_FETCH_FIXTURE holds a non-empty comma-separated model list, that
// list is used instead of making a network call, for deterministic tests; an
// empty value is treated as unset.
func FetchModels(provider, apiKey string) ([]string, error) {
	if models, ok := mockedModelListFromEnv(); ok {
		return models, nil
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("missing API key for selected provider")
	}

	if config.NormalizeProvider(provider) == config.AnthropicProvider {
		return fetchAnthropicModels(key)
	}
	return fetchOpenAIModels(key)
}

// EvaluateRule asks provider's chat/completion API to judge rulePrompt
// against inputText, returning the parsed LLM rule decision.
func EvaluateRule(provider, apiKey, model, rulePrompt, inputText string) (rules.LlmRuleDecision, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return rules.LlmRuleDecision{}, fmt.Errorf("missing API key for selected provider")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return rules.LlmRuleDecision{}, fmt.Errorf("missing model for selected provider")
	}

	if config.NormalizeProvider(provider) == config.AnthropicProvider {
		return evaluateRuleAnthropic(key, model, rulePrompt, inputText)
	}
	return evaluateRuleOpenAI(key, model, rulePrompt, inputText)
}

func fetchOpenAIModels(apiKey string) ([]string, error) {
	req, err := http.NewRequest(http.MethodGet, openAIModelsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")
	payload, err := doJSON(req)
	if err != nil {
		return nil, fmt.Errorf("openai model fetch failed: %w", err)
	}
	models := parseModelArray(payload)
	if len(models) == 0 {
		return nil, fmt.Errorf("openai returned no models")
	}
	return models, nil
}

func fetchAnthropicModels(apiKey string) ([]string, error) {
	req, err := http.NewRequest(http.MethodGet, anthropicModelsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Accept", "application/json")
	payload, err := doJSON(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic model fetch failed: %w", err)
	}
	models := parseModelArray(payload)
	if len(models) == 0 {
		return nil, fmt.Errorf("anthropic returned no models")
	}
	return models, nil
}

func evaluateRuleOpenAI(apiKey, model, rulePrompt, inputText string) (rules.LlmRuleDecision, error) {
	body := map[string]any{
		"model":           model,
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": fmt.Sprintf("Rule:\n%s\n\nInput:\n%s", rulePrompt, inputText)},
		},
	}
	req, err := newJSONRequest(http.MethodPost, openAIChatCompletionsURL, body)
	if err != nil {
		return rules.LlmRuleDecision{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	payload, err := doJSON(req)
	if err != nil {
		return rules.LlmRuleDecision{}, fmt.Errorf("openai llm rule evaluation failed: %w", err)
	}
	content, err := parseOpenAIChatContent(payload)
	if err != nil {
		return rules.LlmRuleDecision{}, err
	}
	return rules.ParseLlmDecisionJSON(content)
}

func evaluateRuleAnthropic(apiKey, model, rulePrompt, inputText string) (rules.LlmRuleDecision, error) {
	body := map[string]any{
		"model":       model,
		"max_tokens":  512,
		"temperature": 0,
		"system":      systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": fmt.Sprintf("Rule:\n%s\n\nInput:\n%s", rulePrompt, inputText)},
		},
	}
	req, err := newJSONRequest(http.MethodPost, anthropicMessagesURL, body)
	if err != nil {
		return rules.LlmRuleDecision{}, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	payload, err := doJSON(req)
	if err != nil {
		return rules.LlmRuleDecision{}, fmt.Errorf("anthropic llm rule evaluation failed: %w", err)
	}
	content, err := parseAnthropicMessageText(payload)
	if err != nil {
		return rules.LlmRuleDecision{}, err
	}
	return rules.ParseLlmDecisionJSON(content)
}

func newJSONRequest(method, url string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(req *http.Request) (map[string]any, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func parseModelArray(payload map[string]any) []string {
	data, _ := payload["data"].([]any)
	seen := make(map[string]bool)
	var models []string
	for _, item := range data {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := obj["id"].(string)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		models = append(models, id)
	}
	sort.Strings(models)
	return models
}

func mockedModelListFromEnv() ([]string, bool) {
	raw, ok := os.LookupEnv(modelFetchFixtureEnv)
	if !ok {
		return nil, false
	}
	seen := make(map[string]bool)
	var models []string
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		models = append(models, value)
	}
	if len(models) == 0 {
		return nil, false
	}
	sort.Strings(models)
	return models, true
}

func parseOpenAIChatContent(payload map[string]any) (string, error) {
	choices, _ := payload["choices"].([]any)
	if len(choices) == 0 {
		return "", fmt.Errorf("openai response missing choices[0].message.content")
	}
	choice, _ := choices[0].(map[string]any)
	message, _ := choice["message"].(map[string]any)
	content, _ := message["content"].(string)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("openai response content was empty")
	}
	return content, nil
}

func parseAnthropicMessageText(payload map[string]any) (string, error) {
	items, _ := payload["content"].([]any)
	if len(items) == 0 {
		return "", fmt.Errorf("anthropic response missing content[0].text")
	}
	item, _ := items[0].(map[string]any)
	text, _ := item["text"].(string)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("anthropic response content was empty")
	}
	return text, nil
}
