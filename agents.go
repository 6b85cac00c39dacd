package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const summarySystemPrompt = "You are a news summarization agent. Generate a clear, concise news summary in 20-25 words using the provided text. Focus on key facts only."

const classifySystemPrompt = "You are a news classification agent. Respond with strict JSON only, no prose and no markdown."

const locationSystemPrompt = "You are a location extraction agent. Respond with strict JSON only, no prose and no markdown."

const cityQuerySystemPrompt = "You are a civic news agent. Only return news published today. If no fresh news is available, return nothing."

// AgentManager wraps the LLM calls the pipeline needs: summary, news-type
// classification and city/locality extraction. Every method returns an
// explicit error; callers decide the fallback value.
type AgentManager struct {
	llm      TextCompleter
	settings *Settings
}

// NewAgentManager creates an AgentManager over the given completer.
func NewAgentManager(llm TextCompleter, settings *Settings) *AgentManager {
	return &AgentManager{llm: llm, settings: settings}
}

// Summarize asks for a 20-25 word factual summary of the article text.
// Markdown code fences the model emits despite instructions are stripped.
func (am *AgentManager) Summarize(text string) (string, error) {
	prompt := fmt.Sprintf("This is raw text: %s", am.limitContentTokens(text))
	raw, err := am.complete(summarySystemPrompt, prompt, am.settings.Agents.Summary)
	if err != nil {
		return "", fmt.Errorf("summary agent: %w", err)
	}
	summary := stripCodeFences(raw)
	if summary == "" {
		return "", fmt.Errorf("summary agent returned empty text")
	}
	return summary, nil
}

// ClassifyType asks for a short news-type label as a JSON object.
func (am *AgentManager) ClassifyType(text string) (string, error) {
	prompt := fmt.Sprintf(`Classify the following news article into a short news type label of 1-2 words, for example "Metro", "Water Supply", "Roads", "Housing".

Respond strictly in the following JSON format:
{"news_type": "<1-2 words>"}

This is raw text: %s`, am.limitContentTokens(text))

	raw, err := am.complete(classifySystemPrompt, prompt, am.settings.Agents.Classify)
	if err != nil {
		return "", fmt.Errorf("classification agent: %w", err)
	}

	var parsed struct {
		NewsType string `json:"news_type"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return "", fmt.Errorf("parsing classification response: %w", err)
	}
	if strings.TrimSpace(parsed.NewsType) == "" {
		return "", fmt.Errorf("classification response missing news_type")
	}
	return strings.TrimSpace(parsed.NewsType), nil
}

// ExtractLocations asks for the city and locality names mentioned in the
// article. Either list collapses to ["unknown"] when it is empty or contains
// an "unknown" entry; partial known+unknown lists are not preserved.
func (am *AgentManager) ExtractLocations(text string) (cities, localities []string, err error) {
	prompt := fmt.Sprintf(`I will provide you with a news article or content.

Your task is to extract the city and locality names mentioned in the news.

- If a city or locality is not clearly mentioned, respond with ["unknown"] for that field.
- List every distinct name once.

Respond strictly in the following JSON format:
{"city": ["<city>"], "locality": ["<locality>"]}

This is raw text: %s`, am.limitContentTokens(text))

	raw, err := am.complete(locationSystemPrompt, prompt, am.settings.Agents.Location)
	if err != nil {
		return nil, nil, fmt.Errorf("location agent: %w", err)
	}

	var parsed struct {
		City     []string `json:"city"`
		Locality []string `json:"locality"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil, nil, fmt.Errorf("parsing location response: %w", err)
	}
	return collapseUnknown(parsed.City), collapseUnknown(parsed.Locality), nil
}

// QueryCityNews prompts the model for today's civic news in one city. The
// reply is loosely structured prose parsed by the freeform parser; this call
// surfaces errors because the single-city mode has no scraped fallback.
func (am *AgentManager) QueryCityNews(city string) (string, error) {
	raw, err := am.complete(cityQuerySystemPrompt, buildCityPrompt(city), am.settings.Agents.CityQuery)
	if err != nil {
		return "", fmt.Errorf("city news agent: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

func (am *AgentManager) complete(system, prompt string, agent AgentSettings) (string, error) {
	return am.llm.Complete(CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Model:       agent.Model,
		MaxTokens:   agent.MaxTokens,
		Temperature: agent.Temperature,
	})
}

// limitContentTokens limits content to approximately N tokens (using 4 chars ≈ 1 token)
func (am *AgentManager) limitContentTokens(content string) string {
	maxChars := am.settings.ContentMaxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	return content[:maxChars] + "..."
}

// buildCityPrompt mirrors the production single-city prompt.
func buildCityPrompt(city string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Fetch at least 10 local civic and infrastructure news updates published today for the following Indian city: %s.

Only include news reported today. If no such news exists, return nothing (null or empty).

Limit news to those that concern specific localities or neighborhoods, and that fall under these categories:

- New infrastructure developments or government projects (initiated or inaugurated)
- Urban or transport planning announcements (roads, metro, sewage, expressways, etc.)
- Road conditions, traffic disruptions, flooding, or damage
- Water supply, drainage, or sewage problems
- Public safety, electricity, or civic security concerns

For each relevant story, return in the following format:
{
  "news": [
    {
      "city": "City name",
      "summary": "Short news summary here",
      "locality": "Location",
      "source": "News source",
      "news_type": "Metro/Water/etc.",
      "date": %q
    }
  ]
}

Exclude any older or unrelated topics.`, city, time.Now().Format(dateLayout)))
}

// stripCodeFences removes markdown code-fence markers the model may wrap
// around its output.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```html", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// collapseUnknown applies the sentinel rule: an empty list, or any entry
// equal to "unknown" in any case, resets the whole list to ["unknown"].
func collapseUnknown(values []string) []string {
	if len(values) == 0 {
		return []string{unknownPlace}
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), unknownPlace) {
			return []string{unknownPlace}
		}
	}
	return values
}
