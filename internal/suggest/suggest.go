// Package suggest asks a local Ollama instance which of the user's open
// tabs deserve to become favorites. The model is an opaque collaborator:
// we hand it the open URLs and current favorites, it hands back a ranked
// URL list, and everything it says is filtered back down to well-formed
// candidates we actually showed it.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/SwajanJain/tabwise/internal/urlmatch"
)

// maxCandidates caps how many open-tab URLs go into the prompt.
const maxCandidates = 60

// maxSuggestions caps how many ranked URLs come back out.
const maxSuggestions = 10

const promptTemplate = `You help a user pick browser favorites. Below are the URLs of their
currently open tabs, followed by the favorites they already have.

Pick up to %d open-tab URLs that look like pages the user returns to
repeatedly (dashboards, inboxes, docs, project homes). Never pick a URL
that is already a favorite and never invent URLs.

Open tabs:
%s

Existing favorites:
%s

Respond with ONLY the chosen URLs, one per line, best first.`

// Config selects the Ollama endpoint and model.
type Config struct {
	Model string
	Host  string
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// BuildPrompt constructs the suggestion prompt from open-tab and
// favorite URLs.
func BuildPrompt(open, favorites []string) string {
	if len(open) > maxCandidates {
		open = open[:maxCandidates]
	}
	favSection := "(none)"
	if len(favorites) > 0 {
		favSection = strings.Join(favorites, "\n")
	}
	return fmt.Sprintf(promptTemplate, maxSuggestions, strings.Join(open, "\n"), favSection)
}

// ParseRanked extracts the ranked URL list from a model response. Only
// lines that are well-formed http(s) URLs from the offered set survive;
// already-favorited URLs and duplicates are dropped. Order is the
// model's ranking.
func ParseRanked(response string, offered, favorites []string) []string {
	offeredSet := make(map[string]bool, len(offered))
	for _, u := range offered {
		offeredSet[u] = true
	}
	favSet := make(map[string]bool, len(favorites))
	for _, u := range favorites {
		favSet[u] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(response, "\n") {
		u := strings.TrimSpace(line)
		// Models like to decorate lists; strip common bullets.
		u = strings.TrimLeft(u, "-*•0123456789. ")
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		if _, ok := urlmatch.Hostname(u); !ok {
			continue
		}
		if !offeredSet[u] || favSet[u] || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// Suggest runs the full round trip: build the prompt, call Ollama,
// parse the ranked list.
func Suggest(ctx context.Context, cfg Config, open, favorites []string) ([]string, error) {
	if len(open) == 0 {
		return nil, nil
	}

	reqBody := ollamaRequest{
		Model:  cfg.Model,
		Prompt: BuildPrompt(open, favorites),
		Stream: false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	return ParseRanked(result.Response, open, favorites), nil
}
