package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
}

func New(baseURL, genModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Analyzer implements the evidence-analysis collaborator on top of an
// ollama-compatible JSON-mode generate endpoint.
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze asks the model to judge the publication list against the user's
// raw interest text. The response must be a strict JSON object; anything
// unparseable or missing a summary fails the analysis instead of degrading
// into a partial result.
func (a *Analyzer) Analyze(
	ctx context.Context,
	name string,
	articles []domain.Article,
	rawInterestText string,
) (domain.Evidence, error) {
	if a.client.baseURL == "" || a.client.genModel == "" {
		return domain.Evidence{}, domain.WrapError(domain.ErrConfiguration, "analyze evidence",
			errors.New("analyzer endpoint or model is not set"))
	}

	respText, err := a.client.generateJSON(ctx, buildEvidencePrompt(name, articles, rawInterestText))
	if err != nil {
		return domain.Evidence{}, err
	}

	var parsed evidenceResponse
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &parsed); err != nil {
		return domain.Evidence{}, domain.WrapError(domain.ErrMalformedResponse, "parse evidence json", err)
	}

	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return domain.Evidence{}, domain.WrapError(domain.ErrMalformedResponse, "parse evidence json",
			errors.New("response has no summary"))
	}

	evidence := domain.Evidence{
		Summary:             summary,
		KeywordEvidence:     make([]domain.KeywordEvidence, 0, len(parsed.KeywordEvidence)),
		RawMatchedInterests: parsed.MatchedInterests,
		Raw:                 []byte(respText),
	}
	for _, item := range parsed.KeywordEvidence {
		keyword := strings.TrimSpace(item.Keyword)
		if keyword == "" {
			continue
		}
		refs := make([]domain.Article, 0, len(item.SupportingReferences))
		for _, ref := range item.SupportingReferences {
			title := strings.TrimSpace(ref.Title)
			if title == "" {
				continue
			}
			refs = append(refs, domain.Article{
				Title:         title,
				Year:          ref.Year,
				CitationCount: ref.CitationCount,
			})
		}
		evidence.KeywordEvidence = append(evidence.KeywordEvidence, domain.KeywordEvidence{
			Keyword:              keyword,
			Reasoning:            strings.TrimSpace(item.Reasoning),
			SupportingReferences: refs,
		})
	}
	return evidence, nil
}

type evidenceResponse struct {
	Summary         string `json:"summary"`
	KeywordEvidence []struct {
		Keyword              string `json:"keyword"`
		Reasoning            string `json:"reasoning"`
		SupportingReferences []struct {
			Title         string `json:"title"`
			Year          int    `json:"year"`
			CitationCount int    `json:"citation_count"`
		} `json:"supporting_references"`
	} `json:"keyword_evidence"`
	MatchedInterests []string `json:"matched_interests"`
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
