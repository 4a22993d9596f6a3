package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Combo is one (model, api-version) pair to try.
type Combo struct {
	Model   string
	Version string
}

// Some API keys only see older model families, so after the configured
// model's variants are exhausted the chain walks this ladder. Legacy vision
// names go last.
var legacyModels = []string{
	"gemini-1.5-flash",
	"gemini-1.5-flash-001",
	"gemini-1.5-flash-latest",
	"gemini-1.5-pro",
	"gemini-1.5-pro-001",
	"gemini-1.5-pro-latest",
	"gemini-1.0-pro-vision",
	"gemini-pro-vision",
	"gemini-1.0-pro",
	"gemini-pro",
}

// versionsToTry orders the API versions: the configured version first, then
// its counterpart (v1 <-> v1beta). An unrecognized version is tried first,
// followed by both known ones.
func versionsToTry(base string) []string {
	switch base {
	case "v1":
		return []string{"v1", "v1beta"}
	case "v1beta":
		return []string{"v1beta", "v1"}
	default:
		return []string{base, "v1", "v1beta"}
	}
}

// fallbackCombos builds the ordered, deduplicated chain of combos for a
// configured model and version: the model as given, with "-latest" stripped,
// with "-001" and "-latest" suffixes, first on the configured version and
// then on the alternates, and finally the legacy ladder across all versions.
func fallbackCombos(baseModel, baseVersion string) []Combo {
	baseModel = strings.TrimSpace(baseModel)
	baseVersion = strings.TrimSpace(baseVersion)

	var combos []Combo
	seen := map[string]bool{}
	register := func(model, version string) {
		model = strings.TrimSpace(model)
		version = strings.TrimSpace(version)
		if model == "" || version == "" {
			return
		}
		key := model + "|" + version
		if seen[key] {
			return
		}
		seen[key] = true
		combos = append(combos, Combo{Model: model, Version: version})
	}

	noLatest := strings.TrimSuffix(baseModel, "-latest")
	variants := func(version string) {
		register(baseModel, version)
		register(noLatest, version)
		if !strings.HasSuffix(noLatest, "-001") {
			register(noLatest+"-001", version)
		}
		if !strings.HasSuffix(baseModel, "-latest") {
			register(noLatest+"-latest", version)
		}
	}

	versions := versionsToTry(baseVersion)
	variants(baseVersion)
	for _, ver := range versions {
		if ver != baseVersion {
			variants(ver)
		}
	}

	for _, ver := range versions {
		for _, model := range legacyModels {
			register(model, ver)
		}
	}
	return combos
}

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// ListModels asks each API version which models the key can reach, keeping
// only those that support generateContent. Failures for individual versions
// are logged and skipped; the result is the deduplicated union.
func (c *Client) ListModels(ctx context.Context, versions []string) ([]string, error) {
	var names []string
	seen := map[string]bool{}

	for _, ver := range versions {
		endpoint := c.base + "/" + ver + "/models?key=" + url.QueryEscape(c.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			continue
		}
		resp, err := c.http.Do(req)
		if err != nil {
			c.log.WithError(err).WithField("version", ver).Warn("model discovery failed")
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			c.log.WithFields(logrus.Fields{"version": ver, "status": resp.StatusCode}).
				Warn("model discovery returned an error")
			continue
		}

		var parsed listModelsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			continue
		}
		for _, entry := range parsed.Models {
			if len(entry.SupportedGenerationMethods) > 0 &&
				!contains(entry.SupportedGenerationMethods, "generateContent") {
				continue
			}
			name := strings.TrimPrefix(entry.Name, "models/")
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
