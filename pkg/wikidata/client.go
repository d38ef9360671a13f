package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultEndpoint is the public Wikidata SPARQL endpoint.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

const defaultUserAgent = "lancong/1.0 (place enrichment)"

// Config configures a Client.
type Config struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

// Client queries a SPARQL endpoint over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a SPARQL client. Zero values select the public endpoint
// and a 10 second timeout.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// sparqlResponse is the subset of the SPARQL JSON results format we read.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Resolve looks up name and returns the first matching entity.
func (c *Client) Resolve(ctx context.Context, name, locale string) LookupResult {
	if strings.TrimSpace(name) == "" {
		return LookupResult{Status: NotFound}
	}

	params := url.Values{}
	params.Set("query", BuildQuery(name, locale))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return transportError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return transportError(fmt.Errorf("sparql request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var parsed sparqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return transportError(fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if len(parsed.Results.Bindings) == 0 {
		return LookupResult{Status: NotFound}
	}

	binding := parsed.Results.Bindings[0]
	return LookupResult{
		Status: Found,
		Entity: Entity{
			URI:         bindingValue(binding, "item"),
			Image:       bindingValue(binding, "image"),
			Description: bindingValue(binding, "description"),
		},
	}
}

func bindingValue(binding map[string]sparqlValue, key string) *string {
	v, ok := binding[key]
	if !ok {
		return nil
	}
	value := v.Value
	return &value
}

var localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)?$`)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeLiteral escapes s for use inside a double-quoted SPARQL string literal.
func EscapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// BuildQuery returns the entity search query for name in locale. Unknown
// locale strings fall back to Indonesian.
func BuildQuery(name, locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if !localePattern.MatchString(locale) {
		locale = "id"
	}
	return fmt.Sprintf(`PREFIX wdt: <http://www.wikidata.org/prop/direct/>
PREFIX schema: <http://schema.org/>
PREFIX wikibase: <http://wikiba.se/ontology#>
PREFIX bd: <http://www.bigdata.com/rdf#>
PREFIX mwapi: <https://www.mediawiki.org/ontology#API/>

SELECT ?item ?itemLabel ?image ?description WHERE {
  SERVICE wikibase:mwapi {
    bd:serviceParam wikibase:endpoint "www.wikidata.org";
                    wikibase:api "EntitySearch";
                    mwapi:search "%[1]s";
                    mwapi:language "%[2]s".
    ?item wikibase:apiOutputItem mwapi:item.
  }
  OPTIONAL { ?item wdt:P18 ?image. }
  OPTIONAL {
    ?item schema:description ?description.
    FILTER(LANG(?description) = "%[2]s")
  }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%[2]s". }
}
LIMIT 1`, EscapeLiteral(name), locale)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
