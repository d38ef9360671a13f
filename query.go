package lancong

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/lancong/pkg/types"
)

// blockedKeywords are rejected anywhere in an ad-hoc statement, compared
// case-insensitively as substrings.
var blockedKeywords = []string{
	"delete",
	"detach",
	"remove ",
	"drop",
	"dbms.",
	"apoc.",
	"create database",
}

// CheckStatement rejects blank statements and statements containing a
// blocked keyword. Matching is by substring, so identifiers such as
// "dropoff" are rejected too.
func CheckStatement(statement string) error {
	if strings.TrimSpace(statement) == "" {
		return types.NewValidationError("cypher", "statement is empty")
	}
	lower := strings.ToLower(statement)
	for _, keyword := range blockedKeywords {
		if strings.Contains(lower, keyword) {
			return &types.ForbiddenError{Keyword: strings.TrimSpace(keyword)}
		}
	}
	return nil
}

// RunQuery implements QueryRunner. The statement runs in a read session, so
// writes the blocklist misses are refused by the store.
func (c *Client) RunQuery(ctx context.Context, statement string) ([]map[string]any, error) {
	if err := CheckStatement(statement); err != nil {
		c.logger.WarnContext(ctx, "rejected ad-hoc query", "error", err)
		return nil, err
	}
	rows, err := c.driver.ExecuteQuery(ctx, statement, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}
