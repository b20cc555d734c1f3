package core

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicyOnce sync.Once
	ugcPolicy     *bluemonday.Policy

	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// filterSanitize keeps user-generated-content markup (links, emphasis, lists,
// images) and drops everything else.
func filterSanitize(input any, _ ...any) (any, error) {
	if input == nil {
		return "", nil
	}
	raw := strings.TrimSpace(fmt.Sprint(input))
	if raw == "" {
		return "", nil
	}
	return strings.TrimSpace(ugcSanitizer().Sanitize(raw)), nil
}

// filterStripTags removes every tag and decodes the entities bluemonday
// escapes, returning plain text.
func filterStripTags(input any, _ ...any) (any, error) {
	if input == nil {
		return "", nil
	}
	cleaned := strictSanitizer().Sanitize(fmt.Sprint(input))
	return html.UnescapeString(cleaned), nil
}

func ugcSanitizer() *bluemonday.Policy {
	ugcPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		ugcPolicy = policy
	})
	return ugcPolicy
}

func strictSanitizer() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}
