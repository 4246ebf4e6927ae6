// Package importer validates, sanitizes and merges externally supplied list
// snapshots. Nothing reaches the list store without passing through here.
package importer

import (
	"regexp"
	"strings"

	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/share"
)

// Hard ceilings for imported payloads.
const (
	MaxLists        = 100
	MaxItemsPerList = 500

	sanitizedListNameLen = 100
	sanitizedItemNameLen = 200
	sanitizedAmountLen   = 50
)

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	unsafeRunes = strings.NewReplacer("<", "", ">", "", "'", "", `"`, "", "&", "")

	// Token patterns that indicate script or URI injection attempts.
	suspiciousRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)data:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)eval\(`),
		regexp.MustCompile(`(?i)expression\(`),
	}
)

// Validate checks an envelope's structure and limits, first failure winning,
// and sanitizes every name and amount in place on success. A rejection
// always rejects the whole import; no partial admission.
func Validate(env *model.ShareEnvelope) error {
	if env == nil {
		return &model.ImportError{Message: "invalid data format"}
	}
	if env.Version == "" {
		return &model.ImportError{Message: "missing version information"}
	}

	var lists []*model.SharedList
	switch {
	case env.Lists != nil:
		for i := range env.Lists {
			lists = append(lists, &env.Lists[i])
		}
	case env.List != nil:
		lists = append(lists, env.List)
	default:
		return &model.ImportError{Message: "no valid list data found"}
	}

	if len(lists) > MaxLists {
		return &model.ImportError{Message: "too many lists (max 100)"}
	}

	for _, l := range lists {
		if strings.TrimSpace(l.Name) == "" {
			return &model.ImportError{Message: "invalid list name"}
		}
		if l.Items == nil {
			return &model.ImportError{Message: "invalid list items structure"}
		}
		if len(l.Items) > MaxItemsPerList {
			return &model.ImportError{Message: "list \"" + l.Name + "\" has too many items (max 500)"}
		}
		for i := range l.Items {
			if strings.TrimSpace(l.Items[i].Name) == "" {
				return &model.ImportError{Message: "invalid item name in list"}
			}
			if strings.TrimSpace(l.Items[i].Amount) == "" {
				return &model.ImportError{Message: "invalid item amount in list"}
			}
		}
	}

	// Structure is good; sanitize everything in place. Sanitization is
	// idempotent, so re-validating already-clean data changes nothing.
	for _, l := range lists {
		l.Name = Sanitize(l.Name, sanitizedListNameLen)
		for i := range l.Items {
			l.Items[i].Name = Sanitize(l.Items[i].Name, sanitizedItemNameLen)
			l.Items[i].Amount = Sanitize(l.Items[i].Amount, sanitizedAmountLen)
		}
	}
	return nil
}

// Sanitize strips HTML tags and the characters <>'"& from s, trims
// whitespace and truncates to maxLen runes.
func Sanitize(s string, maxLen int) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = unsafeRunes.Replace(s)
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > maxLen {
		s = string(r[:maxLen])
	}
	return s
}

// ValidateToken runs the pre-decode checks on a URL import token, decodes it
// and validates the payload. All failures come back as ImportError so the
// caller surfaces one uniform rejection.
func ValidateToken(token string) (model.ShareEnvelope, error) {
	var env model.ShareEnvelope

	if token == "" || len(token) > share.MaxURLLen {
		return env, &model.ImportError{Message: "import link is too long or empty"}
	}
	for _, re := range suspiciousRes {
		if re.MatchString(token) {
			return env, &model.ImportError{Message: "invalid import link format"}
		}
	}

	env, err := share.Decode(token)
	if err != nil {
		return env, &model.ImportError{Message: "invalid import link format"}
	}
	if err := Validate(&env); err != nil {
		return model.ShareEnvelope{}, err
	}
	return env, nil
}
