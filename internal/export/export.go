// Package export renders list collections as downloadable files and parses
// uploaded JSON exports back in.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/dukerupert/weeklycart/internal/importer"
	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/share"
)

// JSON renders an envelope as a pretty-printed export document.
func JSON(env model.ShareEnvelope) ([]byte, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

// Text renders the whole collection as a human-readable listing.
func Text(lists []model.ShoppingList, now time.Time) string {
	var b strings.Builder
	b.WriteString("Shopping Lists Export\n")
	fmt.Fprintf(&b, "Exported: %s\n", now.Format("02.01.2006 15:04"))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, l := range lists {
		writeListText(&b, l)
		b.WriteString("\n")
	}
	return b.String()
}

// SingleText renders one list as a human-readable listing.
func SingleText(l model.ShoppingList, now time.Time) string {
	var b strings.Builder
	writeListText(&b, l)
	fmt.Fprintf(&b, "\nExported: %s\n", now.Format("02.01.2006 15:04"))
	return b.String()
}

func writeListText(b *strings.Builder, l model.ShoppingList) {
	b.WriteString(l.Name + "\n")
	b.WriteString(strings.Repeat("-", len([]rune(l.Name))) + "\n")
	for _, item := range l.Items {
		status := "○"
		if item.Checked {
			status = "✓"
		}
		fmt.Fprintf(b, "%s %s", status, item.Name)
		if item.Amount != "" && item.Amount != model.DefaultAmount {
			fmt.Fprintf(b, " (%s)", item.Amount)
		}
		b.WriteString("\n")
	}
}

var fileNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileName builds a timestamped download name like
// "shopping-lists-2026-08-30T07-15-00.json".
func FileName(base, ext string, now time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format("2006-01-02T15:04:05"))
	return fmt.Sprintf("%s-%s.%s", base, stamp, ext)
}

// ListFileName builds a download name for a single list, replacing anything
// outside [a-zA-Z0-9] in the list name.
func ListFileName(listName, ext string, now time.Time) string {
	return FileName("list-"+fileNameUnsafe.ReplaceAllString(listName, "-"), ext, now)
}

// ParseJSON reads an uploaded export file and validates it. Any syntax
// problem is reported uniformly as an invalid file; structural problems come
// back as the validator's ImportError.
func ParseJSON(r io.Reader) (model.ShareEnvelope, error) {
	var env model.ShareEnvelope

	dec := json.NewDecoder(io.LimitReader(r, share.MaxDecodedBytes))
	if err := dec.Decode(&env); err != nil {
		return env, &model.ImportError{Message: "Invalid JSON file format"}
	}
	if err := importer.Validate(&env); err != nil {
		return model.ShareEnvelope{}, err
	}
	return env, nil
}
