package share

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/weeklycart/internal/model"
)

var exportDate = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func singleEnvelope() model.ShareEnvelope {
	return model.ShareEnvelope{
		Version:    model.EnvelopeVersion,
		ExportDate: exportDate,
		List: &model.SharedList{
			Name: "Einkaufsliste",
			Items: []model.SharedItem{
				{Name: "Proteinmilch", Amount: "1L"},
				{Name: "Eier", Amount: "10 Stück"},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := singleEnvelope()

	token, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// base64url keeps '=' padding; only '+', '/' and whitespace would break
	// a query parameter.
	if strings.ContainsAny(token, "+/ \n") {
		t.Errorf("token contains URL-unsafe characters: %q", token)
	}

	out, err := Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Version != in.Version {
		t.Errorf("version = %q, want %q", out.Version, in.Version)
	}
	if out.List == nil || out.List.Name != "Einkaufsliste" {
		t.Fatalf("list = %+v, want Einkaufsliste", out.List)
	}
	if len(out.List.Items) != 2 || out.List.Items[1].Amount != "10 Stück" {
		t.Errorf("items = %+v, want umlaut amount to survive", out.List.Items)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("!!!not-base64!!!"); err == nil {
		t.Error("expected invalid base64 to be rejected")
	}

	// Valid base64 of invalid JSON.
	if _, err := Decode("bm90LWpzb24="); err == nil {
		t.Error("expected non-JSON payload to be rejected")
	}
}

func TestURLTooLarge(t *testing.T) {
	env := singleEnvelope()
	items := make([]model.SharedItem, 0, 2000)
	for i := 0; i < 2000; i++ {
		items = append(items, model.SharedItem{Name: strings.Repeat("x", 30), Amount: "1 Stück"})
	}
	env.List.Items = items

	if _, err := URL("https://cart.example", env); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestURLContainsImportToken(t *testing.T) {
	link, err := URL("https://cart.example", singleEnvelope())
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if !strings.HasPrefix(link, "https://cart.example?import=") {
		t.Errorf("link = %q, want import query parameter", link)
	}

	token := strings.TrimPrefix(link, "https://cart.example?import=")
	if _, err := Decode(token); err != nil {
		t.Errorf("token from link must decode: %v", err)
	}
}

func TestTextSingleList(t *testing.T) {
	text, err := Text("https://cart.example", singleEnvelope())
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	for _, want := range []string{
		"🛒 Einkaufsliste",
		"• Proteinmilch (1L)",
		"• Eier (10 Stück)",
		"Link zum Importieren: https://cart.example?import=",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
}

func TestTextMultiList(t *testing.T) {
	env := model.ShareEnvelope{
		Version:    model.EnvelopeVersion,
		ExportDate: exportDate,
		Lists: []model.SharedList{
			{Name: "Wochenende", Items: []model.SharedItem{{Name: "Brot", Amount: "1 Stück"}}},
			{Name: "Party", Items: []model.SharedItem{{Name: "Chips", Amount: "3"}, {Name: "Cola", Amount: "2L"}}},
		},
	}

	text, err := Text("https://cart.example", env)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	for _, want := range []string{
		"Einkaufslisten (2)",
		"📋 Wochenende (1 Artikel)",
		"📋 Party (2 Artikel)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	// The default amount is noise, not information.
	if strings.Contains(text, "1 Stück") {
		t.Error("multi-list summary should not render item amounts")
	}
}

func TestCompressSingleList(t *testing.T) {
	env := singleEnvelope()
	items := make([]model.SharedItem, 0, 80)
	for i := 0; i < 80; i++ {
		items = append(items, model.SharedItem{
			Name:   strings.Repeat("n", 60),
			Amount: strings.Repeat("a", 20),
		})
	}
	env.List.Items = items
	env.List.Name = strings.Repeat("L", 70)

	out := Compress(env)

	if len(out.List.Items) != 50 {
		t.Errorf("compressed item count = %d, want 50", len(out.List.Items))
	}
	if got := len([]rune(out.List.Name)); got != 50 {
		t.Errorf("compressed list name length = %d, want 50", got)
	}
	if got := len([]rune(out.List.Items[0].Name)); got != 30 {
		t.Errorf("compressed item name length = %d, want 30", got)
	}
	if got := len([]rune(out.List.Items[0].Amount)); got != 10 {
		t.Errorf("compressed amount length = %d, want 10", got)
	}

	// The original is untouched.
	if len(env.List.Items) != 80 {
		t.Error("compress must not mutate its input")
	}
}

func TestCompressMultiList(t *testing.T) {
	items := make([]model.SharedItem, 0, 40)
	for i := 0; i < 40; i++ {
		items = append(items, model.SharedItem{Name: "x", Amount: "1"})
	}
	env := model.ShareEnvelope{
		Version: model.EnvelopeVersion,
		Lists: []model.SharedList{
			{Name: "A", Items: items},
			{Name: "B", Items: items},
		},
	}

	out := Compress(env)
	for _, l := range out.Lists {
		if len(l.Items) != 20 {
			t.Errorf("list %q compressed to %d items, want 20", l.Name, len(l.Items))
		}
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	if got := truncate("Müsliriegel", 5); got != "Müsli" {
		t.Errorf("truncate = %q, want %q", got, "Müsli")
	}
	if got := truncate("kurz", 10); got != "kurz" {
		t.Errorf("truncate = %q, want unchanged", got)
	}
}
