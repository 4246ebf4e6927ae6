package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/share"
)

func validEnvelope() *model.ShareEnvelope {
	return &model.ShareEnvelope{
		Version: model.EnvelopeVersion,
		List: &model.SharedList{
			Name: "Einkaufsliste",
			Items: []model.SharedItem{
				{Name: "Brot", Amount: "1 Stück"},
			},
		},
	}
}

func wantImportError(t *testing.T, err error, message string) {
	t.Helper()
	var ierr *model.ImportError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if ierr.Message != message {
		t.Errorf("message = %q, want %q", ierr.Message, message)
	}
}

func TestValidateAcceptsCleanEnvelope(t *testing.T) {
	if err := Validate(validEnvelope()); err != nil {
		t.Errorf("valid envelope rejected: %v", err)
	}
}

func TestValidateStructuralRejections(t *testing.T) {
	wantImportError(t, Validate(nil), "invalid data format")

	env := validEnvelope()
	env.Version = ""
	wantImportError(t, Validate(env), "missing version information")

	env = &model.ShareEnvelope{Version: model.EnvelopeVersion}
	wantImportError(t, Validate(env), "no valid list data found")
}

func TestValidateListRejections(t *testing.T) {
	env := validEnvelope()
	env.List.Name = "   "
	wantImportError(t, Validate(env), "invalid list name")

	env = validEnvelope()
	env.List.Items = nil
	wantImportError(t, Validate(env), "invalid list items structure")

	env = validEnvelope()
	items := make([]model.SharedItem, 0, MaxItemsPerList+1)
	for i := 0; i <= MaxItemsPerList; i++ {
		items = append(items, model.SharedItem{Name: "x", Amount: "1"})
	}
	env.List.Items = items
	wantImportError(t, Validate(env), `list "Einkaufsliste" has too many items (max 500)`)
}

func TestValidateTooManyLists(t *testing.T) {
	env := &model.ShareEnvelope{Version: model.EnvelopeVersion}
	for i := 0; i <= MaxLists; i++ {
		env.Lists = append(env.Lists, model.SharedList{
			Name:  "L",
			Items: []model.SharedItem{},
		})
	}
	wantImportError(t, Validate(env), "too many lists (max 100)")
}

func TestValidateItemRejections(t *testing.T) {
	env := validEnvelope()
	env.List.Items[0].Name = " "
	wantImportError(t, Validate(env), "invalid item name in list")

	env = validEnvelope()
	env.List.Items[0].Amount = ""
	wantImportError(t, Validate(env), "invalid item amount in list")
}

func TestValidateSanitizesInPlace(t *testing.T) {
	env := validEnvelope()
	env.List.Name = `<b>Meine "Liste"</b>`
	env.List.Items[0].Name = "Brot<script>alert(1)</script>"
	env.List.Items[0].Amount = "1 & mehr"

	if err := Validate(env); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if env.List.Name != "Meine Liste" {
		t.Errorf("list name = %q, want tags and quotes stripped", env.List.Name)
	}
	if env.List.Items[0].Name != "Brotalert(1)" {
		t.Errorf("item name = %q, want script tags stripped", env.List.Items[0].Name)
	}
	if env.List.Items[0].Amount != "1  mehr" {
		t.Errorf("amount = %q, want ampersand stripped", env.List.Items[0].Amount)
	}
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("ü", 250)
	if got := len([]rune(Sanitize(long, 200))); got != 200 {
		t.Errorf("sanitized length = %d, want 200", got)
	}
}

func TestValidateTokenRejectsEmptyAndOversized(t *testing.T) {
	_, err := ValidateToken("")
	wantImportError(t, err, "import link is too long or empty")

	_, err = ValidateToken(strings.Repeat("A", share.MaxURLLen+1))
	wantImportError(t, err, "import link is too long or empty")
}

func TestValidateTokenRejectsSuspiciousPatterns(t *testing.T) {
	for _, token := range []string{
		"javascript:alert(1)",
		"JAVASCRIPT:alert(1)",
		"data:text/html;base64,xx",
		"vbscript:msgbox",
		"<script>x</script>",
		"eval(document)",
		"expression(alert)",
	} {
		_, err := ValidateToken(token)
		wantImportError(t, err, "invalid import link format")
	}
}

func TestValidateTokenRoundTrip(t *testing.T) {
	env := validEnvelope()
	token, err := share.Encode(*env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if out.List == nil || out.List.Name != "Einkaufsliste" {
		t.Errorf("decoded list = %+v, want Einkaufsliste", out.List)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("%%%not-a-token%%%")
	wantImportError(t, err, "invalid import link format")
}
