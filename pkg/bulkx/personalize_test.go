package bulkx_test

import (
	"testing"

	"github.com/Abraxas-365/bulkmailer/pkg/bulkx"
)

func TestPersonalizeContent_ReplacesFields(t *testing.T) {
	fields := map[string]string{
		"name":    "Alice",
		"company": "Acme",
		"email":   "alice@example.com",
	}

	subject, body := bulkx.PersonalizeContent(
		"Hello {{name}}",
		"<p>{{name}} works at {{company}}. Reach her at {{email}}.</p>",
		fields, true,
	)

	if subject != "Hello Alice" {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if body != "<p>Alice works at Acme. Reach her at alice@example.com.</p>" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestPersonalizeContent_EmptyValueSubstitutesEmptyString(t *testing.T) {
	subject, body := bulkx.PersonalizeContent(
		"Hi {{name}}",
		"From {{company}}.",
		map[string]string{"name": "Ann", "company": ""}, true,
	)

	if subject != "Hi Ann" {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if body != "From ." {
		t.Fatalf("present-but-empty field must substitute the empty string, got %q", body)
	}
}

func TestPersonalizeContent_UnknownPlaceholderSurvives(t *testing.T) {
	subject, body := bulkx.PersonalizeContent(
		"Hi {{name}}",
		"Your code is {{code}}",
		map[string]string{"name": "Bob"}, true,
	)

	if subject != "Hi Bob" {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if body != "Your code is {{code}}" {
		t.Fatalf("unmatched placeholder must pass through verbatim, got %q", body)
	}
}

func TestPersonalizeContent_ValuesAreNotRescanned(t *testing.T) {
	fields := map[string]string{
		"a": "{{b}}",
		"b": "boom",
	}

	_, body := bulkx.PersonalizeContent("s", "{{a}} {{b}}", fields, true)
	if body != "{{b}} boom" {
		t.Fatalf("inserted value was re-expanded: %q", body)
	}
}

func TestPersonalizeContent_RepeatedPlaceholder(t *testing.T) {
	_, body := bulkx.PersonalizeContent("s", "{{name}} and {{name}} again",
		map[string]string{"name": "Eve"}, true)
	if body != "Eve and Eve again" {
		t.Fatalf("every occurrence must be replaced, got %q", body)
	}
}

func TestPersonalizeContent_Disabled(t *testing.T) {
	subject, body := bulkx.PersonalizeContent(
		"Hi {{name}}", "Body {{name}}",
		map[string]string{"name": "Alice"}, false,
	)
	if subject != "Hi {{name}}" || body != "Body {{name}}" {
		t.Fatalf("disabled personalization must pass through, got %q / %q", subject, body)
	}
}
