package translate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTranslateBatchRoundTrip(t *testing.T) {
	workDir := t.TempDir()

	var gotName string
	var gotArgs []string
	svc := NewService(Config{LowMem: true})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args

		// The helper reads the request and writes translations keyed by id.
		data, err := os.ReadFile(filepath.Join(workDir, "translate_request.json"))
		if err != nil {
			return err
		}
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for i := range items {
			items[i].Text = "DE:" + items[i].Text
		}
		out, err := json.Marshal(items)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(workDir, "translate_response.json"), out, 0o644)
	})

	results, err := svc.TranslateBatch(
		context.Background(),
		[]Item{{ID: 1, Text: "Hello."}, {ID: 2, Text: "Goodbye."}},
		"eng_Latn", "deu_Latn", workDir, "cpu",
	)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if gotName != UVXCommand {
		t.Fatalf("binary = %q, want uvx", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"redub-mt",
		"--model nllb-200-distilled-600M",
		"--src-lang eng_Latn",
		"--tgt-lang deu_Latn",
		"--device cpu",
		"--low-mem",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if results[1] != "DE:Hello." || results[2] != "DE:Goodbye." {
		t.Fatalf("results wrong: %v", results)
	}
}

func TestTranslateBatchEmptyInput(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) error {
		t.Fatal("helper must not run for empty input")
		return nil
	})

	results, err := svc.TranslateBatch(context.Background(), nil, "eng_Latn", "deu_Latn", t.TempDir(), "cpu")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %v, want empty", results)
	}
}

func TestTranslateBatchDetectsMissingSegments(t *testing.T) {
	workDir := t.TempDir()

	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) error {
		return os.WriteFile(
			filepath.Join(workDir, "translate_response.json"),
			[]byte(`[{"id": 1, "text": "nur eins"}]`),
			0o644,
		)
	})

	_, err := svc.TranslateBatch(
		context.Background(),
		[]Item{{ID: 1, Text: "one"}, {ID: 2, Text: "two"}},
		"eng_Latn", "deu_Latn", workDir, "cpu",
	)
	if err == nil {
		t.Fatal("expected error for incomplete response")
	}
}

func TestTranslateBatchRequiresTargetLanguage(t *testing.T) {
	svc := NewService(Config{})
	if _, err := svc.TranslateBatch(context.Background(), []Item{{ID: 1, Text: "x"}}, "", " ", t.TempDir(), "cpu"); err == nil {
		t.Fatal("expected error for missing target language")
	}
}
