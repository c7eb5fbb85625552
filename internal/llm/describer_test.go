package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/minhle/prodcat/internal/config"
)

// fakeModel returns a canned payload or error for every generation call.
type fakeModel struct {
	payload string
	err     error
	calls   int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.payload}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

func newTestDescriber(fake *fakeModel) *Describer {
	return &Describer{
		llm:       fake,
		modelName: "test-model",
		logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var de *DescribeError
	if !errors.As(err, &de) {
		t.Fatalf("error %v is not a DescribeError", err)
	}
	return de.Kind
}

func TestDescribeEmptyInput(t *testing.T) {
	fake := &fakeModel{payload: "[]"}
	d := newTestDescriber(fake)

	_, err := d.Describe(context.Background(), nil)
	if got := kindOf(t, err); got != KindInput {
		t.Errorf("kind = %s, want %s", got, KindInput)
	}
	if fake.calls != 0 {
		t.Errorf("expected no generation call, got %d", fake.calls)
	}
}

func TestDescribeSuccess(t *testing.T) {
	fake := &fakeModel{payload: `[
		{"name": "Mì Hảo Hảo", "description": "Sợi mì dai ngon."},
		{"name": "Nước mắm Nam Ngư", "description": "Đậm đà vị cá cơm."}
	]`}
	d := newTestDescriber(fake)

	results, err := d.Describe(context.Background(), []string{"Mì Hảo Hảo", "Nước mắm Nam Ngư"})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Name != "Mì Hảo Hảo" || results[0].Description == "" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestDescribeFencedPayload(t *testing.T) {
	fake := &fakeModel{payload: "```json\n[{\"name\": \"A\", \"description\": \"B\"}]\n```"}
	d := newTestDescriber(fake)

	results, err := d.Describe(context.Background(), []string{"A"})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(results) != 1 || results[0].Description != "B" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestDescribeErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		err     error
		want    ErrorKind
	}{
		{"generation failure", "", errors.New("connection refused"), KindRequest},
		{"empty payload", "   ", nil, KindEmpty},
		{"invalid json", "not json at all", nil, KindParse},
		{"not an array", `{"name": "A"}`, nil, KindShape},
		{"element not object", `["just a string"]`, nil, KindShape},
		{"missing description", `[{"name": "A"}]`, nil, KindShape},
		{"wrong description type", `[{"name": "A", "description": 7}]`, nil, KindShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDescriber(&fakeModel{payload: tt.payload, err: tt.err})
			_, err := d.Describe(context.Background(), []string{"A"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := kindOf(t, err); got != tt.want {
				t.Errorf("kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewDescriberMissingCredentials(t *testing.T) {
	cfg := config.Config{LLMProvider: config.ProviderGoogleAI, LLMModel: "gemini-1.5-flash"}

	_, err := NewDescriber(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if got := kindOf(t, err); got != KindConfig {
		t.Errorf("kind = %s, want %s", got, KindConfig)
	}
}
