// Package llm wraps langchaingo text generation behind the description
// provider used by the batch engine.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/minhle/prodcat/internal/config"
)

// Result is one {name, description} pair returned by the model. The name is
// expected to echo the input name verbatim; the matcher tolerates deviations.
type Result struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorKind classifies describe failures.
type ErrorKind string

const (
	// KindConfig: provider credentials or configuration missing; no call made.
	KindConfig ErrorKind = "config"
	// KindInput: empty name list; no call made.
	KindInput ErrorKind = "input"
	// KindRequest: transport or provider-side generation failure.
	KindRequest ErrorKind = "request"
	// KindEmpty: the model returned no text payload.
	KindEmpty ErrorKind = "empty"
	// KindParse: the payload was not valid JSON.
	KindParse ErrorKind = "parse"
	// KindShape: valid JSON but not an array of {name, description}.
	KindShape ErrorKind = "shape"
)

// DescribeError carries a classified describe failure.
type DescribeError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *DescribeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("describe (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("describe (%s): %s", e.Kind, e.Msg)
}

func (e *DescribeError) Unwrap() error {
	return e.Err
}

// Describer generates marketing descriptions for product names. It performs
// no retries; retry policy belongs to the caller.
type Describer struct {
	llm       llms.Model
	modelName string
	logger    *slog.Logger
}

// NewDescriber creates a describer for the configured provider. Missing
// credentials fail here, before any network call is possible.
func NewDescriber(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Describer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderGoogleAI:
		if cfg.GoogleAPIKey == "" {
			return nil, &DescribeError{Kind: KindConfig, Msg: "Google AI API key required"}
		}
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.GoogleAPIKey),
			googleai.WithDefaultModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, &DescribeError{Kind: KindConfig, Msg: "OpenAI API key required"}
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, &DescribeError{Kind: KindConfig, Msg: "Anthropic API key required"}
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, &DescribeError{Kind: KindConfig, Msg: fmt.Sprintf("unsupported LLM provider: %s", cfg.LLMProvider)}
	}

	return &Describer{llm: model, modelName: cfg.LLMModel, logger: logger}, nil
}

// Model returns the configured model name.
func (d *Describer) Model() string {
	return d.modelName
}

// promptTemplate embeds all batch names in one generation request. The model
// must echo each input name verbatim so results can be matched back.
const promptTemplate = `Bạn là chuyên gia quản lý nội dung sản phẩm cho siêu thị.
NHIỆM VỤ: Viết mô tả bán hàng chi tiết cho từng sản phẩm trong danh sách.

CẤU TRÚC MỖI MÔ TẢ:
- Đoạn mở đầu 3-4 câu giới thiệu hấp dẫn về sản phẩm.
- Thành phần: suy luận hợp lý từ tên sản phẩm.
- Xuất xứ: suy luận từ thương hiệu, mặc định là Việt Nam.
- Hướng dẫn sử dụng và bảo quản.
- Thông tin cảnh báo an toàn.
- Đoạn kết 1-2 câu mời mua hàng.

YÊU CẦU KỸ THUẬT:
1. BẮT BUỘC giữ nguyên tên sản phẩm trong trường "name" y hệt đầu vào.
2. Trả về DUY NHẤT một JSON array dạng [{"name": "...", "description": "..."}],
   mỗi phần tử ứng với một sản phẩm, đúng thứ tự danh sách.
3. Không dùng dấu sao (**) trong bài viết.

DANH SÁCH SẢN PHẨM CẦN VIẾT: %s`

// Describe issues one generation call carrying all names and returns the
// parsed results. Every failure mode maps to a distinct DescribeError kind.
func (d *Describer) Describe(ctx context.Context, names []string) ([]Result, error) {
	if len(names) == 0 {
		return nil, &DescribeError{Kind: KindInput, Msg: "product names list is empty"}
	}

	prompt := fmt.Sprintf(promptTemplate, strings.Join(names, " | "))

	d.logger.Debug("describe request", "model", d.modelName, "names", len(names))
	text, err := llms.GenerateFromSinglePrompt(ctx, d.llm, prompt)
	if err != nil {
		return nil, &DescribeError{Kind: KindRequest, Msg: "generation failed", Err: err}
	}

	return parseResults(text)
}

// parseResults validates the model payload as an array of {name, description}
// rather than trusting its structure.
func parseResults(text string) ([]Result, error) {
	payload := stripFences(text)
	if payload == "" {
		return nil, &DescribeError{Kind: KindEmpty, Msg: "model returned no text payload"}
	}

	var raw any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &DescribeError{Kind: KindParse, Msg: "payload is not valid JSON", Err: err}
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, &DescribeError{Kind: KindShape, Msg: "payload is not a JSON array"}
	}

	results := make([]Result, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &DescribeError{Kind: KindShape, Msg: fmt.Sprintf("element %d is not an object", i)}
		}
		name, ok := obj["name"].(string)
		if !ok {
			return nil, &DescribeError{Kind: KindShape, Msg: fmt.Sprintf("element %d missing string name", i)}
		}
		description, ok := obj["description"].(string)
		if !ok {
			return nil, &DescribeError{Kind: KindShape, Msg: fmt.Sprintf("element %d missing string description", i)}
		}
		results = append(results, Result{Name: name, Description: description})
	}
	return results, nil
}

// stripFences removes a surrounding markdown code fence, which some models
// emit even when asked for raw JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
