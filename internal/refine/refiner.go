package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"bluecrm/attribsync/internal/correlation"
	"bluecrm/attribsync/internal/platform"
	"bluecrm/attribsync/pkg/config"
	"bluecrm/attribsync/pkg/errorutil"
	"bluecrm/attribsync/pkg/logger"
)

// Verdict AI 精炼结论（按需创建，从不修改，重新请求时整体替换）
// 四个字段均可缺省：模型响应缺字段时省略，不视为失败
type Verdict struct {
	Conclusion        string `json:"conclusion,omitempty"`
	Attribution       string `json:"attribution,omitempty"`
	ConfidenceLabel   string `json:"confidence_label,omitempty"`
	RecommendedAction string `json:"recommended_action,omitempty"`
}

// modelInvoker Bedrock 调用接口（便于测试替换）
type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Refiner AI 精炼适配器
// 仅做尽力而为的增强：单次尝试、失败不重试，结论缺失绝不阻塞确定性摘要
type Refiner struct {
	client    modelInvoker
	modelID   string
	maxTokens int
	enabled   bool
	log       logger.Logger
}

// bedrock anthropic messages 请求/响应结构
type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = "Voce analisa atribuicao de vendas em marketing digital. " +
	"Receba o registro consolidado de um pedido e o resumo deterministico ja calculado, " +
	"e responda SOMENTE um JSON com os campos: conclusion, attribution, confidence_label (Low/Medium/High), recommended_action."

// New 创建精炼适配器（enabled=false 时不加载 AWS 配置）
func New(ctx context.Context, cfg config.RefineConfig, log logger.Logger) (*Refiner, error) {
	if !cfg.Enabled {
		return &Refiner{enabled: false, log: log}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config failed: %w", err)
	}

	return &Refiner{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		modelID:   cfg.ModelID,
		maxTokens: cfg.MaxTokens,
		enabled:   true,
		log:       log,
	}, nil
}

// Enabled 返回精炼步骤是否启用
func (r *Refiner) Enabled() bool {
	return r.enabled
}

// Refine 发送消费记录 + 摘要并解析结构化结论
// 任何传输/解析失败都包装为 RefinementUnavailable，由调用方降级处理
func (r *Refiner) Refine(ctx context.Context, rec *platform.CrossPlatformRecord, summary *correlation.Summary) (*Verdict, error) {
	if !r.enabled {
		return nil, errorutil.RefinementUnavailable(fmt.Errorf("refiner disabled"))
	}

	payload := struct {
		Record  *platform.CrossPlatformRecord `json:"record"`
		Summary *correlation.Summary          `json:"summary"`
	}{Record: rec, Summary: summary}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, errorutil.RefinementUnavailable(err)
	}

	reqBody, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        r.maxTokens,
		System:           systemPrompt,
		Messages: []bedrockMessage{
			{Role: "user", Content: string(payloadJSON)},
		},
	})
	if err != nil {
		return nil, errorutil.RefinementUnavailable(err)
	}

	out, err := r.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(r.modelID),
		ContentType: aws.String("application/json"),
		Body:        reqBody,
	})
	if err != nil {
		return nil, errorutil.RefinementUnavailable(err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, errorutil.RefinementUnavailable(err)
	}
	if len(resp.Content) == 0 {
		return nil, errorutil.RefinementUnavailable(fmt.Errorf("empty model response"))
	}

	verdict, err := parseVerdict(resp.Content[0].Text)
	if err != nil {
		return nil, errorutil.RefinementUnavailable(err)
	}

	return verdict, nil
}

// parseVerdict 宽松解析模型输出
// 模型可能在 JSON 前后输出说明文字，只取第一个 { 到最后一个 } 之间的内容；
// 缺失字段直接省略而不是判定失败
func parseVerdict(text string) (*Verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in model output")
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &verdict); err != nil {
		return nil, fmt.Errorf("unmarshal verdict failed: %w", err)
	}

	return &verdict, nil
}
