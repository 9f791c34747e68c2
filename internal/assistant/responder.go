package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"agriconnect/backend/pkg/logger"
	"agriconnect/backend/pkg/metrics"
)

// DefaultModelURL is the hosted inference endpoint used when no override is
// configured.
const DefaultModelURL = "https://api-inference.huggingface.co/models/facebook/blenderbot-400M-distill"

// DefaultCallTimeout bounds the remote call from the HTTP client side,
// independently of any deadline on the caller's context.
const DefaultCallTimeout = 10 * time.Second

// Canned replies selected by keyword before the remote service is consulted.
// Slice order is priority order: the first matching keyword wins.
var keywordReplies = []struct {
	keyword string
	reply   string
}{
	{"hello", "👋 Hello! I'm your AgriConnect assistant. How can I help with your farming today?"},
	{"hi", "👋 Hi there! Ready to talk farming?"},
	{"agriculture", "🌾 Agriculture is the practice of cultivating plants and livestock. I can help with crop rotation, soil health, irrigation, pest control, and modern farming techniques!"},
	{"crop", "🌱 Crops are plants cultivated for food, fiber, and other uses. Popular crops include maize, wheat, rice, and vegetables. Need specific advice?"},
	{"weather", "☀️ Weather greatly affects farming! I can help you understand seasonal patterns, rainfall needs, and how to protect crops from extreme weather."},
	{"pest", "🐛 Pest management is crucial! Integrated Pest Management (IPM) combines biological, cultural, and chemical methods. Tell me what pests you're dealing with!"},
	{"soil", "🌍 Healthy soil = healthy crops! Soil needs proper pH, nutrients, and organic matter. Soil testing can guide fertilizer use."},
	{"fertilizer", "💪 Fertilizers provide essential nutrients (N-P-K). Organic options include manure and compost, while synthetic ones offer precise nutrient control."},
	{"water", "💧 Proper irrigation is key! Drip irrigation saves water, while sprinklers cover large areas. The right method depends on your crops and local climate."},
	{"maize", "🌽 Maize (corn) needs warm weather, well-drained soil, and regular water. Plant after last frost and harvest when kernels are firm."},
	{"tomato", "🍅 Tomatoes need full sun, support stakes, and consistent watering. Watch for blight and use mulch to retain moisture."},
	{"help", "🤔 I can help with: crop advice, weather impacts, pest control, soil health, irrigation, and general farming best practices. What do you need?"},
}

// Fallback replies for the failure tiers. Every failure path still returns a
// farming-relevant message; the chat user never sees a raw error.
const (
	onboardingReply = "🌱 I'm here to help with farming questions! Ask me about crops, weather, pests, or farming techniques. (API key required for full AI features)"
	warmingUpReply  = "🔄 The AI model is loading. Please try again in 20-30 seconds. Meanwhile, I can tell you about crop rotation or soil health!"
	timeoutReply    = "⏰ The AI is taking too long to respond. Let me help directly: I specialize in farming advice like crop selection, pest management, and irrigation techniques!"
	authFailReply   = "🔐 API authentication issue. But I can still help with farming advice! Ask me about crops, soil, or weather patterns."
	questionReply   = "🌱 That's a great farming question! While I work on a detailed answer, remember: proper soil preparation and timely planting are key to successful crops. What specific crop are you working with?"
	statementReply  = "🌱 Thanks for sharing! As your farming assistant, I can help with crop advice, weather planning, pest control, and sustainable practices. What would you like to know more about?"
	unparsableReply = "🌱 I understand you're asking about farming! I specialize in crop management, soil health, and sustainable agriculture practices. Can you tell me more about your specific needs?"
)

// Config configures the responder
type Config struct {
	APIKey      string
	ModelURL    string
	CallTimeout time.Duration
}

// Responder produces assistant replies. Respond never fails: remote errors
// are downgraded to canned replies.
type Responder struct {
	apiKey     string
	modelURL   string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a responder
func New(cfg Config, log *logger.Logger) *Responder {
	if cfg.ModelURL == "" {
		cfg.ModelURL = DefaultModelURL
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Responder{
		apiKey:     cfg.APIKey,
		modelURL:   cfg.ModelURL,
		httpClient: &http.Client{Timeout: cfg.CallTimeout},
		log:        log.WithComponent("assistant"),
	}
}

type generateRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxLength   int     `json:"max_length"`
		Temperature float64 `json:"temperature"`
		DoSample    bool    `json:"do_sample"`
	} `json:"parameters"`
}

// generateResponse covers the response shapes the inference endpoint is known
// to return: a direct field, the first element of an array, or a nested
// conversation object.
type generateResponse struct {
	GeneratedText string `json:"generated_text"`
	Conversation  struct {
		GeneratedResponses []string `json:"generated_responses"`
	} `json:"conversation"`
}

// Respond returns a reply for the user's input. Cancelling ctx aborts the
// remote call; the timeout fallback is returned instead of an error.
func (r *Responder) Respond(ctx context.Context, userInput string) string {
	if r.apiKey == "" {
		metrics.AssistantReplies.WithLabelValues("onboarding").Inc()
		return onboardingReply
	}

	lowerInput := strings.ToLower(userInput)
	for _, entry := range keywordReplies {
		if strings.Contains(lowerInput, entry.keyword) {
			r.log.Debug("keyword shortcut matched", "keyword", entry.keyword)
			metrics.AssistantReplies.WithLabelValues("keyword").Inc()
			return entry.reply
		}
	}

	reply, err := r.generate(ctx, userInput)
	if err != nil {
		return r.fallbackFor(err, lowerInput)
	}

	metrics.AssistantReplies.WithLabelValues("remote").Inc()
	return reply
}

// remoteError carries the HTTP status of a failed inference call
type remoteError struct {
	status int
}

func (e *remoteError) Error() string {
	return http.StatusText(e.status)
}

func (r *Responder) generate(ctx context.Context, userInput string) (string, error) {
	reqBody := generateRequest{Inputs: userInput}
	reqBody.Parameters.MaxLength = 150
	reqBody.Parameters.Temperature = 0.9
	reqBody.Parameters.DoSample = true

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.modelURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &remoteError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return parseReply(body), nil
}

// parseReply tries the known response shapes in order and falls back to a
// generic domain reply when none match.
func parseReply(body []byte) string {
	var direct generateResponse
	if err := json.Unmarshal(body, &direct); err == nil {
		if direct.GeneratedText != "" {
			return direct.GeneratedText
		}
		if len(direct.Conversation.GeneratedResponses) > 0 {
			return direct.Conversation.GeneratedResponses[0]
		}
	}

	var list []generateResponse
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].GeneratedText != "" {
		return list[0].GeneratedText
	}

	return unparsableReply
}

// fallbackFor classifies a remote failure into one of the fallback tiers
func (r *Responder) fallbackFor(err error, lowerInput string) string {
	r.log.Warn("remote generation failed", "error", err.Error())

	var remoteErr *remoteError
	if errors.As(err, &remoteErr) {
		switch remoteErr.status {
		case http.StatusServiceUnavailable:
			metrics.AssistantReplies.WithLabelValues("fallback_warming").Inc()
			return warmingUpReply
		case http.StatusUnauthorized:
			metrics.AssistantReplies.WithLabelValues("fallback_auth").Inc()
			return authFailReply
		}
	}

	if isTimeout(err) {
		metrics.AssistantReplies.WithLabelValues("fallback_timeout").Inc()
		return timeoutReply
	}

	metrics.AssistantReplies.WithLabelValues("fallback_generic").Inc()
	if strings.HasSuffix(strings.TrimSpace(lowerInput), "?") {
		return questionReply
	}
	return statementReply
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
