package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	baiduTokenURL     = "https://aip.baidubce.com/oauth/2.0/token"
	baiduRecognizeURL = "https://aip.baidubce.com/rest/2.0/ocr/v1/accurate_basic"

	// Tokens are valid for 30 days; renew well before that.
	tokenLifetime = 29 * 24 * time.Hour
)

// TokenCache stores the OAuth access token between requests. Implementations
// must be safe for concurrent use.
type TokenCache interface {
	Get() (token string, ok bool)
	Put(token string, expiry time.Time)
}

// MemoryTokenCache keeps the token in process memory.
type MemoryTokenCache struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.expiry) {
		return "", false
	}
	return c.token, true
}

func (c *MemoryTokenCache) Put(token string, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiry = expiry
}

// BaiduConfig configures the cloud engine.
type BaiduConfig struct {
	APIKey    string
	SecretKey string
	Timeout   time.Duration

	// TokenURL and RecognizeURL override the API endpoints in tests.
	TokenURL     string
	RecognizeURL string

	// Cache overrides the default in-memory token cache.
	Cache TokenCache
}

// Baidu recognizes text through the Baidu OCR accurate_basic endpoint.
type Baidu struct {
	cfg    BaiduConfig
	client *http.Client
	cache  TokenCache
	logger *slog.Logger
}

// NewBaidu builds the cloud engine, filling config defaults.
func NewBaidu(cfg BaiduConfig, logger *slog.Logger) *Baidu {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = baiduTokenURL
	}
	if cfg.RecognizeURL == "" {
		cfg.RecognizeURL = baiduRecognizeURL
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return &Baidu{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger,
	}
}

type baiduTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type baiduWordsResponse struct {
	WordsResult []struct {
		Words string `json:"words"`
	} `json:"words_result"`
	WordsResultNum int    `json:"words_result_num"`
	ErrorCode      int    `json:"error_code"`
	ErrorMsg       string `json:"error_msg"`
}

func (b *Baidu) Recognize(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	token, err := b.accessToken(ctx)
	if err != nil {
		return Result{Method: "baidu"}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Method: "baidu"}, fmt.Errorf("read image: %w", err)
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	endpoint := b.cfg.RecognizeURL + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Method: "baidu"}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{Method: "baidu"}, fmt.Errorf("baidu ocr request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Method: "baidu"}, err
	}

	var decoded baiduWordsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Result{Method: "baidu"}, fmt.Errorf("baidu ocr response: %w", err)
	}
	if decoded.ErrorCode != 0 {
		return Result{Method: "baidu"},
			fmt.Errorf("baidu ocr error %d: %s", decoded.ErrorCode, decoded.ErrorMsg)
	}

	lines := make([]string, 0, len(decoded.WordsResult))
	for _, w := range decoded.WordsResult {
		if s := strings.TrimSpace(w.Words); s != "" {
			lines = append(lines, s)
		}
	}

	b.logger.Debug("baidu ocr done", "path", path, "lines", len(lines))
	return Result{
		Lines:    lines,
		Text:     strings.Join(lines, "\n"),
		Method:   "baidu",
		Language: "zh",
		Duration: time.Since(start),
	}, nil
}

// accessToken returns the cached OAuth token, fetching a fresh one on miss.
func (b *Baidu) accessToken(ctx context.Context) (string, error) {
	if token, ok := b.cache.Get(); ok {
		return token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", b.cfg.APIKey)
	form.Set("client_secret", b.cfg.SecretKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("baidu token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var decoded baiduTokenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("baidu token response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", fmt.Errorf("baidu token error: %s: %s", decoded.Error, decoded.ErrorDesc)
	}

	lifetime := tokenLifetime
	if decoded.ExpiresIn > 0 {
		lifetime = time.Duration(decoded.ExpiresIn) * time.Second
	}
	b.cache.Put(decoded.AccessToken, time.Now().Add(lifetime))
	return decoded.AccessToken, nil
}
