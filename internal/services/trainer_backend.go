package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yamenzk/ptrainer/internal/models"
	"go.uber.org/zap"
)

const (
	updateClientMethod  = "ptrainer.ptrainer_methods.update_client"
	getMembershipMethod = "ptrainer.ptrainer_methods.get_membership"
)

type TrainerBackend interface {
	UpdateClient(ctx context.Context, params url.Values) error
	GetMembership(ctx context.Context, membership string) (*models.MembershipSnapshot, error)
}

// BackendError reports a failed call to the trainer backend, whether the
// failure came from the status code or from an error-shaped body.
type BackendError struct {
	Method  string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Method, e.Status, e.Message)
}

type FrappeTrainerBackend struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	logger     *zap.Logger
}

type FrappeOption func(*FrappeTrainerBackend)

func WithAPIToken(key, secret string) FrappeOption {
	return func(b *FrappeTrainerBackend) {
		if key != "" && secret != "" {
			b.authHeader = "token " + key + ":" + secret
		}
	}
}

func WithHTTPClient(client *http.Client) FrappeOption {
	return func(b *FrappeTrainerBackend) {
		if client != nil {
			b.httpClient = client
		}
	}
}

func NewFrappeTrainerBackend(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...FrappeOption) *FrappeTrainerBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := &FrappeTrainerBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(backend)
	}
	return backend
}

func (b *FrappeTrainerBackend) UpdateClient(ctx context.Context, params url.Values) error {
	_, err := b.call(ctx, updateClientMethod, params)
	return err
}

func (b *FrappeTrainerBackend) GetMembership(ctx context.Context, membership string) (*models.MembershipSnapshot, error) {
	if strings.TrimSpace(membership) == "" {
		return nil, fmt.Errorf("get membership: %w", ErrInvalidInput)
	}

	data, err := b.call(ctx, getMembershipMethod, url.Values{"membership": {membership}})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, &BackendError{Method: getMembershipMethod, Message: "response carried no data"}
	}

	var snapshot models.MembershipSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode membership response: %w", err)
	}
	return &snapshot, nil
}

type methodEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
	Success *bool           `json:"success"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	ExcType   string `json:"exc_type"`
	Exception string `json:"exception"`
}

// failure returns the error message carried by an error-shaped body.
func (e methodEnvelope) failure() (string, bool) {
	switch {
	case e.Error != nil:
		return nonEmpty(e.Error.Message, "backend reported an error"), true
	case len(e.Errors) > 0:
		return nonEmpty(e.Errors[0].Message, "backend reported an error"), true
	case e.Exception != "" || e.ExcType != "":
		return nonEmpty(e.Exception, e.ExcType), true
	case e.Success != nil && !*e.Success:
		return nonEmpty(e.messageText(), "backend reported failure"), true
	default:
		return "", false
	}
}

func (e methodEnvelope) messageText() string {
	var text string
	if err := json.Unmarshal(e.Message, &text); err == nil {
		return text
	}
	return ""
}

func (e methodEnvelope) payload() json.RawMessage {
	if len(e.Data) > 0 {
		return e.Data
	}
	return e.Message
}

func (b *FrappeTrainerBackend) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/api/v2/method/%s", b.baseURL, method)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if b.authHeader != "" {
		req.Header.Set("Authorization", b.authHeader)
	}

	started := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.logger.Warn("backend call failed", zap.String("method", method), zap.Error(err))
		return nil, &BackendError{Method: method, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	b.logger.Debug("backend call",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	var envelope methodEnvelope
	decodeErr := json.Unmarshal(body, &envelope)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if decodeErr == nil {
			if text, ok := envelope.failure(); ok {
				message = text
			} else if text := envelope.messageText(); text != "" {
				message = text
			}
		}
		return nil, &BackendError{Method: method, Status: resp.StatusCode, Message: truncate(message, 512)}
	}
	if decodeErr != nil {
		return nil, &BackendError{Method: method, Status: resp.StatusCode, Message: "response is not valid JSON"}
	}
	if message, failed := envelope.failure(); failed {
		return nil, &BackendError{Method: method, Status: resp.StatusCode, Message: message}
	}
	return envelope.payload(), nil
}

func IsBackendError(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}

func nonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
