package settings_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"contenthub/internal/settings"
)

// MockRepository is a mock implementation of settings.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Get(ctx context.Context) (*settings.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Settings), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, s *settings.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

var defaults = settings.Settings{
	GeneratorProvider: "anthropic",
	AnthropicModel:    "claude-sonnet-4-5",
	DefaultLanguage:   "fr",
}

func TestService_GetFillsDefaults(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("Get", mock.Anything).Return(&settings.Settings{ID: 1, GeminiAPIKey: "stored"}, nil)
	svc := settings.NewService(mockRepo, defaults)

	s, err := svc.Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "anthropic", s.GeneratorProvider)
	assert.Equal(t, "fr", s.DefaultLanguage)
	assert.Equal(t, "stored", s.GeminiAPIKey)
}

func TestHandler_GetSettings(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := settings.NewService(mockRepo, defaults)
		handler := settings.NewHandler(svc)

		mockRepo.On("Get", mock.Anything).Return(&settings.Settings{
			GeneratorProvider: "gemini",
			GeminiAPIKey:      "AIzaSyExampleKey1234",
			NotionAPIKey:      "short",
		}, nil)

		req := httptest.NewRequest("GET", "/settings", nil)
		w := httptest.NewRecorder()

		handler.GetSettings(w, req)

		resp := w.Result()
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&body)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, "gemini", data["generator_provider"])
		assert.Equal(t, "AIza****1234", data["gemini_api_key"])
		assert.Equal(t, "****", data["notion_api_key"])
		assert.Equal(t, "", data["anthropic_api_key"])

		mockRepo.AssertExpectations(t)
	})

	t.Run("InternalError", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := settings.NewService(mockRepo, defaults)
		handler := settings.NewHandler(svc)

		mockRepo.On("Get", mock.Anything).Return(nil, errors.New("db error"))

		req := httptest.NewRequest("GET", "/settings", nil)
		w := httptest.NewRecorder()

		handler.GetSettings(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
	})
}

func TestHandler_UpdateSettings(t *testing.T) {
	t.Run("Success keeps masked secrets", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := settings.NewService(mockRepo, defaults)
		handler := settings.NewHandler(svc)

		mockRepo.On("Get", mock.Anything).Return(&settings.Settings{GeminiAPIKey: "real-gemini-key", NotionAPIKey: "real-notion"}, nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(s *settings.Settings) bool {
			return s.GeneratorProvider == "gemini" &&
				s.GeminiAPIKey == "real-gemini-key" &&
				s.NotionAPIKey == "new-notion-key"
		})).Return(nil)

		body, _ := json.Marshal(map[string]string{
			"generator_provider": "gemini",
			"gemini_api_key":     "real****-key",
			"notion_api_key":     "new-notion-key",
		})
		req := httptest.NewRequest("PUT", "/settings", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), `"data"`)
		assert.NotContains(t, w.Body.String(), "real-gemini-key")
		mockRepo.AssertExpectations(t)
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		mockRepo := new(MockRepository)
		handler := settings.NewHandler(settings.NewService(mockRepo, defaults))

		req := httptest.NewRequest("PUT", "/settings", bytes.NewBufferString(`{"notion_api_key":"0123456789abcdef"}`))
		w := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(w, req.Body, 8)

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Result().StatusCode)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("ValidationError", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := settings.NewService(mockRepo, defaults)
		handler := settings.NewHandler(svc)

		req := httptest.NewRequest("PUT", "/settings", bytes.NewBufferString("invalid json"))
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := settings.NewService(mockRepo, defaults)
		handler := settings.NewHandler(svc)

		req := httptest.NewRequest("PUT", "/settings", bytes.NewBufferString(`{"generator_provider":"openai"}`))
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
