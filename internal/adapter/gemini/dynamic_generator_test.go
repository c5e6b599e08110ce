package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"contenthub/internal/generator"
	"contenthub/internal/settings"
)

// MockRepo implements settings.Repository
type MockRepo struct {
	Settings *settings.Settings
	Err      error
}

func (m *MockRepo) Get(ctx context.Context) (*settings.Settings, error) {
	return m.Settings, m.Err
}

func (m *MockRepo) Update(ctx context.Context, s *settings.Settings) error {
	return nil
}

func TestDynamicGenerator_Generate_NoKey(t *testing.T) {
	repo := &MockRepo{
		Settings: &settings.Settings{GeminiAPIKey: ""},
	}
	svc := settings.NewService(repo, settings.Settings{})
	gen := NewDynamicGenerator(svc)

	_, err := gen.Generate(context.Background(), generator.Request{RawText: "notes", Category: "article"})
	assert.Error(t, err)
	assert.True(t, generator.IsNotConfigured(err))
	assert.Contains(t, err.Error(), "gemini api key not configured")
}

func TestDynamicGenerator_Generate_SettingsError(t *testing.T) {
	repo := &MockRepo{
		Err: errors.New("db fail"),
	}
	svc := settings.NewService(repo, settings.Settings{})
	gen := NewDynamicGenerator(svc)

	_, err := gen.Generate(context.Background(), generator.Request{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get settings")
}

func TestDynamicGenerator_ClientSwitching(t *testing.T) {
	repo := &MockRepo{
		Settings: &settings.Settings{GeminiAPIKey: "key1"},
	}
	svc := settings.NewService(repo, settings.Settings{})
	gen := NewDynamicGenerator(svc)

	ctx := context.Background()

	client1, err := gen.getClient(ctx, "key1")
	assert.NoError(t, err)
	assert.NotNil(t, client1)
	assert.Equal(t, "key1", gen.currentKey)

	client2, err := gen.getClient(ctx, "key1")
	assert.NoError(t, err)
	assert.Equal(t, client1, client2)

	client3, err := gen.getClient(ctx, "key2")
	assert.NoError(t, err)
	assert.NotEqual(t, client1, client3)
	assert.Equal(t, "key2", gen.currentKey)
}
