package apikey_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contenthub/features/apikey"
	"contenthub/internal/content"
	"contenthub/internal/docstore"
)

func TestGenerate_Format(t *testing.T) {
	k, err := apikey.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(k, apikey.Prefix))
	assert.Len(t, k, len(apikey.Prefix)+64)

	other, err := apikey.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, k, other)
}

func TestHash_IsHexSHA256(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", apikey.Hash("abc"))
}

func TestService_CreateAndVerify(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := apikey.NewService(store)
	ctx := context.Background()

	plain, created, err := svc.Create(ctx, "cli laptop", "cli")
	require.NoError(t, err)
	assert.Equal(t, apikey.Hash(plain), created.KeyHash)
	assert.True(t, created.Active)

	// plaintext is never persisted
	res, err := store.Find(ctx, content.CollectionAPIKeys, docstore.Query{})
	require.NoError(t, err)
	doc, ok := res.First()
	require.True(t, ok)
	assert.Empty(t, doc.String("key"))

	got, err := svc.Verify(ctx, plain)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "cli laptop", got.Name)
	require.NotNil(t, got.LastUsedAt)
}

func TestService_CreateRequiresName(t *testing.T) {
	svc := apikey.NewService(docstore.NewMemoryStore())
	_, _, err := svc.Create(context.Background(), "  ", "cli")
	assert.Error(t, err)
}

func TestService_VerifyRejects(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := apikey.NewService(store)
	ctx := context.Background()

	plain, created, err := svc.Create(ctx, "old", "cli")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "")
	assert.ErrorIs(t, err, apikey.ErrInvalidKey)

	_, err = svc.Verify(ctx, "chub_nope")
	assert.ErrorIs(t, err, apikey.ErrInvalidKey)

	_, err = store.Update(ctx, content.CollectionAPIKeys, created.ID, map[string]any{"active": false})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, plain)
	assert.ErrorIs(t, err, apikey.ErrInvalidKey)
}

func TestService_VerifyLegacyPlaintextKey(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	_, err := store.Create(ctx, content.CollectionAPIKeys, map[string]any{
		"name":   "legacy",
		"key":    "chub_legacy",
		"active": true,
	})
	require.NoError(t, err)

	got, err := apikey.NewService(store).Verify(ctx, "chub_legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", got.Name)
}

type MockStore struct {
	mock.Mock
	docstore.Store
}

func (m *MockStore) Find(ctx context.Context, collection string, q docstore.Query) (*docstore.FindResult, error) {
	args := m.Called(ctx, collection, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docstore.FindResult), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, collection, id string, data any) (*docstore.Document, error) {
	args := m.Called(ctx, collection, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docstore.Document), args.Error(1)
}

func TestService_VerifyIgnoresLastUsedFailure(t *testing.T) {
	plain := "chub_abc"
	doc := docstore.Document{ID: "k1", Data: map[string]any{"name": "n", "keyHash": apikey.Hash(plain), "active": true}}

	store := new(MockStore)
	store.On("Find", mock.Anything, content.CollectionAPIKeys, mock.Anything).
		Return(&docstore.FindResult{Docs: []docstore.Document{doc}, TotalDocs: 1, Page: 1}, nil).Once()
	store.On("Update", mock.Anything, content.CollectionAPIKeys, "k1", mock.Anything).
		Return(nil, errors.New("db down"))

	got, err := apikey.NewService(store).Verify(context.Background(), plain)
	require.NoError(t, err)
	assert.Equal(t, "k1", got.ID)
	assert.Nil(t, got.LastUsedAt)
	store.AssertExpectations(t)
}

func TestService_VerifyLookupError(t *testing.T) {
	store := new(MockStore)
	store.On("Find", mock.Anything, content.CollectionAPIKeys, mock.Anything).
		Return(nil, errors.New("db down"))

	_, err := apikey.NewService(store).Verify(context.Background(), "chub_abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apikey.ErrInvalidKey)
}

func TestRequire(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := apikey.NewService(store)
	plain, _, err := svc.Create(context.Background(), "test", "api")
	require.NoError(t, err)

	var seen *apikey.Key
	h := apikey.Require(svc, func(w http.ResponseWriter, r *http.Request) {
		seen, _ = apikey.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"x-api-key header", "X-API-Key", plain, http.StatusNoContent},
		{"bearer token", "Authorization", "Bearer " + plain, http.StatusNoContent},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "chub_wrong", http.StatusUnauthorized},
		{"basic auth", "Authorization", "Basic " + plain, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/api/content/ingest", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			h(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Nil(t, seen)
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				errObj := body["error"].(map[string]interface{})
				assert.Equal(t, "UNAUTHORIZED", errObj["code"])
				assert.Equal(t, "invalid or missing API key", errObj["message"])
			} else {
				require.NotNil(t, seen)
				assert.Equal(t, "test", seen.Name)
			}
		})
	}
}
