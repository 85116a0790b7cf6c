package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicestudio/voicestudio/internal/config"
	"github.com/voicestudio/voicestudio/internal/library"
	"github.com/voicestudio/voicestudio/internal/provider"
	"github.com/voicestudio/voicestudio/internal/queue"
	"github.com/voicestudio/voicestudio/internal/schema"
	"github.com/voicestudio/voicestudio/internal/voices"
)

type mockProvider struct {
	mu             sync.Mutex
	synthesizeFunc func(ctx context.Context, req *schema.SynthesisRequest) ([]byte, error)
	lastReq        *schema.SynthesisRequest
}

func (m *mockProvider) Health(ctx context.Context) error {
	return nil
}

func (m *mockProvider) Synthesize(ctx context.Context, req *schema.SynthesisRequest) ([]byte, error) {
	m.mu.Lock()
	m.lastReq = req
	m.mu.Unlock()

	if m.synthesizeFunc != nil {
		return m.synthesizeFunc(ctx, req)
	}
	return []byte("audio"), nil
}

func (m *mockProvider) last() *schema.SynthesisRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

func newTestRouter(t *testing.T, p provider.Client) http.Handler {
	t.Helper()

	cfg, err := config.LoadWithDefaults(nil)
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	catalog := voices.NewCatalog(voices.NewMemoryStore())
	lib := library.NewService(library.NewMemoryBlobStore(), library.NewMemoryStore(), logger)

	pool := queue.NewPool(queue.Config{Workers: 2, MaxWaiting: 2})
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	return NewRouter(cfg, p, catalog, lib, pool, logger)
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := httptest.NewRecorder()

	newTestRouter(t, &mockProvider{}).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "{\"status\":\"ok\"}\n", rr.Body.String())
}

func TestGenerate_Success(t *testing.T) {
	p := &mockProvider{}
	router := newTestRouter(t, p)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, postJSON("/v1/tts", `{"text":"hello"}`))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte("audio"), rr.Body.Bytes())
	assert.Equal(t, "audio/wav", rr.Header().Get("Content-Type"))
	assert.Equal(t, CacheNever, rr.Header().Get("Cache-Control"))
	assert.Equal(t, "5", rr.Header().Get("Content-Length"))
	assert.NotEmpty(t, rr.Header().Get("X-Asset-ID"))

	// the generation landed in the library
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/v1/audio", nil))
	require.Equal(t, http.StatusOK, listRec.Code)

	var assets []schema.AudioAsset
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "hello", assets[0].SourceText)
	assert.Equal(t, rr.Header().Get("X-Asset-ID"), assets[0].ID)
}

func TestGenerate_DefaultsApplied(t *testing.T) {
	p := &mockProvider{}
	rr := httptest.NewRecorder()

	newTestRouter(t, p).ServeHTTP(rr, postJSON("/v1/tts", `{"text":"hello"}`))

	require.Equal(t, http.StatusOK, rr.Code)
	sent := p.last()
	require.NotNil(t, sent)
	assert.Equal(t, "tongtong", sent.Voice)
	assert.Equal(t, 1.0, sent.Speed)
	assert.Equal(t, 1.0, sent.Volume)
	assert.Equal(t, "wav", sent.Format)
	assert.False(t, sent.Streaming)
}

func TestGenerate_UnknownVoiceFallsBack(t *testing.T) {
	p := &mockProvider{}
	rr := httptest.NewRecorder()

	newTestRouter(t, p).ServeHTTP(rr, postJSON("/v1/tts", `{"text":"hello","voice":"stale-custom-id"}`))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tongtong", p.last().Voice)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"empty text", `{"text":"   "}`, "Please enter valid text content"},
		{"speed too low", `{"text":"hello","speed":0.1}`, "Speed must be between 0.5 and 2.0"},
		{"speed too high", `{"text":"hello","speed":2.5}`, "Speed must be between 0.5 and 2.0"},
		{"volume zero", `{"text":"hello","volume":0}`, "Volume must be between 0 and 10"},
		{"volume too high", `{"text":"hello","volume":11}`, "Volume must be between 0 and 10"},
	}

	router := newTestRouter(t, &mockProvider{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, postJSON("/v1/tts", tc.body))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "{\"detail\":\""+tc.detail+"\"}\n", rr.Body.String())
		})
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	p := &mockProvider{
		synthesizeFunc: func(context.Context, *schema.SynthesisRequest) ([]byte, error) {
			return nil, &provider.ProviderError{StatusCode: 500, Message: "engine crashed"}
		},
	}
	rr := httptest.NewRecorder()

	newTestRouter(t, p).ServeHTTP(rr, postJSON("/v1/tts", `{"text":"hello"}`))

	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "{\"detail\":\"engine crashed\"}\n", rr.Body.String())
}

func TestGenerate_ProviderTimeout(t *testing.T) {
	p := &mockProvider{
		synthesizeFunc: func(context.Context, *schema.SynthesisRequest) ([]byte, error) {
			return nil, provider.ErrProviderTimeout
		},
	}
	rr := httptest.NewRecorder()

	newTestRouter(t, p).ServeHTTP(rr, postJSON("/v1/tts", `{"text":"hello"}`))

	require.Equal(t, http.StatusGatewayTimeout, rr.Code)
}

func TestGenerate_UnsupportedContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/tts", bytes.NewBufferString("hello"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()

	newTestRouter(t, &mockProvider{}).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestConversation_FlattensScript(t *testing.T) {
	p := &mockProvider{}
	router := newTestRouter(t, p)

	body := `{"lines":[
		{"id":"1","speaker":"tongtong","text":"Hello there"},
		{"id":"2","speaker":"unknown-id","text":"Hi back"}
	]}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, postJSON("/v1/conversations", body))

	require.Equal(t, http.StatusOK, rr.Code)

	sent := p.last()
	require.NotNil(t, sent)
	assert.Equal(t, "[TongTong]: Hello there\n[Speaker]: Hi back", sent.Text)
	assert.Equal(t, "tongtong", sent.Voice)
}

func TestConversation_CustomSpeakerName(t *testing.T) {
	p := &mockProvider{}
	router := newTestRouter(t, p)

	addRec := httptest.NewRecorder()
	addReq := postJSON("/v1/voices", `{"name":"Narrator","baseVoiceId":"jam"}`)
	addReq.Header.Set("X-Caller-ID", "alice")
	router.ServeHTTP(addRec, addReq)
	require.Equal(t, http.StatusCreated, addRec.Code)

	var view voices.View
	require.NoError(t, json.Unmarshal(addRec.Body.Bytes(), &view))

	convReq := postJSON("/v1/conversations", `{"lines":[{"id":"1","speaker":"`+view.ID+`","text":"Once upon a time"}]}`)
	convReq.Header.Set("X-Caller-ID", "alice")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, convReq)

	require.Equal(t, http.StatusOK, rr.Code)

	sent := p.last()
	require.NotNil(t, sent)
	assert.Equal(t, "[Narrator]: Once upon a time", sent.Text)
	// the custom voice synthesizes with its base engine
	assert.Equal(t, "jam", sent.Voice)
}

func TestConversation_Empty(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t, &mockProvider{}).ServeHTTP(rr, postJSON("/v1/conversations", `{"lines":[]}`))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "{\"detail\":\"Conversation needs at least one line\"}\n", rr.Body.String())
}

func TestAudioLifecycle(t *testing.T) {
	router := newTestRouter(t, &mockProvider{})

	genRec := httptest.NewRecorder()
	router.ServeHTTP(genRec, postJSON("/v1/tts", `{"text":"hello","title":"Morning Greeting"}`))
	require.Equal(t, http.StatusOK, genRec.Code)
	id := genRec.Header().Get("X-Asset-ID")
	require.NotEmpty(t, id)

	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/v1/audio/"+id, nil))
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, []byte("audio"), getRec.Body.Bytes())
	assert.Equal(t, CacheForever, getRec.Header().Get("Cache-Control"))
	assert.Equal(t, "5", getRec.Header().Get("Content-Length"))

	infoRec := httptest.NewRecorder()
	router.ServeHTTP(infoRec, httptest.NewRequest(http.MethodGet, "/v1/audio/"+id+"/info", nil))
	require.Equal(t, http.StatusOK, infoRec.Code)

	var asset schema.AudioAsset
	require.NoError(t, json.Unmarshal(infoRec.Body.Bytes(), &asset))
	assert.Equal(t, "Morning Greeting", asset.Title)

	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, httptest.NewRequest(http.MethodDelete, "/v1/audio/"+id, nil))
	require.Equal(t, http.StatusOK, delRec.Code)
	assert.Equal(t, "{\"success\":true}\n", delRec.Body.String())

	goneRec := httptest.NewRecorder()
	router.ServeHTTP(goneRec, httptest.NewRequest(http.MethodGet, "/v1/audio/"+id, nil))
	require.Equal(t, http.StatusNotFound, goneRec.Code)

	delAgain := httptest.NewRecorder()
	router.ServeHTTP(delAgain, httptest.NewRequest(http.MethodDelete, "/v1/audio/"+id, nil))
	require.Equal(t, http.StatusNotFound, delAgain.Code)
}

func TestListAudio_Search(t *testing.T) {
	router := newTestRouter(t, &mockProvider{})

	for _, title := range []string{"Alpha Story", "Beta Story"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, postJSON("/v1/tts", `{"text":"hello","title":"`+title+`"}`))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/audio?q=alpha", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var assets []schema.AudioAsset
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "Alpha Story", assets[0].Title)
}

func TestVoiceCatalogEndpoints(t *testing.T) {
	router := newTestRouter(t, &mockProvider{})

	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/v1/voices", nil))
	require.Equal(t, http.StatusOK, listRec.Code)

	var views []voices.View
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &views))
	require.Len(t, views, len(voices.BuiltIns()))

	addRec := httptest.NewRecorder()
	router.ServeHTTP(addRec, postJSON("/v1/voices", `{"name":"My Voice"}`))
	require.Equal(t, http.StatusCreated, addRec.Code)

	var view voices.View
	require.NoError(t, json.Unmarshal(addRec.Body.Bytes(), &view))
	assert.True(t, view.IsCustom)
	assert.False(t, view.IsPrimary)

	// catalogs are scoped by caller
	otherRec := httptest.NewRecorder()
	otherReq := httptest.NewRequest(http.MethodGet, "/v1/voices", nil)
	otherReq.Header.Set("X-Caller-ID", "someone-else")
	router.ServeHTTP(otherRec, otherReq)
	require.NoError(t, json.Unmarshal(otherRec.Body.Bytes(), &views))
	assert.Len(t, views, len(voices.BuiltIns()))

	primaryRec := httptest.NewRecorder()
	router.ServeHTTP(primaryRec, httptest.NewRequest(http.MethodPut, "/v1/voices/"+view.ID+"/primary", nil))
	require.Equal(t, http.StatusOK, primaryRec.Code)

	listRec = httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/v1/voices", nil))
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &views))
	require.Len(t, views, len(voices.BuiltIns())+1)
	assert.True(t, views[len(views)-1].IsPrimary)

	builtinDel := httptest.NewRecorder()
	router.ServeHTTP(builtinDel, httptest.NewRequest(http.MethodDelete, "/v1/voices/tongtong", nil))
	require.Equal(t, http.StatusBadRequest, builtinDel.Code)

	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, httptest.NewRequest(http.MethodDelete, "/v1/voices/"+view.ID, nil))
	require.Equal(t, http.StatusOK, delRec.Code)

	delAgain := httptest.NewRecorder()
	router.ServeHTTP(delAgain, httptest.NewRequest(http.MethodDelete, "/v1/voices/"+view.ID, nil))
	require.Equal(t, http.StatusNotFound, delAgain.Code)
}

func TestVoiceAddValidation(t *testing.T) {
	router := newTestRouter(t, &mockProvider{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, postJSON("/v1/voices", `{"name":"   "}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, postJSON("/v1/voices", `{"name":"Voice","baseVoiceId":"nope"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "{\"detail\":\"Unknown base voice\"}\n", rr.Body.String())
}

func TestProfileEndpoints(t *testing.T) {
	router := newTestRouter(t, &mockProvider{})

	blankRec := httptest.NewRecorder()
	router.ServeHTTP(blankRec, postJSON("/v1/voice-profiles", `{"name":"  "}`))
	require.Equal(t, http.StatusBadRequest, blankRec.Code)

	addRec := httptest.NewRecorder()
	router.ServeHTTP(addRec, postJSON("/v1/voice-profiles", `{"name":"Narrator","description":"deep","baseVoiceId":"jam"}`))
	require.Equal(t, http.StatusCreated, addRec.Code)

	var profile schema.VoiceProfile
	require.NoError(t, json.Unmarshal(addRec.Body.Bytes(), &profile))
	assert.Equal(t, "Narrator", profile.Name)

	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/v1/voice-profiles", nil))
	require.Equal(t, http.StatusOK, listRec.Code)

	var profiles []schema.VoiceProfile
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &profiles))
	require.Len(t, profiles, 1)

	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, httptest.NewRequest(http.MethodDelete, "/v1/voice-profiles/"+profile.ID, nil))
	require.Equal(t, http.StatusOK, delRec.Code)

	delAgain := httptest.NewRecorder()
	router.ServeHTTP(delAgain, httptest.NewRequest(http.MethodDelete, "/v1/voice-profiles/"+profile.ID, nil))
	require.Equal(t, http.StatusNotFound, delAgain.Code)
}

func TestAuthMiddleware_NoKeyConfigured(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := AuthMiddleware("")(next)
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_ValidKey(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")

	handler := AuthMiddleware("secret")(next)
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_InvalidKey(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")

	handler := AuthMiddleware("secret")(next)
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "{\"detail\":\"Invalid token\"}\n", rr.Body.String())
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := AuthMiddleware("secret")(next)
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "{\"detail\":\"Invalid token\"}\n", rr.Body.String())
}

func TestWriteError_Format(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadRequest, "something went wrong")

	assert.Equal(t, "{\"detail\":\"something went wrong\"}\n", rr.Body.String())
}
