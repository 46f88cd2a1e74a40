package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"taxlaw-backend/chunker"
	"taxlaw-backend/handlers"
	"taxlaw-backend/llm"
	"taxlaw-backend/mocks"
	"taxlaw-backend/models"
	"taxlaw-backend/repository"
	"taxlaw-backend/secure"
	"taxlaw-backend/service"
	"taxlaw-backend/storage"
	"taxlaw-backend/vectorindex"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	router   *gin.Engine
	returns  *mocks.MockReturnRepository
	docs     *mocks.MockDocumentRepository
	chat     *mocks.MockChatClient
	embedder *mocks.MockEmbedder
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	ts := &testServer{
		returns:  mocks.NewMockReturnRepository(ctrl),
		docs:     mocks.NewMockDocumentRepository(ctrl),
		chat:     mocks.NewMockChatClient(ctrl),
		embedder: mocks.NewMockEmbedder(ctrl),
	}

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	cipher, err := secure.NewCipher("")
	require.NoError(t, err)

	docService, err := service.NewDocumentService(
		service.WithDocumentRepository(ts.docs),
		service.WithStorage(storage.NewEncrypted(local, cipher)),
		service.WithEmbedder(ts.embedder),
		service.WithIndex(vectorindex.NewMemory()),
		service.WithChunkConfig(chunker.Config{Size: 1000, Overlap: 400}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ts.router = handlers.NewRouter(ctx, handlers.RouterConfig{
		TaxService:      service.NewTaxService(service.WithReturnRepository(ts.returns)),
		DocumentService: docService,
		ChatService:     service.NewChatService(service.WithChatClient(ts.chat), service.WithRetriever(docService, 0)),
		MaxUploadBytes:  maxUpload,
		AllowedOrigins:  []string{"*"},
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRootAndHealth(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	w, _ := ts.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"AI Tax Law Agent is Running..."}`, w.Body.String())

	w, _ = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestComputeTax(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantPay    float64
	}{
		{
			name:       "string and numeric amounts",
			body:       `{"tin":"1","assessment_year":"2024-2025","income_items":{"salary":"1,200,000"},"investments":{"dps":100000}}`,
			wantStatus: http.StatusOK,
			wantPay:    82875,
		},
		{
			name:       "unparseable amount",
			body:       `{"income_items":{"salary":"twelve"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidInput,
		},
		{
			name:       "negative amount",
			body:       `{"income_items":{"salary":-10}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidInput,
		},
		{
			name:       "malformed json",
			body:       `{"income_items":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   handlers.CodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodPost, "/api/compute-tax", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				return
			}

			var data struct {
				Computation struct {
					Payable   float64 `json:"payable"`
					Breakdown struct {
						Deductions map[string]float64 `json:"deductions"`
					} `json:"breakdown"`
				} `json:"computation"`
				ComplianceFlags []string `json:"compliance_flags"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &data))
			assert.Equal(t, tt.wantPay, data.Computation.Payable)
			assert.NotNil(t, data.Computation.Breakdown.Deductions)
			assert.Empty(t, data.ComplianceFlags)
		})
	}
}

func TestGenerateReturn(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.returns.EXPECT().CreateWithAudit(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ret *models.TaxReturn, _ *models.AuditLog) error {
			ret.ID = 11
			return nil
		})

	w, env := ts.do(t, http.MethodPost, "/api/generate-return", `{"income_items":{"business":"500000"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result service.ReturnResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, int64(11), result.ReturnID)
	assert.Len(t, result.ComplianceFlags, 2)
	assert.NotEmpty(t, result.Disclaimer)
}

func TestReturnsEndpoints(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	ts.returns.EXPECT().List(gomock.Any(), 5).Return([]*models.TaxReturn{{ID: 1, TIN: "x", Payable: 10}}, nil)
	ts.returns.EXPECT().GetByID(gomock.Any(), int64(9)).Return(nil, repository.ErrNotFound)

	w, env := ts.do(t, http.MethodGet, "/api/returns?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"returns"`)

	w, env = ts.do(t, http.MethodGet, "/api/returns?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidRequest, env.Error.Code)

	w, env = ts.do(t, http.MethodGet, "/api/returns/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidID, env.Error.Code)

	w, env = ts.do(t, http.MethodGet, "/api/returns/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, handlers.CodeNotFound, env.Error.Code)
}

func TestAuditLogsEndpoint(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	ts.returns.EXPECT().ListAuditLogs(gomock.Any(), repository.DefaultListLimit).Return([]*models.AuditLog{
		{ID: 1, EventType: models.EventGenerateReturn, UserTIN: "123"},
	}, nil)
	ts.returns.EXPECT().ListAuditLogs(gomock.Any(), 2).Return(nil, errors.New("db down"))

	w, env := ts.do(t, http.MethodGet, "/api/audit-logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"audit_logs"`)
	assert.Contains(t, string(env.Data), models.EventGenerateReturn)

	w, env = ts.do(t, http.MethodGet, "/api/audit-logs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidRequest, env.Error.Code)

	w, env = ts.do(t, http.MethodGet, "/api/audit-logs?limit=2", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, handlers.CodeInternal, env.Error.Code)
}

func TestUploadAndDownload(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	var saved *models.Document
	ts.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([][]float32{{1, 0}}, nil)
	ts.docs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *models.Document) error {
		saved = doc
		return nil
	})

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, uploadRequest(t, "salary.txt", []byte("Salary 1,200,000 for 2024-2025")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var result service.IngestResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, "ingested", result.Status)
	require.NotNil(t, saved)

	ts.docs.EXPECT().GetByID(gomock.Any(), saved.ID).Return(saved, nil).Times(2)

	w, env = ts.do(t, http.MethodGet, "/api/documents/"+saved.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "storage_path")

	w, _ = ts.do(t, http.MethodGet, "/api/documents/"+saved.ID.String()+"/content", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Salary 1,200,000 for 2024-2025", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "salary.txt")
}

func TestUploadErrors(t *testing.T) {
	ts := newTestServer(t, 16)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantCode   string
	}{
		{"missing file", uploadRequest(t, "", nil), http.StatusBadRequest, handlers.CodeMissingFile},
		{"too large", uploadRequest(t, "big.txt", bytes.Repeat([]byte("a"), 64)), http.StatusRequestEntityTooLarge, handlers.CodeFileTooLarge},
		{"unsupported type", uploadRequest(t, "tool.exe", []byte("MZ")), http.StatusBadRequest, handlers.CodeInvalidFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, tt.req)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var env envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestDocumentNotFound(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	id := uuid.New()
	ts.docs.EXPECT().GetByID(gomock.Any(), id).Return(nil, repository.ErrNotFound)

	w, env := ts.do(t, http.MethodGet, "/api/documents/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, handlers.CodeNotFound, env.Error.Code)

	w, env = ts.do(t, http.MethodGet, "/api/documents/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidID, env.Error.Code)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	w, env := ts.do(t, http.MethodPost, "/api/search", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidRequest, env.Error.Code)

	ts.embedder.EXPECT().Embed(gomock.Any(), []string{"rebate"}).Return([][]float32{{1, 0}}, nil)
	w, env = ts.do(t, http.MethodPost, "/api/search", `{"query":"rebate","top_k":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)
}

func TestChat(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.ChatRequest) (string, error) {
			assert.Equal(t, 0.2, req.Temperature)
			return "Claim it under [Section 44(2)(b)].", nil
		})

	w, env := ts.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Can I claim DPS?"}],"temperature":0.2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.ChatResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, []string{"Section 44(2)(b)"}, result.Citations)

	w, env = ts.do(t, http.MethodPost, "/api/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidRequest, env.Error.Code)

	w, env = ts.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"wizard","content":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeInvalidRequest, env.Error.Code)
}
