package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/amaumene/foldpredict/internal/service"
	"github.com/amaumene/foldpredict/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPDB = `ATOM      1  N   MET A   1      10.000  10.000  10.000  1.00 90.00           N
ATOM      2  CA  MET A   1      11.000  10.000  10.000  1.00 80.00           C
ATOM      3  C   MET A   1      12.000  10.000  10.000  1.00 70.00           C
ATOM      4  O   MET A   1      13.000  10.000  10.000  1.00 60.00           O
ATOM      5  H   MET A   1       9.000  10.000  10.000  1.00 50.00           H
END
`

type stubFolder struct {
	pdb []byte
	err error
}

func (s *stubFolder) Fold(ctx context.Context, seq string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pdb, nil
}

func setupApp(t *testing.T, folder domain.FoldingClient) *fiber.App {
	t.Helper()
	return setupAppWithConfig(t, folder, nil)
}

func setupAppWithConfig(t *testing.T, folder domain.FoldingClient, configure func(*config.Config)) *fiber.App {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.StaticDir = filepath.Join(dir, "static")
	if configure != nil {
		configure(cfg)
	}

	files, err := storage.NewFileStore(cfg.StaticDir, cfg.DirPermissions)
	require.NoError(t, err)

	store, err := storage.OpenStore(cfg.DBPath(), cfg.DBFilePermissions)
	require.NoError(t, err)
	repo := storage.NewPredictionRepository(store)
	t.Cleanup(func() { repo.Close() })

	svc := service.NewPredictionService(cfg, folder, files, repo)
	return NewApp(NewHTTPHandler(cfg, svc, files))
}

func postSequence(t *testing.T, app *fiber.App, seq string) *http.Response {
	t.Helper()
	form := url.Values{"sequence": {seq}}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestPredict_Success(t *testing.T) {
	app := setupApp(t, &stubFolder{pdb: []byte(testPDB)})

	resp := postSequence(t, app, " mktayiak ")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Len(t, body, 4)
	assert.Equal(t, 70.0, body["confidence"])
	assert.Equal(t, 54.03, body["molecular_weight"])
	assert.Equal(t, 8.0, body["sequence_length"])

	pdbURL, ok := body["pdb_url"].(string)
	require.True(t, ok, "pdb_url should be a string")
	assert.True(t, strings.HasPrefix(pdbURL, "/static/"), pdbURL)
	assert.True(t, strings.HasSuffix(pdbURL, ".pdb"), pdbURL)

	file := get(t, app, http.MethodGet, pdbURL)
	defer file.Body.Close()
	require.Equal(t, http.StatusOK, file.StatusCode)
	assert.Equal(t, pdbContentType, file.Header.Get("Content-Type"))
	assert.Equal(t, int64(len(testPDB)), file.ContentLength)
	content, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	assert.Equal(t, testPDB, string(content))
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		folder     *stubFolder
		sequence   string
		wantStatus int
		wantPrefix string
	}{
		{
			name:       "invalid characters",
			folder:     &stubFolder{pdb: []byte(testPDB)},
			sequence:   "MKT123",
			wantStatus: http.StatusBadRequest,
			wantPrefix: msgInvalidSequence,
		},
		{
			name:       "empty",
			folder:     &stubFolder{pdb: []byte(testPDB)},
			sequence:   "",
			wantStatus: http.StatusBadRequest,
			wantPrefix: msgInvalidSequence,
		},
		{
			name:       "too long",
			folder:     &stubFolder{pdb: []byte(testPDB)},
			sequence:   strings.Repeat("A", 1001),
			wantStatus: http.StatusBadRequest,
			wantPrefix: "Sequence too long! Max 1000 residues.",
		},
		{
			name:       "upstream failure",
			folder:     &stubFolder{err: fmt.Errorf("%w: 503 Service Unavailable", domain.ErrUpstream)},
			sequence:   "MKT",
			wantStatus: http.StatusInternalServerError,
			wantPrefix: "Failed to fetch prediction: ",
		},
		{
			name:       "unparseable structure",
			folder:     &stubFolder{pdb: []byte("not a structure")},
			sequence:   "MKT",
			wantStatus: http.StatusInternalServerError,
			wantPrefix: "Error processing PDB file: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t, tt.folder)

			resp := postSequence(t, app, tt.sequence)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			msg, ok := body["error"].(string)
			require.True(t, ok, "error should be a string: %v", body)
			assert.True(t, strings.HasPrefix(msg, tt.wantPrefix), "error %q should start with %q", msg, tt.wantPrefix)
		})
	}
}

func TestPredict_MissingField(t *testing.T) {
	app := setupApp(t, &stubFolder{pdb: []byte(testPDB)})

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("other=MKT"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgInvalidSequence, decodeBody(t, resp)["error"])
}

func TestStatic_NotFound(t *testing.T) {
	app := setupApp(t, &stubFolder{pdb: []byte(testPDB)})

	for _, path := range []string{"/static/missing.pdb", "/static/..%2Fdata.db", "/static/.hidden"} {
		resp := get(t, app, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestPredictionHistory(t *testing.T) {
	app := setupApp(t, &stubFolder{pdb: []byte(testPDB)})

	resp := postSequence(t, app, "MKT")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	list := get(t, app, http.MethodGet, "/api/predictions?limit=10")
	require.Equal(t, http.StatusOK, list.StatusCode)
	var predictions []domain.Prediction
	require.NoError(t, json.NewDecoder(list.Body).Decode(&predictions))
	list.Body.Close()
	require.Len(t, predictions, 1)

	id := predictions[0].ID
	assert.Equal(t, "MKT", predictions[0].Sequence)
	assert.Equal(t, 3, predictions[0].SequenceLength)
	assert.Equal(t, "70.00", predictions[0].Confidence.String())

	one := get(t, app, http.MethodGet, "/api/predictions/"+id)
	assert.Equal(t, http.StatusOK, one.StatusCode)
	assert.Equal(t, id, decodeBody(t, one)["id"])

	del := get(t, app, http.MethodDelete, "/api/predictions/"+id)
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
	del.Body.Close()

	gone := get(t, app, http.MethodGet, "/api/predictions/"+id)
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
	gone.Body.Close()

	file := get(t, app, http.MethodGet, "/static/"+domain.StructureFileName(id))
	assert.Equal(t, http.StatusNotFound, file.StatusCode)
	file.Body.Close()
}

func TestIndexHealthMetrics(t *testing.T) {
	app := setupApp(t, &stubFolder{pdb: []byte(testPDB)})

	index := get(t, app, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, index.StatusCode)
	page, err := io.ReadAll(index.Body)
	index.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(page), `<form id="predict-form"`)
	assert.Contains(t, string(page), "1000 residues")

	health := get(t, app, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, health.StatusCode)
	health.Body.Close()

	resp := postSequence(t, app, "MKT")
	resp.Body.Close()

	m := get(t, app, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, m.StatusCode)
	text, err := io.ReadAll(m.Body)
	m.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(text), "foldpredict_predictions_total")
}

func TestUnknownRoute(t *testing.T) {
	app := setupApp(t, &stubFolder{pdb: []byte(testPDB)})

	resp := get(t, app, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["error"])
}

func TestDescribeError(t *testing.T) {
	h := &HTTPHandler{cfg: config.Default()}

	status, msg := h.describeError(errors.New("surprise"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, msgInternal, msg)

	status, msg = h.describeError(fmt.Errorf("%w: disk full", domain.ErrStorage))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, strings.HasPrefix(msg, "Failed to store prediction: "))
}

func TestAPIKeyAuth(t *testing.T) {
	app := setupAppWithConfig(t, &stubFolder{pdb: []byte(testPDB)}, func(cfg *config.Config) {
		cfg.APIKey = "s3cret"
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "wrong bearer", header: "Authorization", value: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "bearer", header: "Authorization", value: "Bearer s3cret", wantStatus: http.StatusOK},
		{name: "api key header", header: "X-API-Key", value: "s3cret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	// The prediction form stays open without a key.
	resp := postSequence(t, app, "MKT")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
