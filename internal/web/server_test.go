package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/biomed/internal/config"
	"github.com/JonMunkholm/biomed/internal/core"
	"github.com/JonMunkholm/biomed/internal/core/coretest"
	"github.com/JonMunkholm/biomed/internal/files"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{MaxFileSize: 1 << 20},
		Storage: config.StorageConfig{
			Backend:     "local",
			MaxFileSize: 1 << 20,
			MediaURL:    "/media/",
		},
	}
}

type testEnv struct {
	srv   *Server
	svc   *core.Service
	store *coretest.MemStore
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	docs, err := files.NewLocal(t.TempDir(), cfg.Storage.MediaURL)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	store := coretest.NewMemStore()
	svc, err := core.NewService(store, core.Options{Files: docs})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &testEnv{srv: NewServer(svc, cfg, docs), svc: svc, store: store}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	return e.do(t, method, target, body, http.Header{"Content-Type": {"application/json"}})
}

func (e *testEnv) createCard(t *testing.T, in core.CardInput) core.Card {
	t.Helper()
	c, err := e.svc.CreateCard(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	return c
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (io.Reader, http.Header) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	mw.Close()
	return &buf, http.Header{"Content-Type": {mw.FormDataContentType()}}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T from %q: %v", v, rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestCardLifecycle(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.doJSON(t, http.MethodPost, "/api/cards", core.CardInput{
		Name: "Monitor", Brand: "Philips", Model: "MX450", Series: "SN-1", Risk: "iia", Location: "UCI",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	card := decode[core.Card](t, rec)
	if card.Status != core.StatusActive || card.Risk != core.RiskIIA {
		t.Errorf("created card = %+v", card)
	}

	rec = env.doJSON(t, http.MethodPost, "/api/cards", core.CardInput{Name: "monitor", Model: "mx450", Series: "sn-1"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	rec = env.doJSON(t, http.MethodPost, "/api/cards", core.CardInput{Name: "Bomba", Risk: "IV"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid risk status = %d, want 400", rec.Code)
	}

	id := "/api/cards/" + itoa(card.ID)

	rec = env.do(t, http.MethodPost, id+"/toggle-status", nil, nil)
	if got := decode[core.Card](t, rec); got.Status != core.StatusOutOfOrder {
		t.Errorf("toggled status = %q", got.Status)
	}

	rec = env.do(t, http.MethodPost, id+"/soft-delete", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("soft-delete status = %d", rec.Code)
	}
	if list := decode[[]core.Card](t, env.do(t, http.MethodGet, "/api/cards", nil, nil)); len(list) != 0 {
		t.Errorf("active list = %d cards, want 0", len(list))
	}
	if list := decode[[]core.Card](t, env.do(t, http.MethodGet, "/api/cards/deleted", nil, nil)); len(list) != 1 {
		t.Errorf("deleted list = %d cards, want 1", len(list))
	}

	env.do(t, http.MethodPost, id+"/restore", nil, nil)
	if list := decode[[]core.Card](t, env.do(t, http.MethodGet, "/api/cards/search?q=moni", nil, nil)); len(list) != 1 {
		t.Errorf("search = %d cards, want 1", len(list))
	}

	rec = env.do(t, http.MethodDelete, id, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, id, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestGetCard_BadID(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(t, http.MethodGet, "/api/cards/abc", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPublicCard(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	env := newTestEnv(t, cfg)
	card := env.createCard(t, core.CardInput{Name: "Desfibrilador"})

	base := "/public/cards/" + itoa(card.ID)
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"matching token", base + "?access_token=" + card.AccessToken.String(), http.StatusOK},
		{"wrong token", base + "?access_token=00000000-0000-0000-0000-000000000000", http.StatusUnauthorized},
		{"missing token", base, http.StatusUnauthorized},
		{"unknown card", "/public/cards/999?access_token=" + card.AccessToken.String(), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, http.MethodGet, tt.target, nil, nil); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if rec := env.do(t, http.MethodGet, "/api/cards", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("api without key = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/cards", nil, http.Header{"X-Api-Key": {"secret"}}); rec.Code != http.StatusOK {
		t.Errorf("api with key = %d, want 200", rec.Code)
	}
}

const importCSV = "Inventario de equipos,,,,,\n" +
	"Equipo biomédico,Marca,Modelo,Serie,Clasificación por riesgo,Ubicación\n" +
	"Monitor,Philips,MX450,SN-1,IIA,UCI\n" +
	"monitor,Philips,mx450,sn-1,IIA,UCI\n" +
	"Bomba,B. Braun,Infusomat,BB-9,IV,Piso 3\n"

func TestImport(t *testing.T) {
	env := newTestEnv(t, testConfig())

	body, hdr := multipartBody(t, nil, "equipos.csv", []byte(importCSV))
	rec := env.do(t, http.MethodPost, "/api/import", body, hdr)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[core.ImportReport](t, rec)
	if got.FileName != "equipos.csv" || got.HeaderRow != 2 {
		t.Errorf("file, header row = %q, %d; want equipos.csv, 2", got.FileName, got.HeaderRow)
	}
	if got.CreatedCount != 1 || len(got.CreatedIDs) != 1 {
		t.Errorf("created = %d %v, want 1", got.CreatedCount, got.CreatedIDs)
	}
	if got.SkippedCount != 1 || got.Skipped[0].Row != 4 || got.Skipped[0].Reason != core.DuplicateReason {
		t.Errorf("skipped = %+v", got.Skipped)
	}
	if len(got.Errors) != 1 || got.Errors[0].Row != 5 {
		t.Errorf("errors = %+v", got.Errors)
	}
}

func TestImport_MissingColumn(t *testing.T) {
	env := newTestEnv(t, testConfig())

	csv := "Equipo biomédico,Marca,Modelo,Clasificación por riesgo,Ubicación\nMonitor,Philips,MX450,IIA,UCI\n"
	body, hdr := multipartBody(t, nil, "equipos.csv", []byte(csv))
	rec := env.do(t, http.MethodPost, "/api/import", body, hdr)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if !strings.Contains(resp.Error, "Serie") {
		t.Errorf("error %q should name the missing column", resp.Error)
	}
	if len(env.store.Events()) != 0 {
		t.Error("structural failure should not write anything")
	}
}

func TestImport_NoFile(t *testing.T) {
	env := newTestEnv(t, testConfig())
	body, hdr := multipartBody(t, map[string]string{"note": "x"}, "", nil)
	rec := env.do(t, http.MethodPost, "/api/import", body, hdr)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.createCard(t, core.CardInput{Name: "Monitor", Brand: "Philips", Risk: "IIA"})

	rec := env.do(t, http.MethodGet, "/api/export", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, core.ExportFileName) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(core.ExportSheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Monitor" {
		t.Errorf("rows = %v", rows)
	}
}

func TestDocumentsAndHistory(t *testing.T) {
	env := newTestEnv(t, testConfig())
	card := env.createCard(t, core.CardInput{Name: "Monitor"})
	cardPath := "/api/cards/" + itoa(card.ID)

	body, hdr := multipartBody(t, map[string]string{"title": "Manual"}, "manual.pdf", []byte("%PDF-1.4"))
	rec := env.do(t, http.MethodPost, cardPath+"/documents", body, hdr)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc := decode[core.Document](t, rec)

	media := env.do(t, http.MethodGet, "/media/"+doc.File, nil, nil)
	if media.Code != http.StatusOK || media.Body.String() != "%PDF-1.4" {
		t.Errorf("media = %d %q", media.Code, media.Body.String())
	}

	if rec := env.do(t, http.MethodDelete, "/api/documents/"+itoa(doc.ID), nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d", rec.Code)
	}
	if docs := decode[[]core.Document](t, env.do(t, http.MethodGet, cardPath+"/documents", nil, nil)); len(docs) != 0 {
		t.Errorf("documents after removal = %d", len(docs))
	}

	history := decode[[]core.HistoryEntry](t, env.do(t, http.MethodGet, cardPath+"/history", nil, nil))
	if len(history) != 3 {
		t.Fatalf("history = %d entries, want 3", len(history))
	}
	removed := history[0]
	if removed.EventType != core.EventDocumentRemoved || removed.DocumentFile == nil {
		t.Fatalf("newest entry = %+v", removed)
	}
	want := "http://example.com/media/" + doc.File
	if *removed.DocumentFile != want {
		t.Errorf("document_file = %q, want %q", *removed.DocumentFile, want)
	}
	if history[2].DocumentFile != nil {
		t.Errorf("card_created entry has document_file %q", *history[2].DocumentFile)
	}
}

func TestMaintenanceEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig())
	card := env.createCard(t, core.CardInput{Name: "Monitor"})

	rec := env.doJSON(t, http.MethodPost, "/api/cronograma", map[string]any{
		"card_id": card.ID, "date": "2024-05-01", "title": "Calibración anual",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cronograma = %d, body %s", rec.Code, rec.Body.String())
	}
	c := decode[core.Cronograma](t, rec)

	rec = env.doJSON(t, http.MethodPut, "/api/cronograma/"+itoa(c.ID), map[string]any{"completed": true})
	if got := decode[core.Cronograma](t, rec); !got.Completed {
		t.Errorf("update = %+v", got)
	}

	rec = env.doJSON(t, http.MethodPost, "/api/cronograma", map[string]any{
		"card_id": card.ID, "date": "01/05/2024", "title": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}

	rec = env.doJSON(t, http.MethodPost, "/api/intervenciones", map[string]any{
		"card_id": card.ID, "action_type": "correctiva", "date": "2024-05-02",
		"description": "Cambio de batería", "responsible": "Ing. Pérez",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create intervention = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.doJSON(t, http.MethodPost, "/api/intervenciones", map[string]any{
		"card_id": card.ID, "action_type": "limpieza", "date": "2024-05-02", "description": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad action type status = %d, want 400", rec.Code)
	}

	m := decode[core.Maintenance](t, env.do(t, http.MethodGet, "/api/cards/"+itoa(card.ID)+"/maintenance", nil, nil))
	if len(m.Cronogramas) != 1 || len(m.Interventions) != 1 {
		t.Errorf("maintenance = %d cronogramas, %d interventions", len(m.Cronogramas), len(m.Interventions))
	}

	var types []core.EventType
	for _, e := range env.store.Events() {
		types = append(types, e.Type)
	}
	want := []core.EventType{core.EventCardCreated, core.EventActivityPending, core.EventActivityCompleted, core.EventInterventionCreated}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestRespondError_HTMXFragment(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(t, http.MethodGet, "/api/cards/42", nil, http.Header{"Hx-Request": {"true"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") ||
		!strings.Contains(rec.Body.String(), "CARD001") {
		t.Errorf("fragment = %q", rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, ImportLimit: 1}
	env := newTestEnv(t, cfg)

	var last int
	for i := 0; i < 3; i++ {
		last = env.do(t, http.MethodGet, "/healthz", nil, nil).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", last)
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
