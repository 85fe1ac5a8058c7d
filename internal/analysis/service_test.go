package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/nutriscan/internal/shared"
)

type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func newTestService(model Model) *Service {
	svc := NewService(model, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }
	return svc
}

func TestAnalyzeBuildsPromptAndParses(t *testing.T) {
	model := &fakeModel{reply: "```json\n{\"healthScore\": 70}\n```"}
	svc := newTestService(model)

	out, err := svc.Analyze(context.Background(), ProductInput{ProductName: "Oat bar", Brands: "Acme", Ingredients: "oats, honey"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, float64(70), out.Data["healthScore"])
	assert.Equal(t, time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC), out.AnalyzedAt)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Product Name: Oat bar")
	assert.Contains(t, model.prompts[0], "Brand: Acme")
	assert.Contains(t, model.prompts[0], "Category: Unknown")
	assert.Contains(t, model.prompts[0], "Ingredients: oats, honey")
}

func TestAnalyzeRequiresIngredients(t *testing.T) {
	model := &fakeModel{}
	svc := newTestService(model)

	_, err := svc.Analyze(context.Background(), ProductInput{ProductName: "x", Ingredients: "   "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Empty(t, model.prompts)
}

func TestModelFailuresAreUpstreamErrors(t *testing.T) {
	svc := newTestService(&fakeModel{err: errors.New("quota")})
	_, err := svc.Verdict(context.Background(), ProductInput{Ingredients: "salt"})
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)

	svc = newTestService(&fakeModel{reply: "no json here"})
	_, err = svc.Analyze(context.Background(), ProductInput{Ingredients: "salt"})
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)

	svc = newTestService(nil)
	_, err = svc.Analyze(context.Background(), ProductInput{Ingredients: "salt"})
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, ErrModelNotConfigured)
}

func TestVerdictTrimsReply(t *testing.T) {
	svc := newTestService(&fakeModel{reply: "\n  Verdict: GOOD - mostly whole foods \n"})
	out, err := svc.Verdict(context.Background(), ProductInput{Ingredients: "oats"})
	require.NoError(t, err)
	assert.Equal(t, "Verdict: GOOD - mostly whole foods", out.Verdict)
}

func TestCompareNeedsBothIngredientLists(t *testing.T) {
	model := &fakeModel{reply: `{"healthierChoice":"A"}`}
	svc := newTestService(model)

	_, err := svc.Compare(context.Background(), ProductInput{Ingredients: "oats"}, ProductInput{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	out, err := svc.Compare(context.Background(),
		ProductInput{ProductName: "A bar", Ingredients: "oats"},
		ProductInput{ProductName: "B bar", Ingredients: "sugar, palm oil"})
	require.NoError(t, err)
	assert.Equal(t, "A", out.Data["healthierChoice"])
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Name: A bar")
	assert.Contains(t, model.prompts[0], "Name: B bar")
}

func TestHandlerRoutes(t *testing.T) {
	model := &fakeModel{reply: `{"healthScore": 55}`}
	r := chi.NewRouter()
	NewHandler(nil, newTestService(model)).MountRoutes(r)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/analyze", `{"product":{"productName":"Bar","ingredients":"oats"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthScore":55`)

	rec = post("/analyze", `{"product":{"productName":"Bar"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Product ingredients not available"}`, rec.Body.String())

	rec = post("/verdict", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Ingredients not available"}`, rec.Body.String())

	rec = post("/compare", `{"product1":{"ingredients":"a"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	model.err = errors.New("boom")
	rec = post("/verdict", `{"product":{"ingredients":"oats"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Assessment unavailable"}`, rec.Body.String())
}

func TestHandlerReportsMissingModel(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, newTestService(nil)).MountRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"product":{"ingredients":"oats"}}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"AI analysis unavailable"}`, rec.Body.String())
}
