package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/dram/internal/config"
	"github.com/five82/dram/internal/price"
	"github.com/five82/dram/internal/recommend"
)

const testCatalog = `name,category,rating,price,description,preprocessed_description
Jack Daniels,Tennessee Whiskey,84,25,Sweet,sweet vanilla
Jim Beam,Bourbon,80,18,Corn forward,corn
Lagavulin 16,Single Malt Scotch,95,90,Peat smoke,peat smoke
Jameson,Irish Whiskey,83,,Smooth,smooth
`

func testOptions(t *testing.T, out io.Writer, serviceURL string) Options {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "whiskey_data.csv")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o644))

	overrides := map[string]string{
		config.KeyCatalog: catalogPath,
		config.KeyLogFile: filepath.Join(dir, "dram.log"),
	}
	if serviceURL != "" {
		overrides[config.KeyServiceURL] = serviceURL
	}
	return Options{
		ConfigPath: filepath.Join(dir, "config.toml"),
		Overrides:  overrides,
		Stdout:     out,
	}
}

type capturedRequest struct {
	body []byte
}

func recommendServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestLoadConfig_AppliesOverridesAndValidates(t *testing.T) {
	opts := testOptions(t, nil, "")
	opts.Overrides[config.KeyDefaultMaxPrice] = "250"

	cfg, err := LoadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.DefaultMaxPrice)

	opts.Overrides[config.KeyLogLevel] = "loud"
	_, err = LoadConfig(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestSearch_PrintsMatchesWithCatalogIndexes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Search(context.Background(), testOptions(t, &out, ""), "ja"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "INDEX"))
	assert.True(t, strings.HasPrefix(lines[1], "0 "), lines[1])
	assert.Contains(t, lines[1], "Jack Daniels")
	assert.True(t, strings.HasPrefix(lines[2], "3 "), lines[2])
	assert.Contains(t, lines[2], "n/a")
}

func TestSearch_NoMatches(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Search(context.Background(), testOptions(t, &out, ""), "zz"))
	assert.Equal(t, "No matches\n", out.String())
}

func TestSearch_MissingCatalog(t *testing.T) {
	opts := testOptions(t, io.Discard, "")
	opts.Overrides[config.KeyCatalog] = filepath.Join(t.TempDir(), "missing.csv")
	err := Search(context.Background(), opts, "ja")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog")
}

func TestRecommend_PrintsServiceOrder(t *testing.T) {
	srv, captured := recommendServer(t, http.StatusOK,
		`[{"name":"Jim Beam","price":18,"rating":80,"category":"Bourbon","similarity_score":0.91},
		  {"name":"Jameson","price":null,"rating":83,"similarity_score":0.5}]`)

	var out bytes.Buffer
	err := Recommend(context.Background(), testOptions(t, &out, srv.URL+"/predict"), RecommendOptions{
		Name:     "Lagavulin 16",
		MaxPrice: "100",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"index":2,"maxPrice":100}`, string(captured.body))
	text := out.String()
	assert.Contains(t, text, "Similar to Lagavulin 16 (max price $100)")
	assert.Contains(t, text, "  1. Jim Beam\n     Similarity 91.0%   Price $18   Rating 80/100   Bourbon")
	assert.Contains(t, text, "  2. Jameson\n     Similarity 50.0%   Price n/a")
	assert.Less(t, strings.Index(text, "Jim Beam"), strings.Index(text, "Jameson"))
}

func TestRecommend_UnboundedSendsInfinity(t *testing.T) {
	srv, captured := recommendServer(t, http.StatusOK, `[]`)

	var out bytes.Buffer
	err := Recommend(context.Background(), testOptions(t, &out, srv.URL), RecommendOptions{
		Index:    0,
		MaxPrice: "unbounded",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"index":0,"maxPrice":Infinity}`, string(captured.body))
	assert.Contains(t, out.String(), "(max price $10000+)")
	assert.Contains(t, out.String(), "No recommendations under this price")
}

func TestRecommend_NameFallsBackToFirstMatch(t *testing.T) {
	srv, captured := recommendServer(t, http.StatusOK, `[{"name":"Jameson","similarity_score":0.3}]`)

	var out bytes.Buffer
	err := Recommend(context.Background(), testOptions(t, &out, srv.URL), RecommendOptions{Name: "ja"})
	require.NoError(t, err)
	assert.Equal(t, `{"index":0,"maxPrice":1000}`, string(captured.body))
	assert.Contains(t, out.String(), "Similar to Jack Daniels")
}

func TestRecommend_Errors(t *testing.T) {
	srv, _ := recommendServer(t, http.StatusInternalServerError, `{"error":"model not loaded"}`)

	err := Recommend(context.Background(), testOptions(t, io.Discard, srv.URL), RecommendOptions{Name: "Glenlivet"})
	require.ErrorIs(t, err, ErrUnknownWhiskey)

	err = Recommend(context.Background(), testOptions(t, io.Discard, srv.URL), RecommendOptions{Index: 99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such match")

	err = Recommend(context.Background(), testOptions(t, io.Discard, srv.URL), RecommendOptions{Index: 1})
	require.ErrorIs(t, err, recommend.ErrRequestFailed)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestParseCeiling(t *testing.T) {
	tests := []struct {
		in        string
		want      int
		unbounded bool
		wantErr   bool
	}{
		{in: "100", want: 100},
		{in: "$260", want: 250},
		{in: "0", want: 0},
		{in: "unbounded", want: price.Max, unbounded: true},
		{in: "MAX", want: price.Max, unbounded: true},
		{in: "10000", want: price.Max, unbounded: true},
		{in: "-5", wantErr: true},
		{in: "20000", wantErr: true},
		{in: "cheap", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCeiling(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Value())
			assert.Equal(t, tt.unbounded, got.IsUnbounded())
		})
	}
}
