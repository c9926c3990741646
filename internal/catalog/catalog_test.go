package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `name,category,rating,price,description,similarity_score,preprocessed_description
Jack Daniels,Tennessee Whiskey,84,25,"Sweet, with vanilla",,sweet vanilla
Jim Beam,Bourbon,80,18,Corn forward,0.25,corn
Lagavulin 16,Single Malt Scotch,95,90,Peat smoke,,peat smoke
`

func TestParse_MapsColumnsByHeaderName(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Record{
		Name:                    "Jack Daniels",
		Price:                   "25",
		Rating:                  "84",
		Category:                "Tennessee Whiskey",
		Description:             "Sweet, with vanilla",
		PreprocessedDescription: "sweet vanilla",
	}, records[0])
	assert.InDelta(t, 0.25, records[1].SimilarityScore, 1e-9)
	assert.Equal(t, "Lagavulin 16", records[2].Name)
}

func TestParse_MissingColumnsUseDefaults(t *testing.T) {
	records, err := Parse(strings.NewReader("name,extra\nGlenfiddich 12,ignored\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Glenfiddich 12", rec.Name)
	assert.Empty(t, rec.Price)
	assert.Empty(t, rec.Rating)
	assert.Empty(t, rec.Category)
	assert.Empty(t, rec.PreprocessedDescription)
	assert.Zero(t, rec.SimilarityScore)
}

func TestParse_ShortRowsAndBadScores(t *testing.T) {
	input := "name,price,rating,similarity_score\nA,10\nB,20,90,not-a-number\nC,30,91,NaN\n"
	records, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "10", records[0].Price)
	assert.Empty(t, records[0].Rating)
	assert.Zero(t, records[1].SimilarityScore)
	assert.Zero(t, records[2].SimilarityScore)
}

func TestParse_HeaderIsCaseSensitive(t *testing.T) {
	_, err := Parse(strings.NewReader("Name,Price\nA,1\n"))
	require.ErrorIs(t, err, ErrMissingNameColumn)
}

func TestParse_StripsByteOrderMark(t *testing.T) {
	records, err := Parse(strings.NewReader("\ufeffname,price\nA,1\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Name)
}

func TestParse_BlankRowsKeepTheirPosition(t *testing.T) {
	records, err := Parse(strings.NewReader("name,price,rating\nA,1,2\n,,\nB,3,4\n"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].Name)
	assert.Equal(t, Record{}, records[1])
	assert.Equal(t, "B", records[2].Name)
}

func TestParse_DropsTrailingBlankRows(t *testing.T) {
	records, err := Parse(strings.NewReader("name,price\nA,1\n,\nB,2\n,\n , \n\n"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "B", records[2].Name)

	records, err = Parse(strings.NewReader("name,price\n,\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyBody)
}

func TestLoad_LocalFileKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whiskey_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	store, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())
	assert.Equal(t, path, store.Source())

	for i, want := range []string{"Jack Daniels", "Jim Beam", "Lagavulin 16"} {
		rec, ok := store.At(i)
		require.True(t, ok)
		assert.Equal(t, want, rec.Name)
	}
	_, ok := store.At(3)
	assert.False(t, ok)
}

func TestLoad_FileURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	store, err := Load(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
}

func TestLoad_HTTPSourceWithProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/whiskey_data.csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = fmt.Fprint(w, sampleCSV)
	}))
	t.Cleanup(server.Close)

	var seen strings.Builder
	store, err := Load(context.Background(), server.URL+"/whiskey_data.csv",
		WithProgress(func(int64) io.Writer { return &seen }))
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, sampleCSV, seen.String())
}

func TestLoad_FailuresReturnNoStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/empty.csv":
			w.WriteHeader(http.StatusOK)
		case "/blank.csv":
			_, _ = fmt.Fprint(w, "  \n\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		name   string
		source string
		is     error
	}{
		{"empty body", server.URL + "/empty.csv", ErrEmptyBody},
		{"whitespace body", server.URL + "/blank.csv", ErrEmptyBody},
		{"not found", server.URL + "/missing.csv", nil},
		{"missing file", filepath.Join(t.TempDir(), "nope.csv"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Load(context.Background(), tt.source)
			require.Error(t, err)
			assert.Nil(t, store)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "error %v should wrap %v", err, tt.is)
			}
		})
	}
}

func TestStore_RecordsReturnsCopy(t *testing.T) {
	store := NewStore("mem", []Record{{Name: "A"}, {Name: "B"}})
	recs := store.Records()
	recs[0].Name = "changed"

	rec, ok := store.At(0)
	require.True(t, ok)
	assert.Equal(t, "A", rec.Name)
}

func TestStore_NilIsEmpty(t *testing.T) {
	var store *Store
	assert.Zero(t, store.Len())
	assert.Nil(t, store.Records())
	_, ok := store.At(0)
	assert.False(t, ok)
}
