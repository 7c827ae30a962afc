package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leca/image-gallery/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListImagesFirstPageOmitsCursor(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/images", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"id":"1","title":"a","description":"d","url":"u","ts":1}],"after":"c1"}`)
	}))
	defer ts.Close()

	page, err := NewAPI(ts.URL+"/", "", nil).ListImages(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "", gotQuery)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "1", page.Data[0].ID)
	assert.Equal(t, "c1", page.After)
}

func TestListImagesSendsCursorAndHandlesNull(t *testing.T) {
	var gotAfter string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAfter = r.URL.Query().Get("after")
		_, _ = io.WriteString(w, `{"data":[],"after":null}`)
	}))
	defer ts.Close()

	page, err := NewAPI(ts.URL, "", nil).ListImages(context.Background(), "5|abc")
	require.NoError(t, err)

	assert.Equal(t, "5|abc", gotAfter)
	assert.False(t, page.HasMore())
}

func TestListImagesStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":9400,"message":"invalid cursor"}]}`)
	}))
	defer ts.Close()

	_, err := NewAPI(ts.URL, "", nil).ListImages(context.Background(), "bad")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "invalid cursor", se.Message)
}

func TestListImagesNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := NewAPI(url, "", nil).ListImages(context.Background(), "")
	assert.Error(t, err)
}

func TestCreateImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var in model.CreateImageInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Sunset", in.Title)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Image{ID: "new", Title: in.Title, Description: in.Description, URL: in.URL, TS: 7})
	}))
	defer ts.Close()

	img, err := NewAPI(ts.URL, "secret", nil).CreateImage(context.Background(), model.CreateImageInput{
		Title:       "Sunset",
		Description: "A nice photo",
		URL:         "https://cdn.example/sunset.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "new", img.ID)
	assert.Equal(t, int64(7), img.TS)
}

func TestCreateImageRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	_, err := NewAPI(ts.URL, "", nil).CreateImage(context.Background(), model.CreateImageInput{})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
}
