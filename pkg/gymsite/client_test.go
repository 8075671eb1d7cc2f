package gymsite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
)

func testClient(baseURL string) *Client {
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0",
		"Referer":    baseURL + "/wap/yuyue",
	}
	return NewClient(baseURL, 5*time.Second, headers, logger.NopLogger{})
}

func TestGetSendsConfiguredHeaders(t *testing.T) {
	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := testClient(server.URL)
	body, status, err := c.Get(context.Background(), server.URL+"/wap/yuyueIn?id=1")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "Mozilla/5.0", gotUA)
	assert.Equal(t, server.URL+"/wap/yuyue", gotReferer)
}

func TestGetReturnsNon2xxBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer server.Close()

	c := testClient(server.URL)
	body, status, err := c.Get(context.Background(), server.URL+"/nope")

	// Classification is the caller's job; a 404 body is still delivered.
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "missing", string(body))
}

func TestGetNetworkErrorIsTransient(t *testing.T) {
	c := testClient("http://127.0.0.1:1")
	_, _, err := c.Get(context.Background(), "http://127.0.0.1:1/wap/yuyueIn?id=1")

	require.Error(t, err)
	var typed *errs.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, errs.ErrorTypeTransient, typed.Type)
}

func TestPostFormSendsBody(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"Code":"0"}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	c.SetHeader("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	form := url.Values{"API": {"tuikuan"}, "tuikuan_id": {"9001"}}
	body, status, err := c.PostForm(context.Background(), server.URL+"/inc/ajax/save/tuikuan", form)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"Code":"0"}`, string(body))
	assert.Equal(t, "tuikuan", gotForm.Get("API"))
	assert.Equal(t, "9001", gotForm.Get("tuikuan_id"))
}

func TestEndpointURLs(t *testing.T) {
	c := testClient("http://example.test/")

	assert.Equal(t, "http://example.test/wap/yuyueIn?id=824", c.OrderURL(824))
	assert.Equal(t, "http://example.test/wap/yuyue?id=2", c.TokenURL(2))
	assert.Equal(t, "http://example.test/inc/ajax/save/saveYuyue", c.SubmitURL())
	assert.Equal(t, "http://example.test/inc/ajax/save/tuikuan", c.CancelURL())
}
