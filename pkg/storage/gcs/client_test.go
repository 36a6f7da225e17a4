package gcs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeGCS struct {
	mu      sync.Mutex
	uploads map[string]string
	deletes []string
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/b/bucket/o"):
		name := r.URL.Query().Get("name")
		body, _ := io.ReadAll(r.Body)
		if name == "" {
			// multipart uploads carry the name in the metadata part
			name = metadataName(string(body))
		}
		f.uploads[name] = string(body)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": name, "bucket": "bucket"})
	case r.Method == http.MethodDelete:
		f.deletes = append(f.deletes, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/b/bucket"):
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "bucket"})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
	}
}

func metadataName(body string) string {
	const marker = `"name":"`
	start := strings.Index(body, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(body[start:], `"`)
	if end < 0 {
		return ""
	}
	return body[start : start+end]
}

func newTestClient(t *testing.T, bucket string) (*Client, *fakeGCS) {
	t.Helper()
	fake := &fakeGCS{uploads: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := newClient(context.Background(), bucket,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client, fake
}

func TestUploadAndPing(t *testing.T) {
	client, fake := newTestClient(t, "bucket")
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	name, err := client.Upload(ctx, "/identity/u1/front", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "identity/u1/front", name)
	assert.Contains(t, fake.uploads["identity/u1/front"], "png-bytes")
}

func TestUploadRequiresObjectName(t *testing.T) {
	client, _ := newTestClient(t, "bucket")
	_, err := client.Upload(context.Background(), "  ", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestDeleteIgnoresMissingObject(t *testing.T) {
	client, fake := newTestClient(t, "bucket")
	ctx := context.Background()

	require.NoError(t, client.Delete(ctx, "identity/u1/front"))
	require.NoError(t, client.Delete(ctx, "identity/u1/missing"))
	assert.Len(t, fake.deletes, 2)
}

func TestPingUnknownBucket(t *testing.T) {
	client, _ := newTestClient(t, "other")
	assert.Error(t, client.Ping(context.Background()))
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.Error(t, c.Ping(context.Background()))
	assert.Empty(t, c.Bucket())
	_, err := newClient(context.Background(), "")
	assert.Error(t, err)
}
