package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/edgefunc/pkg/config"
)

func TestFetchObjectAgainstPathStyleEndpoint(t *testing.T) {
	const body = "deployment archive bytes"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	cfg := &config.Config{
		S3AccessKey: "test-key",
		S3SecretKey: "test-secret",
		S3Bucket:    "deployments",
		S3Region:    "us-east-1",
		S3Endpoint:  server.URL,
	}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)

	data, err := client.FetchObject(context.Background(), "tenant-1/deploy.zip")
	require.NoError(t, err)
	require.Equal(t, body, string(data))
}
