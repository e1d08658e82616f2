// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/blinklabs-io/lazarus/database/plugin/coldstore/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

const accessDeniedBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`

func newFakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			switch r.URL.Path {
			case "/deltas/archive/stateDelta_48":
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = io.WriteString(w, "delta-48")
			case "/deltas/archive/stateDelta_13":
				w.WriteHeader(http.StatusForbidden)
				_, _ = io.WriteString(w, accessDeniedBody)
			default:
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, noSuchKeyBody)
			}
		},
	))
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T, endpoint string, registry prometheus.Registerer) *s3.ColdStoreS3 {
	t.Helper()
	c := s3.NewWithOptions(
		s3.WithEndpoint(endpoint),
		s3.WithBucket("deltas"),
		s3.WithPrefix("archive/"),
		s3.WithRegion("us-east-1"),
		s3.WithPromRegistry(registry),
		s3.WithCredentials(
			credentials.NewStaticCredentialsProvider("AKIDTEST", "secret", ""),
		),
	)
	require.NoError(t, c.Start())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFetchStateDelta(t *testing.T) {
	srv := newFakeS3(t)
	registry := prometheus.NewRegistry()
	c := newTestStore(t, srv.URL, registry)

	data, found, err := c.FetchStateDelta(context.Background(), 48)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("delta-48"), data)

	data, found, err = c.FetchStateDelta(context.Background(), 47)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	_, found, err = c.FetchStateDelta(context.Background(), 13)
	assert.Error(t, err)
	assert.False(t, found)

	count, err := testutil.GatherAndCount(
		registry,
		"lazarus_coldstore_fetches_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNewParsesLocation(t *testing.T) {
	_, err := s3.New("gcs://bucket", nil, nil)
	assert.Error(t, err)
	_, err = s3.New("s3://", nil, nil)
	assert.Error(t, err)
	c, err := s3.New("s3://bucket/some/prefix/", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestStartRequiresBucket(t *testing.T) {
	assert.Error(t, s3.NewWithOptions().Start())
}

func TestFetchBeforeStart(t *testing.T) {
	_, _, err := s3.NewWithOptions(s3.WithBucket("b")).FetchStateDelta(
		context.Background(),
		1,
	)
	assert.Error(t, err)
}
