package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
)

const doc = `{"sites":[{"id":"s1","name":"West Weir","assets":[{"id":"a1","name":"Pump A","tags":[
  {"id":"flow","label":"Flow","unit":"L/s","points":[{"ts":"2024-01-01T00:00:00Z","value":5,"q":"good"}]}]}]}]}`

func testSource(t *testing.T, endpoint, key string) *Source {
	t.Helper()
	src, err := New("eu-west-1", endpoint, "telemetry", key,
		&aws.Config{Credentials: credentials.NewStaticCredentials("AKID", "SECRET", "")})
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestFetchObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/telemetry/snapshots/down.json" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	}))
	defer ts.Close()

	src := testSource(t, ts.URL, "snapshots/down.json")
	if src.Location() != "s3://telemetry/snapshots/down.json" {
		t.Fatalf("unexpected location %s", src.Location())
	}

	ds, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if ds.TagCount() != 1 || ds.Sites[0].Assets[0].Tags[0].ID != "flow" {
		t.Fatalf("unexpected dataset %+v", ds)
	}
}

func TestFetchMissingObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
	}))
	defer ts.Close()

	src := testSource(t, ts.URL, "missing.json")
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestNewRequiresBucketAndKey(t *testing.T) {
	if _, err := New("eu-west-1", "", "", "down.json"); err == nil {
		t.Fatal("expected error without bucket")
	}
	if _, err := New("eu-west-1", "", "telemetry", ""); err == nil {
		t.Fatal("expected error without key")
	}
}
