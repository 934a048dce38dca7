package pose

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `
poses:
  - name: front_biceps
    features:
      LeftArmAngle: -150
      RightArmAngle: 150
  - name: tpose
    features:
      LeftArmAngle: 180
      RightArmAngle: 0
      LeftShoulderAngle: 180
      RightShoulderAngle: 0
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	tpose, ok := c.Get("tpose")
	if !ok {
		t.Fatal("tpose missing")
	}
	if tpose.Features[LeftShoulderAngle] != 180 || len(tpose.Features) != 4 {
		t.Errorf("tpose features wrong: %v", tpose.Features)
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"empty table", "poses: []\n", ErrEmptyCatalog},
		{"unknown feature", "poses:\n  - name: x\n    features:\n      WingAngle: 10\n", ErrUnknownFeature},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tc.data)); !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	if _, err := ParseCatalog([]byte("poses: [")); err == nil {
		t.Error("expected YAML syntax error")
	}
}

func TestLoadCatalog_RoundTripsDefaults(t *testing.T) {
	data, err := MarshalCatalog(DefaultTemplates())
	if err != nil {
		t.Fatalf("MarshalCatalog: %v", err)
	}

	path := filepath.Join(t.TempDir(), "poses.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Len() != len(DefaultTemplates()) {
		t.Errorf("Len = %d, want %d", c.Len(), len(DefaultTemplates()))
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFetchCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/poses.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	c, err := FetchCatalog(context.Background(), srv.URL+"/poses.yaml")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	if _, err := FetchCatalog(context.Background(), srv.URL+"/missing.yaml"); err == nil {
		t.Error("expected error for 404")
	}
}
