package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestServerServesAndShutsDownGracefully(t *testing.T) {
	t.Setenv("FAIRDRAW_DB_PATH", t.TempDir()+"/fairdraw.db")
	t.Setenv("FAIRDRAW_JWT_SECRET", "test-jwt-secret")
	t.Setenv("FAIRDRAW_CALLBACK_SECRET", "test-callback-secret")

	srv, err := NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	resp, err := http.Get("http://" + srv.Addr() + "/v1/escrow")
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["oracle_credits"].(float64) != 0 {
		t.Fatalf("oracle credits = %v, want 0", body["oracle_credits"])
	}
}

func TestNewRequiresSecrets(t *testing.T) {
	t.Setenv("FAIRDRAW_DB_PATH", t.TempDir()+"/fairdraw.db")
	t.Setenv("FAIRDRAW_JWT_SECRET", "")
	t.Setenv("FAIRDRAW_CALLBACK_SECRET", "")

	if _, err := NewWithAddr("127.0.0.1:0"); err == nil {
		t.Fatal("expected error without secrets")
	}
}
