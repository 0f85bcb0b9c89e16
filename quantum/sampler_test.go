package quantum

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quantumLottoServer/lottery"
)

// stubRuntime fakes the runtime REST surface: two hardware devices with
// different queues, a simulator, and a sampler job that completes on
// the first status poll with a fixed reading.
func stubRuntime(t *testing.T, reading string) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/backends", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, `{"errors":[{"message":"unauthorized"}]}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"devices": []map[string]any{
				{"backend_name": "ibm_quiet", "n_qubits": 127, "simulator": false, "operational": true},
				{"backend_name": "ibm_busy", "n_qubits": 127, "simulator": false, "operational": true},
				{"backend_name": "ibm_tiny", "n_qubits": 5, "simulator": false, "operational": true},
				{"backend_name": "sim_state", "n_qubits": 32, "simulator": true, "operational": true},
			},
		})
	})
	mux.HandleFunc("/backends/ibm_quiet/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"backend_name": "ibm_quiet", "operational": true, "length_queue": 2})
	})
	mux.HandleFunc("/backends/ibm_busy/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"backend_name": "ibm_busy", "operational": true, "length_queue": 40})
	})
	mux.HandleFunc("/backends/ibm_tiny/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"backend_name": "ibm_tiny", "operational": true, "length_queue": 0})
	})

	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			ProgramID string `json:"program_id"`
			Backend   string `json:"backend"`
			Params    struct {
				Circuits []string `json:"circuits"`
				Shots    int      `json:"shots"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if payload.ProgramID != "sampler" {
			t.Errorf("program_id = %q, want sampler", payload.ProgramID)
		}
		if len(payload.Params.Circuits) != 1 || payload.Params.Shots != 1 {
			t.Errorf("unexpected sampler params: %+v", payload.Params)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "job-7"})
	})
	mux.HandleFunc("/jobs/job-7", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-7", "backend": "ibm_quiet", "status": JobCompleted})
	})
	mux.HandleFunc("/jobs/job-7/results", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"counts": map[string]int{reading: 1}})
	})

	return httptest.NewServer(mux)
}

func TestQuantumSource(t *testing.T) {
	ctx := context.Background()
	reading := "1100110011"
	server := stubRuntime(t, reading)
	defer server.Close()

	client, err := NewClient(Config{Token: "test-token", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	// Test 1: full flow with least-busy selection
	t.Run("SampleWithProvenance", func(t *testing.T) {
		src := NewQuantumSource(client, "", 1)
		sample, prov, err := src.SampleWithProvenance(ctx, 10)
		if err != nil {
			t.Fatalf("SampleWithProvenance failed: %v", err)
		}
		if prov.Backend != "ibm_quiet" {
			t.Errorf("backend = %q, want ibm_quiet (shortest queue)", prov.Backend)
		}
		if prov.JobID != "job-7" {
			t.Errorf("job id = %q, want job-7", prov.JobID)
		}
		if sample.BitString() != reading {
			t.Errorf("sample bits = %s, want %s", sample.BitString(), reading)
		}
		if sample.Value.Int64() != 819 { // 0b1100110011
			t.Errorf("sample value = %d, want 819", sample.Value.Int64())
		}
	})

	// Test 2: pinned backend skips selection
	t.Run("PinnedBackend", func(t *testing.T) {
		src := NewQuantumSource(client, "ibm_busy", 1)
		_, prov, err := src.SampleWithProvenance(ctx, 10)
		if err != nil {
			t.Fatalf("SampleWithProvenance failed: %v", err)
		}
		if prov.Backend != "ibm_busy" {
			t.Errorf("backend = %q, want pinned ibm_busy", prov.Backend)
		}
	})

	// Test 3: no device can serve an oversized register
	t.Run("TooManyQubits", func(t *testing.T) {
		src := NewQuantumSource(client, "", 1)
		if _, _, err := src.SampleWithProvenance(ctx, 4096); !errors.Is(err, ErrNoBackend) {
			t.Errorf("err = %v, want ErrNoBackend", err)
		}
	})

	// Test 4: zero-width request rejected before any network call
	t.Run("ZeroBits", func(t *testing.T) {
		src := NewQuantumSource(client, "", 1)
		if _, err := src.UniformSample(ctx, 0); !errors.Is(err, lottery.ErrInvalidParameters) {
			t.Errorf("err = %v, want ErrInvalidParameters", err)
		}
	})
}

func TestLeastBusy(t *testing.T) {
	ctx := context.Background()
	server := stubRuntime(t, "0000000000")
	defer server.Close()

	client, err := NewClient(Config{Token: "test-token", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	// Test 1: shortest queue among big-enough hardware wins
	t.Run("PrefersShortQueue", func(t *testing.T) {
		device, err := client.LeastBusy(ctx, 10)
		if err != nil {
			t.Fatalf("LeastBusy failed: %v", err)
		}
		if device.Name != "ibm_quiet" {
			t.Errorf("picked %q, want ibm_quiet", device.Name)
		}
	})

	// Test 2: tiny devices qualify when the request is small
	t.Run("SmallRequest", func(t *testing.T) {
		device, err := client.LeastBusy(ctx, 3)
		if err != nil {
			t.Fatalf("LeastBusy failed: %v", err)
		}
		if device.Name != "ibm_tiny" { // queue 0 beats everything
			t.Errorf("picked %q, want ibm_tiny", device.Name)
		}
	})

	// Test 3: nothing big enough
	t.Run("NothingFits", func(t *testing.T) {
		if _, err := client.LeastBusy(ctx, 500); !errors.Is(err, ErrNoBackend) {
			t.Errorf("err = %v, want ErrNoBackend", err)
		}
	})
}

func TestInstanceHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"no default instance found for this account"}]}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(Config{Token: "test-token", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.SubmitJob(context.Background(), "ibm_quiet", "OPENQASM 3.0;", 1)
	if !errors.Is(err, ErrInstanceRequired) {
		t.Errorf("err = %v, want ErrInstanceRequired", err)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestParseBitString(t *testing.T) {
	// Test 1: MSB-leftmost parse
	t.Run("ParsesMSBFirst", func(t *testing.T) {
		sample, err := ParseBitString("10000001", 8)
		if err != nil {
			t.Fatalf("ParseBitString failed: %v", err)
		}
		if sample.Value.Int64() != 129 {
			t.Errorf("value = %d, want 129", sample.Value.Int64())
		}
		if sample.Bits != 8 {
			t.Errorf("bits = %d, want 8", sample.Bits)
		}
	})

	// Test 2: leading zeros preserved by the declared width
	t.Run("LeadingZeros", func(t *testing.T) {
		sample, err := ParseBitString("0001", 4)
		if err != nil {
			t.Fatalf("ParseBitString failed: %v", err)
		}
		if sample.BitString() != "0001" {
			t.Errorf("round trip = %q, want 0001", sample.BitString())
		}
	})

	// Test 3: width mismatch and junk rejected
	t.Run("RejectsMismatch", func(t *testing.T) {
		if _, err := ParseBitString("101", 4); !errors.Is(err, ErrInconsistentBits) {
			t.Errorf("short string err = %v, want ErrInconsistentBits", err)
		}
		if _, err := ParseBitString("10a1", 4); !errors.Is(err, ErrInconsistentBits) {
			t.Errorf("junk string err = %v, want ErrInconsistentBits", err)
		}
	})
}

func TestFirstReading(t *testing.T) {
	// Single key is the shots=1 fast path
	reading, err := firstReading(map[string]int{"0101": 1})
	if err != nil || reading != "0101" {
		t.Errorf("firstReading = %q, %v; want 0101", reading, err)
	}

	// Most frequent wins, ties break low
	reading, _ = firstReading(map[string]int{"1111": 3, "0000": 9, "1010": 9})
	if reading != "0000" {
		t.Errorf("firstReading = %q, want 0000 (tie broken lexicographically)", reading)
	}

	if _, err := firstReading(nil); !errors.Is(err, ErrJobFailed) {
		t.Errorf("empty counts err = %v, want ErrJobFailed", err)
	}
}
