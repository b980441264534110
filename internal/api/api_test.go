package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/llm"
)

// fakeGemini answers generateContent calls with a fixed status and either a
// candidate text or a raw error body.
func fakeGemini(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, text)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]string{{"text": text}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(p llm.Provider) chi.Router {
	r := chi.NewRouter()
	RegisterRoutes(r, circuitgen.New(p, circuitgen.Options{Model: "gemini-1.5-flash"}), nil)
	return r
}

func googleRouter(t *testing.T, status int, text string) chi.Router {
	srv := fakeGemini(t, status, text)
	return newRouter(llm.NewGoogleProvider("test-key", "gemini-1.5-flash").WithBaseURL(srv.URL))
}

func post(t *testing.T, r http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s response %q: %v", path, rec.Body.String(), err)
	}
	return rec, out
}

func TestGenerateCircuitAndGate(t *testing.T) {
	reply := "```json\n{\"devices\":{\"d0\":{\"type\":\"And\"}},\"connectors\":[]}\n```\n--- Explanation ---\nA simple AND gate."
	r := googleRouter(t, http.StatusOK, reply)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-circuit", strings.NewReader(`{"prompt":"Create an AND gate"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		CircuitJSON json.RawMessage `json:"circuitJson"`
		Explanation string          `json:"explanation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp.CircuitJSON) != `{"devices":{"d0":{"type":"And"}},"connectors":[]}` {
		t.Errorf("circuitJson = %s", resp.CircuitJSON)
	}
	if resp.Explanation != "A simple AND gate." {
		t.Errorf("explanation = %q", resp.Explanation)
	}
}

func TestGenerateCircuitErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		text       string
		body       string
		wantStatus int
		wantError  string
		wantFields map[string]string
	}{
		{
			name:       "missing prompt",
			status:     http.StatusOK,
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Prompt is required.",
		},
		{
			name:       "malformed body",
			status:     http.StatusOK,
			body:       `{"prompt":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body.",
		},
		{
			name:       "upstream 429",
			status:     http.StatusTooManyRequests,
			text:       `{"error":{"message":"quota"}}`,
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusTooManyRequests,
			wantError:  "Gemini API request failed with status 429.",
			wantFields: map[string]string{"details": `{"error":{"message":"quota"}}`},
		},
		{
			name:       "empty text",
			status:     http.StatusOK,
			text:       "",
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "No content generated by AI.",
		},
		{
			name:       "no fence",
			status:     http.StatusOK,
			text:       "I cannot do that.",
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "AI response did not contain a valid JSON block.",
			wantFields: map[string]string{"details": "I cannot do that."},
		},
		{
			name:       "invalid json",
			status:     http.StatusOK,
			text:       "```json\n{\"devices\": nope}\n```\n--- Explanation ---\nHalf done.",
			body:       `{"prompt":"x"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "AI generated invalid JSON.",
			wantFields: map[string]string{"details": `{"devices": nope}`, "explanation": "Half done."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := googleRouter(t, tt.status, tt.text)
			rec, out := post(t, r, "/api/generate-circuit", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if out["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", out["error"], tt.wantError)
			}
			for k, v := range tt.wantFields {
				if out[k] != v {
					t.Errorf("%s = %v, want %q", k, out[k], v)
				}
			}
			if tt.name == "invalid json" {
				if msg, _ := out["parseErrorMessage"].(string); msg == "" {
					t.Error("parseErrorMessage missing")
				}
				if _, ok := out["circuitJson"]; ok {
					t.Error("no circuit may be substituted on parse failure")
				}
			}
		})
	}
}

func TestGenerateCircuitMissingKey(t *testing.T) {
	_, err := llm.NewProviderWithKeys("google", "gemini-1.5-flash", func(string) string { return "" })
	r := newRouter(llm.Unconfigured("google", err))

	rec, out := post(t, r, "/api/generate-circuit", `{"prompt":"x"}`)
	if rec.Code != http.StatusInternalServerError || out["error"] != "API key not configured." {
		t.Errorf("got %d %v", rec.Code, out)
	}
}

func TestGenerateCircuitNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	r := newRouter(llm.NewGoogleProvider("k", "gemini-1.5-flash").WithBaseURL(url))

	rec, out := post(t, r, "/api/generate-circuit", `{"prompt":"x"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if out["error"] != "Network error connecting to AI service." {
		t.Errorf("error = %v", out["error"])
	}
	if d, _ := out["details"].(string); d == "" {
		t.Error("details missing")
	}
}

func TestAIAssist(t *testing.T) {
	r := googleRouter(t, http.StatusOK, "Add a carry output.")
	rec, out := post(t, r, "/api/ai-assist", `{"circuit":"{\"devices\":{},\"connectors\":[]}"}`)
	if rec.Code != http.StatusOK || out["result"] != "Add a carry output." {
		t.Errorf("got %d %v", rec.Code, out)
	}

	r = googleRouter(t, http.StatusOK, "")
	_, out = post(t, r, "/api/ai-assist", `{"circuit":{"devices":{},"connectors":[]}}`)
	if out["result"] != "No suggestions returned." {
		t.Errorf("result = %v", out["result"])
	}
}

func TestAIAssistErrors(t *testing.T) {
	r := googleRouter(t, http.StatusServiceUnavailable, "overloaded")
	rec, out := post(t, r, "/api/ai-assist", `{"circuit":"{}"}`)
	if rec.Code != http.StatusServiceUnavailable || out["result"] != "Error from AI service: Service Unavailable" {
		t.Errorf("got %d %v", rec.Code, out)
	}

	_, err := llm.NewProviderWithKeys("google", "m", func(string) string { return "" })
	r = newRouter(llm.Unconfigured("google", err))
	rec, out = post(t, r, "/api/ai-assist", `{"circuit":"{}"}`)
	if rec.Code != http.StatusInternalServerError || out["result"] != "API key not configured." {
		t.Errorf("got %d %v", rec.Code, out)
	}

	for _, body := range []string{`{}`, `{"circuit":null}`} {
		rec, out = post(t, r, "/api/ai-assist", body)
		if rec.Code != http.StatusBadRequest || out["result"] != "Circuit is required." {
			t.Errorf("%s: got %d %v", body, rec.Code, out)
		}
	}

	rec, out = post(t, r, "/api/ai-assist", `not json`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if s, _ := out["result"].(string); !strings.HasPrefix(s, "Error processing request: ") {
		t.Errorf("result = %v", out["result"])
	}
}

func TestValidateEndpoint(t *testing.T) {
	r := newRouter(&llm.OllamaProvider{})

	rec, out := post(t, r, "/api/circuits/validate", `{"devices":{"a":{"type":"Button"}},"connectors":[]}`)
	if rec.Code != http.StatusOK || out["valid"] != true {
		t.Errorf("got %d %v", rec.Code, out)
	}

	_, out = post(t, r, "/api/circuits/validate", `{"devices":{}}`)
	if out["valid"] != false || out["error"] != `circuit JSON must contain a "connectors" array` {
		t.Errorf("got %v", out)
	}
}

func TestCircuitCatalogEndpoints(t *testing.T) {
	r := newRouter(&llm.OllamaProvider{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/circuits/examples/full-adder", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"celltype":"halfadder"`) {
		t.Errorf("full-adder = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/circuits/device-types", nil))
	var types []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &types); err != nil || len(types) == 0 {
		t.Errorf("device-types = %v, %v", types, err)
	}
}
