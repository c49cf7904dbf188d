package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/state"
)

// Source is what the inspector reads. *runtime.Store implements it.
type Source interface {
	State() state.Root
	Seq() int64
	Actions(ctx context.Context, afterSeq int64, limit int) ([]action.Envelope, error)
}

const maxActionsPage = 500

// Handler serves:
//
//	GET /healthz
//	GET /api/state
//	GET /api/state/{key}
//	GET /api/actions?after=N&limit=M
func Handler(src Source) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			errmodel.WriteHTTP(w, r, errmodel.Policy("method_not_allowed", "method not allowed", map[string]any{"method": r.Method}))
			return
		}
		writeJSON(w, map[string]any{"seq": src.Seq(), "state": src.State()})
	})
	mux.HandleFunc("GET /api/state/{key}", func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		sl, ok := Slice(src.State(), key)
		if !ok {
			errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "unknown slice", map[string]any{"key": key}))
			return
		}
		writeJSON(w, sl)
	})
	mux.HandleFunc("/api/actions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			errmodel.WriteHTTP(w, r, errmodel.Policy("method_not_allowed", "method not allowed", map[string]any{"method": r.Method}))
			return
		}
		after, err := intParam(r, "after", 0)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		limit, err := intParam(r, "limit", 100)
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		if limit <= 0 || limit > maxActionsPage {
			limit = maxActionsPage
		}
		envs, aerr := src.Actions(r.Context(), int64(after), limit)
		if aerr != nil {
			errmodel.WriteHTTP(w, r, errmodel.System("journal", "failed to list actions", nil, aerr))
			return
		}
		if envs == nil {
			envs = []action.Envelope{}
		}
		writeJSON(w, map[string]any{"actions": envs})
	})
	return otelhttp.NewHandler(mux, "devtools")
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errmodel.Validation("invalid_argument", name+" must be a non-negative integer", map[string]any{name: v})
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
