package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zulandar/segdash/internal/models"
	"github.com/zulandar/segdash/internal/session"
)

var alice = session.Session{AccessToken: "acc-1", RefreshToken: "ref-1", UserID: 7}

func newStore(t *testing.T, sess session.Session) *session.Store {
	t.Helper()
	s, err := session.Open(&session.MemoryBackend{}, nil)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	if sess.Authenticated() {
		if err := s.Set(sess); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	return s
}

func newClient(t *testing.T, h http.Handler, store *session.Store) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		BaseURL:   srv.URL + "/",
		Store:     store,
		RetryMax:  2,
		RetryWait: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNew_Validation(t *testing.T) {
	store := newStore(t, session.Session{})
	if _, err := New(Options{BaseURL: "http://x"}); err == nil {
		t.Error("expected error without store")
	}
	for _, base := range []string{"", "localhost:8080/api", "/relative"} {
		if _, err := New(Options{BaseURL: base, Store: store}); err == nil {
			t.Errorf("New(%q) should fail", base)
		}
	}
	c, err := New(Options{BaseURL: "http://localhost:8080/", Store: store})
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL() != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", c.BaseURL())
	}
}

func TestClient_AttachesBearer(t *testing.T) {
	var gotAuth, gotReqID string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		writeJSON(w, 200, []string{"a.csv"})
	})
	c, _ := newClient(t, h, newStore(t, alice))

	if _, err := c.Files(context.Background()); err != nil {
		t.Fatalf("Files: %v", err)
	}
	if gotAuth != "Bearer acc-1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer acc-1")
	}
	if gotReqID == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestClient_AnonymousSendsNoAuthorization(t *testing.T) {
	var sawAuth atomic.Bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			sawAuth.Store(true)
		}
		writeJSON(w, 200, []string{})
	})
	c, _ := newClient(t, h, newStore(t, session.Session{}))
	if _, err := c.Files(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sawAuth.Load() {
		t.Error("anonymous request carried an Authorization header")
	}
}

func TestClient_UnauthorizedClearsSessionAndEmitsOnce(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"message": "Token expired"})
	})
	store := newStore(t, alice)
	c, _ := newClient(t, h, store)

	var events []SessionExpired
	c.OnSessionExpired(func(e SessionExpired) { events = append(events, e) })

	_, err := c.Segments(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if KindOf(err) != KindAuthentication {
		t.Errorf("KindOf = %v, want authentication", KindOf(err))
	}
	if Message(err) != "Token expired" {
		t.Errorf("Message = %q, want backend message", Message(err))
	}
	if store.IsAuthenticated() {
		t.Error("session should be cleared after 401")
	}
	if len(events) != 1 {
		t.Fatalf("got %d SessionExpired events, want 1", len(events))
	}
	if events[0].Op != "getSegments" || events[0].Path != "/analysis/segments" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestClient_UnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(401)
	})
	c, _ := newClient(t, h, newStore(t, alice))
	c.Files(context.Background())
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestClient_BackendErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", 400, `{"message":"Invalid file format"}`, "Invalid file format"},
		{"error field", 400, `{"error":"Bad parquet path"}`, "Bad parquet path"},
		{"plain text", 400, "Clustering failed: not enough rows", "Clustering failed: not enough rows"},
		{"empty body", 404, "", "Failed to upload file"},
		{"html page", 400, "<html><body>Bad Gateway</body></html>", "Failed to upload file"},
		{"json without message", 422, `{"status":422}`, "Failed to upload file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			store := newStore(t, alice)
			c, _ := newClient(t, h, store)

			_, err := c.Upload(context.Background(), "data.csv", "text/csv", strings.NewReader("a,b\n"))
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if apiErr.Kind != KindBackend {
				t.Errorf("Kind = %v, want backend", apiErr.Kind)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.want {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.want)
			}
			if !store.IsAuthenticated() {
				t.Error("non-401 failure must not clear the session")
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	store := newStore(t, alice)
	c, err := New(Options{BaseURL: base, Store: store, RetryMax: 1, RetryWait: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Files(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if Message(err) != "Failed to fetch files" {
		t.Errorf("Message = %q", Message(err))
	}
	if !store.IsAuthenticated() {
		t.Error("network failure must not clear the session")
	}
}

func TestClient_RetriesGetOn5xx(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(503)
			return
		}
		writeJSON(w, 200, []string{"a.csv", "b.json"})
	})
	c, _ := newClient(t, h, newStore(t, alice))

	files, err := c.Files(context.Background())
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v", files)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestClient_RetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 500, map[string]string{"message": "database down"})
	})
	c, _ := newClient(t, h, newStore(t, alice))

	_, err := c.Segments(context.Background(), "")
	if Message(err) != "database down" {
		t.Errorf("Message = %q, want database down", Message(err))
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 1 + RetryMax(2)", n)
	}
}

func TestClient_PostNeverRetried(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(502)
	})
	c, _ := newClient(t, h, newStore(t, alice))

	_, err := c.Cluster(context.Background(), "/data/a.parquet", 5)
	if KindOf(err) != KindBackend {
		t.Errorf("KindOf = %v, want backend", KindOf(err))
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestClient_CustomersQuery(t *testing.T) {
	seg := 0
	tests := []struct {
		name   string
		filter models.CustomerFilter
		want   string
	}{
		{"no filter", models.CustomerFilter{}, ""},
		{"segment zero", models.CustomerFilter{Segment: &seg}, "segment=0"},
		{"all", models.CustomerFilter{Segment: &seg, MaritalStatus: "Single", FileName: "a.csv"}, "fileName=a.csv&maritalStatus=Single&segment=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.RawQuery
				writeJSON(w, 200, []models.CustomerDTO{})
			})
			c, _ := newClient(t, h, newStore(t, alice))
			if _, err := c.Customers(context.Background(), tt.filter); err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("query = %q, want %q", got, tt.want)
			}
			if strings.Contains(got, "undefined") {
				t.Error("query contains undefined")
			}
		})
	}
}

func TestClient_CustomerAndDashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /analysis/customers/42", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":42,"education":"PhD","income":null,"segment":3}`)
	})
	mux.HandleFunc("GET /analysis/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fileName") != "a.csv" {
			w.WriteHeader(400)
			return
		}
		io.WriteString(w, `{"totalCustomers":10,"segmentDistribution":{"0":4,"1":6}}`)
	})
	c, _ := newClient(t, mux, newStore(t, alice))

	cust, err := c.Customer(context.Background(), 42)
	if err != nil {
		t.Fatalf("Customer: %v", err)
	}
	if cust.ID != 42 || cust.Income != nil || cust.Segment == nil || *cust.Segment != 3 {
		t.Errorf("customer = %+v", cust)
	}

	dash, err := c.Dashboard(context.Background(), "a.csv")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.TotalCustomers != 10 || dash.SegmentDistribution[1] != 6 {
		t.Errorf("dashboard = %+v", dash)
	}
}

func TestClient_DecodeError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	})
	c, _ := newClient(t, h, newStore(t, alice))
	_, err := c.Insights(context.Background(), "")
	if KindOf(err) != KindDecode {
		t.Errorf("KindOf = %v, want decode", KindOf(err))
	}
}

func TestClient_UploadMultipart(t *testing.T) {
	var gotName, gotType, gotBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(400)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotType, gotBody = hdr.Filename, hdr.Header.Get("Content-Type"), string(b)
		writeJSON(w, 200, models.UploadResponse{
			Message: "ok", FileName: hdr.Filename, RecordsImported: 2, ParquetPath: "/data/customers.parquet",
		})
	})
	c, _ := newClient(t, h, newStore(t, alice))

	res, err := c.Upload(context.Background(), "customers.csv", "text/csv", strings.NewReader("id\n1\n2\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if gotName != "customers.csv" || gotType != "text/csv" || gotBody != "id\n1\n2\n" {
		t.Errorf("received %q %q %q", gotName, gotType, gotBody)
	}
	if res.ParquetPath != "/data/customers.parquet" || res.RecordsImported != 2 {
		t.Errorf("response = %+v", res)
	}
}

// readTracker reports whether anything read from it.
type readTracker struct {
	read atomic.Bool
	r    io.Reader
}

func (t *readTracker) Read(p []byte) (int, error) {
	t.read.Store(true)
	return t.r.Read(p)
}

func TestClient_UploadBadRequestDoesNotStartWriter(t *testing.T) {
	c, _ := newClient(t, http.NotFoundHandler(), newStore(t, alice))
	c.baseURL = "http://bad host"
	file := &readTracker{r: strings.NewReader("id\n1\n")}

	_, err := c.Upload(context.Background(), "customers.csv", "text/csv", file)
	if KindOf(err) != KindNetwork {
		t.Fatalf("Upload error = %v, want network kind", err)
	}
	time.Sleep(20 * time.Millisecond)
	if file.read.Load() {
		t.Error("multipart writer read the file although no request was sent")
	}
}

func TestClient_ClusterResponses(t *testing.T) {
	tests := []struct {
		name, body, wantMsg string
		wantSegments        int
	}{
		{"plain text", "Clustering completed successfully", "Clustering completed successfully", 0},
		{"json", `{"message":"done","numClusters":3,"segments":[{"segmentId":0},{"segmentId":1},{"segmentId":2}]}`, "done", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				io.WriteString(w, tt.body)
			})
			c, _ := newClient(t, h, newStore(t, alice))
			res, err := c.Cluster(context.Background(), "/data/a.parquet", 3)
			if err != nil {
				t.Fatalf("Cluster: %v", err)
			}
			if gotQuery != "numClusters=3&parquetPath=%2Fdata%2Fa.parquet" {
				t.Errorf("query = %q", gotQuery)
			}
			if res.Message != tt.wantMsg || len(res.Segments) != tt.wantSegments {
				t.Errorf("response = %+v", res)
			}
			if res.NumClusters != 3 {
				t.Errorf("NumClusters = %d, want 3", res.NumClusters)
			}
		})
	}
}

func TestClient_Login(t *testing.T) {
	var got models.LoginRequest
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		if got.Password != "secret" {
			writeJSON(w, 401, map[string]string{"message": "Invalid email or password"})
			return
		}
		writeJSON(w, 200, map[string]any{
			"message": "Login successful",
			"data":    map[string]any{"accessToken": "a", "refreshToken": "r", "userId": 9},
		})
	})
	store := newStore(t, session.Session{})
	c, _ := newClient(t, h, store)

	_, err := c.Login(context.Background(), "bob@example.com", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if Message(err) != "Invalid email or password" {
		t.Errorf("Message = %q", Message(err))
	}

	sess, err := c.Login(context.Background(), "bob@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	want := session.Session{AccessToken: "a", RefreshToken: "r", UserID: 9}
	if sess != want || store.Current() != want {
		t.Errorf("session = %+v, store = %+v, want %+v", sess, store.Current(), want)
	}
	if got.Email != "bob@example.com" {
		t.Errorf("email = %q", got.Email)
	}
}

func TestClient_LoginMissingCredentials(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"data": map[string]any{"accessToken": "a"}})
	})
	store := newStore(t, session.Session{})
	c, _ := newClient(t, h, store)
	if _, err := c.Login(context.Background(), "x", "y"); KindOf(err) != KindDecode {
		t.Errorf("err = %v, want decode error", err)
	}
	if !store.Current().Empty() {
		t.Error("partial login response must not be stored")
	}
}

func TestClient_LogoutAlwaysClears(t *testing.T) {
	for _, status := range []int{200, 500, 401} {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		store := newStore(t, alice)
		c, _ := newClient(t, h, store)
		if err := c.Logout(context.Background()); err != nil {
			t.Errorf("status %d: Logout = %v", status, err)
		}
		if store.IsAuthenticated() {
			t.Errorf("status %d: session not cleared", status)
		}
	}
}

func TestClient_LogoutUnreachable(t *testing.T) {
	store := newStore(t, alice)
	c, err := New(Options{BaseURL: "http://127.0.0.1:1", Store: store})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Logout(context.Background()); err != nil {
		t.Errorf("Logout = %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("session not cleared")
	}
}

func TestClient_RefreshTokenKeepsUserID(t *testing.T) {
	var got models.TokenRefreshRequest
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, 200, map[string]any{"data": map[string]string{"accessToken": "acc-2", "refreshToken": "ref-2"}})
	})
	store := newStore(t, alice)
	c, _ := newClient(t, h, store)

	sess, err := c.RefreshToken(context.Background())
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if got.RefreshToken != "ref-1" {
		t.Errorf("sent refresh token %q, want ref-1", got.RefreshToken)
	}
	want := session.Session{AccessToken: "acc-2", RefreshToken: "ref-2", UserID: 7}
	if sess != want || store.Current() != want {
		t.Errorf("session = %+v, want %+v", store.Current(), want)
	}
}

func TestClient_RefreshTokenAnonymous(t *testing.T) {
	c, _ := newClient(t, http.NotFoundHandler(), newStore(t, session.Session{}))
	if _, err := c.RefreshToken(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestClient_EnsureFresh(t *testing.T) {
	sign := func(exp time.Time) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 200, map[string]any{"data": map[string]string{"accessToken": "new", "refreshToken": "new-r"}})
	})

	fresh := newStore(t, session.Session{AccessToken: sign(time.Now().Add(time.Hour)), RefreshToken: "r", UserID: 1})
	c, _ := newClient(t, h, fresh)
	if did, err := c.EnsureFresh(context.Background(), 2*time.Minute); err != nil || did {
		t.Errorf("fresh token: EnsureFresh = %v, %v; want false, nil", did, err)
	}

	stale := newStore(t, session.Session{AccessToken: sign(time.Now().Add(time.Minute)), RefreshToken: "r", UserID: 1})
	c, _ = newClient(t, h, stale)
	if did, err := c.EnsureFresh(context.Background(), 2*time.Minute); err != nil || !did {
		t.Errorf("stale token: EnsureFresh = %v, %v; want true, nil", did, err)
	}
	if stale.AccessToken() != "new" {
		t.Errorf("AccessToken = %q, want new", stale.AccessToken())
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
}

func TestClient_ML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ml/train", func(w http.ResponseWriter, r *http.Request) {
		var req models.TrainModelRequest
		json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, 200, models.TrainModelResponse{Data: models.TrainedModel{ModelName: req.ModelName, NumSegments: 5}})
	})
	mux.HandleFunc("POST /ml/predict", func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		json.NewDecoder(r.Body).Decode(&raw)
		if _, ok := raw["mntFruits"]; ok {
			w.WriteHeader(400)
			return
		}
		writeJSON(w, 200, models.PredictResponse{Data: models.Prediction{PredictedSegment: 2, Confidence: 0.8}})
	})
	c, _ := newClient(t, mux, newStore(t, alice))

	m, err := c.TrainModel(context.Background(), models.TrainModelRequest{ModelName: "kmeans", Features: []string{"income"}})
	if err != nil {
		t.Fatalf("TrainModel: %v", err)
	}
	if m.ModelName != "kmeans" || m.NumSegments != 5 {
		t.Errorf("model = %+v", m)
	}

	req := models.PredictRequest{Income: 52000}
	req.SetOptional("mntWines", 300)
	p, err := c.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.PredictedSegment != 2 {
		t.Errorf("PredictedSegment = %d, want 2", p.PredictedSegment)
	}
}

func TestClient_Reports(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reports/generate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, models.ReportGenerationResponse{Data: models.GeneratedReport{
			ReportID: "r-1", ReportType: r.URL.Query().Get("reportType"),
		}})
	})
	mux.HandleFunc("GET /reports/r-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="segments.pdf"`)
		io.WriteString(w, "%PDF-1.4")
	})
	c, _ := newClient(t, mux, newStore(t, alice))

	rep, err := c.GenerateReport(context.Background(), models.ReportSummary)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if rep.ReportID != "r-1" || rep.ReportType != "summary" {
		t.Errorf("report = %+v", rep)
	}

	d, err := c.DownloadReport(context.Background(), rep.ReportID)
	if err != nil {
		t.Fatalf("DownloadReport: %v", err)
	}
	defer d.Body.Close()
	body, _ := io.ReadAll(d.Body)
	if string(body) != "%PDF-1.4" {
		t.Errorf("body = %q", body)
	}
	if d.FileName != "segments.pdf" || d.ContentType != "application/pdf" {
		t.Errorf("download = %+v", d)
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindBackend, Op: "getFiles", Status: 500, Message: "boom"}, "api: getFiles: boom (status 500)"},
		{&Error{Kind: KindNetwork, Op: "getFiles", Message: "Failed to fetch files", Err: errors.New("refused")}, "api: getFiles: Failed to fetch files: refused"},
		{&Error{Kind: KindDecode, Op: "login", Message: "bad"}, "api: login: bad"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("KindOf(plain error) should be 0")
	}
	if Message(nil) != "" {
		t.Error("Message(nil) should be empty")
	}
}
