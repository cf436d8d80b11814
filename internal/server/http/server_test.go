package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/village-mart/internal/errs"
	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/service"
	"github.com/and161185/village-mart/internal/token"
)

var testKey = []byte("test-secret")

type memStore struct {
	mu       sync.Mutex
	users    []*model.User
	bookings []model.Booking
	contacts []model.ContactMessage
	products []model.Product
	listErr  error
}

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == u.Username {
			return errs.ErrAlreadyExists
		}
	}
	u.ID = int64(len(m.users) + 1)
	u.CreatedAt = time.Now().UTC()
	c := *u
	m.users = append(m.users, &c)
	return nil
}

func (m memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.ID == id {
			c := *x
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m memUsers) GetByUsername(_ context.Context, name string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == name {
			c := *x
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m memUsers) UpdatePhone(_ context.Context, id int64, phone *string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.ID == id {
			x.Phone = phone
			c := *x
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

type memBookings struct{ *memStore }

func (m memBookings) ListByUser(_ context.Context, userID int64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for i := len(m.bookings) - 1; i >= 0; i-- {
		if m.bookings[i].UserID == userID {
			out = append(out, m.bookings[i])
		}
	}
	return out, nil
}

func (m memBookings) Create(_ context.Context, userID int64, products string) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := model.Booking{ID: int64(len(m.bookings) + 1), UserID: userID, Products: products, CreatedAt: time.Now().UTC()}
	m.bookings = append(m.bookings, b)
	return b, nil
}

type memProducts struct{ *memStore }

func (m memProducts) List(context.Context) ([]model.Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.products, nil
}

type memContacts struct{ *memStore }

func (m memContacts) Create(_ context.Context, name, message string) (model.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.ContactMessage{ID: int64(len(m.contacts) + 1), Name: name, Message: message, CreatedAt: time.Now().UTC()}
	m.contacts = append(m.contacts, c)
	return c, nil
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *memStore) {
	t.Helper()
	st := &memStore{products: []model.Product{
		{ID: 1, Name: "Fresh Milk", Price: decimal.RequireFromString("30.00")},
		{ID: 2, Name: "Brown Bread", Price: decimal.RequireFromString("45.00")},
	}}
	log := zaptest.NewLogger(t)
	svc := Services{
		Auth:     service.NewAuthService(memUsers{st}, testKey, time.Hour, nil),
		Profiles: service.NewProfileService(memUsers{st}),
		Bookings: service.NewBookingService(memBookings{st}),
		Catalog:  service.NewCatalogService(memProducts{st}, nil, log),
		Contacts: service.NewContactService(memContacts{st}),
	}
	ts := httptest.NewServer(New(svc, testKey, log, opts).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, method, url, tok string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func errorText(t *testing.T, body []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func registerAndLogin(t *testing.T, base, name string) model.Identity {
	t.Helper()
	resp, _ := do(t, http.MethodPost, base+"/api/register", "", map[string]string{"username": name, "password": "pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body := do(t, http.MethodPost, base+"/api/login", "", map[string]string{"username": name, "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var id model.Identity
	require.NoError(t, json.Unmarshal(body, &id))
	return id
}

func userURL(base string, id int64) string {
	return base + "/api/user/" + strconv.FormatInt(id, 10)
}

func TestPublicEndpoints(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{})

	resp, body := do(t, http.MethodGet, ts.URL+"/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, LiveText, string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	resp, body = do(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []model.Product
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 2)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(30)))
	assert.Contains(t, string(body), `"price":"45.00"`)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/services", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var services []model.Service
	require.NoError(t, json.Unmarshal(body, &services))
	assert.Len(t, services, 5)

	resp, body = do(t, http.MethodGet, ts.URL+"/api/news", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var news []model.NewsItem
	require.NoError(t, json.Unmarshal(body, &news))
	assert.Len(t, news, 3)
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestContact(t *testing.T) {
	t.Parallel()
	ts, st := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, ts.URL+"/api/contact", "", map[string]string{"name": "Asha", "message": "Hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var msg model.ContactMessage
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, "Asha", msg.Name)
	assert.Len(t, st.contacts, 1)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/contact", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, ts.URL+"/api/register", "", map[string]any{"username": "ravi", "password": "pw", "phone": "999"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var got struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "User registered successfully", got.Message)
	assert.Equal(t, "ravi", got.User["username"])
	assert.Equal(t, "999", got.User["phone"])
	_, hasHash := got.User["PwdHash"]
	assert.False(t, hasHash)

	resp, body = do(t, http.MethodPost, ts.URL+"/api/register", "", map[string]any{"username": "ravi", "password": "other"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username already exists.", errorText(t, body))

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/register", "", map[string]any{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	long := strings.Repeat("p", 80)
	resp, body = do(t, http.MethodPost, ts.URL+"/api/register", "", map[string]any{"username": "longpw", "password": long})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = do(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{"username": "longpw", "password": long})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{})

	resp, body := do(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{"username": "ghost", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found.", errorText(t, body))

	id := registerAndLogin(t, ts.URL, "meena")
	assert.NotEmpty(t, id.Token)
	assert.Equal(t, "meena", id.Username)
	claims, err := token.Verify(id.Token, testKey)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, claims.UserID)

	resp, body = do(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{"username": "meena", "password": "bad"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid credentials.", errorText(t, body))
}

func TestProtected_AuthGate(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{})
	id := registerAndLogin(t, ts.URL, "arun")
	other := registerAndLogin(t, ts.URL, "bina")

	resp, _ := do(t, http.MethodGet, userURL(ts.URL, id.UserID), "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "missing token")

	resp, _ = do(t, http.MethodGet, userURL(ts.URL, id.UserID), "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "invalid token")

	expired, _, err := token.Issue(id.UserID, testKey, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	resp, _ = do(t, http.MethodGet, userURL(ts.URL, id.UserID), expired, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "expired token")

	for _, target := range []string{
		userURL(ts.URL, other.UserID),
		userURL(ts.URL, 9999),
		ts.URL + "/api/user/abc",
		userURL(ts.URL, other.UserID) + "/bookings",
	} {
		resp, _ = do(t, http.MethodGet, target, id.Token, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, target)
	}

	resp, _ = do(t, http.MethodPut, userURL(ts.URL, other.UserID), id.Token, map[string]string{"phone": "1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, userURL(ts.URL, other.UserID)+"/bookings", id.Token, map[string]any{"products": []string{"x"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProfile(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{})
	id := registerAndLogin(t, ts.URL, "kavya")

	resp, body := do(t, http.MethodGet, userURL(ts.URL, id.UserID), id.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u model.PublicUser
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, "kavya", u.Username)
	assert.Nil(t, u.Phone)

	resp, body = do(t, http.MethodPut, userURL(ts.URL, id.UserID), id.Token, map[string]string{"phone": "555", "username": "hijack"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &u))
	require.NotNil(t, u.Phone)
	assert.Equal(t, "555", *u.Phone)
	assert.Equal(t, "kavya", u.Username)
}

func TestBookings(t *testing.T) {
	t.Parallel()
	ts, st := newTestServer(t, Options{})
	id := registerAndLogin(t, ts.URL, "lata")
	url := userURL(ts.URL, id.UserID) + "/bookings"

	for _, bad := range []string{`{"products":[]}`, `{"products":"not-an-array"}`, `{}`, `{"products":[1,2]}`} {
		resp, _ := do(t, http.MethodPost, url, id.Token, bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
	assert.Empty(t, st.bookings, "no row on validation failure")

	resp, body := do(t, http.MethodPost, url, id.Token, map[string]any{"products": []string{"Fresh Milk (Qty: 2)"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, body = do(t, http.MethodPost, url, id.Token, map[string]any{"products": []string{"Rice (1kg) (Qty: 1)", "Lentils (1kg) (Qty: 3)"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created model.Booking
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, id.UserID, created.UserID)
	assert.Equal(t, "Rice (1kg) (Qty: 1), Lentils (1kg) (Qty: 3)", created.Products)

	resp, body = do(t, http.MethodGet, url, id.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Booking
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID, "newest first")
}

func TestInternalErrorIsGeneric(t *testing.T) {
	t.Parallel()
	ts, st := newTestServer(t, Options{})
	st.listErr = errors.New("pq: connection refused to 10.0.0.5")

	resp, body := do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(body))
}

func TestHealthUnavailable(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{Health: func(*http.Request) error { return errors.New("db down") }})

	resp, _ := do(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	ts, _ := newTestServer(t, Options{RateLimitRPS: 1, RateLimitBurst: 2})

	codes := make([]int, 0, 3)
	for range 3 {
		resp, _ := do(t, http.MethodGet, ts.URL+"/api/news", "", nil)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	t.Parallel()

	big := `{"name":"` + strings.Repeat("a", MaxBodyBytes+1) + `","message":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(big))
	rec := httptest.NewRecorder()

	var dst contactRequest
	err := decodeJSON(rec, req, &dst)
	require.ErrorIs(t, err, errs.ErrValidation)
}
