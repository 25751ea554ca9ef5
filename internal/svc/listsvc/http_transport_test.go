package listsvc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-lists/internal/infra/transport/http"
	"github.com/mkrupp/homecase-lists/internal/repo"
	"github.com/mkrupp/homecase-lists/internal/svc/listsvc"
)

func str(s string) *string { return &s }

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T, cfg listsvc.ListConfig) (*client, *listsvc.ListService) {
	t.Helper()

	svc := newService(t, cfg)
	metrics := http_.NewMetrics("listsvc_test")
	transport := listsvc.NewHTTPTransport(svc, metrics.Handler(), listsvc.HTTPTransportConfig{})

	return &client{t: t, handler: http_.Handler(transport, logging.NewNopLogger(), metrics)}, svc
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader *bytes.Reader

	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		encoded, err := json.Marshal(b)
		require.NoError(c.t, err)

		reader = bytes.NewReader(encoded)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, httptest.NewRequest(method, path, reader))

	if out != nil {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}

	return rec.Code
}

func TestHTTPTransport_Lifecycle(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, listsvc.ListConfig{})

	var alice domain.User
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/users", listsvc.RegisterRequest{Name: str("Alice")}, &alice))
	assert.Equal(t, "Alice", alice.Name)

	userPath := "/users/" + alice.ID.String()

	var me domain.User
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, userPath, nil, &me))
	assert.Equal(t, alice, me)

	var items []domain.ListItem
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, userPath+"/items", nil, &items))
	assert.Empty(t, items)

	var milk, eggs domain.ListItem
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, userPath+"/items", listsvc.ItemRequest{Text: str("milk")}, &milk))
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, userPath+"/items", listsvc.ItemRequest{Text: str("eggs")}, &eggs))
	assert.Equal(t, alice.ID, milk.OwnerID)

	var remaining []domain.ListItem
	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, userPath+"/items/"+milk.ID.String(), nil, &remaining))
	assert.Equal(t, []domain.ListItem{eggs}, remaining)

	var updated domain.ListItem
	require.Equal(t, http.StatusOK,
		c.do(http.MethodPut, userPath+"/items/"+eggs.ID.String(), listsvc.ItemRequest{Text: str("eggs x2")}, &updated))
	assert.Equal(t, "eggs x2", updated.Text)

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, userPath+"/items", nil, &items))
	require.Len(t, items, 1)
	assert.Equal(t, updated, items[0])

	var conf domain.Confirmation
	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, userPath, nil, &conf))
	assert.Equal(t, alice.ID, conf.UserID)
	assert.Equal(t, listsvc.AccountDeletedMessage, conf.Message)

	var errResp listsvc.ErrorResponse
	require.Equal(t, http.StatusNotFound, c.do(http.MethodGet, userPath, nil, &errResp))
	assert.Equal(t, domain.ErrUserNotFound.Error(), errResp.Error)

	require.Equal(t, http.StatusNotFound, c.do(http.MethodGet, userPath+"/items", nil, &errResp))
	assert.Equal(t, listsvc.ErrListNotFound.Error(), errResp.Error)
}

func TestHTTPTransport_Errors(t *testing.T) {
	t.Parallel()

	c, svc := newClient(t, listsvc.ListConfig{StrictDelete: true})

	usr, err := svc.Register(context.Background(), randomdata.FullName(randomdata.RandomGender))
	require.NoError(t, err)

	item, err := svc.AddItem(context.Background(), usr.ID, randomdata.Noun())
	require.NoError(t, err)

	orphan := domain.User{ID: domain.NewID(), Name: randomdata.SillyName()}
	require.NoError(t, svc.Store.Update(context.Background(), func(tx repo.Tx) error {
		return tx.Users().Insert(context.Background(), orphan)
	}))

	userPath := "/users/" + usr.ID.String()
	unknown := domain.NewID().String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed user id",
			method:     http.MethodGet,
			path:       "/users/not-an-id",
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInvalidID.Error(),
		},
		{
			name:       "malformed item id",
			method:     http.MethodDelete,
			path:       userPath + "/items/" + strings.Repeat("0", 10),
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInvalidID.Error(),
		},
		{
			name:       "missing name",
			method:     http.MethodPost,
			path:       "/users",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  listsvc.ErrInvalidBody.Error(),
		},
		{
			name:       "missing text",
			method:     http.MethodPut,
			path:       userPath + "/items/" + item.ID.String(),
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  listsvc.ErrInvalidBody.Error(),
		},
		{
			name:       "trailing json value",
			method:     http.MethodPost,
			path:       userPath + "/items",
			body:       `{"text":"a"}{"x":1}`,
			wantStatus: http.StatusBadRequest,
			wantError:  listsvc.ErrInvalidBody.Error(),
		},
		{
			name:       "trailing garbage",
			method:     http.MethodPost,
			path:       userPath + "/items",
			body:       `{"text":"a"} ]`,
			wantStatus: http.StatusBadRequest,
			wantError:  listsvc.ErrInvalidBody.Error(),
		},
		{
			name:       "broken json",
			method:     http.MethodPost,
			path:       userPath + "/items",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
			wantError:  listsvc.ErrInvalidBody.Error(),
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       userPath + "/items",
			body:       `{"text":"milk","qty":2}`,
			wantStatus: http.StatusBadRequest,
			wantError:  listsvc.ErrInvalidBody.Error(),
		},
		{
			name:       "add to unknown user",
			method:     http.MethodPost,
			path:       "/users/" + unknown + "/items",
			body:       listsvc.ItemRequest{Text: str("milk")},
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrUserNotFound.Error(),
		},
		{
			name:       "update unknown item",
			method:     http.MethodPut,
			path:       userPath + "/items/" + unknown,
			body:       listsvc.ItemRequest{Text: str("milk")},
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrListItemNotFound.Error(),
		},
		{
			name:       "strict delete of unknown item",
			method:     http.MethodDelete,
			path:       userPath + "/items/" + unknown,
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrListItemNotFound.Error(),
		},
		{
			name:       "delete unknown account",
			method:     http.MethodDelete,
			path:       "/users/" + unknown,
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrUserNotFound.Error(),
		},
		{
			name:       "inconsistent state is internal",
			method:     http.MethodPost,
			path:       "/users/" + orphan.ID.String() + "/items",
			body:       listsvc.ItemRequest{Text: str("milk")},
			wantStatus: http.StatusInternalServerError,
			wantError:  http.StatusText(http.StatusInternalServerError),
		},
	}

	t.Run("requests", func(t *testing.T) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				c := &client{t: t, handler: c.handler}

				var errResp listsvc.ErrorResponse
				assert.Equal(t, tt.wantStatus, c.do(tt.method, tt.path, tt.body, &errResp))
				assert.Equal(t, tt.wantError, errResp.Error)
			})
		}
	})

	var items []domain.ListItem
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, userPath+"/items", nil, &items))
	assert.Equal(t, []domain.ListItem{*item}, items)
}

func TestHTTPTransport_EmptyStrings(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, listsvc.ListConfig{})

	var usr domain.User
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/users", `{"name":""}`, &usr))
	assert.Empty(t, usr.Name)

	itemsPath := "/users/" + usr.ID.String() + "/items"

	var item domain.ListItem
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, itemsPath, `{"text":""}`, &item))
	assert.Empty(t, item.Text)

	var milk domain.ListItem
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, itemsPath, listsvc.ItemRequest{Text: str("milk")}, &milk))

	var cleared domain.ListItem
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, itemsPath+"/"+milk.ID.String(), `{"text":""}`, &cleared))
	assert.Equal(t, milk.ID, cleared.ID)
	assert.Empty(t, cleared.Text)

	var items []domain.ListItem
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, itemsPath, nil, &items))
	require.Len(t, items, 2)
	assert.Equal(t, cleared, items[1])
}

func TestHTTPTransport_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	c, _ := newClient(t, listsvc.ListConfig{})

	var health map[string]string
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "ok", health["status"])

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `listsvc_test_http_requests_total{code="200",method="GET",route="/health"} 1`)
}
