package listsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-lists/internal/infra/transport/http"
)

const maxBodySize = 64 << 10

var (
	// ErrInvalidBody is returned when a request body cannot be decoded or fails validation.
	ErrInvalidBody = errors.New("invalid request body")
	// ErrListNotFound is returned by GET /users/{userID}/items for owners without a list.
	ErrListNotFound = errors.New("list not found")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// RegisterRequest is the body of POST /users.
// The name must be present but may be empty.
type RegisterRequest struct {
	Name *string `json:"name" validate:"required"`
}

// ItemRequest is the body of POST /users/{userID}/items and PUT /users/{userID}/items/{itemID}.
// The text must be present but may be empty, which clears an item on update.
type ItemRequest struct {
	Text *string `json:"text" validate:"required"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPTransport exposes a ListService over HTTP/JSON.
type HTTPTransport struct {
	listSvc  *ListService
	metrics  http.Handler
	validate *validator.Validate
	router   chi.Router
	log      logging.Logger
	cfg      HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport for listSvc.
// metrics serves GET /metrics and may be nil.
func NewHTTPTransport(
	listSvc *ListService,
	metrics http.Handler,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		listSvc:  listSvc,
		metrics:  metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logging.GetLogger("svc.listsvc.http_transport"),
		cfg:      cfg,
	}

	ht.router = ht.routes()

	return ht
}

func (ht *HTTPTransport) routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", ht.HandleHealth)

	if ht.metrics != nil {
		r.Method(http.MethodGet, "/metrics", ht.metrics)
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/", ht.HandleRegister)

		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", ht.HandleWhoami)
			r.Delete("/", ht.HandleDeleteAccount)

			r.Get("/items", ht.HandleGetItems)
			r.Post("/items", ht.HandleAddItem)
			r.Put("/items/{itemID}", ht.HandleUpdateItem)
			r.Delete("/items/{itemID}", ht.HandleDeleteItem)
		})
	})

	return r
}

// ServeHTTP implements http.Handler. Routes:
// - POST /users: register a user
// - GET /users/{userID}: whoami
// - DELETE /users/{userID}: delete the account and its list
// - GET /users/{userID}/items: list items
// - POST /users/{userID}/items: add an item
// - PUT /users/{userID}/items/{itemID}: update an item
// - DELETE /users/{userID}/items/{itemID}: delete an item
// - GET /health and GET /metrics.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// HandleHealth reports liveness.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = ht.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRegister processes POST /users.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handle(w, r, "register", func(ctx context.Context) (int, any, error) {
		var req RegisterRequest
		if err := ht.decode(r, &req); err != nil {
			return 0, nil, err
		}

		usr, err := ht.listSvc.Register(ctx, *req.Name)
		if err != nil {
			return 0, nil, fmt.Errorf("register: %w", err)
		}

		return http.StatusCreated, usr, nil
	})
}

// HandleWhoami processes GET /users/{userID}.
func (ht *HTTPTransport) HandleWhoami(w http.ResponseWriter, r *http.Request) {
	_ = ht.handle(w, r, "whoami", func(ctx context.Context) (int, any, error) {
		userID, err := urlID(r, "userID")
		if err != nil {
			return 0, nil, err
		}

		usr, err := ht.listSvc.Whoami(ctx, userID)
		if err != nil {
			return 0, nil, fmt.Errorf("whoami: %w", err)
		}

		return http.StatusOK, usr, nil
	})
}

// HandleDeleteAccount processes DELETE /users/{userID}.
func (ht *HTTPTransport) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	_ = ht.handle(w, r, "delete account", func(ctx context.Context) (int, any, error) {
		userID, err := urlID(r, "userID")
		if err != nil {
			return 0, nil, err
		}

		conf, err := ht.listSvc.DeleteAccount(ctx, userID)
		if err != nil {
			return 0, nil, fmt.Errorf("delete account: %w", err)
		}

		return http.StatusOK, conf, nil
	})
}

// HandleGetItems processes GET /users/{userID}/items.
func (ht *HTTPTransport) HandleGetItems(w http.ResponseWriter, r *http.Request) {
	_ = ht.handle(w, r, "get items", func(ctx context.Context) (int, any, error) {
		userID, err := urlID(r, "userID")
		if err != nil {
			return 0, nil, err
		}

		items, ok, err := ht.listSvc.GetItems(ctx, userID)
		if err != nil {
			return 0, nil, fmt.Errorf("get items: %w", err)
		} else if !ok {
			return 0, nil, fmt.Errorf("%w: %s", ErrListNotFound, userID)
		}

		return http.StatusOK, items, nil
	})
}

// HandleAddItem processes POST /users/{userID}/items.
func (ht *HTTPTransport) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handle(w, r, "add item", func(ctx context.Context) (int, any, error) {
		userID, err := urlID(r, "userID")
		if err != nil {
			return 0, nil, err
		}

		var req ItemRequest
		if err := ht.decode(r, &req); err != nil {
			return 0, nil, err
		}

		item, err := ht.listSvc.AddItem(ctx, userID, *req.Text)
		if err != nil {
			return 0, nil, fmt.Errorf("add item: %w", err)
		}

		return http.StatusCreated, item, nil
	})
}

// HandleUpdateItem processes PUT /users/{userID}/items/{itemID}.
func (ht *HTTPTransport) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handle(w, r, "update item", func(ctx context.Context) (int, any, error) {
		userID, err := urlID(r, "userID")
		if err != nil {
			return 0, nil, err
		}

		itemID, err := urlID(r, "itemID")
		if err != nil {
			return 0, nil, err
		}

		var req ItemRequest
		if err := ht.decode(r, &req); err != nil {
			return 0, nil, err
		}

		item, err := ht.listSvc.UpdateItem(ctx, userID, itemID, *req.Text)
		if err != nil {
			return 0, nil, fmt.Errorf("update item: %w", err)
		}

		return http.StatusOK, item, nil
	})
}

// HandleDeleteItem processes DELETE /users/{userID}/items/{itemID}.
func (ht *HTTPTransport) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	_ = ht.handle(w, r, "delete item", func(ctx context.Context) (int, any, error) {
		userID, err := urlID(r, "userID")
		if err != nil {
			return 0, nil, err
		}

		itemID, err := urlID(r, "itemID")
		if err != nil {
			return 0, nil, err
		}

		items, err := ht.listSvc.DeleteItem(ctx, userID, itemID)
		if err != nil {
			return 0, nil, fmt.Errorf("delete item: %w", err)
		}

		return http.StatusOK, items, nil
	})
}

// handle runs fn and writes either its result or an error response.
func (ht *HTTPTransport) handle(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context) (int, any, error),
) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, op+" failed", "error", err)
		} else {
			log.DebugContext(ctx, op+" done")
		}
	}(r.Context())

	status, body, err := fn(r.Context())
	if err != nil {
		code := statusFor(err)

		if wErr := ht.writeJSON(w, code, ErrorResponse{Error: publicMessage(err, code)}); wErr != nil {
			return errors.Join(err, wErr)
		}

		return err
	}

	return ht.writeJSON(w, status, body)
}

func (ht *HTTPTransport) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after json value", ErrInvalidBody)
	}

	if err := ht.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	return nil
}

func (ht *HTTPTransport) writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

func urlID(r *http.Request, param string) (domain.ID, error) {
	id, err := domain.ParseID(chi.URLParam(r, param))
	if err != nil {
		return domain.ID{}, fmt.Errorf("parse %s: %w", param, err)
	}

	return id, nil
}

//nolint:gochecknoglobals
var publicErrors = []error{
	domain.ErrInvalidID,
	ErrInvalidBody,
	domain.ErrUserNotFound,
	domain.ErrListItemNotFound,
	ErrListNotFound,
}

// publicMessage returns the text of the first known sentinel in err. Internal
// errors are reduced to the status text.
func publicMessage(err error, code int) string {
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}

	return http.StatusText(code)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrListItemNotFound),
		errors.Is(err, ErrListNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
