package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/shipmate/marketplace/internal/core/domain"
	"github.com/shipmate/marketplace/internal/core/ports"
)

type stubShipmentService struct {
	createFn func(ctx context.Context, in ports.CreateShipmentInput) (*domain.Shipment, error)
	getFn    func(ctx context.Context, shipmentID, requesterID uuid.UUID, role string) (*domain.Shipment, error)
	listFn   func(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error)
}

func (s *stubShipmentService) CreateShipment(ctx context.Context, in ports.CreateShipmentInput) (*domain.Shipment, error) {
	return s.createFn(ctx, in)
}

func (s *stubShipmentService) GetShipment(ctx context.Context, shipmentID, requesterID uuid.UUID, role string) (*domain.Shipment, error) {
	return s.getFn(ctx, shipmentID, requesterID, role)
}

func (s *stubShipmentService) ListMyShipments(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error) {
	return s.listFn(ctx, senderID, page, limit)
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, role string, userID uuid.UUID) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("role", role)
	c.Set("user_id", userID.String())
	return c
}

func TestShipmentHandler_Create_Success(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	senderID := uuid.New()
	basePrice := decimal.NewFromFloat(14.50)
	stub := &stubShipmentService{
		createFn: func(ctx context.Context, in ports.CreateShipmentInput) (*domain.Shipment, error) {
			if in.SenderID != senderID {
				t.Fatalf("unexpected sender id: %s", in.SenderID)
			}
			if !in.WeightKg.Equal(decimal.NewFromFloat(8)) {
				t.Fatalf("unexpected weight: %s", in.WeightKg)
			}
			return &domain.Shipment{
				ID:                uuid.New(),
				SenderID:          in.SenderID,
				PickupAddress:     in.PickupAddress,
				PickupLocation:    domain.Coordinates{Lat: in.PickupLat, Lng: in.PickupLng},
				DeliveryAddress:   in.DeliveryAddress,
				DeliveryLocation:  domain.Coordinates{Lat: in.DeliveryLat, Lng: in.DeliveryLng},
				WeightKg:          in.WeightKg,
				DeclaredValue:     in.DeclaredValue,
				InsuranceSelected: in.InsuranceSelected,
				Status:            domain.ShipmentCreated,
				BasePrice:         &basePrice,
				InsuranceFee:      decimal.NewFromFloat(10.00),
				CreatedAt:         time.Now(),
			}, nil
		},
	}
	handler := NewShipmentHandler(stub)

	body := strings.NewReader(`{
		"pickup_address": "Alexanderplatz 1, Berlin",
		"pickup_location": {"lat": 52.5219, "lng": 13.4132},
		"delivery_address": "Potsdamer Platz 5, Berlin",
		"delivery_location": {"lat": 52.5096, "lng": 13.3759},
		"weight_kg": 8,
		"declared_value": 500,
		"insurance_selected": true
	}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/shipments", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, domain.RoleSender, senderID)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["status"] != "created" {
		t.Fatalf("unexpected status: %v", resp["status"])
	}
	if resp["base_price"] != "14.50" {
		t.Fatalf("expected base_price as decimal string, got %v", resp["base_price"])
	}
	if resp["insurance_fee"] != "10.00" {
		t.Fatalf("unexpected insurance fee: %v", resp["insurance_fee"])
	}
}

func TestShipmentHandler_Create_InvalidCoordinates(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubShipmentService{
		createFn: func(ctx context.Context, in ports.CreateShipmentInput) (*domain.Shipment, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewShipmentHandler(stub)

	body := strings.NewReader(`{
		"pickup_address": "nowhere",
		"pickup_location": {"lat": 95.0, "lng": 13.4},
		"delivery_address": "somewhere",
		"delivery_location": {"lat": 52.5, "lng": 13.3},
		"weight_kg": 1
	}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/shipments", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, domain.RoleSender, uuid.New())

	err := handler.Create(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestShipmentHandler_Create_MissingIdentity(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	handler := NewShipmentHandler(&stubShipmentService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/shipments", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Create(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestShipmentHandler_Get_ForwardsDomainError(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubShipmentService{
		getFn: func(ctx context.Context, shipmentID, requesterID uuid.UUID, role string) (*domain.Shipment, error) {
			return nil, domain.ErrForbidden
		},
	}
	handler := NewShipmentHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/shipments/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, domain.RoleSender, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	if err := handler.Get(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected domain.ErrForbidden passed through, got %v", err)
	}
}

func TestShipmentHandler_Get_BadID(t *testing.T) {
	e := echo.New()
	handler := NewShipmentHandler(&stubShipmentService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/shipments/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, domain.RoleSender, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := handler.Get(c)
	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestShipmentHandler_ListMine_PaginationDefaults(t *testing.T) {
	e := echo.New()

	stub := &stubShipmentService{
		listFn: func(ctx context.Context, senderID uuid.UUID, page, limit int) ([]*domain.Shipment, error) {
			if page != 1 || limit != 20 {
				t.Fatalf("expected default pagination 1/20, got %d/%d", page, limit)
			}
			return nil, nil
		},
	}
	handler := NewShipmentHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/shipments?page=0&limit=9999", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, domain.RoleSender, uuid.New())

	if err := handler.ListMine(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["page"].(float64) != 1 || resp["limit"].(float64) != 20 {
		t.Fatalf("unexpected pagination echo: %+v", resp)
	}
}
