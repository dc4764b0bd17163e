package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/internal/whatsapp"
)

type fakeClientStore struct {
	created []*models.Client
}

func (f *fakeClientStore) Create(client *models.Client) error {
	client.ID = int64(len(f.created) + 1)
	f.created = append(f.created, client)
	return nil
}

type fakeContractStore struct {
	created []*models.Contract
}

func (f *fakeContractStore) Create(contract *models.Contract) error {
	contract.ID = int64(len(f.created) + 1)
	f.created = append(f.created, contract)
	return nil
}

type fakeInvoiceStore struct {
	byID    map[int64]*models.Invoice
	created []*models.Invoice
	updated []*models.Invoice
}

func (f *fakeInvoiceStore) Create(_ *sql.Tx, invoice *models.Invoice) error {
	invoice.ID = int64(len(f.created) + 1)
	f.created = append(f.created, invoice)
	return nil
}

func (f *fakeInvoiceStore) GetByID(id int64) (*models.Invoice, error) {
	if inv, ok := f.byID[id]; ok {
		return inv, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeInvoiceStore) Update(_ *sql.Tx, invoice *models.Invoice) error {
	f.updated = append(f.updated, invoice)
	return nil
}

type fakeLogStore struct {
	byInvoice map[int64][]*models.NotificationLog
}

func (f *fakeLogStore) ListByInvoice(invoiceID int64) ([]*models.NotificationLog, error) {
	return f.byInvoice[invoiceID], nil
}

type fakeConfigStore struct {
	cfg *models.CollectionConfig
}

func (f *fakeConfigStore) Get() (*models.CollectionConfig, error) { return f.cfg, nil }

func (f *fakeConfigStore) Upsert(cfg *models.CollectionConfig) error {
	f.cfg = cfg
	return nil
}

type fakeDispatcher struct {
	sent []int64
}

func (f *fakeDispatcher) DispatchManual(_ context.Context, invoiceID int64) error {
	f.sent = append(f.sent, invoiceID)
	return nil
}

type fakeGenerator struct{ created int }

func (f *fakeGenerator) GenerateMonth(int, time.Month) (int, error) { return f.created, nil }

type fakeSweeper struct{ runs int }

func (f *fakeSweeper) RunOnce(context.Context) { f.runs++ }

type fakeReporter struct{}

func (fakeReporter) Generate(time.Time) ([]byte, error) { return []byte("xlsx"), nil }

type fakeGateway struct {
	state string
}

func (g *fakeGateway) ConnectionStatus(context.Context) (string, error) { return g.state, nil }
func (g *fakeGateway) GenerateQRCode(context.Context) (string, error)  { return "qr-base64", nil }
func (g *fakeGateway) CreateInstance(context.Context) error            { return nil }
func (g *fakeGateway) Disconnect(context.Context) error                { return nil }
func (g *fakeGateway) ListGroups(context.Context) ([]whatsapp.Group, error) {
	return []whatsapp.Group{{ID: "1203630xyz@g.us", Subject: "Cobrança interna", Size: 3}}, nil
}

type adminFixture struct {
	invoices   *fakeInvoiceStore
	logs       *fakeLogStore
	configs    *fakeConfigStore
	dispatcher *fakeDispatcher
	sweeper    *fakeSweeper
	router     *gin.Engine
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fx := &adminFixture{
		invoices:   &fakeInvoiceStore{byID: map[int64]*models.Invoice{}},
		logs:       &fakeLogStore{byInvoice: map[int64][]*models.NotificationLog{}},
		configs:    &fakeConfigStore{},
		dispatcher: &fakeDispatcher{},
		sweeper:    &fakeSweeper{},
	}
	admin := NewAdmin(&fakeClientStore{}, &fakeContractStore{}, fx.invoices, fx.logs, fx.configs,
		fx.dispatcher, &fakeGenerator{created: 2}, fx.sweeper, fakeReporter{},
		&fakeGateway{state: "open"}, zap.NewNop())

	fx.router = gin.New()
	admin.Register(fx.router.Group("/api/v1"))
	return fx
}

func (fx *adminFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateInvoiceValidation(t *testing.T) {
	fx := newAdminFixture(t)

	rec := fx.request(t, http.MethodPost, "/api/v1/invoices", gin.H{
		"client_id": 7, "amount": "150.00", "due_date": "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, fx.invoices.created, 1)
	assert.Equal(t, models.InvoiceStatusPending, fx.invoices.created[0].Status)

	rec = fx.request(t, http.MethodPost, "/api/v1/invoices", gin.H{
		"client_id": 7, "amount": "-10.00", "due_date": "2025-03-10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.request(t, http.MethodPost, "/api/v1/invoices", gin.H{
		"client_id": 7, "amount": "150.00", "due_date": "10/03/2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateContractRejectsOutOfRangeDueDay(t *testing.T) {
	fx := newAdminFixture(t)

	rec := fx.request(t, http.MethodPost, "/api/v1/contracts", gin.H{
		"client_id": 7, "monthly_amount": "150.00", "due_day": 31, "start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.request(t, http.MethodPost, "/api/v1/contracts", gin.H{
		"client_id": 7, "monthly_amount": "150.00", "due_day": 28, "start_date": "2025-01-01",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCancelInvoice(t *testing.T) {
	fx := newAdminFixture(t)
	fx.invoices.byID[42] = &models.Invoice{
		ID: 42, Amount: decimal.RequireFromString("150.00"), Status: models.InvoiceStatusPending,
	}

	rec := fx.request(t, http.MethodPost, "/api/v1/invoices/42/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.InvoiceStatusCancelled, fx.invoices.byID[42].Status)
	require.Len(t, fx.invoices.updated, 1)
}

func TestCancelPaidInvoiceConflicts(t *testing.T) {
	fx := newAdminFixture(t)
	fx.invoices.byID[42] = &models.Invoice{
		ID: 42, Amount: decimal.RequireFromString("150.00"), Status: models.InvoiceStatusPaid,
	}

	rec := fx.request(t, http.MethodPost, "/api/v1/invoices/42/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.InvoiceStatusPaid, fx.invoices.byID[42].Status)
	assert.Empty(t, fx.invoices.updated)
}

func TestCollectionConfigRoundTrip(t *testing.T) {
	fx := newAdminFixture(t)

	rec := fx.request(t, http.MethodGet, "/api/v1/collection-config", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = fx.request(t, http.MethodPut, "/api/v1/collection-config", gin.H{
		"pix_key":            "11987654321",
		"holder_name":        "Maria da Silva",
		"reminder_lead_days": 3,
		"overdue_grace_days": 1,
		"audit_group_id":     "1203630xyz@g.us",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fx.request(t, http.MethodGet, "/api/v1/collection-config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.CollectionConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "11987654321", cfg.PixKey)
	assert.Equal(t, 3, cfg.ReminderLeadDays)
}

func TestPutConfigRejectsNegativeOffsets(t *testing.T) {
	fx := newAdminFixture(t)

	rec := fx.request(t, http.MethodPut, "/api/v1/collection-config", gin.H{
		"pix_key":            "11987654321",
		"holder_name":        "Maria da Silva",
		"reminder_lead_days": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualSendAndSweepTriggers(t *testing.T) {
	fx := newAdminFixture(t)

	rec := fx.request(t, http.MethodPost, "/api/v1/invoices/42/send", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{42}, fx.dispatcher.sent)

	rec = fx.request(t, http.MethodPost, "/api/v1/billing/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fx.sweeper.runs)

	rec = fx.request(t, http.MethodPost, "/api/v1/invoices/abc/send", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoiceNotificationHistory(t *testing.T) {
	fx := newAdminFixture(t)
	fx.logs.byInvoice[42] = []*models.NotificationLog{
		{ID: 1, InvoiceID: 42, Kind: models.NotificationKindReminder, Recipient: "5511912345678", Success: true},
	}

	rec := fx.request(t, http.MethodGet, "/api/v1/invoices/42/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "REMINDER")
}

func TestGatewayEndpoints(t *testing.T) {
	fx := newAdminFixture(t)

	rec := fx.request(t, http.MethodGet, "/api/v1/gateway/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "open")

	rec = fx.request(t, http.MethodGet, "/api/v1/gateway/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1203630xyz@g.us")
}
