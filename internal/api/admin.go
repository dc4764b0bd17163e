package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/internal/whatsapp"
)

// ClientStore is the client persistence surface the admin API needs.
type ClientStore interface {
	Create(client *models.Client) error
}

// ContractStore creates recurring billing contracts.
type ContractStore interface {
	Create(contract *models.Contract) error
}

// InvoiceStore covers manual invoice management.
type InvoiceStore interface {
	Create(tx *sql.Tx, invoice *models.Invoice) error
	GetByID(id int64) (*models.Invoice, error)
	Update(tx *sql.Tx, invoice *models.Invoice) error
}

// LogStore reads the outbound-message audit trail.
type LogStore interface {
	ListByInvoice(invoiceID int64) ([]*models.NotificationLog, error)
}

// ConfigStore reads and writes the collection identity configuration.
type ConfigStore interface {
	Get() (*models.CollectionConfig, error)
	Upsert(cfg *models.CollectionConfig) error
}

// Dispatcher sends a single invoice's charge on operator request.
type Dispatcher interface {
	DispatchManual(ctx context.Context, invoiceID int64) error
}

// Generator creates the month's contract invoices.
type Generator interface {
	GenerateMonth(year int, month time.Month) (int, error)
}

// Sweeper runs one billing pass immediately.
type Sweeper interface {
	RunOnce(ctx context.Context)
}

// Reporter builds the overdue invoices spreadsheet.
type Reporter interface {
	Generate(asOf time.Time) ([]byte, error)
}

// Gateway is the slice of the messaging client exposed to operators.
type Gateway interface {
	ConnectionStatus(ctx context.Context) (string, error)
	GenerateQRCode(ctx context.Context) (string, error)
	CreateInstance(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ListGroups(ctx context.Context) ([]whatsapp.Group, error)
}

// Admin exposes the operator API: record keeping (clients, contracts,
// invoices, collection config), billing triggers, reports and gateway
// session management.
type Admin struct {
	clients    ClientStore
	contracts  ContractStore
	invoices   InvoiceStore
	logs       LogStore
	configs    ConfigStore
	dispatcher Dispatcher
	generator  Generator
	sweeper    Sweeper
	reporter   Reporter
	gateway    Gateway
	logger     *zap.Logger
}

// NewAdmin creates the admin API handler.
func NewAdmin(
	clients ClientStore,
	contracts ContractStore,
	invoices InvoiceStore,
	logs LogStore,
	configs ConfigStore,
	dispatcher Dispatcher,
	generator Generator,
	sweeper Sweeper,
	reporter Reporter,
	gateway Gateway,
	logger *zap.Logger,
) *Admin {
	return &Admin{
		clients:    clients,
		contracts:  contracts,
		invoices:   invoices,
		logs:       logs,
		configs:    configs,
		dispatcher: dispatcher,
		generator:  generator,
		sweeper:    sweeper,
		reporter:   reporter,
		gateway:    gateway,
		logger:     logger,
	}
}

// Register mounts all admin routes on the given group.
func (a *Admin) Register(g *gin.RouterGroup) {
	g.POST("/clients", a.createClient)
	g.POST("/contracts", a.createContract)
	g.POST("/invoices", a.createInvoice)
	g.POST("/invoices/:id/send", a.sendInvoice)
	g.POST("/invoices/:id/cancel", a.cancelInvoice)
	g.GET("/invoices/:id/notifications", a.invoiceNotifications)
	g.GET("/collection-config", a.getConfig)
	g.PUT("/collection-config", a.putConfig)
	g.POST("/billing/generate", a.generateMonth)
	g.POST("/billing/sweep", a.runSweep)
	g.GET("/reports/overdue", a.overdueReport)
	g.GET("/gateway/status", a.gatewayStatus)
	g.GET("/gateway/qrcode", a.gatewayQRCode)
	g.GET("/gateway/groups", a.gatewayGroups)
	g.POST("/gateway/instance", a.gatewayCreateInstance)
	g.POST("/gateway/disconnect", a.gatewayDisconnect)
}

type createClientRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	MessagingID string `json:"messaging_id"`
	Active      *bool  `json:"active"`
}

func (a *Admin) createClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := &models.Client{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		MessagingID: req.MessagingID,
		Active:      req.Active == nil || *req.Active,
	}
	if err := a.clients.Create(client); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, client)
}

type createContractRequest struct {
	ClientID      int64  `json:"client_id" binding:"required"`
	MonthlyAmount string `json:"monthly_amount" binding:"required"`
	DueDay        int    `json:"due_day" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date"`
}

func (a *Admin) createContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DueDay < 1 || req.DueDay > 28 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_day must be between 1 and 28"})
		return
	}

	amount, err := decimal.NewFromString(req.MonthlyAmount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "monthly_amount must be a positive decimal"})
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}

	contract := &models.Contract{
		ClientID:      req.ClientID,
		MonthlyAmount: amount,
		DueDay:        req.DueDay,
		StartDate:     start,
		Active:        true,
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		contract.EndDate = &end
	}

	if err := a.contracts.Create(contract); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, contract)
}

type createInvoiceRequest struct {
	ClientID int64  `json:"client_id" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
	DueDate  string `json:"due_date" binding:"required"`
}

func (a *Admin) createInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive decimal"})
		return
	}
	due, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	invoice := &models.Invoice{
		ClientID: req.ClientID,
		Amount:   amount,
		DueDate:  due,
		Status:   models.InvoiceStatusPending,
	}
	if err := a.invoices.Create(nil, invoice); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (a *Admin) sendInvoice(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := a.dispatcher.DispatchManual(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (a *Admin) cancelInvoice(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	invoice, err := a.invoices.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err := invoice.Cancel(time.Now()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err := a.invoices.Update(nil, invoice); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (a *Admin) invoiceNotifications(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	logs, err := a.logs.ListByInvoice(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": logs})
}

func (a *Admin) getConfig(c *gin.Context) {
	cfg, err := a.configs.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection config not set"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type putConfigRequest struct {
	PixKey           string `json:"pix_key" binding:"required"`
	HolderName       string `json:"holder_name" binding:"required"`
	ReminderLeadDays int    `json:"reminder_lead_days"`
	OverdueGraceDays int    `json:"overdue_grace_days"`
	AuditGroupID     string `json:"audit_group_id"`
}

func (a *Admin) putConfig(c *gin.Context) {
	var req putConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ReminderLeadDays < 0 || req.OverdueGraceDays < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cadence offsets must not be negative"})
		return
	}

	cfg := &models.CollectionConfig{
		PixKey:           req.PixKey,
		HolderName:       req.HolderName,
		ReminderLeadDays: req.ReminderLeadDays,
		OverdueGraceDays: req.OverdueGraceDays,
		AuditGroupID:     req.AuditGroupID,
	}
	if err := a.configs.Upsert(cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	a.logger.Info("Collection config updated", zap.String("holder_name", cfg.HolderName))
	c.JSON(http.StatusOK, cfg)
}

func (a *Admin) generateMonth(c *gin.Context) {
	now := time.Now()
	created, err := a.generator.GenerateMonth(now.Year(), now.Month())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (a *Admin) runSweep(c *gin.Context) {
	a.sweeper.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (a *Admin) overdueReport(c *gin.Context) {
	data, err := a.reporter.Generate(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="faturas_em_atraso.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (a *Admin) gatewayStatus(c *gin.Context) {
	state, err := a.gateway.ConnectionStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (a *Admin) gatewayQRCode(c *gin.Context) {
	qr, err := a.gateway.GenerateQRCode(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"qrcode": qr})
}

// Groups are listed so the operator can pick the audit group JID for the
// collection config.
func (a *Admin) gatewayGroups(c *gin.Context) {
	groups, err := a.gateway.ListGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (a *Admin) gatewayCreateInstance(c *gin.Context) {
	if err := a.gateway.CreateInstance(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "created"})
}

func (a *Admin) gatewayDisconnect(c *gin.Context) {
	if err := a.gateway.Disconnect(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return 0, false
	}
	return id, true
}
