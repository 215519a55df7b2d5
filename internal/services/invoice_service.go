package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/billing"
	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceItemsRequired = errors.New("an invoice needs at least one item")
	ErrInvalidInvoiceItem   = errors.New("invoice items need a description, a positive quantity and a non-negative unit price")
	ErrInvalidInvoiceStatus = errors.New("invalid invoice status")
	ErrInvalidDiscount      = errors.New("discount cannot be negative")
	ErrInvalidTaxRate       = errors.New("tax rate must be between 0 and 100")
	ErrInvalidDueDate       = errors.New("due date cannot be before the issue date")
	ErrInvoiceNumberTaken   = errors.New("invoice number already exists")
)

const invoiceNumberPrefix = "INV"

// InvoiceService manages invoices and keeps their totals consistent.
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	orgRepo     repository.OrganizationRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, clientRepo repository.ClientRepository, orgRepo repository.OrganizationRepository, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		orgRepo:     orgRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// InvoiceItemInput is one line of an invoice.
type InvoiceItemInput struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

// CreateInvoiceInput holds the data for a new invoice.
type CreateInvoiceInput struct {
	OrganizationID uint64
	CreatorID      uint64
	ClientID       uint64
	Number         string
	Status         models.InvoiceStatus
	IssueDate      *time.Time
	DueDate        *time.Time
	Currency       string
	Discount       float64
	TaxRate        float64
	Notes          string
	Items          []InvoiceItemInput
}

// CreateInvoice creates an invoice with its items. Totals are always
// computed here, never taken from the caller.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	items, err := buildInvoiceItems(input.Items)
	if err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.InvoiceStatusDraft
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidInvoiceStatus
	}
	if err := validateAdjustments(input.Discount, input.TaxRate); err != nil {
		return nil, err
	}

	issueDate := s.now()
	if input.IssueDate != nil {
		issueDate = *input.IssueDate
	}
	if input.DueDate != nil && input.DueDate.Before(issueDate) {
		return nil, ErrInvalidDueDate
	}

	if err := s.ensureClient(ctx, input.OrganizationID, input.ClientID); err != nil {
		return nil, err
	}

	currency, err := s.resolveCurrency(ctx, input.OrganizationID, input.Currency)
	if err != nil {
		return nil, err
	}

	number := strings.TrimSpace(input.Number)
	if number == "" {
		number, err = s.nextNumber(ctx, input.OrganizationID, issueDate)
		if err != nil {
			return nil, err
		}
	}

	invoice := &models.Invoice{
		Number:         number,
		OrganizationID: input.OrganizationID,
		ClientID:       input.ClientID,
		Status:         input.Status,
		IssueDate:      issueDate,
		DueDate:        input.DueDate,
		Currency:       currency,
		Discount:       input.Discount,
		TaxRate:        input.TaxRate,
		Notes:          input.Notes,
		CreatorID:      input.CreatorID,
		Items:          items,
	}
	billing.Apply(invoice)

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrInvoiceNumberTaken
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("invoice created",
		zap.Uint64("invoice_id", invoice.ID),
		zap.Uint64("organization_id", invoice.OrganizationID),
		zap.String("number", invoice.Number),
	)
	return s.GetInvoice(ctx, input.OrganizationID, invoice.ID)
}

// GetInvoice returns an invoice with its items and client.
func (s *InvoiceService) GetInvoice(ctx context.Context, orgID, invoiceID uint64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, orgID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	return invoice, nil
}

// ListInvoicesInput represents filters for listing invoices.
type ListInvoicesInput struct {
	OrganizationID uint64
	Status         *models.InvoiceStatus
	ClientID       *uint64
	Page           int
	PageSize       int
}

// ListInvoices lists the invoices of an organization.
func (s *InvoiceService) ListInvoices(ctx context.Context, input ListInvoicesInput) ([]models.Invoice, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidInvoiceStatus
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{
		OrganizationID: input.OrganizationID,
		Status:         input.Status,
		ClientID:       input.ClientID,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

// UpdateInvoiceInput holds the invoice fields to change. Nil fields are left
// untouched; a non-nil Items replaces every stored item.
type UpdateInvoiceInput struct {
	ClientID     *uint64
	Number       *string
	Status       *models.InvoiceStatus
	IssueDate    *time.Time
	DueDate      *time.Time
	ClearDueDate bool
	Currency     *string
	Discount     *float64
	TaxRate      *float64
	Notes        *string
	Items        []InvoiceItemInput
}

// UpdateInvoice applies a patch and recomputes the totals.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, orgID, invoiceID uint64, input UpdateInvoiceInput) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, orgID, invoiceID)
	if err != nil {
		return nil, err
	}

	if input.ClientID != nil {
		if err := s.ensureClient(ctx, orgID, *input.ClientID); err != nil {
			return nil, err
		}
		invoice.ClientID = *input.ClientID
		invoice.Client = nil
	}
	if input.Number != nil {
		number := strings.TrimSpace(*input.Number)
		if number != "" {
			invoice.Number = number
		}
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidInvoiceStatus
		}
		invoice.Status = *input.Status
	}
	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}
	if input.ClearDueDate {
		invoice.DueDate = nil
	} else if input.DueDate != nil {
		invoice.DueDate = input.DueDate
	}
	if invoice.DueDate != nil && invoice.DueDate.Before(invoice.IssueDate) {
		return nil, ErrInvalidDueDate
	}
	if input.Currency != nil {
		code, err := billing.NormalizeCurrency(*input.Currency)
		if err != nil {
			return nil, ErrInvalidCurrency
		}
		invoice.Currency = code
	}
	if input.Discount != nil {
		invoice.Discount = *input.Discount
	}
	if input.TaxRate != nil {
		invoice.TaxRate = *input.TaxRate
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}
	if err := validateAdjustments(invoice.Discount, invoice.TaxRate); err != nil {
		return nil, err
	}

	replaceItems := input.Items != nil
	if replaceItems {
		items, err := buildInvoiceItems(input.Items)
		if err != nil {
			return nil, err
		}
		invoice.Items = items
	}
	billing.Apply(invoice)

	if err := s.invoiceRepo.Update(ctx, invoice, replaceItems); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrInvoiceNumberTaken
		}
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	return s.GetInvoice(ctx, orgID, invoiceID)
}

// UpdateInvoiceStatus moves an invoice to another status.
func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, orgID, invoiceID uint64, status models.InvoiceStatus) (*models.Invoice, error) {
	return s.UpdateInvoice(ctx, orgID, invoiceID, UpdateInvoiceInput{Status: &status})
}

// DeleteInvoice soft deletes an invoice.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, orgID, invoiceID uint64) error {
	if err := s.invoiceRepo.Delete(ctx, orgID, invoiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// ExportInvoice renders the invoice as an XLSX workbook.
func (s *InvoiceService) ExportInvoice(ctx context.Context, orgID, invoiceID uint64) (*models.Invoice, *bytes.Buffer, error) {
	invoice, err := s.GetInvoice(ctx, orgID, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}

	buf, err := billing.ExportXLSX(org, invoice)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to export invoice: %w", err)
	}
	return invoice, buf, nil
}

func buildInvoiceItems(inputs []InvoiceItemInput) ([]models.InvoiceItem, error) {
	if len(inputs) == 0 {
		return nil, ErrInvoiceItemsRequired
	}

	items := make([]models.InvoiceItem, len(inputs))
	for i, in := range inputs {
		description := strings.TrimSpace(in.Description)
		if description == "" || in.Quantity <= 0 || in.UnitPrice < 0 {
			return nil, ErrInvalidInvoiceItem
		}
		items[i] = models.InvoiceItem{
			Description: description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Position:    i,
		}
	}
	return items, nil
}

func validateAdjustments(discount, taxRate float64) error {
	if discount < 0 {
		return ErrInvalidDiscount
	}
	if taxRate < 0 || taxRate > 100 {
		return ErrInvalidTaxRate
	}
	return nil
}

func (s *InvoiceService) ensureClient(ctx context.Context, orgID, clientID uint64) error {
	if _, err := s.clientRepo.FindByID(ctx, orgID, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to find client: %w", err)
	}
	return nil
}

// resolveCurrency validates code, falling back to the organization currency.
func (s *InvoiceService) resolveCurrency(ctx context.Context, orgID uint64, code string) (string, error) {
	if strings.TrimSpace(code) != "" {
		normalized, err := billing.NormalizeCurrency(code)
		if err != nil {
			return "", ErrInvalidCurrency
		}
		return normalized, nil
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrOrganizationNotFound
		}
		return "", fmt.Errorf("failed to find organization: %w", err)
	}
	return org.Currency, nil
}

// nextNumber returns INV-<year>-<seq> where seq follows the highest numeric
// suffix of the year, deleted invoices included.
func (s *InvoiceService) nextNumber(ctx context.Context, orgID uint64, issueDate time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", invoiceNumberPrefix, issueDate.Year())
	numbers, err := s.invoiceRepo.ListNumbersWithPrefix(ctx, orgID, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to number invoice: %w", err)
	}

	last := 0
	for _, number := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
		if err == nil && seq > last {
			last = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, last+1), nil
}
