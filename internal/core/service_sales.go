package core

import (
	"context"
	"errors"
	"fmt"

	"upvcerp/internal/costing"
	"upvcerp/pkg/domain"
)

// ErrQuotationNotDraft is returned when a quotation must be a draft to be edited.
var ErrQuotationNotDraft = errors.New("quotation is not a draft")

// CreateEnquiry records a new enquiry in status New.
func (s *Service) CreateEnquiry(ctx context.Context, cmd CreateEnquiry) (domain.Enquiry, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Enquiry, error) {
		created, err := tx.CreateEnquiry(domain.Enquiry{
			CustomerName: cmd.CustomerName,
			Contact:      cmd.Contact,
			Date:         orDefault(cmd.Date, today(tx)),
			Details:      cmd.Details,
			Status:       domain.EnquiryNew,
		})
		if err != nil {
			return created, err
		}
		return created, logActivity(ctx, tx, ActionEnquiryCreated, "New enquiry #%s for %s", created.ID, created.CustomerName)
	})
}

// UpdateEnquiry merges editable fields into an enquiry.
func (s *Service) UpdateEnquiry(ctx context.Context, cmd UpdateEnquiry) (domain.Enquiry, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Enquiry, error) {
		return tx.UpdateEnquiry(cmd.ID, func(e *domain.Enquiry) error {
			setIf(&e.CustomerName, cmd.CustomerName)
			setIf(&e.Contact, cmd.Contact)
			setIf(&e.Date, cmd.Date)
			setIf(&e.Details, cmd.Details)
			return nil
		})
	})
}

// CreateQuotation prices every line, stores the quotation as a draft and moves
// its enquiry to Quoted. A closed enquiry cannot be quoted again.
func (s *Service) CreateQuotation(ctx context.Context, cmd CreateQuotation) (domain.Quotation, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Quotation, error) {
		enquiry, ok := tx.FindEnquiry(cmd.EnquiryID)
		if !ok {
			return domain.Quotation{}, &domain.NotFoundError{Entity: domain.EntityEnquiry, ID: cmd.EnquiryID}
		}
		items := make([]domain.QuotationItem, len(cmd.Items))
		for i, line := range cmd.Items {
			items[i] = line.item()
		}
		costed, totals, err := costing.CostItems(tx, items)
		if err != nil {
			return domain.Quotation{}, err
		}
		q := domain.Quotation{
			EnquiryID:  cmd.EnquiryID,
			CustomerID: cmd.CustomerID,
			Date:       orDefault(cmd.Date, today(tx)),
			Items:      costed,
			Status:     domain.QuotationDraft,
		}
		totals.Apply(&q)
		created, err := tx.CreateQuotation(q)
		if err != nil {
			return created, err
		}
		if enquiry.Status != domain.EnquiryQuoted {
			if _, err := tx.UpdateEnquiry(enquiry.ID, func(e *domain.Enquiry) error {
				return e.Transition(domain.EnquiryQuoted)
			}); err != nil {
				return created, err
			}
		}
		return created, logActivity(ctx, tx, ActionQuotationCreated, "New quotation #%s created.", created.ID)
	})
}

// AddQuotationItem prices a new line, appends it to a draft quotation and
// recomputes the totals.
func (s *Service) AddQuotationItem(ctx context.Context, cmd AddQuotationItem) (domain.Quotation, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Quotation, error) {
		item := cmd.Item.item()
		b, err := costing.Cost(tx, costing.LineFromItem(item))
		if err != nil {
			return domain.Quotation{}, err
		}
		item.Cost = b.Total
		item.ID = tx.NewID(domain.PrefixQuotationItem)
		updated, err := tx.UpdateQuotation(cmd.QuotationID, func(q *domain.Quotation) error {
			if q.Status != domain.QuotationDraft {
				return fmt.Errorf("add item to quotation %s in status %s: %w", q.ID, q.Status, ErrQuotationNotDraft)
			}
			q.Items = append(q.Items, item)
			costing.Summarize(q.Items).Apply(q)
			return nil
		})
		if err != nil {
			return updated, err
		}
		return updated, logActivity(ctx, tx, ActionQuotationUpdated, "Item added to quotation #%s.", updated.ID)
	})
}

// SendQuotation moves a quotation to Sent.
func (s *Service) SendQuotation(ctx context.Context, cmd SendQuotation) (domain.Quotation, Result, error) {
	return s.transitionQuotation(ctx, cmd, cmd.ID, domain.QuotationSent)
}

// RejectQuotation moves a quotation to Rejected.
func (s *Service) RejectQuotation(ctx context.Context, cmd RejectQuotation) (domain.Quotation, Result, error) {
	return s.transitionQuotation(ctx, cmd, cmd.ID, domain.QuotationRejected)
}

// ReviseQuotation returns a quotation to Draft.
func (s *Service) ReviseQuotation(ctx context.Context, cmd ReviseQuotation) (domain.Quotation, Result, error) {
	return s.transitionQuotation(ctx, cmd, cmd.ID, domain.QuotationDraft)
}

func (s *Service) transitionQuotation(ctx context.Context, cmd Command, id string, to domain.QuotationStatus) (domain.Quotation, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.Quotation, error) {
		updated, err := tx.UpdateQuotation(id, func(q *domain.Quotation) error {
			return q.Transition(to)
		})
		if err != nil {
			return updated, err
		}
		return updated, logQuotationStatus(ctx, tx, updated)
	})
}

func logQuotationStatus(ctx context.Context, tx Transaction, q domain.Quotation) error {
	return logActivity(ctx, tx, ActionQuotationStatusUpdated, "Quotation #%s status changed to %s", q.ID, q.Status)
}

// ApproveQuotation approves a quotation, raises its sales order and closes the
// enquiry. Approving twice fails with *domain.InvalidTransitionError.
func (s *Service) ApproveQuotation(ctx context.Context, cmd ApproveQuotation) (domain.SalesOrder, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.SalesOrder, error) {
		q, err := tx.UpdateQuotation(cmd.ID, func(q *domain.Quotation) error {
			return q.Transition(domain.QuotationApproved)
		})
		if err != nil {
			return domain.SalesOrder{}, err
		}
		if err := logQuotationStatus(ctx, tx, q); err != nil {
			return domain.SalesOrder{}, err
		}

		now := tx.Now()
		expected := cmd.ExpectedDeliveryDate
		if expected == "" {
			expected = now.AddDate(0, 0, s.leadDays).Format(domain.DateLayout)
		}
		order, err := tx.CreateSalesOrder(domain.SalesOrder{
			QuotationID:          q.ID,
			CustomerID:           q.CustomerID,
			OrderDate:            now.Format(domain.DateLayout),
			ExpectedDeliveryDate: expected,
			TotalAmount:          q.GrandTotal,
			Status:               domain.OrderPending,
			Items:                q.Items,
		})
		if err != nil {
			return order, err
		}
		if err := logActivity(ctx, tx, ActionSalesOrderCreated, "New sales order #%s from quotation #%s", order.ID, q.ID); err != nil {
			return order, err
		}

		if enquiry, ok := tx.FindEnquiry(q.EnquiryID); ok && enquiry.Status != domain.EnquiryClosed {
			if _, err := tx.UpdateEnquiry(enquiry.ID, func(e *domain.Enquiry) error {
				return e.Transition(domain.EnquiryClosed)
			}); err != nil {
				return order, err
			}
		}
		return order, nil
	})
}

// AdvanceSalesOrder moves an order forward. Stages may be skipped, never revisited.
func (s *Service) AdvanceSalesOrder(ctx context.Context, cmd AdvanceSalesOrder) (domain.SalesOrder, Result, error) {
	return mutate(ctx, s, cmd, func(tx Transaction) (domain.SalesOrder, error) {
		updated, err := tx.UpdateSalesOrder(cmd.ID, func(o *domain.SalesOrder) error {
			return o.Transition(cmd.Status)
		})
		if err != nil {
			return updated, err
		}
		return updated, logActivity(ctx, tx, ActionOrderStatusUpdated, "Order #%s status changed to %s", updated.ID, updated.Status)
	})
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
