package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/store/schema"
)

func principalPtr(p *domain.Principal) *string {
	if p == nil {
		return nil
	}
	s := p.String()
	return &s
}

func toPrincipalPtr(s *string) *domain.Principal {
	if s == nil {
		return nil
	}
	p := domain.Principal(*s)
	return &p
}

func int64Ptr(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	i := int64(*v) //nolint:gosec,G115
	return &i
}

func uint64Ptr(v *int64) *uint64 {
	if v == nil {
		return nil
	}
	u := uint64(*v) //nolint:gosec,G115
	return &u
}

func fromAuditRecord(r domain.AuditRecord) schema.AuditRecord {
	return schema.AuditRecord{
		RecordIndex:   int64(r.Index), //nolint:gosec,G115
		Op:            string(r.Op),
		Actor:         r.Actor.String(),
		FromPrincipal: principalPtr(r.From),
		ToPrincipal:   principalPtr(r.To),
		TokenID:       int64(r.TokenID),
		Price:         int64Ptr(r.Price),
		Memo:          int64(r.Memo), //nolint:gosec,G115
		RecordedAt:    r.Timestamp.UTC(),
	}
}

func toAuditRecord(r schema.AuditRecord) domain.AuditRecord {
	return domain.AuditRecord{
		Index:     uint64(r.RecordIndex), //nolint:gosec,G115
		Op:        domain.Operation(r.Op),
		Actor:     domain.Principal(r.Actor),
		From:      toPrincipalPtr(r.FromPrincipal),
		To:        toPrincipalPtr(r.ToPrincipal),
		TokenID:   domain.TokenID(r.TokenID), //nolint:gosec,G115
		Price:     uint64Ptr(r.Price),
		Timestamp: r.RecordedAt.UTC(),
		Memo:      uint64(r.Memo), //nolint:gosec,G115
	}
}

func fromToken(t domain.Token) (schema.Token, error) {
	var properties datatypes.JSON
	if len(t.Properties) > 0 {
		raw, err := json.Marshal(t.Properties)
		if err != nil {
			return schema.Token{}, fmt.Errorf("failed to encode token properties: %w", err)
		}
		properties = raw
	}

	return schema.Token{
		TokenID:     int64(t.ID),
		Name:        t.Name,
		Description: t.Description,
		URI:         t.URI,
		Properties:  properties,
	}, nil
}

func toToken(t schema.Token) (domain.Token, error) {
	token := domain.Token{
		ID:          domain.TokenID(t.TokenID), //nolint:gosec,G115
		Name:        t.Name,
		Description: t.Description,
		URI:         t.URI,
	}
	if len(t.Properties) > 0 {
		if err := json.Unmarshal(t.Properties, &token.Properties); err != nil {
			return domain.Token{}, fmt.Errorf("failed to decode properties of token %d: %w", t.TokenID, err)
		}
	}
	return token, nil
}

func fromPaymentLog(service string, e domain.PaymentLogEntry) schema.PaymentLog {
	row := schema.PaymentLog{
		Service:     service,
		LogIndex:    int64(e.Index), //nolint:gosec,G115
		Purpose:     string(e.Purpose),
		Recipient:   e.Args.To.String(),
		Amount:      int64(e.Args.Amount), //nolint:gosec,G115
		Fee:         int64(e.Args.Fee),    //nolint:gosec,G115
		Memo:        int64(e.Args.Memo),   //nolint:gosec,G115
		AttemptedAt: e.Timestamp.UTC(),
	}
	if e.Outcome != nil {
		row.BlockHeight = int64Ptr(e.Outcome.BlockHeight)
		if e.Outcome.Error != "" {
			msg := e.Outcome.Error
			row.Error = &msg
		}
	}
	return row
}

func toPaymentLog(row schema.PaymentLog) (domain.PaymentLogEntry, error) {
	to, err := domain.ParseAccountID(row.Recipient)
	if err != nil {
		return domain.PaymentLogEntry{}, err
	}

	entry := domain.PaymentLogEntry{
		Index:     uint64(row.LogIndex), //nolint:gosec,G115
		Timestamp: row.AttemptedAt.UTC(),
		Purpose:   domain.PaymentPurpose(row.Purpose),
		Args: domain.SendArgs{
			To:     to,
			Amount: uint64(row.Amount), //nolint:gosec,G115
			Fee:    uint64(row.Fee),    //nolint:gosec,G115
			Memo:   uint64(row.Memo),   //nolint:gosec,G115
		},
	}
	if row.BlockHeight != nil || row.Error != nil {
		entry.Outcome = &domain.PaymentOutcome{BlockHeight: uint64Ptr(row.BlockHeight)}
		if row.Error != nil {
			entry.Outcome.Error = *row.Error
		}
	}
	return entry, nil
}

func fromNotificationLog(e domain.NotificationLogEntry) (schema.NotificationLog, error) {
	row := schema.NotificationLog{
		LogIndex:    int64(e.Index), //nolint:gosec,G115
		Caller:      e.Caller.String(),
		BlockHeight: int64(e.BlockHeight), //nolint:gosec,G115
		AttemptedAt: e.Timestamp.UTC(),
	}
	if e.Args != nil {
		raw, err := json.Marshal(e.Args)
		if err != nil {
			return schema.NotificationLog{}, fmt.Errorf("failed to encode notification args: %w", err)
		}
		row.Args = raw
	}
	if e.Outcome != nil {
		raw, err := json.Marshal(e.Outcome)
		if err != nil {
			return schema.NotificationLog{}, fmt.Errorf("failed to encode notification outcome: %w", err)
		}
		row.Outcome = raw
	}
	return row, nil
}

func toNotificationLog(row schema.NotificationLog) (domain.NotificationLogEntry, error) {
	entry := domain.NotificationLogEntry{
		Index:       uint64(row.LogIndex), //nolint:gosec,G115
		Timestamp:   row.AttemptedAt.UTC(),
		Caller:      domain.Principal(row.Caller),
		BlockHeight: uint64(row.BlockHeight), //nolint:gosec,G115
	}
	if len(row.Args) > 0 {
		entry.Args = &domain.TransferNotification{}
		if err := json.Unmarshal(row.Args, entry.Args); err != nil {
			return domain.NotificationLogEntry{}, fmt.Errorf("failed to decode notification args: %w", err)
		}
	}
	if len(row.Outcome) > 0 {
		entry.Outcome = &domain.NotificationOutcome{}
		if err := json.Unmarshal(row.Outcome, entry.Outcome); err != nil {
			return domain.NotificationLogEntry{}, fmt.Errorf("failed to decode notification outcome: %w", err)
		}
	}
	return entry, nil
}
