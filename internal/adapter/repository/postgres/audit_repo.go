package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/smsledger/internal/usecase"
)

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, actor_id, action, resource_type, resource_id, request_id,
		before_state, after_state, status, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	db generated.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db generated.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit log entry outside any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return insertAudit(ctx, r.db, log)
}

// CreateTx inserts an audit log entry as part of tx.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return insertAudit(ctx, tx.(*Tx).PgxTx(), log)
}

func insertAudit(ctx context.Context, db generated.DBTX, log *domain.AuditLog) error {
	before, err := marshalAuditState(log.BeforeState)
	if err != nil {
		return err
	}
	after, err := marshalAuditState(log.AfterState)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, insertAuditLog,
		log.ID,
		log.ActorID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		before,
		after,
		string(log.Status),
		log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt),
	)

	return err
}

func marshalAuditState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal audit state: %w", err)
	}
	return data, nil
}

// List retrieves audit logs with filtering, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.Action != "" {
		add("action", string(filter.Action))
	}
	if filter.ResourceType != "" {
		add("resource_type", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add("resource_id", filter.ResourceID)
	}

	query := `
		SELECT id, actor_id, action, resource_type, resource_id, request_id,
		       before_state, after_state, status, error_message, created_at
		FROM audit_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			row generated.AuditLog
			log domain.AuditLog
		)

		err := rows.Scan(
			&row.ID,
			&row.ActorID,
			&row.Action,
			&row.ResourceType,
			&row.ResourceID,
			&row.RequestID,
			&row.BeforeState,
			&row.AfterState,
			&row.Status,
			&row.ErrorMessage,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		log.ID = row.ID
		log.ActorID = row.ActorID
		log.Action = domain.AuditAction(row.Action)
		log.ResourceType = row.ResourceType
		log.ResourceID = row.ResourceID
		log.RequestID = row.RequestID
		log.Status = domain.AuditStatus(row.Status)
		log.ErrorMessage = row.ErrorMessage
		log.CreatedAt = row.CreatedAt.Time

		if row.BeforeState != nil {
			_ = json.Unmarshal(row.BeforeState, &log.BeforeState)
		}
		if row.AfterState != nil {
			_ = json.Unmarshal(row.AfterState, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
