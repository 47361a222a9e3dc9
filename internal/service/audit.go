package service

import (
	"context"
	"encoding/json"
	"fmt"

	"user-account-backend/internal/models"
	"user-account-backend/internal/repository"

	"gorm.io/datatypes"
)

// writeAudit records an account event in the same transaction as the change
func writeAudit(ctx context.Context, tx repository.Store, userID *uint, action, details string) error {
	entry := &models.AuditLog{UserID: userID, Action: action, Details: details}
	if info := clientInfoFrom(ctx); info != (clientInfo{}) {
		if meta, err := json.Marshal(map[string]string{"ip": info.IP, "user_agent": info.UserAgent}); err == nil {
			entry.Metadata = datatypes.JSON(meta)
		}
	}
	if err := tx.Audit().CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
