package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// performanceIndexes are the filter and sort columns the list endpoints rely on.
var performanceIndexes = []index{
	{"tasks", "idx_tasks_organization_id", "organization_id"},
	{"tasks", "idx_tasks_creator_id", "creator_id"},
	{"tasks", "idx_tasks_status", "status"},
	{"tasks", "idx_tasks_due_date", "due_date"},
	{"tasks", "idx_tasks_created_at", "created_at"},

	{"team_members", "idx_team_members_user_id", "user_id"},
	{"team_members", "idx_team_members_status", "organization_id, status"},

	{"task_assignments", "idx_task_assignments_user_id", "user_id"},

	{"invites", "idx_invites_org_email_status", "organization_id, email, status"},

	{"clients", "idx_clients_status", "organization_id, status"},
	{"invoices", "idx_invoices_status", "organization_id, status"},
	{"chat_messages", "idx_chat_messages_room_created", "room_id, created_at"},
}

// AddIndexes creates the performance indexes that do not exist yet.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()

	for _, idx := range performanceIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}

	return nil
}

// MigrateDatabase runs the schema migration followed by the index pass.
func MigrateDatabase(db *gorm.DB, log *zap.Logger) error {
	if err := Migrate(db, log); err != nil {
		return err
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
