package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hazemadel/edumsg/internal/models"
)

// PostgresStore implements Store on top of database/sql with lib/pq.
type PostgresStore struct {
	*sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db}, nil
}

const messageColumns = `id, sender_role, sender_id, receiver_role, receiver_id,
	course_id, title, content, parent_id, is_reply, is_read, created_at, expires_at`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(s scanner) (*models.Message, error) {
	var msg models.Message
	var courseID sql.NullInt64
	var parentID uuid.NullUUID
	var expiresAt sql.NullTime

	err := s.Scan(
		&msg.ID, &msg.Sender.Role, &msg.Sender.ID, &msg.Recipient.Role, &msg.Recipient.ID,
		&courseID, &msg.Title, &msg.Content, &parentID, &msg.IsReply, &msg.IsRead,
		&msg.CreatedAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if courseID.Valid {
		msg.CourseID = &courseID.Int64
	}
	if parentID.Valid {
		id := parentID.UUID
		msg.ParentID = &id
	}
	if expiresAt.Valid {
		msg.ExpiresAt = expiresAt.Time
	}

	return &msg, nil
}

func (db *PostgresStore) CreateMessage(sender, recipient models.Actor, title, content string, parentID *uuid.UUID, courseID *int64) (*models.Message, error) {
	var parent *models.Message
	if parentID != nil {
		var err error
		parent, err = db.GetMessage(*parentID)
		if err != nil {
			return nil, err
		}
	}

	if err := validateNewMessage(sender, recipient, title, content, parent); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := &models.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Title:     title,
		Content:   content,
		ParentID:  parentID,
		IsReply:   parentID != nil,
		CourseID:  courseID,
		CreatedAt: now,
		ExpiresAt: now.Add(models.MessageTTL),
	}

	var courseArg sql.NullInt64
	if courseID != nil {
		courseArg = sql.NullInt64{Int64: *courseID, Valid: true}
	}
	var parentArg uuid.NullUUID
	if parentID != nil {
		parentArg = uuid.NullUUID{UUID: *parentID, Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		msg.ID, msg.Sender.Role, msg.Sender.ID, msg.Recipient.Role, msg.Recipient.ID,
		courseArg, msg.Title, msg.Content, parentArg, msg.IsReply, msg.IsRead,
		msg.CreatedAt, msg.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (db *PostgresStore) GetMessage(id uuid.UUID) (*models.Message, error) {
	msg, err := scanMessage(db.QueryRow(
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (db *PostgresStore) MarkMessageRead(id uuid.UUID) error {
	result, err := db.Exec("UPDATE messages SET is_read = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

func (db *PostgresStore) QueryMessages(f MessageFilter) ([]*models.Message, error) {
	var where []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Actor != nil {
		role := arg(f.Actor.Role)
		id := arg(f.Actor.ID)
		where = append(where, fmt.Sprintf(
			"((sender_role = %s AND sender_id = %s) OR (receiver_role = %s AND receiver_id = %s))",
			role, id, role, id))
	}
	if f.Recipient != nil {
		where = append(where, fmt.Sprintf(
			"(receiver_role = %s AND receiver_id = %s)",
			arg(f.Recipient.Role), arg(f.Recipient.ID)))
	}
	if f.UnreadOnly {
		where = append(where, "is_read = FALSE")
	}
	if f.Since != nil {
		where = append(where, "created_at >= "+arg(*f.Since))
	}
	if f.Until != nil {
		where = append(where, "created_at < "+arg(*f.Until))
	}
	if f.ExcludeReplies {
		where = append(where, "parent_id IS NULL")
	}
	if f.Search != "" {
		pattern := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(
			"(title ILIKE %s OR content ILIKE %s)", pattern, pattern))
	}

	query := `SELECT ` + messageColumns + ` FROM messages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(clampLimit(f.Limit))

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (db *PostgresStore) ListReplies(parentID uuid.UUID) ([]*models.Message, error) {
	rows, err := db.Query(
		`SELECT `+messageColumns+` FROM messages WHERE parent_id = $1 ORDER BY created_at ASC`,
		parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (db *PostgresStore) CountUnread(recipient models.Actor) (int, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE receiver_role = $1 AND receiver_id = $2 AND is_read = FALSE",
		recipient.Role, recipient.ID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (db *PostgresStore) CreateNotification(messageID uuid.UUID, recipient models.Actor) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.New(),
		MessageID: messageID,
		Recipient: recipient,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO notifications (id, message_id, user_role, user_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.MessageID, n.Recipient.Role, n.Recipient.ID, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (db *PostgresStore) ListNotifications(recipient models.Actor, limit int) ([]*models.Notification, error) {
	rows, err := db.Query(
		`SELECT id, message_id, user_role, user_id, is_read, created_at
		FROM notifications
		WHERE user_role = $1 AND user_id = $2
		ORDER BY created_at DESC LIMIT $3`,
		recipient.Role, recipient.ID, clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.MessageID, &n.Recipient.Role, &n.Recipient.ID, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (db *PostgresStore) MarkNotificationRead(messageID uuid.UUID, recipient models.Actor) error {
	_, err := db.Exec(
		"UPDATE notifications SET is_read = TRUE WHERE message_id = $1 AND user_role = $2 AND user_id = $3",
		messageID, recipient.Role, recipient.ID,
	)
	return err
}

func (db *PostgresStore) CountNotifications(messageIDs []uuid.UUID) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	ids := make([]string, len(messageIDs))
	for i, id := range messageIDs {
		ids[i] = id.String()
	}

	var count int64
	err := db.QueryRow(
		"SELECT COUNT(*) FROM notifications WHERE message_id = ANY($1)",
		pq.Array(ids),
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func expiredWhere(includeRead bool) string {
	clause := "expires_at IS NOT NULL AND expires_at < $1"
	if !includeRead {
		clause += " AND is_read = FALSE"
	}
	return clause
}

func (db *PostgresStore) ListExpired(before time.Time, includeRead bool) ([]*models.Message, error) {
	rows, err := db.Query(
		`SELECT `+messageColumns+` FROM messages WHERE `+expiredWhere(includeRead)+` ORDER BY created_at ASC`,
		before,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (db *PostgresStore) DeleteMessage(id uuid.UUID) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Notifications go first so an interrupted delete can never leave a
	// notification pointing at a missing message.
	result, err := tx.Exec("DELETE FROM notifications WHERE message_id = $1", id)
	if err != nil {
		return 0, err
	}
	notifDeleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	result, err = tx.Exec("DELETE FROM messages WHERE id = $1", id)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rowsAffected == 0 {
		return 0, ErrMessageNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return notifDeleted, nil
}

func (db *PostgresStore) DeleteExpired(before time.Time, includeRead bool) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"DELETE FROM notifications WHERE message_id IN (SELECT id FROM messages WHERE "+expiredWhere(includeRead)+")",
		before,
	)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec("DELETE FROM messages WHERE "+expiredWhere(includeRead), before)
	if err != nil {
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return deleted, nil
}

func (db *PostgresStore) BackfillExpiry(ttl time.Duration) (int64, error) {
	result, err := db.Exec(
		"UPDATE messages SET expires_at = created_at + make_interval(secs => $1) WHERE expires_at IS NULL",
		ttl.Seconds(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (db *PostgresStore) CountMissingExpiry() (int64, error) {
	var count int64
	err := db.QueryRow("SELECT COUNT(*) FROM messages WHERE expires_at IS NULL").Scan(&count)
	return count, err
}

func (db *PostgresStore) CountOrphanedNotifications() (int64, error) {
	var count int64
	err := db.QueryRow(
		"SELECT COUNT(*) FROM notifications WHERE message_id NOT IN (SELECT id FROM messages)",
	).Scan(&count)
	return count, err
}

func (db *PostgresStore) DeleteOrphanedNotifications() (int64, error) {
	result, err := db.Exec(
		"DELETE FROM notifications WHERE message_id NOT IN (SELECT id FROM messages)",
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (db *PostgresStore) Close() error {
	return db.DB.Close()
}
