package database

import (
	"time"
)

const messageColumns = "msg.id, msg.room_id, msg.user_id, u.name, msg.body, msg.created_at, msg.updated_at"

func scanMessage(row interface{ Scan(...any) error }) (Message, error) {
	var m Message
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.UserId,
		&m.UserName,
		&m.Body,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (db *PgTeamChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	// the author name rides on the RETURNING clause so a committed row
	// never depends on a follow-up lookup succeeding
	return scanMessage(db.conn.QueryRow(
		"INSERT INTO messages (room_id, user_id, body, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) "+
			"RETURNING id, room_id, user_id, (SELECT name FROM users WHERE id = $2), body, created_at, updated_at",
		params.RoomId,
		params.UserId,
		params.Body,
		time.Now().UTC(),
	))
}

func (db *PgTeamChatRepository) GetMessageById(id int) (Message, error) {
	return scanMessage(db.conn.QueryRow(
		"SELECT "+messageColumns+" FROM messages msg "+
			"JOIN users u ON u.id = msg.user_id "+
			"WHERE msg.id = $1 LIMIT 1",
		id,
	))
}

func (db *PgTeamChatRepository) UpdateMessage(id int, body string) (Message, error) {
	return scanMessage(db.conn.QueryRow(
		"UPDATE messages SET body = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, room_id, user_id, (SELECT name FROM users WHERE id = messages.user_id), body, created_at, updated_at",
		id,
		body,
		time.Now().UTC(),
	))
}

func (db *PgTeamChatRepository) DeleteMessage(id int) error {
	_, err := db.conn.Exec("DELETE FROM messages WHERE id = $1", id)
	return err
}

func (db *PgTeamChatRepository) ListMessages(roomId, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query(
		"SELECT "+messageColumns+" FROM messages msg "+
			"JOIN users u ON u.id = msg.user_id "+
			"WHERE msg.room_id = $1 ORDER BY msg.created_at DESC LIMIT $2",
		roomId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgTeamChatRepository) CountMessages(roomId int) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE room_id = $1",
		roomId,
	).Scan(&count)

	return count, err
}

func (db *PgTeamChatRepository) HasMessagesSince(roomId int, since time.Time) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM messages WHERE room_id = $1 AND created_at > $2)",
		roomId,
		since,
	).Scan(&exists)

	return exists, err
}
