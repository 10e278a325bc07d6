package database

import (
	"time"
)

// UpsertRoomRead creates or advances the user's read watermark for
// the room.
func (db *PgTeamChatRepository) UpsertRoomRead(userId, roomId int, readAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO room_reads (room_id, user_id, last_read_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (room_id, user_id) DO UPDATE SET last_read_at = EXCLUDED.last_read_at",
		roomId,
		userId,
		readAt,
	)

	return err
}

func (db *PgTeamChatRepository) GetRoomRead(userId, roomId int) (RoomRead, error) {
	var rr RoomRead
	err := db.conn.QueryRow(
		"SELECT id, room_id, user_id, last_read_at FROM room_reads "+
			"WHERE room_id = $1 AND user_id = $2 LIMIT 1",
		roomId,
		userId,
	).Scan(&rr.Id, &rr.RoomId, &rr.UserId, &rr.LastReadAt)

	return rr, err
}
