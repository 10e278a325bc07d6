package database

import (
	"database/sql"
	"fmt"
	"time"
)

const roomColumns = "id, external_id, account_id, name, room_type, visibility, created_at, updated_at"

func scanRoom(row interface{ Scan(...any) error }) (Room, error) {
	var r Room
	err := row.Scan(
		&r.Id,
		&r.ExternalId,
		&r.AccountId,
		&r.Name,
		&r.RoomType,
		&r.Visibility,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func (db *PgTeamChatRepository) GetRoomById(id int) (Room, error) {
	return scanRoom(db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE id = $1 LIMIT 1",
		id,
	))
}

func (db *PgTeamChatRepository) GetRoomByExternalId(externalId string) (Room, error) {
	return scanRoom(db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE external_id = $1 LIMIT 1",
		externalId,
	))
}

func (db *PgTeamChatRepository) GetRoomWithMembers(id int) (*Room, error) {
	query := `
		SELECT
				r.id,
				r.external_id,
				r.account_id,
				r.name,
				r.room_type,
				r.visibility,
				r.created_at,
				r.updated_at,
				m.id,
				m.user_id,
				m.role,
				u.name,
				m.created_at
		FROM rooms r
		LEFT JOIN memberships m ON m.room_id = r.id
		LEFT JOIN users u ON u.id = m.user_id
		WHERE r.id = $1`

	rows, err := db.conn.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("fetch room with members: %w", err)
	}
	defer rows.Close()

	var room *Room
	for rows.Next() {
		var (
			r                   Room
			membershipId        sql.NullInt64
			userId              sql.NullInt64
			role                sql.NullString
			userName            sql.NullString
			membershipCreatedAt sql.NullTime
		)

		err := rows.Scan(
			&r.Id,
			&r.ExternalId,
			&r.AccountId,
			&r.Name,
			&r.RoomType,
			&r.Visibility,
			&r.CreatedAt,
			&r.UpdatedAt,
			&membershipId,
			&userId,
			&role,
			&userName,
			&membershipCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		if room == nil {
			r.Memberships = make([]Membership, 0)
			room = &r
		}

		if membershipId.Valid {
			room.Memberships = append(room.Memberships, Membership{
				Id:        int(membershipId.Int64),
				RoomId:    room.Id,
				UserId:    int(userId.Int64),
				Role:      role.String,
				UserName:  userName.String,
				CreatedAt: membershipCreatedAt.Time,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if room == nil {
		return nil, sql.ErrNoRows
	}

	return room, nil
}

// ListRoomsForUser returns the rooms the user belongs to, annotated
// with an unread flag derived from the user's read watermark and, for
// DM rooms, the other participant's name. A room the user never
// visited counts as unread as soon as it has any message.
func (db *PgTeamChatRepository) ListRoomsForUser(userId int) ([]Room, error) {
	query := `
		SELECT
				r.id,
				r.external_id,
				r.account_id,
				r.name,
				r.room_type,
				r.visibility,
				r.created_at,
				r.updated_at,
				EXISTS (
					SELECT 1 FROM messages msg
					WHERE msg.room_id = r.id
					AND msg.created_at > COALESCE(rr.last_read_at, to_timestamp(0))
				) AS has_unread,
				(
					SELECT u.name FROM memberships m2
					JOIN users u ON u.id = m2.user_id
					WHERE m2.room_id = r.id AND m2.user_id <> $1
					LIMIT 1
				) AS partner_name
		FROM rooms r
		JOIN memberships m ON m.room_id = r.id AND m.user_id = $1
		LEFT JOIN room_reads rr ON rr.room_id = r.id AND rr.user_id = $1
		ORDER BY r.name`

	rows, err := db.conn.Query(query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		err := rows.Scan(
			&r.Id,
			&r.ExternalId,
			&r.AccountId,
			&r.Name,
			&r.RoomType,
			&r.Visibility,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.HasUnread,
			&r.PartnerName,
		)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

func (db *PgTeamChatRepository) ListJoinableRooms(accountId, userId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT "+roomColumns+" FROM rooms "+
			"WHERE account_id = $1 AND room_type = 'channel' AND visibility = 'public' "+
			"AND id NOT IN (SELECT room_id FROM memberships WHERE user_id = $2) "+
			"ORDER BY name",
		accountId,
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

// CreateRoom inserts a channel with the creator as admin and any
// additional members as plain members, in one transaction.
func (db *PgTeamChatRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room Room
	room, err = scanRoom(tx.QueryRow(
		"INSERT INTO rooms (external_id, account_id, name, room_type, visibility, created_at, updated_at) "+
			"VALUES ($1, $2, $3, 'channel', $4, $5, $5) RETURNING "+roomColumns,
		params.ExternalId,
		params.AccountId,
		params.Name,
		params.Visibility,
		time.Now().UTC(),
	))
	if err != nil {
		return Room{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO memberships (room_id, user_id, role, created_at) VALUES ($1, $2, 'admin', $3)",
		room.Id,
		params.CreatorId,
		time.Now().UTC(),
	)
	if err != nil {
		return Room{}, err
	}

	for _, memberId := range params.MemberIds {
		if memberId == params.CreatorId {
			continue
		}
		_, err = tx.Exec(
			"INSERT INTO memberships (room_id, user_id, role, created_at) VALUES ($1, $2, 'member', $3)",
			room.Id,
			memberId,
			time.Now().UTC(),
		)
		if err != nil {
			return Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func (db *PgTeamChatRepository) DeleteRoom(id int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM room_reads WHERE room_id = $1", id)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM messages WHERE room_id = $1", id)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM memberships WHERE room_id = $1", id)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// FindDirectMessageRoom finds the DM room in the account whose
// membership set is exactly the two given users.
func (db *PgTeamChatRepository) FindDirectMessageRoom(accountId, userAId, userBId int) (Room, error) {
	return scanRoom(db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms r "+
			"WHERE r.account_id = $1 AND r.room_type = 'direct_message' "+
			"AND (SELECT COUNT(*) FROM memberships m WHERE m.room_id = r.id) = 2 "+
			"AND (SELECT COUNT(DISTINCT m.user_id) FROM memberships m "+
			"WHERE m.room_id = r.id AND m.user_id IN ($2, $3)) = 2 "+
			"LIMIT 1",
		accountId,
		userAId,
		userBId,
	))
}

// CreateDirectMessageRoom creates a DM room plus exactly two
// memberships in one transaction; partial failure rolls back all of it.
func (db *PgTeamChatRepository) CreateDirectMessageRoom(accountId int, name, externalId string, userAId, userBId int) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room Room
	room, err = scanRoom(tx.QueryRow(
		"INSERT INTO rooms (external_id, account_id, name, room_type, visibility, created_at, updated_at) "+
			"VALUES ($1, $2, $3, 'direct_message', 'private', $4, $4) RETURNING "+roomColumns,
		externalId,
		accountId,
		name,
		time.Now().UTC(),
	))
	if err != nil {
		return Room{}, err
	}

	for _, userId := range []int{userAId, userBId} {
		_, err = tx.Exec(
			"INSERT INTO memberships (room_id, user_id, role, created_at) VALUES ($1, $2, 'member', $3)",
			room.Id,
			userId,
			time.Now().UTC(),
		)
		if err != nil {
			return Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}
