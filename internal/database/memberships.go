package database

import (
	"time"
)

const membershipColumns = "m.id, m.room_id, m.user_id, m.role, u.name, m.created_at"

func scanMembership(row interface{ Scan(...any) error }) (Membership, error) {
	var m Membership
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.UserId,
		&m.Role,
		&m.UserName,
		&m.CreatedAt,
	)
	return m, err
}

func (db *PgTeamChatRepository) GetMembership(roomId, userId int) (Membership, error) {
	return scanMembership(db.conn.QueryRow(
		"SELECT "+membershipColumns+" FROM memberships m "+
			"JOIN users u ON u.id = m.user_id "+
			"WHERE m.room_id = $1 AND m.user_id = $2 LIMIT 1",
		roomId,
		userId,
	))
}

func (db *PgTeamChatRepository) GetMembershipById(id int) (Membership, error) {
	return scanMembership(db.conn.QueryRow(
		"SELECT "+membershipColumns+" FROM memberships m "+
			"JOIN users u ON u.id = m.user_id "+
			"WHERE m.id = $1 LIMIT 1",
		id,
	))
}

func (db *PgTeamChatRepository) ListMemberships(roomId int) ([]Membership, error) {
	rows, err := db.conn.Query(
		"SELECT "+membershipColumns+" FROM memberships m "+
			"JOIN users u ON u.id = m.user_id "+
			"WHERE m.room_id = $1 ORDER BY u.name",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships = make([]Membership, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

func (db *PgTeamChatRepository) CreateMembership(roomId, userId int, role string) (Membership, error) {
	var m Membership
	err := db.conn.QueryRow(
		"INSERT INTO memberships (room_id, user_id, role, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, room_id, user_id, role, created_at",
		roomId,
		userId,
		role,
		time.Now().UTC(),
	).Scan(&m.Id, &m.RoomId, &m.UserId, &m.Role, &m.CreatedAt)

	return m, err
}

func (db *PgTeamChatRepository) DeleteMembership(id int) error {
	_, err := db.conn.Exec("DELETE FROM memberships WHERE id = $1", id)
	return err
}

// DeleteOwnMembership deletes a membership on behalf of its own user,
// re-checking the last-admin invariant against committed state. The
// room's admin rows are locked for the duration of the transaction so
// two admins leaving concurrently cannot both pass the count check.
func (db *PgTeamChatRepository) DeleteOwnMembership(id int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var roomId int
	var role string
	err = tx.QueryRow(
		"SELECT room_id, role FROM memberships WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&roomId, &role)
	if err != nil {
		return err
	}

	if role == "admin" {
		rows, qerr := tx.Query(
			"SELECT id FROM memberships WHERE room_id = $1 AND role = 'admin' FOR UPDATE",
			roomId,
		)
		if qerr != nil {
			err = qerr
			return err
		}

		var adminCount int
		for rows.Next() {
			var adminId int
			if err = rows.Scan(&adminId); err != nil {
				rows.Close()
				return err
			}
			adminCount++
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return err
		}

		if adminCount <= 1 {
			err = ErrLastAdmin
			return err
		}
	}

	_, err = tx.Exec("DELETE FROM memberships WHERE id = $1", id)
	if err != nil {
		return err
	}

	return tx.Commit()
}
