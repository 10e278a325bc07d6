package database

import (
	"time"
)

const userColumns = "id, account_id, name, email, password_hash, failed_login_attempts, locked_at, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.AccountId,
		&u.Name,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.FailedLoginAttempts,
		&u.LockedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// CreateAccount provisions a tenant: the account row, the founding
// user, and the account's General room with the founder as its first
// member, all in one transaction.
func (db *PgTeamChatRepository) CreateAccount(params CreateAccountParams) (Account, User, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Account{}, User{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var account Account
	err = tx.QueryRow(
		"INSERT INTO accounts (name, created_at) VALUES ($1, $2) RETURNING id, name, created_at",
		params.AccountName,
		time.Now().UTC(),
	).Scan(&account.Id, &account.Name, &account.CreatedAt)
	if err != nil {
		return Account{}, User{}, err
	}

	var user User
	user, err = scanUser(tx.QueryRow(
		"INSERT INTO users (account_id, name, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING "+userColumns,
		account.Id,
		params.UserName,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	))
	if err != nil {
		return Account{}, User{}, err
	}

	var roomId int
	err = tx.QueryRow(
		"INSERT INTO rooms (external_id, account_id, name, room_type, visibility, created_at, updated_at) "+
			"VALUES ($1, $2, 'General', 'channel', 'public', $3, $3) RETURNING id",
		params.GeneralRoomExternalId,
		account.Id,
		time.Now().UTC(),
	).Scan(&roomId)
	if err != nil {
		return Account{}, User{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO memberships (room_id, user_id, role, created_at) VALUES ($1, $2, 'admin', $3)",
		roomId,
		user.Id,
		time.Now().UTC(),
	)
	if err != nil {
		return Account{}, User{}, err
	}

	if err = tx.Commit(); err != nil {
		return Account{}, User{}, err
	}

	return account, user, nil
}

func (db *PgTeamChatRepository) GetUserById(id int) (User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = $1 LIMIT 1",
		id,
	))
}

func (db *PgTeamChatRepository) GetUserByEmail(email string) (User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE email = $1 LIMIT 1",
		email,
	))
}

func (db *PgTeamChatRepository) RecordFailedLogin(userId int, lockedAt time.Time, locked bool) error {
	if locked {
		_, err := db.conn.Exec(
			"UPDATE users SET failed_login_attempts = failed_login_attempts + 1, locked_at = $2, updated_at = $3 WHERE id = $1",
			userId,
			lockedAt,
			time.Now().UTC(),
		)
		return err
	}

	_, err := db.conn.Exec(
		"UPDATE users SET failed_login_attempts = failed_login_attempts + 1, updated_at = $2 WHERE id = $1",
		userId,
		time.Now().UTC(),
	)
	return err
}

func (db *PgTeamChatRepository) ResetLoginAttempts(userId int) error {
	_, err := db.conn.Exec(
		"UPDATE users SET failed_login_attempts = 0, locked_at = NULL, updated_at = $2 WHERE id = $1",
		userId,
		time.Now().UTC(),
	)
	return err
}

func (db *PgTeamChatRepository) SearchUsers(accountId, excludeUserId int, query string, limit int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT "+userColumns+" FROM users "+
			"WHERE account_id = $1 AND id <> $2 AND name ILIKE '%' || $3 || '%' "+
			"ORDER BY name LIMIT $4",
		accountId,
		excludeUserId,
		query,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users = make([]User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
