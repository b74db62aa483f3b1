package database

// Timestamps are stored as unix milliseconds (UTC) in BIGINT columns so range
// comparisons behave identically on both dialects.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		role TEXT NOT NULL DEFAULT 'user',
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		last_activity INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS grants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL,
		responsible_person TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		item_condition TEXT NOT NULL DEFAULT '',
		price INTEGER,
		acquired_at INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'Available',
		grant_id INTEGER REFERENCES grants(id),
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		requester_id INTEGER NOT NULL,
		requester_name TEXT NOT NULL DEFAULT '',
		item_id INTEGER NOT NULL REFERENCES items(id),
		item_name TEXT NOT NULL DEFAULT '',
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		submitted_at INTEGER NOT NULL,
		approved_at INTEGER,
		approved_by INTEGER,
		decline_reason TEXT,
		returned_at INTEGER,
		returned_by INTEGER,
		fine INTEGER,
		return_condition TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		booking_id INTEGER NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at INTEGER NOT NULL,
		processed_at INTEGER,
		next_retry_at INTEGER
	)`,

	`CREATE INDEX IF NOT EXISTS idx_items_status ON items(status)`,
	`CREATE INDEX IF NOT EXISTS idx_items_grant_id ON items(grant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_item_window ON bookings(item_id, status, start_at, end_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_requester ON bookings(requester_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, next_retry_at)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT NOT NULL PRIMARY KEY,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		last_activity BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS grants (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		year INT NOT NULL,
		responsible_person VARCHAR(255) NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		item_condition VARCHAR(255) NOT NULL DEFAULT '',
		price BIGINT NULL,
		acquired_at BIGINT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'Available',
		grant_id BIGINT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		INDEX idx_items_status (status),
		CONSTRAINT fk_items_grant FOREIGN KEY (grant_id) REFERENCES grants(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		requester_id BIGINT NOT NULL,
		requester_name VARCHAR(255) NOT NULL DEFAULT '',
		item_id BIGINT NOT NULL,
		item_name VARCHAR(255) NOT NULL DEFAULT '',
		start_at BIGINT NOT NULL,
		end_at BIGINT NOT NULL,
		reason TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'Pending',
		submitted_at BIGINT NOT NULL,
		approved_at BIGINT NULL,
		approved_by BIGINT NULL,
		decline_reason TEXT NULL,
		returned_at BIGINT NULL,
		returned_by BIGINT NULL,
		fine BIGINT NULL,
		return_condition VARCHAR(255) NULL,
		version BIGINT NOT NULL DEFAULT 1,
		updated_at BIGINT NOT NULL,
		INDEX idx_bookings_item_window (item_id, status, start_at, end_at),
		INDEX idx_bookings_requester (requester_id),
		INDEX idx_bookings_status (status),
		CONSTRAINT fk_bookings_item FOREIGN KEY (item_id) REFERENCES items(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		event_type VARCHAR(64) NOT NULL,
		booking_id BIGINT NOT NULL,
		payload TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		retry_count INT NOT NULL DEFAULT 0,
		last_error TEXT NULL,
		created_at BIGINT NOT NULL,
		processed_at BIGINT NULL,
		next_retry_at BIGINT NULL,
		INDEX idx_notifications_status (status, next_retry_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
