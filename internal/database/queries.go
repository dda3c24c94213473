/**
 * Copyright 2025-present the money-server-go authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// Revision bookkeeping
	queryGetRevision = `
		SELECT rev FROM table_revisions WHERE name = ?`

	queryInsertRevision = `
		INSERT INTO table_revisions (name, rev) VALUES (?, ?)`

	queryBumpRevision = `
		UPDATE table_revisions SET rev = ? WHERE name = ?`

	// Balance queries
	queryGetBalance = `
		SELECT balance FROM balances WHERE user = ?`

	queryInsertBalance = `
		INSERT INTO balances (user, balance, status, type) VALUES (?, ?, ?, ?)`

	queryDebitBalance = `
		UPDATE balances SET balance = balance - ? WHERE user = ? AND balance >= ?`

	queryCreditBalance = `
		UPDATE balances SET balance = balance + ? WHERE user = ?`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			uuid, sender, receiver, amount, sender_balance, receiver_balance,
			object_uuid, object_name, region_handle, region_uuid, type, time,
			secure, status, common_name, description
		) VALUES (?, ?, ?, ?, -1, -1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryStampSenderLeg = `
		UPDATE transactions SET sender_balance = ?, status = ?
		WHERE uuid = ? AND sender = ?`

	queryStampReceiverLeg = `
		UPDATE transactions SET receiver_balance = ?, status = ?
		WHERE uuid = ? AND receiver = ?`

	querySelectTransaction = `
		SELECT uuid, sender, receiver, amount, sender_balance, receiver_balance,
		       object_uuid, object_name, region_handle, region_uuid, type, time,
		       secure, status, common_name, description
		FROM transactions
		WHERE uuid = ?`

	querySelectTransactions = `
		SELECT uuid, sender, receiver, amount, sender_balance, receiver_balance,
		       object_uuid, object_name, region_handle, region_uuid, type, time,
		       secure, status, common_name, description
		FROM transactions
		WHERE time >= ? AND time <= ? AND (sender = ? OR receiver = ?)
		ORDER BY time ASC
		LIMIT ? OFFSET ?`

	queryCountTransactions = `
		SELECT COUNT(*) FROM transactions
		WHERE time >= ? AND time <= ? AND (sender = ? OR receiver = ?)`

	queryUpdateStatus = `
		UPDATE transactions SET status = ?, description = ? WHERE uuid = ?`

	queryUpdateStatusGuarded = `
		UPDATE transactions SET status = ?, description = ?
		WHERE uuid = ? AND status = ?`

	querySelectSecureCode = `
		SELECT secure FROM transactions WHERE uuid = ?`

	queryExpirePending = `
		UPDATE transactions SET status = ?, description = 'expired'
		WHERE time <= ? AND status = ?`

	// Total sales queries
	querySelectSale = `
		SELECT uuid, time FROM totalsales
		WHERE user = ? AND object_uuid = ? AND type = ?`

	queryInsertSale = `
		INSERT INTO totalsales (uuid, user, object_uuid, type, total_count, total_amount, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryUpdateSale = `
		UPDATE totalsales
		SET total_count = total_count + ?, total_amount = total_amount + ?, time = ?
		WHERE uuid = ?`

	queryRebuildSales = `
		SELECT receiver, object_uuid, type, COUNT(*), SUM(amount), MIN(time)
		FROM transactions
		WHERE sender != receiver AND status = ? AND sender != ? AND type = ?
		GROUP BY receiver, object_uuid, type`

	queryClearSales = `
		DELETE FROM totalsales`

	// User info queries
	querySelectUserInfo = `
		SELECT user, sim_ip, avatar, psw_hash, type, class, server_url
		FROM userinfo
		WHERE user = ?`

	queryUpsertUserInfo = `
		INSERT INTO userinfo (user, sim_ip, avatar, psw_hash, type, class, server_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user) DO UPDATE SET
			sim_ip = excluded.sim_ip,
			avatar = excluded.avatar,
			psw_hash = excluded.psw_hash,
			type = excluded.type,
			class = excluded.class,
			server_url = excluded.server_url`

	queryUpdateUserInfo = `
		UPDATE userinfo
		SET sim_ip = ?, avatar = ?, psw_hash = ?, type = ?, class = ?, server_url = ?
		WHERE user = ?`

	queryUserExists = `
		SELECT 1 FROM userinfo WHERE user = ? LIMIT 1`
)
