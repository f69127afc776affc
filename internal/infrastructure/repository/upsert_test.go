package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bucket = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func TestNewUpsertBuilderSelectsVariant(t *testing.T) {
	assert.IsType(t, postgresUpsert{}, NewUpsertBuilder("postgres"))
	assert.IsType(t, postgresUpsert{}, NewUpsertBuilder("postgresql"))
	assert.IsType(t, mysqlUpsert{}, NewUpsertBuilder("mysql"))
	assert.IsType(t, sqliteUpsert{}, NewUpsertBuilder("sqlite"))
	assert.IsType(t, sqliteUpsert{}, NewUpsertBuilder("something-else"))
}

func TestPostgresUserUsageStatement(t *testing.T) {
	deltas := []UserUsageDelta{
		{UserID: 1, NodeID: 7, Bucket: bucket, Value: 100},
		{UserID: 2, NodeID: 7, Bucket: bucket, Value: 50},
	}

	stmts := postgresUpsert{}.UserUsage(deltas)
	require.Len(t, stmts, 1)

	assert.Contains(t, stmts[0].SQL, "INSERT INTO node_user_usages")
	assert.Contains(t, stmts[0].SQL, "ON CONFLICT (created_at, user_id, node_id)")
	assert.Contains(t, stmts[0].SQL, "used_traffic = node_user_usages.used_traffic + excluded.used_traffic")
	require.Len(t, stmts[0].Rows, 2)
	assert.Equal(t, uint(1), stmts[0].Rows[0]["uid"])
	assert.Equal(t, int64(100), stmts[0].Rows[0]["value"])
	assert.Equal(t, bucket, stmts[0].Rows[0]["created_at"])
}

func TestMySQLUserUsageStatement(t *testing.T) {
	stmts := mysqlUpsert{}.UserUsage([]UserUsageDelta{{UserID: 3, NodeID: 1, Bucket: bucket, Value: 42}})
	require.Len(t, stmts, 1)

	assert.Contains(t, stmts[0].SQL, "ON DUPLICATE KEY UPDATE used_traffic = used_traffic + VALUES(used_traffic)")
	require.Len(t, stmts[0].Rows, 1)
	assert.Equal(t, uint(3), stmts[0].Rows[0]["uid"])
}

func TestSQLiteUserUsageFallback(t *testing.T) {
	deltas := []UserUsageDelta{
		{UserID: 1, NodeID: 2, Bucket: bucket, Value: 9},
		{UserID: 4, NodeID: 2, Bucket: bucket, Value: 11},
	}

	stmts := sqliteUpsert{}.UserUsage(deltas)
	require.Len(t, stmts, 2)

	assert.Contains(t, stmts[0].SQL, "INSERT OR IGNORE INTO node_user_usages")
	assert.Contains(t, stmts[0].SQL, ", 0)")
	assert.Contains(t, stmts[1].SQL, "UPDATE node_user_usages SET used_traffic = used_traffic + @value")

	require.Len(t, stmts[1].Rows, 2)
	row := stmts[1].Rows[1]
	assert.Equal(t, int64(11), row["value"])
	assert.Equal(t, uint(4), row["b_uid"])
	assert.Equal(t, uint(2), row["b_node_id"])
	assert.Equal(t, bucket, row["b_created_at"])
}

func TestPostgresNodeUsageStatement(t *testing.T) {
	stmts := postgresUpsert{}.NodeUsage(NodeUsageDelta{NodeID: 5, Bucket: bucket, Uplink: 10, Downlink: 20})
	require.Len(t, stmts, 1)

	assert.Contains(t, stmts[0].SQL, "INSERT INTO node_usages")
	assert.Contains(t, stmts[0].SQL, "ON CONFLICT (created_at, node_id)")
	assert.Contains(t, stmts[0].SQL, "uplink = node_usages.uplink + excluded.uplink")
	require.Len(t, stmts[0].Rows, 1)
	assert.Equal(t, int64(10), stmts[0].Rows[0]["up"])
	assert.Equal(t, int64(20), stmts[0].Rows[0]["down"])
}

func TestMySQLNodeUsageStatement(t *testing.T) {
	stmts := mysqlUpsert{}.NodeUsage(NodeUsageDelta{NodeID: 5, Bucket: bucket, Uplink: 1, Downlink: 2})
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].SQL, "downlink = downlink + VALUES(downlink)")
}

func TestSQLiteNodeUsageFallback(t *testing.T) {
	stmts := sqliteUpsert{}.NodeUsage(NodeUsageDelta{NodeID: 8, Bucket: bucket, Uplink: 3, Downlink: 4})
	require.Len(t, stmts, 2)

	assert.Contains(t, stmts[0].SQL, "INSERT OR IGNORE INTO node_usages")
	assert.Contains(t, stmts[1].SQL, "uplink = uplink + @up")
	require.Len(t, stmts[1].Rows, 1)
	assert.Equal(t, uint(8), stmts[1].Rows[0]["b_node_id"])
}
