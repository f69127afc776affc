package repository

import (
	"fmt"
	"time"

	"veilgate/internal/shared/constants"
)

// Statement is one parameterized SQL statement plus an optional batch of
// named-argument rows. Rows bind to @name placeholders; with no rows the
// statement executes once without arguments.
type Statement struct {
	SQL  string
	Rows []map[string]any
}

// UserUsageDelta is one accumulate-row for the node_user_usages fact table.
type UserUsageDelta struct {
	UserID uint
	NodeID uint
	Bucket time.Time
	Value  int64
}

// NodeUsageDelta is one accumulate-row for the node_usages fact table.
type NodeUsageDelta struct {
	NodeID   uint
	Bucket   time.Time
	Uplink   int64
	Downlink int64
}

// UpsertBuilder produces "increment counter by delta, creating the row
// if absent" statements for the two fact tables. Each dialect family
// gets its own variant; the variant is selected once at startup from
// the connected dialect. Builders only construct statements, they never
// touch the database.
type UpsertBuilder interface {
	// UserUsage returns the ordered statements implementing an
	// upsert-add of the given deltas into node_user_usages.
	UserUsage(deltas []UserUsageDelta) []Statement
	// NodeUsage returns the ordered statements implementing an
	// upsert-add of the given delta into node_usages.
	NodeUsage(delta NodeUsageDelta) []Statement
}

// NewUpsertBuilder selects the builder variant for a dialect name as
// reported by the connection layer. Dialects without a native atomic
// upsert-add fall back to the insert-then-update variant.
func NewUpsertBuilder(dialect string) UpsertBuilder {
	switch dialect {
	case "postgres", "postgresql":
		return postgresUpsert{}
	case "mysql":
		return mysqlUpsert{}
	default:
		return sqliteUpsert{}
	}
}

type postgresUpsert struct{}

func (postgresUpsert) UserUsage(deltas []UserUsageDelta) []Statement {
	sql := fmt.Sprintf(
		`INSERT INTO %[1]s (user_id, node_id, created_at, used_traffic) `+
			`VALUES (@uid, @node_id, @created_at, @value) `+
			`ON CONFLICT (created_at, user_id, node_id) `+
			`DO UPDATE SET used_traffic = %[1]s.used_traffic + excluded.used_traffic`,
		constants.TableNodeUserUsages)
	return []Statement{{SQL: sql, Rows: userUsageRows(deltas)}}
}

func (postgresUpsert) NodeUsage(delta NodeUsageDelta) []Statement {
	sql := fmt.Sprintf(
		`INSERT INTO %[1]s (node_id, created_at, uplink, downlink) `+
			`VALUES (@node_id, @created_at, @up, @down) `+
			`ON CONFLICT (created_at, node_id) `+
			`DO UPDATE SET uplink = %[1]s.uplink + excluded.uplink, `+
			`downlink = %[1]s.downlink + excluded.downlink`,
		constants.TableNodeUsages)
	return []Statement{{SQL: sql, Rows: []map[string]any{nodeUsageRow(delta)}}}
}

type mysqlUpsert struct{}

func (mysqlUpsert) UserUsage(deltas []UserUsageDelta) []Statement {
	sql := fmt.Sprintf(
		`INSERT INTO %s (user_id, node_id, created_at, used_traffic) `+
			`VALUES (@uid, @node_id, @created_at, @value) `+
			`ON DUPLICATE KEY UPDATE used_traffic = used_traffic + VALUES(used_traffic)`,
		constants.TableNodeUserUsages)
	return []Statement{{SQL: sql, Rows: userUsageRows(deltas)}}
}

func (mysqlUpsert) NodeUsage(delta NodeUsageDelta) []Statement {
	sql := fmt.Sprintf(
		`INSERT INTO %s (node_id, created_at, uplink, downlink) `+
			`VALUES (@node_id, @created_at, @up, @down) `+
			`ON DUPLICATE KEY UPDATE uplink = uplink + VALUES(uplink), `+
			`downlink = downlink + VALUES(downlink)`,
		constants.TableNodeUsages)
	return []Statement{{SQL: sql, Rows: []map[string]any{nodeUsageRow(delta)}}}
}

// sqliteUpsert is the fallback for dialects without a safe atomic
// upsert-add: an insert-or-ignore seeding the row with a zero counter,
// then an additive update keyed on the exact bucket. The update binds
// under b_-prefixed names so the two statements never collide on
// argument names. The gap between the statements is covered by the
// executor's retry-on-lock behavior rather than true atomicity.
type sqliteUpsert struct{}

func (sqliteUpsert) UserUsage(deltas []UserUsageDelta) []Statement {
	insertSQL := fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (user_id, node_id, created_at, used_traffic) `+
			`VALUES (@uid, @node_id, @created_at, 0)`,
		constants.TableNodeUserUsages)
	updateSQL := fmt.Sprintf(
		`UPDATE %s SET used_traffic = used_traffic + @value `+
			`WHERE user_id = @b_uid AND node_id = @b_node_id AND created_at = @b_created_at`,
		constants.TableNodeUserUsages)

	updateRows := make([]map[string]any, 0, len(deltas))
	for _, d := range deltas {
		updateRows = append(updateRows, map[string]any{
			"value":        d.Value,
			"b_uid":        d.UserID,
			"b_node_id":    d.NodeID,
			"b_created_at": d.Bucket,
		})
	}

	return []Statement{
		{SQL: insertSQL, Rows: userUsageRows(deltas)},
		{SQL: updateSQL, Rows: updateRows},
	}
}

func (sqliteUpsert) NodeUsage(delta NodeUsageDelta) []Statement {
	insertSQL := fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (node_id, created_at, uplink, downlink) `+
			`VALUES (@node_id, @created_at, 0, 0)`,
		constants.TableNodeUsages)
	updateSQL := fmt.Sprintf(
		`UPDATE %s SET uplink = uplink + @up, downlink = downlink + @down `+
			`WHERE node_id = @b_node_id AND created_at = @b_created_at`,
		constants.TableNodeUsages)

	updateRow := map[string]any{
		"up":           delta.Uplink,
		"down":         delta.Downlink,
		"b_node_id":    delta.NodeID,
		"b_created_at": delta.Bucket,
	}

	return []Statement{
		{SQL: insertSQL, Rows: []map[string]any{nodeUsageRow(delta)}},
		{SQL: updateSQL, Rows: []map[string]any{updateRow}},
	}
}

func userUsageRows(deltas []UserUsageDelta) []map[string]any {
	rows := make([]map[string]any, 0, len(deltas))
	for _, d := range deltas {
		rows = append(rows, map[string]any{
			"uid":        d.UserID,
			"node_id":    d.NodeID,
			"created_at": d.Bucket,
			"value":      d.Value,
		})
	}
	return rows
}

func nodeUsageRow(delta NodeUsageDelta) map[string]any {
	return map[string]any{
		"node_id":    delta.NodeID,
		"created_at": delta.Bucket,
		"up":         delta.Uplink,
		"down":       delta.Downlink,
	}
}
