package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Database table names
	TableUsers          = "users"
	TableAdmins         = "admins"
	TableNodes          = "nodes"
	TableSystemStats    = "system_stats"
	TableNodeUserUsages = "node_user_usages"
	TableNodeUsages     = "node_usages"
)
