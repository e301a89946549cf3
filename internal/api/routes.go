package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/v1/about"

	AuditParent   = "/v1/audit/"
	EntriesRoute  = AuditParent + "entries"
	EntryRoute    = EntriesRoute + "/{id}"
	StatsRoute    = AuditParent + "stats"
	ExportRoute   = AuditParent + "export"
	SnapshotRoute = AuditParent + "snapshot"

	TaskParent       = "/v1/tasks/"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "{name}/trigger"
	LogsForTaskRoute = TaskParent + "{name}/logs"
)
